package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/RyzenMagsino/Carwash/internal/domain/booking"
	"github.com/RyzenMagsino/Carwash/pkg/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber   string          `gorm:"uniqueIndex;not null;size:20"`
	Customer        json.RawMessage `gorm:"type:jsonb;not null"`
	Vehicle         json.RawMessage `gorm:"type:jsonb;not null"`
	Services        json.RawMessage `gorm:"type:jsonb;not null"`
	TotalCents      int64           `gorm:"not null"`
	Status          string          `gorm:"not null;size:20;index"`
	AssignedTeam    string          `gorm:"size:100"`
	Notes           string          `gorm:"size:1000"`
	ScheduledAt     *time.Time      `gorm:""`
	ApprovedAt      *time.Time      `gorm:""`
	ArrivalDeadline *time.Time      `gorm:""`
	CompletedAt     *time.Time      `gorm:""`
	CancelReason    string          `gorm:"size:500"`
	Version         int64           `gorm:"not null;default:1"`
	CreatedAt       time.Time       `gorm:"not null;index"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// ListByStatus retrieves bookings in the given status with pagination.
func (r *GormBookingRepository) ListByStatus(ctx context.Context, status bookingDomain.BookingStatus, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.listWhere(ctx, r.db.WithContext(ctx).Where("status = ?", string(status)), page, limit)
}

// ListAll retrieves all bookings with pagination.
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.listWhere(ctx, r.db.WithContext(ctx), page, limit)
}

// ListOngoing retrieves every booking currently in the ongoing status.
func (r *GormBookingRepository) ListOngoing(ctx context.Context) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(bookingDomain.StatusOngoing)).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list ongoing bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

// CountByStatus returns booking counts grouped by status.
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking:
// the row is updated only if its version is one behind the aggregate's.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":           model.Status,
			"assigned_team":    model.AssignedTeam,
			"approved_at":      model.ApprovedAt,
			"arrival_deadline": model.ArrivalDeadline,
			"completed_at":     model.CompletedAt,
			"cancel_reason":    model.CancelReason,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

func (r *GormBookingRepository) listWhere(ctx context.Context, query *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := query.Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}

// --- Conversion helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	customerJSON, err := json.Marshal(bk.Customer())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal customer: %w", err)
	}
	vehicleJSON, err := json.Marshal(bk.Vehicle())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vehicle: %w", err)
	}
	servicesJSON, err := json.Marshal(bk.Services())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal services: %w", err)
	}

	return &BookingModel{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		Customer:        customerJSON,
		Vehicle:         vehicleJSON,
		Services:        servicesJSON,
		TotalCents:      bk.TotalCents(),
		Status:          string(bk.Status()),
		AssignedTeam:    bk.AssignedTeam(),
		Notes:           bk.Notes(),
		ScheduledAt:     bk.ScheduledAt(),
		ApprovedAt:      bk.ApprovedAt(),
		ArrivalDeadline: bk.ArrivalDeadline(),
		CompletedAt:     bk.CompletedAt(),
		CancelReason:    bk.CancelReason(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var customer bookingDomain.Customer
	if err := json.Unmarshal(m.Customer, &customer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal customer: %w", err)
	}
	var vehicle bookingDomain.Vehicle
	if err := json.Unmarshal(m.Vehicle, &vehicle); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vehicle: %w", err)
	}
	var services []bookingDomain.ServiceItem
	if err := json.Unmarshal(m.Services, &services); err != nil {
		return nil, fmt.Errorf("failed to unmarshal services: %w", err)
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		customer,
		vehicle,
		services,
		m.TotalCents,
		status,
		m.AssignedTeam,
		m.Notes,
		m.ScheduledAt,
		m.ApprovedAt,
		m.ArrivalDeadline,
		m.CompletedAt,
		m.CancelReason,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
