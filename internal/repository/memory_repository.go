package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/RyzenMagsino/Carwash/internal/domain/booking"
	"github.com/RyzenMagsino/Carwash/pkg/domain"
)

// bookingRecord is the serialized form of a booking, shared by the in-memory
// snapshot format and the map values.
type bookingRecord struct {
	ID              uuid.UUID                   `json:"id"`
	BookingNumber   string                      `json:"booking_number"`
	Customer        bookingDomain.Customer      `json:"customer"`
	Vehicle         bookingDomain.Vehicle       `json:"vehicle"`
	Services        []bookingDomain.ServiceItem `json:"services"`
	TotalCents      int64                       `json:"total_cents"`
	Status          string                      `json:"status"`
	AssignedTeam    string                      `json:"assigned_team,omitempty"`
	Notes           string                      `json:"notes,omitempty"`
	ScheduledAt     *time.Time                  `json:"scheduled_at,omitempty"`
	ApprovedAt      *time.Time                  `json:"approved_at,omitempty"`
	ArrivalDeadline *time.Time                  `json:"arrival_deadline,omitempty"`
	CompletedAt     *time.Time                  `json:"completed_at,omitempty"`
	CancelReason    string                      `json:"cancel_reason,omitempty"`
	Version         int64                       `json:"version"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// MemoryBookingRepository is an in-memory BookingRepository. It backs unit
// tests and single-node deployments without a database; Snapshot/Restore
// persist its contents as JSON.
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]bookingRecord
}

// NewMemoryBookingRepository creates an empty MemoryBookingRepository.
func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{bookings: make(map[uuid.UUID]bookingRecord)}
}

// FindByID retrieves a booking by its unique identifier.
func (r *MemoryBookingRepository) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return recordToDomain(rec)
}

// FindByNumber retrieves a booking by its human-readable booking number.
func (r *MemoryBookingRepository) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.bookings {
		if rec.BookingNumber == number {
			return recordToDomain(rec)
		}
	}
	return nil, domain.NewNotFoundError("Booking", number)
}

// ListByStatus retrieves bookings in the given status with pagination.
func (r *MemoryBookingRepository) ListByStatus(ctx context.Context, status bookingDomain.BookingStatus, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.list(ctx, func(rec bookingRecord) bool { return rec.Status == string(status) }, page, limit)
}

// ListAll retrieves all bookings with pagination.
func (r *MemoryBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.list(ctx, func(bookingRecord) bool { return true }, page, limit)
}

// ListOngoing retrieves every booking currently in the ongoing status.
func (r *MemoryBookingRepository) ListOngoing(_ context.Context) ([]*bookingDomain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*bookingDomain.Booking
	for _, rec := range r.bookings {
		if rec.Status != string(bookingDomain.StatusOngoing) {
			continue
		}
		bk, err := recordToDomain(rec)
		if err != nil {
			return nil, err
		}
		result = append(result, bk)
	}
	return result, nil
}

// CountByStatus returns booking counts grouped by status.
func (r *MemoryBookingRepository) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, rec := range r.bookings {
		counts[rec.Status]++
	}
	return counts, nil
}

// Save persists a new booking.
func (r *MemoryBookingRepository) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[bk.ID()]; exists {
		return domain.NewConflictError(fmt.Sprintf("booking already exists: %s", bk.ID()))
	}
	r.bookings[bk.ID()] = domainToRecord(bk)
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *MemoryBookingRepository) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.bookings[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("Booking", bk.ID().String())
	}
	if current.Version != bk.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[bk.ID()] = domainToRecord(bk)
	return nil
}

// Snapshot writes the full store contents as JSON, newest first.
func (r *MemoryBookingRepository) Snapshot(w io.Writer) error {
	r.mu.RLock()
	records := make([]bookingRecord, 0, len(r.bookings))
	for _, rec := range r.bookings {
		records = append(records, rec)
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode booking snapshot: %w", err)
	}
	return nil
}

// Restore replaces the store contents with a previously written snapshot.
func (r *MemoryBookingRepository) Restore(reader io.Reader) error {
	var records []bookingRecord
	if err := json.NewDecoder(reader).Decode(&records); err != nil {
		return fmt.Errorf("failed to decode booking snapshot: %w", err)
	}

	bookings := make(map[uuid.UUID]bookingRecord, len(records))
	for _, rec := range records {
		if _, err := bookingDomain.ParseBookingStatus(rec.Status); err != nil {
			return err
		}
		bookings[rec.ID] = rec
	}

	r.mu.Lock()
	r.bookings = bookings
	r.mu.Unlock()
	return nil
}

func (r *MemoryBookingRepository) list(_ context.Context, match func(bookingRecord) bool, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []bookingRecord
	for _, rec := range r.bookings {
		if match(rec) {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	result := make([]*bookingDomain.Booking, 0, end-start)
	for _, rec := range matched[start:end] {
		bk, err := recordToDomain(rec)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, bk)
	}
	return result, total, nil
}

func domainToRecord(bk *bookingDomain.Booking) bookingRecord {
	return bookingRecord{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		Customer:        bk.Customer(),
		Vehicle:         bk.Vehicle(),
		Services:        bk.Services(),
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
	}
}

func recordToDomain(rec bookingRecord) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(rec.Status)
	if err != nil {
		return nil, err
	}
	return bookingDomain.ReconstructBooking(
		rec.ID,
		rec.BookingNumber,
		rec.Customer,
		rec.Vehicle,
		rec.Services,
		rec.TotalCents,
		status,
		rec.AssignedTeam,
		rec.Notes,
		rec.ScheduledAt,
		rec.ApprovedAt,
		rec.ArrivalDeadline,
		rec.CompletedAt,
		rec.CancelReason,
		rec.Version,
		rec.CreatedAt,
		rec.UpdatedAt,
	), nil
}
