package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RyzenMagsino/Carwash/internal/clock"
	bookingDomain "github.com/RyzenMagsino/Carwash/internal/domain/booking"
	"github.com/RyzenMagsino/Carwash/internal/events"
	"github.com/RyzenMagsino/Carwash/pkg/domain"
	"github.com/RyzenMagsino/Carwash/pkg/kafka"
)

// DefaultArrivalWindow is how long a customer has to arrive after service
// start before the booking is automatically cancelled.
const DefaultArrivalWindow = 30 * time.Minute

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	CustomerName  string     `json:"customer_name" binding:"required"`
	CustomerEmail string     `json:"customer_email"`
	CustomerPhone string     `json:"customer_phone"`
	PlateNumber   string     `json:"plate_number" binding:"required"`
	VehicleType   string     `json:"vehicle_type" binding:"required"`
	Services      []string   `json:"services" binding:"required"`
	ScheduledAt   *time.Time `json:"scheduled_at"`
	Notes         string     `json:"notes"`
}

// TransitionOptions carries the optional inputs of a transition request.
type TransitionOptions struct {
	// Team is the wash team to assign; required on the pending->approved edge.
	Team string `json:"team"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
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

// BookingStatsDTO holds booking counts for the dashboard tab badges.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BookingService is the application service driving the booking lifecycle.
// It owns per-booking mutual exclusion and the arrival-deadline timers; all
// status mutations go through it.
type BookingService struct {
	repo     bookingDomain.BookingRepository
	catalog  bookingDomain.PriceCatalog
	notifier Notifier
	txSink   TransactionSink
	producer EventPublisher
	cache    StatsCache
	clk      clock.Clock
	logger   *zap.Logger

	arrivalWindow time.Duration

	locks *keyedMutex

	// deadlineMu guards deadlines. Lock ordering: per-booking lock first,
	// then deadlineMu.
	deadlineMu sync.Mutex
	deadlines  map[uuid.UUID]*deadlineTimer
}

// deadlineTimer tracks the single outstanding arrival timer for a booking.
type deadlineTimer struct {
	timer    clock.Timer
	deadline time.Time
}

// BookingServiceOption configures optional collaborators.
type BookingServiceOption func(*BookingService)

// WithArrivalWindow overrides the default 30-minute arrival window.
func WithArrivalWindow(window time.Duration) BookingServiceOption {
	return func(s *BookingService) { s.arrivalWindow = window }
}

// WithStatsCache attaches a stats cache.
func WithStatsCache(cache StatsCache) BookingServiceOption {
	return func(s *BookingService) { s.cache = cache }
}

// NewBookingService creates a BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	catalog bookingDomain.PriceCatalog,
	notifier Notifier,
	txSink TransactionSink,
	producer EventPublisher,
	clk clock.Clock,
	logger *zap.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	s := &BookingService{
		repo:          repo,
		catalog:       catalog,
		notifier:      notifier,
		txSink:        txSink,
		producer:      producer,
		clk:           clk,
		logger:        logger,
		arrivalWindow: DefaultArrivalWindow,
		locks:         newKeyedMutex(),
		deadlines:     make(map[uuid.UUID]*deadlineTimer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBooking creates a new pending booking, pricing the requested services
// against the catalog.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingDTO, error) {
	items, total, err := s.catalog.Quote(req.Services)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	bk, err := bookingDomain.NewBooking(
		bookingDomain.Customer{Name: req.CustomerName, Email: req.CustomerEmail, Phone: req.CustomerPhone},
		bookingDomain.Vehicle{PlateNumber: req.PlateNumber, Type: req.VehicleType},
		items,
		total,
		req.ScheduledAt,
		req.Notes,
		s.clk.Now(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.publishStatusEvent(ctx, events.BookingCreated, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// RequestTransition moves a booking to the target status if the transition
// table allows it. Side effects (customer notification, transaction record,
// lifecycle event) run after the state change is committed and the
// per-booking lock is released. ongoing->cancelled is reserved for the
// arrival-deadline timer and is rejected here.
func (s *BookingService) RequestTransition(ctx context.Context, id uuid.UUID, target bookingDomain.BookingStatus, opts TransitionOptions) (*BookingDTO, error) {
	unlock := s.locks.Lock(id)
	bk, effects, err := s.applyTransition(ctx, id, target, opts)
	unlock()
	if err != nil {
		return nil, err
	}

	s.dispatchEffects(ctx, effects)

	result := toBookingDTO(bk)
	return &result, nil
}

// sideEffects is everything a committed transition still owes the outside
// world. Dispatched outside the per-booking lock.
type sideEffects struct {
	eventType    string
	event        *events.BookingStatusEvent
	notification *events.CustomerNotification
	transaction  *TransactionRecord
}

func (s *BookingService) applyTransition(ctx context.Context, id uuid.UUID, target bookingDomain.BookingStatus, opts TransitionOptions) (*bookingDomain.Booking, *sideEffects, error) {
	bk, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	now := s.clk.Now()
	effects := &sideEffects{}

	switch target {
	case bookingDomain.StatusApproved:
		if err := bk.Approve(opts.Team, now); err != nil {
			return nil, nil, err
		}
		effects.eventType = events.BookingApproved
		effects.notification = s.notification(bk, events.NotifyApproved, now)

	case bookingDomain.StatusRejected:
		if err := bk.Reject(now); err != nil {
			return nil, nil, err
		}
		effects.eventType = events.BookingRejected
		effects.notification = s.notification(bk, events.NotifyRejected, now)

	case bookingDomain.StatusOngoing:
		if err := bk.StartService(now, s.arrivalWindow); err != nil {
			return nil, nil, err
		}
		effects.eventType = events.BookingStarted
		n := s.notification(bk, events.NotifyServiceStarted, now)
		n.ArrivalDeadline = bk.ArrivalDeadline()
		effects.notification = n

	case bookingDomain.StatusCompleted:
		if err := bk.Complete(now); err != nil {
			return nil, nil, err
		}
		effects.eventType = events.BookingCompleted
		effects.notification = s.notification(bk, events.NotifyCompleted, now)
		effects.transaction = &TransactionRecord{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			CustomerName:  bk.Customer().Name,
			PlateNumber:   bk.Vehicle().PlateNumber,
			VehicleType:   bk.Vehicle().Type,
			Items:         bk.Services(),
			TotalCents:    bk.TotalCents(),
			Team:          bk.AssignedTeam(),
			CompletedAt:   *bk.CompletedAt(),
		}

	default:
		// pending is never a target, and cancelled belongs to the timer.
		return nil, nil, domain.NewInvalidStateError(string(bk.Status()), string(target))
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, nil, err
	}

	effects.event = s.statusEvent(bk, now)

	// Timer bookkeeping happens only after the commit succeeded.
	switch target {
	case bookingDomain.StatusOngoing:
		s.armDeadline(bk.ID(), *bk.ArrivalDeadline())
	case bookingDomain.StatusCompleted:
		s.disarmDeadline(bk.ID())
	}

	return bk, effects, nil
}

// armDeadline schedules the one-shot auto-cancel callback. At most one timer
// is outstanding per booking; arming replaces any prior timer.
func (s *BookingService) armDeadline(id uuid.UUID, deadline time.Time) {
	s.deadlineMu.Lock()
	defer s.deadlineMu.Unlock()

	if existing, ok := s.deadlines[id]; ok {
		existing.timer.Stop()
	}

	wait := deadline.Sub(s.clk.Now())
	if wait < 0 {
		wait = 0
	}
	s.deadlines[id] = &deadlineTimer{
		deadline: deadline,
		timer: s.clk.AfterFunc(wait, func() {
			s.onDeadlineFired(id, deadline)
		}),
	}
}

// disarmDeadline stops the timer for a booking that left ongoing. The
// underlying timer may already be firing; the re-check in onDeadlineFired
// makes that race harmless.
func (s *BookingService) disarmDeadline(id uuid.UUID) {
	s.deadlineMu.Lock()
	defer s.deadlineMu.Unlock()

	if existing, ok := s.deadlines[id]; ok {
		existing.timer.Stop()
		delete(s.deadlines, id)
	}
}

// onDeadlineFired is the timer callback. It re-checks the booking under the
// same per-booking lock as user transitions: only a booking still ongoing,
// with the same deadline it was armed with, past that deadline, is cancelled.
// Anything else means the timer is stale and the fire is a no-op.
func (s *BookingService) onDeadlineFired(id uuid.UUID, expected time.Time) {
	ctx := context.Background()

	unlock := s.locks.Lock(id)
	bk, effects, err := s.applyAutoCancel(ctx, id, expected)
	unlock()

	if err != nil {
		s.logger.Error("arrival-deadline cancellation failed",
			zap.String("booking_id", id.String()),
			zap.Error(err),
		)
		return
	}
	if bk == nil {
		return
	}

	s.logger.Info("booking auto-cancelled: arrival deadline missed",
		zap.String("booking_id", id.String()),
		zap.Time("deadline", expected),
	)
	s.dispatchEffects(ctx, effects)
}

func (s *BookingService) applyAutoCancel(ctx context.Context, id uuid.UUID, expected time.Time) (*bookingDomain.Booking, *sideEffects, error) {
	defer s.disarmDeadline(id)

	bk, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	// Stale fire: the booking moved on, or the deadline it was armed with is
	// no longer the booking's deadline.
	if bk.Status() != bookingDomain.StatusOngoing {
		return nil, nil, nil
	}
	if bk.ArrivalDeadline() == nil || !bk.ArrivalDeadline().Equal(expected) {
		return nil, nil, nil
	}

	now := s.clk.Now()
	if now.Before(expected) {
		return nil, nil, nil
	}

	reason := fmt.Sprintf("customer did not arrive within %s of service start", s.arrivalWindow)
	if err := bk.Cancel(reason, now); err != nil {
		return nil, nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, nil, err
	}

	n := s.notification(bk, events.NotifyAutoCancelled, now)
	return bk, &sideEffects{
		eventType:    events.BookingCancelled,
		event:        s.statusEvent(bk, now),
		notification: n,
	}, nil
}

// ResumeDeadlines re-arms arrival timers for every ongoing booking, called
// once at startup so deadlines survive a restart. Past deadlines fire
// immediately.
func (s *BookingService) ResumeDeadlines(ctx context.Context) error {
	ongoing, err := s.repo.ListOngoing(ctx)
	if err != nil {
		return fmt.Errorf("failed to list ongoing bookings: %w", err)
	}

	for _, bk := range ongoing {
		if bk.ArrivalDeadline() == nil {
			continue
		}
		s.armDeadline(bk.ID(), *bk.ArrivalDeadline())
	}

	if len(ongoing) > 0 {
		s.logger.Info("re-armed arrival deadlines", zap.Int("count", len(ongoing)))
	}
	return nil
}

// --- Reads ---

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, id uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings retrieves paginated bookings, optionally filtered by status
// (the dashboard tabs).
func (s *BookingService) ListBookings(ctx context.Context, status string, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	var (
		bookings []*bookingDomain.Booking
		total    int64
		err      error
	)

	if status == "" {
		bookings, total, err = s.repo.ListAll(ctx, page, limit)
	} else {
		parsed, parseErr := bookingDomain.ParseBookingStatus(status)
		if parseErr != nil {
			return nil, domain.NewValidationError(parseErr.Error())
		}
		bookings, total, err = s.repo.ListByStatus(ctx, parsed, page, limit)
	}
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetBookingStats returns booking counts by status, served from the cache
// when one is configured.
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	if s.cache != nil {
		cached, err := s.cache.GetStats(ctx)
		if err != nil {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	stats := &BookingStatsDTO{TotalBookings: total, ByStatus: counts}

	if s.cache != nil {
		if err := s.cache.SetStats(ctx, stats); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// --- Side effects ---

func (s *BookingService) dispatchEffects(ctx context.Context, effects *sideEffects) {
	if effects == nil {
		return
	}

	if effects.notification != nil && s.notifier != nil {
		s.notifier.Notify(*effects.notification)
	}

	if effects.transaction != nil && s.txSink != nil {
		if err := s.txSink.RecordTransaction(ctx, *effects.transaction); err != nil {
			s.logger.Error("failed to record transaction",
				zap.String("booking_id", effects.transaction.BookingID.String()),
				zap.Error(err),
			)
		}
	}

	if effects.event != nil {
		s.publishEvent(ctx, effects.eventType, effects.event)
	}
}

func (s *BookingService) notification(bk *bookingDomain.Booking, kind events.NotificationKind, now time.Time) *events.CustomerNotification {
	return &events.CustomerNotification{
		BookingID:      bk.ID(),
		BookingNumber:  bk.BookingNumber(),
		Kind:           kind,
		RecipientName:  bk.Customer().Name,
		RecipientEmail: bk.Customer().Email,
		RecipientPhone: bk.Customer().Phone,
		OccurredAt:     now.UTC(),
	}
}

func (s *BookingService) statusEvent(bk *bookingDomain.Booking, now time.Time) *events.BookingStatusEvent {
	return &events.BookingStatusEvent{
		BookingID:       bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		Status:          string(bk.Status()),
		AssignedTeam:    bk.AssignedTeam(),
		ArrivalDeadline: bk.ArrivalDeadline(),
		CancelReason:    bk.CancelReason(),
		OccurredAt:      now.UTC(),
	}
}

func (s *BookingService) publishStatusEvent(ctx context.Context, eventType string, bk *bookingDomain.Booking) {
	s.publishEvent(ctx, eventType, s.statusEvent(bk, s.clk.Now()))
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	if s.producer == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent("service-scheduling", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, events.TopicBookingEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
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
