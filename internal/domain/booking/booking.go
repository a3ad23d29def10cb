package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/RyzenMagsino/Carwash/pkg/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for the booking domain. Its status moves only
// along the edges in validTransitions, and only through the behavior methods
// below.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	customer      Customer
	vehicle       Vehicle
	services      []ServiceItem
	totalCents    int64
	status        BookingStatus
	assignedTeam  string
	notes         string

	scheduledAt     *time.Time
	approvedAt      *time.Time
	arrivalDeadline *time.Time
	completedAt     *time.Time
	cancelReason    string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with status=pending.
func NewBooking(
	customer Customer,
	vehicle Vehicle,
	services []ServiceItem,
	totalCents int64,
	scheduledAt *time.Time,
	notes string,
	now time.Time,
) (*Booking, error) {
	if customer.Name == "" {
		return nil, domain.NewValidationError("customer name is required")
	}
	if vehicle.PlateNumber == "" {
		return nil, domain.NewValidationError("vehicle plate number is required")
	}
	if !VehicleType(vehicle.Type).IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid vehicle type: %s", vehicle.Type))
	}
	if len(services) == 0 {
		return nil, domain.NewValidationError("at least one service is required")
	}
	if totalCents <= 0 {
		return nil, domain.NewValidationError("total amount must be positive")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		customer:      customer,
		vehicle:       vehicle,
		services:      services,
		totalCents:    totalCents,
		status:        StatusPending,
		scheduledAt:   scheduledAt,
		notes:         notes,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	customer Customer,
	vehicle Vehicle,
	services []ServiceItem,
	totalCents int64,
	status BookingStatus,
	assignedTeam string,
	notes string,
	scheduledAt *time.Time,
	approvedAt *time.Time,
	arrivalDeadline *time.Time,
	completedAt *time.Time,
	cancelReason string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		bookingNumber:   bookingNumber,
		customer:        customer,
		vehicle:         vehicle,
		services:        services,
		totalCents:      totalCents,
		status:          status,
		assignedTeam:    assignedTeam,
		notes:           notes,
		scheduledAt:     scheduledAt,
		approvedAt:      approvedAt,
		arrivalDeadline: arrivalDeadline,
		completedAt:     completedAt,
		cancelReason:    cancelReason,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// Customer returns the customer contact details.
func (b *Booking) Customer() Customer { return b.customer }

// Vehicle returns the vehicle details.
func (b *Booking) Vehicle() Vehicle { return b.vehicle }

// Services returns the ordered list of booked service items.
func (b *Booking) Services() []ServiceItem { return b.services }

// TotalCents returns the total amount in centavos.
func (b *Booking) TotalCents() int64 { return b.totalCents }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// AssignedTeam returns the wash team assigned at approval, or "" before then.
func (b *Booking) AssignedTeam() string { return b.assignedTeam }

// Notes returns any additional notes for the booking.
func (b *Booking) Notes() string { return b.notes }

// ScheduledAt returns the requested service time, or nil if walk-in.
func (b *Booking) ScheduledAt() *time.Time { return b.scheduledAt }

// ApprovedAt returns the time service was started, or nil before then.
func (b *Booking) ApprovedAt() *time.Time { return b.approvedAt }

// ArrivalDeadline returns the time the customer must arrive by, or nil if the
// booking never entered ongoing.
func (b *Booking) ArrivalDeadline() *time.Time { return b.arrivalDeadline }

// CompletedAt returns the completion time, or nil before then.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// CancelReason returns the reason for a timer-driven cancellation.
func (b *Booking) CancelReason() string { return b.cancelReason }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// Approve transitions the booking from pending to approved with the given
// wash team. The team is set exactly once, here.
func (b *Booking) Approve(team string, now time.Time) error {
	if !b.status.CanTransitionTo(StatusApproved) {
		return domain.NewInvalidStateError(string(b.status), string(StatusApproved))
	}
	if team == "" {
		return domain.NewValidationError("assigned team is required to approve a booking")
	}
	b.assignedTeam = team
	b.status = StatusApproved
	b.updatedAt = now.UTC()
	return nil
}

// Reject transitions the booking from pending to rejected.
func (b *Booking) Reject(now time.Time) error {
	if !b.status.CanTransitionTo(StatusRejected) {
		return domain.NewInvalidStateError(string(b.status), string(StatusRejected))
	}
	b.status = StatusRejected
	b.updatedAt = now.UTC()
	return nil
}

// StartService transitions the booking from approved to ongoing, stamping
// approvedAt and the arrival deadline (approvedAt + window).
func (b *Booking) StartService(now time.Time, window time.Duration) error {
	if !b.status.CanTransitionTo(StatusOngoing) {
		return domain.NewInvalidStateError(string(b.status), string(StatusOngoing))
	}
	now = now.UTC()
	deadline := now.Add(window)
	b.status = StatusOngoing
	b.approvedAt = &now
	b.arrivalDeadline = &deadline
	b.updatedAt = now
	return nil
}

// Complete transitions the booking from ongoing to completed.
func (b *Booking) Complete(now time.Time) error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	now = now.UTC()
	b.status = StatusCompleted
	b.completedAt = &now
	b.updatedAt = now
	return nil
}

// Cancel transitions the booking from ongoing to cancelled with the given
// reason. Only the arrival-deadline timer takes this edge.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if !b.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	if reason == "" {
		return domain.NewValidationError("cancel reason is required")
	}
	b.status = StatusCancelled
	b.cancelReason = reason
	b.updatedAt = now.UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}
