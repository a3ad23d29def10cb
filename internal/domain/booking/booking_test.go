package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyzenMagsino/Carwash/pkg/domain"
)

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	bk, err := NewBooking(
		Customer{Name: "Juan Dela Cruz", Email: "juan@example.com", Phone: "+639171234567"},
		Vehicle{PlateNumber: "ABC-1234", Type: "sedan"},
		[]ServiceItem{{Name: "Basic Wash", PriceCents: 15000}},
		15000,
		nil,
		"",
		time.Now(),
	)
	require.NoError(t, err)
	return bk
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusOngoing, false},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusCancelled, false},
		{StatusApproved, StatusOngoing, true},
		{StatusApproved, StatusCompleted, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusCancelled, false},
		{StatusOngoing, StatusCompleted, true},
		{StatusOngoing, StatusCancelled, true},
		{StatusOngoing, StatusApproved, false},
		{StatusCompleted, StatusOngoing, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusRejected, StatusApproved, false},
		{StatusCancelled, StatusOngoing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusApproved.IsTerminal())
	assert.False(t, StatusOngoing.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestParseBookingStatus(t *testing.T) {
	status, err := ParseBookingStatus("ongoing")
	require.NoError(t, err)
	assert.Equal(t, StatusOngoing, status)

	_, err = ParseBookingStatus("washing")
	assert.Error(t, err)
}

func TestNewBooking(t *testing.T) {
	bk := newTestBooking(t)

	assert.Equal(t, StatusPending, bk.Status())
	assert.Equal(t, int64(1), bk.Version())
	assert.Empty(t, bk.AssignedTeam())
	assert.Nil(t, bk.ApprovedAt())
	assert.Nil(t, bk.ArrivalDeadline())
	assert.Nil(t, bk.CompletedAt())
	assert.True(t, strings.HasPrefix(bk.BookingNumber(), "BK-"))
	assert.Len(t, bk.BookingNumber(), 9)
}

func TestNewBooking_Validation(t *testing.T) {
	now := time.Now()
	services := []ServiceItem{{Name: "Basic Wash", PriceCents: 15000}}
	customer := Customer{Name: "Juan Dela Cruz"}
	vehicle := Vehicle{PlateNumber: "ABC-1234", Type: "sedan"}

	tests := []struct {
		name string
		fn   func() (*Booking, error)
	}{
		{"missing customer name", func() (*Booking, error) {
			return NewBooking(Customer{}, vehicle, services, 15000, nil, "", now)
		}},
		{"missing plate number", func() (*Booking, error) {
			return NewBooking(customer, Vehicle{Type: "sedan"}, services, 15000, nil, "", now)
		}},
		{"invalid vehicle type", func() (*Booking, error) {
			return NewBooking(customer, Vehicle{PlateNumber: "ABC-1234", Type: "boat"}, services, 15000, nil, "", now)
		}},
		{"no services", func() (*Booking, error) {
			return NewBooking(customer, vehicle, nil, 15000, nil, "", now)
		}},
		{"non-positive total", func() (*Booking, error) {
			return NewBooking(customer, vehicle, services, 0, nil, "", now)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestApprove(t *testing.T) {
	bk := newTestBooking(t)
	now := time.Now()

	require.NoError(t, bk.Approve("Team A", now))
	assert.Equal(t, StatusApproved, bk.Status())
	assert.Equal(t, "Team A", bk.AssignedTeam())
}

func TestApprove_RequiresTeam(t *testing.T) {
	bk := newTestBooking(t)

	err := bk.Approve("", time.Now())
	assert.True(t, domain.IsValidation(err))
	// A failed approval must not move the booking.
	assert.Equal(t, StatusPending, bk.Status())
	assert.Empty(t, bk.AssignedTeam())
}

func TestReject(t *testing.T) {
	bk := newTestBooking(t)

	require.NoError(t, bk.Reject(time.Now()))
	assert.Equal(t, StatusRejected, bk.Status())
	assert.True(t, bk.Status().IsTerminal())
}

func TestStartService_SetsArrivalDeadline(t *testing.T) {
	bk := newTestBooking(t)
	now := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)

	require.NoError(t, bk.Approve("Team A", now))
	require.NoError(t, bk.StartService(now, 30*time.Minute))

	assert.Equal(t, StatusOngoing, bk.Status())
	require.NotNil(t, bk.ApprovedAt())
	require.NotNil(t, bk.ArrivalDeadline())
	assert.Equal(t, now, *bk.ApprovedAt())
	assert.Equal(t, now.Add(30*time.Minute), *bk.ArrivalDeadline())
}

func TestComplete(t *testing.T) {
	bk := newTestBooking(t)
	now := time.Now().UTC()

	require.NoError(t, bk.Approve("Team A", now))
	require.NoError(t, bk.StartService(now, 30*time.Minute))
	require.NoError(t, bk.Complete(now.Add(10*time.Minute)))

	assert.Equal(t, StatusCompleted, bk.Status())
	require.NotNil(t, bk.CompletedAt())
}

func TestComplete_FromPendingFails(t *testing.T) {
	bk := newTestBooking(t)

	err := bk.Complete(time.Now())
	assert.True(t, domain.IsInvalidState(err))
	assert.Equal(t, StatusPending, bk.Status())
}

func TestCancel(t *testing.T) {
	bk := newTestBooking(t)
	now := time.Now().UTC()

	require.NoError(t, bk.Approve("Team A", now))
	require.NoError(t, bk.StartService(now, 30*time.Minute))
	require.NoError(t, bk.Cancel("customer did not arrive within 30m0s of service start", now.Add(31*time.Minute)))

	assert.Equal(t, StatusCancelled, bk.Status())
	assert.NotEmpty(t, bk.CancelReason())
}

func TestCancel_RequiresOngoing(t *testing.T) {
	bk := newTestBooking(t)

	err := bk.Cancel("no-show", time.Now())
	assert.True(t, domain.IsInvalidState(err))

	require.NoError(t, bk.Approve("Team A", time.Now()))
	err = bk.Cancel("no-show", time.Now())
	assert.True(t, domain.IsInvalidState(err))
}

func TestTerminalStatesRejectAllTransitions(t *testing.T) {
	now := time.Now().UTC()

	completed := newTestBooking(t)
	require.NoError(t, completed.Approve("Team A", now))
	require.NoError(t, completed.StartService(now, 30*time.Minute))
	require.NoError(t, completed.Complete(now))

	rejected := newTestBooking(t)
	require.NoError(t, rejected.Reject(now))

	cancelled := newTestBooking(t)
	require.NoError(t, cancelled.Approve("Team A", now))
	require.NoError(t, cancelled.StartService(now, 30*time.Minute))
	require.NoError(t, cancelled.Cancel("no-show", now))

	for _, bk := range []*Booking{completed, rejected, cancelled} {
		assert.True(t, domain.IsInvalidState(bk.Approve("Team B", now)))
		assert.True(t, domain.IsInvalidState(bk.Reject(now)))
		assert.True(t, domain.IsInvalidState(bk.StartService(now, 30*time.Minute)))
		assert.True(t, domain.IsInvalidState(bk.Cancel("again", now)))
	}
	assert.True(t, domain.IsInvalidState(rejected.Complete(now)))
	assert.True(t, domain.IsInvalidState(cancelled.Complete(now)))
}

func TestStandardPriceCatalog_Quote(t *testing.T) {
	catalog := NewStandardPriceCatalog()

	items, total, err := catalog.Quote([]string{"Basic Wash", "Wax", "Vacuum"})
	require.NoError(t, err)
	assert.Equal(t, int64(43000), total)
	require.Len(t, items, 3)
	assert.Equal(t, ServiceItem{Name: "Wax", PriceCents: 20000}, items[1])

	_, _, err = catalog.Quote([]string{"Basic Wash", "Underbody Blast"})
	assert.Error(t, err)
}
