package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/RyzenMagsino/Carwash/internal/domain/booking"
	"github.com/RyzenMagsino/Carwash/internal/events"
	"github.com/RyzenMagsino/Carwash/pkg/kafka"
)

// Notifier delivers customer notifications asynchronously. Implementations
// must never block the caller and must never propagate delivery failures
// back; failures are logged on their side.
type Notifier interface {
	Notify(notification events.CustomerNotification)
}

// TransactionRecord is the financial record appended when a booking completes.
type TransactionRecord struct {
	BookingID     uuid.UUID                   `json:"booking_id"`
	BookingNumber string                      `json:"booking_number"`
	CustomerName  string                      `json:"customer_name"`
	PlateNumber   string                      `json:"plate_number"`
	VehicleType   string                      `json:"vehicle_type"`
	Items         []bookingDomain.ServiceItem `json:"items"`
	TotalCents    int64                       `json:"total_cents"`
	Team          string                      `json:"team"`
	CompletedAt   time.Time                   `json:"completed_at"`
}

// TransactionSink records completed bookings as financial transactions.
// Recording the same booking id twice must be a no-op on the sink side; the
// engine additionally guarantees a single call per completed booking.
type TransactionSink interface {
	RecordTransaction(ctx context.Context, record TransactionRecord) error
}

// EventPublisher publishes lifecycle CloudEvents. Satisfied by *kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *kafka.CloudEvent) error
}

// StatsCache caches the admin booking stats. A nil-miss returns (nil, nil).
type StatsCache interface {
	GetStats(ctx context.Context) (*BookingStatsDTO, error)
	SetStats(ctx context.Context, stats *BookingStatsDTO) error
}
