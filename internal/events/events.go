package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics used by the scheduling service.
const (
	TopicBookingEvents = "booking.events"
	TopicNotifications = "customer.notifications"
	TopicMobileEvents  = "mobile.events"
)

// Booking lifecycle event types published on TopicBookingEvents.
const (
	BookingCreated   = "booking.created"
	BookingApproved  = "booking.approved"
	BookingRejected  = "booking.rejected"
	BookingStarted   = "booking.service_started"
	BookingCompleted = "booking.completed"
	BookingCancelled = "booking.auto_cancelled"
)

// Mobile-app event types consumed from TopicMobileEvents.
const (
	MobileBookingSubmitted = "mobile.booking.submitted"
)

// NotificationKind classifies a customer notification.
type NotificationKind string

const (
	NotifyApproved       NotificationKind = "approved"
	NotifyRejected       NotificationKind = "rejected"
	NotifyServiceStarted NotificationKind = "service_started"
	NotifyCompleted      NotificationKind = "completed"
	NotifyAutoCancelled  NotificationKind = "auto_cancelled"
)

// BookingStatusEvent is published on every lifecycle transition.
type BookingStatusEvent struct {
	BookingID       uuid.UUID  `json:"booking_id"`
	BookingNumber   string     `json:"booking_number"`
	Status          string     `json:"status"`
	AssignedTeam    string     `json:"assigned_team,omitempty"`
	ArrivalDeadline *time.Time `json:"arrival_deadline,omitempty"`
	CancelReason    string     `json:"cancel_reason,omitempty"`
	OccurredAt      time.Time  `json:"occurred_at"`
}

// CustomerNotification is the payload delivered on TopicNotifications.
// The notification service owns wording and channel; this carries only the
// triggering contract.
type CustomerNotification struct {
	BookingID       uuid.UUID        `json:"booking_id"`
	BookingNumber   string           `json:"booking_number"`
	Kind            NotificationKind `json:"kind"`
	RecipientName   string           `json:"recipient_name"`
	RecipientEmail  string           `json:"recipient_email"`
	RecipientPhone  string           `json:"recipient_phone"`
	ArrivalDeadline *time.Time       `json:"arrival_deadline,omitempty"`
	OccurredAt      time.Time        `json:"occurred_at"`
}

// MobileBookingSubmittedEvent is sent by the mobile app to request a booking.
type MobileBookingSubmittedEvent struct {
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	CustomerPhone string     `json:"customer_phone"`
	PlateNumber   string     `json:"plate_number"`
	VehicleType   string     `json:"vehicle_type"`
	Services      []string   `json:"services"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	SubmittedAt   time.Time  `json:"submitted_at"`
}
