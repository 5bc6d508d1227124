package notify

import (
	"context"
	"time"

	"coachbook/pkg/logger"
	"coachbook/pkg/model"
)

// Lifecycle event types carried on the booking events topic.
const (
	EventBookingCreated     = "booking.created"
	EventBookingRescheduled = "booking.rescheduled"
	EventBookingCancelled   = "booking.cancelled"
	EventBookingCompleted   = "booking.completed"
)

// BookingEvent is the fixed payload shape published for every lifecycle
// transition. Downstream notifiers (SMS, email) decide how to render it.
type BookingEvent struct {
	BookingID string    `json:"booking_id"`
	OrgID     string    `json:"org_id"`
	ClientID  string    `json:"client_id"`
	ServiceID string    `json:"service_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
	Source    string    `json:"source"`
}

// Notifier delivers booking lifecycle events to the outside world.
// Delivery is fire-and-forget from the lifecycle's point of view: a
// failure never rolls back the booking mutation, it only surfaces as a
// warning.
type Notifier interface {
	RequestConfirmation(ctx context.Context, booking *model.Booking) error
	NotifyRescheduled(ctx context.Context, booking *model.Booking) error
	NotifyCancelled(ctx context.Context, booking *model.Booking) error
	NotifyCompleted(ctx context.Context, booking *model.Booking) error
}

func eventFromBooking(b *model.Booking) BookingEvent {
	return BookingEvent{
		BookingID: b.ID,
		OrgID:     b.OrgID,
		ClientID:  b.ClientID,
		ServiceID: b.ServiceID,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    b.Status,
		Source:    b.Source,
	}
}

// LogNotifier is the fallback used when no broker is configured. Events
// are logged and dropped.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) emit(eventType string, b *model.Booking) error {
	n.log.Info("Booking event (no broker configured)",
		"event_type", eventType,
		"booking_id", b.ID,
		"org_id", b.OrgID,
	)
	return nil
}

func (n *LogNotifier) RequestConfirmation(_ context.Context, b *model.Booking) error {
	return n.emit(EventBookingCreated, b)
}

func (n *LogNotifier) NotifyRescheduled(_ context.Context, b *model.Booking) error {
	return n.emit(EventBookingRescheduled, b)
}

func (n *LogNotifier) NotifyCancelled(_ context.Context, b *model.Booking) error {
	return n.emit(EventBookingCancelled, b)
}

func (n *LogNotifier) NotifyCompleted(_ context.Context, b *model.Booking) error {
	return n.emit(EventBookingCompleted, b)
}
