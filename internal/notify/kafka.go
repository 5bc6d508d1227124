package notify

import (
	"context"
	"fmt"

	"coachbook/pkg/kafka"
	"coachbook/pkg/model"
)

// KafkaNotifier publishes lifecycle events to the booking events topic,
// keyed by org so one org's events stay ordered.
type KafkaNotifier struct {
	producer *kafka.Producer
	source   string
}

func NewKafkaNotifier(producer *kafka.Producer, source string) *KafkaNotifier {
	return &KafkaNotifier{
		producer: producer,
		source:   source,
	}
}

func (n *KafkaNotifier) publish(ctx context.Context, eventType string, b *model.Booking) error {
	msg := kafka.NewMessage().
		WithKey(b.OrgID).
		WithValue(eventFromBooking(b)).
		WithEventType(eventType).
		WithSource(n.source).
		Build()

	if err := n.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

func (n *KafkaNotifier) RequestConfirmation(ctx context.Context, b *model.Booking) error {
	return n.publish(ctx, EventBookingCreated, b)
}

func (n *KafkaNotifier) NotifyRescheduled(ctx context.Context, b *model.Booking) error {
	return n.publish(ctx, EventBookingRescheduled, b)
}

func (n *KafkaNotifier) NotifyCancelled(ctx context.Context, b *model.Booking) error {
	return n.publish(ctx, EventBookingCancelled, b)
}

func (n *KafkaNotifier) NotifyCompleted(ctx context.Context, b *model.Booking) error {
	return n.publish(ctx, EventBookingCompleted, b)
}
