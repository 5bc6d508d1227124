// Package confirmations consumes client confirmation replies from the
// replies topic and records them against the booking.
package confirmations

import (
	"context"
	"encoding/json"
	"fmt"

	"coachbook/pkg/config"
	apperrors "coachbook/pkg/errors"
	"coachbook/pkg/kafka"
	"coachbook/pkg/logger"
)

const EventConfirmationReply = "booking.confirmation_reply"

// Reply is the payload published by the messaging gateway when a client
// answers a confirmation request.
type Reply struct {
	BookingID string `json:"booking_id"`
	ClientID  string `json:"client_id,omitempty"`
	Confirmed bool   `json:"confirmed"`
}

// Confirmer is the slice of the booking service the consumer needs.
type Confirmer interface {
	ConfirmByClient(ctx context.Context, id string) error
}

// NewReplyHandler decodes a confirmation reply and records positive
// answers. Malformed payloads and replies for bookings that cannot
// accept one are permanent failures; only infrastructure errors are
// retried.
func NewReplyHandler(confirmer Confirmer, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		if eventType := msg.Headers[kafka.HeaderEventType]; eventType != "" && eventType != EventConfirmationReply {
			log.Debug("Skipping unrelated event", "event_type", eventType, "key", msg.Key)
			return nil
		}

		var reply Reply
		if err := json.Unmarshal(msg.Value, &reply); err != nil {
			return kafka.NewPermanentError("failed to decode confirmation reply", err)
		}
		if reply.BookingID == "" {
			return kafka.NewPermanentError("confirmation reply has no booking_id", nil)
		}

		if !reply.Confirmed {
			// Declines are recorded in the log only; the booking keeps
			// its unconfirmed flag and the trainer follows up manually.
			log.Info("Client declined booking confirmation",
				"booking_id", reply.BookingID,
				"client_id", reply.ClientID,
			)
			return nil
		}

		if err := confirmer.ConfirmByClient(ctx, reply.BookingID); err != nil {
			switch {
			case apperrors.IsCode(err, apperrors.CodeNotFound),
				apperrors.IsCode(err, apperrors.CodeInvalidInput),
				apperrors.IsCode(err, apperrors.CodePolicyViolation):
				return kafka.NewPermanentError(
					fmt.Sprintf("confirmation reply cannot be applied to booking %s", reply.BookingID), err)
			default:
				return err
			}
		}

		log.Info("Client confirmation recorded", "booking_id", reply.BookingID)
		return nil
	}
}

// NewConsumer wires a reply consumer against the configured replies
// topic and consumer group.
func NewConsumer(cfg *config.Config, confirmer Confirmer) (*kafka.Consumer, error) {
	handler := NewReplyHandler(confirmer, cfg.Log)
	return kafka.NewConsumer(
		cfg.KafkaBrokers,
		cfg.KafkaRepliesTopic,
		cfg.KafkaConsumerGroup,
		cfg.KafkaDLQTopic,
		handler,
		cfg.Log,
	)
}
