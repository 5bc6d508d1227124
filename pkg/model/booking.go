package model

import (
	"time"
)

// Booking is a confirmed reservation of trainer time by a client.
// Bookings are never hard-deleted: cancellation is a status change, so
// history stays intact for the ledger and auditing.
type Booking struct {
	ID                 string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OrgID              string     `json:"org_id" bson:"org_id" validate:"required,mongodb"`
	ClientID           string     `json:"client_id" bson:"client_id" validate:"required,mongodb"`
	ServiceID          string     `json:"service_id" bson:"service_id" validate:"required,min=1,max=100"`
	StartTime          time.Time  `json:"start_time" bson:"start_time" validate:"required"`
	EndTime            time.Time  `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	DurationMinutes    int        `json:"duration_minutes" bson:"duration_minutes" validate:"required,min=5,max=480"`
	Status             string     `json:"status" bson:"status" validate:"required,oneof=confirmed cancelled completed"`
	Source             string     `json:"source" bson:"source" validate:"required,oneof=client trainer"`
	BookedBy           string     `json:"booked_by,omitempty" bson:"booked_by,omitempty" validate:"omitempty,max=100"`
	ClientConfirmed    bool       `json:"client_confirmed" bson:"client_confirmed"`
	ConfirmationSentAt *time.Time `json:"confirmation_sent_at,omitempty" bson:"confirmation_sent_at,omitempty"`
	SessionPurchaseID  string     `json:"session_purchase_id,omitempty" bson:"session_purchase_id,omitempty" validate:"omitempty,mongodb"`
	Notes              string     `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=2000"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Occupies reports whether the booking still holds its time slot.
// Cancelled bookings free the slot; completed ones are in the past.
func (b *Booking) Occupies() bool {
	return b.Status != "cancelled"
}
