package config

// Booking lifecycle states. There is no pending state: a booking exists
// only once it is confirmed, and cancellation/completion are terminal.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Booking sources identify which surface created the booking.
const (
	SourceClient  = "client"
	SourceTrainer = "trainer"
)

// Session package payment states, owned by the external payment
// collaborator. Only succeeded packages have usable credit.
const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
)
