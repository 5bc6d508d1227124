package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrNotConfirmed = errors.New("booking is not in confirmed state")

	ErrNoConfirmationPending = errors.New("booking has no confirmation pending")
)
