package errors

import "errors"

var (
	ErrNotFound = errors.New("session package not found")

	ErrInvalidID = errors.New("invalid session package ID format")

	ErrExhausted = errors.New("session package has no credit remaining")

	ErrNothingToReinstate = errors.New("session package has no used sessions to reinstate")
)
