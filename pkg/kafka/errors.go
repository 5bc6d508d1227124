package kafka

import (
	"errors"
	"fmt"
)

var (
	ErrProducerClosed = errors.New("kafka producer is closed")
	ErrConsumerClosed = errors.New("kafka consumer is closed")
	ErrEmptyKey       = errors.New("message key cannot be empty")
	ErrEmptyValue     = errors.New("message value cannot be empty")
)

// PermanentError marks a handler failure that retrying cannot fix
// (malformed payload, unknown event type). The consumer sends these
// straight to the DLQ instead of retrying.
type PermanentError struct {
	Message string
	Err     error
}

func NewPermanentError(message string, err error) *PermanentError {
	return &PermanentError{Message: message, Err: err}
}

func (e *PermanentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
