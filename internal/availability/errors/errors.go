package errors

import "errors"

var (
	ErrWindowNotFound = errors.New("availability window not found")

	ErrBlockNotFound = errors.New("blocked interval not found")

	ErrInvalidID = errors.New("invalid availability ID format")
)
