package models

import (
	"errors"
	"fmt"
)

// Domain errors surfaced by the command and query services. Handlers map these
// to HTTP status codes with errors.Is; repositories return them directly so
// callers never match on error strings.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrDuplicateUsername   = errors.New("username already registered")
	ErrInvalidRole         = errors.New("invalid role for operation")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyLinked       = errors.New("dependent already assigned to guardian")
	ErrTimeFormat          = errors.New("invalid time format, expected HH:mm")
	ErrNotification        = errors.New("unable to send verification message")
	ErrTokenInvalid        = errors.New("invalid or expired verification token")
)

// ValidationError reports the first missing or malformed field of a request.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("the field '%s' is required and cannot be empty", e.Field)
}
