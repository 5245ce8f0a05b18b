package messenger_errors

import (
	"errors"
)

// Common errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAlreadyExists    = errors.New("already exists")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// UserError carries the text shown to API clients while keeping the sentinel reachable via errors.Is.
type UserError struct {
	Err     error
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func WithMessage(err error, message string) error {
	return &UserError{Err: err, Message: message}
}

// Message returns the client-facing text of err and whether one was attached.
func Message(err error) (string, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message, true
	}
	return "", false
}
