package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for the client service layer.
var (
	ErrNotFound        = errors.New("client not found")
	ErrInvalidDuration = errors.New("sanitization duration must be a positive number of days")
)

// ValidationError marks a rejected input, as opposed to a backend failure.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
