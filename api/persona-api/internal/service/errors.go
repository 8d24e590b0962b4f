package internal_services

import (
	"errors"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("record already exists")
)

// ValidationError carries the message shown to the user next to the form.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func Invalid(message string) error {
	return &ValidationError{Message: message}
}

// HumanMessage returns the validation message of err, or fallback when err
// is not a validation failure.
func HumanMessage(err error, fallback string) string {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message
	}
	return fallback
}
