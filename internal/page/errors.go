package page

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("page not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("slug already exists")
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("not allowed to edit pages")
	ErrPersistence  = errors.New("persistence failure")
)

// ValidationError reports a rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid returns a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a storage failure. Its message is not shown to clients.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// persistence wraps err unless it is already one of the domain errors.
func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrPersistence):
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
