package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
)

// DomainError carries the user-facing message for one of the sentinel kinds above.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

func unauthorized(msg string) error {
	return &DomainError{Kind: ErrUnauthorized, Message: msg}
}

func forbidden(msg string) error {
	return &DomainError{Kind: ErrForbidden, Message: msg}
}

func notFound(msg string) error {
	return &DomainError{Kind: ErrNotFound, Message: msg}
}

func validation(format string, args ...interface{}) error {
	return &DomainError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// notFoundOr converts gorm.ErrRecordNotFound into a NotFound domain error and
// wraps anything else with op.
func notFoundOr(err error, msg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}
