package service

import (
	"errors"
	"fmt"

	"github.com/inkdesk/storefront/internal/repository"
)

// Error kinds surfaced to the HTTP layer. Wrap them with fmt.Errorf("%w: ...")
// and branch with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidState      = errors.New("invalid state")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// translate maps repository errors onto service error kinds. what names the
// entity for the message.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrItemNotFound):
		return notFound(what)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	case errors.Is(err, repository.ErrInsufficientStock):
		return fmt.Errorf("%w: %s", ErrInsufficientStock, what)
	case errors.Is(err, repository.ErrStatusChanged):
		return fmt.Errorf("%w: %s was modified concurrently", ErrInvalidState, what)
	}
	return err
}
