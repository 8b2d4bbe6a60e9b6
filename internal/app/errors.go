package app

import (
	"errors"
	"fmt"

	"decodex/internal/domain"
)

var kinds = []error{
	domain.ErrNotReady,
	domain.ErrInvalidState,
	domain.ErrExhausted,
	domain.ErrValidation,
	domain.ErrNotFound,
	domain.ErrConflict,
	domain.ErrUnauthorized,
	domain.ErrUnavailable,
}

// classify passes taxonomy errors through and turns anything else (timeouts, broken
// connections, driver errors) into a retryable ErrUnavailable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
}
