package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Callers classify failures with errors.Is against these.
var (
	// ErrNotReady means the quiz is not running or the team already finished; poll and retry later.
	ErrNotReady = errors.New("not ready")
	// ErrInvalidState means the operation does not match the team's current progression state.
	ErrInvalidState = errors.New("invalid state")
	// ErrExhausted means a power-up balance is zero.
	ErrExhausted = errors.New("power-up exhausted")
	// ErrValidation means the input was rejected before reaching storage.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound means an unknown team, question or branch.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness constraint was violated.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized means credentials were missing or wrong.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable means storage timed out or was unreachable; safe to retry.
	ErrUnavailable = errors.New("temporarily unavailable")
)

var (
	ErrQuizInactive     = fmt.Errorf("quiz has not started: %w", ErrNotReady)
	ErrQuizPaused       = fmt.Errorf("quiz is paused: %w", ErrNotReady)
	ErrTeamComplete     = fmt.Errorf("team has completed every question: %w", ErrNotReady)
	ErrChoicePending    = fmt.Errorf("a path choice is pending: %w", ErrInvalidState)
	ErrNoChoicePending  = fmt.Errorf("no path choice is pending: %w", ErrInvalidState)
	ErrQuestionMoved    = fmt.Errorf("question already answered, state has moved on: %w", ErrInvalidState)
	ErrTeamNotFound     = fmt.Errorf("team %w", ErrNotFound)
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	ErrBranchNotFound   = fmt.Errorf("branch %w", ErrNotFound)
	ErrTeamExists       = fmt.Errorf("team name or email already registered: %w", ErrConflict)
	ErrEmptyAnswer      = fmt.Errorf("answer must not be empty: %w", ErrValidation)
	ErrBadCredentials   = fmt.Errorf("invalid name or password: %w", ErrUnauthorized)
)

// Retryable reports whether the caller may retry err without changing anything.
func Retryable(err error) bool {
	return errors.Is(err, ErrNotReady) || errors.Is(err, ErrUnavailable)
}
