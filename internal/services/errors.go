// Package services defines the business logic of the rehab engine:
// onboarding, symptom logs, plan assembly, adherence and program lifecycle.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import (
	"errors"
	"fmt"
)

// Lookup errors.
var (
	// ErrProgramNotFound indicates the program does not exist or is not
	// owned by the current user.
	ErrProgramNotFound = errors.New("program not found")

	// ErrLogNotFound indicates the log does not exist or is not owned by
	// the current user.
	ErrLogNotFound = errors.New("log not found")

	// ErrOnboardingNotFound indicates the onboarding profile does not exist
	// or is not owned by the current user.
	ErrOnboardingNotFound = errors.New("onboarding profile not found")

	// ErrPlanNotFound indicates the program has no plan yet.
	ErrPlanNotFound = errors.New("plan not found")
)

// State errors.
var (
	// ErrPersistenceConflict is a retryable write conflict: a plan already
	// exists for the log or profile, or a concurrent writer linked the same
	// parent plan first.
	ErrPersistenceConflict = errors.New("persistence conflict")

	// ErrDuplicateLog is returned when a log already exists for the date.
	ErrDuplicateLog = errors.New("a log already exists for this date")

	// ErrProgramInactive is returned when logging against a paused or
	// completed program.
	ErrProgramInactive = errors.New("program is not active")

	// ErrChainCorrupt is returned when a progression chain has a cycle,
	// exceeds the depth guard, or is not strictly time-ordered.
	ErrChainCorrupt = errors.New("progression chain is corrupt")

	// ErrInvalidStatus is returned for an unknown program status.
	ErrInvalidStatus = errors.New("invalid program status")
)

// ValidationError reports malformed input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
