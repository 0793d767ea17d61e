// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrExpired         = errors.New("expired")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// Data-sourcing errors. A fetch failure must abort the computation that
	// needed the data — substituting empty collections would silently produce
	// misleadingly low scores.
	ErrFetchFailed        = errors.New("input fetch failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "profile", "goal", "scoreboard"
	Op      string // Operation that failed, e.g., "Fetch", "Recompute"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Profile domain errors
var (
	ErrProfileNotFound   = NewDomainError("profile", "Find", ErrNotFound, "profile not found")
	ErrInvalidProfileID  = NewDomainError("profile", "Validate", ErrInvalidID, "invalid profile ID")
	ErrInvalidYear       = NewDomainError("profile", "Validate", ErrValueOutOfRange, "year must be between 1 and 4")
	ErrInvalidVisibility = NewDomainError("profile", "Validate", ErrInvalidInput, "invalid visibility")
	ErrSelfFollow        = NewDomainError("profile", "Follow", ErrInvalidInput, "cannot follow self")
	ErrInvalidLikeTarget = NewDomainError("profile", "Like", ErrInvalidInput, "invalid like target")
)

// Goal domain errors
var (
	ErrGoalNotFound      = NewDomainError("goal", "Find", ErrNotFound, "goal not found")
	ErrMetricNotFound    = NewDomainError("goal", "FindMetric", ErrNotFound, "metric not found")
	ErrInvalidGoalStatus = NewDomainError("goal", "Validate", ErrInvalidState, "invalid goal status")
	ErrNegativeMetric    = NewDomainError("goal", "Mutate", ErrNegativeValue, "metric value cannot be negative")
	ErrMetricsFetch      = NewDomainError("goal", "ComputeProgress", ErrFetchFailed, "metrics could not be fetched")
)

// Scoreboard domain errors
var (
	ErrRecordNotFound   = NewDomainError("scoreboard", "Find", ErrNotFound, "score record not found")
	ErrEmptyPopulation  = NewDomainError("scoreboard", "Rank", ErrInvalidInput, "population is empty")
	ErrStoreUnavailable = NewDomainError("scoreboard", "ReadStore", ErrServiceUnavailable, "score store unavailable")
	ErrDuplicateProfile = NewDomainError("scoreboard", "Rank", ErrAlreadyExists, "profile already in scoreboard")
	ErrPassFailed       = NewDomainError("scoreboard", "Recompute", ErrFetchFailed, "score pass aborted")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsFetchFailure checks if the error is an input-fetch failure. Callers must
// abort the affected computation instead of continuing with partial data.
func IsFetchFailure(err error) bool {
	return errors.Is(err, ErrFetchFailed) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
