// Package apperrors provides structured application errors with HTTP status mapping.
package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for classification via errors.Is().
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrSubmissionExhausted = errors.New("submission exhausted")
	ErrQuotaExceeded       = errors.New("quota exceeded")
	ErrContentFiltered     = errors.New("content filtered")
	ErrEmptyResult         = errors.New("empty result")
	ErrTimedOut            = errors.New("timed out")
	ErrInternal            = errors.New("internal error")
)

// Error provides structured error with context.
type Error struct {
	Sentinel error  // Wrapped sentinel for errors.Is() classification
	Message  string // Human-readable message
	Field    string // For validation errors (e.g., "prompt")
	Op       string // Operation that failed (e.g., "veo.submit")
	Cause    error  // Underlying error
}

// Error returns the human-readable error message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the sentinel error for errors.Is() classification.
func (e *Error) Unwrap() error {
	return e.Sentinel
}

// Validation creates a validation error for a specific field.
func Validation(field, message string) error {
	return &Error{
		Sentinel: ErrValidation,
		Message:  message,
		Field:    field,
	}
}

// NotFound creates a not found error for a resource.
func NotFound(resource, id string) error {
	return &Error{
		Sentinel: ErrNotFound,
		Message:  fmt.Sprintf("%s %s not found", resource, id),
	}
}

// SubmissionExhausted creates an error for a job no endpoint variant accepted.
func SubmissionExhausted(candidates int, cause error) error {
	return &Error{
		Sentinel: ErrSubmissionExhausted,
		Message:  fmt.Sprintf("all %d endpoint variants failed", candidates),
		Cause:    cause,
	}
}

// QuotaExceeded creates an error for backend rate limiting at submission time.
func QuotaExceeded(op string) error {
	return &Error{
		Sentinel: ErrQuotaExceeded,
		Message:  "generation quota exceeded, retry later",
		Op:       op,
	}
}

// ContentFiltered creates an error for a policy-rejected generation.
func ContentFiltered(filteredCount int, reason string) error {
	msg := fmt.Sprintf("generated content removed by content moderation (%d filtered)", filteredCount)
	if reason != "" {
		msg += ": " + reason
	}
	return &Error{
		Sentinel: ErrContentFiltered,
		Message:  msg,
	}
}

// EmptyResult creates an error for a terminal payload with no usable media.
func EmptyResult(op string) error {
	return &Error{
		Sentinel: ErrEmptyResult,
		Message:  "generation completed but produced no video",
		Op:       op,
	}
}

// TimedOut creates an error for a generation that exceeded the overall deadline.
func TimedOut(elapsed time.Duration) error {
	return &Error{
		Sentinel: ErrTimedOut,
		Message:  fmt.Sprintf("generation did not complete within deadline (elapsed %s)", elapsed.Round(time.Second)),
	}
}

// Internal creates an internal error wrapping an underlying cause.
func Internal(op string, cause error) error {
	return &Error{
		Sentinel: ErrInternal,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}
