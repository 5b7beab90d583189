// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common application errors.
var (
	// Rule store errors.
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrFormat     = errors.New("malformed rule document")

	// Applicator errors.
	ErrStaleOffset = errors.New("stale suggestion offsets")

	// Collaborator errors.
	ErrRecognition = errors.New("speech recognition failed")
	ErrSynthesis   = errors.New("speech synthesis failed")
	ErrSyncFailed  = errors.New("sync failed")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// FieldError describes one violated constraint on one rule field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// ValidationError lists every constraint a rule definition violated.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s", e.Errors[0])
	}
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.String()
	}
	return fmt.Sprintf("validation: %d errors: %s", len(e.Errors), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// HasField reports whether field is among the violations.
func (e *ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// FormatError reports a rule document that could not be parsed at all.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", ErrFormat, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// StaleOffsetError reports an apply against offsets that no longer describe
// the current text. The caller should discard its suggestion list and re-match.
type StaleOffsetError struct {
	Reason string
	Start  int
	End    int
	Length int
}

func (e *StaleOffsetError) Error() string {
	return fmt.Sprintf("%s: span [%d,%d) on text of length %d: %s",
		ErrStaleOffset, e.Start, e.End, e.Length, e.Reason)
}

func (e *StaleOffsetError) Unwrap() error { return ErrStaleOffset }

// RecognitionError wraps a speech-to-text failure.
type RecognitionError struct {
	Err error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("%s: %v", ErrRecognition, e.Err)
}

// Is lets errors.Is match both the sentinel and the cause.
func (e *RecognitionError) Is(target error) bool { return target == ErrRecognition }

func (e *RecognitionError) Unwrap() error { return e.Err }

// SynthesisError wraps a text-to-speech failure.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s: %v", ErrSynthesis, e.Err)
}

// Is lets errors.Is match both the sentinel and the cause.
func (e *SynthesisError) Is(target error) bool { return target == ErrSynthesis }

func (e *SynthesisError) Unwrap() error { return e.Err }

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
