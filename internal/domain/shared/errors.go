// Package shared contains domain errors shared by every domain package.
// This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidEntity = errors.New("invalid entity")

	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrInvalidFormat = errors.New("invalid format")

	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
	ErrPartialFailure     = errors.New("partial failure")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g. "academic", "analysis", "reasoning"
	Op      string // operation that failed, e.g. "ResolveStudent"
	Kind    error  // base error for errors.Is() checking
	Message string // human-readable message
	Err     error  // underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error, or the kind when there is none.
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches against the kind first, then the wrapped error.
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

// Academic domain errors
var (
	ErrInvalidIdentifier = NewDomainError("academic", "ParseID", ErrInvalidID, "malformed record identifier")
	ErrStudentNotFound   = NewDomainError("academic", "ResolveStudent", ErrNotFound, "student not found")
)

// Analysis domain errors
var (
	ErrReasoningNotConfigured = NewDomainError("reasoning", "Configure", ErrServiceUnavailable, "reasoning service is not configured")
	ErrReasoningUnavailable   = NewDomainError("reasoning", "Request", ErrServiceUnavailable, "reasoning service is unavailable")
	ErrReasoningRateLimited   = NewDomainError("reasoning", "Request", ErrRateLimited, "reasoning service rate limit exceeded")
	ErrReasoningParse         = NewDomainError("reasoning", "Parse", ErrInvalidFormat, "reasoning output is not valid JSON")
	ErrCourseAnalysisFailed   = NewDomainError("analysis", "AnalyzeCourse", ErrPartialFailure, "course analysis failed")
	ErrDocumentFetchFailed    = NewDomainError("extractor", "Extract", ErrExternalService, "document text extraction failed")
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
		errors.Is(err, ErrEmptyValue)
}

// IsUnavailable checks if an upstream collaborator could not serve the call.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}
