// Package apperr defines the error taxonomy shared across the service:
// validation failures, provider failures, and budget denials.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports input rejected before any provider call. Field names
// the offending input and Constraint names the violated bound.
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Constraint)
}

// Validation builds a ValidationError with a formatted constraint message.
func Validation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Constraint: fmt.Sprintf(format, args...)}
}

// ProviderError wraps an embedding or generation provider failure (transport
// error, timeout, provider-side rate limit). Callers may retry.
type ProviderError struct {
	Provider string // "embedding" or "generation"
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider unavailable: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Provider wraps err as a ProviderError for the named provider.
// Returns nil if err is nil.
func Provider(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// BudgetError reports a denial from the token governor. Distinct from provider
// failures: retrying does not help until the usage window resets.
type BudgetError struct {
	Reason string
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("token budget exceeded: %s", e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsProvider reports whether err is (or wraps) a ProviderError.
func IsProvider(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// IsBudget reports whether err is (or wraps) a BudgetError.
func IsBudget(err error) bool {
	var be *BudgetError
	return errors.As(err, &be)
}
