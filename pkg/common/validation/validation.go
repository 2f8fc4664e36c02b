// Package validation provides common validation utilities shared by the
// queue's constructors and guarded setters.
package validation

import (
	aqerrors "github.com/hbasrc/Async-Queue/pkg/common/errors"
)

// ValidateNotNil validates that an interface value is not nil.
// Returns a ValidationError if the value is nil.
func ValidateNotNil(module, field string, value interface{}) error {
	if value == nil {
		return aqerrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ValidationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return aqerrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

// ValidateNonNegative validates that an integer value is non-negative (>= 0).
// Returns a ValidationError if the value is negative.
func ValidateNonNegative(module, field string, value int) error {
	if value < 0 {
		return aqerrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// ValidateConcurrency validates a concurrency limit: any positive value, the
// zero value (coerced to the default by callers), or the unbounded sentinel.
// The sentinel is passed in so this package does not depend on the queue.
func ValidateConcurrency(module, field string, value, unbounded int) error {
	if value < 0 && value != unbounded {
		return aqerrors.NewValidationError(module, field, value, "must be positive or unbounded").
			WithHint("use a positive limit, or the Unbounded sentinel to disable the gate")
	}
	return nil
}
