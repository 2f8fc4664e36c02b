package errors

import (
	"errors"
	"fmt"
)

// Common error kinds surfaced by the dispatch queue. Every structured error
// below unwraps to one of these sentinels, so callers can classify failures
// with errors.Is regardless of how much context the error carries.

var (
	// ErrConfiguration indicates a mandatory configuration field is missing
	// or was illegally cleared (a queue must always have a worker)
	ErrConfiguration = errors.New("missing mandatory configuration")

	// ErrInvalidConfiguration indicates a wrong-shaped value was supplied
	// to a constructor or setter
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrBusy indicates an attempt to mutate structural configuration
	// while tasks are in flight
	ErrBusy = errors.New("queue is busy")

	// ErrInvalidCallback indicates a nil per-task callback was supplied to
	// a push operation
	ErrInvalidCallback = errors.New("invalid callback")
)

// ValidationError provides detailed information about a configuration
// validation failure.
type ValidationError struct {
	Module string      // component that rejected the value
	Field  string      // field name
	Value  interface{} // offending value
	Reason string      // why the value was rejected
	Hint   string      // optional guidance for fixing the error
}

// NewValidationError creates a new ValidationError.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches guidance to the error and returns the same instance
// for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap makes ValidationError match ErrInvalidConfiguration via errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// ConfigError reports a missing or illegally cleared mandatory field.
type ConfigError struct {
	Module string
	Field  string
	Reason string
}

// NewConfigError creates a new ConfigError.
func NewConfigError(module, field, reason string) *ConfigError {
	return &ConfigError{Module: module, Field: field, Reason: reason}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Module, e.Field, e.Reason)
}

// Unwrap makes ConfigError match ErrConfiguration via errors.Is.
func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// BusyError reports a structural mutation attempted while tasks were in
// flight. Running records the in-flight count observed at the time of the
// call.
type BusyError struct {
	Module  string
	Field   string
	Running int
}

// NewBusyError creates a new BusyError.
func NewBusyError(module, field string, running int) *BusyError {
	return &BusyError{Module: module, Field: field, Running: running}
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("%s: cannot set %s while %d task(s) in flight", e.Module, e.Field, e.Running)
}

// Unwrap makes BusyError match ErrBusy via errors.Is.
func (e *BusyError) Unwrap() error {
	return ErrBusy
}

// IsConfigurationError returns true if the error indicates a missing or
// cleared mandatory field.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsValidationError returns true if the error indicates a wrong-shaped
// configuration value.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsBusy returns true if the error indicates the queue had tasks in flight.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}

// IsInvalidCallback returns true if the error indicates a nil per-task
// callback.
func IsInvalidCallback(err error) bool {
	return errors.Is(err, ErrInvalidCallback)
}
