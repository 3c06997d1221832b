package sched

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("invalid scheduler configuration")

	// ErrInvalidPriority is returned by AddProcess for a tier outside
	// [0, TierCount-1]. The engine state is left untouched.
	ErrInvalidPriority = errors.New("invalid priority tier")

	// ErrTaskQueued is returned when a task that is already owned by an
	// engine is added again or has its tier changed.
	ErrTaskQueued = errors.New("task is already enqueued")
)

// ConfigurationError reports an inconsistent engine configuration.
// An engine is never constructed from a config that produced one.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

func configErr(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
