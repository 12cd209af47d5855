package models

import (
	"errors"
	"fmt"
)

// Error taxonomy for an analysis run. Only configuration errors abort a
// run; the others are recorded on the affected record or recommendation.
var (
	ErrMalformedInput   = errors.New("malformed input")
	ErrDegenerateMetric = errors.New("degenerate metric")
	ErrPolicyViolation  = errors.New("capital policy violation")
	ErrConfiguration    = errors.New("invalid configuration")
	ErrNotFound         = errors.New("record not found")
)

// ConfigurationError reports a capital policy or rubric value outside its
// valid range.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// Unwrap allows errors.Is(err, ErrConfiguration).
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// NewConfigurationError builds a ConfigurationError.
func NewConfigurationError(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
