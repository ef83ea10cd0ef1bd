package riskplan

import (
	"errors"
	"fmt"
)

// Sentinel errors, to be matched with errors.Is.
var (
	ErrConfiguration    = errors.New("invalid configuration")
	ErrInsufficientData = errors.New("insufficient data")
	ErrOptimization     = errors.New("optimization failed")
)

// ConfigurationError reports a parameter outside of its valid domain.
type ConfigurationError struct {
	Field  string // name of the offending parameter
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// Configf returns a *ConfigurationError for field and value.
func Configf(field string, value any, format string, args ...any) error {
	return &ConfigurationError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// InsufficientDataError reports a series too short for the requested computation.
type InsufficientDataError struct {
	What string // what was too short, e.g. "prices of PETR4.SA"
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s needs at least %d points, got %d", e.What, e.Need, e.Got)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// OptimizationError reports a solver that could not produce an answer. Attempt carries the
// configuration that was tried so that callers can report or retry it.
type OptimizationError struct {
	Op      string
	Attempt any
	Reason  string
	Err     error // underlying solver error, if any
}

func (e *OptimizationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OptimizationError) Is(target error) bool { return target == ErrOptimization }

func (e *OptimizationError) Unwrap() error { return e.Err }
