package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidValue indicates a setting holds a value outside its allowed set.
	ErrInvalidValue = errors.New("invalid configuration value")

	// ErrNotFound indicates a configuration file does not exist.
	ErrNotFound = errors.New("configuration file not found")
)

// InvalidValueError reports a setting that failed validation.
type InvalidValueError struct {
	Key   string
	Value string
	Layer string
}

func (e *InvalidValueError) Error() string {
	if e.Layer == "" {
		return fmt.Sprintf("%s: %q is not valid", e.Key, e.Value)
	}
	return fmt.Sprintf("%s: %q is not valid (from %s)", e.Key, e.Value, e.Layer)
}

func (e *InvalidValueError) Unwrap() error { return ErrInvalidValue }
