package version

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidVersion indicates a string is not a full semantic version.
	ErrInvalidVersion = errors.New("invalid version")

	// ErrInvalidIntent indicates an unknown bump level or target version.
	ErrInvalidIntent = errors.New("invalid bump intent")

	// ErrInvalidDowngrade indicates a pre-release bump would move to a lower channel.
	ErrInvalidDowngrade = errors.New("pre-release cannot move to a lower channel")

	// ErrNonMonotonicVersion indicates an explicit target is not greater than the current version.
	ErrNonMonotonicVersion = errors.New("version must be greater than the current version")

	// ErrUnsupportedPrerelease indicates a pre-release scheme the bump rules do not understand.
	ErrUnsupportedPrerelease = errors.New("unsupported pre-release scheme")

	// ErrUnsupportedRequirement indicates a requirement operator that cannot be rewritten.
	ErrUnsupportedRequirement = errors.New("unsupported version requirement")
)

// TransitionError reports a failed version transition.
type TransitionError struct {
	// Kind is one of the package sentinel errors.
	Kind error

	From   Version
	Intent Intent

	// Detail is an optional human-readable explanation.
	Detail string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("cannot apply %s to %s: %v", e.Intent, e.From, e.Kind)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return e.Kind }
