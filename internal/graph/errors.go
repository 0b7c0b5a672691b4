package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCycleDetected indicates the selected packages depend on each other in a loop.
	ErrCycleDetected = errors.New("dependency cycle detected")

	// ErrUnknownNode indicates a selected package is not part of the graph.
	ErrUnknownNode = errors.New("unknown package")
)

// CycleError reports one dependency cycle. Cycle starts and ends with the
// same package.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	if len(e.Cycle) == 0 {
		return ErrCycleDetected.Error()
	}
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(e.Cycle, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// UnknownNodeError names a selected package missing from the graph.
type UnknownNodeError struct {
	Name string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownNode, e.Name)
}

func (e *UnknownNodeError) Unwrap() error { return ErrUnknownNode }
