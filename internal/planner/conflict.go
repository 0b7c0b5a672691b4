package planner

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danieljhkim/monorel/internal/version"
)

var (
	// ErrSharedVersionConflict indicates members of a shared-version group
	// cannot agree on a single version.
	ErrSharedVersionConflict = errors.New("shared version conflict")

	// ErrBlocked indicates a step cannot run because a package it depends on failed.
	ErrBlocked = errors.New("blocked by failed dependency")

	// ErrMetadataRequired indicates build metadata is required but was not supplied.
	ErrMetadataRequired = errors.New("build metadata required")

	// ErrDependentMismatch indicates a dependent's requirement no longer
	// matches the planned version under the error policy.
	ErrDependentMismatch = errors.New("dependent requirement not satisfied")

	// ErrMissingConfig indicates no resolved settings were given for a package.
	ErrMissingConfig = errors.New("no resolved configuration")
)

// Problem is the error recorded for one package, or for the plan as a
// whole when Package is empty.
type Problem struct {
	Package string
	Err     error
}

func (p Problem) Error() string {
	if p.Package == "" {
		return p.Err.Error()
	}
	return fmt.Sprintf("%s: %v", p.Package, p.Err)
}

func (p Problem) Unwrap() error { return p.Err }

// PlanError aggregates the problems found while assembling a plan.
type PlanError struct {
	Problems []Problem

	// Fatal is true when no plan could be produced.
	Fatal bool
}

func (e *PlanError) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0].Error()
	}
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Error()
	}
	return fmt.Sprintf("%d packages failed planning: %s", len(e.Problems), strings.Join(parts, "; "))
}

// Unwrap exposes every problem to errors.Is and errors.As.
func (e *PlanError) Unwrap() []error {
	out := make([]error, len(e.Problems))
	for i, p := range e.Problems {
		out[i] = p
	}
	return out
}

func fatal(err error) *PlanError {
	return &PlanError{Problems: []Problem{{Err: err}}, Fatal: true}
}

// SharedConflictError reports the members of a shared-version group that
// disagree.
type SharedConflictError struct {
	Group    string
	Versions map[string]version.Version
}

func (e *SharedConflictError) Error() string {
	names := make([]string, 0, len(e.Versions))
	for n := range e.Versions {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%s", n, e.Versions[n])
	}
	return fmt.Sprintf("%v: group %q: %s", ErrSharedVersionConflict, e.Group, strings.Join(parts, ", "))
}

func (e *SharedConflictError) Unwrap() error { return ErrSharedVersionConflict }

// unifyShared brings every member of a shared-version group to the maximum
// planned version. Members equal in precedence but differing in build
// metadata conflict.
func unifyShared(group string, planned map[string]version.Version) (version.Version, error) {
	names := make([]string, 0, len(planned))
	for n := range planned {
		names = append(names, n)
	}
	sort.Strings(names)

	var max version.Version
	for i, n := range names {
		if i == 0 || max.Less(planned[n]) {
			max = planned[n]
		}
	}

	conflicting := make(map[string]version.Version)
	for _, n := range names {
		v := planned[n]
		if v.Equal(max) && !v.Identical(max) {
			conflicting[n] = v
		}
	}
	if len(conflicting) > 0 {
		for _, n := range names {
			if planned[n].Identical(max) {
				conflicting[n] = max
			}
		}
		return version.Version{}, &SharedConflictError{Group: group, Versions: conflicting}
	}
	return max, nil
}
