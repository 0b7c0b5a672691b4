package engine

import "errors"

var (
	// ErrNotInRepo indicates the current directory is not in a git repository.
	ErrNotInRepo = errors.New("not in a git repository")

	// ErrNoPackages indicates the selection resolved to no packages.
	ErrNoPackages = errors.New("no packages selected")

	// ErrVerification indicates a pre-flight verification failed.
	ErrVerification = errors.New("verification failed")
)
