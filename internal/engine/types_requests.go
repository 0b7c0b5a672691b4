package engine

import "github.com/danieljhkim/monorel/internal/config"

// Selection picks the packages an operation works on.
type Selection struct {
	// Packages are explicitly requested package names.
	Packages []string

	// Workspace selects every member.
	Workspace bool

	// Exclude removes packages from the selection.
	Exclude []string
}

// ConfigOptions control how settings layers are gathered.
type ConfigOptions struct {
	// ConfigFile is a settings file given at invocation, "" for none.
	ConfigFile string

	// Isolated ignores the implicit settings files.
	Isolated bool

	// Overrides are settings given as command line flags.
	Overrides *config.Settings
}

// PlanRequest represents a request to plan a release.
type PlanRequest struct {
	// CWD is the current working directory
	CWD string

	// Intent is the bump level or an explicit version
	Intent string

	Selection Selection
	Config    ConfigOptions

	// Metadata is build metadata for the new versions
	Metadata string

	// PrevTagName overrides the discovery of the last release tag
	PrevTagName string

	// Force plans every selected package even when unchanged
	Force bool

	// Forced plans the named packages even when unchanged
	Forced []string

	// AllowDirty downgrades the dirty working tree check to a warning
	AllowDirty bool
}

// ChangesRequest represents a request for a change report.
type ChangesRequest struct {
	// CWD is the current working directory
	CWD string

	Selection Selection
	Config    ConfigOptions

	// PrevTagName overrides the discovery of the last release tag
	PrevTagName string
}

// ConfigRequest represents a request to resolve one package's settings.
type ConfigRequest struct {
	// CWD is the current working directory
	CWD string

	// Package is the package name; "" means the package containing CWD
	Package string

	Config ConfigOptions
}
