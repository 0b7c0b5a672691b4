package engine

import (
	"github.com/danieljhkim/monorel/internal/changes"
	"github.com/danieljhkim/monorel/internal/config"
	"github.com/danieljhkim/monorel/internal/planner"
)

// PlanResult represents the result of planning a release.
type PlanResult struct {
	// Root is the workspace root
	Root string `json:"root"`

	// Plan is the assembled plan
	Plan *planner.ReleasePlan `json:"plan"`

	// Findings are the pre-flight verification results
	Findings []Finding `json:"findings,omitempty"`

	// Refs maps package names to the tag of their last release
	Refs map[string]string `json:"refs,omitempty"`
}

// Blocking returns the findings that prevent the release.
func (r *PlanResult) Blocking() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

// ChangesResult represents a change report.
type ChangesResult struct {
	// Root is the workspace root
	Root string `json:"root"`

	// Packages holds one result per selected package, in release order
	Packages []changes.Result `json:"packages"`
}

// ConfigResult represents one package's resolved settings.
type ConfigResult struct {
	Package string `json:"package"`

	// Config holds the resolved values; Config.Provenance names their layers
	Config *config.Resolved `json:"config"`

	// Layers lists the consulted layers in precedence order
	Layers []LayerInfo `json:"layers"`
}

// LayerInfo describes one consulted settings layer.
type LayerInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}
