// Package changes decides which packages changed since their last release.
//
// Detection only informs skip decisions; it never blocks a release on its
// own. A package with no previous release is always considered changed, and
// a change propagates to every package that depends on it (dev-only
// dependencies excluded).
package changes

import (
	"fmt"
	"sync"

	"github.com/danieljhkim/monorel/internal/gitx"
	"github.com/danieljhkim/monorel/internal/graph"
	"github.com/danieljhkim/monorel/internal/workspace"
)

// Reason explains a detection result.
type Reason int

const (
	// ReasonUnchanged means no content changed since the last release.
	ReasonUnchanged Reason = iota
	// ReasonNeverReleased means no previous release ref was found.
	ReasonNeverReleased
	// ReasonFiles means files in the package changed.
	ReasonFiles
	// ReasonDependency means a dependency changed.
	ReasonDependency
)

func (r Reason) String() string {
	switch r {
	case ReasonUnchanged:
		return "unchanged"
	case ReasonNeverReleased:
		return "never released"
	case ReasonFiles:
		return "files changed"
	case ReasonDependency:
		return "dependency changed"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Result is the detection outcome for one package.
type Result struct {
	Package string `json:"package"`
	Changed bool   `json:"changed"`
	Reason  Reason `json:"reason"`

	// Ref is the last release ref the comparison used, "" if none.
	Ref string `json:"ref,omitempty"`

	// Files are the changed paths belonging to the package.
	Files []string `json:"files,omitempty"`

	// Dependencies lists changed dependencies that caused propagation.
	Dependencies []string `json:"dependencies,omitempty"`
}

// Detector answers change questions against version control.
type Detector struct {
	repo gitx.GitRepo
	ws   *workspace.Workspace

	mu    sync.Mutex
	paths map[string][]string
}

// NewDetector creates a Detector for ws backed by repo.
func NewDetector(repo gitx.GitRepo, ws *workspace.Workspace) *Detector {
	return &Detector{
		repo:  repo,
		ws:    ws,
		paths: make(map[string][]string),
	}
}

// HasChanges reports whether pkg changed since lastRef. An empty lastRef
// means the package was never released and is always changed.
func (d *Detector) HasChanges(pkg *workspace.Package, lastRef string) (bool, error) {
	if lastRef == "" {
		return true, nil
	}
	files, err := d.ChangedFiles(pkg, lastRef)
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

// ChangedFiles returns the paths of pkg changed since lastRef.
func (d *Detector) ChangedFiles(pkg *workspace.Package, lastRef string) ([]string, error) {
	paths, err := d.changedPaths(lastRef)
	if err != nil {
		return nil, err
	}
	return NewContentSet(d.ws, pkg).Filter(paths), nil
}

// DetectAll evaluates every package of order, walking groups in sequence so
// dependency changes are known before their dependents are visited. refs
// maps package names to their last release ref.
func (d *Detector) DetectAll(order [][]string, g *graph.Graph, refs map[string]string) (map[string]Result, error) {
	results := make(map[string]Result)

	for _, group := range order {
		for _, name := range group {
			pkg, ok := d.ws.Package(name)
			if !ok {
				return nil, fmt.Errorf("%w: %s", workspace.ErrUnknownPackage, name)
			}

			res := Result{Package: name, Ref: refs[name]}
			if res.Ref == "" {
				res.Changed = true
				res.Reason = ReasonNeverReleased
			} else {
				files, err := d.ChangedFiles(pkg, res.Ref)
				if err != nil {
					return nil, fmt.Errorf("failed to detect changes for %s: %w", name, err)
				}
				res.Files = files
				if len(files) > 0 {
					res.Changed = true
					res.Reason = ReasonFiles
				}
			}

			for _, dep := range g.Dependencies(name) {
				if r, ok := results[dep]; ok && r.Changed {
					res.Dependencies = append(res.Dependencies, dep)
				}
			}
			if !res.Changed && len(res.Dependencies) > 0 {
				res.Changed = true
				res.Reason = ReasonDependency
			}

			results[name] = res
		}
	}
	return results, nil
}

// LastReleaseRef locates the previous release tag: exact when it exists,
// otherwise the newest tag matching pattern. It returns "" when neither is
// found.
func (d *Detector) LastReleaseRef(exact, pattern string) (string, error) {
	if exact != "" {
		ok, err := d.repo.TagExists(d.ws.Root, exact)
		if err != nil {
			return "", err
		}
		if ok {
			return exact, nil
		}
	}
	if pattern == "" {
		return "", nil
	}
	return d.repo.LastTag(d.ws.Root, pattern)
}

func (d *Detector) changedPaths(ref string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.paths[ref]; ok {
		return p, nil
	}
	p, err := d.repo.ChangedPathsSince(d.ws.Root, ref)
	if err != nil {
		return nil, err
	}
	d.paths[ref] = p
	return p, nil
}
