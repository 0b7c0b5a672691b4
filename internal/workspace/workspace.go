// Package workspace loads a multi-package repository: the root manifest,
// its member packages, their versions and their dependency declarations.
//
// Manifests are parsed with positions so the planner can target the exact
// bytes of a version or requirement token without re-serialising the file.
package workspace

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danieljhkim/monorel/internal/config"
	"github.com/danieljhkim/monorel/internal/fsops"
	"github.com/danieljhkim/monorel/internal/graph"
	"github.com/danieljhkim/monorel/internal/version"
)

var (
	// ErrNoManifest indicates the workspace root has no package.yaml.
	ErrNoManifest = errors.New("no package.yaml at workspace root")

	// ErrDuplicatePackage indicates two members declare the same name.
	ErrDuplicatePackage = errors.New("duplicate package name")

	// ErrUnknownPackage indicates a requested package is not a member.
	ErrUnknownPackage = errors.New("package not in workspace")
)

// ManifestError reports a problem in one manifest.
type ManifestError struct {
	Path string
	Line int
	Err  error
}

func (e *ManifestError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }

// Dependency is one entry of a dependency table.
type Dependency struct {
	Name string
	Req  string
	Kind graph.EdgeKind

	// ReqSpan locates Req in the manifest. Invalid for path-only entries.
	ReqSpan Span
}

// Package is a member of the workspace.
type Package struct {
	Name string

	// Dir is the absolute package directory.
	Dir string

	// RelDir is Dir relative to the workspace root, "." for the root package.
	RelDir string

	ManifestPath string
	Manifest     []byte

	Version     version.Version
	VersionSpan Span

	// Publish is false when the manifest opts out of releasing.
	Publish bool

	// Include and Exclude are gitignore-style content patterns.
	Include []string
	Exclude []string

	Dependencies []Dependency

	// Release holds settings embedded in the manifest, if any.
	Release *config.Settings

	IsRoot bool
}

// Workspace is a loaded multi-package repository.
type Workspace struct {
	Root         string
	ManifestPath string

	// Release holds settings embedded in the root manifest's workspace section.
	Release *config.Settings

	// Packages are sorted by name.
	Packages []*Package

	byName map[string]*Package
}

// Load reads the workspace rooted at root.
func Load(fsys fsops.FS, root string) (*Workspace, error) {
	rootManifest := filepath.Join(root, ManifestName)
	content, err := fsys.ReadFile(rootManifest)
	if err != nil {
		if ok, _ := fsys.Exists(rootManifest); !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoManifest, root)
		}
		return nil, fmt.Errorf("failed to read %s: %w", rootManifest, err)
	}

	m, err := parseManifest(rootManifest, content)
	if err != nil {
		return nil, err
	}

	ws := &Workspace{
		Root:         root,
		ManifestPath: rootManifest,
		byName:       make(map[string]*Package),
	}

	if m.file.Package != nil {
		pkg, err := m.packageInfo()
		if err != nil {
			return nil, err
		}
		pkg.Dir = root
		pkg.RelDir = "."
		pkg.IsRoot = true
		if err := ws.add(pkg); err != nil {
			return nil, err
		}
	}

	if sec := m.file.Workspace; sec != nil {
		if sec.Release.Kind != 0 {
			settings, err := config.DecodeNode(&sec.Release)
			if err != nil {
				return nil, m.errorf(sec.Release.Line, "workspace.release: %w", err)
			}
			ws.Release = &settings
		}

		dirs, err := memberDirs(fsys, root, sec.Members, sec.Exclude)
		if err != nil {
			return nil, err
		}
		for _, rel := range dirs {
			pkg, err := loadMember(fsys, root, rel)
			if err != nil {
				return nil, err
			}
			if err := ws.add(pkg); err != nil {
				return nil, err
			}
		}
	}

	if len(ws.Packages) == 0 {
		return nil, &ManifestError{Path: rootManifest, Err: errors.New("no package or workspace members defined")}
	}

	sort.Slice(ws.Packages, func(i, j int) bool { return ws.Packages[i].Name < ws.Packages[j].Name })
	return ws, nil
}

func loadMember(fsys fsops.FS, root, rel string) (*Package, error) {
	dir := filepath.Join(root, rel)
	path := filepath.Join(dir, ManifestName)
	content, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	m, err := parseManifest(path, content)
	if err != nil {
		return nil, err
	}
	if m.file.Package == nil {
		return nil, m.errorf(0, "member manifest has no package section")
	}
	pkg, err := m.packageInfo()
	if err != nil {
		return nil, err
	}
	pkg.Dir = dir
	pkg.RelDir = filepath.ToSlash(rel)
	return pkg, nil
}

// memberDirs expands member globs into package directories relative to
// root. Directories without a manifest and excluded directories are skipped.
func memberDirs(fsys fsops.FS, root string, members, exclude []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	for _, pattern := range members {
		matches, err := fsys.Glob(filepath.Join(root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("workspace.members: %w", err)
		}
		for _, match := range matches {
			rel, err := filepath.Rel(root, match)
			if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
				continue
			}
			rel = filepath.ToSlash(rel)
			if seen[rel] || excluded(rel, exclude) {
				continue
			}
			if ok, _ := fsys.IsDir(match); !ok {
				continue
			}
			if ok, _ := fsys.Exists(filepath.Join(match, ManifestName)); !ok {
				continue
			}
			seen[rel] = true
			out = append(out, rel)
		}
	}
	sort.Strings(out)
	return out, nil
}

func excluded(rel string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.TrimSuffix(filepath.ToSlash(p), "/")
		if p == rel {
			return true
		}
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (w *Workspace) add(pkg *Package) error {
	if prev, ok := w.byName[pkg.Name]; ok {
		return fmt.Errorf("%w: %s declared in %s and %s", ErrDuplicatePackage, pkg.Name, prev.ManifestPath, pkg.ManifestPath)
	}
	w.byName[pkg.Name] = pkg
	w.Packages = append(w.Packages, pkg)
	return nil
}

// Package returns the member named name.
func (w *Workspace) Package(name string) (*Package, bool) {
	p, ok := w.byName[name]
	return p, ok
}

// Names returns member names, sorted.
func (w *Workspace) Names() []string {
	out := make([]string, len(w.Packages))
	for i, p := range w.Packages {
		out[i] = p.Name
	}
	return out
}

// Edges returns every dependency declaration between members.
func (w *Workspace) Edges() []graph.Edge {
	var edges []graph.Edge
	for _, p := range w.Packages {
		for _, d := range p.Dependencies {
			if _, ok := w.byName[d.Name]; !ok {
				continue
			}
			edges = append(edges, graph.Edge{From: p.Name, To: d.Name, Kind: d.Kind})
		}
	}
	return edges
}

// Graph builds the dependency graph over all members.
func (w *Workspace) Graph() *graph.Graph {
	return graph.New(w.Names(), w.Edges())
}

// NestedRoots returns the directories of other members located inside pkg's
// directory, relative to the workspace root.
func (w *Workspace) NestedRoots(pkg *Package) []string {
	var out []string
	for _, other := range w.Packages {
		if other == pkg {
			continue
		}
		if pkg.RelDir == "." || strings.HasPrefix(other.RelDir, pkg.RelDir+"/") {
			out = append(out, other.RelDir)
		}
	}
	sort.Strings(out)
	return out
}

// Select resolves a package selection. An empty request selects every
// member; exclusions are removed afterwards.
func (w *Workspace) Select(names, exclude []string) ([]string, error) {
	chosen := make(map[string]bool)
	if len(names) == 0 {
		for _, p := range w.Packages {
			chosen[p.Name] = true
		}
	}
	for _, n := range names {
		if _, ok := w.byName[n]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPackage, n)
		}
		chosen[n] = true
	}
	for _, n := range exclude {
		if _, ok := w.byName[n]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPackage, n)
		}
		delete(chosen, n)
	}

	out := make([]string, 0, len(chosen))
	for n := range chosen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}
