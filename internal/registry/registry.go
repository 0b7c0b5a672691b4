// Package registry answers the two questions release verification asks of
// a package registry: is this version already published, and who owns the
// package. No credentials or network transport are involved; the index
// implementation reads a directory of YAML documents.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/monorel/internal/version"
)

// ErrUnknownPackage indicates the registry has no record of the package.
var ErrUnknownPackage = errors.New("package not found in registry")

// Registry provides read access to published package metadata.
type Registry interface {
	// IsPublished reports whether name@v is already published.
	IsPublished(name string, v version.Version) (bool, error)

	// Owners returns the owners recorded for name, sorted.
	Owners(name string) ([]string, error)
}

// Entry is the index document stored for one package.
type Entry struct {
	Versions []string `yaml:"versions"`
	Owners   []string `yaml:"owners"`
}

// IndexRegistry reads <dir>/<package>.yaml entries.
type IndexRegistry struct {
	dir string

	mu    sync.Mutex
	cache map[string]*Entry
}

// NewIndexRegistry returns a registry backed by the index directory dir.
// A non-empty name selects the sub-index <dir>/<name>.
func NewIndexRegistry(dir, name string) *IndexRegistry {
	if name != "" {
		dir = filepath.Join(dir, name)
	}
	return &IndexRegistry{dir: dir, cache: make(map[string]*Entry)}
}

// IsPublished compares versions by precedence; build metadata is ignored.
// A package missing from the index has no published versions.
func (r *IndexRegistry) IsPublished(name string, v version.Version) (bool, error) {
	entry, err := r.load(name)
	if errors.Is(err, ErrUnknownPackage) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, raw := range entry.Versions {
		pv, err := version.Parse(raw)
		if err != nil {
			return false, fmt.Errorf("registry entry %s: %w", name, err)
		}
		if pv.Equal(v) {
			return true, nil
		}
	}
	return false, nil
}

// Owners returns the owners recorded for name.
func (r *IndexRegistry) Owners(name string) ([]string, error) {
	entry, err := r.load(name)
	if err != nil {
		return nil, err
	}
	owners := append([]string(nil), entry.Owners...)
	sort.Strings(owners)
	return owners, nil
}

func (r *IndexRegistry) load(name string) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.cache[name]; ok {
		return e, nil
	}

	path := filepath.Join(r.dir, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPackage, name)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var e Entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	r.cache[name] = &e
	return &e, nil
}

// Fake implements Registry in memory for testing.
type Fake struct {
	published map[string][]version.Version
	owners    map[string][]string
	err       error
}

// NewFake creates an empty Fake registry.
func NewFake() *Fake {
	return &Fake{
		published: make(map[string][]version.Version),
		owners:    make(map[string][]string),
	}
}

// Publish records name@v as published.
func (f *Fake) Publish(name string, v version.Version) {
	f.published[name] = append(f.published[name], v)
}

// SetOwners sets the owners of name.
func (f *Fake) SetOwners(name string, owners ...string) {
	f.owners[name] = owners
}

// SetError sets an error to be returned by all methods.
func (f *Fake) SetError(err error) {
	f.err = err
}

// IsPublished reports whether name@v was recorded with Publish.
func (f *Fake) IsPublished(name string, v version.Version) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, pv := range f.published[name] {
		if pv.Equal(v) {
			return true, nil
		}
	}
	return false, nil
}

// Owners returns the owners set with SetOwners.
func (f *Fake) Owners(name string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	owners, ok := f.owners[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPackage, name)
	}
	out := append([]string(nil), owners...)
	sort.Strings(out)
	return out, nil
}
