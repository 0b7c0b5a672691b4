package changes

import (
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/danieljhkim/monorel/internal/workspace"
)

// ContentSet decides which workspace paths belong to a package: files below
// the package directory, minus nested package roots, filtered through the
// manifest's include and exclude patterns.
type ContentSet struct {
	dir     string
	nested  []string
	include *ignore.GitIgnore
	exclude *ignore.GitIgnore
}

// NewContentSet builds the content set of pkg within ws.
func NewContentSet(ws *workspace.Workspace, pkg *workspace.Package) *ContentSet {
	c := &ContentSet{
		dir:    pkg.RelDir,
		nested: ws.NestedRoots(pkg),
	}
	if len(pkg.Include) > 0 {
		c.include = ignore.CompileIgnoreLines(pkg.Include...)
	}
	if len(pkg.Exclude) > 0 {
		c.exclude = ignore.CompileIgnoreLines(pkg.Exclude...)
	}
	return c
}

// Contains reports whether path, relative to the workspace root with
// forward slashes, is part of the package.
func (c *ContentSet) Contains(path string) bool {
	rel := path
	if c.dir != "." && c.dir != "" {
		prefix := c.dir + "/"
		if !strings.HasPrefix(path, prefix) {
			return false
		}
		rel = strings.TrimPrefix(path, prefix)
	}

	for _, n := range c.nested {
		if strings.HasPrefix(path, n+"/") {
			return false
		}
	}

	if c.include != nil && !c.include.MatchesPath(rel) {
		return false
	}
	if c.exclude != nil && c.exclude.MatchesPath(rel) {
		return false
	}
	return true
}

// Filter returns the paths contained in the set, preserving order.
func (c *ContentSet) Filter(paths []string) []string {
	var out []string
	for _, p := range paths {
		if c.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}
