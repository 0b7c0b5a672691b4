package gitx

import (
	"fmt"
	"path"
	"sort"
)

// FakeGitRepo implements GitRepo with predetermined values for testing.
type FakeGitRepo struct {
	root    string
	branch  string
	dirty   []string
	changes map[string][]string
	behind  map[string]bool

	// tags in creation order, oldest first.
	tags []string

	err error
}

// NewFakeGitRepo creates a FakeGitRepo rooted at root on branch "main".
func NewFakeGitRepo(root string) *FakeGitRepo {
	return &FakeGitRepo{
		root:    root,
		branch:  "main",
		changes: make(map[string][]string),
		behind:  make(map[string]bool),
	}
}

// SetError sets an error to be returned by all methods.
func (g *FakeGitRepo) SetError(err error) {
	g.err = err
}

// SetBranch sets the current branch.
func (g *FakeGitRepo) SetBranch(branch string) {
	g.branch = branch
}

// SetDirty sets the dirty working tree files.
func (g *FakeGitRepo) SetDirty(files ...string) {
	g.dirty = files
}

// AddTag records a tag and the files changed since it.
func (g *FakeGitRepo) AddTag(tag string, changedSince ...string) {
	g.tags = append(g.tags, tag)
	g.changes[tag] = changedSince
}

// SetBehind marks remote/branch as ahead of (true) or level with (false) the
// local branch. Remote branches never set report ErrNoUpstream.
func (g *FakeGitRepo) SetBehind(remote, branch string, behind bool) {
	g.behind[remote+"/"+branch] = behind
}

// Discover returns the predetermined root.
func (g *FakeGitRepo) Discover(cwd string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.root, nil
}

// RelPath computes the relative path (works like real implementation).
func (g *FakeGitRepo) RelPath(root, absPath string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return relPath(root, absPath)
}

// DirtyFiles returns the files set by SetDirty.
func (g *FakeGitRepo) DirtyFiles(root string) ([]string, error) {
	if g.err != nil {
		return nil, g.err
	}
	return append([]string(nil), g.dirty...), nil
}

// ChangedPathsSince returns the files recorded with AddTag.
func (g *FakeGitRepo) ChangedPathsSince(root, ref string) ([]string, error) {
	if g.err != nil {
		return nil, g.err
	}
	files, ok := g.changes[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRef, ref)
	}
	out := append([]string(nil), files...)
	sort.Strings(out)
	return out, nil
}

// CurrentBranch returns the branch set by SetBranch.
func (g *FakeGitRepo) CurrentBranch(root string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.branch, nil
}

// IsBehind returns the state set by SetBehind.
func (g *FakeGitRepo) IsBehind(root, remote, branch string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	behind, ok := g.behind[remote+"/"+branch]
	if !ok {
		return false, fmt.Errorf("%w: %s/%s", ErrNoUpstream, remote, branch)
	}
	return behind, nil
}

// TagExists reports whether the tag was added.
func (g *FakeGitRepo) TagExists(root, tag string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	_, ok := g.changes[tag]
	return ok, nil
}

// LastTag returns the most recently added tag matching pattern.
func (g *FakeGitRepo) LastTag(root, pattern string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	for i := len(g.tags) - 1; i >= 0; i-- {
		if ok, _ := path.Match(pattern, g.tags[i]); ok {
			return g.tags[i], nil
		}
	}
	return "", nil
}
