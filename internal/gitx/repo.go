// Package gitx wraps the version-control queries monorel needs to plan a
// release: change detection since a tag, tag lookup, and the pre-flight
// checks on branch and working tree state.
//
// RealGitRepo shells out to git; FakeGitRepo serves canned answers for tests.
package gitx

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrNotRepository indicates the directory is not inside a git work tree.
	ErrNotRepository = errors.New("not in a git repository")

	// ErrNoUpstream indicates the branch has no remote tracking branch.
	ErrNoUpstream = errors.New("branch has no upstream")

	// ErrUnknownRef indicates a ref (usually a tag) does not resolve.
	ErrUnknownRef = errors.New("unknown ref")
)

// GitRepo provides an abstraction for git repository operations. Paths are
// reported relative to root using forward slashes.
type GitRepo interface {
	// Discover finds the git repository root starting from cwd.
	Discover(cwd string) (root string, err error)

	// RelPath computes the relative path from repo root to the given absolute path.
	RelPath(root, absPath string) (string, error)

	// DirtyFiles lists modified, staged and untracked files.
	DirtyFiles(root string) ([]string, error)

	// ChangedPathsSince lists files changed between ref and HEAD.
	ChangedPathsSince(root, ref string) ([]string, error)

	// CurrentBranch returns the checked-out branch, or "HEAD" when detached.
	CurrentBranch(root string) (string, error)

	// IsBehind reports whether remote/branch has commits not in branch.
	// It returns ErrNoUpstream when remote/branch does not exist.
	IsBehind(root, remote, branch string) (bool, error)

	// TagExists reports whether the tag exists.
	TagExists(root, tag string) (bool, error)

	// LastTag returns the newest tag on the first-parent history of HEAD
	// matching the glob pattern, or "" when none matches.
	LastTag(root, pattern string) (string, error)
}

// RealGitRepo implements GitRepo using actual git commands.
type RealGitRepo struct{}

// NewRealGitRepo creates a new RealGitRepo.
func NewRealGitRepo() *RealGitRepo {
	return &RealGitRepo{}
}

// Discover finds the git repository root by walking up from cwd looking for .git.
func (g *RealGitRepo) Discover(cwd string) (string, error) {
	absPath, err := filepath.Abs(cwd)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	current := absPath
	for {
		gitDir := filepath.Join(current, ".git")
		if info, err := os.Stat(gitDir); err == nil {
			// .git can be a directory or a file (for worktrees/submodules)
			if info.IsDir() || info.Mode().IsRegular() {
				return current, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", ErrNotRepository
		}
		current = parent
	}
}

// RelPath computes the relative path from repo root to the given absolute path.
func (g *RealGitRepo) RelPath(root, absPath string) (string, error) {
	return relPath(root, absPath)
}

// DirtyFiles lists changes to tracked files against HEAD plus untracked files.
func (g *RealGitRepo) DirtyFiles(root string) ([]string, error) {
	out, err := g.git(root, "status", "--porcelain", "--untracked-files=normal", "--", ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read working tree status: %w", err)
	}

	var files []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		path := line[3:]
		if _, to, ok := strings.Cut(path, " -> "); ok {
			path = to
		}
		files = append(files, strings.Trim(path, `"`))
	}
	sort.Strings(files)
	return files, nil
}

// ChangedPathsSince lists files changed in commits between ref and HEAD,
// relative to root.
func (g *RealGitRepo) ChangedPathsSince(root, ref string) ([]string, error) {
	if _, err := g.git(root, "rev-parse", "--verify", "--quiet", ref+"^{commit}"); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRef, ref)
	}

	out, err := g.git(root, "diff", "--name-only", "--relative", ref+"..HEAD", "--", ".")
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s..HEAD: %w", ref, err)
	}
	return splitLines(out), nil
}

// CurrentBranch returns the short name of HEAD.
func (g *RealGitRepo) CurrentBranch(root string) (string, error) {
	out, err := g.git(root, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to read current branch: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// IsBehind compares the local branch with its remote counterpart through
// their merge base. No fetch is performed.
func (g *RealGitRepo) IsBehind(root, remote, branch string) (bool, error) {
	remoteRef := remote + "/" + branch
	upstream, err := g.git(root, "rev-parse", "--verify", "--quiet", remoteRef)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrNoUpstream, remoteRef)
	}

	base, err := g.git(root, "merge-base", remoteRef, branch)
	if err != nil {
		return false, fmt.Errorf("failed to compute merge base of %s and %s: %w", remoteRef, branch, err)
	}
	return strings.TrimSpace(base) != strings.TrimSpace(upstream), nil
}

// TagExists reports whether refs/tags/<tag> exists.
func (g *RealGitRepo) TagExists(root, tag string) (bool, error) {
	cmd := exec.Command("git", "rev-parse", "--verify", "--quiet", "refs/tags/"+tag)
	cmd.Dir = root
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up tag %s: %w", tag, err)
	}
	return true, nil
}

// LastTag uses git describe restricted to the first-parent history.
func (g *RealGitRepo) LastTag(root, pattern string) (string, error) {
	cmd := exec.Command("git", "describe", "--tags", "--abbrev=0", "--first-parent", "--match", pattern, "HEAD")
	cmd.Dir = root
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// No matching tag, or no commits yet.
			return "", nil
		}
		return "", fmt.Errorf("failed to describe HEAD: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (g *RealGitRepo) git(root string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", err
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return stdout.String(), nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	sort.Strings(out)
	return out
}

func relPath(root, absPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute root: %w", err)
	}

	absTarget, err := filepath.Abs(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute target: %w", err)
	}

	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path is outside repository")
	}

	return filepath.ToSlash(rel), nil
}
