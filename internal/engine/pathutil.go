package engine

import (
	"fmt"
	"path/filepath"
	"strings"
)

// absPath resolves a user-provided path against cwd.
func absPath(userPath, cwd string) string {
	if filepath.IsAbs(userPath) {
		return filepath.Clean(userPath)
	}
	return filepath.Join(cwd, userPath)
}

// resolveToRepoRelative resolves a user-provided path (absolute, relative, or containing "..")
// to a clean slash-separated repo-root-relative path. The repo root itself resolves to ".".
// Paths that escape the repo boundary are rejected.
func resolveToRepoRelative(userPath, cwd, repoRoot string) (string, error) {
	abs := absPath(userPath, cwd)

	relPath, err := filepath.Rel(filepath.Clean(repoRoot), abs)
	if err != nil {
		return "", fmt.Errorf("failed to compute repo-relative path for %q: %w", userPath, err)
	}

	// Reject paths outside the repo
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q resolves to %q which is outside the repository", userPath, abs)
	}

	return filepath.ToSlash(relPath), nil
}

// within reports whether the slash path rel is dir or lies below it.
func within(rel, dir string) bool {
	if dir == "." {
		return true
	}
	return rel == dir || strings.HasPrefix(rel, dir+"/")
}
