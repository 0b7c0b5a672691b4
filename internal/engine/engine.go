// Package engine provides the release planning workflow behind the CLI.
//
// The engine package acts as the orchestration layer between CLI commands and
// the planning core. It discovers the workspace, resolves settings for every
// selected package, finds previous release tags, runs change detection,
// assembles the plan and runs the pre-flight verifications.
//
// Key components:
//   - Engine: Main orchestrator holding the external capabilities
//   - Plan: Assembles a release plan and verifies it
//   - Changes: Reports changes since each package's last release
//   - Config: Resolves the layered settings of one package
package engine

import (
	"fmt"
	"time"

	"github.com/danieljhkim/monorel/internal/clock"
	"github.com/danieljhkim/monorel/internal/config"
	"github.com/danieljhkim/monorel/internal/fsops"
	"github.com/danieljhkim/monorel/internal/gitx"
	"github.com/danieljhkim/monorel/internal/hash"
	"github.com/danieljhkim/monorel/internal/registry"
	"github.com/danieljhkim/monorel/internal/workspace"
)

// RegistryOpener returns the registry for a configured registry name.
// A nil Registry disables registry checks for that name.
type RegistryOpener func(name string) registry.Registry

// Engine orchestrates all monorel operations.
// It is the main API surface called by the CLI.
type Engine struct {
	gitRepo      gitx.GitRepo
	openRegistry RegistryOpener
	fs           fsops.FS
	hasher       hash.Hasher
	clock        clock.Clock
	configPaths  config.Paths

	// publishGrace is recorded between successive publishes.
	publishGrace time.Duration
}

// New creates a new Engine with the given dependencies.
func New(
	gitRepo gitx.GitRepo,
	openRegistry RegistryOpener,
	fs fsops.FS,
	hasher hash.Hasher,
	clk clock.Clock,
	paths config.Paths,
	publishGrace time.Duration,
) *Engine {
	return &Engine{
		gitRepo:      gitRepo,
		openRegistry: openRegistry,
		fs:           fs,
		hasher:       hasher,
		clock:        clk,
		configPaths:  paths,
		publishGrace: publishGrace,
	}
}

// DiscoverWorkspace finds the repository root from cwd and loads the
// workspace rooted there.
func (e *Engine) DiscoverWorkspace(cwd string) (*workspace.Workspace, error) {
	root, err := e.gitRepo.Discover(cwd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotInRepo, err)
	}

	ws, err := workspace.Load(e.fs, root)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	return ws, nil
}

func (e *Engine) registry(name string) registry.Registry {
	if e.openRegistry == nil {
		return nil
	}
	return e.openRegistry(name)
}
