package engine

import (
	"context"
	"fmt"

	"github.com/danieljhkim/monorel/internal/changes"
	"github.com/danieljhkim/monorel/internal/graph"
)

// Changes reports, per selected package, the files changed since its last
// release and the reason it counts as changed.
// Algorithm steps:
// 1. Discover the workspace and resolve the selection
// 2. Resolve settings to render each package's tag names
// 3. Locate last release tags and run change detection
// 4. Return results in release order
func (e *Engine) Changes(ctx context.Context, req *ChangesRequest) (*ChangesResult, error) {
	// Step 1: Workspace and selection
	ws, err := e.DiscoverWorkspace(req.CWD)
	if err != nil {
		return nil, err
	}
	selected, err := selectPackages(ws, req.CWD, req.Selection)
	if err != nil {
		return nil, err
	}

	// Step 2: Settings
	loader, err := e.newConfigLoader(ws, req.Config, req.CWD)
	if err != nil {
		return nil, err
	}
	configs, err := loader.resolveAll(selected)
	if err != nil {
		return nil, err
	}

	// Step 3: Detection
	detector := changes.NewDetector(e.gitRepo, ws)
	refs, err := e.lastReleaseRefs(detector, ws, selected, configs, req.PrevTagName)
	if err != nil {
		return nil, err
	}
	order, err := ws.Graph().Order(selected)
	if err != nil {
		return nil, fmt.Errorf("failed to order packages: %w", err)
	}
	detected, err := detector.DetectAll(order, ws.Graph(), refs)
	if err != nil {
		return nil, err
	}

	// Step 4: Release order
	result := &ChangesResult{Root: ws.Root, Packages: []changes.Result{}}
	for _, name := range graph.Flatten(order) {
		result.Packages = append(result.Packages, detected[name])
	}
	return result, nil
}
