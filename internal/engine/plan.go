package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/danieljhkim/monorel/internal/changes"
	"github.com/danieljhkim/monorel/internal/clock"
	"github.com/danieljhkim/monorel/internal/config"
	"github.com/danieljhkim/monorel/internal/graph"
	"github.com/danieljhkim/monorel/internal/planner"
	"github.com/danieljhkim/monorel/internal/version"
	"github.com/danieljhkim/monorel/internal/workspace"
)

// Plan assembles a release plan and verifies it.
// Algorithm steps:
// 1. Parse the intent and discover the workspace
// 2. Resolve the package selection
// 3. Resolve settings, adding unpublished members and the remaining
//    members of touched shared version groups to the selection
// 4. Locate the last release tag of every selected package
// 5. Detect changes in release order
// 6. Assemble the plan
// 7. Run the pre-flight verifications against the releasing steps
//
// When the plan has per-package problems, the result is returned together
// with the *planner.PlanError so callers can still render it.
func (e *Engine) Plan(ctx context.Context, req *PlanRequest) (*PlanResult, error) {
	// Step 1: Parse intent, discover workspace
	intent, err := version.ParseIntent(req.Intent)
	if err != nil {
		return nil, err
	}
	ws, err := e.DiscoverWorkspace(req.CWD)
	if err != nil {
		return nil, err
	}

	// Step 2: Selection
	selected, err := selectPackages(ws, req.CWD, req.Selection)
	if err != nil {
		return nil, err
	}

	// Step 3: Settings
	loader, err := e.newConfigLoader(ws, req.Config, req.CWD)
	if err != nil {
		return nil, err
	}
	unpublished, notes, err := e.addUnpublished(loader, selected, req.Selection.Exclude)
	if err != nil {
		return nil, err
	}
	selected = append(selected, unpublished...)

	shared, sharedNotes, err := loader.addSharedMembers(selected)
	if err != nil {
		return nil, err
	}
	selected = append(selected, shared...)
	notes = append(notes, sharedNotes...)
	sort.Strings(selected)

	configs, err := loader.resolveAll(selected)
	if err != nil {
		return nil, err
	}

	// Step 4: Last release tags
	detector := changes.NewDetector(e.gitRepo, ws)
	refs, err := e.lastReleaseRefs(detector, ws, selected, configs, req.PrevTagName)
	if err != nil {
		return nil, err
	}

	// Step 5: Change detection
	detected, err := e.detect(detector, ws, selected, refs)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 6: Assemble
	forced := append([]string(nil), req.Forced...)
	forced = append(forced, req.Selection.Packages...)
	forced = append(forced, unpublished...)

	plan, planErr := planner.Assemble(ctx, planner.Input{
		Workspace:    ws,
		Selection:    selected,
		Intent:       intent,
		Metadata:     req.Metadata,
		Configs:      configs,
		Changes:      detected,
		Force:        req.Force,
		Forced:       forced,
		FS:           e.fs,
		Hasher:       e.hasher,
		Date:         clock.Date(e.clock),
		PublishGrace: e.publishGrace,
	})
	if plan == nil {
		return nil, planErr
	}
	for _, n := range notes {
		plan.AddNote(n.Package, n.Message)
	}

	// Step 7: Verify
	v := &verifier{e: e, ws: ws, plan: plan, configs: configs, refs: refs, allowDirty: req.AllowDirty}
	findings, err := v.run(ctx)
	if err != nil {
		return nil, err
	}

	return &PlanResult{
		Root:     ws.Root,
		Plan:     plan,
		Findings: findings,
		Refs:     refs,
	}, planErr
}

// lastReleaseRefs finds the previous release tag of every selected
// package. An explicit prevTag applies to every package.
func (e *Engine) lastReleaseRefs(d *changes.Detector, ws *workspace.Workspace, selected []string, configs map[string]*config.Resolved, prevTag string) (map[string]string, error) {
	refs := make(map[string]string, len(selected))
	for _, name := range selected {
		if prevTag != "" {
			refs[name] = prevTag
			continue
		}

		pkg, _ := ws.Package(name)
		cfg := configs[name]
		exact := planner.TemplateVars(pkg, cfg, pkg.Version, pkg.Version, clock.Date(e.clock)).TagName
		ref, err := d.LastReleaseRef(exact, planner.TagPattern(pkg, cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to find last release of %s: %w", name, err)
		}
		if ref != "" {
			refs[name] = ref
		}
	}
	return refs, nil
}

// detect runs change detection over the selection in release order. A
// dependency cycle is left for the planner to report.
func (e *Engine) detect(d *changes.Detector, ws *workspace.Workspace, selected []string, refs map[string]string) (map[string]changes.Result, error) {
	g := ws.Graph()
	order, err := g.Order(selected)
	if err != nil {
		if errors.Is(err, graph.ErrCycleDetected) {
			return nil, nil
		}
		return nil, err
	}
	return d.DetectAll(order, g, refs)
}
