package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/danieljhkim/monorel/internal/config"
	"github.com/danieljhkim/monorel/internal/gitx"
	"github.com/danieljhkim/monorel/internal/planner"
	"github.com/danieljhkim/monorel/internal/replace"
	"github.com/danieljhkim/monorel/internal/version"
	"github.com/danieljhkim/monorel/internal/workspace"
)

// maxRegistryLookups bounds concurrent per-package checks.
const maxRegistryLookups = 4

// verifier runs the pre-flight checks for one plan. Nothing is modified.
type verifier struct {
	e          *Engine
	ws         *workspace.Workspace
	plan       *planner.ReleasePlan
	configs    map[string]*config.Resolved
	refs       map[string]string
	allowDirty bool
}

// run returns every finding for the releasing steps of the plan: workspace
// checks first, then package checks in step order. Collaborator failures
// of version control abort the run; registry failures become findings.
func (v *verifier) run(ctx context.Context) ([]Finding, error) {
	var steps []*planner.ReleaseStep
	for _, step := range v.plan.Releasing() {
		if cfg := v.configs[step.Package]; cfg != nil && cfg.Verify {
			steps = append(steps, step)
		}
	}
	if len(steps) == 0 {
		return nil, nil
	}

	findings, err := v.workspaceChecks(steps)
	if err != nil {
		return nil, err
	}

	perStep := make([][]Finding, len(steps))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxRegistryLookups)
	for i, step := range steps {
		i, step := i, step
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := v.packageChecks(step)
			if err != nil {
				return err
			}
			perStep[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, out := range perStep {
		findings = append(findings, out...)
	}
	return findings, nil
}

func (v *verifier) workspaceChecks(steps []*planner.ReleaseStep) ([]Finding, error) {
	var findings []Finding
	root := v.ws.Root
	git := v.e.gitRepo

	// Dirty tree
	dirty, err := git.DirtyFiles(root)
	if err != nil {
		return nil, fmt.Errorf("failed to check working tree: %w", err)
	}
	if len(dirty) > 0 {
		severity := SeverityError
		if v.allowDirty {
			severity = SeverityWarning
		}
		findings = append(findings, Finding{
			Check:    CheckDirtyTree,
			Severity: severity,
			Message:  fmt.Sprintf("uncommitted changes in %d file(s): %s", len(dirty), summarize(dirty, 5)),
		})
	}

	// Branch allow-list
	branch, err := git.CurrentBranch(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read current branch: %w", err)
	}
	for _, step := range steps {
		cfg := v.configs[step.Package]
		if !branchAllowed(branch, cfg.AllowBranch) {
			findings = append(findings, Finding{
				Check:    CheckBranch,
				Severity: SeverityError,
				Package:  step.Package,
				Message:  fmt.Sprintf("cannot release from branch %q (allow-branch: %s)", branch, strings.Join(cfg.AllowBranch, ", ")),
			})
		}
	}

	// Upstream
	if branch == "HEAD" {
		return findings, nil
	}
	var remotes []string
	for _, step := range steps {
		for _, a := range step.Actions {
			if a.Kind == planner.ActionPush && !slices.Contains(remotes, a.Remote) {
				remotes = append(remotes, a.Remote)
			}
		}
	}
	for _, remote := range remotes {
		behind, err := git.IsBehind(root, remote, branch)
		switch {
		case errors.Is(err, gitx.ErrNoUpstream):
			findings = append(findings, Finding{
				Check:    CheckUpstream,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("branch %q is not tracking %s/%s", branch, remote, branch),
			})
		case err != nil:
			return nil, fmt.Errorf("failed to compare with %s: %w", remote, err)
		case behind:
			findings = append(findings, Finding{
				Check:    CheckUpstream,
				Severity: SeverityError,
				Message:  fmt.Sprintf("branch %q is behind %s/%s", branch, remote, branch),
			})
		}
	}

	return findings, nil
}

func (v *verifier) packageChecks(step *planner.ReleaseStep) ([]Finding, error) {
	var findings []Finding
	add := func(check Check, severity Severity, format string, args ...any) {
		findings = append(findings, Finding{
			Check:    check,
			Severity: severity,
			Package:  step.Package,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	cfg := v.configs[step.Package]
	pkg, _ := v.ws.Package(step.Package)

	// Tag already exists
	for _, a := range step.Actions {
		if a.Kind != planner.ActionTag {
			continue
		}
		exists, err := v.e.gitRepo.TagExists(v.ws.Root, a.Tag)
		if err != nil {
			return nil, fmt.Errorf("failed to look up tag %s: %w", a.Tag, err)
		}
		if exists {
			add(CheckTagExists, SeverityError, "tag %s already exists", a.Tag)
		}
	}

	// Downgrade against the last release tag
	if ref := v.refs[step.Package]; ref != "" {
		if last, ok := taggedVersion(pkg, cfg, ref); ok && step.Next.Compare(last) <= 0 {
			add(CheckDowngrade, SeverityError, "planned version %s is not greater than %s released as %s", step.Next, last, ref)
		}
	}

	reg := v.e.registry(cfg.Registry)
	if reg == nil {
		return findings, nil
	}

	// Already published
	if step.Publishes() {
		published, err := reg.IsPublished(step.Package, step.Next)
		switch {
		case err != nil:
			add(CheckRegistry, SeverityWarning, "registry lookup failed: %v", err)
		case published:
			add(CheckPublished, SeverityError, "version %s is already published", step.Next)
		}
	}

	// Owners, reported only
	if len(cfg.Owners) > 0 {
		owners, err := reg.Owners(step.Package)
		if err != nil {
			add(CheckRegistry, SeverityWarning, "owner lookup failed: %v", err)
		} else if missing, extra := diffSets(cfg.Owners, owners); len(missing)+len(extra) > 0 {
			add(CheckOwners, SeverityWarning, "owners differ from configuration (missing: %s; unexpected: %s)",
				orNone(missing), orNone(extra))
		}
	}

	return findings, nil
}

// branchAllowed matches branch against gitignore-style patterns. The last
// matching pattern decides; '!' negates.
func branchAllowed(branch string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	return ignore.CompileIgnoreLines(patterns...).MatchesPath(branch)
}

// taggedVersion extracts the version from a tag rendered by the tag name
// template of pkg. It reports false when the template does not allow the
// version to be recovered.
func taggedVersion(pkg *workspace.Package, cfg *config.Resolved, tag string) (version.Version, bool) {
	const marker = "\x00"
	vars := replace.Vars{Version: marker, NextVersion: marker, PackageName: pkg.Name}
	vars.Prefix = replace.RenderTemplate(cfg.TagPrefix, vars)
	parts := strings.Split(replace.RenderTemplate(cfg.TagName, vars), marker)
	if len(parts) != 2 {
		return version.Version{}, false
	}

	before, after := parts[0], parts[1]
	if len(tag) < len(before)+len(after) || !strings.HasPrefix(tag, before) || !strings.HasSuffix(tag, after) {
		return version.Version{}, false
	}
	v, err := version.Parse(tag[len(before) : len(tag)-len(after)])
	if err != nil {
		return version.Version{}, false
	}
	return v, true
}

// diffSets returns the entries of want missing from got and the entries of
// got not in want.
func diffSets(want, got []string) (missing, extra []string) {
	for _, w := range want {
		if !slices.Contains(got, w) {
			missing = append(missing, w)
		}
	}
	for _, g := range got {
		if !slices.Contains(want, g) {
			extra = append(extra, g)
		}
	}
	return missing, extra
}

func orNone(s []string) string {
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, ", ")
}

func summarize(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(items[:limit], ", "), len(items)-limit)
}
