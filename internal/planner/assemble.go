package planner

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danieljhkim/monorel/internal/changes"
	"github.com/danieljhkim/monorel/internal/config"
	"github.com/danieljhkim/monorel/internal/fsops"
	"github.com/danieljhkim/monorel/internal/hash"
	"github.com/danieljhkim/monorel/internal/replace"
	"github.com/danieljhkim/monorel/internal/version"
	"github.com/danieljhkim/monorel/internal/workspace"
)

// ConsolidatedCommitMessage heads the commit shared by consolidated steps.
const ConsolidatedCommitMessage = "chore: Release"

// ConsolidatedGroupKey is the GroupKey of steps sharing the consolidated commit.
const ConsolidatedGroupKey = "consolidated"

// Skip reasons.
const (
	SkipReleaseDisabled = "release disabled by configuration"
	SkipNotReleasable   = "package is not releasable"
)

// Input is everything Assemble reads. Nothing in it is modified.
type Input struct {
	Workspace *workspace.Workspace
	Selection []string
	Intent    version.Intent

	// Metadata is the build metadata supplied at invocation, "" for none.
	Metadata string

	// Configs holds the resolved settings of every selected package.
	Configs map[string]*config.Resolved

	// Changes holds change detection results. Packages without a result
	// are treated as changed.
	Changes map[string]changes.Result

	// Force plans every package regardless of change detection; Forced
	// does the same for the named packages only.
	Force  bool
	Forced []string

	// FS reads replacement targets.
	FS     fsops.FS
	Hasher hash.Hasher

	// Date renders {{date}}.
	Date string

	// PublishGrace is the wait between successive publishes.
	PublishGrace time.Duration
}

type assembler struct {
	in    Input
	plan  *ReleasePlan
	steps map[string]*ReleaseStep

	// planned holds every computed next version, including those of steps
	// skipped as unchanged.
	planned   map[string]version.Version
	unchanged map[string]bool
	forced    map[string]bool
}

// Assemble builds the release plan. When one or more packages fail, the
// plan is returned together with a *PlanError listing every problem. Fatal
// problems (a dependency cycle, a shared-version conflict) return a nil plan.
func Assemble(ctx context.Context, in Input) (*ReleasePlan, error) {
	if in.Hasher == nil {
		in.Hasher = hash.NewSHA256Hasher()
	}
	if in.FS == nil {
		in.FS = fsops.NewRealFS()
	}

	g := in.Workspace.Graph()
	groups, err := g.Order(in.Selection)
	if err != nil {
		return nil, fatal(err)
	}

	a := &assembler{
		in:        in,
		plan:      NewReleasePlan(in.Intent.String()),
		steps:     make(map[string]*ReleaseStep),
		planned:   make(map[string]version.Version),
		unchanged: make(map[string]bool),
		forced:    make(map[string]bool),
	}
	a.plan.Groups = groups
	for _, name := range in.Forced {
		a.forced[name] = true
	}

	for gi, group := range groups {
		for _, name := range group {
			step := a.newStep(name, gi)
			a.plan.Steps = append(a.plan.Steps, step)
			a.steps[name] = step
		}
	}

	for _, step := range a.plan.Steps {
		a.decideVersion(step)
	}
	if err := a.unifySharedGroups(); err != nil {
		return nil, fatal(err)
	}
	a.blockDependents()

	for _, group := range groups {
		eg, gctx := errgroup.WithContext(ctx)
		for _, name := range group {
			step := a.steps[name]
			if !step.Releasing() {
				continue
			}
			eg.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				a.planStep(step)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	a.recordDependents()
	a.blockDependents()
	a.applyPublishGrace()
	a.consolidateCommit()

	var problems []Problem
	for _, step := range a.plan.Steps {
		if step.Err != nil {
			problems = append(problems, Problem{Package: step.Package, Err: step.Err})
		}
	}
	if len(problems) > 0 {
		return a.plan, &PlanError{Problems: problems}
	}
	return a.plan, nil
}

func (a *assembler) newStep(name string, group int) *ReleaseStep {
	step := &ReleaseStep{Package: name, Group: group, GroupKey: name}
	pkg, ok := a.in.Workspace.Package(name)
	if !ok {
		step.Err = fmt.Errorf("%w: %s", workspace.ErrUnknownPackage, name)
		return step
	}
	step.Prev = pkg.Version
	step.Next = pkg.Version

	cfg := a.in.Configs[name]
	if cfg == nil {
		step.Err = fmt.Errorf("%w for %s", ErrMissingConfig, name)
		return step
	}
	step.SharedGroup = cfg.SharedVersion
	if cfg.ConsolidateCommits {
		step.GroupKey = ConsolidatedGroupKey
	}
	return step
}

// decideVersion applies skip rules and computes the next version.
func (a *assembler) decideVersion(step *ReleaseStep) {
	if step.Err != nil {
		return
	}
	pkg, _ := a.in.Workspace.Package(step.Package)
	cfg := a.in.Configs[step.Package]

	if !cfg.Release {
		step.SkipReason = SkipReleaseDisabled
		return
	}
	if !pkg.Publish {
		step.SkipReason = SkipNotReleasable
		return
	}

	metadata := a.in.Metadata
	switch cfg.Metadata {
	case config.MetadataRequired:
		if metadata == "" {
			step.Err = ErrMetadataRequired
			return
		}
	case config.MetadataIgnore:
		metadata = ""
	}

	next, err := version.Next(pkg.Version, a.in.Intent, metadata)
	if err != nil {
		step.Err = err
		return
	}
	a.planned[step.Package] = next

	if res, ok := a.in.Changes[step.Package]; ok {
		step.Change = &res
		if !res.Changed && !a.in.Force && !a.forced[step.Package] {
			a.unchanged[step.Package] = true
			step.SkipReason = unchangedReason(res.Ref)
			return
		}
	}
	step.Next = next
}

func unchangedReason(ref string) string {
	return fmt.Sprintf("no changes since %s", ref)
}

// unifySharedGroups brings every shared-version group to one version.
// A group with at least one releasing member releases all members that
// were skipped only for being unchanged.
func (a *assembler) unifySharedGroups() error {
	members := make(map[string][]*ReleaseStep)
	var names []string
	for _, step := range a.plan.Steps {
		if step.SharedGroup == "" {
			continue
		}
		if _, ok := members[step.SharedGroup]; !ok {
			names = append(names, step.SharedGroup)
		}
		members[step.SharedGroup] = append(members[step.SharedGroup], step)
	}
	sort.Strings(names)

	for _, group := range names {
		var active []*ReleaseStep
		var failed *ReleaseStep
		for _, step := range members[group] {
			switch {
			case step.Err != nil:
				if failed == nil {
					failed = step
				}
				active = append(active, step)
			case !step.Skipped(), a.unchanged[step.Package]:
				active = append(active, step)
			}
		}

		releasing := false
		for _, step := range active {
			if step.Err != nil || !step.Skipped() {
				releasing = true
			}
		}
		if !releasing {
			continue
		}

		if failed != nil {
			for _, step := range active {
				if step.Err == nil {
					step.SkipReason = ""
					step.Err = fmt.Errorf("%w: shared version group %q member %s failed", ErrBlocked, group, failed.Package)
				}
			}
			continue
		}

		planned := make(map[string]version.Version, len(active))
		for _, step := range active {
			planned[step.Package] = a.planned[step.Package]
		}
		max, err := unifyShared(group, planned)
		if err != nil {
			return err
		}
		for _, step := range active {
			if a.unchanged[step.Package] {
				step.SkipReason = ""
				delete(a.unchanged, step.Package)
			}
			step.Next = max
		}
	}
	return nil
}

// blockDependents marks steps whose in-plan dependencies failed. Steps are
// visited in plan order so blocking is transitive.
func (a *assembler) blockDependents() {
	g := a.in.Workspace.Graph()
	for _, step := range a.plan.Steps {
		if step.Err != nil {
			continue
		}
		for _, dep := range g.Dependencies(step.Package) {
			if ds, ok := a.steps[dep]; ok && ds.Err != nil {
				step.SkipReason = ""
				step.Err = fmt.Errorf("%w: %s", ErrBlocked, dep)
				break
			}
		}
	}
}

// planStep fills edits and actions for a releasing step. It writes only to
// step.
func (a *assembler) planStep(step *ReleaseStep) {
	pkg, _ := a.in.Workspace.Package(step.Package)
	cfg := a.in.Configs[step.Package]
	vars := a.vars(pkg, cfg, step)

	if cfg.Tag {
		step.Tag = vars.TagName
	}

	if pkg.VersionSpan.Valid() {
		old := string(pkg.Manifest[pkg.VersionSpan.Start:pkg.VersionSpan.End])
		if next := step.Next.String(); old != next {
			step.Edits = append(step.Edits, TextEdit{
				File:     a.rel(pkg.ManifestPath),
				Kind:     EditRange,
				Start:    pkg.VersionSpan.Start,
				End:      pkg.VersionSpan.End,
				Line:     pkg.VersionSpan.Line,
				Old:      old,
				New:      next,
				BaseHash: a.in.Hasher.HashBytes(pkg.Manifest),
			})
		}
	}

	edits, err := a.replacementEdits(pkg, cfg, vars, step.Next.IsPrerelease())
	if err != nil {
		step.Err = err
		return
	}
	step.Edits = append(step.Edits, edits...)

	step.Actions = a.actions(pkg, cfg, vars, step)
}

func (a *assembler) replacementEdits(pkg *workspace.Package, cfg *config.Resolved, vars replace.Vars, prerelease bool) ([]TextEdit, error) {
	if len(cfg.PreReleaseReplacements) == 0 {
		return nil, nil
	}
	targets, err := replace.Targets(a.in.FS, pkg.Dir, cfg.PreReleaseReplacements)
	if err != nil {
		return nil, err
	}

	var edits []TextEdit
	for _, t := range targets {
		content, err := a.in.FS.ReadFile(t.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", t.Path, err)
		}
		file := a.rel(t.Path)
		res, err := replace.ApplyFile(file, string(content), t.Rules, vars, prerelease)
		if err != nil {
			return nil, err
		}
		if !res.Changed(string(content)) {
			continue
		}
		base := a.in.Hasher.HashBytes(content)
		for _, applied := range res.Applied {
			if applied.Skipped || applied.Count == 0 {
				continue
			}
			edits = append(edits, TextEdit{
				File:        file,
				Kind:        EditPattern,
				Pattern:     applied.Rule.Search,
				New:         applied.Template,
				Occurrences: applied.Count,
				BaseHash:    base,
			})
		}
	}
	return edits, nil
}

func (a *assembler) actions(pkg *workspace.Package, cfg *config.Resolved, vars replace.Vars, step *ReleaseStep) []Action {
	var out []Action
	if len(cfg.PreReleaseHook) > 0 {
		args := make([]string, len(cfg.PreReleaseHook))
		for i, arg := range cfg.PreReleaseHook {
			args[i] = replace.RenderTemplate(arg, vars)
		}
		out = append(out, Action{Kind: ActionHook, Args: args})
	}
	if !cfg.ConsolidateCommits {
		out = append(out, Action{
			Kind:    ActionCommit,
			Message: replace.RenderTemplate(cfg.PreReleaseCommitMessage, vars),
			Sign:    cfg.SignCommit,
		})
	}
	if cfg.Publish && pkg.Publish {
		out = append(out, Action{Kind: ActionPublish, Registry: cfg.Registry})
	}
	if step.Tag != "" {
		out = append(out, Action{
			Kind:    ActionTag,
			Tag:     step.Tag,
			Message: replace.RenderTemplate(cfg.TagMessage, vars),
			Sign:    cfg.SignTag,
		})
	}
	if cfg.Push {
		out = append(out, Action{Kind: ActionPush, Remote: cfg.PushRemote, Options: append([]string(nil), cfg.PushOptions...)})
	}
	return out
}

// vars builds the template values for step.
func (a *assembler) vars(pkg *workspace.Package, cfg *config.Resolved, step *ReleaseStep) replace.Vars {
	return TemplateVars(pkg, cfg, step.Prev, step.Next, a.in.Date)
}

// TemplateVars builds the template values for releasing pkg from prev to
// next. The tag prefix and tag name are themselves rendered from their
// templates.
func TemplateVars(pkg *workspace.Package, cfg *config.Resolved, prev, next version.Version, date string) replace.Vars {
	v := replace.Vars{
		Version:      next.String(),
		PrevVersion:  prev.String(),
		Metadata:     next.Metadata(),
		PrevMetadata: prev.Metadata(),
		Date:         date,
		PackageName:  pkg.Name,
		NextVersion:  next.String(),
	}
	v.Prefix = replace.RenderTemplate(cfg.TagPrefix, v)
	v.TagName = replace.RenderTemplate(cfg.TagName, v)
	return v
}

// TagPattern renders the tag template of pkg with every version dependent
// placeholder replaced by a glob wildcard.
func TagPattern(pkg *workspace.Package, cfg *config.Resolved) string {
	v := replace.Vars{
		Version:      "*",
		PrevVersion:  "*",
		Metadata:     "*",
		PrevMetadata: "*",
		Date:         "*",
		PackageName:  pkg.Name,
		NextVersion:  "*",
	}
	v.Prefix = replace.RenderTemplate(cfg.TagPrefix, v)
	return replace.RenderTemplate(cfg.TagName, v)
}

// applyPublishGrace records the wait before every publish after the first.
func (a *assembler) applyPublishGrace() {
	if a.in.PublishGrace <= 0 {
		return
	}
	first := true
	for _, step := range a.plan.Steps {
		if !step.Releasing() || !step.Publishes() {
			continue
		}
		if !first {
			step.PublishWait = a.in.PublishGrace
		}
		first = false
	}
}

// consolidateCommit records the single commit of consolidated steps.
func (a *assembler) consolidateCommit() {
	var lines []string
	sign := false
	for _, step := range a.plan.Steps {
		if !step.Releasing() || step.GroupKey != ConsolidatedGroupKey {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s %s", step.Package, step.Next))
		sign = sign || a.in.Configs[step.Package].SignCommit
	}
	if len(lines) == 0 {
		return
	}
	a.plan.Commit = &Action{
		Kind:    ActionCommit,
		Message: ConsolidatedCommitMessage + "\n\n" + strings.Join(lines, "\n"),
		Sign:    sign,
	}
}

func (a *assembler) rel(path string) string {
	rel, err := filepath.Rel(a.in.Workspace.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
