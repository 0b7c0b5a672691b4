package planner

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/monorel/internal/config"
	"github.com/danieljhkim/monorel/internal/version"
	"github.com/danieljhkim/monorel/internal/workspace"
)

// recordDependents records requirement edits in every workspace manifest
// that depends on a releasing package. Steps are visited sequentially in
// plan order; the bumped package's dependent-version policy applies.
func (a *assembler) recordDependents() {
	for _, step := range a.plan.Steps {
		if !step.Releasing() {
			continue
		}
		cfg := a.in.Configs[step.Package]
		if cfg.DependentVersion == config.DependentIgnore {
			continue
		}
	dependents:
		for _, dependent := range a.in.Workspace.Packages {
			for _, dep := range dependent.Dependencies {
				if dep.Name != step.Package || dep.Req == "" || !dep.ReqSpan.Valid() {
					continue
				}
				a.dependentEdit(step, cfg, dependent, dep)
				if step.Err != nil {
					break dependents
				}
			}
		}
	}
}

func (a *assembler) dependentEdit(step *ReleaseStep, cfg *config.Resolved, dependent *workspace.Package, dep workspace.Dependency) {
	policy := cfg.DependentVersion
	where := fmt.Sprintf("%s requires %s %q", dependent.Name, dep.Name, dep.Req)

	var newReq string
	switch policy {
	case config.DependentUpgrade:
		req, changed, err := version.UpgradeRequirement(dep.Req, step.Next)
		if err != nil {
			a.note(step.Package, where, err)
			return
		}
		if !changed {
			return
		}
		newReq = req

	case config.DependentFix, config.DependentWarn, config.DependentError:
		ok, err := version.Matches(dep.Req, step.Next)
		if err != nil {
			a.note(step.Package, where, err)
			return
		}
		if ok {
			return
		}
		switch policy {
		case config.DependentWarn:
			a.plan.AddNote(step.Package, fmt.Sprintf("%s, which %s does not satisfy", where, step.Next))
			return
		case config.DependentError:
			step.Err = fmt.Errorf("%w: %s, which %s does not satisfy", ErrDependentMismatch, where, step.Next)
			return
		}
		req, changed, err := version.UpgradeRequirement(dep.Req, step.Next)
		if err != nil {
			a.note(step.Package, where, err)
			return
		}
		if !changed {
			return
		}
		newReq = req

	default:
		return
	}

	target := step
	if !cfg.BatchDependentEdits {
		if own, ok := a.steps[dependent.Name]; ok && own.Releasing() {
			target = own
		}
	}

	target.Edits = append(target.Edits, TextEdit{
		File:     a.rel(dependent.ManifestPath),
		Kind:     EditRange,
		Start:    dep.ReqSpan.Start,
		End:      dep.ReqSpan.End,
		Line:     dep.ReqSpan.Line,
		Old:      string(dependent.Manifest[dep.ReqSpan.Start:dep.ReqSpan.End]),
		New:      newReq,
		BaseHash: a.in.Hasher.HashBytes(dependent.Manifest),
	})
}

func (a *assembler) note(pkg, where string, err error) {
	if errors.Is(err, version.ErrUnsupportedRequirement) {
		a.plan.AddNote(pkg, fmt.Sprintf("%s: left unchanged, unsupported requirement", where))
		return
	}
	a.plan.AddNote(pkg, fmt.Sprintf("%s: %v", where, err))
}
