package engine

import (
	"fmt"

	"github.com/danieljhkim/monorel/internal/planner"
	"github.com/danieljhkim/monorel/internal/workspace"
)

// selectPackages resolves a selection against ws. Explicit names win;
// otherwise --workspace selects every member; otherwise the package
// containing cwd is selected. From the root of a workspace whose root
// manifest is not itself a package, every member is selected.
func selectPackages(ws *workspace.Workspace, cwd string, sel Selection) ([]string, error) {
	names := sel.Packages
	if len(names) == 0 && !sel.Workspace {
		current, err := currentPackage(ws, cwd)
		if err != nil {
			return nil, err
		}
		if current != nil {
			names = []string{current.Name}
		}
	}

	selected, err := ws.Select(names, sel.Exclude)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, ErrNoPackages
	}
	return selected, nil
}

// currentPackage returns the member whose directory most closely contains
// cwd, or nil when cwd lies in no member directory.
func currentPackage(ws *workspace.Workspace, cwd string) (*workspace.Package, error) {
	rel, err := resolveToRepoRelative(".", cwd, ws.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to locate current directory: %w", err)
	}

	var best *workspace.Package
	for _, pkg := range ws.Packages {
		if !within(rel, pkg.RelDir) {
			continue
		}
		if best == nil || len(pkg.RelDir) > len(best.RelDir) || best.RelDir == "." {
			best = pkg
		}
	}
	return best, nil
}

// addUnpublished returns the unselected members whose current version is
// missing from their registry. Such members are released with the
// selection. Members named in exclude, members with release or publish
// disabled, and members whose registry cannot be consulted are left out.
func (e *Engine) addUnpublished(l *configLoader, selected, exclude []string) ([]string, []planner.Note, error) {
	skip := nameSet(selected)
	for _, name := range exclude {
		skip[name] = true
	}

	var added []string
	var notes []planner.Note
	for _, pkg := range l.ws.Packages {
		if skip[pkg.Name] || !pkg.Publish {
			continue
		}
		cfg, err := l.resolveNamed(pkg.Name)
		if err != nil {
			return nil, nil, err
		}
		if !cfg.Release || !cfg.Publish {
			continue
		}
		reg := e.registry(cfg.Registry)
		if reg == nil {
			continue
		}
		published, err := reg.IsPublished(pkg.Name, pkg.Version)
		if err != nil || published {
			continue
		}
		added = append(added, pkg.Name)
		notes = append(notes, planner.Note{
			Package: pkg.Name,
			Message: fmt.Sprintf("version %s is unpublished, released with the selection", pkg.Version),
		})
	}
	return added, notes, nil
}

// addSharedMembers returns the unselected members of every shared version
// group a selected package belongs to. A group is never planned in part.
func (l *configLoader) addSharedMembers(selected []string) ([]string, []planner.Note, error) {
	groups := make(map[string]bool)
	for _, name := range selected {
		cfg, err := l.resolveNamed(name)
		if err != nil {
			return nil, nil, err
		}
		if cfg.SharedVersion != "" {
			groups[cfg.SharedVersion] = true
		}
	}
	if len(groups) == 0 {
		return nil, nil, nil
	}

	chosen := nameSet(selected)
	var added []string
	var notes []planner.Note
	for _, pkg := range l.ws.Packages {
		if chosen[pkg.Name] {
			continue
		}
		cfg, err := l.resolveNamed(pkg.Name)
		if err != nil {
			return nil, nil, err
		}
		if groups[cfg.SharedVersion] {
			added = append(added, pkg.Name)
			notes = append(notes, planner.Note{
				Package: pkg.Name,
				Message: fmt.Sprintf("added as a member of shared version group %q", cfg.SharedVersion),
			})
		}
	}
	return added, notes, nil
}

func nameSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}
