package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/danieljhkim/monorel/internal/changes"
	"github.com/danieljhkim/monorel/internal/engine"
	"github.com/danieljhkim/monorel/internal/planner"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	versionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7BD88F"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7BD88F"))

	stepBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1)

	blockedBox = stepBox.BorderForeground(lipgloss.Color("#FF6B6B"))
)

// renderPlan renders a release plan for the terminal.
func renderPlan(result *engine.PlanResult, showNotes bool) string {
	plan := result.Plan
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("Release plan (%s)", plan.Intent)))

	for _, step := range plan.Steps {
		switch {
		case step.Err != nil:
			sections = append(sections, blockedBox.Render(renderBlocked(step)))
		case step.Releasing():
			sections = append(sections, stepBox.Render(renderStep(step)))
		}
	}

	if plan.Commit != nil {
		sections = append(sections, stepBox.Render(
			titleStyle.Render("commit")+"\n"+plan.Commit.Message))
	}

	if files := plan.Files(); len(files) > 0 {
		lines := []string{titleStyle.Render("Files")}
		for _, f := range files {
			lines = append(lines, "  "+f)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if skipped := plan.Skipped(); len(skipped) > 0 {
		lines := []string{titleStyle.Render("Skipped")}
		for _, step := range skipped {
			lines = append(lines, fmt.Sprintf("  %s %s", step.Package, mutedStyle.Render(step.SkipReason)))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if showNotes && len(plan.Notes) > 0 {
		lines := []string{titleStyle.Render("Notes")}
		for _, n := range plan.Notes {
			lines = append(lines, fmt.Sprintf("  %s: %s", n.Package, n.Message))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(result.Findings) > 0 {
		sections = append(sections, renderFindings(result.Findings))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func renderStep(step *planner.ReleaseStep) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s → %s",
		titleStyle.Render(step.Package),
		mutedStyle.Render(step.Prev.String()),
		versionStyle.Render(step.Next.String()))
	if step.SharedGroup != "" {
		fmt.Fprintf(&b, "  %s", mutedStyle.Render("shared:"+step.SharedGroup))
	}
	b.WriteString("\n")

	if step.Change != nil && step.Change.Reason != changes.ReasonUnchanged {
		fmt.Fprintf(&b, "%s\n", mutedStyle.Render(describeChange(*step.Change)))
	}

	if len(step.Edits) > 0 {
		b.WriteString("edits:\n")
		for _, e := range step.Edits {
			b.WriteString("  " + describeEdit(e) + "\n")
		}
	}

	if len(step.Actions) > 0 {
		b.WriteString("actions:\n")
		for _, a := range step.Actions {
			b.WriteString("  " + describeAction(a) + "\n")
		}
	}
	if step.PublishWait > 0 {
		fmt.Fprintf(&b, "%s\n", mutedStyle.Render(fmt.Sprintf("waits %s before publishing", step.PublishWait)))
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderBlocked(step *planner.ReleaseStep) string {
	return fmt.Sprintf("%s  %s\n%s",
		titleStyle.Render(step.Package),
		removedStyle.Render("blocked"),
		step.Err.Error())
}

func describeChange(c changes.Result) string {
	switch c.Reason {
	case changes.ReasonNeverReleased:
		return "never released"
	case changes.ReasonFiles:
		return fmt.Sprintf("%s changed since %s", PrintCount(len(c.Files), "file", "files"), c.Ref)
	case changes.ReasonDependency:
		return fmt.Sprintf("dependencies changed: %s", strings.Join(c.Dependencies, ", "))
	}
	return c.Reason.String()
}

func describeEdit(e planner.TextEdit) string {
	switch e.Kind {
	case planner.EditRange:
		return fmt.Sprintf("%s:%d %s → %s", e.File, e.Line,
			removedStyle.Render(quote(e.Old)), addedStyle.Render(quote(e.New)))
	default:
		return fmt.Sprintf("%s /%s/ → %s (%s)", e.File, e.Pattern,
			addedStyle.Render(quote(e.New)), PrintCount(e.Occurrences, "match", "matches"))
	}
}

func describeAction(a planner.Action) string {
	switch a.Kind {
	case planner.ActionHook:
		return fmt.Sprintf("hook %s", strings.Join(a.Args, " "))
	case planner.ActionCommit:
		return fmt.Sprintf("commit %s%s", quote(firstLine(a.Message)), signed(a.Sign))
	case planner.ActionPublish:
		if a.Registry != "" {
			return fmt.Sprintf("publish to %s", a.Registry)
		}
		return "publish"
	case planner.ActionTag:
		return fmt.Sprintf("tag %s%s", a.Tag, signed(a.Sign))
	case planner.ActionPush:
		if len(a.Options) > 0 {
			return fmt.Sprintf("push %s (%s)", a.Remote, strings.Join(a.Options, ", "))
		}
		return fmt.Sprintf("push %s", a.Remote)
	}
	return string(a.Kind)
}

// renderFindings lists verification findings, errors first.
func renderFindings(findings []engine.Finding) string {
	sorted := append([]engine.Finding(nil), findings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity == engine.SeverityError && sorted[j].Severity != engine.SeverityError
	})

	lines := []string{titleStyle.Render("Verification")}
	for _, f := range sorted {
		marker := warningColor.Sprint("⚠")
		if f.Severity == engine.SeverityError {
			marker = errorColor.Sprint("✗")
		}
		subject := ""
		if f.Package != "" {
			subject = f.Package + ": "
		}
		lines = append(lines, fmt.Sprintf("  %s %s%s %s", marker, subject, f.Message, dimColor.Sprintf("[%s]", f.Check)))
	}
	return strings.Join(lines, "\n")
}

// renderChanges renders a change report.
func renderChanges(result *engine.ChangesResult, showFiles bool) string {
	var lines []string
	for _, r := range result.Packages {
		status := mutedStyle.Render("unchanged")
		if r.Changed {
			status = versionStyle.Render(describeChange(r))
		}
		ref := r.Ref
		if ref == "" {
			ref = "-"
		}
		lines = append(lines, fmt.Sprintf("%s  %s  %s", titleStyle.Render(r.Package), mutedStyle.Render(ref), status))
		if showFiles {
			for _, f := range r.Files {
				lines = append(lines, "  "+f)
			}
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func signed(sign bool) string {
	if sign {
		return " (signed)"
	}
	return ""
}
