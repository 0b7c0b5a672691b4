package planner

import (
	"sort"
	"time"

	"github.com/danieljhkim/monorel/internal/changes"
	"github.com/danieljhkim/monorel/internal/version"
)

// ReleasePlan is the ordered set of steps for one release invocation.
type ReleasePlan struct {
	// Intent is the requested bump, as given.
	Intent string `json:"intent"`

	// Groups are the ordering levels; a package appears after every
	// selected package it depends on.
	Groups [][]string `json:"groups"`

	// Steps in execution order.
	Steps []*ReleaseStep `json:"steps"`

	// Commit is the single commit shared by consolidated steps, nil when no
	// step is consolidated.
	Commit *Action `json:"commit,omitempty"`

	Notes []Note `json:"notes,omitempty"`
}

// ReleaseStep is the plan for one package.
type ReleaseStep struct {
	Package string          `json:"package"`
	Prev    version.Version `json:"prev"`
	Next    version.Version `json:"next"`
	Tag     string          `json:"tag,omitempty"`

	Edits   []TextEdit `json:"edits,omitempty"`
	Actions []Action   `json:"actions,omitempty"`

	// Group is the index of the ordering level the step belongs to.
	Group int `json:"group"`

	// GroupKey identifies steps committed together.
	GroupKey string `json:"group_key"`

	// SharedGroup names the shared-version group, "" if none.
	SharedGroup string `json:"shared_group,omitempty"`

	// PublishWait is how long the execution layer waits before publishing
	// this step, to let the registry see earlier publishes.
	PublishWait time.Duration `json:"publish_wait,omitempty"`

	Change *changes.Result `json:"change,omitempty"`

	SkipReason string `json:"skip_reason,omitempty"`

	Err error `json:"-"`
}

// Skipped reports whether the step releases nothing.
func (s *ReleaseStep) Skipped() bool {
	return s.SkipReason != ""
}

// Releasing reports whether the step will be executed.
func (s *ReleaseStep) Releasing() bool {
	return !s.Skipped() && s.Err == nil
}

// Publishes reports whether the step has a publish action.
func (s *ReleaseStep) Publishes() bool {
	return s.hasAction(ActionPublish)
}

func (s *ReleaseStep) hasAction(kind ActionKind) bool {
	for _, a := range s.Actions {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// EditKind distinguishes positional edits from pattern edits.
type EditKind string

// Edit kinds.
const (
	// EditRange replaces the bytes [Start, End) which must equal Old.
	EditRange EditKind = "range"

	// EditPattern replaces every match of Pattern with New, after which
	// capture references in New are expanded.
	EditPattern EditKind = "pattern"
)

// TextEdit is one planned modification of a file.
type TextEdit struct {
	// File is relative to the workspace root, with forward slashes.
	File string   `json:"file"`
	Kind EditKind `json:"kind"`

	Start int    `json:"start,omitempty"`
	End   int    `json:"end,omitempty"`
	Line  int    `json:"line,omitempty"`
	Old   string `json:"old,omitempty"`

	New string `json:"new"`

	Pattern     string `json:"pattern,omitempty"`
	Occurrences int    `json:"occurrences,omitempty"`

	// BaseHash is the hash of the file content the edit was computed
	// against.
	BaseHash string `json:"base_hash"`
}

// ActionKind identifies a release action.
type ActionKind string

// Action kinds. Within a step they appear as hook, commit, publish, tag, push.
const (
	ActionHook    ActionKind = "hook"
	ActionCommit  ActionKind = "commit"
	ActionPublish ActionKind = "publish"
	ActionTag     ActionKind = "tag"
	ActionPush    ActionKind = "push"
)

// Action is an externally visible operation recorded for the execution layer.
type Action struct {
	Kind ActionKind `json:"kind"`

	// Args is the rendered hook command line.
	Args []string `json:"args,omitempty"`

	// Message is the commit or tag message.
	Message string `json:"message,omitempty"`

	Tag      string   `json:"tag,omitempty"`
	Sign     bool     `json:"sign,omitempty"`
	Registry string   `json:"registry,omitempty"`
	Remote   string   `json:"remote,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// Note is an informational finding attached to the plan.
type Note struct {
	Package string `json:"package,omitempty"`
	Message string `json:"message"`
}

// NewReleasePlan creates an empty plan for intent.
func NewReleasePlan(intent string) *ReleasePlan {
	return &ReleasePlan{
		Intent: intent,
		Steps:  []*ReleaseStep{},
	}
}

// Step returns the step for pkg, or nil.
func (p *ReleasePlan) Step(pkg string) *ReleaseStep {
	for _, s := range p.Steps {
		if s.Package == pkg {
			return s
		}
	}
	return nil
}

// Releasing returns the steps that will be executed, in order.
func (p *ReleasePlan) Releasing() []*ReleaseStep {
	var out []*ReleaseStep
	for _, s := range p.Steps {
		if s.Releasing() {
			out = append(out, s)
		}
	}
	return out
}

// Skipped returns the skipped steps, in order.
func (p *ReleasePlan) Skipped() []*ReleaseStep {
	var out []*ReleaseStep
	for _, s := range p.Steps {
		if s.Skipped() {
			out = append(out, s)
		}
	}
	return out
}

// AddNote records a note.
func (p *ReleasePlan) AddNote(pkg, message string) {
	p.Notes = append(p.Notes, Note{Package: pkg, Message: message})
}

// EditsByFile gathers the edits of every releasing step per file, in step
// order. Keys are sorted by the caller when needed.
func (p *ReleasePlan) EditsByFile() map[string][]TextEdit {
	out := make(map[string][]TextEdit)
	for _, s := range p.Releasing() {
		for _, e := range s.Edits {
			out[e.File] = append(out[e.File], e)
		}
	}
	return out
}

// Files returns the files touched by releasing steps, sorted.
func (p *ReleasePlan) Files() []string {
	byFile := p.EditsByFile()
	out := make([]string, 0, len(byFile))
	for f := range byFile {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
