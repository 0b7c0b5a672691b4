// Package config resolves release settings for a package from an ordered
// stack of configuration layers.
//
// Every layer holds a partial Settings value where nil means "not defined
// here". Resolve walks the layers from highest to lowest precedence and the
// first layer that defines a key wins. Merging is a pure function of its
// inputs; there is no package-level configuration state.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DependentPolicy controls how requirements on a bumped package are updated.
type DependentPolicy string

const (
	// DependentUpgrade rewrites every requirement whose text would change.
	DependentUpgrade DependentPolicy = "upgrade"
	// DependentFix rewrites only requirements the new version no longer satisfies.
	DependentFix DependentPolicy = "fix"
	// DependentWarn reports unsatisfied requirements without editing them.
	DependentWarn DependentPolicy = "warn"
	// DependentError fails planning on unsatisfied requirements.
	DependentError DependentPolicy = "error"
	// DependentIgnore leaves requirements untouched.
	DependentIgnore DependentPolicy = "ignore"
)

func (p DependentPolicy) valid() bool {
	switch p {
	case DependentUpgrade, DependentFix, DependentWarn, DependentError, DependentIgnore:
		return true
	}
	return false
}

// MetadataPolicy controls how build metadata supplied at invocation is used.
type MetadataPolicy string

const (
	MetadataOptional MetadataPolicy = "optional"
	MetadataRequired MetadataPolicy = "required"
	MetadataIgnore   MetadataPolicy = "ignore"
)

func (p MetadataPolicy) valid() bool {
	switch p {
	case MetadataOptional, MetadataRequired, MetadataIgnore:
		return true
	}
	return false
}

// DefaultSharedGroup is the group name used when shared-version is set to true.
const DefaultSharedGroup = "default"

// SharedVersion names a shared-version group. It decodes from either a
// boolean (true means DefaultSharedGroup, false means no group) or a string.
type SharedVersion string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *SharedVersion) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("shared-version: expected bool or string at line %d", value.Line)
	}
	if value.Tag == "!!bool" {
		var b bool
		if err := value.Decode(&b); err != nil {
			return err
		}
		if b {
			*s = DefaultSharedGroup
		} else {
			*s = ""
		}
		return nil
	}
	*s = SharedVersion(value.Value)
	return nil
}

// Replacement is a search/replace rule applied to a file during planning.
type Replacement struct {
	// File is a path relative to the package root; glob patterns are allowed.
	File string `yaml:"file" json:"file"`

	// Search is a regular expression compiled with multi-line anchors.
	Search string `yaml:"search" json:"search"`

	// Replace is a template; placeholders are substituted before capture
	// group references are expanded.
	Replace string `yaml:"replace" json:"replace"`

	Min     *int `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *int `yaml:"max,omitempty" json:"max,omitempty"`
	Exactly *int `yaml:"exactly,omitempty" json:"exactly,omitempty"`

	// Prerelease enables the rule when the planned version is a pre-release.
	Prerelease bool `yaml:"prerelease,omitempty" json:"prerelease,omitempty"`
}

// Bounds returns the effective occurrence bounds. Min falls back to Exactly
// then 1. Max falls back to Exactly; hasMax is false when unbounded.
func (r Replacement) Bounds() (min int, max int, hasMax bool) {
	min = 1
	switch {
	case r.Min != nil:
		min = *r.Min
	case r.Exactly != nil:
		min = *r.Exactly
	}
	switch {
	case r.Max != nil:
		return min, *r.Max, true
	case r.Exactly != nil:
		return min, *r.Exactly, true
	}
	return min, 0, false
}

// Settings is a partial set of release settings. A nil field is undefined
// in the layer that holds it.
type Settings struct {
	Release                 *bool            `yaml:"release,omitempty"`
	AllowBranch             []string         `yaml:"allow-branch,omitempty"`
	SignCommit              *bool            `yaml:"sign-commit,omitempty"`
	SignTag                 *bool            `yaml:"sign-tag,omitempty"`
	PushRemote              *string          `yaml:"push-remote,omitempty"`
	Push                    *bool            `yaml:"push,omitempty"`
	PushOptions             []string         `yaml:"push-options,omitempty"`
	Publish                 *bool            `yaml:"publish,omitempty"`
	Verify                  *bool            `yaml:"verify,omitempty"`
	Registry                *string          `yaml:"registry,omitempty"`
	Owners                  []string         `yaml:"owners,omitempty"`
	SharedVersion           *SharedVersion   `yaml:"shared-version,omitempty"`
	ConsolidateCommits      *bool            `yaml:"consolidate-commits,omitempty"`
	PreReleaseCommitMessage *string          `yaml:"pre-release-commit-message,omitempty"`
	PreReleaseReplacements  []Replacement    `yaml:"pre-release-replacements,omitempty"`
	PreReleaseHook          []string         `yaml:"pre-release-hook,omitempty"`
	Tag                     *bool            `yaml:"tag,omitempty"`
	TagMessage              *string          `yaml:"tag-message,omitempty"`
	TagPrefix               *string          `yaml:"tag-prefix,omitempty"`
	TagName                 *string          `yaml:"tag-name,omitempty"`
	DependentVersion        *DependentPolicy `yaml:"dependent-version,omitempty"`
	BatchDependentEdits     *bool            `yaml:"batch-dependent-edits,omitempty"`
	Metadata                *MetadataPolicy  `yaml:"metadata,omitempty"`
}

// Default template strings.
const (
	DefaultCommitMessage = "chore: Release {{package_name}} version {{version}}"
	DefaultTagMessage    = "chore: Release {{package_name}} version {{version}}"
	DefaultTagName       = "{{prefix}}v{{version}}"
	DefaultMemberPrefix  = "{{package_name}}-"
	DefaultPushRemote    = "origin"
)

// Defaults returns the built-in settings. The tag prefix is empty for the
// workspace root package and "{{package_name}}-" for every other member.
func Defaults(isRoot bool) Settings {
	prefix := DefaultMemberPrefix
	if isRoot {
		prefix = ""
	}
	shared := SharedVersion("")
	dependent := DependentUpgrade
	metadata := MetadataOptional

	return Settings{
		Release:                 ptr(true),
		AllowBranch:             []string{"*", "!HEAD"},
		SignCommit:              ptr(false),
		SignTag:                 ptr(false),
		PushRemote:              ptr(DefaultPushRemote),
		Push:                    ptr(true),
		PushOptions:             []string{},
		Publish:                 ptr(true),
		Verify:                  ptr(true),
		Registry:                ptr(""),
		Owners:                  []string{},
		SharedVersion:           &shared,
		ConsolidateCommits:      ptr(true),
		PreReleaseCommitMessage: ptr(DefaultCommitMessage),
		PreReleaseReplacements:  []Replacement{},
		PreReleaseHook:          []string{},
		Tag:                     ptr(true),
		TagMessage:              ptr(DefaultTagMessage),
		TagPrefix:               ptr(prefix),
		TagName:                 ptr(DefaultTagName),
		DependentVersion:        &dependent,
		BatchDependentEdits:     ptr(false),
		Metadata:                &metadata,
	}
}

func ptr[T any](v T) *T {
	return &v
}
