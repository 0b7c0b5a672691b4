package config

import (
	"fmt"
	"reflect"
	"strings"
)

// Resolved holds a concrete value for every setting.
type Resolved struct {
	Release                 bool            `yaml:"release" json:"release"`
	AllowBranch             []string        `yaml:"allow-branch" json:"allow-branch"`
	SignCommit              bool            `yaml:"sign-commit" json:"sign-commit"`
	SignTag                 bool            `yaml:"sign-tag" json:"sign-tag"`
	PushRemote              string          `yaml:"push-remote" json:"push-remote"`
	Push                    bool            `yaml:"push" json:"push"`
	PushOptions             []string        `yaml:"push-options" json:"push-options"`
	Publish                 bool            `yaml:"publish" json:"publish"`
	Verify                  bool            `yaml:"verify" json:"verify"`
	Registry                string          `yaml:"registry" json:"registry"`
	Owners                  []string        `yaml:"owners" json:"owners"`
	SharedVersion           string          `yaml:"shared-version" json:"shared-version"`
	ConsolidateCommits      bool            `yaml:"consolidate-commits" json:"consolidate-commits"`
	PreReleaseCommitMessage string          `yaml:"pre-release-commit-message" json:"pre-release-commit-message"`
	PreReleaseReplacements  []Replacement   `yaml:"pre-release-replacements" json:"pre-release-replacements"`
	PreReleaseHook          []string        `yaml:"pre-release-hook" json:"pre-release-hook"`
	Tag                     bool            `yaml:"tag" json:"tag"`
	TagMessage              string          `yaml:"tag-message" json:"tag-message"`
	TagPrefix               string          `yaml:"tag-prefix" json:"tag-prefix"`
	TagName                 string          `yaml:"tag-name" json:"tag-name"`
	DependentVersion        DependentPolicy `yaml:"dependent-version" json:"dependent-version"`
	BatchDependentEdits     bool            `yaml:"batch-dependent-edits" json:"batch-dependent-edits"`
	Metadata                MetadataPolicy  `yaml:"metadata" json:"metadata"`

	// Provenance maps each setting key to the name of the layer that defined it.
	Provenance map[string]string `yaml:"-" json:"provenance,omitempty"`
}

// Keys returns the setting keys in declaration order.
func Keys() []string {
	t := reflect.TypeOf(Settings{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		keys = append(keys, yamlKey(t.Field(i)))
	}
	return keys
}

// Resolve merges layers given in precedence order. For every key the first
// layer that defines it wins; later layers are never consulted for that key.
func Resolve(layers []Layer) (*Resolved, error) {
	merged, provenance := merge(layers)

	r := &Resolved{
		Release:                 deref(merged.Release),
		AllowBranch:             cloneStrings(merged.AllowBranch),
		SignCommit:              deref(merged.SignCommit),
		SignTag:                 deref(merged.SignTag),
		PushRemote:              deref(merged.PushRemote),
		Push:                    deref(merged.Push),
		PushOptions:             cloneStrings(merged.PushOptions),
		Publish:                 deref(merged.Publish),
		Verify:                  deref(merged.Verify),
		Registry:                deref(merged.Registry),
		Owners:                  cloneStrings(merged.Owners),
		SharedVersion:           string(deref(merged.SharedVersion)),
		ConsolidateCommits:      deref(merged.ConsolidateCommits),
		PreReleaseCommitMessage: deref(merged.PreReleaseCommitMessage),
		PreReleaseReplacements:  append([]Replacement(nil), merged.PreReleaseReplacements...),
		PreReleaseHook:          cloneStrings(merged.PreReleaseHook),
		Tag:                     deref(merged.Tag),
		TagMessage:              deref(merged.TagMessage),
		TagPrefix:               deref(merged.TagPrefix),
		TagName:                 deref(merged.TagName),
		DependentVersion:        deref(merged.DependentVersion),
		BatchDependentEdits:     deref(merged.BatchDependentEdits),
		Metadata:                deref(merged.Metadata),
		Provenance:              provenance,
	}

	if r.DependentVersion == "" {
		r.DependentVersion = DependentUpgrade
	}
	if r.Metadata == "" {
		r.Metadata = MetadataOptional
	}
	if !r.DependentVersion.valid() {
		return nil, &InvalidValueError{Key: "dependent-version", Value: string(r.DependentVersion), Layer: provenance["dependent-version"]}
	}
	if !r.Metadata.valid() {
		return nil, &InvalidValueError{Key: "metadata", Value: string(r.Metadata), Layer: provenance["metadata"]}
	}
	for i, rule := range r.PreReleaseReplacements {
		if rule.File == "" || rule.Search == "" {
			return nil, &InvalidValueError{
				Key:   fmt.Sprintf("pre-release-replacements[%d]", i),
				Value: "file and search are required",
				Layer: provenance["pre-release-replacements"],
			}
		}
	}
	return r, nil
}

// merge folds layers into one Settings value using the first non-nil field.
func merge(layers []Layer) (Settings, map[string]string) {
	var out Settings
	provenance := make(map[string]string)

	dst := reflect.ValueOf(&out).Elem()
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		key := yamlKey(t.Field(i))
		for _, layer := range layers {
			fv := reflect.ValueOf(layer.Settings).Field(i)
			if fv.IsNil() {
				continue
			}
			dst.Field(i).Set(fv)
			provenance[key] = layer.Name
			break
		}
	}
	return out, provenance
}

func yamlKey(f reflect.StructField) string {
	tag := f.Tag.Get("yaml")
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
