package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/monorel/internal/fsops"
)

func mustDecode(t *testing.T, s string) Settings {
	t.Helper()
	settings, err := Decode([]byte(s))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return settings
}

func TestResolve_FirstLayerWins(t *testing.T) {
	layers := []Layer{
		{Name: "cli", Kind: KindOverrides, Settings: Settings{Push: ptr(false)}},
		{Name: "pkg", Kind: KindPackageFile, Settings: mustDecode(t, "push: true\ntag-prefix: pkg-\n")},
		{Name: "ws", Kind: KindWorkspaceFile, Settings: mustDecode(t, "tag-prefix: ws-\nsign-tag: true\n")},
		{Name: "defaults", Kind: KindDefaults, Settings: Defaults(false)},
	}

	r, err := Resolve(layers)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if r.Push {
		t.Error("expected cli override push=false")
	}
	if r.TagPrefix != "pkg-" {
		t.Errorf("TagPrefix = %q, want pkg-", r.TagPrefix)
	}
	if !r.SignTag {
		t.Error("expected sign-tag from workspace layer")
	}
	if r.PushRemote != "origin" {
		t.Errorf("PushRemote = %q, want origin", r.PushRemote)
	}

	wantProvenance := map[string]string{
		"push":        "cli",
		"tag-prefix":  "pkg",
		"sign-tag":    "ws",
		"push-remote": "defaults",
	}
	for key, want := range wantProvenance {
		if got := r.Provenance[key]; got != want {
			t.Errorf("Provenance[%s] = %q, want %q", key, got, want)
		}
	}
}

func TestResolve_IsPure(t *testing.T) {
	layers := []Layer{
		{Name: "pkg", Settings: mustDecode(t, "owners: [a, b]\n")},
		{Name: "defaults", Settings: Defaults(true)},
	}

	first, err := Resolve(layers)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	first.Owners[0] = "mutated"

	second, err := Resolve(layers)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if second.Owners[0] != "a" {
		t.Errorf("resolution leaked mutation: %v", second.Owners)
	}
}

func TestResolve_EmptyListOverridesLowerLayer(t *testing.T) {
	layers := []Layer{
		{Name: "pkg", Settings: mustDecode(t, "allow-branch: []\n")},
		{Name: "defaults", Settings: Defaults(false)},
	}

	r, err := Resolve(layers)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(r.AllowBranch) != 0 {
		t.Errorf("AllowBranch = %v, want empty", r.AllowBranch)
	}
	if r.Provenance["allow-branch"] != "pkg" {
		t.Errorf("provenance = %q", r.Provenance["allow-branch"])
	}
}

func TestResolve_InvalidPolicy(t *testing.T) {
	layers := []Layer{
		{Name: "ws", Settings: mustDecode(t, "dependent-version: sometimes\n")},
		{Name: "defaults", Settings: Defaults(false)},
	}

	_, err := Resolve(layers)
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if !strings.Contains(err.Error(), "ws") {
		t.Errorf("error should name the layer: %v", err)
	}
}

func TestResolve_ReplacementRequiresSearch(t *testing.T) {
	layers := []Layer{
		{Name: "pkg", Settings: mustDecode(t, "pre-release-replacements:\n  - file: README.md\n")},
		{Name: "defaults", Settings: Defaults(false)},
	}

	if _, err := Resolve(layers); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestDefaults_TagPrefix(t *testing.T) {
	if got := *Defaults(true).TagPrefix; got != "" {
		t.Errorf("root tag prefix = %q, want empty", got)
	}
	if got := *Defaults(false).TagPrefix; got != "{{package_name}}-" {
		t.Errorf("member tag prefix = %q", got)
	}
}

func TestSharedVersion_Decode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"shared-version: true\n", "default"},
		{"shared-version: false\n", ""},
		{"shared-version: core\n", "core"},
	}

	for _, tt := range tests {
		s := mustDecode(t, tt.input)
		if s.SharedVersion == nil {
			t.Fatalf("%q: shared-version not set", tt.input)
		}
		if string(*s.SharedVersion) != tt.want {
			t.Errorf("%q: got %q, want %q", tt.input, *s.SharedVersion, tt.want)
		}
	}
}

func TestDecode_UnknownKey(t *testing.T) {
	if _, err := Decode([]byte("pushh: true\n")); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestDecode_Empty(t *testing.T) {
	s, err := Decode(nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if s.Push != nil {
		t.Error("expected empty settings")
	}
}

func TestDecodeNode(t *testing.T) {
	var doc struct {
		Release yaml.Node `yaml:"release"`
	}
	if err := yaml.Unmarshal([]byte("release:\n  publish: false\n"), &doc); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	s, err := DecodeNode(&doc.Release)
	if err != nil {
		t.Fatalf("DecodeNode failed: %v", err)
	}
	if s.Publish == nil || *s.Publish {
		t.Error("expected publish: false")
	}

	if s, err := DecodeNode(&yaml.Node{}); err != nil || s.Publish != nil {
		t.Errorf("empty node = %+v, %v", s, err)
	}
}

func TestDecodeNode_UnknownKey(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"top level", `release:
  pubish: false
`},
		{"nested", `release:
  pre-release-replacements:
    - file: CHANGELOG.md
      serach: x
      replace: y
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc struct {
				Release yaml.Node `yaml:"release"`
			}
			if err := yaml.Unmarshal([]byte(tt.yaml), &doc); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if _, err := DecodeNode(&doc.Release); err == nil {
				t.Error("expected an error for the unknown key")
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(fsops.NewRealFS(), filepath.Join(t.TempDir(), "release.yaml"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	src, err := LoadOptional(fsops.NewMemFS(), "/ws/release.yaml")
	if err != nil || src != nil {
		t.Fatalf("LoadOptional = %v, %v; want nil, nil", src, err)
	}
}

func TestLoadFile_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "release.yaml")
	if err := os.WriteFile(path, []byte("push: [\n"), 0644); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if _, err := LoadFile(fsops.NewRealFS(), path); err == nil || !strings.Contains(err.Error(), path) {
		t.Fatalf("expected parse error naming the file, got %v", err)
	}
}

func TestMarshal(t *testing.T) {
	r, err := Resolve([]Layer{{Name: "defaults", Settings: Defaults(false)}})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	out, err := Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, want := range []string{"push-remote: origin", "{{prefix}}v{{version}}", "dependent-version: upgrade"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
