package replace

import (
	"errors"
	"testing"

	"github.com/danieljhkim/monorel/internal/config"
	"github.com/danieljhkim/monorel/internal/fsops"
)

func intp(n int) *int { return &n }

func TestRenderTemplate(t *testing.T) {
	vars := Vars{
		Version:     "1.3.0",
		PrevVersion: "1.2.0",
		PackageName: "core",
		Prefix:      "core-",
		TagName:     "core-v1.3.0",
		Date:        "2026-10-19",
	}

	tests := []struct {
		tmpl string
		want string
	}{
		{"{{prefix}}v{{version}}", "core-v1.3.0"},
		{"Release {{package_name}} {{prev_version}} -> {{version}}", "Release core 1.2.0 -> 1.3.0"},
		{"## [{{version}}] - {{date}}", "## [1.3.0] - 2026-10-19"},
		{"{{tag_name}}{{metadata}}", "core-v1.3.0"},
		{"{{unknown}}", "{{unknown}}"},
	}
	for _, tt := range tests {
		if got := RenderTemplate(tt.tmpl, vars); got != tt.want {
			t.Errorf("RenderTemplate(%q) = %q, want %q", tt.tmpl, got, tt.want)
		}
	}
}

func TestRenderTemplate_NoRescan(t *testing.T) {
	got := RenderTemplate("{{package_name}}", Vars{PackageName: "{{version}}", Version: "9.9.9"})
	if got != "{{version}}" {
		t.Errorf("substituted value was rescanned: %q", got)
	}
}

func TestApply(t *testing.T) {
	vars := Vars{Version: "1.3.0", Date: "2026-10-19"}

	tests := []struct {
		name    string
		content string
		rule    config.Replacement
		want    string
		count   int
	}{
		{
			name:    "multi-line anchors",
			content: "## Unreleased\n\nstuff\n## Unreleased (old)\n",
			rule:    config.Replacement{Search: `^## Unreleased$`, Replace: "## {{version}} - {{date}}"},
			want:    "## 1.3.0 - 2026-10-19\n\nstuff\n## Unreleased (old)\n",
			count:   1,
		},
		{
			name:    "numbered capture",
			content: `version = "1.2.0"`,
			rule:    config.Replacement{Search: `(version = )"[^"]*"`, Replace: `$1"{{version}}"`},
			want:    `version = "1.3.0"`,
			count:   1,
		},
		{
			name:    "named capture",
			content: "v1.2.0 v1.2.0",
			rule:    config.Replacement{Search: `(?P<pfx>v)1\.2\.0`, Replace: "${pfx}{{version}}", Exactly: intp(2)},
			want:    "v1.3.0 v1.3.0",
			count:   2,
		},
		{
			name:    "zero allowed",
			content: "nothing here",
			rule:    config.Replacement{Search: `absent`, Replace: "x", Min: intp(0)},
			want:    "nothing here",
			count:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Apply("CHANGELOG.md", tt.content, tt.rule, vars, false)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if res.Content != tt.want {
				t.Errorf("Content = %q, want %q", res.Content, tt.want)
			}
			if res.Count != tt.count {
				t.Errorf("Count = %d, want %d", res.Count, tt.count)
			}
		})
	}
}

func TestApply_DollarInValueIsLiteral(t *testing.T) {
	rule := config.Replacement{Search: `(name)`, Replace: "{{package_name}}"}
	res, err := Apply("f", "name", rule, Vars{PackageName: "pkg$1"}, false)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if res.Content != "pkg$1" {
		t.Errorf("Content = %q, want %q", res.Content, "pkg$1")
	}
}

func TestApply_Bounds(t *testing.T) {
	content := "a a a"

	tests := []struct {
		name    string
		rule    config.Replacement
		atLeast bool
		bound   int
	}{
		{"default min is one", config.Replacement{Search: "b"}, true, 1},
		{"exactly below", config.Replacement{Search: "a", Exactly: intp(4)}, true, 4},
		{"exactly above", config.Replacement{Search: "a", Exactly: intp(2)}, false, 2},
		{"max", config.Replacement{Search: "a", Max: intp(1)}, false, 1},
		{"min overrides exactly", config.Replacement{Search: "a", Min: intp(5), Exactly: intp(3)}, true, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply("f.txt", content, tt.rule, Vars{}, false)
			if !errors.Is(err, ErrOccurrenceViolation) {
				t.Fatalf("expected ErrOccurrenceViolation, got %v", err)
			}
			var oe *OccurrenceError
			if !errors.As(err, &oe) {
				t.Fatalf("expected *OccurrenceError, got %T", err)
			}
			if oe.AtLeast != tt.atLeast || oe.Bound != tt.bound || oe.File != "f.txt" {
				t.Errorf("OccurrenceError = %+v", oe)
			}
		})
	}

	if _, err := Apply("f.txt", content, config.Replacement{Search: "a", Min: intp(3), Max: intp(3)}, Vars{}, false); err != nil {
		t.Errorf("bounds satisfied, got %v", err)
	}
}

func TestApply_PrereleaseSkip(t *testing.T) {
	rule := config.Replacement{Search: "missing", Replace: "x"}

	res, err := Apply("f", "content", rule, Vars{}, true)
	if err != nil {
		t.Fatalf("skipped rule must not count occurrences: %v", err)
	}
	if !res.Skipped || res.Content != "content" {
		t.Errorf("Result = %+v", res)
	}

	rule.Prerelease = true
	if _, err := Apply("f", "content", rule, Vars{}, true); !errors.Is(err, ErrOccurrenceViolation) {
		t.Errorf("pre-release enabled rule should be evaluated, got %v", err)
	}
}

func TestApply_InvalidPattern(t *testing.T) {
	_, err := Apply("f", "x", config.Replacement{Search: "(unclosed"}, Vars{}, false)
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("expected ErrInvalidPattern, got %v", err)
	}
}

func TestApplyFile_Sequential(t *testing.T) {
	rules := []config.Replacement{
		{Search: "one", Replace: "two"},
		{Search: "two", Replace: "three", Exactly: intp(2)},
	}
	res, err := ApplyFile("f", "one two", rules, Vars{}, false)
	if err != nil {
		t.Fatalf("ApplyFile failed: %v", err)
	}
	if res.Content != "three three" {
		t.Errorf("Content = %q", res.Content)
	}
	if len(res.Applied) != 2 || res.Applied[1].Count != 2 {
		t.Errorf("Applied = %+v", res.Applied)
	}
	if !res.Changed("one two") {
		t.Error("Changed should be true")
	}
}

func TestTargets(t *testing.T) {
	fs := fsops.NewMemFS()
	fs.WriteFile("/ws/core/README.md", []byte("r"))
	fs.WriteFile("/ws/core/docs/a.md", []byte("a"))
	fs.WriteFile("/ws/core/docs/b.md", []byte("b"))

	rules := []config.Replacement{
		{File: "docs/*.md", Search: "x"},
		{File: "README.md", Search: "y"},
		{File: "docs/a.md", Search: "z"},
	}
	targets, err := Targets(fs, "/ws/core", rules)
	if err != nil {
		t.Fatalf("Targets failed: %v", err)
	}

	var rels []string
	for _, tg := range targets {
		rels = append(rels, tg.Rel)
	}
	want := []string{"README.md", "docs/a.md", "docs/b.md"}
	if len(rels) != len(want) {
		t.Fatalf("targets = %v, want %v", rels, want)
	}
	for i := range want {
		if rels[i] != want[i] {
			t.Errorf("targets[%d] = %q, want %q", i, rels[i], want[i])
		}
	}
	if a := targets[1]; len(a.Rules) != 2 || a.Rules[0].Search != "x" || a.Rules[1].Search != "z" {
		t.Errorf("docs/a.md rules = %+v", a.Rules)
	}

	if _, err := Targets(fs, "/ws/core", []config.Replacement{{File: "CHANGELOG.md", Search: "x"}}); !errors.Is(err, ErrMissingFile) {
		t.Errorf("expected ErrMissingFile, got %v", err)
	}
	if _, err := Targets(fs, "/ws/core", []config.Replacement{{File: "../other", Search: "x"}}); err == nil {
		t.Error("expected error for path outside the package")
	}
}
