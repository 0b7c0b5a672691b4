// Package replace applies search/replace rules to auxiliary files.
//
// Each rule carries a regular expression compiled with multi-line anchors,
// a replacement template and occurrence bounds. Placeholders in the template
// ({{version}}, {{tag_name}}, ...) are substituted first; capture group
// references ($1, ${name}) are expanded per match afterwards.
package replace

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/danieljhkim/monorel/internal/config"
	"github.com/danieljhkim/monorel/internal/fsops"
)

var (
	// ErrOccurrenceViolation indicates a pattern matched fewer or more times
	// than its rule allows.
	ErrOccurrenceViolation = errors.New("replacement occurrence bounds violated")

	// ErrInvalidPattern indicates a rule's search pattern does not compile.
	ErrInvalidPattern = errors.New("invalid search pattern")

	// ErrMissingFile indicates a rule's file pattern matched nothing.
	ErrMissingFile = errors.New("replacement target not found")
)

// OccurrenceError reports a bound violation for one rule in one file.
type OccurrenceError struct {
	File   string
	Search string

	// AtLeast is true for a minimum violation, false for a maximum one.
	AtLeast bool
	Bound   int
	Actual  int
}

func (e *OccurrenceError) Error() string {
	qual := "at most"
	if e.AtLeast {
		qual = "at least"
	}
	return fmt.Sprintf("for `%s` in '%s', %s %d replacements expected, found %d",
		e.Search, e.File, qual, e.Bound, e.Actual)
}

func (e *OccurrenceError) Unwrap() error { return ErrOccurrenceViolation }

// Result is the outcome of applying one rule.
type Result struct {
	Rule    config.Replacement
	Content string

	// Count is the number of matches replaced.
	Count int

	// Template is the replacement with placeholders substituted, ready for
	// capture expansion.
	Template string

	// Skipped is true when the rule does not apply to pre-releases.
	Skipped bool
}

// Compile compiles a search pattern with multi-line anchors.
func Compile(search string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?m)" + search)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}

// Apply runs rule against content. file only labels errors.
func Apply(file, content string, rule config.Replacement, vars Vars, prerelease bool) (Result, error) {
	res := Result{Rule: rule, Content: content}
	if prerelease && !rule.Prerelease {
		res.Skipped = true
		return res, nil
	}

	re, err := Compile(rule.Search)
	if err != nil {
		return res, fmt.Errorf("%s: %w", file, err)
	}

	res.Count = len(re.FindAllStringIndex(content, -1))
	min, max, hasMax := rule.Bounds()
	if res.Count < min {
		return res, &OccurrenceError{File: file, Search: rule.Search, AtLeast: true, Bound: min, Actual: res.Count}
	}
	if hasMax && res.Count > max {
		return res, &OccurrenceError{File: file, Search: rule.Search, Bound: max, Actual: res.Count}
	}

	res.Template = renderReplacement(rule.Replace, vars)
	res.Content = re.ReplaceAllString(content, res.Template)
	return res, nil
}

// FileResult is the outcome of every rule targeting one file.
type FileResult struct {
	File    string
	Content string
	Applied []Result
}

// Changed reports whether the rules modified the file.
func (r FileResult) Changed(original string) bool {
	return r.Content != original
}

// ApplyFile runs rules in declaration order, each on the output of the
// previous one.
func ApplyFile(file, content string, rules []config.Replacement, vars Vars, prerelease bool) (FileResult, error) {
	out := FileResult{File: file, Content: content}
	for _, rule := range rules {
		res, err := Apply(file, out.Content, rule, vars, prerelease)
		if err != nil {
			return out, err
		}
		out.Content = res.Content
		out.Applied = append(out.Applied, res)
	}
	return out, nil
}

// Target groups the rules that apply to one file.
type Target struct {
	// Path is the absolute file path.
	Path string

	// Rel is Path relative to the package directory, with forward slashes.
	Rel string

	Rules []config.Replacement
}

// Targets expands each rule's file pattern below dir and groups rules per
// file. Targets are sorted by path; rules keep declaration order.
func Targets(fsys fsops.FS, dir string, rules []config.Replacement) ([]Target, error) {
	byPath := make(map[string]*Target)

	for _, rule := range rules {
		if err := fsops.ValidateRelPath(rule.File); err != nil {
			return nil, fmt.Errorf("replacement file %q: %w", rule.File, err)
		}
		matches, err := fsys.Glob(filepath.Join(dir, filepath.FromSlash(rule.File)))
		if err != nil {
			return nil, err
		}

		found := false
		for _, m := range matches {
			if ok, _ := fsys.IsDir(m); ok {
				continue
			}
			found = true
			t, ok := byPath[m]
			if !ok {
				rel, err := filepath.Rel(dir, m)
				if err != nil {
					return nil, err
				}
				t = &Target{Path: m, Rel: filepath.ToSlash(rel)}
				byPath[m] = t
			}
			t.Rules = append(t.Rules, rule)
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, filepath.Join(dir, rule.File))
		}
	}

	out := make([]Target, 0, len(byPath))
	for _, t := range byPath {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
