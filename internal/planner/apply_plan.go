package planner

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danieljhkim/monorel/internal/replace"
)

var (
	// ErrStaleEdit indicates an edit no longer matches the content.
	ErrStaleEdit = errors.New("edit does not match file content")

	// ErrOverlappingEdits indicates two range edits cover the same bytes.
	ErrOverlappingEdits = errors.New("overlapping edits")
)

// ApplyEdits applies the edits of one file to content and returns the
// result. Range edits are applied first, each verified against Old at its
// original offsets; pattern edits follow in the order given, each required
// to match exactly its recorded number of occurrences.
func ApplyEdits(content []byte, edits []TextEdit) ([]byte, error) {
	var ranges, patterns []TextEdit
	for _, e := range edits {
		switch e.Kind {
		case EditRange:
			ranges = append(ranges, e)
		case EditPattern:
			patterns = append(patterns, e)
		default:
			return nil, fmt.Errorf("unknown edit kind %q", e.Kind)
		}
	}

	sort.SliceStable(ranges, func(i, j int) bool { return ranges[i].Start > ranges[j].Start })

	out := append([]byte(nil), content...)
	for i, e := range ranges {
		if e.Start < 0 || e.End < e.Start || e.End > len(out) {
			return nil, fmt.Errorf("%w: %s:%d: range %d-%d outside content", ErrStaleEdit, e.File, e.Line, e.Start, e.End)
		}
		if i > 0 && e.End > ranges[i-1].Start {
			return nil, fmt.Errorf("%w: %s:%d", ErrOverlappingEdits, e.File, e.Line)
		}
		if got := string(out[e.Start:e.End]); got != e.Old {
			return nil, fmt.Errorf("%w: %s:%d: expected %q, found %q", ErrStaleEdit, e.File, e.Line, e.Old, got)
		}
		tail := append([]byte(e.New), out[e.End:]...)
		out = append(out[:e.Start], tail...)
	}

	text := string(out)
	for _, e := range patterns {
		re, err := replace.Compile(e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.File, err)
		}
		if n := len(re.FindAllStringIndex(text, -1)); n != e.Occurrences {
			return nil, fmt.Errorf("%w: %s: /%s/ matches %d times, planned %d", ErrStaleEdit, e.File, e.Pattern, n, e.Occurrences)
		}
		text = re.ReplaceAllString(text, e.New)
	}
	return []byte(text), nil
}
