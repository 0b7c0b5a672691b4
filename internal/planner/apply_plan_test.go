package planner

import (
	"errors"
	"testing"
)

func TestApplyEdits(t *testing.T) {
	content := []byte("name: core\nversion: 1.2.0\ndeps:\n  util: \"^0.4\"\n")

	tests := []struct {
		name  string
		edits []TextEdit
		want  string
	}{
		{
			name:  "no edits",
			edits: nil,
			want:  string(content),
		},
		{
			name: "ranges in any order",
			edits: []TextEdit{
				{Kind: EditRange, Start: 20, End: 25, Old: "1.2.0", New: "1.3.0"},
				{Kind: EditRange, Start: 41, End: 45, Old: "^0.4", New: "^0.5"},
			},
			want: "name: core\nversion: 1.3.0\ndeps:\n  util: \"^0.5\"\n",
		},
		{
			name: "length changing range",
			edits: []TextEdit{
				{Kind: EditRange, Start: 41, End: 45, Old: "^0.4", New: "^0.4.9-rc.1"},
				{Kind: EditRange, Start: 20, End: 25, Old: "1.2.0", New: "10.0.0"},
			},
			want: "name: core\nversion: 10.0.0\ndeps:\n  util: \"^0.4.9-rc.1\"\n",
		},
		{
			name: "range then pattern",
			edits: []TextEdit{
				{Kind: EditPattern, Pattern: `^name: (\w+)$`, New: "name: ${1}-lib", Occurrences: 1},
				{Kind: EditRange, Start: 20, End: 25, Old: "1.2.0", New: "2.0.0"},
			},
			want: "name: core-lib\nversion: 2.0.0\ndeps:\n  util: \"^0.4\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyEdits(content, tt.edits)
			if err != nil {
				t.Fatalf("ApplyEdits failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("ApplyEdits = %q, want %q", got, tt.want)
			}
		})
	}

	if string(content) != "name: core\nversion: 1.2.0\ndeps:\n  util: \"^0.4\"\n" {
		t.Error("input content was modified")
	}
}

func TestApplyEdits_Errors(t *testing.T) {
	content := []byte("version: 1.2.0\n")

	tests := []struct {
		name    string
		edits   []TextEdit
		wantErr error
	}{
		{"stale", []TextEdit{{Kind: EditRange, Start: 9, End: 14, Old: "1.1.0", New: "1.3.0"}}, ErrStaleEdit},
		{"out of bounds", []TextEdit{{Kind: EditRange, Start: 9, End: 99, Old: "x", New: "y"}}, ErrStaleEdit},
		{"overlap", []TextEdit{
			{Kind: EditRange, Start: 9, End: 14, Old: "1.2.0", New: "1.3.0"},
			{Kind: EditRange, Start: 11, End: 12, Old: "2", New: "3"},
		}, ErrOverlappingEdits},
		{"pattern matches more often", []TextEdit{{Kind: EditPattern, Pattern: `\d`, New: "9", Occurrences: 1}}, ErrStaleEdit},
		{"pattern no longer matches", []TextEdit{{Kind: EditPattern, Pattern: `^name:`, New: "id:", Occurrences: 1}}, ErrStaleEdit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ApplyEdits(content, tt.edits); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := ApplyEdits(content, []TextEdit{{Kind: "bogus"}}); err == nil {
		t.Error("expected error for unknown kind")
	}
}
