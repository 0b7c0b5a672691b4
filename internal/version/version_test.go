package version

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "1.2.3", "1.2.3", false},
		{"prerelease", "1.0.0-rc.1", "1.0.0-rc.1", false},
		{"build", "1.0.0+abc.5", "1.0.0+abc.5", false},
		{"prerelease and build", "2.0.0-alpha-x.1+sha.deadbeef", "2.0.0-alpha-x.1+sha.deadbeef", false},
		{"surrounding space", "  0.1.0 ", "0.1.0", false},
		{"missing patch", "1.2", "", true},
		{"leading zero", "01.2.3", "", true},
		{"v prefix", "v1.2.3", "", true},
		{"empty", "", "", true},
		{"garbage", "latest", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %s", tt.input, v)
				}
				if !errors.Is(err, ErrInvalidVersion) {
					t.Errorf("expected ErrInvalidVersion, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompare_IgnoresBuildMetadata(t *testing.T) {
	a := MustParse("1.0.0+one")
	b := MustParse("1.0.0+two")

	if !a.Equal(b) {
		t.Errorf("expected %s and %s to be equal", a, b)
	}
	if a.Identical(b) {
		t.Errorf("expected %s and %s not to be identical", a, b)
	}
}

func TestCompare_Ordering(t *testing.T) {
	ordered := []string{
		"0.9.9",
		"1.0.0-alpha",
		"1.0.0-alpha.1",
		"1.0.0-beta",
		"1.0.0-beta.2",
		"1.0.0-beta.11",
		"1.0.0-rc.1",
		"1.0.0",
		"1.0.1",
		"1.10.0",
		"2.0.0",
	}

	for i := 0; i < len(ordered)-1; i++ {
		lo, hi := MustParse(ordered[i]), MustParse(ordered[i+1])
		if !lo.Less(hi) {
			t.Errorf("expected %s < %s", lo, hi)
		}
		if hi.Less(lo) {
			t.Errorf("expected %s > %s", hi, lo)
		}
	}
}

func TestWithBuild(t *testing.T) {
	v := MustParse("1.2.3+old")

	if got := v.WithBuild("new.1").String(); got != "1.2.3+new.1" {
		t.Errorf("WithBuild = %q, want 1.2.3+new.1", got)
	}
	if got := v.WithBuild("").String(); got != "1.2.3" {
		t.Errorf("WithBuild(\"\") = %q, want 1.2.3", got)
	}
	if v.String() != "1.2.3+old" {
		t.Errorf("original mutated: %s", v)
	}
}

func TestStage(t *testing.T) {
	tests := []struct {
		input       string
		wantName    string
		wantCounter uint64
		wantHas     bool
		wantErr     bool
	}{
		{"1.0.0", "", 0, false, false},
		{"1.0.0-alpha", "alpha", 0, false, false},
		{"1.0.0-beta.3", "beta", 3, true, false},
		{"1.0.0-dev", "dev", 0, false, false},
		{"1.0.0-1", "", 0, false, true},
		{"1.0.0-rc.x", "", 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			st, err := MustParse(tt.input).Stage()
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedPrerelease) {
					t.Fatalf("expected ErrUnsupportedPrerelease, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Stage failed: %v", err)
			}
			if st.Name != tt.wantName || st.Counter != tt.wantCounter || st.HasCounter != tt.wantHas {
				t.Errorf("Stage() = %+v", st)
			}
		})
	}
}

func TestStageRank(t *testing.T) {
	if (Stage{Name: "dev"}).Rank() >= (Stage{Name: Alpha}).Rank() {
		t.Error("unknown channel should rank below alpha")
	}
	if (Stage{Name: Beta}).Rank() >= (Stage{Name: RC}).Rank() {
		t.Error("beta should rank below rc")
	}
}

func TestTextRoundTrip(t *testing.T) {
	v := MustParse("1.4.0-beta.2+build.7")
	text, err := v.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}
	var got Version
	if err := got.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if !got.Identical(v) {
		t.Errorf("round trip = %s, want %s", got, v)
	}
	if err := got.UnmarshalText([]byte("nope")); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("expected ErrInvalidVersion, got %v", err)
	}
}
