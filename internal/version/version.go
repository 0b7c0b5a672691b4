// Package version models semantic versions and the deterministic rules used
// to move a package from its current version to the next one.
//
// Versions are immutable values. Every transition returns a new Version and
// build metadata never takes part in ordering or equality.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Pre-release channel names, lowest rank first.
const (
	Alpha = "alpha"
	Beta  = "beta"
	RC    = "rc"
)

// channelRank orders the known pre-release channels. Unknown alphanumeric
// channels (e.g. "dev") rank below alpha.
var channelRank = map[string]int{
	Alpha: 0,
	Beta:  1,
	RC:    2,
}

// Version is a semantic version.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64

	// Pre holds the dot-separated pre-release identifiers.
	Pre []string

	// Build holds the dot-separated build metadata identifiers.
	Build []string
}

// Parse parses a full semantic version such as "1.2.3-rc.1+build.5".
func Parse(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Version{}, fmt.Errorf("%w: empty string", ErrInvalidVersion)
	}
	if !semver.IsValid("v" + raw) {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	rest, build, hasBuild := strings.Cut(raw, "+")
	core, pre, hasPre := strings.Cut(rest, "-")

	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("%w: %q must have major.minor.patch", ErrInvalidVersion, s)
	}

	var nums [3]uint64
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
		}
		nums[i] = n
	}

	v := Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}
	if hasPre {
		v.Pre = strings.Split(pre, ".")
	}
	if hasBuild {
		v.Build = strings.Split(build, ".")
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the full version including build metadata.
func (v Version) String() string {
	s := v.Bare()
	if len(v.Build) > 0 {
		s += "+" + strings.Join(v.Build, ".")
	}
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Bare returns the version without build metadata.
func (v Version) Bare() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if len(v.Pre) > 0 {
		s += "-" + strings.Join(v.Pre, ".")
	}
	return s
}

// Metadata returns the build metadata as a string, or "" when there is none.
func (v Version) Metadata() string {
	return strings.Join(v.Build, ".")
}

// IsPrerelease reports whether the version carries a pre-release identifier.
func (v Version) IsPrerelease() bool {
	return len(v.Pre) > 0
}

// Compare returns -1, 0 or +1 following semver precedence. Build metadata is ignored.
func (v Version) Compare(o Version) int {
	return semver.Compare("v"+v.Bare(), "v"+o.Bare())
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// Equal reports whether v and o have the same precedence.
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// Identical reports whether v and o are equal including build metadata.
func (v Version) Identical(o Version) bool {
	return v.String() == o.String()
}

// WithBuild returns a copy of v with its build metadata replaced. An empty
// metadata string clears it.
func (v Version) WithBuild(metadata string) Version {
	out := v.clone()
	out.Build = nil
	if metadata != "" {
		out.Build = strings.Split(metadata, ".")
	}
	return out
}

// Stable returns a copy of v with the pre-release identifier removed.
func (v Version) Stable() Version {
	out := v.clone()
	out.Pre = nil
	return out
}

func (v Version) clone() Version {
	out := v
	if v.Pre != nil {
		out.Pre = append([]string(nil), v.Pre...)
	}
	if v.Build != nil {
		out.Build = append([]string(nil), v.Build...)
	}
	return out
}

// Stage is the pre-release position of a version: stable when Name is empty,
// otherwise a named channel with an optional trailing counter.
type Stage struct {
	Name       string
	Counter    uint64
	HasCounter bool
}

// IsStable reports whether the stage has no pre-release channel.
func (s Stage) IsStable() bool {
	return s.Name == ""
}

// Rank returns the channel rank: alpha 0, beta 1, rc 2, unknown channels -1.
func (s Stage) Rank() int {
	if r, ok := channelRank[s.Name]; ok {
		return r
	}
	return -1
}

// Stage decodes the pre-release identifier of v. Only "<name>" and
// "<name>.<n>" schemes are understood; a leading numeric identifier is
// rejected with ErrUnsupportedPrerelease.
func (v Version) Stage() (Stage, error) {
	if len(v.Pre) == 0 {
		return Stage{}, nil
	}
	name := v.Pre[0]
	if isNumeric(name) {
		return Stage{}, fmt.Errorf("%w: %q", ErrUnsupportedPrerelease, v.Bare())
	}
	st := Stage{Name: name}
	if len(v.Pre) > 1 {
		n, err := strconv.ParseUint(v.Pre[1], 10, 64)
		if err != nil {
			return Stage{}, fmt.Errorf("%w: %q", ErrUnsupportedPrerelease, v.Bare())
		}
		st.Counter = n
		st.HasCounter = true
	}
	return st, nil
}

// IsChannel reports whether name is one of alpha, beta or rc.
func IsChannel(name string) bool {
	_, ok := channelRank[name]
	return ok
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
