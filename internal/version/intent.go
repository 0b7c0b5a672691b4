package version

import (
	"fmt"
	"strings"
)

// Level identifies the kind of bump requested.
type Level int

const (
	LevelMajor Level = iota
	LevelMinor
	LevelPatch
	LevelRelease
	LevelPrerelease
	LevelExplicit
)

func (l Level) String() string {
	switch l {
	case LevelMajor:
		return "major"
	case LevelMinor:
		return "minor"
	case LevelPatch:
		return "patch"
	case LevelRelease:
		return "release"
	case LevelPrerelease:
		return "prerelease"
	case LevelExplicit:
		return "explicit"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Intent is a requested version transition.
type Intent struct {
	Level Level

	// Channel is the pre-release channel name for LevelPrerelease.
	Channel string

	// Target is the requested version for LevelExplicit.
	Target Version
}

// Major returns an intent bumping the major component.
func Major() Intent { return Intent{Level: LevelMajor} }

// Minor returns an intent bumping the minor component.
func Minor() Intent { return Intent{Level: LevelMinor} }

// Patch returns an intent bumping the patch component.
func Patch() Intent { return Intent{Level: LevelPatch} }

// Release returns an intent that drops a pre-release identifier.
func Release() Intent { return Intent{Level: LevelRelease} }

// Prerelease returns an intent moving to the named pre-release channel.
func Prerelease(channel string) Intent {
	return Intent{Level: LevelPrerelease, Channel: channel}
}

// Explicit returns an intent setting the version to target.
func Explicit(target Version) Intent {
	return Intent{Level: LevelExplicit, Target: target}
}

// ParseIntent parses a bump level ("major", "minor", "patch", "release",
// "alpha", "beta", "rc") or a literal version.
func ParseIntent(s string) (Intent, error) {
	raw := strings.TrimSpace(s)
	switch strings.ToLower(raw) {
	case "major":
		return Major(), nil
	case "minor":
		return Minor(), nil
	case "patch":
		return Patch(), nil
	case "release":
		return Release(), nil
	case Alpha, Beta, RC:
		return Prerelease(strings.ToLower(raw)), nil
	}

	v, err := Parse(raw)
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %q is neither a bump level nor a version", ErrInvalidIntent, s)
	}
	return Explicit(v), nil
}

func (i Intent) String() string {
	switch i.Level {
	case LevelPrerelease:
		return i.Channel
	case LevelExplicit:
		return i.Target.String()
	default:
		return i.Level.String()
	}
}
