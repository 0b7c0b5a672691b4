package version

import (
	"fmt"
	"strconv"
	"strings"
)

// predicate is one comma-separated comparator of a requirement string.
type predicate struct {
	// op is the operator ("^", "~", "=" or "" for bare).
	op string
	// opText is the operator as written, including trailing whitespace.
	opText string

	major    uint64
	minor    *uint64
	patch    *uint64
	pre      []string
	wildcard bool
}

func parseRequirement(req string) ([]predicate, error) {
	var preds []predicate
	for _, part := range strings.Split(req, ",") {
		p, err := parsePredicate(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

func parsePredicate(s string) (predicate, error) {
	if s == "" {
		return predicate{}, fmt.Errorf("%w: empty comparator", ErrUnsupportedRequirement)
	}
	if strings.HasPrefix(s, "<") || strings.HasPrefix(s, ">") {
		return predicate{}, fmt.Errorf("%w: %q", ErrUnsupportedRequirement, s)
	}

	var p predicate
	rest := s
	if c := rest[0]; c == '^' || c == '~' || c == '=' {
		p.op = string(c)
		rest = rest[1:]
		trimmed := strings.TrimLeft(rest, " \t")
		p.opText = p.op + rest[:len(rest)-len(trimmed)]
		rest = trimmed
	}

	core, pre, hasPre := strings.Cut(rest, "-")
	fields := strings.Split(core, ".")
	if len(fields) > 3 {
		return predicate{}, fmt.Errorf("%w: %q", ErrUnsupportedRequirement, s)
	}

	nums := make([]*uint64, 0, 3)
	for i, f := range fields {
		if f == "*" || f == "x" || f == "X" {
			if i == 0 {
				return predicate{}, fmt.Errorf("%w: %q", ErrUnsupportedRequirement, s)
			}
			p.wildcard = true
			break
		}
		if p.wildcard {
			break
		}
		n, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return predicate{}, fmt.Errorf("%w: %q", ErrUnsupportedRequirement, s)
		}
		nums = append(nums, &n)
	}
	if p.wildcard && p.op != "" {
		return predicate{}, fmt.Errorf("%w: %q", ErrUnsupportedRequirement, s)
	}

	p.major = *nums[0]
	if len(nums) > 1 {
		p.minor = nums[1]
	}
	if len(nums) > 2 {
		p.patch = nums[2]
	}
	if hasPre {
		if p.patch == nil {
			return predicate{}, fmt.Errorf("%w: %q", ErrUnsupportedRequirement, s)
		}
		p.pre = strings.Split(pre, ".")
	}
	return p, nil
}

func (p predicate) String() string {
	var b strings.Builder
	b.WriteString(p.opText)
	b.WriteString(strconv.FormatUint(p.major, 10))
	if p.minor != nil {
		b.WriteString("." + strconv.FormatUint(*p.minor, 10))
	} else if p.wildcard {
		b.WriteString(".*")
		return b.String()
	}
	if p.patch != nil {
		b.WriteString("." + strconv.FormatUint(*p.patch, 10))
	} else if p.wildcard {
		b.WriteString(".*")
		return b.String()
	}
	if len(p.pre) > 0 {
		b.WriteString("-" + strings.Join(p.pre, "."))
	}
	return b.String()
}

// UpgradeRequirement rewrites req so that it refers to v, keeping the
// operator and the precision of each comparator. It reports whether the text
// changed.
//
// Caret, tilde, exact and bare comparators take the major component plus
// whichever of minor and patch were written; the pre-release is carried only
// when a patch component is present. "1.*" updates the major only, "1.2.*"
// the major and minor. "*" never changes. Range operators (<, <=, >, >=) are
// rejected with ErrUnsupportedRequirement.
func UpgradeRequirement(req string, v Version) (string, bool, error) {
	trimmed := strings.TrimSpace(req)
	if trimmed == "" || trimmed == "*" {
		return req, false, nil
	}

	preds, err := parseRequirement(trimmed)
	if err != nil {
		return "", false, err
	}

	parts := make([]string, len(preds))
	for i, p := range preds {
		p.major = v.Major
		if p.minor != nil {
			minor := v.Minor
			p.minor = &minor
		}
		if p.patch != nil {
			patch := v.Patch
			p.patch = &patch
			p.pre = append([]string(nil), v.Pre...)
		}
		parts[i] = p.String()
	}

	out := strings.Join(parts, ", ")
	if out == canonicalRequirement(preds) {
		return req, false, nil
	}
	return out, true, nil
}

func canonicalRequirement(preds []predicate) string {
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// Matches reports whether v satisfies every comparator of req.
//
// A pre-release version only matches a comparator that names a pre-release
// on the same major.minor.patch.
func Matches(req string, v Version) (bool, error) {
	trimmed := strings.TrimSpace(req)
	if trimmed == "" || trimmed == "*" {
		return !v.IsPrerelease(), nil
	}

	preds, err := parseRequirement(trimmed)
	if err != nil {
		return false, err
	}
	for _, p := range preds {
		if !p.matches(v) {
			return false, nil
		}
	}
	return true, nil
}

func (p predicate) matches(v Version) bool {
	if v.IsPrerelease() {
		if len(p.pre) == 0 || p.patch == nil {
			return false
		}
		if v.Major != p.major || v.Minor != *p.minor || v.Patch != *p.patch {
			return false
		}
	}

	lower := Version{Major: p.major, Pre: p.pre}
	if p.minor != nil {
		lower.Minor = *p.minor
	}
	if p.patch != nil {
		lower.Patch = *p.patch
	}

	if p.op == "=" && p.patch != nil {
		return v.Equal(lower)
	}
	if v.Compare(lower) < 0 {
		return false
	}

	upper, ok := p.upperBound()
	if !ok {
		return true
	}
	return v.Stable().Compare(upper) < 0
}

// upperBound returns the exclusive upper bound of the comparator.
func (p predicate) upperBound() (Version, bool) {
	major := p.major
	switch p.op {
	case "^":
		switch {
		case major > 0 || p.minor == nil:
			return Version{Major: major + 1}, true
		case *p.minor > 0 || p.patch == nil:
			return Version{Major: 0, Minor: *p.minor + 1}, true
		default:
			return Version{Major: 0, Minor: 0, Patch: *p.patch + 1}, true
		}
	case "~", "=", "":
		if p.op == "" && !p.wildcard {
			// Bare comparators behave like caret.
			return predicate{op: "^", major: p.major, minor: p.minor, patch: p.patch}.upperBound()
		}
		if p.minor == nil {
			return Version{Major: major + 1}, true
		}
		return Version{Major: major, Minor: *p.minor + 1}, true
	}
	return Version{}, false
}
