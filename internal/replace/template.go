package replace

import "strings"

// Vars are the values substituted into templates. Empty values render as
// empty strings.
type Vars struct {
	Version      string
	PrevVersion  string
	Metadata     string
	PrevMetadata string
	Date         string
	PackageName  string
	TagName      string
	Prefix       string
	NextVersion  string
}

func (v Vars) pairs(escape func(string) string) []string {
	return []string{
		"{{prev_version}}", escape(v.PrevVersion),
		"{{prev_metadata}}", escape(v.PrevMetadata),
		"{{next_version}}", escape(v.NextVersion),
		"{{version}}", escape(v.Version),
		"{{metadata}}", escape(v.Metadata),
		"{{package_name}}", escape(v.PackageName),
		"{{date}}", escape(v.Date),
		"{{prefix}}", escape(v.Prefix),
		"{{tag_name}}", escape(v.TagName),
	}
}

// RenderTemplate substitutes every placeholder in tmpl in a single pass.
// Substituted values are never rescanned for placeholders.
func RenderTemplate(tmpl string, vars Vars) string {
	return strings.NewReplacer(vars.pairs(identity)...).Replace(tmpl)
}

// renderReplacement renders a replacement template for regexp expansion:
// '$' inside substituted values is doubled so only capture references the
// author wrote are expanded.
func renderReplacement(tmpl string, vars Vars) string {
	return strings.NewReplacer(vars.pairs(escapeDollar)...).Replace(tmpl)
}

func identity(s string) string { return s }

func escapeDollar(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
