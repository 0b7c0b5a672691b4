package workspace

import (
	"fmt"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/monorel/internal/config"
	"github.com/danieljhkim/monorel/internal/graph"
	"github.com/danieljhkim/monorel/internal/version"
)

// ManifestName is the file name of a package manifest.
const ManifestName = "package.yaml"

// Span locates a scalar token inside a manifest by byte offsets.
type Span struct {
	Start int
	End   int
	Line  int

	// Text is the token as it appears between Start and End.
	Text string
}

// Valid reports whether the span was located in the source.
func (s Span) Valid() bool {
	return s.Start >= 0 && s.End >= s.Start
}

// manifestFile is the on-disk package.yaml schema.
type manifestFile struct {
	Package           *packageSection   `yaml:"package"`
	Dependencies      yaml.Node         `yaml:"dependencies"`
	DevDependencies   yaml.Node         `yaml:"dev-dependencies"`
	BuildDependencies yaml.Node         `yaml:"build-dependencies"`
	Workspace         *workspaceSection `yaml:"workspace"`
}

type packageSection struct {
	Name    string    `yaml:"name"`
	Version yaml.Node `yaml:"version"`
	Publish *bool     `yaml:"publish"`
	Include []string  `yaml:"include"`
	Exclude []string  `yaml:"exclude"`
	Release yaml.Node `yaml:"release"`
}

type workspaceSection struct {
	Members []string  `yaml:"members"`
	Exclude []string  `yaml:"exclude"`
	Release yaml.Node `yaml:"release"`
}

// manifest is a parsed manifest with token positions resolved.
type manifest struct {
	path    string
	content []byte
	file    manifestFile
	lines   []int
}

func parseManifest(path string, content []byte) (*manifest, error) {
	m := &manifest{path: path, content: content, lines: lineStarts(content)}
	if err := yaml.Unmarshal(content, &m.file); err != nil {
		return nil, &ManifestError{Path: path, Err: err}
	}
	return m, nil
}

func (m *manifest) errorf(line int, format string, args ...any) error {
	return &ManifestError{Path: m.path, Line: line, Err: fmt.Errorf(format, args...)}
}

// packageInfo extracts the package section.
func (m *manifest) packageInfo() (*Package, error) {
	sec := m.file.Package
	if sec.Name == "" {
		return nil, m.errorf(0, "package.name is required")
	}
	if sec.Version.Kind != yaml.ScalarNode {
		return nil, m.errorf(sec.Version.Line, "package.version is required")
	}
	v, err := version.Parse(sec.Version.Value)
	if err != nil {
		return nil, m.errorf(sec.Version.Line, "package.version: %w", err)
	}

	pkg := &Package{
		Name:         sec.Name,
		ManifestPath: m.path,
		Manifest:     m.content,
		Version:      v,
		VersionSpan:  m.span(&sec.Version),
		Publish:      sec.Publish == nil || *sec.Publish,
		Include:      sec.Include,
		Exclude:      sec.Exclude,
	}

	if sec.Release.Kind != 0 {
		settings, err := config.DecodeNode(&sec.Release)
		if err != nil {
			return nil, m.errorf(sec.Release.Line, "package.release: %w", err)
		}
		pkg.Release = &settings
	}

	tables := []struct {
		node *yaml.Node
		kind graph.EdgeKind
	}{
		{&m.file.Dependencies, graph.KindNormal},
		{&m.file.BuildDependencies, graph.KindBuild},
		{&m.file.DevDependencies, graph.KindDev},
	}
	for _, tbl := range tables {
		deps, err := m.dependencies(tbl.node, tbl.kind)
		if err != nil {
			return nil, err
		}
		pkg.Dependencies = append(pkg.Dependencies, deps...)
	}
	return pkg, nil
}

// dependencies decodes one dependency table. Values are either a
// requirement string or a mapping with version and optional keys.
func (m *manifest) dependencies(node *yaml.Node, kind graph.EdgeKind) ([]Dependency, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, m.errorf(node.Line, "dependency table must be a mapping")
	}

	var out []Dependency
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		dep := Dependency{Name: key.Value, Kind: kind, ReqSpan: Span{Start: -1, End: -1}}

		switch val.Kind {
		case yaml.ScalarNode:
			dep.Req = val.Value
			dep.ReqSpan = m.span(val)
		case yaml.MappingNode:
			for j := 0; j+1 < len(val.Content); j += 2 {
				k, v := val.Content[j], val.Content[j+1]
				switch k.Value {
				case "version":
					dep.Req = v.Value
					dep.ReqSpan = m.span(v)
				case "optional":
					var optional bool
					if err := v.Decode(&optional); err != nil {
						return nil, m.errorf(v.Line, "%s.optional: %w", key.Value, err)
					}
					if optional && kind == graph.KindNormal {
						dep.Kind = graph.KindOptional
					}
				}
			}
		default:
			return nil, m.errorf(val.Line, "dependency %s: expected string or mapping", key.Value)
		}
		out = append(out, dep)
	}
	return out, nil
}

// span resolves the byte range of a scalar's value. Quoted scalars are
// located inside their quotes. Scalars whose source text differs from their
// value (escapes, block scalars) yield an invalid span.
func (m *manifest) span(n *yaml.Node) Span {
	invalid := Span{Start: -1, End: -1, Line: n.Line}
	if n.Kind != yaml.ScalarNode || n.Line < 1 || n.Line > len(m.lines) {
		return invalid
	}

	start := m.offset(n.Line, n.Column)
	if start < 0 {
		return invalid
	}
	if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		start++
	}
	end := start + len(n.Value)
	if end > len(m.content) || string(m.content[start:end]) != n.Value {
		return invalid
	}
	return Span{Start: start, End: end, Line: n.Line, Text: n.Value}
}

// offset converts a 1-based line and rune column into a byte offset.
func (m *manifest) offset(line, column int) int {
	pos := m.lines[line-1]
	for c := 1; c < column; c++ {
		if pos >= len(m.content) || m.content[pos] == '\n' {
			return -1
		}
		_, size := utf8.DecodeRune(m.content[pos:])
		pos += size
	}
	return pos
}

func lineStarts(content []byte) []int {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
