package config

// Kind identifies where a layer came from. Lower values take precedence.
type Kind int

const (
	KindOverrides Kind = iota
	KindCustomFile
	KindPackageEmbedded
	KindPackageFile
	KindWorkspaceEmbedded
	KindWorkspaceFile
	KindUserFile
	KindDefaults
)

func (k Kind) String() string {
	switch k {
	case KindOverrides:
		return "overrides"
	case KindCustomFile:
		return "custom-file"
	case KindPackageEmbedded:
		return "package-manifest"
	case KindPackageFile:
		return "package-file"
	case KindWorkspaceEmbedded:
		return "workspace-manifest"
	case KindWorkspaceFile:
		return "workspace-file"
	case KindUserFile:
		return "user-file"
	case KindDefaults:
		return "defaults"
	default:
		return "unknown"
	}
}

// Layer is one named source of settings.
type Layer struct {
	// Name identifies the source in provenance output (usually a file path).
	Name     string
	Kind     Kind
	Settings Settings
}

// Source is a loaded settings source that may become a layer.
type Source struct {
	Name     string
	Settings Settings
}

// Sources collects every settings source known for one package. Nil
// entries are absent.
type Sources struct {
	Overrides         *Source
	CustomFile        *Source
	PackageEmbedded   *Source
	PackageFile       *Source
	WorkspaceEmbedded *Source
	WorkspaceFile     *Source

	// UserFiles are ordered most specific first.
	UserFiles []Source

	// IsRoot is true when the package lives at the workspace root. Its
	// package file and the workspace file are then the same file, which is
	// listed once as the package file.
	IsRoot bool

	// Isolated drops the implicit configuration files (package, workspace
	// and user files).
	Isolated bool
}

// Stack returns the layers for src in precedence order, ending with the
// built-in defaults.
func Stack(src Sources) []Layer {
	var layers []Layer
	add := func(s *Source, kind Kind) {
		if s == nil {
			return
		}
		layers = append(layers, Layer{Name: s.Name, Kind: kind, Settings: s.Settings})
	}

	add(src.Overrides, KindOverrides)
	add(src.CustomFile, KindCustomFile)
	add(src.PackageEmbedded, KindPackageEmbedded)

	if !src.Isolated {
		pkgFile := src.PackageFile
		if src.IsRoot && pkgFile == nil {
			pkgFile = src.WorkspaceFile
		}
		add(pkgFile, KindPackageFile)
	}

	add(src.WorkspaceEmbedded, KindWorkspaceEmbedded)

	if !src.Isolated {
		if !src.IsRoot {
			add(src.WorkspaceFile, KindWorkspaceFile)
		}
		for i := range src.UserFiles {
			add(&src.UserFiles[i], KindUserFile)
		}
	}

	layers = append(layers, Layer{Name: KindDefaults.String(), Kind: KindDefaults, Settings: Defaults(src.IsRoot)})
	return layers
}
