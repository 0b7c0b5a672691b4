package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/monorel/internal/config"
	"github.com/danieljhkim/monorel/internal/workspace"
)

// OverridesName names the command line settings layer.
const OverridesName = "command line"

// configLoader gathers settings sources for the packages of one workspace.
// Files shared by every package are read once.
type configLoader struct {
	e    *Engine
	ws   *workspace.Workspace
	opts ConfigOptions
	cwd  string

	custom *config.Source
	wsFile *config.Source
	user   []config.Source

	resolved map[string]*config.Resolved
}

func (e *Engine) newConfigLoader(ws *workspace.Workspace, opts ConfigOptions, cwd string) (*configLoader, error) {
	l := &configLoader{e: e, ws: ws, opts: opts, cwd: cwd, resolved: make(map[string]*config.Resolved)}

	if opts.ConfigFile != "" {
		src, err := config.LoadFile(e.fs, absPath(opts.ConfigFile, cwd))
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		l.custom = src
	}

	if opts.Isolated {
		return l, nil
	}

	src, err := config.LoadOptional(e.fs, filepath.Join(ws.Root, config.FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace config: %w", err)
	}
	l.wsFile = src

	user, err := e.configPaths.LoadUserFiles(e.fs)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	l.user = user

	return l, nil
}

// sources collects every settings source of pkg.
func (l *configLoader) sources(pkg *workspace.Package) (config.Sources, error) {
	src := config.Sources{
		CustomFile:    l.custom,
		WorkspaceFile: l.wsFile,
		UserFiles:     l.user,
		IsRoot:        pkg.IsRoot,
		Isolated:      l.opts.Isolated,
	}

	if l.opts.Overrides != nil {
		src.Overrides = &config.Source{Name: OverridesName, Settings: *l.opts.Overrides}
	}
	if pkg.Release != nil {
		src.PackageEmbedded = &config.Source{Name: pkg.ManifestPath + " (package.release)", Settings: *pkg.Release}
	}
	if l.ws.Release != nil {
		src.WorkspaceEmbedded = &config.Source{Name: l.ws.ManifestPath + " (workspace.release)", Settings: *l.ws.Release}
	}

	if !l.opts.Isolated && !pkg.IsRoot {
		file, err := config.LoadOptional(l.e.fs, filepath.Join(pkg.Dir, config.FileName))
		if err != nil {
			return config.Sources{}, fmt.Errorf("failed to load package config: %w", err)
		}
		src.PackageFile = file
	}

	return src, nil
}

// resolve returns the resolved settings of pkg and the layers consulted.
func (l *configLoader) resolve(pkg *workspace.Package) (*config.Resolved, []config.Layer, error) {
	src, err := l.sources(pkg)
	if err != nil {
		return nil, nil, err
	}
	layers := config.Stack(src)
	resolved, err := config.Resolve(layers)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration for %s: %w", pkg.Name, err)
	}
	return resolved, layers, nil
}

// resolveNamed resolves the settings of one member, once per loader.
func (l *configLoader) resolveNamed(name string) (*config.Resolved, error) {
	if cfg, ok := l.resolved[name]; ok {
		return cfg, nil
	}
	pkg, ok := l.ws.Package(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", workspace.ErrUnknownPackage, name)
	}
	cfg, _, err := l.resolve(pkg)
	if err != nil {
		return nil, err
	}
	l.resolved[name] = cfg
	return cfg, nil
}

// resolveAll resolves the settings of every named package.
func (l *configLoader) resolveAll(names []string) (map[string]*config.Resolved, error) {
	out := make(map[string]*config.Resolved, len(names))
	for _, name := range names {
		cfg, err := l.resolveNamed(name)
		if err != nil {
			return nil, err
		}
		out[name] = cfg
	}
	return out, nil
}

// Config resolves the layered settings of one package.
// Algorithm steps:
// 1. Discover the workspace
// 2. Pick the requested package, or the one containing CWD
// 3. Gather its settings sources and resolve them
func (e *Engine) Config(ctx context.Context, req *ConfigRequest) (*ConfigResult, error) {
	// Step 1: Discover workspace
	ws, err := e.DiscoverWorkspace(req.CWD)
	if err != nil {
		return nil, err
	}

	// Step 2: Pick package
	var pkg *workspace.Package
	if req.Package != "" {
		p, ok := ws.Package(req.Package)
		if !ok {
			return nil, fmt.Errorf("%w: %s", workspace.ErrUnknownPackage, req.Package)
		}
		pkg = p
	} else {
		p, err := currentPackage(ws, req.CWD)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: no package at current directory, use --package", ErrNoPackages)
		}
		pkg = p
	}

	// Step 3: Resolve
	loader, err := e.newConfigLoader(ws, req.Config, req.CWD)
	if err != nil {
		return nil, err
	}
	resolved, layers, err := loader.resolve(pkg)
	if err != nil {
		return nil, err
	}

	info := make([]LayerInfo, 0, len(layers))
	for _, layer := range layers {
		info = append(info, LayerInfo{Name: layer.Name, Kind: layer.Kind.String()})
	}

	return &ConfigResult{
		Package: pkg.Name,
		Config:  resolved,
		Layers:  info,
	}, nil
}
