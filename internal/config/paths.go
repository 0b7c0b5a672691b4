package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/danieljhkim/monorel/internal/fsops"
)

// Env holds the environment variables monorel reads.
type Env struct {
	// ConfigHome overrides the user configuration directory.
	ConfigHome string `env:"MONOREL_CONFIG_HOME"`

	// XDGConfigHome is the XDG base directory for user configuration.
	XDGConfigHome string `env:"XDG_CONFIG_HOME"`

	// PublishGraceSleep is the wait recorded between publishing steps.
	PublishGraceSleep time.Duration `env:"MONOREL_PUBLISH_GRACE_SLEEP" envDefault:"0s"`

	// RegistryIndex is a directory holding a file-based registry index.
	RegistryIndex string `env:"MONOREL_REGISTRY_INDEX"`
}

// ParseEnv populates target from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (*Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Paths contains the user-level configuration file locations.
type Paths struct {
	// Dir is the monorel user configuration directory.
	Dir string

	// UserFiles lists user settings files, most specific first.
	UserFiles []string
}

// DefaultPaths returns the user configuration paths.
// The directory can be overridden with environment variables:
//   - MONOREL_CONFIG_HOME: the monorel configuration directory
//   - XDG_CONFIG_HOME: the base directory ($XDG_CONFIG_HOME/monorel)
//
// The legacy ~/.release.yaml is always consulted last.
func DefaultPaths(e *Env) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	dir := e.ConfigHome
	if dir == "" {
		base := e.XDGConfigHome
		if base == "" {
			base = filepath.Join(home, ".config")
		}
		dir = filepath.Join(base, "monorel")
	}

	return &Paths{
		Dir: dir,
		UserFiles: []string{
			filepath.Join(dir, FileName),
			filepath.Join(home, "."+FileName),
		},
	}, nil
}

// LoadUserFiles loads every existing user settings file in order.
func (p *Paths) LoadUserFiles(fsys fsops.FS) ([]Source, error) {
	var out []Source
	for _, path := range p.UserFiles {
		src, err := LoadOptional(fsys, path)
		if err != nil {
			return nil, err
		}
		if src != nil {
			out = append(out, *src)
		}
	}
	return out, nil
}
