package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/danieljhkim/monorel/internal/clock"
	"github.com/danieljhkim/monorel/internal/config"
	"github.com/danieljhkim/monorel/internal/engine"
	"github.com/danieljhkim/monorel/internal/fsops"
	"github.com/danieljhkim/monorel/internal/gitx"
	"github.com/danieljhkim/monorel/internal/hash"
	"github.com/danieljhkim/monorel/internal/registry"
)

var (
	// engineFactory builds the engine used by commands.
	engineFactory = newEngine

	// getwd returns the directory commands operate from.
	getwd = os.Getwd
)

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine() (*engine.Engine, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	// Get default paths
	paths, err := config.DefaultPaths(env)
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	// Create real implementations
	fs := fsops.NewRealFS()
	gitRepo := gitx.NewRealGitRepo()
	hasher := hash.NewSHA256Hasher()
	clk := &clock.RealClock{}

	// Create engine
	return engine.New(gitRepo, registryOpener(env.RegistryIndex), fs, hasher, clk, *paths, env.PublishGraceSleep), nil
}

// registryOpener serves registries from a file-based index. Without an
// index directory no registry checks run.
func registryOpener(indexDir string) engine.RegistryOpener {
	return func(name string) registry.Registry {
		if indexDir == "" {
			return nil
		}
		return registry.NewIndexRegistry(indexDir, name)
	}
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON writes a value as JSON to w.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
