package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danieljhkim/monorel/internal/fsops"
)

func TestDefaultPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	t.Run("falls back to ~/.config/monorel", func(t *testing.T) {
		paths, err := DefaultPaths(&Env{})
		if err != nil {
			t.Fatalf("DefaultPaths failed: %v", err)
		}

		wantDir := filepath.Join(home, ".config", "monorel")
		if paths.Dir != wantDir {
			t.Errorf("Dir = %s, want %s", paths.Dir, wantDir)
		}
		if len(paths.UserFiles) != 2 {
			t.Fatalf("expected 2 user files, got %v", paths.UserFiles)
		}
		if paths.UserFiles[0] != filepath.Join(wantDir, "release.yaml") {
			t.Errorf("first user file = %s", paths.UserFiles[0])
		}
		if paths.UserFiles[1] != filepath.Join(home, ".release.yaml") {
			t.Errorf("second user file = %s", paths.UserFiles[1])
		}
	})

	t.Run("respects XDG_CONFIG_HOME", func(t *testing.T) {
		paths, err := DefaultPaths(&Env{XDGConfigHome: "/xdg"})
		if err != nil {
			t.Fatalf("DefaultPaths failed: %v", err)
		}
		if paths.Dir != filepath.Join("/xdg", "monorel") {
			t.Errorf("Dir = %s", paths.Dir)
		}
	})

	t.Run("MONOREL_CONFIG_HOME has highest priority", func(t *testing.T) {
		paths, err := DefaultPaths(&Env{ConfigHome: "/custom", XDGConfigHome: "/xdg"})
		if err != nil {
			t.Fatalf("DefaultPaths failed: %v", err)
		}
		if paths.Dir != "/custom" {
			t.Errorf("Dir = %s, want /custom", paths.Dir)
		}
	})
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("MONOREL_CONFIG_HOME", "/cfg")
	t.Setenv("MONOREL_PUBLISH_GRACE_SLEEP", "5s")
	t.Setenv("MONOREL_REGISTRY_INDEX", "/index")

	e, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}
	if e.ConfigHome != "/cfg" {
		t.Errorf("ConfigHome = %q", e.ConfigHome)
	}
	if e.PublishGraceSleep != 5*time.Second {
		t.Errorf("PublishGraceSleep = %v", e.PublishGraceSleep)
	}
	if e.RegistryIndex != "/index" {
		t.Errorf("RegistryIndex = %q", e.RegistryIndex)
	}
}

func TestLoadEnv_InvalidDuration(t *testing.T) {
	t.Setenv("MONOREL_PUBLISH_GRACE_SLEEP", "soon")

	if _, err := LoadEnv(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoadUserFiles(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "release.yaml")
	if err := os.WriteFile(present, []byte("push: false\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	paths := &Paths{Dir: dir, UserFiles: []string{present, filepath.Join(dir, "missing.yaml")}}
	sources, err := paths.LoadUserFiles(fsops.NewRealFS())
	if err != nil {
		t.Fatalf("LoadUserFiles failed: %v", err)
	}
	if len(sources) != 1 || sources[0].Name != present {
		t.Fatalf("unexpected sources: %+v", sources)
	}
	if sources[0].Settings.Push == nil || *sources[0].Settings.Push {
		t.Error("expected push: false")
	}
}
