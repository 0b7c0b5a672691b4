package fsops

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestValidateRelPath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{
			name:      "valid relative path",
			path:      "foo/bar/baz.txt",
			wantError: false,
		},
		{
			name:      "valid single file",
			path:      "README.md",
			wantError: false,
		},
		{
			name:      "empty path",
			path:      "",
			wantError: true,
		},
		{
			name:      "current directory",
			path:      ".",
			wantError: true,
		},
		{
			name:      "absolute path",
			path:      "/etc/hosts",
			wantError: true,
		},
		{
			name:      "parent directory traversal",
			path:      "../etc/hosts",
			wantError: true,
		},
		{
			name:      "traversal in middle",
			path:      "foo/../../../etc/hosts",
			wantError: true,
		},
		{
			name:      "dotted name is not traversal",
			path:      "..changelog",
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRelPath(tt.path)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateRelPath(%q) error = %v, wantError %v", tt.path, err, tt.wantError)
			}
		})
	}
}

func TestRealFS(t *testing.T) {
	tmpDir := t.TempDir()
	fs := NewRealFS()

	if err := os.MkdirAll(filepath.Join(tmpDir, "libs", "core"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	manifest := filepath.Join(tmpDir, "libs", "core", "package.yaml")
	if err := os.WriteFile(manifest, []byte("package: {}\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	t.Run("Exists", func(t *testing.T) {
		ok, err := fs.Exists(manifest)
		if err != nil || !ok {
			t.Errorf("Exists(manifest) = %v, %v", ok, err)
		}
		ok, err = fs.Exists(filepath.Join(tmpDir, "missing"))
		if err != nil || ok {
			t.Errorf("Exists(missing) = %v, %v", ok, err)
		}
	})

	t.Run("IsDir", func(t *testing.T) {
		ok, err := fs.IsDir(filepath.Join(tmpDir, "libs"))
		if err != nil || !ok {
			t.Errorf("IsDir(libs) = %v, %v", ok, err)
		}
		ok, err = fs.IsDir(manifest)
		if err != nil || ok {
			t.Errorf("IsDir(manifest) = %v, %v", ok, err)
		}
	})

	t.Run("ReadFile", func(t *testing.T) {
		data, err := fs.ReadFile(manifest)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if string(data) != "package: {}\n" {
			t.Errorf("unexpected content %q", data)
		}
	})

	t.Run("Glob", func(t *testing.T) {
		got, err := fs.Glob(filepath.Join(tmpDir, "libs", "*"))
		if err != nil {
			t.Fatalf("Glob failed: %v", err)
		}
		want := []string{filepath.Join(tmpDir, "libs", "core")}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Glob = %v, want %v", got, want)
		}
	})
}

func TestMemFS(t *testing.T) {
	fs := NewMemFS()
	fs.WriteFile("/ws/package.yaml", []byte("root"))
	fs.WriteFile("/ws/libs/a/package.yaml", []byte("a"))
	fs.WriteFile("/ws/libs/b/package.yaml", []byte("b"))

	t.Run("ReadFile", func(t *testing.T) {
		data, err := fs.ReadFile("/ws/libs/a/package.yaml")
		if err != nil || string(data) != "a" {
			t.Errorf("ReadFile = %q, %v", data, err)
		}
		if _, err := fs.ReadFile("/ws/missing"); !os.IsNotExist(err) {
			t.Errorf("expected not-exist error, got %v", err)
		}
	})

	t.Run("implied directories", func(t *testing.T) {
		ok, _ := fs.IsDir("/ws/libs")
		if !ok {
			t.Error("expected /ws/libs to be a directory")
		}
		ok, _ = fs.IsDir("/ws/package.yaml")
		if ok {
			t.Error("file should not be a directory")
		}
		ok, _ = fs.Exists("/ws/libs/b")
		if !ok {
			t.Error("expected /ws/libs/b to exist")
		}
	})

	t.Run("Glob", func(t *testing.T) {
		got, err := fs.Glob("/ws/libs/*")
		if err != nil {
			t.Fatalf("Glob failed: %v", err)
		}
		want := []string{"/ws/libs/a", "/ws/libs/b"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Glob = %v, want %v", got, want)
		}
	})

	t.Run("Glob rejects bad pattern", func(t *testing.T) {
		if _, err := fs.Glob("/ws/[a"); err == nil {
			t.Error("expected error for malformed pattern")
		}
	})
}
