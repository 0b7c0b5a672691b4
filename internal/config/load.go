package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/monorel/internal/fsops"
)

// FileName is the name of release settings files.
const FileName = "release.yaml"

// Decode parses settings from YAML. Unknown keys are rejected.
func Decode(data []byte) (Settings, error) {
	var s Settings
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return Settings{}, nil
		}
		return Settings{}, err
	}
	return s, nil
}

// DecodeNode parses settings from an already decoded YAML node, such as the
// release block embedded in a manifest. Unknown keys are rejected as in
// Decode; line numbers in errors count from the start of the block.
func DecodeNode(node *yaml.Node) (Settings, error) {
	if node == nil || node.Kind == 0 {
		return Settings{}, nil
	}
	data, err := yaml.Marshal(node)
	if err != nil {
		return Settings{}, err
	}
	return Decode(data)
}

// LoadFile reads settings from path. It returns ErrNotFound when the file
// does not exist.
func LoadFile(fsys fsops.FS, path string) (*Source, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	s, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &Source{Name: path, Settings: s}, nil
}

// LoadOptional is like LoadFile but returns nil, nil for a missing file.
func LoadOptional(fsys fsops.FS, path string) (*Source, error) {
	src, err := LoadFile(fsys, path)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return src, err
}

// Marshal renders resolved settings as YAML.
func Marshal(r *Resolved) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}
