package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/modhaus/modlayout/pkg/errors"
)

// buildingFile is the on-disk form of a Building. Timestamps belong to the
// store and are not written.
type buildingFile struct {
	ID       string   `json:"id,omitempty" toml:"id,omitempty" yaml:"id,omitempty"`
	SystemID string   `json:"system_id" toml:"system_id" yaml:"system_id"`
	Name     string   `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	DNAs     []string `json:"dnas" toml:"dnas" yaml:"dnas"`
	Origin   Origin   `json:"origin" toml:"origin" yaml:"origin"`
}

// Read decodes a building in the format implied by ext (".toml", ".yaml",
// ".yml" or ".json") and validates it.
func Read(r io.Reader, ext string) (*Building, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var f buildingFile
	switch strings.ToLower(ext) {
	case ".toml":
		err = toml.Unmarshal(raw, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &f)
	case ".json":
		err = json.Unmarshal(raw, &f)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported building format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s building", ext)
	}

	b := &Building{
		ID:       f.ID,
		SystemID: f.SystemID,
		Name:     f.Name,
		DNAs:     f.DNAs,
		Origin:   f.Origin,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Write encodes b in the format implied by ext.
func Write(b *Building, w io.Writer, ext string) error {
	f := buildingFile{
		ID:       b.ID,
		SystemID: b.SystemID,
		Name:     b.Name,
		DNAs:     b.DNAs,
		Origin:   b.Origin,
	}

	var buf bytes.Buffer
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.NewEncoder(&buf).Encode(f); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		enc.Close()
	case ".json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported building format %q", ext)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// ReadFile reads a building file.
func ReadFile(path string) (*Building, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "building file %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return Read(f, filepath.Ext(path))
}

// WriteFile writes b to path in the format implied by its extension.
func WriteFile(b *Building, path string) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(b, f, filepath.Ext(path))
}
