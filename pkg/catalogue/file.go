package catalogue

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/modhaus/modlayout/pkg/errors"
)

// Supported catalogue file extensions, in lookup order.
var fileExtensions = []string{".toml", ".yaml", ".yml", ".json"}

// Decode parses catalogue data in the format implied by ext.
func Decode(ext string, raw []byte) (Data, error) {
	var d Data
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		err = toml.Unmarshal(raw, &d)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &d)
	case ".json":
		err = json.Unmarshal(raw, &d)
	default:
		return Data{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported catalogue format %q", ext)
	}
	if err != nil {
		return Data{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s catalogue", ext)
	}
	return d, nil
}

// Encode serializes catalogue data in the format implied by ext.
func Encode(ext string, d Data) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(d); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "encode toml catalogue")
		}
		return buf.Bytes(), nil
	case ".yaml", ".yml":
		return yaml.Marshal(d)
	case ".json":
		return json.MarshalIndent(d, "", "  ")
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported catalogue format %q", ext)
}

// WriteFile writes one system's catalogue to path.
func WriteFile(d Data, path string) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	raw, err := Encode(filepath.Ext(path), d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// LoadFile reads one catalogue file.
func LoadFile(path string) (Data, error) {
	if err := errors.ValidatePath(path); err != nil {
		return Data{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Data{}, errors.Wrap(errors.ErrCodeNotFound, err, "catalogue file %s", path)
		}
		return Data{}, err
	}
	return Decode(filepath.Ext(path), raw)
}

// LoadSnapshot reads catalogue files into a single Snapshot.
func LoadSnapshot(paths ...string) (*Snapshot, error) {
	data := make([]Data, 0, len(paths))
	for _, p := range paths {
		d, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		data = append(data, d)
	}
	return NewSnapshot(data...)
}

// FileSource serves catalogues from a directory of <systemID>.<ext> files.
type FileSource struct {
	Dir string
}

// Fetch implements Source.
func (s FileSource) Fetch(ctx context.Context, systemID string) (*Snapshot, error) {
	if err := errors.ValidateSystemID(systemID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, ext := range fileExtensions {
		path := filepath.Join(s.Dir, systemID+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		d, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if d.SystemID == "" {
			d.SystemID = systemID
		}
		return NewSnapshot(d)
	}
	return nil, errors.NotFound("no catalogue file for system %q in %s", systemID, s.Dir)
}
