// Package store persists buildings: a system ID, the DNA list the building
// was laid out from, and its world origin.
//
// Buildings are the unit that survives between engine calls. A caller builds
// a layout from a stored building, mutates or stretches it, and writes the
// resulting DNA list (and shifted origin, after a start-side stretch) back
// with [Store.UpdateDNAs].
//
// # Backends
//
// [SQLiteStore] is the only backend. It uses the pure-Go modernc.org/sqlite
// driver, so no cgo toolchain is needed:
//
//	s, err := store.NewSQLiteStore(filepath.Join(dir, "buildings.db"))
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	b, err := s.Save(ctx, store.NewBuilding("skylark", "north wing", dnas))
//
// # Building Files
//
// [ReadFile] and [WriteFile] move buildings in and out of TOML, YAML or JSON
// files so that they can be versioned alongside catalogue snapshots.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/modhaus/modlayout/pkg/errors"
)

// Origin is a building's world position. Column offsets run from it along
// the stretch axis.
type Origin struct {
	X float64 `json:"x" toml:"x" yaml:"x"`
	Y float64 `json:"y" toml:"y" yaml:"y"`
	Z float64 `json:"z" toml:"z" yaml:"z"`
}

// Building is one persisted building.
type Building struct {
	ID        string    `json:"id" toml:"id,omitempty" yaml:"id,omitempty"`
	SystemID  string    `json:"system_id" toml:"system_id" yaml:"system_id"`
	Name      string    `json:"name" toml:"name" yaml:"name"`
	DNAs      []string  `json:"dnas" toml:"dnas" yaml:"dnas"`
	Origin    Origin    `json:"origin" toml:"origin" yaml:"origin"`
	CreatedAt time.Time `json:"created_at" toml:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at" toml:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// NewBuilding returns an unsaved building with a fresh ID.
func NewBuilding(systemID, name string, dnas []string) *Building {
	return &Building{
		ID:       uuid.NewString(),
		SystemID: systemID,
		Name:     name,
		DNAs:     append([]string(nil), dnas...),
	}
}

// Validate checks the fields every stored building must carry.
func (b *Building) Validate() error {
	if b == nil {
		return errors.New(errors.ErrCodeInvalidInput, "building is nil")
	}
	if err := errors.ValidateSystemID(b.SystemID); err != nil {
		return err
	}
	return errors.ValidateDNAList(b.DNAs)
}

// ListOptions filters [Store.List].
type ListOptions struct {
	SystemID string // empty lists every system
	Limit    int    // zero means no limit
}

// Store is the interface for building storage backends.
type Store interface {
	// Save inserts b, or replaces the stored building with the same ID.
	// An empty ID is assigned a new UUID.
	Save(ctx context.Context, b *Building) (*Building, error)

	// Get returns the building with the given ID or a NOT_FOUND error.
	Get(ctx context.Context, id string) (*Building, error)

	// List returns buildings, most recently updated first.
	List(ctx context.Context, opts ListOptions) ([]*Building, error)

	// Delete removes a building. Deleting a missing ID is NOT_FOUND.
	Delete(ctx context.Context, id string) error

	// UpdateDNAs replaces a building's DNA list and origin.
	UpdateDNAs(ctx context.Context, id string, dnas []string, origin Origin) (*Building, error)

	// Close releases the backend.
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
