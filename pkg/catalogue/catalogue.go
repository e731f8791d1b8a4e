package catalogue

import (
	"context"
	"fmt"

	"github.com/modhaus/modlayout/pkg/dna"
)

// Module is an immutable catalogue entry. Layout structures hold pointers to
// Modules owned by a Snapshot and never modify them.
type Module struct {
	ID         string         `json:"id" toml:"id" yaml:"id"`
	SystemID   string         `json:"system_id" toml:"system_id" yaml:"system_id"`
	DNA        string         `json:"dna" toml:"dna" yaml:"dna"`
	Structured dna.Structured `json:"-" toml:"-" yaml:"-"`
	Length     float64        `json:"length" toml:"length" yaml:"length"`
	Width      float64        `json:"width" toml:"width" yaml:"width"`
	Height     float64        `json:"height" toml:"height" yaml:"height"`
	Vanilla    bool           `json:"vanilla,omitempty" toml:"vanilla" yaml:"vanilla,omitempty"`
}

// SectionType is a building cross-section profile.
type SectionType struct {
	Code        string  `json:"code" toml:"code" yaml:"code"`
	Description string  `json:"description,omitempty" toml:"description" yaml:"description,omitempty"`
	Width       float64 `json:"width" toml:"width" yaml:"width"`
	Height      float64 `json:"height" toml:"height" yaml:"height"`
}

// LevelType is a floor-to-floor height class.
type LevelType struct {
	Code        string  `json:"code" toml:"code" yaml:"code"`
	Description string  `json:"description,omitempty" toml:"description" yaml:"description,omitempty"`
	Height      float64 `json:"height" toml:"height" yaml:"height"`
}

// WindowSide names the face of a module a window type applies to.
type WindowSide string

const (
	SideEnd   WindowSide = "END"
	SideSide1 WindowSide = "SIDE1"
	SideSide2 WindowSide = "SIDE2"
	SideTop   WindowSide = "TOP"
)

// Field returns the DNA field that carries this side's window type.
func (s WindowSide) Field() (dna.Field, error) {
	switch s {
	case SideEnd:
		return dna.FieldWindowTypeEnd, nil
	case SideSide1:
		return dna.FieldWindowTypeSide1, nil
	case SideSide2:
		return dna.FieldWindowTypeSide2, nil
	case SideTop:
		return dna.FieldWindowTypeTop, nil
	}
	return "", fmt.Errorf("unknown window side %q", s)
}

// WindowType is an opening option for one side of a module.
type WindowType struct {
	Code        string     `json:"code" toml:"code" yaml:"code"`
	Description string     `json:"description,omitempty" toml:"description" yaml:"description,omitempty"`
	Side        WindowSide `json:"side" toml:"side" yaml:"side"`
}

// VanillaKey selects a filler module.
type VanillaKey struct {
	SectionType  string
	PositionType dna.PositionType
	LevelType    string
	GridType     string
}

// String implements fmt.Stringer.
func (k VanillaKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.SectionType, k.PositionType, k.LevelType, k.GridType)
}

// KeyOf returns the vanilla key matching a structured DNA.
func KeyOf(s dna.Structured) VanillaKey {
	return VanillaKey{
		SectionType:  s.SectionType,
		PositionType: s.PositionType,
		LevelType:    s.LevelType,
		GridType:     s.GridType,
	}
}

// Catalogue is the lookup surface the engine consumes. Every method may
// fail; misses are reported with errors.ErrCodeNotFound.
type Catalogue interface {
	Modules(ctx context.Context, systemID string) ([]*Module, error)
	ModuleByDNA(ctx context.Context, systemID, dna string) (*Module, error)
	VanillaModule(ctx context.Context, systemID string, key VanillaKey) (*Module, error)
	SectionTypes(ctx context.Context, systemID string) ([]SectionType, error)
	SectionType(ctx context.Context, systemID, code string) (SectionType, error)
	LevelTypes(ctx context.Context, systemID string) ([]LevelType, error)
	LevelType(ctx context.Context, systemID, code string) (LevelType, error)
	WindowTypes(ctx context.Context, systemID string) ([]WindowType, error)
}

// Source fetches the catalogue data of one building system.
type Source interface {
	Fetch(ctx context.Context, systemID string) (*Snapshot, error)
}
