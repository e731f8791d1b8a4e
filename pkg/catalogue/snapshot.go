package catalogue

import (
	"context"
	"sort"

	"github.com/modhaus/modlayout/pkg/dna"
	"github.com/modhaus/modlayout/pkg/errors"
)

// Data is the serializable catalogue of one building system.
type Data struct {
	SystemID     string        `json:"system_id" toml:"system_id" yaml:"system_id"`
	Modules      []Module      `json:"modules" toml:"modules" yaml:"modules"`
	SectionTypes []SectionType `json:"section_types" toml:"section_types" yaml:"section_types"`
	LevelTypes   []LevelType   `json:"level_types" toml:"level_types" yaml:"level_types"`
	WindowTypes  []WindowType  `json:"window_types" toml:"window_types" yaml:"window_types"`
}

type system struct {
	data    Data
	modules []*Module
	byDNA   map[string]*Module
}

// Snapshot is an immutable, in-memory Catalogue covering one or more systems.
// It is safe for concurrent use once constructed.
type Snapshot struct {
	systems map[string]*system
	order   []string
}

var _ Catalogue = (*Snapshot)(nil)

// NewSnapshot builds a Snapshot from per-system data. Module DNAs are parsed
// up front so lookups never fail on grammar. Module IDs default to the DNA.
func NewSnapshot(data ...Data) (*Snapshot, error) {
	s := &Snapshot{systems: make(map[string]*system, len(data))}
	for _, d := range data {
		if err := errors.ValidateSystemID(d.SystemID); err != nil {
			return nil, err
		}
		if _, dup := s.systems[d.SystemID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate system %q", d.SystemID)
		}

		sys := &system{
			data:    d,
			modules: make([]*Module, 0, len(d.Modules)),
			byDNA:   make(map[string]*Module, len(d.Modules)),
		}
		for i := range d.Modules {
			m := d.Modules[i]
			parsed, err := dna.Parse(m.DNA)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "system %s: module %d", d.SystemID, i)
			}
			m.Structured = parsed
			m.SystemID = d.SystemID
			if m.ID == "" {
				m.ID = m.DNA
			}
			if _, dup := sys.byDNA[m.DNA]; dup {
				return nil, errors.New(errors.ErrCodeInvalidInput, "system %s: duplicate module dna %q", d.SystemID, m.DNA)
			}
			sys.modules = append(sys.modules, &m)
			sys.byDNA[m.DNA] = &m
		}
		s.systems[d.SystemID] = sys
		s.order = append(s.order, d.SystemID)
	}
	return s, nil
}

// MustSnapshot is like NewSnapshot but panics on error. Intended for fixtures.
func MustSnapshot(data ...Data) *Snapshot {
	s, err := NewSnapshot(data...)
	if err != nil {
		panic(err)
	}
	return s
}

// Systems returns the system IDs in the order they were added.
func (s *Snapshot) Systems() []string {
	return append([]string(nil), s.order...)
}

// Data returns the serializable form of one system.
func (s *Snapshot) Data(systemID string) (Data, bool) {
	sys, ok := s.systems[systemID]
	if !ok {
		return Data{}, false
	}
	return sys.data, true
}

func (s *Snapshot) system(ctx context.Context, systemID string) (*system, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sys, ok := s.systems[systemID]
	if !ok {
		return nil, errors.NotFound("unknown system %q", systemID)
	}
	return sys, nil
}

// Modules returns every module of a system in catalogue order.
func (s *Snapshot) Modules(ctx context.Context, systemID string) ([]*Module, error) {
	sys, err := s.system(ctx, systemID)
	if err != nil {
		return nil, err
	}
	return append([]*Module(nil), sys.modules...), nil
}

// ModuleByDNA looks up a module by its exact DNA string.
func (s *Snapshot) ModuleByDNA(ctx context.Context, systemID, raw string) (*Module, error) {
	sys, err := s.system(ctx, systemID)
	if err != nil {
		return nil, err
	}
	m, ok := sys.byDNA[raw]
	if !ok {
		return nil, errors.NotFound("system %s: no module with dna %q", systemID, raw)
	}
	return m, nil
}

// VanillaModule returns the shortest vanilla module matching key.
// Catalogue order breaks ties.
func (s *Snapshot) VanillaModule(ctx context.Context, systemID string, key VanillaKey) (*Module, error) {
	sys, err := s.system(ctx, systemID)
	if err != nil {
		return nil, err
	}
	var matches []*Module
	for _, m := range sys.modules {
		if m.Vanilla && KeyOf(m.Structured) == key {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		return nil, errors.NotFound("system %s: no vanilla module for %s", systemID, key)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Length < matches[j].Length
	})
	return matches[0], nil
}

// SectionTypes returns the section types of a system in catalogue order.
func (s *Snapshot) SectionTypes(ctx context.Context, systemID string) ([]SectionType, error) {
	sys, err := s.system(ctx, systemID)
	if err != nil {
		return nil, err
	}
	return append([]SectionType(nil), sys.data.SectionTypes...), nil
}

// SectionType looks up a section type by code.
func (s *Snapshot) SectionType(ctx context.Context, systemID, code string) (SectionType, error) {
	all, err := s.SectionTypes(ctx, systemID)
	if err != nil {
		return SectionType{}, err
	}
	for _, st := range all {
		if st.Code == code {
			return st, nil
		}
	}
	return SectionType{}, errors.NotFound("system %s: unknown section type %q", systemID, code)
}

// LevelTypes returns the level types of a system in catalogue order.
func (s *Snapshot) LevelTypes(ctx context.Context, systemID string) ([]LevelType, error) {
	sys, err := s.system(ctx, systemID)
	if err != nil {
		return nil, err
	}
	return append([]LevelType(nil), sys.data.LevelTypes...), nil
}

// LevelType looks up a level type by code.
func (s *Snapshot) LevelType(ctx context.Context, systemID, code string) (LevelType, error) {
	all, err := s.LevelTypes(ctx, systemID)
	if err != nil {
		return LevelType{}, err
	}
	for _, lt := range all {
		if lt.Code == code {
			return lt, nil
		}
	}
	return LevelType{}, errors.NotFound("system %s: unknown level type %q", systemID, code)
}

// WindowTypes returns the window types of a system in catalogue order.
func (s *Snapshot) WindowTypes(ctx context.Context, systemID string) ([]WindowType, error) {
	sys, err := s.system(ctx, systemID)
	if err != nil {
		return nil, err
	}
	return append([]WindowType(nil), sys.data.WindowTypes...), nil
}
