package mutate

import (
	"context"
	"strings"

	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/dna"
	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/layout"
	"github.com/modhaus/modlayout/pkg/match"
)

// SectionType returns one alternative per other section type of the
// layout's system, ranked by cost. Every module of the layout is replaced.
func (m *Mutator) SectionType(ctx context.Context, l layout.ColumnLayout, current string) ([]SectionAlternative, error) {
	if _, err := m.Catalogue.SectionType(ctx, l.SystemID, current); err != nil {
		return nil, err
	}
	all, err := m.Catalogue.SectionTypes(ctx, l.SystemID)
	if err != nil {
		return nil, err
	}
	candidates, err := m.Catalogue.Modules(ctx, l.SystemID)
	if err != nil {
		return nil, err
	}

	var others []catalogue.SectionType
	for _, st := range all {
		if st.Code != current {
			others = append(others, st)
		}
	}

	everything := func(int, int) (int, bool) { return -1, true }
	return collect(ctx, m, "section_type", len(others), func(ctx context.Context, i int) (SectionAlternative, error) {
		sub := substitution{field: dna.FieldSectionType, value: others[i].Code}
		alt, err := m.mutateLayout(ctx, l, everything, sub, candidates)
		if err != nil {
			return SectionAlternative{}, annotate(err, "section type %s", others[i].Code)
		}
		return SectionAlternative{Alternative: alt, SectionType: others[i]}, nil
	})
}

// LevelType returns one alternative per other level type on the same floor
// class (same first letter) as current, for the row at rowIndex. Rows above
// move by the returned HeightDelta once the layout is repositioned.
func (m *Mutator) LevelType(ctx context.Context, l layout.ColumnLayout, rowIndex int, current string) ([]LevelAlternative, error) {
	if rowIndex < 0 || rowIndex >= l.RowCount() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "row index %d out of range [0,%d)", rowIndex, l.RowCount())
	}
	prev, err := m.Catalogue.LevelType(ctx, l.SystemID, current)
	if err != nil {
		return nil, err
	}
	all, err := m.Catalogue.LevelTypes(ctx, l.SystemID)
	if err != nil {
		return nil, err
	}
	candidates, err := m.Catalogue.Modules(ctx, l.SystemID)
	if err != nil {
		return nil, err
	}

	var others []catalogue.LevelType
	for _, lt := range all {
		if lt.Code != current && sameFloorClass(lt.Code, current) {
			others = append(others, lt)
		}
	}

	inRow := func(_, r int) (int, bool) { return -1, r == rowIndex }
	return collect(ctx, m, "level_type", len(others), func(ctx context.Context, i int) (LevelAlternative, error) {
		next := others[i]
		sub := substitution{field: dna.FieldLevelType, value: next.Code}
		alt, err := m.mutateLayout(ctx, l, inRow, sub, candidates)
		if err != nil {
			return LevelAlternative{}, annotate(err, "level type %s", next.Code)
		}
		return LevelAlternative{
			Alternative: alt,
			LevelType:   next,
			HeightDelta: next.Height - prev.Height,
		}, nil
	})
}

func sameFloorClass(a, b string) bool {
	return a != "" && b != "" && strings.EqualFold(a[:1], b[:1])
}

// WindowType returns one alternative per other window type available for
// side, applied to the module at (column, row, index). Candidates must carry
// the requested window type exactly.
func (m *Mutator) WindowType(ctx context.Context, l layout.ColumnLayout, column, row, index int, side catalogue.WindowSide) ([]WindowAlternative, error) {
	mod, err := l.Module(column, row, index)
	if err != nil {
		return nil, err
	}
	field, err := side.Field()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "window side")
	}
	current, _ := mod.Structured.Get(field)

	all, err := m.Catalogue.WindowTypes(ctx, l.SystemID)
	if err != nil {
		return nil, err
	}
	candidates, err := m.Catalogue.Modules(ctx, l.SystemID)
	if err != nil {
		return nil, err
	}

	var others []catalogue.WindowType
	for _, wt := range all {
		if wt.Side == side && wt.Code != current.Str {
			others = append(others, wt)
		}
	}

	oldLen := len(l.Columns[column].Rows[row].Modules)
	opts := match.Options{CompatKeys: append(append([]dna.Field(nil), match.DefaultCompatKeys...), field)}
	at := func(c, r int) (int, bool) { return index, c == column && r == row }
	return collect(ctx, m, "window_type", len(others), func(ctx context.Context, i int) (WindowAlternative, error) {
		sub := substitution{field: field, value: others[i].Code, opts: opts}
		alt, err := m.mutateLayout(ctx, l, at, sub, candidates)
		if err != nil {
			return WindowAlternative{}, annotate(err, "window type %s", others[i].Code)
		}
		return WindowAlternative{
			Alternative: alt,
			WindowType:  others[i],
			Module:      replacedModule(alt.Layout, oldLen, column, row, index, mod, field, others[i].Code),
		}, nil
	})
}

// replacedModule returns the module that took over a window change. The
// replacement segment starts at index and spans the modules added by
// padding; within it the replacement is the module that kept the original
// position type and carries the new window type.
func replacedModule(l layout.ColumnLayout, oldLen, column, row, index int, orig *catalogue.Module, field dna.Field, code string) *catalogue.Module {
	mods := l.Columns[column].Rows[row].Modules
	end := min(len(mods), index+len(mods)-oldLen+1)
	if index >= end {
		return nil
	}
	seg := mods[index:end]
	for _, pm := range seg {
		s := pm.Module.Structured
		if v, err := s.Get(field); err == nil && v.Str == code && s.PositionType == orig.Structured.PositionType {
			return pm.Module
		}
	}
	return seg[0].Module
}
