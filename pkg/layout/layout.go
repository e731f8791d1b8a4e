package layout

import (
	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/errors"
)

// PositionedModule places a catalogue module within a column row.
// Z is the module's centerline offset from the start of the column row.
type PositionedModule struct {
	Module *catalogue.Module
	Index  int
	Z      float64
}

// Row is the part of one building row that falls inside a column.
type Row struct {
	Modules   []PositionedModule
	GridUnits int
	Depth     float64
}

// LevelType returns the level type shared by the row's modules.
func (r Row) LevelType() string {
	if len(r.Modules) == 0 {
		return ""
	}
	return r.Modules[0].Module.Structured.LevelType
}

// SectionType returns the section type shared by the row's modules.
func (r Row) SectionType() string {
	if len(r.Modules) == 0 {
		return ""
	}
	return r.Modules[0].Module.Structured.SectionType
}

// Height returns the height of the row's modules.
func (r Row) Height() float64 {
	if len(r.Modules) == 0 {
		return 0
	}
	return r.Modules[0].Module.Height
}

// Catalogue returns the row's modules in order.
func (r Row) Catalogue() []*catalogue.Module {
	out := make([]*catalogue.Module, len(r.Modules))
	for i, pm := range r.Modules {
		out[i] = pm.Module
	}
	return out
}

// PositionedRow is a Row with its level index and vertical offset.
type PositionedRow struct {
	Row
	Index int
	Y     float64
}

// Column is a depth-wise slice of the building, one row per level.
type Column struct {
	Rows []PositionedRow
}

// Depth returns the column's depth, taken from its first row.
func (c Column) Depth() float64 {
	if len(c.Rows) == 0 {
		return 0
	}
	return c.Rows[0].Depth
}

// GridUnits returns the column's grid units, taken from its first row.
func (c Column) GridUnits() int {
	if len(c.Rows) == 0 {
		return 0
	}
	return c.Rows[0].GridUnits
}

// PositionedColumn is a Column with its index and depth-wise offset.
// Uncommitted filler columns carry Index -1.
type PositionedColumn struct {
	Column
	Index int
	Z     float64
}

// ColumnLayout is the complete structural description of one building variant.
type ColumnLayout struct {
	SystemID string
	Columns  []PositionedColumn
}

// Depth returns the total depth of the layout.
func (l ColumnLayout) Depth() float64 {
	var d float64
	for _, c := range l.Columns {
		d += c.Depth()
	}
	return Round3(d)
}

// RowCount returns the number of rows per column.
func (l ColumnLayout) RowCount() int {
	if len(l.Columns) == 0 {
		return 0
	}
	return len(l.Columns[0].Rows)
}

// Grid returns the layout's modules indexed by column, row and position.
// The grid shares module pointers with the layout but no slices.
func (l ColumnLayout) Grid() [][][]*catalogue.Module {
	grid := make([][][]*catalogue.Module, len(l.Columns))
	for c, col := range l.Columns {
		grid[c] = make([][]*catalogue.Module, len(col.Rows))
		for r, row := range col.Rows {
			grid[c][r] = row.Catalogue()
		}
	}
	return grid
}

// Module returns the module at the given column, row and position.
func (l ColumnLayout) Module(column, row, index int) (*catalogue.Module, error) {
	if column < 0 || column >= len(l.Columns) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "column index %d out of range [0,%d)", column, len(l.Columns))
	}
	rows := l.Columns[column].Rows
	if row < 0 || row >= len(rows) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "row index %d out of range [0,%d)", row, len(rows))
	}
	mods := rows[row].Modules
	if index < 0 || index >= len(mods) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "module index %d out of range [0,%d)", index, len(mods))
	}
	return mods[index].Module, nil
}

// Clone returns a copy of l that shares module pointers but no slices.
func (l ColumnLayout) Clone() ColumnLayout {
	out := ColumnLayout{SystemID: l.SystemID, Columns: make([]PositionedColumn, len(l.Columns))}
	for c, col := range l.Columns {
		out.Columns[c] = col
		out.Columns[c].Rows = make([]PositionedRow, len(col.Rows))
		for r, row := range col.Rows {
			out.Columns[c].Rows[r] = row
			out.Columns[c].Rows[r].Modules = append([]PositionedModule(nil), row.Modules...)
		}
	}
	return out
}
