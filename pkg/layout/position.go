package layout

import (
	"math"

	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/dna"
	"github.com/modhaus/modlayout/pkg/errors"
)

// precision is the number of decimal places offsets are rounded to.
const precision = 1000

// Round3 rounds v to the offset precision shared by every positioned value.
func Round3(v float64) float64 {
	return math.Round(v*precision) / precision
}

// CreatePositionedModules places modules along a row by centerline: the
// first sits at half its length, each next one half its own length past the
// far edge of the previous.
func CreatePositionedModules(modules []*catalogue.Module) []PositionedModule {
	out := make([]PositionedModule, len(modules))
	for i, m := range modules {
		z := m.Length / 2
		if i > 0 {
			prev := out[i-1]
			z = prev.Z + prev.Module.Length/2 + m.Length/2
		}
		out[i] = PositionedModule{Module: m, Index: i, Z: Round3(z)}
	}
	return out
}

// NewRow positions modules and derives the row's grid units and depth.
func NewRow(modules []*catalogue.Module) Row {
	var depth float64
	for _, m := range modules {
		depth += m.Length
	}
	return Row{
		Modules:   CreatePositionedModules(modules),
		GridUnits: gridUnits(modules),
		Depth:     Round3(depth),
	}
}

// PositionRows stacks rows bottom up. Foundation rows sit at zero; every
// other row sits on top of the row below it.
func PositionRows(rows []Row) []PositionedRow {
	out := make([]PositionedRow, len(rows))
	for i, r := range rows {
		var y float64
		if i > 0 && !dna.IsFoundation(r.LevelType()) {
			prev := out[i-1]
			y = prev.Y + prev.Height()
		}
		out[i] = PositionedRow{Row: r, Index: i, Y: Round3(y)}
	}
	return out
}

// PositionColumns places columns one after another along the depth axis.
func PositionColumns(columns []Column) []PositionedColumn {
	out := make([]PositionedColumn, len(columns))
	for i, c := range columns {
		var z float64
		if i > 0 {
			prev := out[i-1]
			z = prev.Z + prev.Depth()
		}
		out[i] = PositionedColumn{Column: c, Index: i, Z: Round3(z)}
	}
	return out
}

// Assemble positions a module grid indexed by column, row and position.
// Every column must hold the same number of rows and every row of a column
// the same number of grid units.
func Assemble(systemID string, grid [][][]*catalogue.Module) (ColumnLayout, error) {
	columns := make([]Column, len(grid))
	for c, col := range grid {
		rows := make([]Row, len(col))
		for r, mods := range col {
			rows[r] = NewRow(mods)
		}
		columns[c] = Column{Rows: PositionRows(rows)}
	}
	l := ColumnLayout{SystemID: systemID, Columns: PositionColumns(columns)}
	if err := Validate(l); err != nil {
		return ColumnLayout{}, err
	}
	return l, nil
}

// Build runs the full pipeline from a module sequence to a positioned layout.
func Build(systemID string, modules []*catalogue.Module) (ColumnLayout, error) {
	if len(modules) == 0 {
		return ColumnLayout{}, errors.Malformed("no modules to lay out")
	}
	grid, err := ModulesToColumns(modules)
	if err != nil {
		return ColumnLayout{}, err
	}
	return Assemble(systemID, grid)
}

// Reposition re-derives every row from its modules and positions the
// layout again.
func Reposition(l ColumnLayout) (ColumnLayout, error) {
	return Assemble(l.SystemID, l.Grid())
}

// Validate checks column uniformity: every column has the same number of
// rows, no row is empty and every row of a column carries the column's grid
// units.
func Validate(l ColumnLayout) error {
	rows := l.RowCount()
	for c, col := range l.Columns {
		if len(col.Rows) != rows {
			return errors.New(errors.ErrCodeLengthMismatch, "column %d has %d rows, column 0 has %d", c, len(col.Rows), rows)
		}
		for r, row := range col.Rows {
			if len(row.Modules) == 0 {
				return errors.Malformed("column %d row %d is empty", c, r)
			}
			if row.GridUnits != col.GridUnits() {
				return errors.Malformed("column %d row %d has %d grid units, column has %d", c, r, row.GridUnits, col.GridUnits())
			}
		}
	}
	return nil
}
