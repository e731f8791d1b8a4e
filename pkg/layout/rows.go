package layout

import (
	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/dna"
	"github.com/modhaus/modlayout/pkg/errors"
)

// ModulesToRows splits a module sequence into rows. Every other END module,
// counting from the first, opens a new row; everything up to the next
// opening END belongs to the current row.
//
// The split never fails. Unpaired END modules produce rows that
// [ValidateRow] rejects.
func ModulesToRows(modules []*catalogue.Module) [][]*catalogue.Module {
	var rows [][]*catalogue.Module
	ends := 0
	for _, m := range modules {
		opens := false
		if m.Structured.IsEnd() {
			opens = ends%2 == 0
			ends++
		}
		if opens || len(rows) == 0 {
			rows = append(rows, nil)
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], m)
	}
	return rows
}

// ValidateRow checks that a full building row starts and ends with an END
// module, holds only MID modules in between and keeps one level type and
// section type throughout.
func ValidateRow(index int, row []*catalogue.Module) error {
	if len(row) < 2 {
		return errors.Malformed("row %d: %d module(s), need an END module at each end", index, len(row))
	}
	first := row[0].Structured
	for i, m := range row {
		s := m.Structured
		bookend := i == 0 || i == len(row)-1
		switch {
		case bookend && s.PositionType != dna.PositionEnd:
			return errors.Malformed("row %d: module %d (%s) must be an END module", index, i, m.DNA)
		case !bookend && s.PositionType != dna.PositionMid:
			return errors.Malformed("row %d: module %d (%s) must be a MID module", index, i, m.DNA)
		case s.LevelType != first.LevelType:
			return errors.Malformed("row %d: module %d (%s) has level type %s, row has %s", index, i, m.DNA, s.LevelType, first.LevelType)
		case s.SectionType != first.SectionType:
			return errors.Malformed("row %d: module %d (%s) has section type %s, row has %s", index, i, m.DNA, s.SectionType, first.SectionType)
		}
	}
	return nil
}

// ValidateRows validates every row in order.
func ValidateRows(rows [][]*catalogue.Module) error {
	if len(rows) == 0 {
		return errors.Malformed("building has no rows")
	}
	for i, row := range rows {
		if err := ValidateRow(i, row); err != nil {
			return err
		}
	}
	return nil
}

// Slice groups consecutive modules of a row that share position type and
// grid type.
func Slice(row []*catalogue.Module) [][]*catalogue.Module {
	var slices [][]*catalogue.Module
	for i, m := range row {
		if i > 0 {
			prev := row[i-1].Structured
			if prev.PositionType == m.Structured.PositionType && prev.GridType == m.Structured.GridType {
				slices[len(slices)-1] = append(slices[len(slices)-1], m)
				continue
			}
		}
		slices = append(slices, []*catalogue.Module{m})
	}
	return slices
}

func gridUnits(modules []*catalogue.Module) int {
	n := 0
	for _, m := range modules {
		n += m.Structured.GridUnits
	}
	return n
}
