package layout

import (
	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/errors"
)

// window is a half-open range [start, end) into one row's slice list.
type window struct {
	start, end int
}

// Columnify aligns per-row slice lists into columns of equal grid units.
//
// Each row keeps a window over its slices, starting one slice wide. When the
// windowed sums agree across rows the windows form a column and every window
// moves past it. Otherwise the windows whose sum is below the current
// maximum widen by one slice. The result is indexed by column, then row.
//
// A window that runs off the end of its row, or rows that run out of slices
// at different columns, mean the rows cannot be aligned.
func Columnify(rows [][][]*catalogue.Module) ([][][]*catalogue.Module, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	cursors := make([]window, len(rows))
	for i := range cursors {
		cursors[i] = window{0, 1}
	}
	sums := make([]int, len(rows))

	var columns [][][]*catalogue.Module
	for {
		finished := 0
		for i, cur := range cursors {
			if cur.start >= len(rows[i]) {
				finished++
			}
		}
		if finished == len(rows) {
			return columns, nil
		}
		if finished > 0 {
			return nil, errors.Malformed("column %d: rows end at different columns (%d of %d rows exhausted)", len(columns), finished, len(rows))
		}

		maxSum := 0
		for i, cur := range cursors {
			sums[i] = 0
			for _, s := range rows[i][cur.start:cur.end] {
				sums[i] += gridUnits(s)
			}
			maxSum = max(maxSum, sums[i])
		}

		if legit(sums) {
			column := make([][]*catalogue.Module, len(rows))
			for i, cur := range cursors {
				for _, s := range rows[i][cur.start:cur.end] {
					column[i] = append(column[i], s...)
				}
				cursors[i] = window{cur.end, cur.end + 1}
			}
			columns = append(columns, column)
			continue
		}

		for i := range cursors {
			if sums[i] >= maxSum {
				continue
			}
			cursors[i].end++
			if cursors[i].end > len(rows[i]) {
				return nil, errors.Malformed("column %d: row %d cannot reach %d grid units (has %d)", len(columns), i, maxSum, sums[i])
			}
		}
	}
}

func legit(sums []int) bool {
	for _, s := range sums[1:] {
		if s != sums[0] {
			return false
		}
	}
	return true
}

// ModulesToColumns splits a module sequence into validated rows and aligns
// them into columns.
func ModulesToColumns(modules []*catalogue.Module) ([][][]*catalogue.Module, error) {
	rows := ModulesToRows(modules)
	if err := ValidateRows(rows); err != nil {
		return nil, err
	}
	sliced := make([][][]*catalogue.Module, len(rows))
	for i, row := range rows {
		sliced[i] = Slice(row)
	}
	return Columnify(sliced)
}
