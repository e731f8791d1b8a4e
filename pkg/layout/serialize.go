package layout

import (
	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/errors"
)

// Modules flattens a layout back into building order: row by row from the
// bottom, each row column by column.
func Modules(l ColumnLayout) ([]*catalogue.Module, error) {
	rows := l.RowCount()
	var out []*catalogue.Module
	for r := 0; r < rows; r++ {
		for c, col := range l.Columns {
			if len(col.Rows) != rows {
				return nil, errors.New(errors.ErrCodeLengthMismatch, "column %d has %d rows, expected %d", c, len(col.Rows), rows)
			}
			for _, pm := range col.Rows[r].Modules {
				out = append(out, pm.Module)
			}
		}
	}
	return out, nil
}

// LayoutToDnas serializes a layout to the DNA list it can be rebuilt from.
func LayoutToDnas(l ColumnLayout) ([]string, error) {
	mods, err := Modules(l)
	if err != nil {
		return nil, err
	}
	dnas := make([]string, len(mods))
	for i, m := range mods {
		dnas[i] = m.DNA
	}
	return dnas, nil
}
