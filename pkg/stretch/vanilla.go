package stretch

import (
	"context"

	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/dna"
	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/layout"
)

// VanillaColumn builds the filler column for l: one MID vanilla module per
// row, keyed on the rows of the layout's last interior column. The result
// carries Index -1 until a gesture commits it.
func VanillaColumn(ctx context.Context, cat catalogue.Catalogue, l layout.ColumnLayout) (layout.PositionedColumn, error) {
	if len(l.Columns) == 0 {
		return layout.PositionedColumn{}, errors.Malformed("layout has no columns")
	}
	ref := l.Columns[0]
	if n := len(l.Columns); n >= 3 {
		ref = l.Columns[n-2]
	}

	rows := make([][]*catalogue.Module, len(ref.Rows))
	for r, row := range ref.Rows {
		if len(row.Modules) == 0 {
			return layout.PositionedColumn{}, errors.Malformed("row %d is empty", r)
		}
		key := catalogue.KeyOf(row.Modules[0].Module.Structured)
		key.PositionType = dna.PositionMid
		m, err := cat.VanillaModule(ctx, l.SystemID, key)
		if err != nil {
			return layout.PositionedColumn{}, err
		}
		rows[r] = []*catalogue.Module{m}
	}

	col, err := layout.Assemble(l.SystemID, [][][]*catalogue.Module{rows})
	if err != nil {
		return layout.PositionedColumn{}, err
	}
	out := col.Columns[0]
	out.Index = -1
	return out, nil
}
