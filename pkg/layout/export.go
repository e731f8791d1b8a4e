package layout

// Export is a JSON-friendly view of a positioned layout.
type Export struct {
	SystemID string         `json:"system_id"`
	Depth    float64        `json:"depth"`
	Columns  []ExportColumn `json:"columns"`
}

// ExportColumn is one column of an Export.
type ExportColumn struct {
	Index     int         `json:"index"`
	Z         float64     `json:"z"`
	Depth     float64     `json:"depth"`
	GridUnits int         `json:"grid_units"`
	Rows      []ExportRow `json:"rows"`
}

// ExportRow is one column row of an Export.
type ExportRow struct {
	Index     int            `json:"index"`
	Y         float64        `json:"y"`
	LevelType string         `json:"level_type"`
	Height    float64        `json:"height"`
	GridUnits int            `json:"grid_units"`
	Depth     float64        `json:"depth"`
	Modules   []ExportModule `json:"modules"`
}

// ExportModule is one positioned module of an Export.
type ExportModule struct {
	Index   int     `json:"index"`
	DNA     string  `json:"dna"`
	Z       float64 `json:"z"`
	Length  float64 `json:"length"`
	Height  float64 `json:"height"`
	Vanilla bool    `json:"vanilla,omitempty"`
}

// ToExport converts a layout into its exported form.
func ToExport(l ColumnLayout) Export {
	out := Export{SystemID: l.SystemID, Depth: l.Depth(), Columns: make([]ExportColumn, len(l.Columns))}
	for c, col := range l.Columns {
		ec := ExportColumn{
			Index:     col.Index,
			Z:         col.Z,
			Depth:     col.Depth(),
			GridUnits: col.GridUnits(),
			Rows:      make([]ExportRow, len(col.Rows)),
		}
		for r, row := range col.Rows {
			er := ExportRow{
				Index:     row.Index,
				Y:         row.Y,
				LevelType: row.LevelType(),
				Height:    row.Height(),
				GridUnits: row.GridUnits,
				Depth:     row.Depth,
				Modules:   make([]ExportModule, len(row.Modules)),
			}
			for i, pm := range row.Modules {
				er.Modules[i] = ExportModule{
					Index:   pm.Index,
					DNA:     pm.Module.DNA,
					Z:       pm.Z,
					Length:  pm.Module.Length,
					Height:  pm.Module.Height,
					Vanilla: pm.Module.Vanilla,
				}
			}
			ec.Rows[r] = er
		}
		out.Columns[c] = ec
	}
	return out
}
