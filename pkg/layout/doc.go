// Package layout turns an ordered module sequence into a positioned
// building layout and back.
//
// # Structure
//
// A building is a list of rows, one per level, each bounded by END modules
// with MID modules in between. Rows are cut into columns: every column holds
// one slice of every row, and all slices of a column carry the same number
// of grid units. The resulting [ColumnLayout] is the only structure the
// mutation and stretch packages operate on.
//
// # Pipeline
//
//	modules ──ModulesToRows──▶ rows ──Slice──▶ slices ──Columnify──▶ grid
//	grid ──Assemble──▶ ColumnLayout ──LayoutToDnas──▶ DNA list
//
// [Build] runs the whole pipeline. [Assemble] positions an already
// columnified module grid and is what mutations use to re-derive geometry
// after replacing modules.
//
// # Positioning
//
// Rows stack vertically (Y), starting at zero on the foundation level.
// Columns advance along the building's depth axis (Z), and modules are
// placed along their row by centerline. All offsets are rounded to three
// decimal places.
package layout
