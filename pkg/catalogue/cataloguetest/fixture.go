// Package cataloguetest provides a deterministic catalogue fixture for tests.
//
// The "skylark" system has three section types (S1, S2, S3), six level types
// (F1, G1, G2, T1, T2, R1) and a single grid type "A" whose grid unit is
// [UnitLength] long. Deliberate gaps exercise failure paths:
//   - S2 has no three-unit MID module, forcing padding on S1 -> S2
//   - S3 has no MID vanilla module on R1, failing any S3 alternative with a roof
package cataloguetest

import (
	"fmt"

	"github.com/modhaus/modlayout/pkg/catalogue"
)

// SystemID is the fixture's building system.
const SystemID = "skylark"

// UnitLength is the physical length of one grid unit.
const UnitLength = 1.2

// Level heights by code.
var LevelHeights = map[string]float64{
	"F1": 0.6,
	"G1": 3.0,
	"G2": 3.3,
	"T1": 2.9,
	"T2": 3.2,
	"R1": 1.5,
}

var levelOrder = []string{"F1", "G1", "G2", "T1", "T2", "R1"}

var sections = []catalogue.SectionType{
	{Code: "S1", Description: "Narrow", Width: 4.8, Height: 7.5},
	{Code: "S2", Description: "Standard", Width: 5.7, Height: 7.8},
	{Code: "S3", Description: "Wide", Width: 6.6, Height: 8.1},
}

var windows = []catalogue.WindowType{
	{Code: "SIDE1_W0", Description: "Blank", Side: catalogue.SideSide1},
	{Code: "SIDE1_W1", Description: "Window", Side: catalogue.SideSide1},
	{Code: "SIDE1_W2", Description: "Door", Side: catalogue.SideSide1},
	{Code: "SIDE2_W0", Description: "Blank", Side: catalogue.SideSide2},
	{Code: "END_W0", Description: "Blank", Side: catalogue.SideEnd},
	{Code: "END_W1", Description: "Glazed end", Side: catalogue.SideEnd},
	{Code: "TOP_W0", Description: "Blank", Side: catalogue.SideTop},
}

// Data returns the fixture catalogue data.
func Data() catalogue.Data {
	d := catalogue.Data{
		SystemID:     SystemID,
		SectionTypes: append([]catalogue.SectionType(nil), sections...),
		WindowTypes:  append([]catalogue.WindowType(nil), windows...),
	}
	for _, code := range levelOrder {
		d.LevelTypes = append(d.LevelTypes, catalogue.LevelType{Code: code, Height: LevelHeights[code]})
	}

	for _, st := range sections {
		for _, lt := range levelOrder {
			add := func(pos string, units int, suffix string, vanilla bool) {
				d.Modules = append(d.Modules, catalogue.Module{
					DNA:     fmt.Sprintf("%s-%s-%s-A-%d%s", st.Code, pos, lt, units, suffix),
					Length:  float64(units) * UnitLength,
					Width:   st.Width,
					Height:  LevelHeights[lt],
					Vanilla: vanilla,
				})
			}

			add("E", 1, "", true)
			add("E", 2, "", false)
			if !(st.Code == "S3" && lt == "R1") {
				add("M", 1, "", true)
			}
			add("M", 2, "", false)
			if st.Code != "S2" {
				add("M", 3, "", false)
			}
			add("M", 2, "-ST0-L0-SIDE1_W1", false)
			if st.Code == "S1" {
				add("M", 2, "-ST0-L0-SIDE1_W2", false)
				add("E", 2, "-ST0-L0-SIDE1_W0-SIDE2_W0-END_W1", false)
			}
		}
	}
	return d
}

// Snapshot returns the fixture as a Snapshot.
func Snapshot() *catalogue.Snapshot {
	return catalogue.MustSnapshot(Data())
}

// Row returns the DNAs of one row: END(2), MID(2), MID(3), END(2).
func Row(section, level string) []string {
	return []string{
		fmt.Sprintf("%s-E-%s-A-2", section, level),
		fmt.Sprintf("%s-M-%s-A-2", section, level),
		fmt.Sprintf("%s-M-%s-A-3", section, level),
		fmt.Sprintf("%s-E-%s-A-2", section, level),
	}
}

// Building returns a building of identical rows, bottom level first.
func Building(section string, levels ...string) []string {
	var dnas []string
	for _, lt := range levels {
		dnas = append(dnas, Row(section, lt)...)
	}
	return dnas
}
