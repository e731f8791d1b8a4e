package mutate

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/catalogue/cataloguetest"
	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/layout"
)

func build(t *testing.T, cat catalogue.Catalogue, systemID string, dnas []string) layout.ColumnLayout {
	t.Helper()
	mods := make([]*catalogue.Module, len(dnas))
	for i, d := range dnas {
		m, err := cat.ModuleByDNA(context.Background(), systemID, d)
		if err != nil {
			t.Fatalf("ModuleByDNA(%q): %v", d, err)
		}
		mods[i] = m
	}
	l, err := layout.Build(systemID, mods)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return l
}

func dnasOf(t *testing.T, l layout.ColumnLayout) []string {
	t.Helper()
	d, err := layout.LayoutToDnas(l)
	if err != nil {
		t.Fatalf("LayoutToDnas: %v", err)
	}
	return d
}

func newMutator(parallel bool) *Mutator {
	return New(cataloguetest.Snapshot(), nil, Options{Parallel: parallel})
}

// checkConserved asserts every column row of got has the physical length of
// the matching column row of orig.
func checkConserved(t *testing.T, orig, got layout.ColumnLayout) {
	t.Helper()
	if len(orig.Columns) != len(got.Columns) {
		t.Fatalf("columns = %d, want %d", len(got.Columns), len(orig.Columns))
	}
	for c := range orig.Columns {
		for r := range orig.Columns[c].Rows {
			want := orig.Columns[c].Rows[r].Depth
			have := got.Columns[c].Rows[r].Depth
			if math.Abs(want-have) > DefaultEpsilon {
				t.Errorf("column %d row %d depth = %v, want %v", c, r, have, want)
			}
		}
	}
}

func TestSectionType(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		m := newMutator(parallel)
		orig := build(t, m.Catalogue, cataloguetest.SystemID, cataloguetest.Building("S1", "G1", "T1"))
		before := dnasOf(t, orig)

		alts, err := m.SectionType(context.Background(), orig, "S1")
		if err != nil {
			t.Fatalf("SectionType: %v", err)
		}
		if len(alts) != 2 {
			t.Fatalf("alternatives = %d, want 2", len(alts))
		}

		// S3 has every module, S2 needs a padded two-unit module per row.
		if alts[0].SectionType.Code != "S3" || alts[0].Cost != 0 {
			t.Errorf("first = %s (cost %d), want S3 (cost 0)", alts[0].SectionType.Code, alts[0].Cost)
		}
		if alts[1].SectionType.Code != "S2" || alts[1].Cost != 4 || alts[1].Fillers != 2 {
			t.Errorf("second = %s (cost %d, fillers %d), want S2 (cost 4, fillers 2)",
				alts[1].SectionType.Code, alts[1].Cost, alts[1].Fillers)
		}

		if !reflect.DeepEqual(dnasOf(t, alts[0].Layout), cataloguetest.Building("S3", "G1", "T1")) {
			t.Errorf("S3 layout = %v", dnasOf(t, alts[0].Layout))
		}
		mid := alts[1].Layout.Columns[1].Rows[0].Catalogue()
		var got []string
		for _, mod := range mid {
			got = append(got, mod.DNA)
		}
		want := []string{"S2-M-G1-A-2", "S2-M-G1-A-2", "S2-M-G1-A-1"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("S2 mid row = %v, want %v", got, want)
		}
		for _, alt := range alts {
			checkConserved(t, orig, alt.Layout)
		}

		if !reflect.DeepEqual(dnasOf(t, orig), before) {
			t.Error("input layout was modified")
		}
	}
}

func TestSectionTypeDropsMissingVanilla(t *testing.T) {
	m := newMutator(true)
	orig := build(t, m.Catalogue, cataloguetest.SystemID, cataloguetest.Building("S1", "G1", "R1"))

	alts, err := m.SectionType(context.Background(), orig, "S1")
	if err != nil {
		t.Fatalf("SectionType: %v", err)
	}
	if len(alts) != 1 || alts[0].SectionType.Code != "S2" {
		t.Fatalf("alternatives = %+v, want only S2", alts)
	}
}

func TestSectionTypeUnknown(t *testing.T) {
	m := newMutator(false)
	orig := build(t, m.Catalogue, cataloguetest.SystemID, cataloguetest.Building("S1", "G1"))
	if _, err := m.SectionType(context.Background(), orig, "S9"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("SectionType(S9) error = %v, want NOT_FOUND", err)
	}
}

func TestSectionTypeCancelled(t *testing.T) {
	m := newMutator(true)
	orig := build(t, m.Catalogue, cataloguetest.SystemID, cataloguetest.Building("S1", "G1"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.SectionType(ctx, orig, "S1"); err != context.Canceled {
		t.Errorf("SectionType() error = %v, want context.Canceled", err)
	}
}

func TestPaddingDrift(t *testing.T) {
	var mods []catalogue.Module
	for _, st := range []string{"S1", "S2"} {
		mods = append(mods,
			catalogue.Module{DNA: st + "-E-G1-A-1", Length: 1.2, Height: 3, Vanilla: true},
			// Too short for its single grid unit: padding with it drifts.
			catalogue.Module{DNA: st + "-M-G1-A-1", Length: 1.0, Height: 3, Vanilla: true},
			catalogue.Module{DNA: st + "-M-G1-A-2", Length: 2.4, Height: 3},
		)
	}
	mods = append(mods, catalogue.Module{DNA: "S1-M-G1-A-3", Length: 3.6, Height: 3})
	snap := catalogue.MustSnapshot(catalogue.Data{
		SystemID:     "drift",
		Modules:      mods,
		SectionTypes: []catalogue.SectionType{{Code: "S1"}, {Code: "S2"}},
	})

	m := New(snap, nil, Options{})
	orig := build(t, snap, "drift", []string{"S1-E-G1-A-1", "S1-M-G1-A-3", "S1-E-G1-A-1"})
	alts, err := m.SectionType(context.Background(), orig, "S1")
	if err != nil {
		t.Fatalf("SectionType: %v", err)
	}
	if len(alts) != 0 {
		t.Errorf("alternatives = %d, want 0 (drift exceeds epsilon)", len(alts))
	}

	loose := New(snap, nil, Options{Epsilon: 0.5})
	alts, err = loose.SectionType(context.Background(), orig, "S1")
	if err != nil {
		t.Fatalf("SectionType: %v", err)
	}
	if len(alts) != 1 {
		t.Errorf("alternatives with loose epsilon = %d, want 1", len(alts))
	}
}

func TestLevelType(t *testing.T) {
	m := newMutator(false)
	orig := build(t, m.Catalogue, cataloguetest.SystemID, cataloguetest.Building("S1", "G1", "T1", "R1"))

	alts, err := m.LevelType(context.Background(), orig, 0, "G1")
	if err != nil {
		t.Fatalf("LevelType: %v", err)
	}
	if len(alts) != 1 || alts[0].LevelType.Code != "G2" {
		t.Fatalf("alternatives = %+v, want G2", alts)
	}
	alt := alts[0]
	if math.Abs(alt.HeightDelta-0.3) > 1e-9 {
		t.Errorf("HeightDelta = %v, want 0.3", alt.HeightDelta)
	}

	want := append(cataloguetest.Row("S1", "G2"), cataloguetest.Building("S1", "T1", "R1")...)
	if got := dnasOf(t, alt.Layout); !reflect.DeepEqual(got, want) {
		t.Errorf("layout = %v, want %v", got, want)
	}
	for c := range orig.Columns {
		for r := 1; r < orig.RowCount(); r++ {
			shift := alt.Layout.Columns[c].Rows[r].Y - orig.Columns[c].Rows[r].Y
			if math.Abs(shift-alt.HeightDelta) > 1e-9 {
				t.Errorf("column %d row %d moved by %v, want %v", c, r, shift, alt.HeightDelta)
			}
		}
	}
	checkConserved(t, orig, alt.Layout)
}

func TestLevelTypeNoAlternatives(t *testing.T) {
	m := newMutator(false)
	orig := build(t, m.Catalogue, cataloguetest.SystemID, cataloguetest.Building("S1", "F1", "G1"))

	alts, err := m.LevelType(context.Background(), orig, 0, "F1")
	if err != nil || len(alts) != 0 {
		t.Errorf("LevelType(F1) = %v, %v; want no alternatives", alts, err)
	}
	if _, err := m.LevelType(context.Background(), orig, 5, "G1"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("LevelType(row 5) error = %v, want INVALID_INPUT", err)
	}
	if _, err := m.LevelType(context.Background(), orig, 1, "X1"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("LevelType(X1) error = %v, want NOT_FOUND", err)
	}
}

func TestWindowType(t *testing.T) {
	m := newMutator(true)
	orig := build(t, m.Catalogue, cataloguetest.SystemID, cataloguetest.Building("S1", "G1"))

	tests := []struct {
		name       string
		column     int
		index      int
		side       catalogue.WindowSide
		wantCodes  []string
		wantModule string
		wantRow    []string
	}{
		{
			name: "exact mid", column: 1, index: 0, side: catalogue.SideSide1,
			wantCodes:  []string{"SIDE1_W1", "SIDE1_W2"},
			wantModule: "S1-M-G1-A-2-ST0-L0-SIDE1_W1",
			wantRow:    []string{"S1-M-G1-A-2-ST0-L0-SIDE1_W1", "S1-M-G1-A-3"},
		},
		{
			name: "padded mid", column: 1, index: 1, side: catalogue.SideSide1,
			wantCodes:  []string{"SIDE1_W1", "SIDE1_W2"},
			wantModule: "S1-M-G1-A-2-ST0-L0-SIDE1_W1",
			wantRow:    []string{"S1-M-G1-A-2", "S1-M-G1-A-2-ST0-L0-SIDE1_W1", "S1-M-G1-A-1"},
		},
		{
			name: "closing end", column: 2, index: 0, side: catalogue.SideEnd,
			wantCodes:  []string{"END_W1"},
			wantModule: "S1-E-G1-A-2-ST0-L0-SIDE1_W0-SIDE2_W0-END_W1",
			wantRow:    []string{"S1-E-G1-A-2-ST0-L0-SIDE1_W0-SIDE2_W0-END_W1"},
		},
		{
			name: "nothing else", column: 0, index: 0, side: catalogue.SideSide2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alts, err := m.WindowType(context.Background(), orig, tt.column, 0, tt.index, tt.side)
			if err != nil {
				t.Fatalf("WindowType: %v", err)
			}
			var codes []string
			for _, a := range alts {
				codes = append(codes, a.WindowType.Code)
			}
			if !reflect.DeepEqual(codes, tt.wantCodes) {
				t.Fatalf("codes = %v, want %v", codes, tt.wantCodes)
			}
			if len(alts) == 0 {
				return
			}
			first := alts[0]
			if first.Module == nil || first.Module.DNA != tt.wantModule {
				t.Errorf("Module = %v, want %s", first.Module, tt.wantModule)
			}
			var row []string
			for _, mod := range first.Layout.Columns[tt.column].Rows[0].Catalogue() {
				row = append(row, mod.DNA)
			}
			if !reflect.DeepEqual(row, tt.wantRow) {
				t.Errorf("row = %v, want %v", row, tt.wantRow)
			}
			checkConserved(t, orig, first.Layout)
		})
	}
}

func TestWindowTypeFallback(t *testing.T) {
	m := newMutator(false)
	orig := build(t, m.Catalogue, cataloguetest.SystemID, []string{"S1-E-G1-A-2", "S1-M-G1-A-1", "S1-E-G1-A-2"})

	// Only two-unit modules carry SIDE1_W1, so the one-unit slot is refilled
	// with vanilla modules instead.
	alts, err := m.WindowType(context.Background(), orig, 1, 0, 0, catalogue.SideSide1)
	if err != nil {
		t.Fatalf("WindowType: %v", err)
	}
	if len(alts) != 2 {
		t.Fatalf("alternatives = %d, want 2", len(alts))
	}
	if got := dnasOf(t, alts[0].Layout); !reflect.DeepEqual(got, dnasOf(t, orig)) {
		t.Errorf("layout = %v", got)
	}
	if alts[0].Fillers != 1 {
		t.Errorf("Fillers = %d, want 1", alts[0].Fillers)
	}
	checkConserved(t, orig, alts[0].Layout)
}

func TestWindowTypeDeterministic(t *testing.T) {
	orig := build(t, cataloguetest.Snapshot(), cataloguetest.SystemID, cataloguetest.Building("S1", "G1", "T1"))
	var first []string
	for i := 0; i < 10; i++ {
		alts, err := newMutator(i%2 == 0).WindowType(context.Background(), orig, 1, 1, 1, catalogue.SideSide1)
		if err != nil {
			t.Fatal(err)
		}
		var got []string
		for _, a := range alts {
			got = append(got, a.Module.DNA)
		}
		if i == 0 {
			first = got
		} else if !reflect.DeepEqual(got, first) {
			t.Fatalf("call %d = %v, want %v", i, got, first)
		}
	}
}

func TestWindowTypeBadInput(t *testing.T) {
	m := newMutator(false)
	orig := build(t, m.Catalogue, cataloguetest.SystemID, cataloguetest.Building("S1", "G1"))
	if _, err := m.WindowType(context.Background(), orig, 9, 0, 0, catalogue.SideSide1); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("column 9 error = %v", err)
	}
	if _, err := m.WindowType(context.Background(), orig, 1, 0, 0, "ROOF"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("side ROOF error = %v", err)
	}
}
