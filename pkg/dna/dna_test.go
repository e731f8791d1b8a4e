package dna

import (
	"testing"

	"github.com/modhaus/modlayout/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Structured
	}{
		{
			name: "short form takes defaults",
			in:   "S1-E-G1-A-2",
			want: Structured{
				SectionType:        "S1",
				PositionType:       PositionEnd,
				LevelType:          "G1",
				LevelIndex:         1,
				GridType:           "A",
				GridUnits:          2,
				StairsType:         DefaultStairsType,
				InternalLayoutType: DefaultInternalLayoutType,
				WindowTypeSide1:    DefaultWindowTypeSide1,
				WindowTypeSide2:    DefaultWindowTypeSide2,
				WindowTypeEnd:      DefaultWindowTypeEnd,
				WindowTypeTop:      DefaultWindowTypeTop,
			},
		},
		{
			name: "full form",
			in:   "S2-MID-T1-B-6-ST2-L3-SIDE1_W1-SIDE2_W2-END_W3-TOP_W1",
			want: Structured{
				SectionType:        "S2",
				PositionType:       PositionMid,
				LevelType:          "T1",
				LevelIndex:         3,
				GridType:           "B",
				GridUnits:          6,
				StairsType:         "ST2",
				InternalLayoutType: "L3",
				WindowTypeSide1:    "SIDE1_W1",
				WindowTypeSide2:    "SIDE2_W2",
				WindowTypeEnd:      "END_W3",
				WindowTypeTop:      "TOP_W1",
			},
		},
		{
			name: "lowercase end letter",
			in:   "S1-end-F1-A-1",
			want: Structured{
				SectionType:        "S1",
				PositionType:       PositionEnd,
				LevelType:          "F1",
				LevelIndex:         0,
				GridType:           "A",
				GridUnits:          1,
				StairsType:         DefaultStairsType,
				InternalLayoutType: DefaultInternalLayoutType,
				WindowTypeSide1:    DefaultWindowTypeSide1,
				WindowTypeSide2:    DefaultWindowTypeSide2,
				WindowTypeEnd:      DefaultWindowTypeEnd,
				WindowTypeTop:      DefaultWindowTypeTop,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"S1-E-G1-A-two",
		"S1",
		"S1-E-G-A",
		"S1-E-G1-A-",
		"S1-E-G1-A-0",
		"S1-M-G1-A--2",
	}
	for _, in := range tests {
		_, err := Parse(in)
		if !errors.Is(err, errors.ErrCodeMalformedInput) {
			t.Errorf("Parse(%q) error = %v, want MALFORMED_INPUT", in, err)
		}
	}
}

func TestLevelIndex(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"F1", 0},
		{"G2", 1},
		{"M1", 2},
		{"T3", 3},
		{"R1", 4},
		{"r1", 4},
		{"X1", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := LevelIndex(tt.in); got != tt.want {
			t.Errorf("LevelIndex(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if !IsFoundation("F1") || IsFoundation("G1") {
		t.Error("IsFoundation should only accept F levels")
	}
}

func TestStringRoundTrip(t *testing.T) {
	in := "S2-E-M1-B-4-ST1-L2-SIDE1_W1-SIDE2_W0-END_W2-TOP_W0"
	s := MustParse(in)
	if got := s.String(); got != in {
		t.Errorf("String() = %q, want %q", got, in)
	}
	again := MustParse(s.String())
	if again != s {
		t.Errorf("re-parse = %+v, want %+v", again, s)
	}
}

func TestGetAndWith(t *testing.T) {
	s := MustParse("S1-M-G1-A-3")

	v, err := s.Get(FieldGridUnits)
	if err != nil || !v.Numeric || v.Num != 3 {
		t.Errorf("Get(gridUnits) = %+v, %v", v, err)
	}

	next, err := s.With(FieldLevelType, "T2")
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	if next.LevelType != "T2" || next.LevelIndex != 3 {
		t.Errorf("With(levelType) = %+v", next)
	}
	if s.LevelType != "G1" {
		t.Error("With must not modify the receiver")
	}

	if _, err := s.With(FieldGridUnits, "4"); err == nil {
		t.Error("With(gridUnits) should fail")
	}
	if _, err := s.Get(Field("bogus")); err == nil {
		t.Error("Get(bogus) should fail")
	}
}

func TestEqual(t *testing.T) {
	a := MustParse("S1-M-G1-A-3-ST0-L1")
	b := MustParse("S1-M-G1-A-5-ST2-L1")
	keys := []Field{FieldSectionType, FieldPositionType, FieldLevelType, FieldGridType}
	if !Equal(a, b, keys) {
		t.Error("Equal should ignore fields outside the key set")
	}
	if Equal(a, b, append(keys, FieldGridUnits)) {
		t.Error("Equal should compare grid units when asked")
	}
}
