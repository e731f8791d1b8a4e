package dna

import (
	"strconv"
	"strings"

	"github.com/modhaus/modlayout/pkg/errors"
)

// PositionType distinguishes row bookend modules from interior modules.
type PositionType string

const (
	PositionEnd PositionType = "END"
	PositionMid PositionType = "MID"
)

// Default sub-type codes used when a DNA omits trailing fields.
const (
	DefaultStairsType         = "ST0"
	DefaultInternalLayoutType = "L0"
	DefaultWindowTypeSide1    = "SIDE1_W0"
	DefaultWindowTypeSide2    = "SIDE2_W0"
	DefaultWindowTypeEnd      = "END_W0"
	DefaultWindowTypeTop      = "TOP_W0"
)

// levelAlphabet orders level letters from the foundation up.
const levelAlphabet = "FGMTR"

// Structured is the parsed form of a module DNA.
type Structured struct {
	SectionType        string       `json:"section_type"`
	PositionType       PositionType `json:"position_type"`
	LevelType          string       `json:"level_type"`
	LevelIndex         int          `json:"level_index"`
	GridType           string       `json:"grid_type"`
	GridUnits          int          `json:"grid_units"`
	StairsType         string       `json:"stairs_type"`
	InternalLayoutType string       `json:"internal_layout_type"`
	WindowTypeSide1    string       `json:"window_type_side1"`
	WindowTypeSide2    string       `json:"window_type_side2"`
	WindowTypeEnd      string       `json:"window_type_end"`
	WindowTypeTop      string       `json:"window_type_top"`
}

// Parse decodes a DNA string.
func Parse(raw string) (Structured, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Structured{}, errors.Malformed("dna cannot be empty")
	}

	fields := strings.Split(raw, "-")
	at := func(i int, def string) string {
		if i < len(fields) && fields[i] != "" {
			return fields[i]
		}
		return def
	}

	s := Structured{
		SectionType:        at(0, ""),
		PositionType:       PositionMid,
		LevelType:          at(2, ""),
		GridType:           at(3, ""),
		StairsType:         at(5, DefaultStairsType),
		InternalLayoutType: at(6, DefaultInternalLayoutType),
		WindowTypeSide1:    at(7, DefaultWindowTypeSide1),
		WindowTypeSide2:    at(8, DefaultWindowTypeSide2),
		WindowTypeEnd:      at(9, DefaultWindowTypeEnd),
		WindowTypeTop:      at(10, DefaultWindowTypeTop),
	}
	if t := at(1, ""); t != "" && strings.ToUpper(t[:1]) == "E" {
		s.PositionType = PositionEnd
	}
	s.LevelIndex = LevelIndex(s.LevelType)

	units := at(4, "")
	if units == "" {
		return Structured{}, errors.Malformed("dna %q: missing grid units", raw)
	}
	n, err := strconv.Atoi(units)
	if err != nil {
		return Structured{}, errors.Wrap(errors.ErrCodeMalformedInput, err, "dna %q: grid units %q", raw, units)
	}
	if n < 1 {
		return Structured{}, errors.Malformed("dna %q: grid units must be at least 1, got %d", raw, n)
	}
	s.GridUnits = n

	return s, nil
}

// MustParse is like Parse but panics on error. Intended for fixtures.
func MustParse(raw string) Structured {
	s, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// LevelIndex returns the ordinal of a level type's first letter in the
// F, G, M, T, R alphabet, or -1 when the letter is unknown.
func LevelIndex(levelType string) int {
	if levelType == "" {
		return -1
	}
	return strings.IndexByte(levelAlphabet, strings.ToUpper(levelType[:1])[0])
}

// IsFoundation reports whether a level type denotes the foundation level.
func IsFoundation(levelType string) bool {
	return LevelIndex(levelType) == 0
}

// IsEnd reports whether the module sits at either end of its row.
func (s Structured) IsEnd() bool { return s.PositionType == PositionEnd }

// String encodes the record back to its full eleven-field form.
func (s Structured) String() string {
	pos := "M"
	if s.IsEnd() {
		pos = "E"
	}
	return strings.Join([]string{
		s.SectionType,
		pos,
		s.LevelType,
		s.GridType,
		strconv.Itoa(s.GridUnits),
		s.StairsType,
		s.InternalLayoutType,
		s.WindowTypeSide1,
		s.WindowTypeSide2,
		s.WindowTypeEnd,
		s.WindowTypeTop,
	}, "-")
}
