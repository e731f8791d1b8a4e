package dna

import "fmt"

// Field names a single attribute of a Structured record. Fields drive both
// catalogue filtering (key equality) and candidate scoring (key distance).
type Field string

const (
	FieldSectionType        Field = "sectionType"
	FieldPositionType       Field = "positionType"
	FieldLevelType          Field = "levelType"
	FieldGridType           Field = "gridType"
	FieldGridUnits          Field = "gridUnits"
	FieldStairsType         Field = "stairsType"
	FieldInternalLayoutType Field = "internalLayoutType"
	FieldWindowTypeSide1    Field = "windowTypeSide1"
	FieldWindowTypeSide2    Field = "windowTypeSide2"
	FieldWindowTypeEnd      Field = "windowTypeEnd"
	FieldWindowTypeTop      Field = "windowTypeTop"
)

// Value is a field value: numeric fields set Num, string fields set Str.
type Value struct {
	Str     string
	Num     int
	Numeric bool
}

// Get returns the value of field f.
func (s Structured) Get(f Field) (Value, error) {
	switch f {
	case FieldSectionType:
		return Value{Str: s.SectionType}, nil
	case FieldPositionType:
		return Value{Str: string(s.PositionType)}, nil
	case FieldLevelType:
		return Value{Str: s.LevelType}, nil
	case FieldGridType:
		return Value{Str: s.GridType}, nil
	case FieldGridUnits:
		return Value{Num: s.GridUnits, Numeric: true}, nil
	case FieldStairsType:
		return Value{Str: s.StairsType}, nil
	case FieldInternalLayoutType:
		return Value{Str: s.InternalLayoutType}, nil
	case FieldWindowTypeSide1:
		return Value{Str: s.WindowTypeSide1}, nil
	case FieldWindowTypeSide2:
		return Value{Str: s.WindowTypeSide2}, nil
	case FieldWindowTypeEnd:
		return Value{Str: s.WindowTypeEnd}, nil
	case FieldWindowTypeTop:
		return Value{Str: s.WindowTypeTop}, nil
	}
	return Value{}, fmt.Errorf("unknown dna field %q", f)
}

// With returns a copy of s with string field f replaced by v.
// Grid units cannot be substituted this way.
func (s Structured) With(f Field, v string) (Structured, error) {
	switch f {
	case FieldSectionType:
		s.SectionType = v
	case FieldPositionType:
		s.PositionType = PositionType(v)
	case FieldLevelType:
		s.LevelType = v
		s.LevelIndex = LevelIndex(v)
	case FieldGridType:
		s.GridType = v
	case FieldStairsType:
		s.StairsType = v
	case FieldInternalLayoutType:
		s.InternalLayoutType = v
	case FieldWindowTypeSide1:
		s.WindowTypeSide1 = v
	case FieldWindowTypeSide2:
		s.WindowTypeSide2 = v
	case FieldWindowTypeEnd:
		s.WindowTypeEnd = v
	case FieldWindowTypeTop:
		s.WindowTypeTop = v
	default:
		return s, fmt.Errorf("cannot substitute dna field %q", f)
	}
	return s, nil
}

// Equal reports whether a and b agree on every field in fields.
func Equal(a, b Structured, fields []Field) bool {
	for _, f := range fields {
		va, err := a.Get(f)
		if err != nil {
			return false
		}
		vb, _ := b.Get(f)
		if va != vb {
			return false
		}
	}
	return true
}
