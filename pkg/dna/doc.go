// Package dna parses module identifier strings ("DNA") into structured
// attribute records.
//
// A DNA string is a dash-delimited list of positional fields:
//
//	S1-E-G1-A-2-ST0-L0-SIDE1_W0-SIDE2_W0-END_W0-TOP_W0
//	│  │ │  │ │ │   │  │        │        │      └ top window type
//	│  │ │  │ │ │   │  │        │        └ end window type
//	│  │ │  │ │ │   │  │        └ side 2 window type
//	│  │ │  │ │ │   │  └ side 1 window type
//	│  │ │  │ │ │   └ internal layout type
//	│  │ │  │ │ └ stairs type
//	│  │ │  │ └ grid units
//	│  │ │  └ grid type
//	│  │ └ level type (first letter gives the level ordinal: F, G, M, T, R)
//	│  └ position type ('E' = END, anything else = MID)
//	└ section type
//
// Only the first five fields are required in practice; the sub-type fields
// fall back to their defaults when absent. [Parse] fails only on an empty
// input or a non-numeric grid unit field.
package dna
