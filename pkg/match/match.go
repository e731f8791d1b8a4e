// Package match finds the catalogue module closest to a target DNA.
//
// Candidates are first filtered on compatibility keys, which must match the
// target exactly, and then scored on comparison keys: numeric fields by
// absolute difference, string fields by Hamming distance. The lowest total
// wins and catalogue order breaks ties, so results are deterministic.
package match

import (
	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/dna"
	"github.com/modhaus/modlayout/pkg/errors"
)

// DefaultCompatKeys must match the target exactly.
var DefaultCompatKeys = []dna.Field{
	dna.FieldSectionType,
	dna.FieldPositionType,
	dna.FieldLevelType,
	dna.FieldGridType,
}

// DefaultCompareKeys contribute to a candidate's score.
var DefaultCompareKeys = []dna.Field{
	dna.FieldGridUnits,
	dna.FieldInternalLayoutType,
	dna.FieldStairsType,
	dna.FieldWindowTypeEnd,
	dna.FieldWindowTypeSide1,
	dna.FieldWindowTypeSide2,
	dna.FieldWindowTypeTop,
}

// Options selects the keys used for filtering and scoring. Nil slices fall
// back to the defaults.
type Options struct {
	CompatKeys  []dna.Field
	CompareKeys []dna.Field
}

func (o Options) compat() []dna.Field {
	if o.CompatKeys == nil {
		return DefaultCompatKeys
	}
	return o.CompatKeys
}

func (o Options) compare() []dna.Field {
	if o.CompareKeys == nil {
		return DefaultCompareKeys
	}
	return o.CompareKeys
}

// Result is the winning candidate and its score.
type Result struct {
	Module *catalogue.Module
	Score  int
}

// Hamming counts position-wise character mismatches. Strings of different
// length also count every character past the shorter one, so codes of
// different widths (W1 against W10) still score instead of failing the match.
func Hamming(a, b string) int {
	n := min(len(a), len(b))
	d := len(a) + len(b) - 2*n
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}

// Distance sums the per-key distance between a and b over keys.
func Distance(a, b dna.Structured, keys []dna.Field) (int, error) {
	total := 0
	for _, k := range keys {
		va, err := a.Get(k)
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "score key")
		}
		vb, _ := b.Get(k)
		if va.Numeric {
			total += abs(va.Num - vb.Num)
		} else {
			total += Hamming(va.Str, vb.Str)
		}
	}
	return total, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Filter returns the candidates that agree with target on every key, in
// their original order.
func Filter(target dna.Structured, candidates []*catalogue.Module, keys []dna.Field) []*catalogue.Module {
	var out []*catalogue.Module
	for _, m := range candidates {
		if dna.Equal(target, m.Structured, keys) {
			out = append(out, m)
		}
	}
	return out
}

// Best returns the compatible candidate with the lowest score. It fails with
// NOT_FOUND when no candidate passes the compatibility filter.
func Best(target dna.Structured, candidates []*catalogue.Module, opts Options) (Result, error) {
	compat := Filter(target, candidates, opts.compat())
	if len(compat) == 0 {
		return Result{}, errors.NotFound("no module compatible with %s", target)
	}

	best := Result{Score: -1}
	for _, m := range compat {
		score, err := Distance(target, m.Structured, opts.compare())
		if err != nil {
			return Result{}, err
		}
		if best.Module == nil || score < best.Score {
			best = Result{Module: m, Score: score}
		}
	}
	return best, nil
}
