package mutate

import (
	"context"
	"math"
	"sort"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/dna"
	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/layout"
	"github.com/modhaus/modlayout/pkg/match"
)

// DefaultEpsilon is the largest tolerated change in a mutated row's length.
const DefaultEpsilon = 0.01

// maxParallel caps concurrently evaluated alternatives.
const maxParallel = 8

// Options configures a Mutator.
type Options struct {
	// Epsilon bounds the physical length drift of a padded row.
	Epsilon float64

	// Parallel evaluates alternatives concurrently.
	Parallel bool
}

// Alternative is one candidate layout and its ranking cost.
type Alternative struct {
	Layout  layout.ColumnLayout
	Cost    int
	Fillers int
}

func (a Alternative) cost() int { return a.Cost }

// SectionAlternative is the layout rebuilt with another section type.
type SectionAlternative struct {
	Alternative
	SectionType catalogue.SectionType
}

// LevelAlternative is the layout with one level rebuilt at another level type.
type LevelAlternative struct {
	Alternative
	LevelType   catalogue.LevelType
	HeightDelta float64
}

// WindowAlternative is the layout with one module's window changed.
type WindowAlternative struct {
	Alternative
	WindowType catalogue.WindowType
	Module     *catalogue.Module
}

// Mutator computes alternatives against a catalogue.
type Mutator struct {
	Catalogue catalogue.Catalogue
	Logger    *log.Logger
	Options   Options
}

// New creates a Mutator. A zero Epsilon falls back to DefaultEpsilon and a
// nil logger to the default logger.
func New(cat catalogue.Catalogue, logger *log.Logger, opts Options) *Mutator {
	if opts.Epsilon <= 0 {
		opts.Epsilon = DefaultEpsilon
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Mutator{Catalogue: cat, Logger: logger, Options: opts}
}

// substitution is one attribute change and the matcher keys to apply it with.
type substitution struct {
	field dna.Field
	value string
	opts  match.Options
}

// selector reports which modules of column row (c, r) to mutate: ok false
// leaves the row untouched, only -1 mutates every module.
type selector func(c, r int) (only int, ok bool)

// result is one mutated module: its replacement modules plus cost.
type result struct {
	modules []*catalogue.Module
	score   int
	fillers int
}

// mutateLayout applies sub to the selected modules of l and assembles the
// resulting layout.
func (m *Mutator) mutateLayout(ctx context.Context, l layout.ColumnLayout, sel selector, sub substitution, candidates []*catalogue.Module) (Alternative, error) {
	grid := l.Grid()
	alt := Alternative{}
	for c := range grid {
		for r := range grid[c] {
			only, ok := sel(c, r)
			if !ok {
				continue
			}
			res, err := m.mutateRow(ctx, l.SystemID, grid[c][r], c == 0, only, sub, candidates)
			if err != nil {
				return Alternative{}, annotate(err, "column %d row %d", c, r)
			}
			grid[c][r] = res.modules
			alt.Cost += res.score + res.fillers
			alt.Fillers += res.fillers
		}
	}

	out, err := layout.Assemble(l.SystemID, grid)
	if err != nil {
		return Alternative{}, err
	}
	alt.Layout = out
	return alt, nil
}

// mutateRow mutates one column row. atStart marks the column that opens
// every building row.
func (m *Mutator) mutateRow(ctx context.Context, systemID string, row []*catalogue.Module, atStart bool, only int, sub substitution, candidates []*catalogue.Module) (result, error) {
	var out result
	var before, after float64
	for i, mod := range row {
		before += mod.Length
		if only >= 0 && i != only {
			out.modules = append(out.modules, mod)
			after += mod.Length
			continue
		}

		leading := atStart && i == 0
		res, err := m.replace(ctx, systemID, mod, leading, sub, candidates)
		if err != nil {
			return result{}, err
		}
		for _, r := range res.modules {
			after += r.Length
		}
		out.modules = append(out.modules, res.modules...)
		out.score += res.score
		out.fillers += res.fillers
	}

	if drift := math.Abs(after - before); drift > m.Options.Epsilon {
		return result{}, errors.NotFound("no padding reconciles a %.3f length change (%.3f -> %.3f)", drift, before, after)
	}
	return out, nil
}

// replace finds the replacement for one module. leading marks an END module
// that opens its row, whose fillers follow it rather than precede it.
func (m *Mutator) replace(ctx context.Context, systemID string, orig *catalogue.Module, leading bool, sub substitution, candidates []*catalogue.Module) (result, error) {
	target, err := orig.Structured.With(sub.field, sub.value)
	if err != nil {
		return result{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "mutate %s", orig.DNA)
	}

	key := catalogue.KeyOf(target)
	vanilla, err := m.Catalogue.VanillaModule(ctx, systemID, key)
	if err != nil {
		return result{}, err
	}
	filler := vanilla
	if target.IsEnd() {
		key.PositionType = dna.PositionMid
		if filler, err = m.Catalogue.VanillaModule(ctx, systemID, key); err != nil {
			return result{}, err
		}
	}

	best, err := match.Best(target, candidates, sub.opts)
	if err != nil {
		return result{}, err
	}

	switch d := target.GridUnits - best.Module.Structured.GridUnits; {
	case d == 0:
		return result{modules: []*catalogue.Module{best.Module}, score: best.Score}, nil
	case d > 0:
		n := fillerCount(orig.Length-best.Module.Length, filler.Length)
		return pad(best.Module, filler, n, best.Score, leading), nil
	case target.IsEnd():
		n := fillerCount(orig.Length-vanilla.Length, filler.Length)
		return pad(vanilla, filler, n, best.Score, leading), nil
	default:
		n := fillerCount(orig.Length, filler.Length)
		return pad(nil, filler, n, best.Score, leading), nil
	}
}

func fillerCount(remaining, length float64) int {
	if length <= 0 || remaining <= 0 {
		return 0
	}
	return int(math.Round(remaining / length))
}

// pad surrounds base with n fillers on the interior side. A nil base yields
// fillers only. END modules closing a row take their fillers in front.
func pad(base, filler *catalogue.Module, n, score int, leading bool) result {
	out := result{score: score, fillers: n}
	fillers := make([]*catalogue.Module, n)
	for i := range fillers {
		fillers[i] = filler
	}
	switch {
	case base == nil:
		out.modules = fillers
	case base.Structured.IsEnd() && !leading:
		out.modules = append(fillers, base)
	default:
		out.modules = append([]*catalogue.Module{base}, fillers...)
	}
	return out
}

// annotate adds context to coded errors and passes others (context
// cancellation, transport failures) through untouched.
func annotate(err error, format string, args ...any) error {
	code := errors.GetCode(err)
	if code == "" {
		return err
	}
	return errors.Wrap(code, err, format, args...)
}

// droppable reports whether err only disqualifies one alternative rather
// than the whole mutation.
func droppable(err error) bool {
	return errors.Is(err, errors.ErrCodeNotFound) || errors.Is(err, errors.ErrCodeMalformedInput)
}

// collect evaluates n alternatives, drops the ones that cannot be built and
// ranks the rest by cost. Catalogue order breaks ties.
func collect[T interface{ cost() int }](ctx context.Context, m *Mutator, kind string, n int, build func(ctx context.Context, i int) (T, error)) ([]T, error) {
	built := make([]T, n)
	ok := make([]bool, n)

	eval := func(ctx context.Context, i int) error {
		alt, err := build(ctx, i)
		switch {
		case err == nil:
			built[i], ok[i] = alt, true
		case droppable(err):
			m.Logger.Debug("dropped alternative", "kind", kind, "index", i, "err", err)
		default:
			return err
		}
		return nil
	}

	if m.Options.Parallel && n > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxParallel)
		for i := range n {
			g.Go(func() error { return eval(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range n {
			if err := eval(ctx, i); err != nil {
				return nil, err
			}
		}
	}

	out := make([]T, 0, n)
	for i, alt := range built {
		if ok[i] {
			out = append(out, alt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].cost() < out[j].cost() })
	return out, nil
}
