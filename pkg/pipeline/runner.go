package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/modhaus/modlayout/pkg/cache"
	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/layout"
	"github.com/modhaus/modlayout/pkg/mutate"
	"github.com/modhaus/modlayout/pkg/observability"
	"github.com/modhaus/modlayout/pkg/stretch"
)

// Runner encapsulates engine execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the catalogue, cache and logger - it
// doesn't store layouts. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Catalogue catalogue.Catalogue
	Cache     cache.Cache
	Keyer     cache.Keyer
	Logger    *log.Logger
}

// NewRunner creates a runner over the given catalogue.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(cat catalogue.Catalogue, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Catalogue: cat,
		Cache:     c,
		Keyer:     keyer,
		Logger:    logger,
	}
}

// BuildLayoutWithCacheInfo builds a positioned layout from opts.DNAs and
// reports whether the column grid came from the cache.
func (r *Runner) BuildLayoutWithCacheInfo(ctx context.Context, opts Options) (layout.ColumnLayout, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return layout.ColumnLayout{}, false, err
	}

	hooks := observability.Engine()
	hooks.OnBuildStart(ctx, opts.SystemID, len(opts.DNAs))
	start := time.Now()

	l, hit, err := r.buildLayout(ctx, opts)

	hooks.OnBuildComplete(ctx, opts.SystemID, len(l.Columns), time.Since(start), err)
	if err != nil {
		return layout.ColumnLayout{}, false, err
	}
	r.Logger.Info("built layout",
		"system", opts.SystemID,
		"modules", len(opts.DNAs),
		"columns", len(l.Columns),
		"rows", l.RowCount(),
		"cached", hit,
		"duration", time.Since(start))
	return l, hit, nil
}

func (r *Runner) buildLayout(ctx context.Context, opts Options) (layout.ColumnLayout, bool, error) {
	cacheKey := r.Keyer.LayoutKey(opts.SystemID, opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if l, err := r.fromCachedGrid(ctx, opts.SystemID, data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return l, true, nil
			}
			// If the grid no longer matches the catalogue, fall through to rebuild
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	mods, err := r.resolve(ctx, opts.SystemID, opts.DNAs)
	if err != nil {
		return layout.ColumnLayout{}, false, err
	}
	l, err := layout.Build(opts.SystemID, mods)
	if err != nil {
		return layout.ColumnLayout{}, false, err
	}

	if data, err := json.Marshal(gridDNAs(l)); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err != nil {
			r.Logger.Warn("layout cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return l, false, nil
}

// BuildLayout is a convenience wrapper that calls BuildLayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) BuildLayout(ctx context.Context, opts Options) (layout.ColumnLayout, error) {
	l, _, err := r.BuildLayoutWithCacheInfo(ctx, opts)
	return l, err
}

// resolve looks up every DNA in the catalogue.
func (r *Runner) resolve(ctx context.Context, systemID string, dnas []string) ([]*catalogue.Module, error) {
	mods := make([]*catalogue.Module, len(dnas))
	for i, d := range dnas {
		m, err := r.Catalogue.ModuleByDNA(ctx, systemID, d)
		if err != nil {
			return nil, err
		}
		mods[i] = m
	}
	return mods, nil
}

func gridDNAs(l layout.ColumnLayout) [][][]string {
	grid := l.Grid()
	out := make([][][]string, len(grid))
	for c := range grid {
		out[c] = make([][]string, len(grid[c]))
		for r, mods := range grid[c] {
			for _, m := range mods {
				out[c][r] = append(out[c][r], m.DNA)
			}
		}
	}
	return out
}

func (r *Runner) fromCachedGrid(ctx context.Context, systemID string, data []byte) (layout.ColumnLayout, error) {
	var dnas [][][]string
	if err := json.Unmarshal(data, &dnas); err != nil {
		return layout.ColumnLayout{}, err
	}
	grid := make([][][]*catalogue.Module, len(dnas))
	for c := range dnas {
		grid[c] = make([][]*catalogue.Module, len(dnas[c]))
		for row, list := range dnas[c] {
			mods, err := r.resolve(ctx, systemID, list)
			if err != nil {
				return layout.ColumnLayout{}, err
			}
			grid[c][row] = mods
		}
	}
	return layout.Assemble(systemID, grid)
}

// LayoutToDnas serializes a layout back to its DNA list.
func (r *Runner) LayoutToDnas(l layout.ColumnLayout) ([]string, error) {
	return layout.LayoutToDnas(l)
}

func (r *Runner) mutator(opts Options) *mutate.Mutator {
	return mutate.New(r.Catalogue, opts.Logger, opts.MutateOptions())
}

// observeMutation wraps a mutation with hooks and logging.
func observeMutation[T any](ctx context.Context, r *Runner, kind, systemID string, run func() ([]T, error)) ([]T, error) {
	hooks := observability.Engine()
	hooks.OnMutationStart(ctx, kind, systemID)
	start := time.Now()

	alts, err := run()

	hooks.OnMutationComplete(ctx, kind, systemID, len(alts), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("computed alternatives",
		"kind", kind,
		"system", systemID,
		"alternatives", len(alts),
		"duration", time.Since(start))
	return alts, nil
}

func (r *Runner) mutationOptions(l layout.ColumnLayout, opts *Options) error {
	if opts.SystemID == "" {
		opts.SystemID = l.SystemID
	}
	if opts.SystemID != l.SystemID {
		return errors.New(errors.ErrCodeInvalidInput, "options are for system %q, layout is %q", opts.SystemID, l.SystemID)
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	return opts.ValidateForMutation()
}

// MutateSectionType returns the layout rebuilt for every other section type,
// ranked by cost.
func (r *Runner) MutateSectionType(ctx context.Context, l layout.ColumnLayout, current string, opts Options) ([]mutate.SectionAlternative, error) {
	if err := r.mutationOptions(l, &opts); err != nil {
		return nil, err
	}
	return observeMutation(ctx, r, KindSectionType, l.SystemID, func() ([]mutate.SectionAlternative, error) {
		return r.mutator(opts).SectionType(ctx, l, current)
	})
}

// MutateLevelType returns the layout with row rowIndex rebuilt for every
// other level type of the same floor class, ranked by cost.
func (r *Runner) MutateLevelType(ctx context.Context, l layout.ColumnLayout, rowIndex int, current string, opts Options) ([]mutate.LevelAlternative, error) {
	if err := r.mutationOptions(l, &opts); err != nil {
		return nil, err
	}
	return observeMutation(ctx, r, KindLevelType, l.SystemID, func() ([]mutate.LevelAlternative, error) {
		return r.mutator(opts).LevelType(ctx, l, rowIndex, current)
	})
}

// MutateWindowType returns the layout with one module's window on side
// changed to every other window type of that side, ranked by cost.
func (r *Runner) MutateWindowType(ctx context.Context, l layout.ColumnLayout, column, row, index int, side catalogue.WindowSide, opts Options) ([]mutate.WindowAlternative, error) {
	if err := r.mutationOptions(l, &opts); err != nil {
		return nil, err
	}
	return observeMutation(ctx, r, KindWindowType, l.SystemID, func() ([]mutate.WindowAlternative, error) {
		return r.mutator(opts).WindowType(ctx, l, column, row, index, side)
	})
}

// VanillaColumn returns the filler column used to stretch l.
func (r *Runner) VanillaColumn(ctx context.Context, l layout.ColumnLayout) (layout.PositionedColumn, error) {
	return stretch.VanillaColumn(ctx, r.Catalogue, l)
}

// NewStretchController returns a controller initialized on l. A zero
// cfg.MaxDepth takes opts.MaxDepth. Reveals and hides are reported to the
// engine hooks before reaching cfg.OnChange.
func (r *Runner) NewStretchController(ctx context.Context, l layout.ColumnLayout, cfg stretch.Config, opts Options) (*stretch.Controller, error) {
	if err := r.mutationOptions(l, &opts); err != nil {
		return nil, err
	}
	tmpl, err := r.VanillaColumn(ctx, l)
	if err != nil {
		return nil, err
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = opts.MaxDepth
	}
	if cfg.Logger == nil {
		cfg.Logger = r.Logger
	}

	var c *stretch.Controller
	onChange := cfg.OnChange
	cfg.OnChange = func(ev stretch.Event) {
		observability.Engine().OnGesture(ctx, ev.Kind.String(), c.BoundaryIndex())
		if onChange != nil {
			onChange(ev)
		}
	}

	c = stretch.New(cfg)
	if err := c.Init(l, tmpl); err != nil {
		return nil, err
	}
	return c, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
