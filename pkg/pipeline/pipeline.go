// Package pipeline is the engine facade shared by the CLI and the HTTP API.
//
// A [Runner] binds a catalogue, a cache and a logger, and exposes every
// engine operation: building a layout from a DNA list, the three mutations,
// serialization back to DNAs and stretch controller construction. Keeping
// this in one place gives every entry point the same validation, caching,
// logging and observability.
//
// # Usage
//
//	runner := pipeline.NewRunner(snapshot, cache, nil, logger)
//	opts := pipeline.Options{
//	    SystemID: "skylark",
//	    DNAs:     dnas,
//	}
//	l, err := runner.BuildLayout(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	alts, err := runner.MutateSectionType(ctx, l, "S1", opts)
//
// Built layouts are cached by system and DNA list. The cache holds the
// column grid as DNAs, so a hit skips row and column derivation but still
// resolves every module against the current catalogue.
package pipeline

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/modhaus/modlayout/pkg/cache"
	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/mutate"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultMaxDepth caps how far a stretch gesture can lengthen a building.
	DefaultMaxDepth = 30.0

	// DefaultEpsilon is the tolerated length drift of a padded row.
	DefaultEpsilon = mutate.DefaultEpsilon
)

// =============================================================================
// Options - Engine Configuration
// =============================================================================

// Options configures a single engine call.
// This struct supports JSON serialization for API requests.
type Options struct {
	SystemID string   `json:"system_id"`
	DNAs     []string `json:"dnas,omitempty"`

	// MaxDepth bounds stretched layouts.
	MaxDepth float64 `json:"max_depth,omitempty"`
	// Epsilon bounds padding drift during mutations.
	Epsilon float64 `json:"epsilon,omitempty"`
	// Sequential evaluates mutation alternatives one at a time.
	Sequential bool `json:"sequential,omitempty"`
	// Refresh bypasses the layout cache read.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForMutation(); err != nil {
		return err
	}
	if err := errors.ValidateDNAList(o.DNAs); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForMutation checks the fields needed when the layout is already
// built, and applies defaults.
func (o *Options) ValidateForMutation() error {
	if err := errors.ValidateSystemID(o.SystemID); err != nil {
		return err
	}
	if o.MaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max_depth cannot be negative")
	}
	if o.Epsilon < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "epsilon cannot be negative")
	}
	o.SetDefaults()
	return nil
}

// SetDefaults fills zero values.
func (o *Options) SetDefaults() {
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Epsilon == 0 {
		o.Epsilon = DefaultEpsilon
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// MutateOptions returns the mutator configuration.
func (o *Options) MutateOptions() mutate.Options {
	return mutate.Options{Epsilon: o.Epsilon, Parallel: !o.Sequential}
}

// LayoutKeyOpts returns cache key options for a built layout.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{DNAs: o.DNAs}
}

// =============================================================================
// Mutation Kinds
// =============================================================================

// Kinds of mutation, as reported to observability hooks.
const (
	KindSectionType = "section_type"
	KindLevelType   = "level_type"
	KindWindowType  = "window_type"
)
