// Package pkg provides the core libraries of modlayout, a layout engine for
// modular buildings.
//
// # Overview
//
// A building is a flat list of module DNA strings, bottom row first. Each
// DNA names a catalogue module: its section type, position, level type, grid
// type and length, plus optional window details. The engine groups the
// modules into rows, cuts the rows into columns at shared boundaries, and
// positions every column, row and module. The pkg directory is organized
// into four areas:
//
//  1. Domain: [dna], [catalogue], [layout], [match], [mutate], [stretch]
//  2. Orchestration: [pipeline]
//  3. Infrastructure: [cache], [store], [observability], [errors]
//  4. Surfaces: [server], plus the modlayout CLI in internal/cli
//
// # Architecture
//
// The typical data flow:
//
//	Building (DNA list) + Catalogue snapshot
//	         ↓
//	    [layout] package (rows → columns → positions)
//	         ↓
//	    [mutate] package (section, level and window alternatives)
//	    [stretch] package (filler columns under a drag gesture)
//	         ↓
//	    DNA list (persisted with [store])
//
// # Quick Start
//
// Lay out a building and list its section-type alternatives:
//
//	snap, _ := catalogue.LoadSnapshot("skylark.toml")
//	r := pipeline.NewRunner(snap, nil, nil, nil)
//	defer r.Close()
//
//	opts := pipeline.Options{SystemID: "skylark", DNAs: dnas}
//	l, _ := r.BuildLayout(ctx, opts)
//	alts, _ := r.MutateSectionType(ctx, l, "S1", opts)
//	next, _ := r.LayoutToDnas(alts[0].Layout)
//
// Stretch it by dragging the end side:
//
//	c, _ := r.NewStretchController(ctx, l, stretch.Config{}, opts)
//	_ = c.GestureStart(stretch.SideEnd)
//	_ = c.GestureProgress(2.4)
//	commit, _ := c.GestureEnd()
//
// # Main Packages
//
// [dna] parses and formats module DNA strings and their optional detail
// fields.
//
// [catalogue] is the read-only module catalogue. Snapshots load from TOML,
// YAML or JSON files, a directory, an HTTP endpoint or MongoDB, and are
// cached per system through [cache].
//
// [layout] turns a DNA list into a positioned ColumnLayout and back.
//
// [match] finds the catalogue module closest to a desired one.
//
// [mutate] generates ranked alternatives that swap one property of a layout.
//
// [stretch] is the gesture state machine that reveals and hides vanilla
// filler columns.
//
// [pipeline] wires the catalogue, cache and engine together. Both the CLI and
// the HTTP API use it.
//
// [store] persists buildings in SQLite and moves them in and out of files.
//
// [server] is the chi-based HTTP API.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/layout/...     # Specific package
//
// [dna]: https://pkg.go.dev/github.com/modhaus/modlayout/pkg/dna
// [catalogue]: https://pkg.go.dev/github.com/modhaus/modlayout/pkg/catalogue
// [layout]: https://pkg.go.dev/github.com/modhaus/modlayout/pkg/layout
// [match]: https://pkg.go.dev/github.com/modhaus/modlayout/pkg/match
// [mutate]: https://pkg.go.dev/github.com/modhaus/modlayout/pkg/mutate
// [stretch]: https://pkg.go.dev/github.com/modhaus/modlayout/pkg/stretch
// [pipeline]: https://pkg.go.dev/github.com/modhaus/modlayout/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/modhaus/modlayout/pkg/cache
// [store]: https://pkg.go.dev/github.com/modhaus/modlayout/pkg/store
// [observability]: https://pkg.go.dev/github.com/modhaus/modlayout/pkg/observability
// [errors]: https://pkg.go.dev/github.com/modhaus/modlayout/pkg/errors
// [server]: https://pkg.go.dev/github.com/modhaus/modlayout/pkg/server
package pkg
