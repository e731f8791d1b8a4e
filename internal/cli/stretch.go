package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/layout"
	"github.com/modhaus/modlayout/pkg/pipeline"
	"github.com/modhaus/modlayout/pkg/store"
	"github.com/modhaus/modlayout/pkg/stretch"
)

// stretchOpts holds the stretch command flags.
type stretchOpts struct {
	in        buildingInput
	maxDepth  float64
	step      float64
	side      string
	extend    float64
	axis      string
	obstacles []string
	output    string
}

// stretchCommand creates the stretch command.
func (c *CLI) stretchCommand() *cobra.Command {
	var opts stretchOpts

	cmd := &cobra.Command{
		Use:   "stretch [building.toml]",
		Short: "Stretch a building by revealing filler columns",
		Long: `Stretch a building by revealing filler columns.

Without --extend an interactive view opens: ←/→ drag the selected side,
tab switches between the start and end side, ⏎ commits the drag, w saves and
q quits. Vanilla filler columns appear as the dragged end passes their depth,
up to --max-depth, unless an --obstacle box is in the way.

With --extend the drag is applied once without a terminal UI. Positive
values extend the end side; negative values extend the start side.

The stretched DNA list is written to -o, to the store for --id, or printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStretch(cmd.Context(), args, opts, cmd.Flags().Changed("extend"))
		},
	}

	opts.in.addFlags(cmd)
	cmd.Flags().Float64Var(&opts.maxDepth, "max-depth", 0, "maximum stretched depth (default from config, 30)")
	cmd.Flags().Float64Var(&opts.step, "step", 0.6, "drag distance per key press")
	cmd.Flags().StringVar(&opts.side, "side", "", "side to drag: start or end (default from the sign of --extend)")
	cmd.Flags().Float64Var(&opts.extend, "extend", 0, "drag once by this distance and exit")
	cmd.Flags().StringVar(&opts.axis, "axis", "depth", "world axis the building stretches along: depth or width")
	cmd.Flags().StringSliceVar(&opts.obstacles, "obstacle", nil, "blocking box minX,minY,minZ,maxX,maxY,maxZ (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "building file to write the stretched building to")

	return cmd
}

// parseBox parses "minX,minY,minZ,maxX,maxY,maxZ".
func parseBox(s string) (stretch.Box, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return stretch.Box{}, errors.New(errors.ErrCodeInvalidInput, "obstacle %q: want 6 comma-separated numbers", s)
	}
	var v [6]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return stretch.Box{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "obstacle %q", s)
		}
		v[i] = f
	}
	return stretch.Box{
		Min: stretch.Vec3{X: v[0], Y: v[1], Z: v[2]},
		Max: stretch.Vec3{X: v[3], Y: v[4], Z: v[5]},
	}, nil
}

func parseSide(s string, extend float64) (stretch.Side, error) {
	switch strings.ToLower(s) {
	case "end":
		return stretch.SideEnd, nil
	case "start":
		return stretch.SideStart, nil
	case "":
		if extend < 0 {
			return stretch.SideStart, nil
		}
		return stretch.SideEnd, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "side must be start or end, got %q", s)
}

func parseAxis(s string) (stretch.Axis, error) {
	switch strings.ToLower(s) {
	case "depth", "z":
		return stretch.AxisDepth, nil
	case "width", "x":
		return stretch.AxisWidth, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "axis must be depth or width, got %q", s)
}

// frameOf places a layout in the world at the building's origin.
func frameOf(b *store.Building, l layout.ColumnLayout) stretch.Frame {
	f := stretch.Frame{Origin: stretch.Vec3{X: b.Origin.X, Y: b.Origin.Y, Z: b.Origin.Z}}
	if len(l.Columns) == 0 {
		return f
	}
	for _, r := range l.Columns[0].Rows {
		f.Height += r.Height()
		if len(r.Modules) > 0 {
			f.Width = max(f.Width, r.Modules[0].Module.Width)
		}
	}
	return f
}

func (c *CLI) runStretch(ctx context.Context, args []string, opts stretchOpts, once bool) error {
	b, err := opts.in.load(ctx, c, args)
	if err != nil {
		return err
	}
	side, err := parseSide(opts.side, opts.extend)
	if err != nil {
		return err
	}
	axis, err := parseAxis(opts.axis)
	if err != nil {
		return err
	}
	var boxes stretch.Boxes
	for _, s := range opts.obstacles {
		box, err := parseBox(s)
		if err != nil {
			return err
		}
		boxes = append(boxes, box)
	}

	systemID := c.system(b)
	runner, err := c.newRunner(ctx, systemID)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{SystemID: systemID, DNAs: b.DNAs, MaxDepth: opts.maxDepth, Logger: c.Logger}
	if popts.MaxDepth == 0 {
		popts.MaxDepth = c.Config.Stretch.MaxDepth
	}
	l, err := runner.BuildLayout(ctx, popts)
	if err != nil {
		return err
	}

	cfg := stretch.Config{Axis: axis, Frame: frameOf(b, l)}
	if len(boxes) > 0 {
		cfg.Collider = boxes
	}

	var result stretchResult
	if once {
		ctrl, err := runner.NewStretchController(ctx, l, cfg, popts)
		if err != nil {
			return err
		}
		result, err = stretchOnce(ctrl, side, opts.extend)
		if err != nil {
			return err
		}
	} else {
		// The TUI owns the terminal, so keep log output out of it.
		cfg.Logger = newLogger(io.Discard, LogInfo)
		ctrl, err := runner.NewStretchController(ctx, l, cfg, popts)
		if err != nil {
			return err
		}
		m := newStretchModel(ctrl, l, side, opts.step, popts.MaxDepth)
		final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(os.Stderr)).Run()
		if err != nil {
			return err
		}
		fm := final.(stretchModel)
		if !fm.save {
			printInfo("Stretch discarded")
			return nil
		}
		result = fm.result()
	}

	return c.saveStretch(ctx, b, opts, result)
}

// stretchResult is the committed outcome of one or more gestures.
type stretchResult struct {
	layout layout.ColumnLayout
	frame  stretch.Frame
}

// stretchOnce applies a single drag of delta from side.
func stretchOnce(ctrl *stretch.Controller, side stretch.Side, delta float64) (stretchResult, error) {
	if err := ctrl.GestureStart(side); err != nil {
		return stretchResult{}, err
	}
	if err := ctrl.GestureProgress(delta); err != nil {
		return stretchResult{}, err
	}
	commit, err := ctrl.GestureEnd()
	if err != nil {
		return stretchResult{}, err
	}
	ctrl.Cleanup()
	return stretchResult{layout: commit.Layout, frame: commit.Frame}, nil
}

func (c *CLI) saveStretch(ctx context.Context, b *store.Building, opts stretchOpts, r stretchResult) error {
	dnas, err := layout.LayoutToDnas(r.layout)
	if err != nil {
		return err
	}
	origin := store.Origin{X: r.frame.Origin.X, Y: r.frame.Origin.Y, Z: r.frame.Origin.Z}

	switch {
	case opts.output != "":
		out := *b
		out.DNAs = dnas
		out.Origin = origin
		if err := store.WriteFile(&out, opts.output); err != nil {
			return err
		}
		printSuccess("Stretched to %d columns", len(r.layout.Columns))
		printFile(opts.output)
	case opts.in.id != "":
		s, err := c.openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		if _, err := s.UpdateDNAs(ctx, b.ID, dnas, origin); err != nil {
			return err
		}
		printSuccess("Stretched building %s to %d columns", b.ID, len(r.layout.Columns))
	default:
		fmt.Fprintln(stdout, strings.Join(dnas, "\n"))
		return nil
	}
	printLayoutStats(r.layout, false)
	if origin != b.Origin {
		printDetail("origin moved to (%s, %s, %s)", formatLength(origin.X), formatLength(origin.Y), formatLength(origin.Z))
	}
	return nil
}
