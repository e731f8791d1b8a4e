package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modhaus/modlayout/pkg/layout"
	"github.com/modhaus/modlayout/pkg/pipeline"
	"github.com/modhaus/modlayout/pkg/store"
)

// buildCommand creates the build command for laying out a building.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		in      buildingInput
		output  string
		refresh bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "build [building.toml]",
		Short: "Lay out a building as positioned columns",
		Long: `Lay out a building as positioned columns.

The building is read from a TOML, YAML or JSON building file, from the
building store (--id), or from inline --dna flags. Its modules are grouped into
rows, the rows are cut into columns, and every column, row and module is
positioned. The layout is printed as a table, or written as JSON with -o.

Layouts are cached by system and DNA list; --refresh bypasses the cache read.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := in.load(cmd.Context(), c, args)
			if err != nil {
				return err
			}
			return c.runBuild(cmd.Context(), b, output, refresh, asJSON)
		},
	}

	in.addFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the layout as JSON to this file")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "rebuild even when the layout is cached")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the layout as JSON instead of a table")

	return cmd
}

// runBuild builds the layout and prints or writes it.
func (c *CLI) runBuild(ctx context.Context, b *store.Building, output string, refresh, asJSON bool) error {
	systemID := c.system(b)
	runner, err := c.newRunner(ctx, systemID)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Building layout...")
	spinner.Start()
	prog := newProgress(loggerFromContext(ctx))

	l, hit, err := runner.BuildLayoutWithCacheInfo(ctx, pipeline.Options{
		SystemID: systemID,
		DNAs:     b.DNAs,
		Refresh:  refresh,
		Logger:   c.Logger,
	})
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()
	if spinner.Cancelled() {
		return ctx.Err()
	}
	prog.done("Built layout")

	switch {
	case output != "":
		if err := writeLayoutFile(l, output); err != nil {
			return err
		}
		printSuccess("Layout complete")
		printFile(output)
	case asJSON:
		return writeLayout(l, stdout)
	default:
		printSuccess("Layout of %s", StyleHighlight.Render(buildingName(b)))
		fmt.Fprintln(stdout, layoutTable(l))
	}
	printLayoutStats(l, hit)
	return nil
}

func writeLayout(l layout.ColumnLayout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(layout.ToExport(l))
}

func writeLayoutFile(l layout.ColumnLayout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeLayout(l, f)
}

// buildingName is the display name of b.
func buildingName(b *store.Building) string {
	switch {
	case b.Name != "":
		return b.Name
	case b.ID != "":
		return b.ID
	}
	return fmt.Sprintf("%d modules", len(b.DNAs))
}

// dnasCommand creates the dnas command for round-tripping a building.
func (c *CLI) dnasCommand() *cobra.Command {
	var in buildingInput

	cmd := &cobra.Command{
		Use:   "dnas [building.toml]",
		Short: "Lay out a building and print its DNA list back",
		Long: `Lay out a building and print its DNA list back, one DNA per line.

The output is the layout read row by row from the bottom, each row column by
column. For a valid building it equals the input; a layout whose columns
disagree on row count fails with LENGTH_MISMATCH.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := in.load(ctx, c, args)
			if err != nil {
				return err
			}
			systemID := c.system(b)
			runner, err := c.newRunner(ctx, systemID)
			if err != nil {
				return err
			}
			defer runner.Close()

			l, err := runner.BuildLayout(ctx, pipeline.Options{SystemID: systemID, DNAs: b.DNAs, Logger: c.Logger})
			if err != nil {
				return err
			}
			dnas, err := runner.LayoutToDnas(l)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, strings.Join(dnas, "\n"))
			return nil
		},
	}

	in.addFlags(cmd)
	return cmd
}
