package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/errors"
)

// catalogueCommand creates the catalogue command group.
func (c *CLI) catalogueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "catalogue",
		Aliases: []string{"catalog"},
		Short:   "Fetch and inspect module catalogues",
	}

	cmd.AddCommand(c.catalogueFetchCommand())
	cmd.AddCommand(c.catalogueListCommand())

	return cmd
}

// catalogueFetchCommand creates the "catalogue fetch" subcommand.
func (c *CLI) catalogueFetchCommand() *cobra.Command {
	var (
		output  string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "fetch [system-id]",
		Short: "Fetch a system's catalogue from the configured source",
		Long: `Fetch a system's catalogue from the configured source.

The catalogue is read through the cache; --refresh fetches it again from the
source. With -o it is written as TOML, YAML or JSON for use with --catalogue.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			systemID := c.system(nil)
			if len(args) > 0 {
				systemID = args[0]
			}
			if err := errors.ValidateSystemID(systemID); err != nil {
				return err
			}

			cc, err := c.newCache(ctx)
			if err != nil {
				return err
			}
			defer cc.Close()

			spinner := newSpinnerWithContext(ctx, "Fetching catalogue...")
			spinner.Start()
			snap, err := c.fetchCatalogue(ctx, systemID, cc, refresh)
			if err != nil {
				spinner.StopWithError("Fetch failed")
				return err
			}
			spinner.Stop()
			if spinner.Cancelled() {
				return ctx.Err()
			}

			d, ok := snap.Data(systemID)
			if !ok {
				return errors.NotFound("system %q not in catalogue", systemID)
			}
			if output != "" {
				if err := catalogue.WriteFile(d, output); err != nil {
					return err
				}
				printSuccess("Fetched %s", StyleHighlight.Render(systemID))
				printFile(output)
				return nil
			}
			printSuccess("Fetched %s", StyleHighlight.Render(systemID))
			fmt.Fprintln(stdout, catalogueTable([]catalogue.Data{d}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the catalogue to this file (.toml, .yaml or .json)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cached catalogue")

	return cmd
}

// catalogueListCommand creates the "catalogue list" subcommand.
func (c *CLI) catalogueListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the systems in the --catalogue files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			files := c.catalogues
			if len(files) == 0 {
				files = c.Config.Catalogue.Files
			}
			if len(files) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "no catalogue files: pass --catalogue or set [catalogue] files")
			}
			snap, err := catalogue.LoadSnapshot(files...)
			if err != nil {
				return err
			}
			var data []catalogue.Data
			for _, id := range snap.Systems() {
				d, _ := snap.Data(id)
				data = append(data, d)
			}
			fmt.Fprintln(stdout, catalogueTable(data))
			return nil
		},
	}
}

// catalogueTable renders one row of counts per system.
func catalogueTable(data []catalogue.Data) string {
	rows := make([][]string, len(data))
	for i, d := range data {
		vanilla := 0
		for _, m := range d.Modules {
			if m.Vanilla {
				vanilla++
			}
		}
		rows[i] = []string{
			d.SystemID,
			strconv.Itoa(len(d.Modules)),
			strconv.Itoa(vanilla),
			strconv.Itoa(len(d.SectionTypes)),
			strconv.Itoa(len(d.LevelTypes)),
			strconv.Itoa(len(d.WindowTypes)),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("System", "Modules", "Vanilla", "Sections", "Levels", "Windows").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case col == 0:
				return StyleHighlight
			}
			return StyleValue
		}).
		Render()
}
