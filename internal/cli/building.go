package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/pipeline"
	"github.com/modhaus/modlayout/pkg/store"
)

// buildingCommand creates the building command group for the building store.
func (c *CLI) buildingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "building",
		Short: "Manage stored buildings",
		Long: `Manage stored buildings.

Buildings are kept in a SQLite database ($XDG_DATA_HOME/modlayout/buildings.db
unless [store] path is set). Other commands act on a stored building with --id.`,
	}

	cmd.AddCommand(c.buildingSaveCommand())
	cmd.AddCommand(c.buildingListCommand())
	cmd.AddCommand(c.buildingShowCommand())
	cmd.AddCommand(c.buildingExportCommand())
	cmd.AddCommand(c.buildingDeleteCommand())

	return cmd
}

// buildingSaveCommand creates the "building save" subcommand.
func (c *CLI) buildingSaveCommand() *cobra.Command {
	var (
		dnas    []string
		name    string
		noCheck bool
	)

	cmd := &cobra.Command{
		Use:   "save [building.toml]",
		Short: "Store a building from a file or --dna flags",
		Long: `Store a building from a file or --dna flags.

The building is laid out first so that only buildings the catalogue can
build are stored; --no-check skips this. A file carrying an id replaces the
stored building with that id.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in := buildingInput{dnas: dnas}
			b, err := in.load(ctx, c, args)
			if err != nil {
				return err
			}
			if name != "" {
				b.Name = name
			}
			b.SystemID = c.system(b)

			if !noCheck {
				runner, err := c.newRunner(ctx, b.SystemID)
				if err != nil {
					return err
				}
				_, err = runner.BuildLayout(ctx, pipeline.Options{SystemID: b.SystemID, DNAs: b.DNAs, Logger: c.Logger})
				runner.Close()
				if err != nil {
					return err
				}
			}

			s, err := c.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			saved, err := s.Save(ctx, b)
			if err != nil {
				return err
			}
			printSuccess("Saved building %s", StyleHighlight.Render(saved.ID))
			printNewline()
			printNextStep("Lay it out", fmt.Sprintf("%s build --id %s", appName, saved.ID))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&dnas, "dna", nil, "module DNA (repeatable, bottom row first)")
	cmd.Flags().StringVar(&name, "name", "", "building name")
	cmd.Flags().BoolVar(&noCheck, "no-check", false, "store without laying the building out first")

	return cmd
}

// buildingListCommand creates the "building list" subcommand.
func (c *CLI) buildingListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored buildings, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			buildings, err := s.List(cmd.Context(), store.ListOptions{SystemID: c.systemID, Limit: limit})
			if err != nil {
				return err
			}
			if len(buildings) == 0 {
				printInfo("No stored buildings")
				return nil
			}
			fmt.Fprintln(stdout, buildingsTable(buildings))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of buildings to list")
	return cmd
}

// buildingShowCommand creates the "building show" subcommand.
func (c *CLI) buildingShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored building",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			b, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printKeyValue("id", b.ID)
			printKeyValue("name", b.Name)
			printKeyValue("system", b.SystemID)
			printKeyValue("origin", fmt.Sprintf("%s, %s, %s", formatLength(b.Origin.X), formatLength(b.Origin.Y), formatLength(b.Origin.Z)))
			printKeyValue("created", b.CreatedAt.Local().Format(time.DateTime))
			printKeyValue("updated", b.UpdatedAt.Local().Format(time.DateTime))
			printKeyValue("modules", strconv.Itoa(len(b.DNAs)))
			printNewline()
			fmt.Fprintln(stdout, strings.Join(b.DNAs, "\n"))
			return nil
		},
	}
}

// buildingExportCommand creates the "building export" subcommand.
func (c *CLI) buildingExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a stored building to a TOML, YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New(errors.ErrCodeInvalidInput, "export needs -o")
			}
			s, err := c.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			b, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := store.WriteFile(b, output); err != nil {
				return err
			}
			printSuccess("Exported %s", StyleHighlight.Render(buildingName(b)))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "building file to write")
	return cmd
}

// buildingDeleteCommand creates the "building delete" subcommand.
func (c *CLI) buildingDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored building",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted building %s", args[0])
			return nil
		},
	}
}

// buildingsTable renders one row per stored building.
func buildingsTable(buildings []*store.Building) string {
	rows := make([][]string, len(buildings))
	for i, b := range buildings {
		rows[i] = []string{
			b.ID,
			b.Name,
			b.SystemID,
			strconv.Itoa(len(b.DNAs)),
			b.UpdatedAt.Local().Format(time.DateTime),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "System", "Modules", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case col == 0:
				return StyleHighlight
			case col == 4:
				return StyleDim
			}
			return StyleValue
		}).
		Render()
}
