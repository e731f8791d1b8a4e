package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/layout"
	"github.com/modhaus/modlayout/pkg/mutate"
	"github.com/modhaus/modlayout/pkg/pipeline"
	"github.com/modhaus/modlayout/pkg/store"
)

// mutateFlags are shared by every mutate subcommand.
type mutateFlags struct {
	in         buildingInput
	sequential bool
	epsilon    float64
	apply      int
	output     string
}

func (f *mutateFlags) add(cmd *cobra.Command) {
	f.in.addFlags(cmd)
	cmd.Flags().BoolVar(&f.sequential, "sequential", false, "evaluate alternatives one at a time")
	cmd.Flags().Float64Var(&f.epsilon, "epsilon", 0, "padding drift tolerance (default 0.01)")
	cmd.Flags().IntVar(&f.apply, "apply", 0, "apply the n-th alternative (1-based); updates --id in the store, or writes -o")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "building file to write the applied alternative to")
}

// choice is one alternative as the mutate commands display it.
type choice struct {
	label string
	alt   mutate.Alternative
}

// mutateCommand creates the mutate command group.
func (c *CLI) mutateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mutate",
		Short: "List catalogue alternatives for a building",
		Long: `List catalogue alternatives for a building.

Each subcommand swaps one property (section type, one level's type, or one
module's window) for every other catalogue option, refits the affected rows
with the closest matching modules, and pads them with vanilla fillers where
the replacement is shorter. Alternatives are ranked by cost: the summed match
distance of the replacements plus the number of fillers.`,
	}

	cmd.AddCommand(c.mutateSectionCommand())
	cmd.AddCommand(c.mutateLevelCommand())
	cmd.AddCommand(c.mutateWindowCommand())
	return cmd
}

func (c *CLI) mutateSectionCommand() *cobra.Command {
	var f mutateFlags
	cmd := &cobra.Command{
		Use:   "section <current-section-type> [building.toml]",
		Short: "Alternatives for the building's section type",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			current := args[0]
			return c.runMutation(cmd.Context(), &f, args[1:], func(ctx context.Context, r *pipeline.Runner, l layout.ColumnLayout, opts pipeline.Options) ([]choice, error) {
				alts, err := r.MutateSectionType(ctx, l, current, opts)
				if err != nil {
					return nil, err
				}
				out := make([]choice, len(alts))
				for i, a := range alts {
					out[i] = choice{label: a.SectionType.Code, alt: a.Alternative}
				}
				return out, nil
			})
		},
	}
	f.add(cmd)
	return cmd
}

func (c *CLI) mutateLevelCommand() *cobra.Command {
	var f mutateFlags
	cmd := &cobra.Command{
		Use:   "level <row-index> <current-level-type> [building.toml]",
		Short: "Alternatives for one level's type",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseIndex("row-index", args[0])
			if err != nil {
				return err
			}
			current := args[1]
			return c.runMutation(cmd.Context(), &f, args[2:], func(ctx context.Context, r *pipeline.Runner, l layout.ColumnLayout, opts pipeline.Options) ([]choice, error) {
				alts, err := r.MutateLevelType(ctx, l, row, current, opts)
				if err != nil {
					return nil, err
				}
				out := make([]choice, len(alts))
				for i, a := range alts {
					out[i] = choice{label: fmt.Sprintf("%s (%+g)", a.LevelType.Code, a.HeightDelta), alt: a.Alternative}
				}
				return out, nil
			})
		},
	}
	f.add(cmd)
	return cmd
}

func (c *CLI) mutateWindowCommand() *cobra.Command {
	var f mutateFlags
	cmd := &cobra.Command{
		Use:   "window <column> <row> <module> <END|SIDE1|SIDE2|TOP> [building.toml]",
		Short: "Alternatives for one module's window",
		Args:  cobra.RangeArgs(4, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			var idx [3]int
			for i, name := range []string{"column", "row", "module"} {
				n, err := parseIndex(name, args[i])
				if err != nil {
					return err
				}
				idx[i] = n
			}
			side := catalogue.WindowSide(strings.ToUpper(args[3]))
			if _, err := side.Field(); err != nil {
				return err
			}
			return c.runMutation(cmd.Context(), &f, args[4:], func(ctx context.Context, r *pipeline.Runner, l layout.ColumnLayout, opts pipeline.Options) ([]choice, error) {
				alts, err := r.MutateWindowType(ctx, l, idx[0], idx[1], idx[2], side, opts)
				if err != nil {
					return nil, err
				}
				out := make([]choice, len(alts))
				for i, a := range alts {
					label := a.WindowType.Code
					if a.Module != nil {
						label += " " + iconArrow + " " + a.Module.DNA
					}
					out[i] = choice{label: label, alt: a.Alternative}
				}
				return out, nil
			})
		},
	}
	f.add(cmd)
	return cmd
}

func parseIndex(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a non-negative integer, got %q", name, v)
	}
	return n, nil
}

type mutation func(ctx context.Context, r *pipeline.Runner, l layout.ColumnLayout, opts pipeline.Options) ([]choice, error)

// runMutation builds the layout, runs one mutation and prints or applies
// the alternatives.
func (c *CLI) runMutation(ctx context.Context, f *mutateFlags, args []string, run mutation) error {
	b, err := f.in.load(ctx, c, args)
	if err != nil {
		return err
	}
	systemID := c.system(b)
	runner, err := c.newRunner(ctx, systemID)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := pipeline.Options{
		SystemID:   systemID,
		DNAs:       b.DNAs,
		Epsilon:    f.epsilon,
		Sequential: f.sequential,
		Logger:     c.Logger,
	}
	l, err := runner.BuildLayout(ctx, opts)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Evaluating alternatives...")
	spinner.Start()
	choices, err := run(ctx, runner, l, opts)
	if err != nil {
		spinner.StopWithError("Mutation failed")
		return err
	}
	spinner.Stop()
	if spinner.Cancelled() {
		return ctx.Err()
	}

	if len(choices) == 0 {
		printWarning("No alternatives")
		return nil
	}
	if f.apply == 0 {
		fmt.Fprintln(stdout, choicesTable(choices))
		printNewline()
		printNextStep("Apply one", fmt.Sprintf("%s mutate ... --apply N", appName))
		return nil
	}
	if f.apply < 1 || f.apply > len(choices) {
		return errors.New(errors.ErrCodeInvalidInput, "--apply %d out of range 1..%d", f.apply, len(choices))
	}
	return c.applyChoice(ctx, b, f, choices[f.apply-1])
}

// applyChoice persists the chosen alternative's DNA list.
func (c *CLI) applyChoice(ctx context.Context, b *store.Building, f *mutateFlags, ch choice) error {
	dnas, err := layout.LayoutToDnas(ch.alt.Layout)
	if err != nil {
		return err
	}

	switch {
	case f.output != "":
		out := *b
		out.DNAs = dnas
		if err := store.WriteFile(&out, f.output); err != nil {
			return err
		}
		printSuccess("Applied %s", StyleHighlight.Render(ch.label))
		printFile(f.output)
	case f.in.id != "":
		s, err := c.openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		if _, err := s.UpdateDNAs(ctx, b.ID, dnas, b.Origin); err != nil {
			return err
		}
		printSuccess("Applied %s to building %s", StyleHighlight.Render(ch.label), b.ID)
	default:
		fmt.Fprintln(stdout, strings.Join(dnas, "\n"))
	}
	return nil
}

// choicesTable renders ranked alternatives.
func choicesTable(choices []choice) string {
	rows := make([][]string, len(choices))
	for i, ch := range choices {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			ch.label,
			strconv.Itoa(ch.alt.Cost),
			strconv.Itoa(ch.alt.Fillers),
			formatLength(ch.alt.Layout.Depth()),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Alternative", "Cost", "Fillers", "Depth").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case row == 0:
				return StyleSuccess
			case col == 1:
				return StyleValue
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		}).
		Render()
}
