package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/modhaus/modlayout/pkg/cache"
	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/pipeline"
	"github.com/modhaus/modlayout/pkg/server"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		systems []string
		timeout time.Duration
		noStore bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout and mutation HTTP API",
		Long: `Serve the layout and mutation HTTP API.

Catalogues are loaded once at startup: every system in the --catalogue files,
or each --systems id from the configured source. Stored buildings are served
under /v1/buildings unless --no-store is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			if len(systems) == 0 {
				systems = []string{c.system(nil)}
			}

			cc, err := c.newCache(ctx)
			if err != nil {
				return err
			}
			cat, err := c.loadSystems(ctx, systems, cc)
			if err != nil {
				cc.Close()
				return err
			}
			runner := pipeline.NewRunner(cat, cc, nil, c.Logger)
			defer runner.Close()

			cfg := server.Config{Runner: runner, Logger: c.Logger, Timeout: timeout}
			if !noStore {
				s, err := c.openStore()
				if err != nil {
					return err
				}
				defer s.Close()
				cfg.Store = s
			}

			printSuccess("Serving %s on %s", StyleHighlight.Render(appName), StyleValue.Render(addr))
			printDetail("systems: %v", cat.Systems())
			return server.New(cfg).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringSliceVar(&systems, "systems", nil, "system ids to load from the configured source")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-request timeout")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not serve stored buildings")

	return cmd
}

// loadSystems merges the catalogues of several systems into one snapshot.
func (c *CLI) loadSystems(ctx context.Context, systems []string, cc cache.Cache) (*catalogue.Snapshot, error) {
	if len(c.catalogues) > 0 || len(c.Config.Catalogue.Files) > 0 {
		return c.fetchCatalogue(ctx, "", cc, false)
	}
	data := make([]catalogue.Data, 0, len(systems))
	for _, id := range systems {
		if err := errors.ValidateSystemID(id); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "pass --systems or set system_id in the config")
		}
		snap, err := c.fetchCatalogue(ctx, id, cc, false)
		if err != nil {
			return nil, err
		}
		if d, ok := snap.Data(id); ok {
			data = append(data, d)
		}
	}
	return catalogue.NewSnapshot(data...)
}
