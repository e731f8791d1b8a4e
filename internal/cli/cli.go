package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/modhaus/modlayout/pkg/buildinfo"
	"github.com/modhaus/modlayout/pkg/cache"
	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/pipeline"
	"github.com/modhaus/modlayout/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "modlayout"

	// redisPrefix namespaces cache keys when the redis backend is used.
	redisPrefix = "modlayout:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config

	configPath string
	catalogues []string
	systemID   string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: defaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Modlayout lays out, mutates and stretches modular buildings",
		Long: `Modlayout turns a building's module DNA list into a positioned column layout,
proposes catalogue alternatives for its section, level and window types, and
stretches it interactively by revealing vanilla filler columns.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/modlayout/config.toml)")
	pf.StringSliceVarP(&c.catalogues, "catalogue", "c", nil, "catalogue snapshot file(s); overrides the configured source")
	pf.StringVarP(&c.systemID, "system", "s", "", "building system id")
	pf.BoolVar(&c.noCache, "no-cache", false, "disable caching")

	// Register all subcommands
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.dnasCommand())
	root.AddCommand(c.mutateCommand())
	root.AddCommand(c.stretchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.catalogueCommand())
	root.AddCommand(c.buildingCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads --config, or the default config file when it exists.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	path, explicit := c.configPath, c.configPath != ""
	if !explicit {
		path = defaultConfigPath()
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}
	c.Config = cfg
	if path != "" {
		loggerFromContext(cmd.Context()).Debug("config", "path", path, "explicit", explicit)
	}
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newCache opens the configured cache backend.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case cacheBackendNone:
		return cache.NewNullCache(), nil
	case cacheBackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Config.Cache.RedisAddr,
			Password: c.Config.Cache.RedisPassword,
			DB:       c.Config.Cache.RedisDB,
			Prefix:   redisPrefix,
		})
	}
	dir, err := c.Config.cachePath()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// system returns the system id from the flag, the building or the config,
// in that order.
func (c *CLI) system(b *store.Building) string {
	if c.systemID != "" {
		return c.systemID
	}
	if b != nil && b.SystemID != "" {
		return b.SystemID
	}
	return c.Config.Catalogue.SystemID
}

// newSource returns the remote catalogue source named by the config, and a
// function releasing it.
func (c *CLI) newSource(ctx context.Context) (catalogue.Source, func(), error) {
	cfg := c.Config.Catalogue
	switch {
	case cfg.Dir != "":
		return catalogue.FileSource{Dir: cfg.Dir}, func() {}, nil
	case cfg.URL != "":
		return catalogue.NewHTTPSource(cfg.URL), func() {}, nil
	case cfg.MongoURI != "":
		src, err := catalogue.NewMongoSource(ctx, catalogue.MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
		if err != nil {
			return nil, nil, err
		}
		return src, func() { src.Close(context.Background()) }, nil
	}
	return nil, nil, errors.New(errors.ErrCodeInvalidInput,
		"no catalogue configured: pass --catalogue or set [catalogue] in %s", defaultConfigPath())
}

// fetchCatalogue loads the catalogue for systemID, from --catalogue files if
// given, otherwise from the configured source through the cache.
func (c *CLI) fetchCatalogue(ctx context.Context, systemID string, cc cache.Cache, refresh bool) (*catalogue.Snapshot, error) {
	files := c.catalogues
	if len(files) == 0 {
		files = c.Config.Catalogue.Files
	}
	if len(files) > 0 {
		return catalogue.LoadSnapshot(files...)
	}

	remote, release, err := c.newSource(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	src := catalogue.NewCachedSource(remote, cc, nil, c.Logger)
	src.Refresh = refresh
	return src.Fetch(ctx, systemID)
}

// newRunner creates a pipeline runner for systemID.
func (c *CLI) newRunner(ctx context.Context, systemID string) (*pipeline.Runner, error) {
	if err := errors.ValidateSystemID(systemID); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "pass --system or set system_id in the building or config")
	}
	cc, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	cat, err := c.fetchCatalogue(ctx, systemID, cc, false)
	if err != nil {
		cc.Close()
		return nil, err
	}
	return pipeline.NewRunner(cat, cc, nil, c.Logger), nil
}

// openStore opens the building database.
func (c *CLI) openStore() (*store.SQLiteStore, error) {
	path, err := c.Config.storePath()
	if err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(path)
}

// =============================================================================
// Building Input
// =============================================================================

// buildingInput is the shared way commands name the building they act on:
// a building file argument, a stored building id, or inline DNAs.
type buildingInput struct {
	id   string
	dnas []string
}

func (in *buildingInput) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.id, "id", "", "stored building id")
	cmd.Flags().StringSliceVar(&in.dnas, "dna", nil, "module DNA (repeatable, bottom row first)")
}

// load resolves the building from args (at most one file path) and flags.
func (in *buildingInput) load(ctx context.Context, c *CLI, args []string) (*store.Building, error) {
	sources := 0
	for _, set := range []bool{len(args) > 0, in.id != "", len(in.dnas) > 0} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "name exactly one building: a file argument, --id or --dna")
	}

	switch {
	case len(args) > 0:
		return store.ReadFile(args[0])
	case in.id != "":
		s, err := c.openStore()
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return s.Get(ctx, in.id)
	}
	b := &store.Building{SystemID: c.system(nil), DNAs: in.dnas}
	if err := errors.ValidateDNAList(b.DNAs); err != nil {
		return nil, err
	}
	return b, nil
}

// stdout is where command results are written; tests replace it.
var stdout io.Writer = os.Stdout
