package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/pipeline"
)

// Cache backends accepted in [cache] backend.
const (
	cacheBackendFile  = "file"
	cacheBackendRedis = "redis"
	cacheBackendNone  = "none"
)

// Config is the optional config file, $XDG_CONFIG_HOME/modlayout/config.toml.
// Command-line flags override it.
type Config struct {
	Cache     CacheConfig     `toml:"cache"`
	Catalogue CatalogueConfig `toml:"catalogue"`
	Store     StoreConfig     `toml:"store"`
	Stretch   StretchConfig   `toml:"stretch"`
	Server    ServerConfig    `toml:"server"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// CatalogueConfig names where catalogues come from. Files win over Dir,
// Dir over URL, URL over MongoURI.
type CatalogueConfig struct {
	Files         []string `toml:"files"`
	Dir           string   `toml:"dir"`
	URL           string   `toml:"url"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
	SystemID      string   `toml:"system_id"`
}

// StoreConfig locates the building database.
type StoreConfig struct {
	Path string `toml:"path"`
}

// StretchConfig holds stretch defaults.
type StretchConfig struct {
	MaxDepth float64 `toml:"max_depth"`
}

// ServerConfig holds serve defaults.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() *Config {
	return &Config{
		Cache:   CacheConfig{Backend: cacheBackendFile},
		Stretch: StretchConfig{MaxDepth: pipeline.DefaultMaxDepth},
		Server:  ServerConfig{Addr: ":8080"},
	}
}

// loadConfig reads path over the defaults. A missing file is not an error
// unless the path was given explicitly.
func loadConfig(path string, explicit bool) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "", cacheBackendFile, cacheBackendRedis, cacheBackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == cacheBackendRedis && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "redis cache requires redis_addr")
	}
	if c.Stretch.MaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "stretch max_depth cannot be negative")
	}
	return nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/modlayout/).
func cacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// configDir returns the config directory (~/.config/modlayout/).
func configDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// dataDir returns the data directory (~/.local/share/modlayout/).
func dataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}

// defaultConfigPath returns config.toml in the config directory.
func defaultConfigPath() string {
	dir, err := configDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// storePath returns the configured building database or the default one.
func (c *Config) storePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "buildings.db"), nil
}

// cachePath returns the configured file cache directory or the default one.
func (c *Config) cachePath() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return cacheDir()
}
