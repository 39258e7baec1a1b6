// Package cli implements the wheelpeek command-line interface.
//
// The commands are thin wrappers around [pipeline.Runner]:
//
//   - extract: print {name: [lines...]} for each reference as JSON
//   - resolve: show which wheel a requirement selects
//   - list: print an archive's central directory
//   - serve: run the HTTP API
//   - cache: inspect or clear the listing cache
//   - completion: generate shell completions
//
// Machine-readable output goes to stdout. Logs and status lines go to stderr.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wheelpeek/internal/config"
	"github.com/matzehuels/wheelpeek/pkg/buildinfo"
	"github.com/matzehuels/wheelpeek/pkg/cache"
	"github.com/matzehuels/wheelpeek/pkg/observability"
	"github.com/matzehuels/wheelpeek/pkg/pipeline"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// redisKeyPrefix namespaces wheelpeek's keys in a shared Redis.
const redisKeyPrefix = "wheelpeek:"

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	flags  globalFlags
}

// globalFlags are the persistent flags every command accepts. Zero values
// mean "not given" so config file and environment settings show through.
type globalFlags struct {
	config      string
	indexURL    string
	timeout     time.Duration
	retries     int
	noCache     bool
	refresh     bool
	concurrency int
	marker      string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "wheelpeek",
		Short: "wheelpeek reads top_level.txt from Python wheels without downloading them",
		Long: `wheelpeek resolves Python package references to wheel archives and extracts
their top_level.txt, transferring only the archive's central directory and the
one entry it needs.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	f := root.PersistentFlags()
	f.StringVar(&c.flags.config, "config", "", "config file (default $XDG_CONFIG_HOME/wheelpeek/config.toml)")
	f.StringVar(&c.flags.indexURL, "index-url", "", "simple API root (default https://pypi.org/simple)")
	f.DurationVar(&c.flags.timeout, "timeout", 0, "per-request HTTP timeout")
	f.IntVar(&c.flags.retries, "retries", 0, "attempts per request for transient failures")
	f.BoolVar(&c.flags.noCache, "no-cache", false, "disable the listing cache")
	f.BoolVar(&c.flags.refresh, "refresh", false, "refetch listings even when cached")
	f.IntVar(&c.flags.concurrency, "concurrency", 0, "maximum references processed at once (0 = all)")
	f.StringVar(&c.flags.marker, "marker", "", "entry name suffix to extract (default /top_level.txt)")

	root.AddCommand(c.extractCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the config file and environment, then applies flags.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.flags.config)
	if err != nil {
		return nil, err
	}
	if c.flags.indexURL != "" {
		cfg.IndexURL = c.flags.indexURL
	}
	if c.flags.timeout > 0 {
		cfg.HTTP.Timeout = c.flags.timeout
	}
	if c.flags.retries > 0 {
		cfg.HTTP.Retries = c.flags.retries
	}
	if c.flags.concurrency > 0 {
		cfg.Extract.Concurrency = c.flags.concurrency
	}
	if c.flags.marker != "" {
		cfg.Extract.Marker = c.flags.marker
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The caller must Close it.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, hooks observability.Hooks) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts := cfg.PipelineOptions()
	opts.Refresh = c.flags.refresh
	opts.Cache = ch
	opts.Logger = c.Logger
	opts.Hooks = hooks

	runner, err := pipeline.NewRunner(opts)
	if err != nil {
		ch.Close()
		return nil, err
	}
	return runner, nil
}

// newCache picks the listing cache: none with --no-cache, Redis when a URL
// is configured, otherwise files under the cache directory. An unusable
// cache directory disables caching rather than failing the command.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if c.flags.noCache || cfg.Cache.TTL == 0 {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, redisKeyPrefix)
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("using redis cache", "addr", redisAddr(cfg.Cache.RedisURL))
		return rc, nil
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		c.Logger.Debug("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Debug("cache disabled", "dir", dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// cacheDir returns the configured cache directory or the XDG default
// (~/.cache/wheelpeek/).
func cacheDir(cfg *config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return config.CacheDir()
}

// redisAddr returns the host:port of a Redis URL so it can be logged
// without the credentials the URL may carry.
func redisAddr(raw string) string {
	opts, err := redis.ParseURL(raw)
	if err != nil {
		return "invalid"
	}
	return opts.Addr
}
