// Package cli implements the blik command-line interface.
//
// The commands read particle, table and image files into a data set and
// inspect, convert, depict or serve it:
//   - info: summarise the data set, grouped by volume
//   - depict: write the layer descriptors of a scene as JSON
//   - convert: rewrite particles or images in another file format
//   - serve: serve layers to an external viewer over HTTP
//   - browse: page through the volumes interactively
//   - cache: manage the cache of parsed files
//   - config: print the effective configuration
//
// Settings come from the --config file, BLIK_* environment variables and
// flags, in increasing precedence. All commands support --verbose (-v) for
// debug logging.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blik/internal/config"
	"github.com/matzehuels/blik/pkg/buildinfo"
	"github.com/matzehuels/blik/pkg/cache"
	"github.com/matzehuels/blik/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "blik"

// redisDialTimeout bounds the connection attempt to a configured Redis cache.
const redisDialTimeout = 3 * time.Second

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
	Config config.Config

	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
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
		Short: "blik inspects and depicts cryo-ET particle and image data",
		Long: `blik reads particle picks, subtomogram averaging tables and tomograms
(RELION .star, Dynamo .tbl, .box, .fits), groups them by volume and turns
them into layer descriptors for a viewer.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.preRun,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (.toml or .yaml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable caching")

	// Register all subcommands
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.depictCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())
	registerCompletions(root)

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Keys are scoped by the
// build version, so records parsed by an older release are not reused.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

// newCache opens the configured cache backend. An unreachable Redis server
// degrades to no caching rather than failing the command.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc := c.Config.Cache.Redis
		rcache, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:        rc.Addr,
			Password:    rc.Password,
			DB:          rc.DB,
			Prefix:      rc.Prefix,
			DialTimeout: redisDialTimeout,
		})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "addr", rc.Addr, "err", err)
			return cache.NewNullCache(), nil
		}
		return rcache, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory or the XDG default.
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/blik/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// loadFlags are the input flags shared by every command that reads files.
type loadFlags struct {
	strict    bool
	pixelSize float64
	volume    string
	refresh   bool
}

func (f *loadFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail on the first unreadable file")
	cmd.Flags().Float64Var(&f.pixelSize, "pixel-size", 0, "override the pixel size in Angstrom")
	cmd.Flags().StringVar(&f.volume, "volume", "", "assign every block to this volume")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached records")
}

// options merges configuration defaults with the flags that were set.
func (c *CLI) options(cmd *cobra.Command, paths []string, f *loadFlags) pipeline.Options {
	opts := pipeline.Options{
		Paths:        paths,
		Strict:       c.Config.Load.Strict,
		PixelSize:    c.Config.Load.PixelSize,
		VectorLength: c.Config.Depict.VectorLength,
		Volume:       f.volume,
		Refresh:      f.refresh,
		Logger:       c.Logger,
	}
	if cmd.Flags().Changed("strict") {
		opts.Strict = f.strict
	}
	if cmd.Flags().Changed("pixel-size") {
		opts.PixelSize = f.pixelSize
	}
	return opts
}
