// Package cli implements the pipstale command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pipstale/pipstale/internal/config"
	"github.com/pipstale/pipstale/pkg/buildinfo"
	"github.com/pipstale/pipstale/pkg/cache"
	"github.com/pipstale/pipstale/pkg/index"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pipstale"

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

	// Boring disables colors and interactive UI elements.
	Boring bool

	// Verbose enables debug logging and the extra report sections.
	Verbose bool

	cfg *config.Config
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
		Use:          appName,
		Short:        "pipstale finds outdated pins in Python requirements files",
		Long: `pipstale checks the packages declared in a requirements.txt against
the package index, reports which pins have newer releases, and can
rewrite the pins in place.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVar(&c.Boring, "boring", false, "plain output: no colors, no spinners, no fancy prompts")
	root.PersistentFlags().BoolVarP(&c.Verbose, "verbose", "v", false, "verbose output and debug logging")

	root.AddCommand(c.checkCommand())
	root.AddCommand(c.updateCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig returns the config file contents, reading it on first use.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// plain reports whether decorated output should be suppressed.
func (c *CLI) plain() bool {
	return c.Boring || os.Getenv("NO_COLOR") != ""
}

// =============================================================================
// Index Options
// =============================================================================

// indexOptions collects the flags shared by check and update.
type indexOptions struct {
	jsonRepo   string
	simpleRepo string
	jsonOnly   bool
	simpleOnly bool
	timeout    time.Duration
	useCache   bool
	cacheTTL   time.Duration
}

// registerIndexFlags adds the shared index flags to cmd.
func registerIndexFlags(cmd *cobra.Command, o *indexOptions) {
	cmd.Flags().StringVarP(&o.jsonRepo, "json-repo", "j", index.DefaultJSONRepo, "JSON API base URL")
	cmd.Flags().StringVarP(&o.simpleRepo, "simple-repo", "s", index.DefaultSimpleRepo, "Simple API base URL")
	cmd.Flags().BoolVarP(&o.jsonOnly, "json-only", "J", false, "query only the JSON API, no fallback")
	cmd.Flags().BoolVarP(&o.simpleOnly, "simple-only", "S", false, "query only the Simple API, no fallback")
	cmd.Flags().DurationVar(&o.timeout, "timeout", index.DefaultTimeout, "per-request timeout")
	cmd.Flags().BoolVar(&o.useCache, "cache", false, "cache index responses on disk")
	cmd.Flags().DurationVar(&o.cacheTTL, "cache-ttl", time.Hour, "lifetime of cached index responses")
	cmd.MarkFlagsMutuallyExclusive("json-only", "simple-only")
}

// newIndexClient builds the lookup client from flags and the config
// file. Flags set on the command line override the config file.
func (c *CLI) newIndexClient(cmd *cobra.Command, o *indexOptions) (index.Client, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if !flags.Changed("json-repo") && cfg.Index.JSON != "" {
		o.jsonRepo = cfg.Index.JSON
	}
	if !flags.Changed("simple-repo") && cfg.Index.Simple != "" {
		o.simpleRepo = cfg.Index.Simple
	}
	if !flags.Changed("timeout") && cfg.Timeout() != 0 {
		o.timeout = cfg.Timeout()
	}
	if !flags.Changed("cache") && cfg.Cache.Enabled {
		o.useCache = true
	}
	if !flags.Changed("cache-ttl") && cfg.CacheTTL() != 0 {
		o.cacheTTL = cfg.CacheTTL()
	}

	backend, err := c.newCache(o, cfg)
	if err != nil {
		return nil, err
	}

	return index.New(index.Options{
		JSONRepo:   o.jsonRepo,
		SimpleRepo: o.simpleRepo,
		JSONOnly:   o.jsonOnly,
		SimpleOnly: o.simpleOnly,
		Timeout:    o.timeout,
		Cache:      backend,
		CacheTTL:   o.cacheTTL,
	}), nil
}

func (c *CLI) newCache(o *indexOptions, cfg *config.Config) (cache.Cache, error) {
	if !o.useCache {
		return cache.NewNullCache(), nil
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		dir, err = cacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/pipstale/).
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
