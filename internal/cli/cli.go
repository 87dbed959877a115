// Package cli implements the intelgraph command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/intelgraph/pkg/buildinfo"
	"github.com/matzehuels/intelgraph/pkg/cache"
	"github.com/matzehuels/intelgraph/pkg/config"
	"github.com/matzehuels/intelgraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display and completions.
	appName = "intelgraph"

	// defaultPadding is the margin kept around fitted output, in pixels.
	defaultPadding = pipeline.DefaultPadding
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

	verbose    bool
	configPath string
	cfg        *config.Config
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
		Use:   appName,
		Short: "intelgraph lays out intelligence graphs with a force simulation",
		Long: `intelgraph places the nodes of a typed intelligence graph (projects, risks,
requirements, stakeholders, audit scores) with a force-directed simulation
and shows the result as SVG, Graphviz, JSON, in the terminal or over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cfg, err := config.Load(cmd.Flags(), c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.Logger.Debug("loaded config", "seed", cfg.Seed, "ticks", cfg.Ticks, "cache", cfg.Cache.Backend)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	d := config.Default()
	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&c.configPath, "config", "", "config file (default: ./"+config.FileName+" if present)")
	pf.String("cache", d.Cache.Backend, "cache backend: file, redis, none")
	pf.String("cache-dir", "", "file cache directory (default: $XDG_CACHE_HOME/intelgraph)")
	pf.String("redis-addr", d.Redis.Addr, "redis address for the redis cache backend")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// settings returns the loaded configuration, or the defaults before the
// root pre-run has executed.
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg := c.settings()
	cc, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if cfg.Cache.Namespace != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Cache.Namespace)
	}
	return pipeline.NewRunner(cc, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		c.Logger.Debug("using redis cache", "addr", cfg.Redis.Addr)
		return rc, nil
	default:
		dir, err := cfg.CacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// =============================================================================
// Options Helpers
// =============================================================================

// pipelineOptions builds runner options from the effective config.
func (c *CLI) pipelineOptions() (pipeline.Options, error) {
	cfg := c.settings()
	params, err := cfg.SimParams()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Params:  params,
		Seed:    cfg.Seed,
		Ticks:   cfg.Ticks,
		Settle:  cfg.Settle,
		Padding: defaultPadding,
		Logger:  c.Logger,
	}, nil
}

// addRunFlags registers the simulation flags shared by headless commands.
// Their values are read through the config, not bound here.
func addRunFlags(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().Uint64("seed", d.Seed, "random seed for initial placement")
	cmd.Flags().Int("ticks", d.Ticks, "simulation ticks to run")
	cmd.Flags().Float64("settle", d.Settle, "stop early once mean kinetic energy falls below this (0 disables)")
	cmd.Flags().Float64("width", d.Width, "frame width")
	cmd.Flags().Float64("height", d.Height, "frame height")
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// outputSuffixes are the file suffixes basePath strips from -o, longest
// first.
var outputSuffixes = []string{".graphviz.svg", ".layout.json", ".svg", ".json", ".dot"}

// basePath derives the output path prefix. Without an explicit output the
// input's extension (and a trailing ".layout") is stripped.
func basePath(output, input string) string {
	if output != "" {
		for _, ext := range outputSuffixes {
			if strings.HasSuffix(output, ext) {
				return strings.TrimSuffix(output, ext)
			}
		}
		return output
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return strings.TrimSuffix(base, ".layout")
}

// artifactPath names the file for one format. Layout JSON gets a
// ".layout.json" suffix so it never overwrites an input graph.
func artifactPath(base, format string) string {
	if format == pipeline.FormatJSON {
		return base + ".layout.json"
	}
	return base + "." + pipeline.Extension(format)
}
