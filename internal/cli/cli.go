package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineageview/pkg/buildinfo"
	"github.com/matzehuels/lineageview/pkg/cache"
	"github.com/matzehuels/lineageview/pkg/config"
	"github.com/matzehuels/lineageview/pkg/httputil"
	"github.com/matzehuels/lineageview/pkg/layout"
	"github.com/matzehuels/lineageview/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "lineageview"

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

	// Engine lays out datasets. Nil means Graphviz.
	Engine layout.Engine

	config     config.Config
	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: config.Default(),
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
		Short: "Lineageview draws data lineage graphs",
		Long: `Lineageview lays out the upstream and downstream entities of a dataset
as a left-to-right graph and renders it as an interactive SVG, an HTML page,
a static image or a PDF. 'lineageview serve' serves a directory of datasets.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.config = cfg
			c.registerHooks()
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.config/lineageview/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable caching")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if prefix := c.config.Cache.Prefix; prefix != "" {
		keyer = cache.NewScopedKeyer(nil, prefix)
	}
	runner := pipeline.NewRunner(cc, keyer, c.Logger)
	runner.TTL = c.config.Cache.TTL
	return runner, nil
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	cfg := c.config.Cache
	if c.noCache || cfg.Backend == config.CacheNone {
		return cache.NewNullCache(), nil
	}

	switch cfg.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		rc.Scope = cfg.Prefix
		return rc, nil
	default:
		dir, err := cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// readInput returns the contents of a dataset or scene file, or fetches it
// when input is an http(s) URL. Fetched bodies share the runner's cache.
func (c *CLI) readInput(ctx context.Context, runner *pipeline.Runner, input string, refresh bool) ([]byte, error) {
	if !httputil.IsURL(input) {
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", input, err)
		}
		return data, nil
	}

	client := httputil.NewClient(httputil.Options{
		Cache:   runner.Cache,
		TTL:     c.config.Remote.TTL,
		Scope:   c.config.Cache.Prefix,
		Headers: c.config.Remote.Headers,
		Timeout: c.config.Remote.Timeout,
	})
	data, cached, err := client.Fetch(ctx, input, refresh)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("fetched dataset", "url", input, "bytes", len(data), "cached", cached)
	return data, nil
}

// outputName is the path outputs are named after when no output is given.
func outputName(input string) string {
	if httputil.IsURL(input) {
		return "lineage.json"
	}
	return input
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/lineageview/).
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

// basePath derives the path outputs are written next to. Without an output
// the input's extension is stripped; an output keeps its name unless it ends
// in a format extension. A trailing ".scene" is dropped in both cases.
func basePath(output, input string) string {
	path := output
	if path == "" {
		path = input
	}
	ext := filepath.Ext(path)
	if output == "" || pipeline.ValidateFormat(strings.TrimPrefix(ext, ".")) == nil {
		path = strings.TrimSuffix(path, ext)
	}
	return strings.TrimSuffix(path, ".scene")
}

// =============================================================================
// Options Helpers
// =============================================================================

// setCLIDefaults seeds opts from the loaded configuration and applies the
// pipeline defaults on top.
func setCLIDefaults(opts *pipeline.Options, cfg config.Config) {
	opts.Layout = cfg.Layout
	opts.Width = cfg.View.Width
	opts.Height = cfg.View.Height
	opts.Scale = cfg.View.Scale
	opts.Fit = cfg.View.Fit
	opts.Margin = cfg.View.Margin
	opts.Icons = cfg.IconOverrides()
	opts.SetLayoutDefaults()
	opts.SetRenderDefaults()
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// isSceneFile reports whether data is a laid-out scene rather than a dataset.
func isSceneFile(data []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	_, ok := probe["nodes"]
	return ok
}

