// Package cli implements the hypertransit command-line interface.
package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cityscale/hypertransit/internal/history"
	"github.com/cityscale/hypertransit/pkg/buildinfo"
	"github.com/cityscale/hypertransit/pkg/cache"
	"github.com/cityscale/hypertransit/pkg/config"
	"github.com/cityscale/hypertransit/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "hypertransit"
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

	// ConfigPath overrides the saved-parameters file location. Empty means
	// the default under the user config directory.
	ConfigPath string

	// HistoryPath overrides the run-history database location. Empty means
	// the default next to the saved-parameters file.
	HistoryPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "hypertransit",
		Short:        "Hypertransit generates and routes synthetic transport networks",
		Long:         `Hypertransit builds synthetic city transport networks in hyperbolic space and answers multi-modal, time-of-day aware route queries over them.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.routeCommand())
	root.AddCommand(c.compareCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/hypertransit/).
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
// Saved Parameters
// =============================================================================

// configStore opens the saved-parameters store.
func (c *CLI) configStore() (*config.Store, error) {
	return config.NewStore(c.ConfigPath)
}

// overlaySaved fills generation fields from the saved parameter file for
// every flag the user did not set on the command line. Flags always win;
// the file only supplies what the invocation left unspecified.
func (c *CLI) overlaySaved(flags *pflag.FlagSet, opts *pipeline.Options) {
	store, err := c.configStore()
	if err != nil {
		c.Logger.Debugf("Saved parameters unavailable: %v", err)
		return
	}
	cfg, err := store.Load()
	if err != nil {
		c.Logger.Warnf("Ignoring saved parameters: %v", err)
		return
	}
	if cfg == nil {
		return
	}

	c.Logger.Debugf("Using saved parameters from %s", store.Path())
	if !flags.Changed("nodes") {
		opts.Nodes = cfg.Params.Nodes
	}
	if !flags.Changed("max-radius") {
		opts.MaxRadius = cfg.Params.MaxRadius
	}
	if !flags.Changed("threshold") {
		opts.Threshold = cfg.Params.Threshold
	}
	if !flags.Changed("seed") {
		opts.Seed = cfg.Params.Seed
	}
	if !flags.Changed("lines") && !flags.Changed("no-transit") {
		opts.Lines = cfg.Params.Lines
		// Lines == 0 means the saved network had transit disabled; without
		// the explicit flag SetGenerateDefaults would bump it back to 3.
		opts.NoTransit = cfg.Params.Lines == 0
	}
	if !flags.Changed("stop-fraction") {
		opts.StopFrac = cfg.Params.StopFrac
	}
	if !flags.Changed("jitter") {
		opts.Jitter = cfg.Params.TrafficJitter
	}
	if opts.Traffic == nil {
		opts.Traffic = &cfg.Traffic
	}
}

// saveParams persists the effective parameters for the next invocation.
// Failures are logged, not returned: a read-only config dir should never
// fail the run that produced a perfectly good network.
func (c *CLI) saveParams(opts pipeline.Options, noSave bool) {
	if noSave {
		return
	}
	store, err := c.configStore()
	if err != nil {
		c.Logger.Debugf("Saved parameters unavailable: %v", err)
		return
	}
	cfg := &config.Config{Params: opts.Params(), Traffic: opts.Model()}
	if err := store.Save(cfg); err != nil {
		c.Logger.Warnf("Could not save parameters: %v", err)
		return
	}
	c.Logger.Debugf("Saved parameters to %s", store.Path())
}

// =============================================================================
// Run History
// =============================================================================

// recordRun appends one entry to the local run ledger. Like saveParams this
// is best effort: history failures never fail the command.
func (c *CLI) recordRun(rec *history.RunRecord) {
	db, err := history.Open(c.HistoryPath)
	if err != nil {
		c.Logger.Debugf("History unavailable: %v", err)
		return
	}
	defer db.Close()

	if _, err := db.Insert(rec); err != nil {
		c.Logger.Debugf("Could not record run: %v", err)
	}
}

// marshalParams serializes the effective generation parameters for a
// history entry. Returns nil on failure, which the ledger stores as {}.
func marshalParams(opts pipeline.Options) json.RawMessage {
	data, err := json.Marshal(opts.Params())
	if err != nil {
		return nil
	}
	return data
}

// =============================================================================
// Shared Flags
// =============================================================================

// bindGenerationFlags registers the flags that identify a network. Every
// command that needs a network accepts the same set, so "hypertransit route
// -n 500 ..." and "hypertransit render -n 500 ..." address the same cached
// generation.
func bindGenerationFlags(cmd *cobra.Command, opts *pipeline.Options) {
	f := cmd.Flags()
	f.IntVarP(&opts.Nodes, "nodes", "n", opts.Nodes, "number of intersections")
	f.Float64Var(&opts.MaxRadius, "max-radius", opts.MaxRadius, "hyperbolic disk radius bound")
	f.Float64VarP(&opts.Threshold, "threshold", "t", opts.Threshold, "max hyperbolic distance for a road edge")
	f.Uint64VarP(&opts.Seed, "seed", "s", opts.Seed, "random seed (same seed, same city)")
	f.IntVar(&opts.Lines, "lines", opts.Lines, "transit line count")
	f.BoolVar(&opts.NoTransit, "no-transit", opts.NoTransit, "generate without transit lines")
	f.Float64Var(&opts.StopFrac, "stop-fraction", opts.StopFrac, "fraction of nodes promoted to transit stops")
	f.Float64Var(&opts.Jitter, "jitter", opts.Jitter, "per-edge drive congestion jitter")
	f.BoolVar(&opts.Refresh, "refresh", false, "bypass the cache and regenerate")
}

// bindQueryFlags registers the flags shared by route queries.
func bindQueryFlags(cmd *cobra.Command, opts *pipeline.Options) {
	f := cmd.Flags()
	f.IntVar(&opts.Start, "start", 0, "start node ID")
	f.IntVar(&opts.End, "end", 0, "end node ID")
	f.Float64Var(&opts.Hour, "hour", opts.Hour, "time of day on the 24h clock, e.g. 8.5 for 08:30")
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
