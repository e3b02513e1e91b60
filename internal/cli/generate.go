package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cityscale/hypertransit/internal/history"
	"github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/pipeline"
)

// generateCommand creates the generate command for building networks.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		noSave  bool
	)
	opts := pipeline.Options{}
	opts.SetGenerateDefaults()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic transport network",
		Long: `Generate a synthetic transport network in the hyperbolic disk.

Nodes are sampled uniformly in a Poincaré disk, road edges connect pairs
within the distance threshold, and transit lines chain nearby stops. The
same seed and parameters always produce the same network.

Parameters are saved after a successful run and become the defaults for
the next invocation; pass --no-save to skip that. Results are cached
locally for faster subsequent runs.

Examples:
  hypertransit generate                          # 200 nodes, seed 42
  hypertransit generate -n 500 -s 7              # bigger city, new seed
  hypertransit generate --no-transit             # roads only
  hypertransit generate -o city.json             # export the network JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.overlaySaved(cmd.Flags(), &opts)
			return c.runGenerate(cmd.Context(), opts, output, noCache, noSave)
		},
	}

	bindGenerationFlags(cmd, &opts)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the network JSON to this path (\"-\" for stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not save parameters for the next run")

	return cmd
}

// runGenerate builds the network, optionally exports it, and prints a summary.
func (c *CLI) runGenerate(ctx context.Context, opts pipeline.Options, output string, noCache, noSave bool) error {
	if output != "" && output != "-" {
		if err := errors.ValidateOutputPath(output); err != nil {
			return err
		}
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Generating %d-node network...", opts.Nodes))
	spinner.Start()

	start := time.Now()
	net, hash, cacheHit, err := runner.GenerateWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	stats := network.Summarize(net)

	if output != "" {
		if err := exportNetwork(net, output); err != nil {
			return err
		}
	}

	printSuccess("Network ready")
	if output != "" && output != "-" {
		printFile(output)
	}
	printKeyValue("Hash", shortHash(hash))
	printKeyValue("Stops", fmt.Sprintf("%d", stats.Stops))
	printKeyValue("Transit", fmt.Sprintf("%d edges (%d transit-only)", stats.TransitEdges, stats.TransitOnly))
	printStats(stats.Nodes, stats.Edges, cacheHit)
	printNewline()
	printNextStep("Explore", "hypertransit explore")

	c.saveParams(opts, noSave)
	c.recordRun(&history.RunRecord{
		Op:         "generate",
		Network:    hash,
		Nodes:      stats.Nodes,
		Edges:      stats.Edges,
		DurationMs: time.Since(start).Milliseconds(),
		CacheHit:   cacheHit,
		Params:     marshalParams(opts),
	})
	return nil
}

// exportNetwork writes the network JSON to path, or to stdout for "-".
func exportNetwork(net *network.Network, path string) error {
	if path == "-" {
		return network.WriteJSON(net, os.Stdout)
	}
	return network.ExportJSON(net, path)
}

// shortHash abbreviates a content hash for display.
func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
