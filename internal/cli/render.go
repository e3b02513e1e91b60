package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/pipeline"
	"github.com/cityscale/hypertransit/pkg/route"
)

// renderCommand creates the render command for drawing networks.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
		noSave     bool
	)
	opts := pipeline.Options{}
	opts.SetGenerateDefaults()
	opts.SetRenderDefaults()
	opts.Mode = pipeline.DefaultMode

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the network as DOT, SVG, PNG, or PDF",
		Long: `Render the network with nodes pinned to their Poincaré-projected
coordinates.

Roads draw gray, transit segments green, stops as blue dots, plain
intersections black. With --with-route the cheapest --start/--end path
for --mode is drawn red and wider.

The DOT output is deterministic and diffable; SVG, PNG, and PDF are
rasterized from it via Graphviz. Artifacts are cached by content, so
re-rendering an unchanged network is a file copy.

Examples:
  hypertransit render                            # network.svg
  hypertransit render -f dot,svg,png -o city     # city.dot, city.svg, city.png
  hypertransit render --with-route --start 3 --end 120 -o route.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			c.overlaySaved(cmd.Flags(), &opts)
			return c.runRender(cmd.Context(), opts, output, noCache, noSave)
		},
	}

	bindGenerationFlags(cmd, &opts)
	bindQueryFlags(cmd, &opts)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&opts.ShowLabels, "labels", opts.ShowLabels, "draw node ID labels")
	cmd.Flags().Float64Var(&opts.PlotScale, "plot-scale", opts.PlotScale, "figure scale factor")
	cmd.Flags().BoolVar(&opts.WithRoute, "with-route", false, "highlight the --start/--end route for --mode")
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", opts.Mode, "travel mode for the route overlay")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not save parameters for the next run")

	return cmd
}

// runRender generates the network and writes the requested artifacts.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache, noSave bool) error {
	if output != "" {
		if err := apperrors.ValidateOutputPath(output); err != nil {
			return err
		}
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Generating network...")
	spinner.Start()
	net, hash, _, err := runner.GenerateWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return err
	}
	spinner.Stop()

	var res *route.Result
	if opts.WithRoute {
		res, _, err = runner.RouteWithCacheInfo(ctx, net, hash, opts)
		if err != nil {
			return fmt.Errorf("route overlay: %w", err)
		}
	}

	spinner = newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %v...", opts.Formats))
	spinner.Start()
	artifacts, renderHit, err := runner.RenderWithCacheInfo(ctx, net, hash, res, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	printSuccess("Render complete")
	if err := writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		output:    output,
	}); err != nil {
		return err
	}
	printStats(len(net.Nodes), len(net.Edges), renderHit)

	c.saveParams(opts, noSave)
	return nil
}
