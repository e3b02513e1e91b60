package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cityscale/hypertransit/internal/history"
	apperrors "github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/pipeline"
)

// routeCommand creates the route command for single-mode path queries.
func (c *CLI) routeCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
		noSave     bool
	)
	opts := pipeline.Options{}
	opts.SetGenerateDefaults()
	opts.Mode = pipeline.DefaultMode

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Find the cheapest route between two nodes",
		Long: `Find the cheapest route between two nodes for one travel mode.

The network is generated (or loaded from cache) from the same parameters
the generate command uses, so the generation flags address a specific
city. Costs depend on the time of day: drive costs peak around 8:00 and
18:00, transit adds a boarding penalty per leg, walking is steady.

An unreachable pair is an answer, not a failure: the command reports it
and suggests comparing modes.

Examples:
  hypertransit route --start 3 --end 120
  hypertransit route --start 3 --end 120 -m transit --hour 8.5
  hypertransit route --start 3 --end 120 -m drive -o route.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.overlaySaved(cmd.Flags(), &opts)
			if output != "" {
				opts.Formats = parseFormats(formatsStr)
				if err := pipeline.ValidateFormats(opts.Formats); err != nil {
					return err
				}
			}
			return c.runRoute(cmd.Context(), opts, output, noCache, noSave)
		},
	}

	bindGenerationFlags(cmd, &opts)
	bindQueryFlags(cmd, &opts)
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", opts.Mode, "travel mode: walk (default), drive, transit")
	cmd.Flags().StringVarP(&output, "output", "o", "", "render the network with the route highlighted")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "render format(s): svg (default), dot, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not save parameters for the next run")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

// runRoute generates the network, answers the query, and prints the route.
func (c *CLI) runRoute(ctx context.Context, opts pipeline.Options, output string, noCache, noSave bool) error {
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

	start := time.Now()

	spinner := newSpinnerWithContext(ctx, "Generating network...")
	spinner.Start()
	net, hash, netHit, err := runner.GenerateWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return err
	}
	spinner.Stop()

	spinner = newSpinnerWithContext(ctx, fmt.Sprintf("Routing %s from %d to %d...", opts.Mode, opts.Start, opts.End))
	spinner.Start()
	res, routeHit, err := runner.RouteWithCacheInfo(ctx, net, hash, opts)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrCodeNotReachable) {
			spinner.Stop()
			printWarning("No %s route from %d to %d", opts.Mode, opts.Start, opts.End)
			printDetail("%s", apperrors.UserMessage(err))
			printNewline()
			printNextStep("Compare modes", fmt.Sprintf("hypertransit compare --start %d --end %d", opts.Start, opts.End))
			return nil
		}
		spinner.StopWithError("Routing failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	printSuccess("Route found")
	printKeyValue("Mode", string(res.Mode))
	printKeyValue("Hour", formatHour(res.Hour))
	printKeyValue("Cost", fmt.Sprintf("%.3f", res.TotalCost))
	printKeyValue("Legs", strconv.Itoa(len(res.Legs)))
	printDetail("%s", formatPath(res.Path))

	if output != "" {
		opts.WithRoute = true
		artifacts, _, err := runner.RenderWithCacheInfo(ctx, net, hash, res, opts)
		if err != nil {
			return fmt.Errorf("render route: %w", err)
		}
		if err := writeArtifacts(artifactWriteParams{
			artifacts: artifacts,
			formats:   opts.Formats,
			output:    output,
		}); err != nil {
			return err
		}
	}

	printDetail("network %s · route %s", cacheTag(netHit), cacheTag(routeHit))
	printNewline()
	printNextStep("Compare modes", fmt.Sprintf("hypertransit compare --start %d --end %d", opts.Start, opts.End))

	c.saveParams(opts, noSave)
	c.recordRun(&history.RunRecord{
		Op:         "route",
		Network:    hash,
		Nodes:      len(net.Nodes),
		Edges:      len(net.Edges),
		Mode:       string(res.Mode),
		Cost:       res.TotalCost,
		DurationMs: time.Since(start).Milliseconds(),
		CacheHit:   routeHit,
		Params:     marshalParams(opts),
	})
	return nil
}

// cacheTag returns the cached/fresh marker for one pipeline stage.
func cacheTag(hit bool) string {
	if hit {
		return iconCached
	}
	return iconFresh
}

// formatHour renders a fractional hour as a 24h clock time.
func formatHour(hour float64) string {
	h := int(hour)
	m := int((hour - float64(h)) * 60)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// formatPath renders a node sequence with arrows, eliding long middles.
func formatPath(path []network.NodeID) string {
	const maxShown = 12
	ids := make([]string, len(path))
	for i, id := range path {
		ids[i] = strconv.Itoa(int(id))
	}
	if len(ids) > maxShown {
		elided := append([]string{}, ids[:maxShown-2]...)
		elided = append(elided, "…")
		elided = append(elided, ids[len(ids)-2:]...)
		ids = elided
	}
	return strings.Join(ids, " "+iconArrow+" ")
}
