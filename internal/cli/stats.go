package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/cityscale/hypertransit/pkg/modegraph"
	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/pipeline"
)

// statsCommand creates the stats command for structural summaries.
func (c *CLI) statsCommand() *cobra.Command {
	var noCache bool
	opts := pipeline.Options{}
	opts.SetGenerateDefaults()

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize a network's structure",
		Long: `Summarize the degree and edge-length distributions of a network,
plus per-mode edge counts and the size of each mode's largest connected
component. A largest component well below the node count means many pairs
are unreachable in that mode.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.overlaySaved(cmd.Flags(), &opts)
			return c.runStats(cmd.Context(), opts, noCache)
		},
	}

	bindGenerationFlags(cmd, &opts)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runStats generates the network and prints its structural summary.
func (c *CLI) runStats(ctx context.Context, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Generating network...")
	spinner.Start()
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

	printSuccess("Network statistics")
	printKeyValue("Hash", shortHash(hash))
	printKeyValue("Seed", strconv.FormatUint(net.Params.Seed, 10))
	printKeyValue("Nodes", fmt.Sprintf("%d (%d stops)", stats.Nodes, stats.Stops))
	printKeyValue("Edges", fmt.Sprintf("%d (%d road, %d transit, %d transit-only)",
		stats.Edges, stats.RoadEdges, stats.TransitEdges, stats.TransitOnly))
	printKeyValue("Degree", fmt.Sprintf("mean %.2f · stddev %.2f · max %d",
		stats.DegreeMean, stats.DegreeStdDev, stats.DegreeMax))
	printKeyValue("Length", fmt.Sprintf("mean %.3f · median %.3f · p90 %.3f · max %.3f",
		stats.LengthMean, stats.LengthMedian, stats.LengthP90, stats.LengthMax))
	printNewline()
	fmt.Println(renderModeTable(net))
	printStats(stats.Nodes, stats.Edges, cacheHit)

	return nil
}

// renderModeTable renders per-mode edge counts and connectivity.
func renderModeTable(net *network.Network) string {
	rows := [][]string{}
	for _, mode := range network.Modes() {
		size := 0
		if comp, err := modegraph.LargestComponent(net, mode); err == nil {
			size = len(comp)
		}
		coverage := 0.0
		if len(net.Nodes) > 0 {
			coverage = float64(size) / float64(len(net.Nodes)) * 100
		}
		rows = append(rows, []string{
			string(mode),
			strconv.Itoa(net.EdgeCount(mode)),
			fmt.Sprintf("%d (%.0f%%)", size, coverage),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Mode", "Edges", "Largest component").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
