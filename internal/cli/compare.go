package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/cityscale/hypertransit/internal/history"
	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/pipeline"
)

// compareCommand creates the compare command for cross-mode queries.
func (c *CLI) compareCommand() *cobra.Command {
	var (
		noCache bool
		noSave  bool
	)
	opts := pipeline.Options{}
	opts.SetGenerateDefaults()

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Answer the same query for every travel mode",
		Long: `Answer the same start/end query for walk, drive, and transit at once.

Each mode is searched independently over its own view of the network. A
mode that cannot connect the pair contributes a "not reachable" outcome
instead of failing the comparison; the cheapest successful mode wins.

Examples:
  hypertransit compare --start 3 --end 120
  hypertransit compare --start 3 --end 120 --hour 17.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.overlaySaved(cmd.Flags(), &opts)
			return c.runCompare(cmd.Context(), opts, noCache, noSave)
		},
	}

	bindGenerationFlags(cmd, &opts)
	bindQueryFlags(cmd, &opts)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not save parameters for the next run")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

// runCompare generates the network, compares all modes, and prints the table.
func (c *CLI) runCompare(ctx context.Context, opts pipeline.Options, noCache, noSave bool) error {
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

	spinner = newSpinnerWithContext(ctx, fmt.Sprintf("Comparing modes from %d to %d...", opts.Start, opts.End))
	spinner.Start()
	cmp, cmpHit, err := runner.CompareWithCacheInfo(ctx, net, hash, opts)
	if err != nil {
		spinner.StopWithError("Comparison failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	printKeyValue("Query", fmt.Sprintf("%d %s %d at %s", opts.Start, iconArrow, opts.End, formatHour(opts.Hour)))
	fmt.Println(renderCompareTable(cmp))

	var bestCost float64
	if cmp.Best != "" {
		if o, ok := cmp.Outcomes[cmp.Best]; ok && o.Result != nil {
			bestCost = o.Result.TotalCost
		}
		printSuccess("Best: %s (cost %.3f)", cmp.Best, bestCost)
	} else {
		printWarning("No mode connects %d and %d", opts.Start, opts.End)
	}
	printDetail("network %s · comparison %s", cacheTag(netHit), cacheTag(cmpHit))

	c.saveParams(opts, noSave)
	c.recordRun(&history.RunRecord{
		Op:         "compare",
		Network:    hash,
		Nodes:      len(net.Nodes),
		Edges:      len(net.Edges),
		Mode:       string(cmp.Best),
		Cost:       bestCost,
		DurationMs: time.Since(start).Milliseconds(),
		CacheHit:   cmpHit,
		Params:     marshalParams(opts),
	})
	return nil
}

// renderCompareTable renders per-mode outcomes as a bordered table.
func renderCompareTable(cmp *pipeline.CompareResult) string {
	rows := [][]string{}
	for _, mode := range network.Modes() {
		o, ok := cmp.Outcomes[mode]
		if !ok {
			continue
		}
		if o.Result == nil {
			rows = append(rows, []string{string(mode), "—", "—", outcomeText(o.Error)})
			continue
		}
		rows = append(rows, []string{
			string(mode),
			fmt.Sprintf("%.3f", o.Result.TotalCost),
			strconv.Itoa(len(o.Result.Legs)),
			"ok",
		})
	}
	return modeTable(rows, cmp.Best)
}

// modeTable renders mode/cost/legs/outcome rows as a bordered table. The
// winning mode's row is green; rows without a route are dimmed.
func modeTable(rows [][]string, best network.Mode) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Mode", "Cost", "Legs", "Outcome").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= len(rows) {
				return lipgloss.NewStyle()
			}
			switch {
			case best != "" && network.Mode(rows[row][0]) == best:
				return lipgloss.NewStyle().Foreground(colorGreen)
			case rows[row][3] != "ok":
				return lipgloss.NewStyle().Foreground(colorDim)
			default:
				return lipgloss.NewStyle()
			}
		}).
		Render()
}

// outcomeText converts a per-mode error code into table text.
func outcomeText(code string) string {
	if code == "NOT_REACHABLE" {
		return "not reachable"
	}
	return code
}
