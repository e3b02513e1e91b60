package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	apperrors "github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/modegraph"
	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/pipeline"
)

// exploreCommand creates the interactive explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var noCache bool
	opts := pipeline.Options{}
	opts.SetGenerateDefaults()

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Pick nodes interactively and explore journeys",
		Long: `Explore a generated network interactively.

Three pickers run in sequence (start node, end node, travel mode), then the
journey screen opens: arrow keys shift the departure hour and "m" cycles the
travel mode, including a side-by-side comparison of all three.

The node pickers list the largest walk-connected component, so any pair you
select has at least one walking route.

Examples:
  hypertransit explore
  hypertransit explore -n 500 -s 7
  hypertransit explore --hour 17.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.overlaySaved(cmd.Flags(), &opts)
			return c.runExplore(cmd.Context(), opts, noCache)
		},
	}

	bindGenerationFlags(cmd, &opts)
	cmd.Flags().Float64Var(&opts.Hour, "hour", opts.Hour, "initial time of day on the 24h clock")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runExplore generates the network and walks through the pickers.
func (c *CLI) runExplore(ctx context.Context, opts pipeline.Options, noCache bool) error {
	if err := apperrors.ValidateTimeOfDay(opts.Hour); err != nil {
		return err
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Generating %d-node network...", opts.Nodes))
	spinner.Start()
	net, _, cacheHit, err := runner.GenerateWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	component, err := modegraph.LargestComponent(net, network.ModeWalk)
	if err != nil {
		return err
	}
	if len(component) < 2 {
		printWarning("Network has no walkable pair to explore")
		printDetail("try a larger --threshold or more --nodes")
		return nil
	}

	choices := nodeChoices(net, component)
	printSuccess("Network ready")
	printStats(len(net.Nodes), len(net.Edges), cacheHit)
	printDetail("%d of %d nodes are walk-connected", len(component), len(net.Nodes))
	printNewline()

	start, ok, err := pickNode("Select Start Node", choices)
	if err != nil || !ok {
		return err
	}

	end, ok, err := pickNode("Select End Node", withoutNode(choices, start))
	if err != nil || !ok {
		return err
	}

	mp := NewModePickerModel()
	finalMode, err := tea.NewProgram(mp).Run()
	if err != nil {
		return err
	}
	mm, ok := finalMode.(ModePickerModel)
	if !ok || mm.Selected == "" {
		printDetail("No selection made")
		return nil
	}

	jm := NewJourneyModel(net, opts.Model(), start, end, mm.Selected, opts.Hour)
	if _, err := tea.NewProgram(jm).Run(); err != nil {
		return err
	}

	printNewline()
	printNextStep("Same query from the shell",
		fmt.Sprintf("hypertransit compare --start %d --end %d --hour %g", start, end, opts.Hour))
	return nil
}

// pickNode runs one node picker. ok is false when the user backed out.
func pickNode(title string, choices []NodeChoice) (network.NodeID, bool, error) {
	m := NewNodePickerModel(title, choices)
	finalModel, err := tea.NewProgram(m).Run()
	if err != nil {
		return 0, false, err
	}

	fm, ok := finalModel.(NodePickerModel)
	if !ok || fm.Selected == nil {
		printDetail("No selection made")
		return 0, false, nil
	}
	return *fm.Selected, true, nil
}

// nodeChoices builds picker rows for the given node IDs.
func nodeChoices(net *network.Network, ids []network.NodeID) []NodeChoice {
	degree := make([]int, len(net.Nodes))
	for _, e := range net.Edges {
		degree[e.U]++
		degree[e.V]++
	}

	choices := make([]NodeChoice, 0, len(ids))
	for _, id := range ids {
		node, ok := net.Node(id)
		if !ok {
			continue
		}
		choices = append(choices, NodeChoice{
			ID:     id,
			Type:   node.Type,
			Radius: node.Pos.R,
			Degree: degree[id],
		})
	}
	return choices
}

// withoutNode filters one node out of the choices, so the end picker cannot
// re-select the start.
func withoutNode(choices []NodeChoice, id network.NodeID) []NodeChoice {
	out := make([]NodeChoice, 0, len(choices))
	for _, ch := range choices {
		if ch.ID != id {
			out = append(out, ch)
		}
	}
	return out
}
