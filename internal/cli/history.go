package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/cityscale/hypertransit/internal/history"
)

// historyCommand creates the history command for the local run ledger.
func (c *CLI) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past generate, route, and compare runs",
		Long: `List past runs from the local ledger.

Every successful generate, route, and compare invocation is recorded in a
SQLite database next to the saved parameter file, newest first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runHistoryList(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")

	cmd.AddCommand(c.historyClearCommand())
	cmd.AddCommand(c.historyPathCommand())

	return cmd
}

// runHistoryList prints the most recent ledger entries.
func (c *CLI) runHistoryList(limit int) error {
	db, err := history.Open(c.HistoryPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	runs, err := db.Recent(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printInfo("No runs recorded yet")
		return nil
	}

	fmt.Println(renderHistoryTable(runs))
	printDetail("%d entries · %s", len(runs), db.Path())
	return nil
}

// historyClearCommand creates the "history clear" subcommand.
func (c *CLI) historyClearCommand() *cobra.Command {
	var olderThan int

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := history.Open(c.HistoryPath)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer db.Close()

			n, err := db.Clear(olderThan)
			if err != nil {
				return err
			}
			printSuccess("Removed %d entries", n)
			return nil
		},
	}

	cmd.Flags().IntVar(&olderThan, "older-than", 0, "only delete entries older than this many days (0: all)")

	return cmd
}

// historyPathCommand creates the "history path" subcommand.
func (c *CLI) historyPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the history database path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.HistoryPath
			if path == "" {
				var err error
				path, err = history.DefaultPath()
				if err != nil {
					return fmt.Errorf("get history path: %w", err)
				}
			}
			fmt.Println(path)
			return nil
		},
	}
}

// renderHistoryTable renders ledger entries as a bordered table.
func renderHistoryTable(runs []history.RunRecord) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		mode := r.Mode
		if mode == "" {
			mode = "—"
		}
		cost := "—"
		if r.Op != "generate" {
			cost = fmt.Sprintf("%.3f", r.Cost)
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			formatRelativeTime(r.Timestamp),
			r.Op,
			mode,
			fmt.Sprintf("%dn/%de", r.Nodes, r.Edges),
			cost,
			cacheTag(r.CacheHit),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "When", "Op", "Mode", "Network", "Cost", "Cache").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// formatRelativeTime renders an RFC3339 timestamp as a relative age.
func formatRelativeTime(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}

	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
