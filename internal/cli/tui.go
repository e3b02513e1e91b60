package cli

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/route"
	"github.com/cityscale/hypertransit/pkg/traffic"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// NodePickerModel - Interactive node selection
// =============================================================================

// NodeChoice is one pickable node with the attributes the picker displays.
type NodeChoice struct {
	ID     network.NodeID
	Type   network.NodeType
	Radius float64
	Degree int
}

// NodePickerModel is the bubbletea model for selecting one node from a list.
type NodePickerModel struct {
	Title    string
	Nodes    []NodeChoice
	Cursor   int
	Selected *network.NodeID
	Height   int
	Offset   int
}

// NewNodePickerModel creates a node picker over the given choices.
func NewNodePickerModel(title string, nodes []NodeChoice) NodePickerModel {
	return NodePickerModel{
		Title:  title,
		Nodes:  nodes,
		Height: 15,
	}
}

func (m NodePickerModel) Init() tea.Cmd {
	return nil
}

func (m NodePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			id := m.Nodes[m.Cursor].ID
			m.Selected = &id
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 7
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m NodePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Nodes) {
		end = len(m.Nodes)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Nodes[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		rows = append(rows, []string{
			cursor,
			strconv.Itoa(int(n.ID)),
			string(n.Type),
			fmt.Sprintf("%.2f", n.Radius),
			strconv.Itoa(n.Degree),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Type", "Radius", "Degree").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actual := m.Offset + row
			if actual >= len(m.Nodes) {
				return lipgloss.NewStyle()
			}
			if actual == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			if m.Nodes[actual].Type == network.TypeStop {
				return lipgloss.NewStyle().Foreground(colorGreen)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Nodes))))

	return b.String()
}

// =============================================================================
// ModePickerModel - Travel mode selection
// =============================================================================

// journeyCompare is the pseudo-mode that shows all modes side by side.
const journeyCompare = "compare"

// ModeChoice is one travel mode option with a short description.
type ModeChoice struct {
	Value string
	Hint  string
}

// defaultModeChoices returns the journey mode options in display order.
func defaultModeChoices() []ModeChoice {
	return []ModeChoice{
		{Value: string(network.ModeWalk), Hint: "steady pace on any road edge"},
		{Value: string(network.ModeDrive), Hint: "fast, but congested around rush hours"},
		{Value: string(network.ModeTransit), Hint: "scheduled line segments between stops"},
		{Value: journeyCompare, Hint: "all three side by side"},
	}
}

// ModePickerModel is the bubbletea model for picking a travel mode.
type ModePickerModel struct {
	Choices  []ModeChoice
	Cursor   int
	Selected string
}

// NewModePickerModel creates a mode picker with the standard choices.
func NewModePickerModel() ModePickerModel {
	return ModePickerModel{Choices: defaultModeChoices()}
}

func (m ModePickerModel) Init() tea.Cmd {
	return nil
}

func (m ModePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Choices)-1 {
				m.Cursor++
			}
		case "enter":
			m.Selected = m.Choices[m.Cursor].Value
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ModePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Travel Mode"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i, choice := range m.Choices {
		cursor := "  "
		if i == m.Cursor {
			cursor = "> "
		}

		line := fmt.Sprintf("%s%-8s  %s", cursor, choice.Value, listDimStyle.Render(choice.Hint))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// =============================================================================
// JourneyModel - Interactive journey screen
// =============================================================================

// JourneyModel shows the answer for one start/end pair and lets the user
// shift the departure hour and flip between travel modes. All modes are
// recomputed together on every hour change, so mode flips are instant.
type JourneyModel struct {
	Net     *network.Network
	Traffic traffic.Model
	Start   network.NodeID
	End     network.NodeID
	Mode    string // walk, drive, transit or compare
	Hour    float64

	Outcomes map[network.Mode]route.Outcome
}

// NewJourneyModel creates the journey screen with outcomes already computed.
func NewJourneyModel(net *network.Network, model traffic.Model, start, end network.NodeID, mode string, hour float64) JourneyModel {
	m := JourneyModel{
		Net:     net,
		Traffic: model,
		Start:   start,
		End:     end,
		Mode:    mode,
		Hour:    hour,
	}
	m.Outcomes = m.compare()
	return m
}

// compare answers the query for every mode at the current hour.
func (m JourneyModel) compare() map[network.Mode]route.Outcome {
	outcomes, err := route.CompareModes(context.Background(), m.Net, m.Traffic, m.Start, m.End, m.Hour)
	if err != nil {
		outcomes = make(map[network.Mode]route.Outcome, 3)
		for _, mode := range network.Modes() {
			outcomes[mode] = route.Outcome{Err: err}
		}
	}
	return outcomes
}

func (m JourneyModel) Init() tea.Cmd {
	return nil
}

func (m JourneyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.Hour = math.Mod(m.Hour+23, 24)
			m.Outcomes = m.compare()
		case "right", "l":
			m.Hour = math.Mod(m.Hour+1, 24)
			m.Outcomes = m.compare()
		case "m", "tab":
			m.Mode = nextJourneyMode(m.Mode)
		}
	}
	return m, nil
}

// nextJourneyMode cycles walk → drive → transit → compare → walk.
func nextJourneyMode(mode string) string {
	order := []string{
		string(network.ModeWalk),
		string(network.ModeDrive),
		string(network.ModeTransit),
		journeyCompare,
	}
	for i, v := range order {
		if v == mode {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

func (m JourneyModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Journey %d %s %d", m.Start, iconArrow, m.End)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ shift hour  m cycle mode  q quit"))
	b.WriteString("\n\n")
	b.WriteString(StyleHighlight.Render(m.Mode))
	b.WriteString(listDimStyle.Render(" at "))
	b.WriteString(StyleValue.Render(formatHour(m.Hour)))
	b.WriteString("\n\n")

	if m.Mode == journeyCompare {
		b.WriteString(m.compareView())
	} else {
		b.WriteString(m.modeView(network.Mode(m.Mode)))
	}
	b.WriteString("\n")

	return b.String()
}

// modeView renders the single-mode answer. Reachability does not depend on
// the hour, so an unreachable pair stays unreachable as the clock shifts.
func (m JourneyModel) modeView(mode network.Mode) string {
	o, ok := m.Outcomes[mode]
	if !ok || o.Err != nil || o.Result == nil {
		return StyleWarning.Render(fmt.Sprintf("No %s route between %d and %d", mode, m.Start, m.End))
	}
	res := o.Result

	var b strings.Builder
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(6)
	b.WriteString(keyStyle.Render("Cost") + " " + StyleNumber.Render(fmt.Sprintf("%.3f", res.TotalCost)) + "\n")
	b.WriteString(keyStyle.Render("Legs") + " " + StyleValue.Render(strconv.Itoa(len(res.Legs))) + "\n")
	b.WriteString(keyStyle.Render("Path") + " " + listDimStyle.Render(formatPath(res.Path)) + "\n")
	return b.String()
}

// compareView renders the side-by-side mode table.
func (m JourneyModel) compareView() string {
	best, _, _ := route.Best(m.Outcomes)

	rows := [][]string{}
	for _, mode := range network.Modes() {
		o, ok := m.Outcomes[mode]
		if !ok || o.Err != nil || o.Result == nil {
			rows = append(rows, []string{string(mode), "—", "—", "not reachable"})
			continue
		}
		rows = append(rows, []string{
			string(mode),
			fmt.Sprintf("%.3f", o.Result.TotalCost),
			strconv.Itoa(len(o.Result.Legs)),
			"ok",
		})
	}

	return modeTable(rows, best)
}
