package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cityscale/hypertransit/pkg/network"
)

// Palette follows the reference plots: roads fade into the background,
// transit lines sit on top in green, the highlighted route is drawn wide in
// red, and stops get larger blue markers than plain intersections.
const (
	colorRoad    = "gray60"
	colorTransit = "green4"
	colorRoute   = "red"
	colorNode    = "black"
	colorStop    = "blue"
)

// Options configures diagram generation.
type Options struct {
	// Highlight lists edge indices to draw as the active route.
	Highlight []int

	// ShowLabels adds node IDs as external labels.
	ShowLabels bool

	// Scale multiplies disk coordinates into layout inches. Zero means 1.
	Scale float64
}

// ToDOT converts a network to Graphviz DOT with every node pinned at its
// disk position, so neato reproduces the true geometry instead of inventing
// a layout. The result can be rendered with [RenderSVG], [RenderPNG] or
// [RenderPDF], or saved for external Graphviz tooling.
func ToDOT(net *network.Network, opts Options) string {
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	highlighted := make(map[int]bool, len(opts.Highlight))
	for _, idx := range opts.Highlight {
		highlighted[idx] = true
	}

	var buf bytes.Buffer
	buf.WriteString("graph transport {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	fmt.Fprintf(&buf, "  node [shape=point, width=0.06, color=%s];\n", colorNode)
	fmt.Fprintf(&buf, "  edge [color=%s, penwidth=1];\n", colorRoad)
	buf.WriteString("\n")

	for _, n := range net.Nodes {
		fmt.Fprintf(&buf, "  %d [%s];\n", n.ID, strings.Join(nodeAttrs(n, scale, opts.ShowLabels), ", "))
	}

	buf.WriteString("\n")
	for i, e := range net.Edges {
		switch {
		case highlighted[i]:
			fmt.Fprintf(&buf, "  %d -- %d [color=%s, penwidth=3];\n", e.U, e.V, colorRoute)
		case e.Transit:
			fmt.Fprintf(&buf, "  %d -- %d [color=%s, penwidth=1.5];\n", e.U, e.V, colorTransit)
		default:
			fmt.Fprintf(&buf, "  %d -- %d;\n", e.U, e.V)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n network.Node, scale float64, labels bool) []string {
	x, y := n.Pos.XY()
	attrs := []string{fmt.Sprintf("pos=%q", fmt.Sprintf("%.4f,%.4f!", x*scale, y*scale))}
	if n.Type == network.TypeStop {
		attrs = append(attrs, fmt.Sprintf("color=%s", colorStop), "width=0.1")
	}
	if labels {
		attrs = append(attrs, fmt.Sprintf("xlabel=\"%d\"", n.ID), "fontsize=8")
	}
	return attrs
}
