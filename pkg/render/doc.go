// Package render draws transport networks as geometric diagrams.
//
// # Overview
//
// The network's disk coordinates are pinned in the generated DOT source
// (neato with fixed positions), so the rendered picture shows the actual
// geometry instead of a synthetic layout. Roads are drawn in gray, transit
// lines in green, stops as blue markers, and an optional highlighted route
// in wide red strokes.
//
// # Usage
//
// Convert a network to DOT, then render:
//
//	dot := render.ToDOT(net, render.Options{Highlight: edgeIdxs})
//	svg, err := render.RenderSVG(dot)
//
// For PDF or PNG output:
//
//	pdf, err := render.RenderPDF(dot)
//	png, err := render.RenderPNG(dot, 2.0)  // 2x scale
//
// # Dependencies
//
// SVG rendering runs in process via [github.com/goccy/go-graphviz]. PDF and
// PNG conversion shell out to rsvg-convert (librsvg).
package render
