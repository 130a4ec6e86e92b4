// Package dot renders the breeding hierarchy as a Graphviz diagram.
//
// # Usage
//
// Convert the hierarchy graph to DOT, then render to SVG:
//
//	src := dot.ToDOT(h.Graph(), dot.Options{Colors: dot.ColorsFrom(d)})
//	svg, err := dot.RenderSVG(ctx, src)
//
// # Layout
//
// Every generation is pinned to its own rank (rank=same), so founders sit
// on top and each row below is one breeding step further away. Nodes whose
// generation was forced by the relaxation fallback are drawn dashed.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package dot
