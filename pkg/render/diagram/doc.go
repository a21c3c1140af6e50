// Package diagram renders a rig snapshot as a Graphviz graph.
//
// Ceiling anchors share the top rank and load points hang below the truss.
// Each connected rope becomes an edge from its attach point to its anchor,
// colored by severity:
//
//	nominal       green
//	caution       orange
//	critical      red
//	disconnected  grey (dashed attach node, no edge)
//
// # Usage
//
//	snap := ed.Recompute()
//	dot := diagram.ToDOT(snap, diagram.Options{Detailed: true})
//	svg, err := diagram.RenderSVG(ctx, dot)
//
// [RenderSVG] uses the WebAssembly build of Graphviz bundled with
// go-graphviz, so no system installation is required.
package diagram
