// Package render provides output conversion for rig diagrams.
//
// # Overview
//
// The [diagram] subpackage draws a rig as a Graphviz graph: ceiling anchors
// on top, attach points on the truss in the middle and load points at the
// bottom, with rope edges colored by severity.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert a rendered diagram with the
// external rsvg-convert tool (from librsvg). A missing tool is reported as
// MISSING_TOOL and a failed conversion as RENDER_FAILED, carrying the tool's
// stderr.
//
//	dot := diagram.ToDOT(snap, diagram.Options{})
//	svg, err := diagram.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [diagram]: github.com/matzehuels/trussrig/pkg/render/diagram
package render
