package diagram

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/trussrig/pkg/editor"
	"github.com/matzehuels/trussrig/pkg/errors"
	"github.com/matzehuels/trussrig/pkg/observability"
	"github.com/matzehuels/trussrig/pkg/rig"
)

// trussNode is the DOT identifier of the truss itself.
const trussNode = "truss"

// Options configures rig diagram rendering.
type Options struct {
	// Detailed adds world coordinates and local x to node labels.
	// When false, only point names are shown.
	Detailed bool
}

// SeverityColor returns the edge color used for a rope of severity s.
func SeverityColor(s rig.Severity) string {
	switch s {
	case rig.SeverityNominal:
		return "#2e7d32"
	case rig.SeverityCaution:
		return "#ef6c00"
	case rig.SeverityCritical:
		return "#c62828"
	}
	return "#9e9e9e"
}

// ToDOT converts a snapshot to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Anchors share the top rank, the truss and its attach points sit in the
// middle and load points hang below. Rope edges run from attach point to
// anchor, colored by severity and labeled with tension and angle.
// Unconnected attach points are drawn dashed.
func ToDOT(snap *editor.Snapshot, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph rig {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	var anchors, attach, loads []editor.PointState
	for _, p := range snap.Points {
		switch p.Role {
		case rig.RoleAnchor:
			anchors = append(anchors, p)
		case rig.RoleAttach:
			attach = append(attach, p)
		case rig.RoleLoad:
			loads = append(loads, p)
		}
	}
	connected := make(map[rig.PointID]bool, len(snap.Ropes))
	for _, r := range snap.Ropes {
		connected[r.Attach] = r.Connected
	}

	fmt.Fprintf(&buf, "  %q [label=%q, shape=box3d, fillcolor=\"#eceff1\"];\n", trussNode, trussLabel(snap, opts.Detailed))
	writeRank(&buf, "anchors", anchors, func(p editor.PointState) []string {
		return []string{"shape=invtrapezium", "fillcolor=\"#cfd8dc\""}
	}, opts.Detailed)
	writeRank(&buf, "attach", attach, func(p editor.PointState) []string {
		if !connected[p.ID] {
			return []string{"style=\"rounded,filled,dashed\"", "fontcolor=\"#757575\""}
		}
		return nil
	}, opts.Detailed)
	writeRank(&buf, "loads", loads, func(p editor.PointState) []string {
		return []string{"shape=invhouse", "fillcolor=\"#fff8e1\""}
	}, opts.Detailed)

	buf.WriteString("\n")
	for _, p := range attach {
		fmt.Fprintf(&buf, "  %q -> %q [arrowhead=none, style=dotted, color=\"#b0bec5\"];\n", trussNode, p.ID)
	}
	for _, r := range snap.Ropes {
		if !r.Connected {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", r.Attach, r.Anchor, strings.Join(ropeAttrs(r), ", "))
	}
	for _, ll := range snap.LoadLines {
		fmt.Fprintf(&buf, "  %q -> %q [arrowhead=none, penwidth=2, label=%q];\n",
			ll.Load, trussNode, fmt.Sprintf("%.1f m", ll.From.Y-ll.To.Y))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeRank(buf *bytes.Buffer, name string, pts []editor.PointState, extra func(editor.PointState) []string, detailed bool) {
	if len(pts) == 0 {
		return
	}
	fmt.Fprintf(buf, "  subgraph %s {\n    rank=same;\n", name)
	for _, p := range pts {
		attrs := append([]string{fmt.Sprintf("label=%q", fmtLabel(p, detailed))}, extra(p)...)
		fmt.Fprintf(buf, "    %q [%s];\n", p.ID, strings.Join(attrs, ", "))
	}
	buf.WriteString("  }\n")
}

func fmtLabel(p editor.PointState, detailed bool) string {
	if !detailed {
		return p.Name
	}
	parts := []string{fmt.Sprintf("(%.2f, %.2f, %.2f)", p.Position.X, p.Position.Y, p.Position.Z)}
	if p.Role.TrussBound() {
		parts = append(parts, fmt.Sprintf("x: %.2f", p.LocalX))
	}
	if p.Role == rig.RoleAttach {
		parts = append(parts, fmt.Sprintf("chord: %d", p.Chord))
	}
	return p.Name + "\n" + strings.Join(parts, "\n")
}

func trussLabel(snap *editor.Snapshot, detailed bool) string {
	label := fmt.Sprintf("Truss\n%.0f kg, %.0f N", snap.Mass, snap.TotalLoad)
	if detailed {
		pos := snap.Pose.Position
		label += fmt.Sprintf("\n(%.2f, %.2f, %.2f)", pos.X, pos.Y, pos.Z)
	}
	return label
}

func ropeAttrs(r editor.RopeState) []string {
	color := SeverityColor(r.Severity)
	attrs := []string{
		fmt.Sprintf("label=%q", fmt.Sprintf("%s\n%.1f°", FormatTension(r.Tension), r.AngleDeg)),
		fmt.Sprintf("color=%q", color),
		fmt.Sprintf("fontcolor=%q", color),
		"penwidth=2",
	}
	if r.Unbounded {
		attrs = append(attrs, "style=bold")
	}
	return attrs
}

// FormatTension formats a tension in newtons, using kN above 10000 N and
// "∞" for unbounded ropes.
func FormatTension(n float64) string {
	switch {
	case math.IsInf(n, 0):
		return "∞"
	case math.IsNaN(n):
		return "n/a"
	case math.Abs(n) >= 10000:
		return fmt.Sprintf("%.2f kN", n/1000)
	}
	return fmt.Sprintf("%.0f N", n)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [render.ToPDF] or [render.ToPNG].
//
// [render.ToPDF]: github.com/matzehuels/trussrig/pkg/render.ToPDF
// [render.ToPNG]: github.com/matzehuels/trussrig/pkg/render.ToPNG
func RenderSVG(ctx context.Context, dot string) (out []byte, err error) {
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, "svg")
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, "svg", len(out), time.Since(start), err)
	}()

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "parse rig DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "render rig diagram")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz point-sized svg tag with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
