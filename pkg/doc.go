// Package pkg provides the core libraries of the trussrig truss editor.
//
// # Overview
//
// Trussrig models a single rigging truss hung from ceiling anchors. Attach
// points ride on the truss chords, ropes run from attach points up to
// anchors and load points hang below the truss. The pkg directory is
// organized into these areas:
//
//  1. [rig] - Point registry: identities, roles, names and line resources
//  2. [truss] - Truss dimensions and the constraint solver
//  3. [connect] - Rope routing from attach points to anchors
//  4. [load] - Distribution of the vertical load over the ropes
//  5. [editor] - The session that ties them together and recomputes
//  6. [config] - TOML/YAML settings and file watching
//  7. [render] - Graphviz diagrams and SVG conversion
//
// # Architecture
//
// Every edit goes through the editor, which validates it and leaves the
// solved state alone until the next recompute:
//
//	mutation (add, move, connect, resize)
//	         ↓
//	    [rig] registry (validated, rejected edits change nothing)
//	         ↓
//	    Recompute: [truss] pose + re-projection
//	         ↓
//	    [connect] routes
//	         ↓
//	    [load] tensions and severities
//	         ↓
//	    Snapshot → CLI table / TUI / diagram
//
// # Quick Start
//
//	ed, err := editor.New(config.Default())
//	if err != nil {
//	    return err
//	}
//	id, _ := ed.AddPoint(rig.RoleAttach, ed.DefaultHint(rig.RoleAttach))
//	_, _ = ed.SetAxis(id, geom.AxisX, 1.2)
//	snap := ed.Recompute()
//	for _, r := range snap.Ropes {
//	    fmt.Printf("%s %.0f N %.1f°\n", r.AttachName, r.Tension, r.AngleDeg)
//	}
//
// # Support Packages
//
//   - [errors] - Structured error codes
//   - [geom] - Poses and angles on top of gonum's r3
//   - [observability] - Hooks for mutations, recomputes, config and rendering
//   - [buildinfo] - Version information injected at build time
//
// [rig]: github.com/matzehuels/trussrig/pkg/rig
// [truss]: github.com/matzehuels/trussrig/pkg/truss
// [connect]: github.com/matzehuels/trussrig/pkg/connect
// [load]: github.com/matzehuels/trussrig/pkg/load
// [editor]: github.com/matzehuels/trussrig/pkg/editor
// [config]: github.com/matzehuels/trussrig/pkg/config
// [render]: github.com/matzehuels/trussrig/pkg/render
// [errors]: github.com/matzehuels/trussrig/pkg/errors
// [geom]: github.com/matzehuels/trussrig/pkg/geom
// [observability]: github.com/matzehuels/trussrig/pkg/observability
// [buildinfo]: github.com/matzehuels/trussrig/pkg/buildinfo
package pkg
