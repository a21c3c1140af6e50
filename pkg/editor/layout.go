package editor

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/trussrig/pkg/rig"
)

// DefaultAnchorY is the ceiling height of new anchors.
const DefaultAnchorY = 4.0

// LayoutPoint is one entry of a fixed starting configuration.
//
// Anchors are placed at World. Attach and load points are placed at LocalX
// along the truss; attach points ride on Chord and are routed to the anchor
// with index Anchor in the layout's anchor order (-1 for none).
type LayoutPoint struct {
	Role   rig.Role
	World  r3.Vec
	LocalX float64
	Chord  int
	Anchor int
}

// DefaultLayout returns the configuration restored by Reset: two anchors,
// four attach points split between them and one centered load point.
//
//	Anchor 1  world (-0.75, 4, 0)
//	Anchor 2  world ( 0.75, 4, 0)
//	Attach 1  chord 0, x -1.0, to Anchor 1
//	Attach 2  chord 1, x -0.5, to Anchor 1
//	Attach 3  chord 0, x  0.5, to Anchor 2
//	Attach 4  chord 1, x  1.0, to Anchor 2
//	Load 1    x 0
func DefaultLayout() []LayoutPoint {
	return []LayoutPoint{
		{Role: rig.RoleAnchor, World: r3.Vec{X: -0.75, Y: DefaultAnchorY}},
		{Role: rig.RoleAnchor, World: r3.Vec{X: 0.75, Y: DefaultAnchorY}},
		{Role: rig.RoleAttach, LocalX: -1.0, Chord: 0, Anchor: 0},
		{Role: rig.RoleAttach, LocalX: -0.5, Chord: 1, Anchor: 0},
		{Role: rig.RoleAttach, LocalX: 0.5, Chord: 0, Anchor: 1},
		{Role: rig.RoleAttach, LocalX: 1.0, Chord: 1, Anchor: 1},
		{Role: rig.RoleLoad, LocalX: 0},
	}
}

// Reset removes every point and restores the default layout, the configured
// truss pose and the configured payload mass. Point names restart at 1.
func (e *Editor) Reset() {
	e.reg.Clear()
	e.solver.ResetPose()
	e.mass = e.cfg.Load.Mass
	e.lastWarnings = ""
	err := e.applyLayout(DefaultLayout())
	if err != nil {
		e.logger.Error("reset failed", "err", err)
	}
	e.mutated("reset", "", err)
}

// applyLayout adds the points of layout to the registry. Anchors are
// added first so attach points can refer to them.
func (e *Editor) applyLayout(layout []LayoutPoint) error {
	var anchors []rig.PointID
	for _, lp := range layout {
		if lp.Role != rig.RoleAnchor {
			continue
		}
		p, err := e.reg.Add(rig.Point{Role: rig.RoleAnchor, Position: lp.World})
		if err != nil {
			return err
		}
		anchors = append(anchors, p.ID)
	}

	for _, lp := range layout {
		if lp.Role == rig.RoleAnchor {
			continue
		}
		pos, err := e.solver.Place(lp.LocalX, lp.Role, lp.Chord)
		if err != nil {
			return err
		}
		p := rig.Point{Role: lp.Role, Position: pos}
		if lp.Role == rig.RoleAttach {
			p.Chord = lp.Chord
			if lp.Anchor >= 0 && lp.Anchor < len(anchors) {
				p.Anchor = anchors[lp.Anchor]
			}
		}
		if _, err := e.reg.Add(p); err != nil {
			return err
		}
	}
	return nil
}
