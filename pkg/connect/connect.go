// Package connect routes attach points to ceiling anchors.
//
// Two policies are supported. In [ModeNearest] every attach point is routed
// to the closest anchor on each recompute. In [ModeExplicit] the routing is
// the anchor stored on the attach point, and a point without one stays
// unconnected.
package connect

import (
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/trussrig/pkg/errors"
	"github.com/matzehuels/trussrig/pkg/rig"
)

// Mode selects the routing policy.
type Mode int

const (
	ModeExplicit Mode = iota
	ModeNearest
)

// String returns the mode keyword used in configuration files.
func (m Mode) String() string {
	if m == ModeNearest {
		return "nearest"
	}
	return "explicit"
}

// ParseMode parses "explicit" or "nearest". The empty string selects
// explicit.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "explicit", "manual":
		return ModeExplicit, nil
	case "nearest", "auto":
		return ModeNearest, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidConfig, "unknown connect mode %q (want explicit or nearest)", s)
}

// Route is the resolved connection of one attach point.
type Route struct {
	Attach    rig.PointID
	AttachPos r3.Vec
	Anchor    rig.PointID // zero when unconnected
	AnchorPos r3.Vec
	Connected bool
}

// LoadLine is the vertical line from a load point up to the truss.
type LoadLine struct {
	Load     rig.PointID
	From, To r3.Vec
}

// Resolver applies a routing policy.
type Resolver struct {
	mode Mode
}

// NewResolver returns a resolver using mode.
func NewResolver(mode Mode) *Resolver {
	return &Resolver{mode: mode}
}

// Mode returns the routing policy.
func (r *Resolver) Mode() Mode { return r.mode }

// Resolve returns one route per attach point, in input order.
func (r *Resolver) Resolve(attach, anchors []rig.Point) []Route {
	routes := make([]Route, len(attach))
	for i, p := range attach {
		route := Route{Attach: p.ID, AttachPos: p.Position}

		var target *rig.Point
		switch r.mode {
		case ModeNearest:
			if j := Nearest(p.Position, anchors); j >= 0 {
				target = &anchors[j]
			}
		default:
			target = find(anchors, p.Anchor)
		}

		if target != nil {
			route.Anchor = target.ID
			route.AnchorPos = target.Position
			route.Connected = true
		}
		routes[i] = route
	}
	return routes
}

// Nearest returns the index of the anchor closest to pos, or -1 when there
// are no anchors. Ties go to the anchor that comes first.
func Nearest(pos r3.Vec, anchors []rig.Point) int {
	best, bestDist := -1, 0.0
	for i, a := range anchors {
		d := r3.Norm2(r3.Sub(a.Position, pos))
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func find(anchors []rig.Point, id rig.PointID) *rig.Point {
	if id.IsZero() {
		return nil
	}
	for i := range anchors {
		if anchors[i].ID == id {
			return &anchors[i]
		}
	}
	return nil
}

// LoadLines returns the line from each load point to the truss point it
// hangs from. offsetY is the (negative) world drop of load points.
func (r *Resolver) LoadLines(loads []rig.Point, offsetY float64) []LoadLine {
	lines := make([]LoadLine, len(loads))
	for i, p := range loads {
		lines[i] = LoadLine{
			Load: p.ID,
			From: p.Position,
			To:   r3.Sub(p.Position, r3.Vec{Y: offsetY}),
		}
	}
	return lines
}
