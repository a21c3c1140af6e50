package editor

import (
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/trussrig/pkg/errors"
	"github.com/matzehuels/trussrig/pkg/geom"
	"github.com/matzehuels/trussrig/pkg/load"
	"github.com/matzehuels/trussrig/pkg/observability"
	"github.com/matzehuels/trussrig/pkg/rig"
)

// Snapshot is the complete readout of one recompute.
type Snapshot struct {
	Pose      geom.Pose
	Points    []PointState
	Ropes     []RopeState
	LoadLines []LoadLineState

	// Mass is the payload in kg; TotalLoad includes the truss self weight,
	// in newtons.
	Mass      float64
	TotalLoad float64
	SumCos    float64
	Status    load.Status
	Warnings  []Warning
}

// PointState is a point as shown to the user.
type PointState struct {
	ID       rig.PointID
	Role     rig.Role
	Name     string
	Position r3.Vec
	// LocalX is the position along the truss for truss-bound points.
	LocalX float64
	Chord  int
	Anchor rig.PointID
}

// RopeState is the readout of the rope owned by one attach point.
type RopeState struct {
	Attach     rig.PointID
	AttachName string
	Anchor     rig.PointID
	AnchorName string
	From, To   r3.Vec
	Connected  bool
	// AngleDeg is NaN for unconnected ropes.
	AngleDeg  float64
	Tension   float64
	Vertical  float64
	Severity  rig.Severity
	Unbounded bool
}

// LoadLineState is the line from a load point up to the truss.
type LoadLineState struct {
	Load     rig.PointID
	From, To r3.Vec
}

// Warning is a non-fatal condition found during a recompute. PointID is
// zero for global conditions.
type Warning struct {
	Code    errors.Code
	PointID rig.PointID
	Message string
}

// Rope returns the rope owned by attach point id.
func (s *Snapshot) Rope(id rig.PointID) (RopeState, bool) {
	for _, r := range s.Ropes {
		if r.Attach == id {
			return r, true
		}
	}
	return RopeState{}, false
}

// HasWarning reports whether a warning with code was raised, for any point.
func (s *Snapshot) HasWarning(code errors.Code) bool {
	for _, w := range s.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Recompute runs the full pipeline on the current state: pose update and
// re-projection, rope routing, load distribution. It updates the line of
// every point and returns the readout, which is also kept as Snapshot().
func (e *Editor) Recompute() *Snapshot {
	start := time.Now()
	snap := &Snapshot{Mass: e.mass}

	attach := e.reg.Points(rig.RoleAttach)
	if e.solver.UpdatePose(attach) {
		snap.Warnings = append(snap.Warnings, Warning{
			Code:    errors.ErrCodeDegenerateGeometry,
			Message: "first and last attach points coincide, truss orientation reset",
		})
	}
	e.reproject()
	snap.Pose = e.solver.Pose()

	attach = e.reg.Points(rig.RoleAttach)
	anchors := e.reg.Points(rig.RoleAnchor)
	loads := e.reg.Points(rig.RoleLoad)
	names := make(map[rig.PointID]string, len(anchors))
	for _, a := range anchors {
		names[a.ID] = a.Name
	}

	routes := e.resolver.Resolve(attach, anchors)
	ropes := make([]load.Rope, len(routes))
	for i, r := range routes {
		ropes[i] = load.Rope{ID: r.Attach, AttachPos: r.AttachPos, AnchorPos: r.AnchorPos, Connected: r.Connected}
	}

	spec := e.solver.Spec()
	snap.TotalLoad = load.TotalForce(e.mass, spec, e.cfg.Load.Gravity)
	res := e.engine.Distribute(snap.TotalLoad, ropes)
	snap.Status, snap.SumCos = res.Status, res.SumCos

	for i, rr := range res.Ropes {
		route := routes[i]
		rs := RopeState{
			Attach:     route.Attach,
			AttachName: attach[i].Name,
			Anchor:     route.Anchor,
			AnchorName: names[route.Anchor],
			From:       route.AttachPos,
			To:         route.AttachPos,
			Connected:  rr.Connected,
			AngleDeg:   rr.AngleDeg,
			Tension:    rr.Tension,
			Vertical:   rr.Vertical,
			Severity:   rr.Severity,
			Unbounded:  rr.Unbounded,
		}
		if rr.Connected {
			rs.To = route.AnchorPos
		}
		e.reg.UpdateLine(rs.Attach, rs.From, rs.To, rs.Severity)
		snap.Ropes = append(snap.Ropes, rs)
		snap.Warnings = append(snap.Warnings, ropeWarnings(rs)...)
	}

	switch res.Status {
	case load.StatusIndeterminate:
		snap.Warnings = append(snap.Warnings, Warning{
			Code:    errors.ErrCodeIndeterminateLoad,
			Message: "all connected ropes are horizontal, tensions cannot be computed",
		})
	case load.StatusNoActiveRopes:
		if len(loads) > 0 || e.mass > 0 {
			snap.Warnings = append(snap.Warnings, Warning{
				Code:    errors.ErrCodeUnconnectedRope,
				Message: "no rope is connected, the load is not carried",
			})
		}
	}

	for _, ll := range e.resolver.LoadLines(loads, spec.LoadOffsetY) {
		e.reg.UpdateLine(ll.Load, ll.From, ll.To, rig.SeverityNominal)
		snap.LoadLines = append(snap.LoadLines, LoadLineState{Load: ll.Load, From: ll.From, To: ll.To})
	}

	for _, p := range e.reg.All() {
		ps := PointState{ID: p.ID, Role: p.Role, Name: p.Name, Position: p.Position, Chord: p.Chord, Anchor: p.Anchor}
		if p.Role.TrussBound() {
			ps.LocalX = e.solver.LocalX(p.Position, p.Role)
		}
		snap.Points = append(snap.Points, ps)
	}

	e.logWarnings(snap.Warnings)
	e.hooks.OnRecompute(observability.RecomputeStats{
		Points:   len(snap.Points),
		Ropes:    len(snap.Ropes),
		Status:   snap.Status.String(),
		Warnings: len(snap.Warnings),
	}, time.Since(start))

	e.last = snap
	return snap
}

// reproject moves every truss-bound point back onto the current pose.
func (e *Editor) reproject() {
	for _, p := range e.reg.All() {
		if !p.Role.TrussBound() {
			continue
		}
		pos, err := e.solver.Reproject(p)
		if err != nil {
			e.logger.Error("reproject failed", "id", p.ID.Short(), "err", err)
			continue
		}
		_ = e.reg.SetPosition(p.ID, pos)
	}
}

func ropeWarnings(rs RopeState) []Warning {
	var out []Warning
	switch {
	case !rs.Connected:
		out = append(out, Warning{
			Code:    errors.ErrCodeUnconnectedRope,
			PointID: rs.Attach,
			Message: rs.AttachName + " is not connected to an anchor",
		})
	case r3.Norm2(r3.Sub(rs.To, rs.From)) == 0:
		out = append(out, Warning{
			Code:    errors.ErrCodeDegenerateGeometry,
			PointID: rs.Attach,
			Message: rs.AttachName + " coincides with " + rs.AnchorName,
		})
	}
	if rs.Unbounded || math.IsInf(rs.Tension, 0) {
		out = append(out, Warning{
			Code:    errors.ErrCodeUnboundedTension,
			PointID: rs.Attach,
			Message: rs.AttachName + " rope is horizontal, tension is unbounded",
		})
	}
	return out
}

// logWarnings logs the warnings of a recompute when they differ from the
// previous one.
func (e *Editor) logWarnings(ws []Warning) {
	keys := make([]string, len(ws))
	for i, w := range ws {
		keys[i] = string(w.Code) + "/" + string(w.PointID)
	}
	key := strings.Join(keys, ",")
	if key == e.lastWarnings {
		return
	}
	e.lastWarnings = key
	for _, w := range ws {
		e.logger.Warn(w.Message, "code", w.Code, "id", w.PointID.Short())
	}
}
