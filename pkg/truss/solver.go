package truss

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/trussrig/pkg/errors"
	"github.com/matzehuels/trussrig/pkg/geom"
	"github.com/matzehuels/trussrig/pkg/rig"
)

// Solver projects points onto the truss and maintains its pose.
type Solver struct {
	spec Spec
	mode PoseMode
	home geom.Pose
	pose geom.Pose
}

// NewSolver returns a solver for a truss of the given spec. home is the pose
// used in locked mode and as the free-mode pose when there are fewer than two
// attach points.
func NewSolver(spec Spec, mode PoseMode, home geom.Pose) (*Solver, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if !geom.Finite(home.Position) {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "truss position must be finite")
	}
	return &Solver{spec: spec, mode: mode, home: home, pose: home}, nil
}

// Spec returns the truss dimensions.
func (s *Solver) Spec() Spec { return s.spec }

// SetSpec replaces the truss dimensions. Callers re-project existing points
// afterwards.
func (s *Solver) SetSpec(spec Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	s.spec = spec
	return nil
}

// Mode returns the pose policy.
func (s *Solver) Mode() PoseMode { return s.mode }

// Pose returns the current truss pose.
func (s *Solver) Pose() geom.Pose { return s.pose }

// ResetPose restores the configured default pose.
func (s *Solver) ResetPose() { s.pose = s.home }

// Project returns the position closest to desired that satisfies the
// constraints of role. Anchors are unconstrained. Attach points are placed on
// their chord and load points below the centerline, both with local X clamped
// to the truss length.
func (s *Solver) Project(desired r3.Vec, role rig.Role, chord int) (r3.Vec, error) {
	if err := errors.ValidateVec(desired.X, desired.Y, desired.Z); err != nil {
		return r3.Vec{}, err
	}
	switch role {
	case rig.RoleAnchor:
		return desired, nil
	case rig.RoleAttach:
		if err := errors.ValidateChord(chord); err != nil {
			return r3.Vec{}, err
		}
		return s.Place(s.pose.ToLocal(desired).X, role, chord)
	case rig.RoleLoad:
		return s.Place(s.pose.ToLocal(r3.Sub(desired, s.spec.LoadOffset())).X, role, 0)
	}
	return r3.Vec{}, errors.New(errors.ErrCodeInvalidRole, "invalid role %d", int(role))
}

// Place returns the world position of a truss-bound point at local x.
func (s *Solver) Place(x float64, role rig.Role, chord int) (r3.Vec, error) {
	x = geom.Clamp(x, -s.spec.HalfLength(), s.spec.HalfLength())
	switch role {
	case rig.RoleAttach:
		off, err := s.spec.ChordOffset(chord)
		if err != nil {
			return r3.Vec{}, err
		}
		return s.pose.ToWorld(r3.Vec{X: x, Y: off.Y, Z: off.Z}), nil
	case rig.RoleLoad:
		return r3.Add(s.pose.ToWorld(r3.Vec{X: x}), s.spec.LoadOffset()), nil
	}
	return r3.Vec{}, errors.New(errors.ErrCodeInvalidRole, "%s points are not bound to the truss", role)
}

// LocalX returns the position of a truss-bound point along the truss.
func (s *Solver) LocalX(world r3.Vec, role rig.Role) float64 {
	if role == rig.RoleLoad {
		world = r3.Sub(world, s.spec.LoadOffset())
	}
	return s.pose.ToLocal(world).X
}

// SetAxis edits one coordinate of a point the way a numeric field does.
// Anchors take the value as a world coordinate. Truss-bound points take it in
// the truss frame: X moves the point along the truss and Y or Z edits are
// overridden by the chord or centerline constraint.
func (s *Solver) SetAxis(current r3.Vec, role rig.Role, chord int, axis geom.Axis, value float64) (r3.Vec, error) {
	if err := errors.ValidateFinite(axis.String(), value); err != nil {
		return r3.Vec{}, err
	}
	if role == rig.RoleAnchor {
		return geom.WithComponent(current, axis, value), nil
	}
	if !role.TrussBound() {
		return r3.Vec{}, errors.New(errors.ErrCodeInvalidRole, "invalid role %d", int(role))
	}
	x := s.LocalX(current, role)
	if axis == geom.AxisX {
		x = value
	}
	return s.Place(x, role, chord)
}

// UpdatePose derives the truss pose from the attach points. It is a no-op in
// locked mode.
//
// The truss centerline is fitted through the attach points' feet (the attach
// positions with their chord offset removed): the position is their mean and
// local +X points from the first foot to the last. With fewer than two
// attach points the pose returns to the configured default. When the first
// and last feet are closer than geom.Epsilon the orientation falls back to
// the home rotation and the returned flag is true.
func (s *Solver) UpdatePose(attach []rig.Point) (degenerate bool) {
	if s.mode != PoseFree {
		return false
	}
	if len(attach) < 2 {
		s.pose = s.home
		return false
	}

	positions := make([]r3.Vec, len(attach))
	offsets := make([]r3.Vec, len(attach))
	for i, p := range attach {
		positions[i] = p.Position
		offsets[i], _ = s.spec.ChordOffset(p.Chord)
	}

	n := len(attach) - 1
	first := r3.Sub(positions[0], s.pose.Direction(offsets[0]))
	last := r3.Sub(positions[n], s.pose.Direction(offsets[n]))

	next := geom.Pose{}
	next.Rotation, degenerate = geom.RotationBetween(geom.UnitX, r3.Sub(last, first))
	if degenerate {
		next.Rotation = s.home.Rotation
	}
	next.Position = r3.Sub(geom.Centroid(positions), next.Direction(geom.Centroid(offsets)))
	s.pose = next
	return degenerate
}

// Reproject returns p's position re-projected onto the current pose.
func (s *Solver) Reproject(p rig.Point) (r3.Vec, error) {
	if p.Role == rig.RoleAnchor {
		return p.Position, nil
	}
	return s.Place(s.LocalX(p.Position, p.Role), p.Role, p.Chord)
}

// Satisfies reports whether p lies on its constraint within tol.
func (s *Solver) Satisfies(p rig.Point, tol float64) bool {
	if p.Role == rig.RoleAnchor {
		return geom.Finite(p.Position)
	}
	x := s.LocalX(p.Position, p.Role)
	if x < -s.spec.HalfLength()-tol || x > s.spec.HalfLength()+tol {
		return false
	}
	want, err := s.Place(x, p.Role, p.Chord)
	return err == nil && geom.Near(want, p.Position, tol)
}
