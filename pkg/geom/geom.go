// Package geom provides the small amount of 3D geometry trussrig needs on top
// of gonum's r3 package: rigid poses, angle measurement, degenerate-safe
// rotations between directions and axis-wise field access.
//
// The world frame is Y-up. A truss is modelled along its local +X axis.
package geom

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Epsilon is the tolerance used for near-zero cosines and degenerate axes.
const Epsilon = 1e-6

// axisEpsilon bounds the squared length of a cross product treated as zero.
const axisEpsilon = 1e-12

var (
	// UnitX is the truss model's reference axis.
	UnitX = r3.Vec{X: 1}

	// Up is the world vertical.
	Up = r3.Vec{Y: 1}
)

// identity is the no-op rotation.
var identity = r3.Rotation{Real: 1}

// Pose is a rigid transform: rotate, then translate.
type Pose struct {
	Position r3.Vec
	Rotation r3.Rotation
}

// NewPose returns a pose at pos with the identity rotation.
func NewPose(pos r3.Vec) Pose {
	return Pose{Position: pos, Rotation: identity}
}

// YawPose returns a pose at pos rotated by deg degrees about the world vertical.
func YawPose(pos r3.Vec, deg float64) Pose {
	if deg == 0 {
		return NewPose(pos)
	}
	return Pose{Position: pos, Rotation: r3.NewRotation(deg*math.Pi/180, Up)}
}

func (p Pose) rotation() r3.Rotation {
	// The zero value is not a valid unit quaternion.
	if p.Rotation == (r3.Rotation{}) {
		return identity
	}
	return p.Rotation
}

// ToWorld maps a point from the pose's local frame into the world frame.
func (p Pose) ToWorld(local r3.Vec) r3.Vec {
	return r3.Add(p.Position, p.rotation().Rotate(local))
}

// ToLocal maps a world point into the pose's local frame.
func (p Pose) ToLocal(world r3.Vec) r3.Vec {
	return Inverse(p.rotation()).Rotate(r3.Sub(world, p.Position))
}

// Direction maps a local direction (no translation) into the world frame.
func (p Pose) Direction(local r3.Vec) r3.Vec {
	return p.rotation().Rotate(local)
}

// Inverse returns the inverse of a unit rotation.
func Inverse(r r3.Rotation) r3.Rotation {
	return r3.Rotation(quat.Conj(quat.Number(r)))
}

// AngleTo returns the angle between a and b in radians, in [0, π].
// If either vector has zero length the angle is π/2.
func AngleTo(a, b r3.Vec) float64 {
	denom := math.Sqrt(r3.Norm2(a) * r3.Norm2(b))
	if denom == 0 {
		return math.Pi / 2
	}
	cos := r3.Dot(a, b) / denom
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}

// RotationBetween returns the rotation taking direction from onto direction to.
//
// When from and to are parallel the cross product vanishes and no axis is
// defined. The fallback is a half turn about the world vertical when they
// point in opposite directions and the identity otherwise. A from or to
// vector shorter than Epsilon has no direction: the result is the identity
// and degenerate == true.
func RotationBetween(from, to r3.Vec) (rot r3.Rotation, degenerate bool) {
	if r3.Norm(to) < Epsilon || r3.Norm(from) < Epsilon {
		return identity, true
	}
	axis := r3.Cross(from, to)
	if r3.Norm2(axis) < axisEpsilon*r3.Norm2(from)*r3.Norm2(to) {
		if r3.Dot(from, to) < 0 {
			return r3.NewRotation(math.Pi, Up), false
		}
		return identity, false
	}
	return r3.NewRotation(AngleTo(from, to), r3.Unit(axis)), false
}

// Centroid returns the arithmetic mean of pts. It returns the zero vector for
// an empty slice.
func Centroid(pts []r3.Vec) r3.Vec {
	if len(pts) == 0 {
		return r3.Vec{}
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	zs := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
	}
	n := float64(len(pts))
	return r3.Vec{X: floats.Sum(xs) / n, Y: floats.Sum(ys) / n, Z: floats.Sum(zs) / n}
}

// Finite reports whether every component of v is a finite number.
func Finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Near reports whether a and b are within tol of each other on every axis.
func Near(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
