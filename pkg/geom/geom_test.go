package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-9

func assertVec(t *testing.T, want, got r3.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, "x")
	assert.InDelta(t, want.Y, got.Y, tol, "y")
	assert.InDelta(t, want.Z, got.Z, tol, "z")
}

func TestAngleTo(t *testing.T) {
	tests := []struct {
		name string
		a, b r3.Vec
		want float64
	}{
		{"same", Up, Up, 0},
		{"opposite", Up, r3.Vec{Y: -1}, math.Pi},
		{"perpendicular", Up, UnitX, math.Pi / 2},
		{"45 degrees", r3.Vec{X: 1, Y: 1}, Up, math.Pi / 4},
		{"scaled", r3.Vec{Y: 12}, r3.Vec{X: 3, Y: 3}, math.Pi / 4},
		{"zero length", r3.Vec{}, Up, math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AngleTo(tt.a, tt.b), tol)
		})
	}
}

func TestPoseRoundTrip(t *testing.T) {
	poses := []Pose{
		NewPose(r3.Vec{Y: 2}),
		YawPose(r3.Vec{X: 1, Y: 2, Z: -3}, 30),
		YawPose(r3.Vec{}, -135),
		{Position: r3.Vec{X: 0.5}, Rotation: r3.NewRotation(0.7, r3.Unit(r3.Vec{X: 1, Y: 1, Z: 1}))},
	}
	pts := []r3.Vec{{}, {X: 1.5, Y: 0.145, Z: -0.145}, {X: -4, Y: 9, Z: 2}}

	for _, p := range poses {
		for _, pt := range pts {
			assertVec(t, pt, p.ToLocal(p.ToWorld(pt)))
			assertVec(t, pt, p.ToWorld(p.ToLocal(pt)))
		}
	}
}

func TestPoseZeroValue(t *testing.T) {
	var p Pose
	assertVec(t, r3.Vec{X: 1, Y: 2, Z: 3}, p.ToWorld(r3.Vec{X: 1, Y: 2, Z: 3}))
	assertVec(t, r3.Vec{X: 1, Y: 2, Z: 3}, p.ToLocal(r3.Vec{X: 1, Y: 2, Z: 3}))
}

func TestYawPose(t *testing.T) {
	p := YawPose(r3.Vec{}, 90)
	// +90° about +Y takes +X to -Z.
	assertVec(t, r3.Vec{Z: -1}, p.Direction(UnitX))
}

func TestRotationBetween(t *testing.T) {
	tests := []struct {
		name           string
		to             r3.Vec
		wantDegenerate bool
	}{
		{"parallel", r3.Vec{X: 3}, false},
		{"antiparallel", r3.Vec{X: -2}, false},
		{"in plane", r3.Vec{X: 1, Z: 1}, false},
		{"tilted", r3.Vec{X: 1, Y: 0.5, Z: -0.2}, false},
		{"vertical", Up, false},
		{"zero length", r3.Vec{}, true},
		{"rounding noise", r3.Vec{X: -8.9e-16, Z: 4.4e-16}, true},
		{"sub-micron", r3.Vec{X: 1e-7, Y: 1e-7}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rot, degenerate := RotationBetween(UnitX, tt.to)
			assert.Equal(t, tt.wantDegenerate, degenerate)

			got := rot.Rotate(UnitX)
			assert.False(t, math.IsNaN(got.X) || math.IsNaN(got.Y) || math.IsNaN(got.Z), "NaN rotation")
			if degenerate {
				assertVec(t, UnitX, got)
				return
			}
			assertVec(t, r3.Unit(tt.to), got)
		})
	}
}

func TestRotationBetweenAntiparallelIsHalfTurnAboutUp(t *testing.T) {
	rot, _ := RotationBetween(UnitX, r3.Vec{X: -1})
	// A half turn about Y keeps Y and flips Z.
	assertVec(t, Up, rot.Rotate(Up))
	assertVec(t, r3.Vec{Z: -1}, rot.Rotate(r3.Vec{Z: 1}))
}

func TestInverse(t *testing.T) {
	r := r3.NewRotation(1.1, r3.Unit(r3.Vec{X: 0.3, Y: 1, Z: -0.2}))
	v := r3.Vec{X: 0.4, Y: -2, Z: 5}
	assertVec(t, v, Inverse(r).Rotate(r.Rotate(v)))
}

func TestCentroid(t *testing.T) {
	assertVec(t, r3.Vec{}, Centroid(nil))
	assertVec(t, r3.Vec{X: 1, Y: 2, Z: 3}, Centroid([]r3.Vec{{X: 1, Y: 2, Z: 3}}))
	assertVec(t, r3.Vec{X: 0, Y: 2, Z: 0.5}, Centroid([]r3.Vec{{X: -1, Y: 2}, {X: 1, Y: 2, Z: 1}}))
}

func TestFiniteAndNear(t *testing.T) {
	assert.True(t, Finite(r3.Vec{X: 1}))
	assert.False(t, Finite(r3.Vec{Y: math.NaN()}))
	assert.False(t, Finite(r3.Vec{Z: math.Inf(-1)}))

	assert.True(t, Near(r3.Vec{X: 1}, r3.Vec{X: 1 + 1e-12}, 1e-9))
	assert.False(t, Near(r3.Vec{X: 1}, r3.Vec{X: 1.1}, 1e-9))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.5, Clamp(4, -1.5, 1.5))
	assert.Equal(t, -1.5, Clamp(-4, -1.5, 1.5))
	assert.Equal(t, 0.25, Clamp(0.25, -1.5, 1.5))
}

func TestAxis(t *testing.T) {
	v := r3.Vec{X: 1, Y: 2, Z: 3}
	for _, a := range []Axis{AxisX, AxisY, AxisZ} {
		parsed, err := ParseAxis(a.String())
		if err != nil {
			t.Fatalf("ParseAxis(%q) error = %v", a.String(), err)
		}
		if parsed != a {
			t.Errorf("ParseAxis(%q) = %v, want %v", a.String(), parsed, a)
		}
		w := WithComponent(v, a, 9)
		if Component(w, a) != 9 {
			t.Errorf("WithComponent(%v) did not set component", a)
		}
	}

	if _, err := ParseAxis("w"); err == nil {
		t.Error("ParseAxis(\"w\") should fail")
	}
}
