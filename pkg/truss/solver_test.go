package truss

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/trussrig/pkg/errors"
	"github.com/matzehuels/trussrig/pkg/geom"
	"github.com/matzehuels/trussrig/pkg/rig"
)

const tol = 1e-9

func newSolver(t *testing.T, mode PoseMode, home geom.Pose) *Solver {
	t.Helper()
	s, err := NewSolver(DefaultSpec(), mode, home)
	if err != nil {
		t.Fatalf("NewSolver() error = %v", err)
	}
	return s
}

func assertVec(t *testing.T, want, got r3.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, "x")
	assert.InDelta(t, want.Y, got.Y, tol, "y")
	assert.InDelta(t, want.Z, got.Z, tol, "z")
}

func TestChordOffset(t *testing.T) {
	spec := DefaultSpec()
	h, w := spec.Height/2, spec.Width/2
	want := []r3.Vec{{Y: h, Z: w}, {Y: h, Z: -w}, {Y: -h, Z: w}, {Y: -h, Z: -w}}

	for chord, v := range want {
		got, err := spec.ChordOffset(chord)
		if err != nil {
			t.Fatalf("ChordOffset(%d) error = %v", chord, err)
		}
		if got != v {
			t.Errorf("ChordOffset(%d) = %v, want %v", chord, got, v)
		}
	}
	if _, err := spec.ChordOffset(NumChords); !errors.Is(err, errors.ErrCodeInvalidChord) {
		t.Errorf("ChordOffset(%d) error = %v, want INVALID_CHORD", NumChords, err)
	}
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Spec)
		wantErr bool
	}{
		{"default", func(*Spec) {}, false},
		{"no self weight", func(s *Spec) { s.WeightPerMeter = 0 }, false},
		{"zero length", func(s *Spec) { s.Length = 0 }, true},
		{"negative height", func(s *Spec) { s.Height = -1 }, true},
		{"nan width", func(s *Spec) { s.Width = math.NaN() }, true},
		{"negative weight", func(s *Spec) { s.WeightPerMeter = -2 }, true},
		{"infinite offset", func(s *Spec) { s.LoadOffsetY = math.Inf(-1) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := DefaultSpec()
			tt.mutate(&spec)
			err := spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Validate() code = %s, want INVALID_CONFIG", errors.GetCode(err))
			}
		})
	}
}

func TestProject(t *testing.T) {
	s := newSolver(t, PoseLocked, geom.NewPose(r3.Vec{Y: 2}))
	h := DefaultHeight / 2

	tests := []struct {
		name    string
		desired r3.Vec
		role    rig.Role
		chord   int
		want    r3.Vec
	}{
		{"anchor is free", r3.Vec{X: 7, Y: 9, Z: -3}, rig.RoleAnchor, 0, r3.Vec{X: 7, Y: 9, Z: -3}},
		{"attach on chord 0", r3.Vec{X: 0.4, Y: 5, Z: 5}, rig.RoleAttach, 0, r3.Vec{X: 0.4, Y: 2 + h, Z: h}},
		{"attach on chord 3", r3.Vec{X: -0.4}, rig.RoleAttach, 3, r3.Vec{X: -0.4, Y: 2 - h, Z: -h}},
		{"attach clamped right", r3.Vec{X: 10, Y: 2}, rig.RoleAttach, 1, r3.Vec{X: 1.5, Y: 2 + h, Z: -h}},
		{"attach clamped left", r3.Vec{X: -10, Y: 2}, rig.RoleAttach, 2, r3.Vec{X: -1.5, Y: 2 - h, Z: h}},
		{"load below centerline", r3.Vec{X: 0.3, Y: 0, Z: 1}, rig.RoleLoad, 0, r3.Vec{X: 0.3, Y: 1.5}},
		{"load clamped", r3.Vec{X: 4}, rig.RoleLoad, 0, r3.Vec{X: 1.5, Y: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Project(tt.desired, tt.role, tt.chord)
			if err != nil {
				t.Fatalf("Project() error = %v", err)
			}
			assertVec(t, tt.want, got)
		})
	}
}

func TestProjectRejects(t *testing.T) {
	s := newSolver(t, PoseLocked, geom.NewPose(r3.Vec{Y: 2}))

	tests := []struct {
		name    string
		desired r3.Vec
		role    rig.Role
		chord   int
		code    errors.Code
	}{
		{"nan", r3.Vec{X: math.NaN()}, rig.RoleAnchor, 0, errors.ErrCodeInvalidInput},
		{"inf", r3.Vec{Y: math.Inf(1)}, rig.RoleAttach, 0, errors.ErrCodeInvalidInput},
		{"bad chord", r3.Vec{}, rig.RoleAttach, 5, errors.ErrCodeInvalidChord},
		{"bad role", r3.Vec{}, rig.Role(9), 0, errors.ErrCodeInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Project(tt.desired, tt.role, tt.chord)
			if !errors.Is(err, tt.code) {
				t.Errorf("Project() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestProjectYawed(t *testing.T) {
	s := newSolver(t, PoseLocked, geom.YawPose(r3.Vec{Y: 2}, 90))
	// The truss now runs along world -Z.
	got, err := s.Project(r3.Vec{X: 3, Y: 2, Z: -1}, rig.RoleLoad, 0)
	if err != nil {
		t.Fatal(err)
	}
	assertVec(t, r3.Vec{Y: 1.5, Z: -1}, got)
	assert.InDelta(t, 1.0, s.LocalX(got, rig.RoleLoad), tol)
}

func TestProjectIdempotent(t *testing.T) {
	poses := []geom.Pose{
		geom.NewPose(r3.Vec{Y: 2}),
		geom.YawPose(r3.Vec{X: 1, Y: 3, Z: -2}, 37),
	}
	rng := rand.New(rand.NewPCG(1, 2))

	for _, home := range poses {
		s := newSolver(t, PoseLocked, home)
		for range 200 {
			desired := r3.Vec{X: rng.Float64()*8 - 4, Y: rng.Float64() * 5, Z: rng.Float64()*4 - 2}
			role := rig.Roles[rng.IntN(len(rig.Roles))]
			chord := rng.IntN(NumChords)

			once, err := s.Project(desired, role, chord)
			if err != nil {
				t.Fatal(err)
			}
			twice, err := s.Project(once, role, chord)
			if err != nil {
				t.Fatal(err)
			}
			if !geom.Near(once, twice, tol) {
				t.Fatalf("Project() not idempotent: %v then %v", once, twice)
			}
			if !s.Satisfies(rig.Point{Role: role, Chord: chord, Position: once}, tol) {
				t.Fatalf("Project() = %v violates %s constraint", once, role)
			}
		}
	}
}

func TestSetAxis(t *testing.T) {
	s := newSolver(t, PoseLocked, geom.NewPose(r3.Vec{Y: 2}))
	attach, _ := s.Place(0.5, rig.RoleAttach, 0)

	got, err := s.SetAxis(attach, rig.RoleAttach, 0, geom.AxisX, -0.25)
	if err != nil {
		t.Fatal(err)
	}
	assert.InDelta(t, -0.25, got.X, tol)

	// Y edits of a truss-bound point are overridden by the chord.
	got, err = s.SetAxis(attach, rig.RoleAttach, 0, geom.AxisY, 9)
	if err != nil {
		t.Fatal(err)
	}
	assertVec(t, attach, got)

	anchor := r3.Vec{X: 1, Y: 4}
	got, err = s.SetAxis(anchor, rig.RoleAnchor, 0, geom.AxisZ, 2)
	if err != nil {
		t.Fatal(err)
	}
	assertVec(t, r3.Vec{X: 1, Y: 4, Z: 2}, got)

	if _, err := s.SetAxis(anchor, rig.RoleAnchor, 0, geom.AxisX, math.NaN()); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("SetAxis(NaN) error = %v, want INVALID_INPUT", err)
	}
}

func TestUpdatePoseLockedIsNoop(t *testing.T) {
	home := geom.YawPose(r3.Vec{Y: 2}, 15)
	s := newSolver(t, PoseLocked, home)
	pts := []rig.Point{
		{Role: rig.RoleAttach, Position: r3.Vec{X: -1, Y: 7}},
		{Role: rig.RoleAttach, Position: r3.Vec{X: 1, Y: 3, Z: 4}},
	}
	if s.UpdatePose(pts) {
		t.Error("UpdatePose() reported degenerate in locked mode")
	}
	if s.Pose() != home {
		t.Errorf("Pose() = %+v, want %+v", s.Pose(), home)
	}
}

func TestUpdatePoseFree(t *testing.T) {
	spec := DefaultSpec()
	h := spec.Height / 2

	tests := []struct {
		name           string
		attach         []rig.Point
		wantPos        r3.Vec
		wantAxis       r3.Vec
		wantDegenerate bool
	}{
		{
			name:     "no attach points",
			wantPos:  r3.Vec{Y: 2},
			wantAxis: geom.UnitX,
		},
		{
			name:     "single point keeps the default pose",
			attach:   []rig.Point{{Chord: 0, Position: r3.Vec{X: 0.5, Y: 3 + h, Z: h}}},
			wantPos:  r3.Vec{Y: 2},
			wantAxis: geom.UnitX,
		},
		{
			name: "raised pair",
			attach: []rig.Point{
				{Chord: 0, Position: r3.Vec{X: -1, Y: 3 + h, Z: h}},
				{Chord: 0, Position: r3.Vec{X: 0.5, Y: 3 + h, Z: h}},
			},
			wantPos:  r3.Vec{X: -0.25, Y: 3},
			wantAxis: geom.UnitX,
		},
		{
			name: "level pair",
			attach: []rig.Point{
				{Chord: 0, Position: r3.Vec{X: -1, Y: 2 + h, Z: h}},
				{Chord: 1, Position: r3.Vec{X: 1, Y: 2 + h, Z: -h}},
			},
			wantPos:  r3.Vec{Y: 2},
			wantAxis: geom.UnitX,
		},
		{
			name: "reversed pair flips the truss",
			attach: []rig.Point{
				{Chord: 2, Position: r3.Vec{X: 1, Y: 2 - h, Z: h}},
				{Chord: 2, Position: r3.Vec{X: -1, Y: 2 - h, Z: h}},
			},
			// Chord 2 is on the front side, which now faces world -Z.
			wantPos:  r3.Vec{Y: 2, Z: spec.Width},
			wantAxis: r3.Vec{X: -1},
		},
		{
			name: "coincident feet",
			attach: []rig.Point{
				{Chord: 0, Position: r3.Vec{Y: 2 + h, Z: h}},
				{Chord: 0, Position: r3.Vec{Y: 2 + h, Z: h}},
			},
			wantPos:        r3.Vec{Y: 2},
			wantAxis:       geom.UnitX,
			wantDegenerate: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSolver(t, PoseFree, geom.NewPose(r3.Vec{Y: 2}))
			for i := range tt.attach {
				tt.attach[i].Role = rig.RoleAttach
			}
			if got := s.UpdatePose(tt.attach); got != tt.wantDegenerate {
				t.Errorf("UpdatePose() degenerate = %v, want %v", got, tt.wantDegenerate)
			}
			pose := s.Pose()
			assertVec(t, tt.wantPos, pose.Position)
			assertVec(t, tt.wantAxis, pose.Direction(geom.UnitX))
		})
	}
}

func TestUpdatePoseCoincidentFeetKeepHomeYaw(t *testing.T) {
	for _, yaw := range []float64{0, 30, 90, 135} {
		t.Run(fmt.Sprintf("yaw %v", yaw), func(t *testing.T) {
			home := geom.YawPose(r3.Vec{Y: 2}, yaw)
			s := newSolver(t, PoseFree, home)

			// Same station, different chords: the feet coincide up to rounding.
			var pts []rig.Point
			for _, chord := range []int{0, 3} {
				pos, err := s.Place(0.4, rig.RoleAttach, chord)
				if err != nil {
					t.Fatal(err)
				}
				pts = append(pts, rig.Point{Role: rig.RoleAttach, Chord: chord, Position: pos})
			}

			if !s.UpdatePose(pts) {
				t.Error("UpdatePose() degenerate = false, want true")
			}
			pose := s.Pose()
			assertVec(t, home.Direction(geom.UnitX), pose.Direction(geom.UnitX))
			assertVec(t, home.ToWorld(r3.Vec{X: 0.4}), pose.Position)
			for _, p := range pts {
				if !s.Satisfies(p, tol) {
					t.Errorf("point on chord %d left its constraint", p.Chord)
				}
			}
		})
	}
}

// TestFreePoseKeepsConstraints drives the solver the way the editor does:
// move a point, update the pose, re-project everything.
func TestFreePoseKeepsConstraints(t *testing.T) {
	s := newSolver(t, PoseFree, geom.NewPose(r3.Vec{Y: 2}))
	rng := rand.New(rand.NewPCG(7, 11))

	pts := make([]rig.Point, 4)
	for i := range pts {
		pos, _ := s.Place(-1.5+float64(i), rig.RoleAttach, i%2)
		pts[i] = rig.Point{Role: rig.RoleAttach, Chord: i % 2, Position: pos}
	}
	load, _ := s.Place(0, rig.RoleLoad, 0)
	loadPt := rig.Point{Role: rig.RoleLoad, Position: load}

	for step := range 300 {
		i := rng.IntN(len(pts))
		if rng.IntN(4) == 0 {
			pts[i].Chord = rng.IntN(NumChords)
		}
		desired := r3.Vec{X: rng.Float64()*6 - 3, Y: 1 + rng.Float64()*3, Z: rng.Float64()*2 - 1}
		pos, err := s.Project(desired, rig.RoleAttach, pts[i].Chord)
		if err != nil {
			t.Fatal(err)
		}
		pts[i].Position = pos

		s.UpdatePose(pts)
		for j := range pts {
			if pts[j].Position, err = s.Reproject(pts[j]); err != nil {
				t.Fatal(err)
			}
		}
		if loadPt.Position, err = s.Reproject(loadPt); err != nil {
			t.Fatal(err)
		}

		for j, p := range append(pts, loadPt) {
			if !geom.Finite(p.Position) {
				t.Fatalf("step %d: point %d is not finite: %v", step, j, p.Position)
			}
			if !s.Satisfies(p, 1e-7) {
				t.Fatalf("step %d: point %d at %v violates its constraint", step, j, p.Position)
			}
		}
	}
}

func TestParsePoseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    PoseMode
		wantErr bool
	}{
		{"", PoseLocked, false},
		{"locked", PoseLocked, false},
		{"FREE", PoseFree, false},
		{"floating", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePoseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePoseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePoseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
