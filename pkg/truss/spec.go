// Package truss models a straight four-chord box truss and projects points
// onto it.
//
// The truss lies along its local +X axis, centered on the origin of its
// pose, with local +Y up and local +Z across. Its four chords run parallel to
// the X axis at the corners of the Height x Width cross section:
//
//	chord 0: (+H/2, +W/2)   upper, front
//	chord 1: (+H/2, -W/2)   upper, back
//	chord 2: (-H/2, +W/2)   lower, front
//	chord 3: (-H/2, -W/2)   lower, back
//
// Attach points ride on a chord. Load points hang a fixed vertical distance
// below the centerline.
package truss

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/trussrig/pkg/errors"
)

// NumChords is the number of chords of a box truss.
const NumChords = errors.MaxChord + 1

// Default dimensions of a 290 mm four-chord aluminium truss.
const (
	DefaultLength         = 3.0
	DefaultHeight         = 0.29
	DefaultWidth          = 0.29
	DefaultWeightPerMeter = 10.0 // kg/m
	DefaultLoadOffsetY    = -0.5 // m below the centerline
)

// Spec describes the geometry and self weight of a truss segment.
type Spec struct {
	Length         float64 `json:"length"`
	Height         float64 `json:"height"`
	Width          float64 `json:"width"`
	WeightPerMeter float64 `json:"weight_per_meter"`
	LoadOffsetY    float64 `json:"load_offset_y"`
}

// DefaultSpec returns the dimensions of a 3 m F34-style truss.
func DefaultSpec() Spec {
	return Spec{
		Length:         DefaultLength,
		Height:         DefaultHeight,
		Width:          DefaultWidth,
		WeightPerMeter: DefaultWeightPerMeter,
		LoadOffsetY:    DefaultLoadOffsetY,
	}
}

// Validate checks that every dimension is finite and the truss has a
// positive size. A zero weight per meter is allowed.
func (s Spec) Validate() error {
	for _, d := range []struct {
		name string
		v    float64
	}{{"truss length", s.Length}, {"truss height", s.Height}, {"truss width", s.Width}} {
		if err := errors.ValidatePositive(d.name, d.v); err != nil {
			return err
		}
	}
	if math.IsNaN(s.WeightPerMeter) || math.IsInf(s.WeightPerMeter, 0) || s.WeightPerMeter < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "truss weight per meter must be a non-negative number, got %g", s.WeightPerMeter)
	}
	if math.IsNaN(s.LoadOffsetY) || math.IsInf(s.LoadOffsetY, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "load offset must be finite")
	}
	return nil
}

// HalfLength returns L/2, the clamp bound for local X.
func (s Spec) HalfLength() float64 { return s.Length / 2 }

// SelfWeight returns the truss mass in kilograms.
func (s Spec) SelfWeight() float64 { return s.Length * s.WeightPerMeter }

// ChordOffset returns the local (0, y, z) offset of a chord from the
// centerline.
func (s Spec) ChordOffset(chord int) (r3.Vec, error) {
	if err := errors.ValidateChord(chord); err != nil {
		return r3.Vec{}, err
	}
	y, z := s.Height/2, s.Width/2
	if chord >= 2 {
		y = -y
	}
	if chord%2 == 1 {
		z = -z
	}
	return r3.Vec{Y: y, Z: z}, nil
}

// LoadOffset returns the world-space drop of load points below the truss.
func (s Spec) LoadOffset() r3.Vec { return r3.Vec{Y: s.LoadOffsetY} }

// ChordName returns a short description of a chord for display.
func ChordName(chord int) string {
	switch chord {
	case 0:
		return "upper front"
	case 1:
		return "upper back"
	case 2:
		return "lower front"
	case 3:
		return "lower back"
	}
	return fmt.Sprintf("chord(%d)", chord)
}

// PoseMode selects how the truss pose is determined.
type PoseMode int

const (
	// PoseLocked keeps the pose fixed for the whole session.
	PoseLocked PoseMode = iota
	// PoseFree derives the pose from the attach points on every recompute.
	PoseFree
)

// String returns the mode keyword used in configuration files.
func (m PoseMode) String() string {
	if m == PoseFree {
		return "free"
	}
	return "locked"
}

// ParsePoseMode parses "locked" or "free". The empty string selects locked.
func ParsePoseMode(s string) (PoseMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "locked", "fixed":
		return PoseLocked, nil
	case "free":
		return PoseFree, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidConfig, "unknown pose mode %q (want locked or free)", s)
}
