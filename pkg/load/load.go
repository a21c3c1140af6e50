// Package load distributes the vertical load of a rig over its ropes.
//
// The distribution is a single-pass approximation, not a structural
// analysis. Each connected rope i makes an angle θi with the vertical. With
// S = Σ cos θi over connected ropes, rope i carries the vertical share
// Vi = F·cos θi / S and its tension is Ti = Vi / cos θi, which makes every
// connected rope carry F / S. The vertical shares always sum to F.
//
// Ropes whose cosine is not positive enough to carry anything are reported
// as unbounded; when S itself vanishes the load case is indeterminate and no
// tensions are produced.
package load

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/trussrig/pkg/errors"
	"github.com/matzehuels/trussrig/pkg/geom"
	"github.com/matzehuels/trussrig/pkg/rig"
	"github.com/matzehuels/trussrig/pkg/truss"
)

// Gravity is the standard gravitational acceleration in m/s².
const Gravity = 9.81

// Default severity thresholds in degrees from vertical.
const (
	DefaultCautionDegrees  = 45.0
	DefaultCriticalDegrees = 60.0
)

// Status summarizes a distribution.
type Status int

const (
	StatusOK Status = iota
	// StatusNoActiveRopes means no rope is connected.
	StatusNoActiveRopes
	// StatusIndeterminate means the connected ropes have no vertical
	// component in total.
	StatusIndeterminate
)

// String returns the status keyword.
func (s Status) String() string {
	switch s {
	case StatusNoActiveRopes:
		return "no_active_ropes"
	case StatusIndeterminate:
		return "indeterminate"
	}
	return "ok"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Thresholds are the rope angles (degrees from vertical) above which a rope
// is shown as caution or critical.
type Thresholds struct {
	Caution  float64 `toml:"caution_degrees" yaml:"caution_degrees" json:"caution_degrees"`
	Critical float64 `toml:"critical_degrees" yaml:"critical_degrees" json:"critical_degrees"`
}

// DefaultThresholds returns 45° caution and 60° critical.
func DefaultThresholds() Thresholds {
	return Thresholds{Caution: DefaultCautionDegrees, Critical: DefaultCriticalDegrees}
}

// Validate checks 0 <= caution <= critical <= 90.
func (t Thresholds) Validate() error {
	if math.IsNaN(t.Caution) || math.IsNaN(t.Critical) ||
		t.Caution < 0 || t.Critical > 90 || t.Caution > t.Critical {
		return errors.New(errors.ErrCodeInvalidConfig,
			"severity thresholds must satisfy 0 <= caution <= critical <= 90, got %g / %g", t.Caution, t.Critical)
	}
	return nil
}

// Classify returns the severity of a connected rope at deg degrees.
func (t Thresholds) Classify(deg float64) rig.Severity {
	switch {
	case deg > t.Critical:
		return rig.SeverityCritical
	case deg > t.Caution:
		return rig.SeverityCaution
	}
	return rig.SeverityNominal
}

// Rope is the input geometry of one rope.
type Rope struct {
	ID        rig.PointID
	AttachPos r3.Vec
	AnchorPos r3.Vec
	Connected bool
}

// RopeResult is the computed state of one rope.
type RopeResult struct {
	ID        rig.PointID
	Connected bool
	// AngleDeg is the angle to vertical in degrees, or NaN when unconnected.
	AngleDeg float64
	// Tension in newtons. It is +Inf when Unbounded, 0 for an unconnected
	// rope and NaN when the load case is indeterminate. Vertical follows the
	// same rule.
	Tension   float64
	Vertical  float64
	Severity  rig.Severity
	Unbounded bool
}

// Result is the outcome of a distribution.
type Result struct {
	Ropes  []RopeResult
	Status Status
	SumCos float64
	Force  float64
}

// Engine distributes a vertical force.
type Engine struct {
	thresholds Thresholds
}

// NewEngine returns an engine using th for severity classification.
func NewEngine(th Thresholds) (*Engine, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	return &Engine{thresholds: th}, nil
}

// Thresholds returns the severity thresholds in use.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// Distribute splits force (newtons) over ropes. The result has one entry per
// rope, in input order.
func (e *Engine) Distribute(force float64, ropes []Rope) Result {
	res := Result{Ropes: make([]RopeResult, len(ropes)), Force: force}

	cosines := make([]float64, 0, len(ropes))
	for i, r := range ropes {
		rr := RopeResult{ID: r.ID, Connected: r.Connected, AngleDeg: math.NaN()}
		if r.Connected {
			angle := math.Abs(geom.AngleTo(r3.Sub(r.AnchorPos, r.AttachPos), geom.Up))
			rr.AngleDeg = geom.Degrees(angle)
			cosines = append(cosines, math.Cos(angle))
		}
		res.Ropes[i] = rr
	}

	if len(cosines) == 0 {
		res.Status = StatusNoActiveRopes
		return res
	}

	res.SumCos = floats.Sum(cosines)
	if res.SumCos < geom.Epsilon {
		res.Status = StatusIndeterminate
		for i := range res.Ropes {
			if rr := &res.Ropes[i]; rr.Connected {
				rr.Tension, rr.Vertical = math.NaN(), math.NaN()
				rr.Severity = rig.SeverityCritical
			}
		}
		return res
	}

	k := 0
	for i := range res.Ropes {
		rr := &res.Ropes[i]
		if !rr.Connected {
			continue
		}
		cos := cosines[k]
		k++

		rr.Vertical = cos / res.SumCos * force
		if math.Abs(cos) <= geom.Epsilon {
			rr.Tension = math.Inf(1)
			rr.Unbounded = true
		} else {
			rr.Tension = rr.Vertical / cos
		}
		rr.Severity = e.thresholds.Classify(rr.AngleDeg)
	}
	return res
}

// TotalForce returns the vertical force in newtons of a payload of mass kg
// plus the self weight of the truss.
func TotalForce(mass float64, spec truss.Spec, gravity float64) float64 {
	return (mass + spec.SelfWeight()) * gravity
}

// VerticalSum returns the sum of the vertical shares of connected ropes. It
// is NaN for an indeterminate result.
func (r Result) VerticalSum() float64 {
	v := make([]float64, 0, len(r.Ropes))
	for _, rr := range r.Ropes {
		if rr.Connected {
			v = append(v, rr.Vertical)
		}
	}
	return floats.Sum(v)
}
