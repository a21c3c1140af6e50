package rig

import "gonum.org/v1/gonum/spatial/r3"

// LineID identifies a line resource. The zero value means "no line".
type LineID uint64

// LineKind tells rope lines (anchor to attach point) from load lines
// (load point to truss).
type LineKind int

const (
	LineRope LineKind = iota
	LineLoad
)

// Severity is the color class of a rope derived from its angle to vertical.
type Severity int

const (
	// SeverityDisconnected marks a rope without an anchor, or every rope when
	// no rope is connected at all.
	SeverityDisconnected Severity = iota
	SeverityNominal
	SeverityCaution
	SeverityCritical
)

// String returns the severity keyword.
func (s Severity) String() string {
	switch s {
	case SeverityNominal:
		return "nominal"
	case SeverityCaution:
		return "caution"
	case SeverityCritical:
		return "critical"
	}
	return "disconnected"
}

// Line is the visual state of a rope owned by a point.
// A collapsed line has From == To.
type Line struct {
	ID       LineID
	Owner    PointID
	Kind     LineKind
	From, To r3.Vec
	Severity Severity
}

// Collapsed reports whether the line has zero length.
func (l Line) Collapsed() bool { return l.From == l.To }

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
