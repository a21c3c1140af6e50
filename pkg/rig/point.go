// Package rig holds the point registry of a rigging configuration.
//
// A rig consists of three ordered collections of points:
//
//   - ceiling anchors: free 3D positions in the room
//   - attach points: points locked to one of the truss chords, each routed by
//     a rope to zero or one ceiling anchor
//   - load points: points on the truss centerline with a fixed vertical drop
//
// Points live in an arena keyed by a stable [PointID]. Identifiers are random
// UUIDs and are never reused after a point is removed. Attach and load points
// own exactly one [Line]; the line is released in the same call that removes
// its owner.
//
// The registry enforces structural invariants (identity, ownership, no
// dangling anchor references). Geometric invariants are the job of the truss
// solver.
package rig

import (
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// PointID identifies a point for its whole lifetime.
// The zero value means "no point".
type PointID string

// NewID returns a fresh identifier.
func NewID() PointID { return PointID(uuid.NewString()) }

// IsZero reports whether id is the "no point" value.
func (id PointID) IsZero() bool { return id == "" }

// Short returns the first eight characters of the identifier for display.
func (id PointID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// Role discriminates the three point variants.
type Role int

const (
	RoleAnchor Role = iota // ceiling anchor
	RoleAttach             // truss attachment point
	RoleLoad               // load point below the truss
)

// Roles lists every role in registry order.
var Roles = []Role{RoleAnchor, RoleAttach, RoleLoad}

// String returns the role keyword used on the command line and in logs.
func (r Role) String() string {
	switch r {
	case RoleAnchor:
		return "anchor"
	case RoleAttach:
		return "attach"
	case RoleLoad:
		return "load"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Label returns the capitalized display name of the role.
func (r Role) Label() string {
	switch r {
	case RoleAnchor:
		return "Anchor"
	case RoleAttach:
		return "Attach"
	case RoleLoad:
		return "Load"
	}
	return r.String()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r >= RoleAnchor && r <= RoleLoad }

// TrussBound reports whether points of this role are constrained to the truss.
func (r Role) TrussBound() bool { return r == RoleAttach || r == RoleLoad }

// OwnsLine reports whether points of this role own a line resource.
func (r Role) OwnsLine() bool { return r.TrussBound() }

// Point is a tagged variant over the three roles.
//
// Chord and Anchor are only meaningful for RoleAttach; Line is set for
// RoleAttach and RoleLoad.
type Point struct {
	ID       PointID
	Role     Role
	Name     string
	Position r3.Vec

	// Chord is the index of the truss chord the attach point rides on.
	Chord int
	// Anchor is the explicitly assigned ceiling anchor, or zero for none.
	Anchor PointID

	// Line is the rope line owned by this point, or zero for none.
	Line LineID
}

// String implements fmt.Stringer.
func (p Point) String() string {
	return fmt.Sprintf("%s[%s] (%.3f, %.3f, %.3f)", p.Name, p.ID.Short(), p.Position.X, p.Position.Y, p.Position.Z)
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }
