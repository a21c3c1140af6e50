package rig

import (
	"slices"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/trussrig/pkg/errors"
)

// Registry is the arena of live points and the lines they own.
//
// Registry is not safe for concurrent use. The editor serializes all
// mutations.
type Registry struct {
	points   map[PointID]*Point
	order    [3][]PointID
	lines    map[LineID]*Line
	nextLine LineID
	seq      [3]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		points: make(map[PointID]*Point),
		lines:  make(map[LineID]*Line),
	}
}

// Add stores p and returns the stored copy.
//
// A fresh ID is assigned when p.ID is zero, a default name ("Anchor 3") when
// p.Name is empty, and a collapsed line is acquired for attach and load
// points. The caller is responsible for p.Position satisfying the truss
// constraints.
func (r *Registry) Add(p Point) (Point, error) {
	if !p.Role.Valid() {
		return Point{}, errors.New(errors.ErrCodeInvalidRole, "invalid role %d", int(p.Role))
	}
	if p.ID.IsZero() {
		p.ID = NewID()
	} else if _, exists := r.points[p.ID]; exists {
		return Point{}, errors.New(errors.ErrCodeInvalidInput, "point %s already exists", p.ID)
	}
	if p.Role == RoleAttach {
		if err := errors.ValidateChord(p.Chord); err != nil {
			return Point{}, err
		}
		if !p.Anchor.IsZero() && !r.isAnchor(p.Anchor) {
			return Point{}, errors.New(errors.ErrCodePointNotFound, "anchor %s not found", p.Anchor)
		}
	} else {
		p.Chord, p.Anchor = 0, ""
	}

	r.seq[p.Role]++
	if p.Name == "" {
		p.Name = p.Role.Label() + " " + strconv.Itoa(r.seq[p.Role])
	}

	p.Line = 0
	if p.Role.OwnsLine() {
		p.Line = r.acquireLine(p)
	}

	stored := p
	r.points[p.ID] = &stored
	r.order[p.Role] = append(r.order[p.Role], p.ID)
	return stored, nil
}

func (r *Registry) acquireLine(p Point) LineID {
	r.nextLine++
	kind := LineRope
	if p.Role == RoleLoad {
		kind = LineLoad
	}
	r.lines[r.nextLine] = &Line{
		ID:    r.nextLine,
		Owner: p.ID,
		Kind:  kind,
		From:  p.Position,
		To:    p.Position,
	}
	return r.nextLine
}

// Get returns a copy of the point with the given id.
func (r *Registry) Get(id PointID) (Point, bool) {
	p, ok := r.points[id]
	if !ok {
		return Point{}, false
	}
	return *p, true
}

// MustGet is Get returning a POINT_NOT_FOUND error for unknown ids.
func (r *Registry) MustGet(id PointID) (Point, error) {
	p, ok := r.Get(id)
	if !ok {
		return Point{}, errors.New(errors.ErrCodePointNotFound, "point %s not found", id)
	}
	return p, nil
}

func (r *Registry) isAnchor(id PointID) bool {
	p, ok := r.points[id]
	return ok && p.Role == RoleAnchor
}

// Contains reports whether id names a live point.
func (r *Registry) Contains(id PointID) bool {
	_, ok := r.points[id]
	return ok
}

// SetPosition stores a new position for id. Constraint projection happens
// before this call.
func (r *Registry) SetPosition(id PointID, pos r3.Vec) error {
	p, ok := r.points[id]
	if !ok {
		return errors.New(errors.ErrCodePointNotFound, "point %s not found", id)
	}
	p.Position = pos
	return nil
}

// SetChord changes the chord of an attach point.
func (r *Registry) SetChord(id PointID, chord int) error {
	p, ok := r.points[id]
	if !ok {
		return errors.New(errors.ErrCodePointNotFound, "point %s not found", id)
	}
	if p.Role != RoleAttach {
		return errors.New(errors.ErrCodeInvalidRole, "%s is a %s point, chords apply to attach points", p.Name, p.Role)
	}
	if err := errors.ValidateChord(chord); err != nil {
		return err
	}
	p.Chord = chord
	return nil
}

// SetAnchor assigns anchor to the attach point id. A zero anchor disconnects.
func (r *Registry) SetAnchor(id, anchor PointID) error {
	p, ok := r.points[id]
	if !ok {
		return errors.New(errors.ErrCodePointNotFound, "point %s not found", id)
	}
	if p.Role != RoleAttach {
		return errors.New(errors.ErrCodeInvalidRole, "%s is a %s point, anchors apply to attach points", p.Name, p.Role)
	}
	if !anchor.IsZero() && !r.isAnchor(anchor) {
		return errors.New(errors.ErrCodePointNotFound, "anchor %s not found", anchor)
	}
	p.Anchor = anchor
	return nil
}

// Remove deletes the point with the given id, releases its line and clears
// every anchor reference to it. The removed point is returned.
func (r *Registry) Remove(id PointID) (Point, error) {
	p, ok := r.points[id]
	if !ok {
		return Point{}, errors.New(errors.ErrCodePointNotFound, "point %s not found", id)
	}
	removed := *p

	if removed.Line != 0 {
		delete(r.lines, removed.Line)
	}
	delete(r.points, id)
	r.order[removed.Role] = slices.DeleteFunc(r.order[removed.Role], func(x PointID) bool { return x == id })

	if removed.Role == RoleAnchor {
		for _, aid := range r.order[RoleAttach] {
			if ap := r.points[aid]; ap.Anchor == id {
				ap.Anchor = ""
			}
		}
	}
	removed.Line = 0
	return removed, nil
}

// RemoveLast removes the most recently added point of role. It reports false
// if there is none.
func (r *Registry) RemoveLast(role Role) (Point, bool) {
	if !role.Valid() || len(r.order[role]) == 0 {
		return Point{}, false
	}
	ids := r.order[role]
	p, err := r.Remove(ids[len(ids)-1])
	return p, err == nil
}

// Clear removes every point and line and restarts the name counters.
func (r *Registry) Clear() {
	clear(r.points)
	clear(r.lines)
	for i := range r.order {
		r.order[i] = nil
		r.seq[i] = 0
	}
}

// Points returns copies of the points of role in insertion order.
func (r *Registry) Points(role Role) []Point {
	if !role.Valid() {
		return nil
	}
	out := make([]Point, 0, len(r.order[role]))
	for _, id := range r.order[role] {
		out = append(out, *r.points[id])
	}
	return out
}

// All returns anchors, then attach points, then load points.
func (r *Registry) All() []Point {
	out := make([]Point, 0, len(r.points))
	for _, role := range Roles {
		out = append(out, r.Points(role)...)
	}
	return out
}

// Len returns the number of points of role.
func (r *Registry) Len(role Role) int {
	if !role.Valid() {
		return 0
	}
	return len(r.order[role])
}

// Line returns a copy of the line with the given id.
func (r *Registry) Line(id LineID) (Line, bool) {
	l, ok := r.lines[id]
	if !ok {
		return Line{}, false
	}
	return *l, true
}

// UpdateLine sets the geometry and severity of the line owned by owner.
// Points without a line are ignored.
func (r *Registry) UpdateLine(owner PointID, from, to r3.Vec, sev Severity) {
	p, ok := r.points[owner]
	if !ok || p.Line == 0 {
		return
	}
	if l, ok := r.lines[p.Line]; ok {
		l.From, l.To, l.Severity = from, to, sev
	}
}

// Lines returns copies of all live lines ordered by owner (registry order).
func (r *Registry) Lines() []Line {
	out := make([]Line, 0, len(r.lines))
	for _, role := range Roles {
		for _, id := range r.order[role] {
			if lid := r.points[id].Line; lid != 0 {
				out = append(out, *r.lines[lid])
			}
		}
	}
	return out
}

// LineCount returns the number of live lines.
func (r *Registry) LineCount() int { return len(r.lines) }
