package rig

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/trussrig/pkg/errors"
)

func mustAdd(t *testing.T, r *Registry, p Point) Point {
	t.Helper()
	got, err := r.Add(p)
	if err != nil {
		t.Fatalf("Add(%v) error = %v", p.Role, err)
	}
	return got
}

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry()

	a := mustAdd(t, r, Point{Role: RoleAnchor, Position: r3.Vec{Y: 4}})
	if a.ID.IsZero() {
		t.Fatal("Add() did not assign an id")
	}
	if a.Name != "Anchor 1" {
		t.Errorf("Name = %q, want %q", a.Name, "Anchor 1")
	}
	if a.Line != 0 {
		t.Errorf("anchor Line = %d, want 0", a.Line)
	}

	p := mustAdd(t, r, Point{Role: RoleAttach, Chord: 2, Anchor: a.ID})
	if p.Line == 0 {
		t.Error("attach point has no line")
	}
	if p.Anchor != a.ID {
		t.Errorf("Anchor = %v, want %v", p.Anchor, a.ID)
	}

	l := mustAdd(t, r, Point{Role: RoleLoad, Chord: 3, Anchor: a.ID})
	if l.Chord != 0 || !l.Anchor.IsZero() {
		t.Errorf("load point kept attach payload: chord=%d anchor=%q", l.Chord, l.Anchor)
	}
	line, ok := r.Line(l.Line)
	if !ok || line.Kind != LineLoad {
		t.Errorf("Line(%d) = %+v, %v; want load line", l.Line, line, ok)
	}

	if got := r.LineCount(); got != 2 {
		t.Errorf("LineCount() = %d, want 2", got)
	}
}

func TestRegistryAddRejects(t *testing.T) {
	r := NewRegistry()
	anchor := mustAdd(t, r, Point{Role: RoleAnchor})
	attach := mustAdd(t, r, Point{Role: RoleAttach})

	tests := []struct {
		name string
		p    Point
		code errors.Code
	}{
		{"invalid role", Point{Role: Role(7)}, errors.ErrCodeInvalidRole},
		{"chord too high", Point{Role: RoleAttach, Chord: 4}, errors.ErrCodeInvalidChord},
		{"negative chord", Point{Role: RoleAttach, Chord: -1}, errors.ErrCodeInvalidChord},
		{"unknown anchor", Point{Role: RoleAttach, Anchor: "nope"}, errors.ErrCodePointNotFound},
		{"anchor is attach", Point{Role: RoleAttach, Anchor: attach.ID}, errors.ErrCodePointNotFound},
		{"duplicate id", Point{ID: anchor.ID, Role: RoleAnchor}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Add(tt.p)
			if !errors.Is(err, tt.code) {
				t.Errorf("Add() error = %v, want %s", err, tt.code)
			}
		})
	}

	if got := r.Len(RoleAttach); got != 1 {
		t.Errorf("Len(attach) = %d after rejected adds, want 1", got)
	}
}

func TestRegistryNamesAreMonotonic(t *testing.T) {
	r := NewRegistry()
	mustAdd(t, r, Point{Role: RoleAttach})
	second := mustAdd(t, r, Point{Role: RoleAttach})
	if _, err := r.Remove(second.ID); err != nil {
		t.Fatal(err)
	}
	third := mustAdd(t, r, Point{Role: RoleAttach})
	if third.Name != "Attach 3" {
		t.Errorf("Name = %q, want %q", third.Name, "Attach 3")
	}

	r.Clear()
	again := mustAdd(t, r, Point{Role: RoleAttach})
	if again.Name != "Attach 1" {
		t.Errorf("Name after Clear = %q, want %q", again.Name, "Attach 1")
	}
}

func TestRegistryRemoveReleasesLine(t *testing.T) {
	r := NewRegistry()
	p := mustAdd(t, r, Point{Role: RoleAttach})

	removed, err := r.Remove(p.ID)
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if removed.ID != p.ID {
		t.Errorf("Remove() = %v, want %v", removed.ID, p.ID)
	}
	if _, ok := r.Line(p.Line); ok {
		t.Error("line still live after removing its owner")
	}
	if r.LineCount() != 0 {
		t.Errorf("LineCount() = %d, want 0", r.LineCount())
	}
	if r.Contains(p.ID) {
		t.Error("removed point still present")
	}

	if _, err := r.Remove(p.ID); !errors.Is(err, errors.ErrCodePointNotFound) {
		t.Errorf("second Remove() error = %v, want POINT_NOT_FOUND", err)
	}
}

func TestRegistryRemoveAnchorClearsReferences(t *testing.T) {
	r := NewRegistry()
	a1 := mustAdd(t, r, Point{Role: RoleAnchor})
	a2 := mustAdd(t, r, Point{Role: RoleAnchor})
	p1 := mustAdd(t, r, Point{Role: RoleAttach, Anchor: a1.ID})
	p2 := mustAdd(t, r, Point{Role: RoleAttach, Anchor: a2.ID})

	if _, err := r.Remove(a1.ID); err != nil {
		t.Fatal(err)
	}

	got1, _ := r.Get(p1.ID)
	if !got1.Anchor.IsZero() {
		t.Errorf("dangling anchor reference %q", got1.Anchor)
	}
	got2, _ := r.Get(p2.ID)
	if got2.Anchor != a2.ID {
		t.Errorf("unrelated reference changed to %q", got2.Anchor)
	}
}

func TestRegistryRemoveLast(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.RemoveLast(RoleLoad); ok {
		t.Error("RemoveLast() on empty role reported true")
	}

	first := mustAdd(t, r, Point{Role: RoleLoad})
	last := mustAdd(t, r, Point{Role: RoleLoad})

	got, ok := r.RemoveLast(RoleLoad)
	if !ok || got.ID != last.ID {
		t.Errorf("RemoveLast() = %v, %v; want %v", got.ID, ok, last.ID)
	}
	pts := r.Points(RoleLoad)
	if len(pts) != 1 || pts[0].ID != first.ID {
		t.Errorf("Points(load) = %v, want [%v]", pts, first.ID)
	}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	l := mustAdd(t, r, Point{Role: RoleLoad})
	p := mustAdd(t, r, Point{Role: RoleAttach})
	a := mustAdd(t, r, Point{Role: RoleAnchor})

	all := r.All()
	want := []PointID{a.ID, p.ID, l.ID}
	if len(all) != len(want) {
		t.Fatalf("All() len = %d, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("All()[%d] = %v, want %v", i, all[i].ID, id)
		}
	}

	lines := r.Lines()
	if len(lines) != 2 || lines[0].Owner != p.ID || lines[1].Owner != l.ID {
		t.Errorf("Lines() owners out of order: %+v", lines)
	}
}

func TestRegistrySetters(t *testing.T) {
	r := NewRegistry()
	a := mustAdd(t, r, Point{Role: RoleAnchor})
	p := mustAdd(t, r, Point{Role: RoleAttach})

	if err := r.SetChord(p.ID, 3); err != nil {
		t.Errorf("SetChord() error = %v", err)
	}
	if err := r.SetChord(p.ID, 9); !errors.Is(err, errors.ErrCodeInvalidChord) {
		t.Errorf("SetChord(9) error = %v, want INVALID_CHORD", err)
	}
	if got, _ := r.Get(p.ID); got.Chord != 3 {
		t.Errorf("Chord = %d after rejected edit, want 3", got.Chord)
	}
	if err := r.SetChord(a.ID, 1); !errors.Is(err, errors.ErrCodeInvalidRole) {
		t.Errorf("SetChord(anchor) error = %v, want INVALID_ROLE", err)
	}

	if err := r.SetAnchor(p.ID, a.ID); err != nil {
		t.Errorf("SetAnchor() error = %v", err)
	}
	if err := r.SetAnchor(p.ID, p.ID); !errors.Is(err, errors.ErrCodePointNotFound) {
		t.Errorf("SetAnchor(self) error = %v, want POINT_NOT_FOUND", err)
	}
	if err := r.SetAnchor(p.ID, ""); err != nil {
		t.Errorf("SetAnchor(none) error = %v", err)
	}

	pos := r3.Vec{X: 1, Y: 2, Z: 3}
	if err := r.SetPosition(a.ID, pos); err != nil {
		t.Fatal(err)
	}
	if got, _ := r.Get(a.ID); got.Position != pos {
		t.Errorf("Position = %v, want %v", got.Position, pos)
	}

	r.UpdateLine(p.ID, pos, r3.Vec{}, SeverityCaution)
	line, _ := r.Line(p.Line)
	if line.From != pos || line.Severity != SeverityCaution || line.Collapsed() {
		t.Errorf("UpdateLine() = %+v", line)
	}
}
