package connect

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/trussrig/pkg/rig"
)

func anchors() []rig.Point {
	return []rig.Point{
		{ID: "a1", Role: rig.RoleAnchor, Position: r3.Vec{X: -1, Y: 4}},
		{ID: "a2", Role: rig.RoleAnchor, Position: r3.Vec{X: 1, Y: 4}},
	}
}

func TestNearest(t *testing.T) {
	tests := []struct {
		name string
		pos  r3.Vec
		want int
	}{
		{"left", r3.Vec{X: -0.8, Y: 2}, 0},
		{"right", r3.Vec{X: 0.3, Y: 2}, 1},
		{"tie goes to first", r3.Vec{Y: 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Nearest(tt.pos, anchors()); got != tt.want {
				t.Errorf("Nearest(%v) = %d, want %d", tt.pos, got, tt.want)
			}
		})
	}

	if got := Nearest(r3.Vec{}, nil); got != -1 {
		t.Errorf("Nearest() with no anchors = %d, want -1", got)
	}
}

func TestResolveNearest(t *testing.T) {
	attach := []rig.Point{
		{ID: "p1", Role: rig.RoleAttach, Position: r3.Vec{X: 0.9, Y: 2}, Anchor: "a1"},
		{ID: "p2", Role: rig.RoleAttach, Position: r3.Vec{X: -0.9, Y: 2}},
	}
	routes := NewResolver(ModeNearest).Resolve(attach, anchors())

	want := []rig.PointID{"a2", "a1"}
	for i, r := range routes {
		if !r.Connected || r.Anchor != want[i] {
			t.Errorf("route %d = %+v, want anchor %s", i, r, want[i])
		}
	}

	routes = NewResolver(ModeNearest).Resolve(attach, nil)
	for i, r := range routes {
		if r.Connected {
			t.Errorf("route %d connected without anchors", i)
		}
	}
}

func TestResolveExplicit(t *testing.T) {
	attach := []rig.Point{
		{ID: "p1", Role: rig.RoleAttach, Position: r3.Vec{X: 0.9, Y: 2}, Anchor: "a1"},
		{ID: "p2", Role: rig.RoleAttach, Position: r3.Vec{X: -0.9, Y: 2}},
		{ID: "p3", Role: rig.RoleAttach, Anchor: "gone"},
	}
	routes := NewResolver(ModeExplicit).Resolve(attach, anchors())

	if len(routes) != 3 {
		t.Fatalf("Resolve() returned %d routes, want 3", len(routes))
	}
	if !routes[0].Connected || routes[0].Anchor != "a1" || routes[0].AnchorPos != (r3.Vec{X: -1, Y: 4}) {
		t.Errorf("explicit route = %+v, want a1", routes[0])
	}
	if routes[1].Connected {
		t.Errorf("point without anchor connected: %+v", routes[1])
	}
	if routes[2].Connected || !routes[2].Anchor.IsZero() {
		t.Errorf("unknown anchor resolved: %+v", routes[2])
	}
}

func TestLoadLines(t *testing.T) {
	loads := []rig.Point{{ID: "l1", Role: rig.RoleLoad, Position: r3.Vec{X: 0.2, Y: 1.5}}}
	lines := NewResolver(ModeExplicit).LoadLines(loads, -0.5)

	if len(lines) != 1 {
		t.Fatalf("LoadLines() len = %d, want 1", len(lines))
	}
	if lines[0].To != (r3.Vec{X: 0.2, Y: 2}) {
		t.Errorf("LoadLines()[0].To = %v, want (0.2, 2, 0)", lines[0].To)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeExplicit, false},
		{"Nearest", ModeNearest, false},
		{"explicit", ModeExplicit, false},
		{"random", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
