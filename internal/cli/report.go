package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/trussrig/pkg/editor"
	"github.com/matzehuels/trussrig/pkg/geom"
	"github.com/matzehuels/trussrig/pkg/load"
	"github.com/matzehuels/trussrig/pkg/render/diagram"
	"github.com/matzehuels/trussrig/pkg/rig"
	"github.com/matzehuels/trussrig/pkg/truss"
)

// =============================================================================
// JSON Report
// =============================================================================

// report is the JSON form of a snapshot. Values that have no finite
// representation (unconnected angles, unbounded tensions) are null.
type report struct {
	Pose      poseReport      `json:"pose"`
	Mass      float64         `json:"mass_kg"`
	TotalLoad float64         `json:"total_load_n"`
	SumCos    float64         `json:"sum_cos"`
	Status    string          `json:"status"`
	Points    []pointReport   `json:"points"`
	Ropes     []ropeReport    `json:"ropes"`
	LoadLines []lineReport    `json:"load_lines,omitempty"`
	Warnings  []warningReport `json:"warnings,omitempty"`
}

type poseReport struct {
	Position [3]float64 `json:"position"`
	Axis     [3]float64 `json:"axis"`
}

type pointReport struct {
	ID       string     `json:"id"`
	Role     rig.Role   `json:"role"`
	Name     string     `json:"name"`
	Position [3]float64 `json:"position"`
	LocalX   *float64   `json:"local_x,omitempty"`
	Chord    *int       `json:"chord,omitempty"`
	Anchor   string     `json:"anchor,omitempty"`
}

type ropeReport struct {
	Attach     string       `json:"attach"`
	AttachName string       `json:"attach_name"`
	Anchor     string       `json:"anchor,omitempty"`
	AnchorName string       `json:"anchor_name,omitempty"`
	Connected  bool         `json:"connected"`
	AngleDeg   *float64     `json:"angle_deg"`
	Tension    *float64     `json:"tension_n"`
	Vertical   *float64     `json:"vertical_n"`
	Severity   rig.Severity `json:"severity"`
	Unbounded  bool         `json:"unbounded,omitempty"`
}

type lineReport struct {
	Load string     `json:"load"`
	From [3]float64 `json:"from"`
	To   [3]float64 `json:"to"`
}

type warningReport struct {
	Code    string `json:"code"`
	Point   string `json:"point,omitempty"`
	Message string `json:"message"`
}

// newReport converts a snapshot to its JSON form.
func newReport(s *editor.Snapshot) report {
	r := report{
		Pose: poseReport{
			Position: vec3(s.Pose.Position),
			Axis:     vec3(s.Pose.Direction(geom.UnitX)),
		},
		Mass:      s.Mass,
		TotalLoad: s.TotalLoad,
		SumCos:    s.SumCos,
		Status:    s.Status.String(),
		Points:    make([]pointReport, 0, len(s.Points)),
		Ropes:     make([]ropeReport, 0, len(s.Ropes)),
	}
	for _, p := range s.Points {
		pr := pointReport{ID: string(p.ID), Role: p.Role, Name: p.Name, Position: vec3(p.Position)}
		if p.Role.TrussBound() {
			pr.LocalX = finite(p.LocalX)
		}
		if p.Role == rig.RoleAttach {
			chord := p.Chord
			pr.Chord = &chord
			pr.Anchor = string(p.Anchor)
		}
		r.Points = append(r.Points, pr)
	}
	for _, rs := range s.Ropes {
		r.Ropes = append(r.Ropes, ropeReport{
			Attach:     string(rs.Attach),
			AttachName: rs.AttachName,
			Anchor:     string(rs.Anchor),
			AnchorName: rs.AnchorName,
			Connected:  rs.Connected,
			AngleDeg:   finite(rs.AngleDeg),
			Tension:    finite(rs.Tension),
			Vertical:   finite(rs.Vertical),
			Severity:   rs.Severity,
			Unbounded:  rs.Unbounded,
		})
	}
	for _, ll := range s.LoadLines {
		r.LoadLines = append(r.LoadLines, lineReport{Load: string(ll.Load), From: vec3(ll.From), To: vec3(ll.To)})
	}
	for _, w := range s.Warnings {
		r.Warnings = append(r.Warnings, warningReport{Code: string(w.Code), Point: string(w.PointID), Message: w.Message})
	}
	return r
}

func vec3(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// =============================================================================
// Tables
// =============================================================================

// renderRopeTable renders one row per rope, colored by severity.
func renderRopeTable(s *editor.Snapshot) string {
	rows := make([][]string, 0, len(s.Ropes))
	for _, r := range s.Ropes {
		anchor, angle, tension, vertical := "—", "—", "—", "—"
		if r.Connected {
			anchor = r.AnchorName
			angle = fmt.Sprintf("%.1f°", r.AngleDeg)
			if s.Status != load.StatusIndeterminate {
				tension = diagram.FormatTension(r.Tension)
				vertical = diagram.FormatTension(r.Vertical)
			}
		}
		rows = append(rows, []string{r.AttachName, anchor, angle, tension, vertical, r.Severity.String()})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Rope", "Anchor", "Angle", "Tension", "Vertical", "Severity").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col >= 2 && col <= 4 {
				base = base.Align(lipgloss.Right)
			}
			if row < 0 || row >= len(s.Ropes) {
				return base
			}
			if col == 0 || col == 5 {
				return base.Inherit(severityStyle(s.Ropes[row].Severity))
			}
			return base.Foreground(colorWhite)
		})
	return t.Render()
}

// renderPointTable renders one row per point in registry order.
func renderPointTable(s *editor.Snapshot) string {
	names := make(map[rig.PointID]string, len(s.Points))
	for _, p := range s.Points {
		names[p.ID] = p.Name
	}
	rows := make([][]string, 0, len(s.Points))
	for _, p := range s.Points {
		local, chord, anchor := "", "", ""
		if p.Role.TrussBound() {
			local = fmt.Sprintf("%.3f", p.LocalX)
		}
		if p.Role == rig.RoleAttach {
			chord = truss.ChordName(p.Chord)
			anchor = names[p.Anchor]
		}
		rows = append(rows, []string{
			p.Name, p.ID.Short(), fmtVec(p.Position), local, chord, anchor,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Point", "ID", "Position", "x", "Chord", "Anchor").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			if col == 1 {
				return StyleDim.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	return t.Render()
}

// writeSummary writes the totals and warnings below the tables.
func writeSummary(w io.Writer, s *editor.Snapshot) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	line := func(k, v string) {
		fmt.Fprintln(w, keyStyle.Render(k)+" "+StyleValue.Render(v))
	}
	line("Payload", fmt.Sprintf("%.1f kg", s.Mass))
	line("Total load", diagram.FormatTension(s.TotalLoad))
	line("Σ cos θ", fmt.Sprintf("%.4f", s.SumCos))
	line("Status", s.Status.String())
	line("Truss", fmtVec(s.Pose.Position)+"  axis "+fmtVec(s.Pose.Direction(geom.UnitX)))

	if len(s.Warnings) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, warn := range s.Warnings {
		fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+
			StyleWarning.Render(warn.Message)+" "+StyleDim.Render(string(warn.Code)))
	}
}

func fmtVec(v r3.Vec) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}
