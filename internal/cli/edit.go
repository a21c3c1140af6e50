package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/trussrig/pkg/config"
	"github.com/matzehuels/trussrig/pkg/editor"
	"github.com/matzehuels/trussrig/pkg/errors"
	"github.com/matzehuels/trussrig/pkg/geom"
	"github.com/matzehuels/trussrig/pkg/rig"
	"github.com/matzehuels/trussrig/pkg/truss"
)

const (
	defaultStep = 0.1
	minStep     = 0.01
	maxStep     = 1.0
	massStep    = 10.0
)

// editOptions holds flags for the edit command.
type editOptions struct {
	session sessionFlags
	watch   bool
}

// editCommand creates the interactive editor command.
func (c *CLI) editCommand() *cobra.Command {
	opts := editOptions{}

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit the rig interactively",
		Long: `Edit opens a terminal editor on the default layout. Every change is
recomputed immediately.

Keys:
  ↑/↓ k/j   select point         ←/→ h/l   move along x
  w/s       move along y         a/d       move along z
  [ ]       halve/double step    c         next chord
  n         next anchor          A T L     add anchor/attach/load
  x         delete selected      X         delete last of role
  + -       payload ±10 kg       r         reset layout
  e x|y|z   type a coordinate    m         type the payload mass
  q         quit

In a typed field, enter applies the value and esc cancels. Entries that are
not numbers are rejected and the previous value is kept.`,
		Example: `  # Edit with the truss free to tilt
  trussrig edit --pose free

  # Reload truss dimensions whenever the config file changes
  trussrig edit --config rig.toml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(cmd, &opts)
		},
	}

	opts.session.register(cmd)
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "reload the config file when it changes")

	return cmd
}

func (c *CLI) runEdit(cmd *cobra.Command, opts *editOptions) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// The terminal belongs to the editor view; warnings are shown there.
	ed, path, err := openEditor(ctx, cmd, &opts.session, log.New(io.Discard))
	if err != nil {
		return err
	}

	m := newEditModel(ed)
	if opts.watch {
		if path == "" {
			return errors.New(errors.ErrCodeInvalidInput, "no config file to watch, pass --config or run '%s config init'", appName)
		}
		updates, err := config.Watch(ctx, path)
		if err != nil {
			return err
		}
		m.updates = updates
		m.watchPath = path
		loggerFromContext(ctx).Debug("watching config", "path", path)
	}

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(editModel); ok && fm.snap != nil {
		fmt.Fprintln(os.Stdout, renderRopeTable(fm.snap))
		writeSummary(os.Stdout, fm.snap)
	}
	return nil
}

// =============================================================================
// editModel - Interactive rig editor
// =============================================================================

// configMsg carries a reloaded config from the watcher.
type configMsg config.Update

// watchClosedMsg reports that the watcher stopped.
type watchClosedMsg struct{}

var (
	editSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	editDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// fieldKind is the typed input field that is open, if any.
type fieldKind int

const (
	fieldNone fieldKind = iota
	fieldAxisPick
	fieldAxis
	fieldMass
)

// editModel is the bubbletea model of the editor. Every key that changes
// the rig triggers a recompute.
type editModel struct {
	ed     *editor.Editor
	snap   *editor.Snapshot
	cursor int
	step   float64

	field fieldKind
	axis  geom.Axis
	input string

	status    string
	statusErr bool

	updates   <-chan config.Update
	watchPath string
}

func newEditModel(ed *editor.Editor) editModel {
	return editModel{ed: ed, snap: ed.Recompute(), step: defaultStep}
}

func (m editModel) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

// waitForUpdate blocks on the watcher channel. A nil channel yields no command.
func waitForUpdate(ch <-chan config.Update) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return watchClosedMsg{}
		}
		return configMsg(u)
	}
}

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.field != fieldNone {
			return m.handleFieldKey(msg)
		}
		return m.handleKey(msg.String())
	case configMsg:
		if msg.Err != nil {
			m.setError(msg.Err)
		} else if err := m.ed.ApplyConfig(msg.Config); err != nil {
			m.setError(err)
		} else {
			m.setStatus("reloaded " + m.watchPath)
		}
		m.recompute()
		return m, waitForUpdate(m.updates)
	case watchClosedMsg:
		m.updates = nil
	}
	return m, nil
}

// selected returns the selected point.
func (m editModel) selected() (editor.PointState, bool) {
	if m.snap == nil || m.cursor < 0 || m.cursor >= len(m.snap.Points) {
		return editor.PointState{}, false
	}
	return m.snap.Points[m.cursor], true
}

func (m editModel) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.snap.Points)-1 {
			m.cursor++
		}
		return m, nil
	case "[":
		m.step = geom.Clamp(m.step/2, minStep, maxStep)
		m.setStatus(fmt.Sprintf("step %.3f m", m.step))
		return m, nil
	case "]":
		m.step = geom.Clamp(m.step*2, minStep, maxStep)
		m.setStatus(fmt.Sprintf("step %.3f m", m.step))
		return m, nil
	case "e":
		if _, ok := m.selected(); ok {
			m.field, m.input = fieldAxisPick, ""
		}
		return m, nil
	case "m":
		m.field, m.input = fieldMass, ""
		return m, nil
	}

	var err error
	p, ok := m.selected()
	switch key {
	case "left", "h", "right", "l":
		if !ok {
			return m, nil
		}
		delta := m.step
		if key == "left" || key == "h" {
			delta = -delta
		}
		x := p.Position.X
		if p.Role.TrussBound() {
			x = p.LocalX
		}
		_, err = m.ed.SetAxis(p.ID, geom.AxisX, x+delta)
	case "w", "s", "a", "d":
		if !ok {
			return m, nil
		}
		var delta r3.Vec
		switch key {
		case "w":
			delta.Y = m.step
		case "s":
			delta.Y = -m.step
		case "a":
			delta.Z = -m.step
		case "d":
			delta.Z = m.step
		}
		_, err = m.ed.SetPosition(p.ID, r3.Add(p.Position, delta))
	case "c":
		if !ok || p.Role != rig.RoleAttach {
			return m, nil
		}
		err = m.ed.SetChord(p.ID, (p.Chord+1)%truss.NumChords)
		if err == nil {
			m.setStatus(p.Name + " on " + truss.ChordName((p.Chord+1)%truss.NumChords))
		}
	case "n":
		if !ok || p.Role != rig.RoleAttach {
			return m, nil
		}
		var next rig.PointID
		next, err = m.ed.CycleAnchor(p.ID)
		if err == nil {
			m.setStatus(p.Name + " → " + m.pointName(next))
		}
	case "A", "T", "L":
		role := map[string]rig.Role{"A": rig.RoleAnchor, "T": rig.RoleAttach, "L": rig.RoleLoad}[key]
		var id rig.PointID
		id, err = m.ed.AddPoint(role, m.ed.DefaultHint(role))
		if err == nil {
			m.recompute()
			m.selectID(id)
			m.setStatus("added " + m.pointName(id))
			return m, nil
		}
	case "x":
		if !ok {
			return m, nil
		}
		err = m.ed.RemovePoint(p.ID)
		if err == nil {
			m.setStatus("removed " + p.Name)
		}
	case "X":
		if !ok {
			return m, nil
		}
		_, err = m.ed.RemoveLast(p.Role)
		if err == nil {
			m.setStatus("removed last " + p.Role.String())
		}
	case "+", "=":
		err = m.ed.SetLoadMass(m.ed.LoadMass() + massStep)
	case "-", "_":
		err = m.ed.SetLoadMass(m.ed.LoadMass() - massStep)
	case "r":
		m.ed.Reset()
		m.cursor = 0
		m.setStatus("reset to default layout")
	default:
		return m, nil
	}

	if err != nil {
		m.setError(err)
	}
	m.recompute()
	return m, nil
}

// handleFieldKey edits the open input field.
func (m editModel) handleFieldKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.field, m.input = fieldNone, ""
		m.setStatus("edit cancelled")
	case tea.KeyEnter:
		return m.commitField()
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		if m.field != fieldAxisPick {
			m.input += string(msg.Runes)
			return m, nil
		}
		axis, err := geom.ParseAxis(string(msg.Runes))
		if err != nil {
			m.field = fieldNone
			m.setError(err)
			return m, nil
		}
		m.field, m.axis = fieldAxis, axis
	}
	return m, nil
}

// commitField parses the typed value and applies it. A rejected entry
// leaves the rig unchanged.
func (m editModel) commitField() (tea.Model, tea.Cmd) {
	field, input := m.field, m.input
	m.field, m.input = fieldNone, ""

	var err error
	switch field {
	case fieldAxis:
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		var v float64
		if v, err = errors.ParseCoordinate(input); err == nil {
			_, err = m.ed.SetAxis(p.ID, m.axis, v)
		}
		if err == nil {
			m.setStatus(fmt.Sprintf("%s %s = %g", p.Name, m.axis, v))
		}
	case fieldMass:
		var v float64
		if v, err = errors.ParseMass(input); err == nil {
			err = m.ed.SetLoadMass(v)
		}
		if err == nil {
			m.setStatus(fmt.Sprintf("payload %g kg", v))
		}
	default:
		return m, nil
	}

	if err != nil {
		m.setError(err)
	}
	m.recompute()
	return m, nil
}

// fieldPrompt renders the open input field with the current value.
func (m editModel) fieldPrompt() string {
	switch m.field {
	case fieldAxisPick:
		return "edit axis: x, y or z"
	case fieldAxis:
		p, ok := m.selected()
		if !ok {
			return ""
		}
		current := geom.Component(p.Position, m.axis)
		if m.axis == geom.AxisX && p.Role.TrussBound() {
			current = p.LocalX
		}
		return fmt.Sprintf("%s %s [%.3f] > %s▏", p.Name, m.axis, current, m.input)
	case fieldMass:
		return fmt.Sprintf("payload kg [%.1f] > %s▏", m.ed.LoadMass(), m.input)
	}
	return ""
}

func (m *editModel) recompute() {
	m.snap = m.ed.Recompute()
	if m.cursor >= len(m.snap.Points) {
		m.cursor = len(m.snap.Points) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *editModel) selectID(id rig.PointID) {
	for i, p := range m.snap.Points {
		if p.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m editModel) pointName(id rig.PointID) string {
	if id.IsZero() {
		return "none"
	}
	for _, p := range m.snap.Points {
		if p.ID == id {
			return p.Name
		}
	}
	return id.Short()
}

func (m *editModel) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *editModel) setError(err error) {
	m.status, m.statusErr = errors.UserMessage(err), true
}

func (m editModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Truss Rig"))
	b.WriteString("  ")
	b.WriteString(editDimStyle.Render(fmt.Sprintf("pose %s · connect %s · step %.3f m",
		m.ed.PoseMode(), m.ed.ConnectMode(), m.step)))
	b.WriteString("\n\n")

	for i, p := range m.snap.Points {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-10s %s", cursor, p.Name, fmtVec(p.Position))
		switch p.Role {
		case rig.RoleAttach:
			line += fmt.Sprintf("  x %6.3f  %-11s → %s", p.LocalX, truss.ChordName(p.Chord), m.pointName(p.Anchor))
		case rig.RoleLoad:
			line += fmt.Sprintf("  x %6.3f", p.LocalX)
		}
		if i == m.cursor {
			b.WriteString(editSelectedStyle.Render(line))
		} else {
			b.WriteString(editNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(renderRopeTable(m.snap))
	b.WriteString("\n")
	writeSummary(&b, m.snap)
	b.WriteString("\n")

	if m.field != fieldNone {
		b.WriteString(StyleValue.Render(m.fieldPrompt()))
		b.WriteString("\n")
	}
	if m.status != "" {
		if m.statusErr {
			b.WriteString(StyleError.Render("✗ " + m.status))
		} else {
			b.WriteString(StyleSuccess.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(editDimStyle.Render("↑↓ select  ←→ws ad move  [] step  c chord  n anchor  ATL add  xX delete  +- mass  e m type  r reset  q quit"))
	return b.String()
}
