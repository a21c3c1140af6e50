// Package editor is the core of trussrig: it owns the points of a rig and
// recomputes rope tensions on request.
//
// An [Editor] ties together the point registry, the truss constraint solver,
// the connectivity resolver and the load distribution engine. Mutations
// validate and project their input and either apply it completely or reject
// it with a structured error, leaving the previous value in place. They never
// recompute implicitly; the presentation layer calls [Editor.Recompute] after
// each mutation and renders the returned [Snapshot].
//
// Recompute never fails. Degenerate geometry, unconnected ropes and
// indeterminate or unbounded load cases are reported as [Warning] values.
//
// An Editor is not safe for concurrent use.
package editor

import (
	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/trussrig/pkg/config"
	"github.com/matzehuels/trussrig/pkg/connect"
	"github.com/matzehuels/trussrig/pkg/errors"
	"github.com/matzehuels/trussrig/pkg/geom"
	"github.com/matzehuels/trussrig/pkg/load"
	"github.com/matzehuels/trussrig/pkg/observability"
	"github.com/matzehuels/trussrig/pkg/rig"
	"github.com/matzehuels/trussrig/pkg/truss"
)

// Editor is the rig editing session.
type Editor struct {
	cfg      *config.Config
	reg      *rig.Registry
	solver   *truss.Solver
	resolver *connect.Resolver
	engine   *load.Engine
	mass     float64

	logger *log.Logger
	hooks  observability.EditorHooks

	last         *Snapshot
	lastWarnings string
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithHooks sets the observability hooks. The default is the globally
// registered observability.Editor().
func WithHooks(h observability.EditorHooks) Option {
	return func(e *Editor) {
		if h != nil {
			e.hooks = h
		}
	}
}

// New returns an editor loaded with the default layout. A nil cfg uses
// config.Default().
func New(cfg *config.Config, opts ...Option) (*Editor, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Editor{
		cfg:    cfg.Clone(),
		reg:    rig.NewRegistry(),
		logger: log.Default(),
		hooks:  observability.Editor(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.configure(e.cfg); err != nil {
		return nil, err
	}
	e.mass = e.cfg.Load.Mass
	if err := e.applyLayout(DefaultLayout()); err != nil {
		return nil, err
	}
	return e, nil
}

// configure builds the solver, resolver and engine from cfg.
func (e *Editor) configure(cfg *config.Config) error {
	mode, err := cfg.PoseMode()
	if err != nil {
		return err
	}
	cmode, err := cfg.ConnectMode()
	if err != nil {
		return err
	}
	solver, err := truss.NewSolver(cfg.TrussSpec(), mode, cfg.HomePose())
	if err != nil {
		return err
	}
	engine, err := load.NewEngine(cfg.Severity)
	if err != nil {
		return err
	}
	e.solver, e.resolver, e.engine = solver, connect.NewResolver(cmode), engine
	return nil
}

// Config returns a copy of the active configuration.
func (e *Editor) Config() *config.Config { return e.cfg.Clone() }

// Pose returns the current truss pose.
func (e *Editor) Pose() geom.Pose { return e.solver.Pose() }

// Spec returns the truss dimensions.
func (e *Editor) Spec() truss.Spec { return e.solver.Spec() }

// PoseMode returns the truss pose policy.
func (e *Editor) PoseMode() truss.PoseMode { return e.solver.Mode() }

// ConnectMode returns the rope routing policy.
func (e *Editor) ConnectMode() connect.Mode { return e.resolver.Mode() }

// Point returns the point with the given id.
func (e *Editor) Point(id rig.PointID) (rig.Point, bool) { return e.reg.Get(id) }

// Points returns the points of role in creation order.
func (e *Editor) Points(role rig.Role) []rig.Point { return e.reg.Points(role) }

// All returns every point: anchors, attach points, then load points.
func (e *Editor) All() []rig.Point { return e.reg.All() }

// Lines returns the visual state of every live line.
func (e *Editor) Lines() []rig.Line { return e.reg.Lines() }

// LocalX returns a truss-bound point's position along the truss.
func (e *Editor) LocalX(p rig.Point) float64 { return e.solver.LocalX(p.Position, p.Role) }

// Snapshot returns the result of the last recompute, or nil before the
// first one.
func (e *Editor) Snapshot() *Snapshot { return e.last }

// LoadMass returns the payload mass in kilograms.
func (e *Editor) LoadMass() float64 { return e.mass }

// SetLoadMass sets the payload mass in kilograms.
func (e *Editor) SetLoadMass(mass float64) error {
	err := errors.ValidateMass(mass)
	if err == nil {
		e.mass = mass
	}
	e.mutated("set_mass", "", err, "mass", mass)
	return err
}

// AddOption configures AddPoint.
type AddOption func(*addOptions)

type addOptions struct {
	chord     int
	hasChord  bool
	anchor    rig.PointID
	hasAnchor bool
}

// WithChord places a new attach point on chord. Without it, new attach
// points alternate between chords 0 and 1.
func WithChord(chord int) AddOption {
	return func(o *addOptions) { o.chord, o.hasChord = chord, true }
}

// WithAnchor connects a new attach point to anchor. A zero anchor creates the
// point unconnected. Without it, the nearest anchor is assigned.
func WithAnchor(anchor rig.PointID) AddOption {
	return func(o *addOptions) { o.anchor, o.hasAnchor = anchor, true }
}

// AddPoint creates a point of role near hint. Attach and load points are
// projected onto the truss.
func (e *Editor) AddPoint(role rig.Role, hint r3.Vec, opts ...AddOption) (rig.PointID, error) {
	p, err := e.addPoint(role, hint, opts...)
	e.mutated("add_point", p.ID, err, "role", role, "name", p.Name)
	return p.ID, err
}

func (e *Editor) addPoint(role rig.Role, hint r3.Vec, opts ...AddOption) (rig.Point, error) {
	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !role.Valid() {
		return rig.Point{}, errors.New(errors.ErrCodeInvalidRole, "invalid role %d", int(role))
	}

	p := rig.Point{Role: role}
	if role == rig.RoleAttach {
		p.Chord = e.reg.Len(rig.RoleAttach) % 2
		if o.hasChord {
			p.Chord = o.chord
		}
	}

	pos, err := e.solver.Project(hint, role, p.Chord)
	if err != nil {
		return rig.Point{}, err
	}
	p.Position = pos

	if role == rig.RoleAttach {
		p.Anchor = o.anchor
		if !o.hasAnchor {
			anchors := e.reg.Points(rig.RoleAnchor)
			if i := connect.Nearest(pos, anchors); i >= 0 {
				p.Anchor = anchors[i].ID
			}
		}
	}
	return e.reg.Add(p)
}

// DefaultHint returns the position used for a point added without one:
// anchors above the truss center, truss-bound points at the truss center.
func (e *Editor) DefaultHint(role rig.Role) r3.Vec {
	center := e.solver.Pose().ToWorld(r3.Vec{})
	if role == rig.RoleAnchor {
		return r3.Vec{X: center.X, Y: DefaultAnchorY, Z: center.Z}
	}
	return center
}

// RemovePoint deletes a point and releases its line. Removing an anchor
// disconnects every attach point routed to it.
func (e *Editor) RemovePoint(id rig.PointID) error {
	p, err := e.reg.Remove(id)
	e.mutated("remove_point", id, err, "name", p.Name)
	return err
}

// RemoveLast deletes the most recently created point of role.
func (e *Editor) RemoveLast(role rig.Role) (rig.PointID, error) {
	p, ok := e.reg.RemoveLast(role)
	var err error
	if !ok {
		err = errors.New(errors.ErrCodePointNotFound, "no %s points to remove", role)
	}
	e.mutated("remove_last", p.ID, err, "role", role)
	return p.ID, err
}

// SetPosition moves a point as close to desired as its constraints allow and
// returns the applied position.
func (e *Editor) SetPosition(id rig.PointID, desired r3.Vec) (r3.Vec, error) {
	pos, err := e.setPosition(id, func(p rig.Point) (r3.Vec, error) {
		return e.solver.Project(desired, p.Role, p.Chord)
	})
	e.mutated("set_position", id, err, "position", pos)
	return pos, err
}

// SetAxis edits a single coordinate of a point and returns the applied
// position. For truss-bound points the value is taken along the truss.
func (e *Editor) SetAxis(id rig.PointID, axis geom.Axis, value float64) (r3.Vec, error) {
	pos, err := e.setPosition(id, func(p rig.Point) (r3.Vec, error) {
		return e.solver.SetAxis(p.Position, p.Role, p.Chord, axis, value)
	})
	e.mutated("set_axis", id, err, "axis", axis, "value", value)
	return pos, err
}

func (e *Editor) setPosition(id rig.PointID, project func(rig.Point) (r3.Vec, error)) (r3.Vec, error) {
	p, err := e.reg.MustGet(id)
	if err != nil {
		return r3.Vec{}, err
	}
	pos, err := project(p)
	if err != nil {
		return p.Position, err
	}
	return pos, e.reg.SetPosition(id, pos)
}

// SetChord moves an attach point to another chord, keeping its position
// along the truss.
func (e *Editor) SetChord(id rig.PointID, chord int) error {
	err := e.setChord(id, chord)
	e.mutated("set_chord", id, err, "chord", chord)
	return err
}

func (e *Editor) setChord(id rig.PointID, chord int) error {
	p, err := e.reg.MustGet(id)
	if err != nil {
		return err
	}
	if err := e.reg.SetChord(id, chord); err != nil {
		return err
	}
	pos, err := e.solver.Place(e.solver.LocalX(p.Position, p.Role), p.Role, chord)
	if err != nil {
		return err
	}
	return e.reg.SetPosition(id, pos)
}

// SetConnectedAnchor routes an attach point to anchor. A zero anchor
// disconnects it. In nearest mode the assignment is stored but routing
// ignores it.
func (e *Editor) SetConnectedAnchor(id, anchor rig.PointID) error {
	err := e.reg.SetAnchor(id, anchor)
	e.mutated("set_anchor", id, err, "anchor", anchor.Short())
	return err
}

// CycleAnchor advances an attach point's anchor to the next one in creation
// order, passing through "none" after the last. It returns the new anchor.
func (e *Editor) CycleAnchor(id rig.PointID) (rig.PointID, error) {
	p, err := e.reg.MustGet(id)
	if err != nil {
		return "", err
	}
	anchors := e.reg.Points(rig.RoleAnchor)
	next := rig.PointID("")
	if len(anchors) > 0 {
		i := -1
		for j, a := range anchors {
			if a.ID == p.Anchor {
				i = j
			}
		}
		if i < len(anchors)-1 {
			next = anchors[i+1].ID
		}
	}
	return next, e.SetConnectedAnchor(id, next)
}

// ApplyConfig switches to cfg for a running session: truss dimensions,
// placement, policies, gravity and thresholds. Points keep their positions
// along the truss; the payload mass is left alone.
func (e *Editor) ApplyConfig(cfg *config.Config) error {
	err := e.applyConfig(cfg)
	e.mutated("apply_config", "", err)
	return err
}

func (e *Editor) applyConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	local := make(map[rig.PointID]float64)
	for _, p := range e.reg.All() {
		if p.Role.TrussBound() {
			local[p.ID] = e.solver.LocalX(p.Position, p.Role)
		}
	}
	if err := e.configure(cfg); err != nil {
		return err
	}
	e.cfg = cfg.Clone()
	for id, x := range local {
		p, _ := e.reg.Get(id)
		pos, err := e.solver.Place(x, p.Role, p.Chord)
		if err != nil {
			return err
		}
		if err := e.reg.SetPosition(id, pos); err != nil {
			return err
		}
	}
	return nil
}

// mutated reports a mutation to the hooks and the debug log.
func (e *Editor) mutated(op string, id rig.PointID, err error, kv ...any) {
	e.hooks.OnMutation(op, string(id), err)
	if err != nil {
		e.logger.Debug("mutation rejected", append([]any{"op", op, "id", id.Short(), "err", errors.UserMessage(err)}, kv...)...)
		return
	}
	e.logger.Debug(op, append([]any{"id", id.Short()}, kv...)...)
}
