package sim

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/matzehuels/intelgraph/pkg/graph"
)

// =============================================================================
// State
// =============================================================================

// State is the lifecycle phase of an Engine.
type State int

const (
	// StateUninitialized is the zero Engine; it has no bodies and never ticks.
	StateUninitialized State = iota
	// StateSeeded means bodies are placed but no tick has run.
	StateSeeded
	// StateRunning means at least one tick has run.
	StateRunning
	// StateStopped is terminal: further ticks are no-ops.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateSeeded:
		return "seeded"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "uninitialized"
	}
}

// Body is the kinematic state of one node. All fields are always finite.
type Body struct {
	X, Y   float64
	VX, VY float64
}

// =============================================================================
// Engine
// =============================================================================

// Engine advances a force-directed layout one tick at a time.
//
// An Engine is owned by a single goroutine: Step mutates bodies in place and
// must never run concurrently with itself or with Positions. Hosts that want
// concurrent readers publish copies (see Host).
type Engine struct {
	params Params
	seed   uint64
	state  State
	ticks  int

	nodes   []graph.Node
	radius  []float64
	bodies  []Body
	springs [][2]int
	index   map[string]int
	dropped int
}

// New seeds an engine for the model. Each node starts at the frame centre
// plus a uniform offset in [-Jitter, Jitter] on both axes, with zero
// velocity. The same model, params and seed always produce the same run.
//
// New does not validate p; callers holding user input should run
// Params.Validate first. A zero Width or Height falls back to the default
// frame, and a Damping outside [0, 1) falls back to DefaultDamping so a
// run always loses energy.
func New(m graph.Model, p Params, seed uint64) *Engine {
	if !(p.Width > 0) || !isFinite(p.Width) {
		p.Width = DefaultWidth
	}
	if !(p.Height > 0) || !isFinite(p.Height) {
		p.Height = DefaultHeight
	}
	if !(p.Damping >= 0 && p.Damping < 1) {
		p.Damping = DefaultDamping
	}

	n := len(m.Nodes)
	e := &Engine{
		params:  p,
		seed:    seed,
		state:   StateSeeded,
		nodes:   append([]graph.Node(nil), m.Nodes...),
		radius:  make([]float64, n),
		bodies:  make([]Body, n),
		springs: make([][2]int, 0, len(m.Edges)),
		index:   make(map[string]int, n),
		dropped: m.Dropped,
	}

	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	cx, cy := p.center()
	for i, node := range e.nodes {
		e.index[node.ID] = i
		e.radius[i] = node.Radius()
		e.bodies[i] = Body{
			X: cx + (rng.Float64()-0.5)*2*p.Jitter,
			Y: cy + (rng.Float64()-0.5)*2*p.Jitter,
		}
	}

	for _, edge := range m.Edges {
		s, okS := e.index[edge.Source]
		t, okT := e.index[edge.Target]
		if !okS || !okT {
			e.dropped++
			continue
		}
		e.springs = append(e.springs, [2]int{s, t})
	}
	return e
}

// Step advances the simulation by one tick. It is a no-op on stopped, empty
// or uninitialized engines.
func (e *Engine) Step() {
	if e.state == StateStopped || e.state == StateUninitialized || len(e.bodies) == 0 {
		return
	}
	e.state = StateRunning

	e.applyPairForces()
	e.applySprings()
	e.applyGravity()
	e.integrate()
	e.ticks++
}

// Run advances the simulation by n ticks and returns how many ran.
func (e *Engine) Run(n int) int {
	before := e.ticks
	for range max(n, 0) {
		if e.state == StateStopped {
			break
		}
		e.Step()
	}
	return e.ticks - before
}

// RunContext is Run with cancellation checked between ticks.
func (e *Engine) RunContext(ctx context.Context, n int) (int, error) {
	before := e.ticks
	for range max(n, 0) {
		if err := ctx.Err(); err != nil {
			return e.ticks - before, err
		}
		if e.state == StateStopped {
			break
		}
		e.Step()
	}
	return e.ticks - before, nil
}

// Stop ends the run. Positions remain readable.
func (e *Engine) Stop() {
	if e.state != StateUninitialized {
		e.state = StateStopped
	}
}

// Place moves a node to (x, y) and clears its velocity. It reports false
// when the ID is unknown or a coordinate is not finite.
func (e *Engine) Place(id string, x, y float64) bool {
	i, ok := e.index[id]
	if !ok || !isFinite(x) || !isFinite(y) {
		return false
	}
	e.bodies[i] = Body{X: x, Y: y}
	return true
}

// Positions returns a copy of every node's placement in model order.
func (e *Engine) Positions() []graph.Position {
	out := make([]graph.Position, len(e.bodies))
	for i, b := range e.bodies {
		n := e.nodes[i]
		out[i] = graph.Position{
			ID:     n.ID,
			Label:  n.Label,
			Type:   n.Type,
			X:      b.X,
			Y:      b.Y,
			Radius: e.radius[i],
		}
	}
	return out
}

// Bodies returns a copy of the kinematic state in model order.
func (e *Engine) Bodies() []Body {
	return append([]Body(nil), e.bodies...)
}

// KineticEnergy returns the total kinetic energy, treating every node as
// unit mass.
func (e *Engine) KineticEnergy() float64 {
	var sum float64
	for _, b := range e.bodies {
		sum += 0.5 * (b.VX*b.VX + b.VY*b.VY)
	}
	return sum
}

// Layout captures the current run as a serializable Layout.
func (e *Engine) Layout() graph.Layout {
	edges := make([]graph.Edge, len(e.springs))
	for i, s := range e.springs {
		edges[i] = graph.Edge{Source: e.nodes[s[0]].ID, Target: e.nodes[s[1]].ID}
	}
	return graph.Layout{
		Width:     e.params.Width,
		Height:    e.params.Height,
		Seed:      e.seed,
		Ticks:     e.ticks,
		Energy:    e.KineticEnergy(),
		Dropped:   e.dropped,
		Nodes:     e.Positions(),
		Edges:     edges,
		Transform: graph.Identity,
	}
}

// Node returns the model node behind a position.
func (e *Engine) Node(id string) (graph.Node, bool) {
	i, ok := e.index[id]
	if !ok {
		return graph.Node{}, false
	}
	return e.nodes[i], true
}

func (e *Engine) Ticks() int     { return e.ticks }
func (e *Engine) State() State   { return e.state }
func (e *Engine) Len() int       { return len(e.bodies) }
func (e *Engine) Seed() uint64   { return e.seed }
func (e *Engine) Params() Params { return e.params }
func (e *Engine) Dropped() int   { return e.dropped }
func (e *Engine) EdgeCount() int { return len(e.springs) }

// =============================================================================
// Forces
// =============================================================================

// applyPairForces handles repulsion and hard collisions for every unordered
// pair. Repulsion acts on velocity; collision displaces positions directly.
func (e *Engine) applyPairForces() {
	p := e.params
	repelRange := 2 * p.MinSeparation

	for i := range e.bodies {
		for j := i + 1; j < len(e.bodies); j++ {
			a, b := &e.bodies[i], &e.bodies[j]
			dx, dy := b.X-a.X, b.Y-a.Y
			distSq := dx*dx + dy*dy
			if !isFinite(distSq) {
				continue
			}
			dist := math.Sqrt(distSq)
			ux, uy := 1.0, 0.0
			if dist > 0 {
				ux, uy = dx/dist, dy/dist
			} else {
				dist = 1
			}

			if dist < repelRange {
				f := p.Repulsion / (distSq + 100)
				a.VX = addFinite(a.VX, -ux*f)
				a.VY = addFinite(a.VY, -uy*f)
				b.VX = addFinite(b.VX, ux*f)
				b.VY = addFinite(b.VY, uy*f)
			}

			if minDist := e.radius[i] + e.radius[j] + p.CollisionMargin; dist < minDist {
				push := (minDist - dist) * 0.5
				a.X = addFinite(a.X, -ux*push)
				a.Y = addFinite(a.Y, -uy*push)
				b.X = addFinite(b.X, ux*push)
				b.Y = addFinite(b.Y, uy*push)
			}
		}
	}
}

// applySprings pulls edge endpoints toward RestLength apart.
func (e *Engine) applySprings() {
	p := e.params
	for _, s := range e.springs {
		if s[0] == s[1] {
			continue
		}
		a, b := &e.bodies[s[0]], &e.bodies[s[1]]
		dx, dy := b.X-a.X, b.Y-a.Y
		dist := math.Sqrt(dx*dx + dy*dy)
		if !isFinite(dist) {
			continue
		}
		if dist == 0 {
			dist = 1
		}
		f := (dist - p.RestLength) * p.SpringK
		fx, fy := dx/dist*f, dy/dist*f
		a.VX = addFinite(a.VX, fx)
		a.VY = addFinite(a.VY, fy)
		b.VX = addFinite(b.VX, -fx)
		b.VY = addFinite(b.VY, -fy)
	}
}

func (e *Engine) applyGravity() {
	cx, cy := e.params.center()
	k := e.params.CenterPull
	for i := range e.bodies {
		b := &e.bodies[i]
		b.VX = addFinite(b.VX, (cx-b.X)*k)
		b.VY = addFinite(b.VY, (cy-b.Y)*k)
	}
}

func (e *Engine) integrate() {
	d := e.params.Damping
	for i := range e.bodies {
		b := &e.bodies[i]
		b.VX = finiteOr(b.VX*d, 0)
		b.VY = finiteOr(b.VY*d, 0)
		b.X = addFinite(b.X, b.VX)
		b.Y = addFinite(b.Y, b.VY)
	}
}

// =============================================================================
// Numeric Guards
// =============================================================================

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// addFinite returns a+b, or a unchanged when the sum is not finite.
func addFinite(a, b float64) float64 {
	if s := a + b; isFinite(s) {
		return s
	}
	return a
}

func finiteOr(v, fallback float64) float64 {
	if isFinite(v) {
		return v
	}
	return fallback
}
