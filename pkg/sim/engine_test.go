package sim

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/matzehuels/intelgraph/pkg/graph"
)

// sampleModel is a small intelligence graph: one project hub with risks,
// requirements and a stakeholder hanging off it.
func sampleModel() graph.Model {
	return graph.Build(
		[]graph.Node{
			{ID: "p1", Label: "Core Banking", Type: graph.TypeProject},
			{ID: "r1", Label: "Vendor lock-in", Type: graph.TypeRisk},
			{ID: "r2", Label: "Data residency", Type: graph.TypeRisk},
			{ID: "q1", Label: "KYC", Type: graph.TypeRequirement},
			{ID: "q2", Label: "PSD2", Type: graph.TypeRequirement},
			{ID: "s1", Label: "CFO", Type: graph.TypeStakeholder},
			{ID: "a1", Label: "Audit 2024", Type: graph.TypeAuditScore},
			{ID: "o1", Label: "Misc", Type: graph.TypeOther},
		},
		[]graph.Edge{
			{Source: "p1", Target: "r1"},
			{Source: "p1", Target: "r2"},
			{Source: "p1", Target: "q1"},
			{Source: "p1", Target: "q2"},
			{Source: "s1", Target: "p1"},
			{Source: "a1", Target: "p1"},
			{Source: "r1", Target: "q1"},
		},
	)
}

func dist(a, b graph.Position) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func TestNewSeedsWithinJitter(t *testing.T) {
	p := DefaultParams()
	e := New(sampleModel(), p, 1)

	if e.State() != StateSeeded {
		t.Fatalf("state = %v, want seeded", e.State())
	}
	if e.Ticks() != 0 {
		t.Errorf("ticks = %d, want 0", e.Ticks())
	}
	cx, cy := p.Width/2, p.Height/2
	for _, b := range e.Bodies() {
		if math.Abs(b.X-cx) > p.Jitter || math.Abs(b.Y-cy) > p.Jitter {
			t.Errorf("body (%v, %v) outside jitter box", b.X, b.Y)
		}
		if b.VX != 0 || b.VY != 0 {
			t.Errorf("initial velocity = (%v, %v), want 0", b.VX, b.VY)
		}
	}
}

func TestNewZeroFrameFallsBack(t *testing.T) {
	p := DefaultParams()
	p.Width, p.Height = 0, 0
	e := New(sampleModel(), p, 1)

	got := e.Params()
	if got.Width != DefaultWidth || got.Height != DefaultHeight {
		t.Errorf("frame = %vx%v, want %vx%v", got.Width, got.Height, DefaultWidth, DefaultHeight)
	}
}

func TestNewClampsDamping(t *testing.T) {
	tests := []struct {
		name    string
		damping float64
		want    float64
	}{
		{"valid", 0.5, 0.5},
		{"zero", 0, 0},
		{"one", 1, DefaultDamping},
		{"above one", 1.5, DefaultDamping},
		{"negative", -0.1, DefaultDamping},
		{"nan", math.NaN(), DefaultDamping},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			p.Damping = tt.damping
			e := New(sampleModel(), p, 1)
			if got := e.Params().Damping; got != tt.want {
				t.Errorf("damping = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNoOverlapAfterSettling(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			e := New(sampleModel(), DefaultParams(), seed)
			e.Run(300)

			pos := e.Positions()
			for i := range pos {
				for j := i + 1; j < len(pos); j++ {
					if d, floor := dist(pos[i], pos[j]), pos[i].Radius+pos[j].Radius; d < floor {
						t.Errorf("%s and %s overlap: distance %.2f < %.2f", pos[i].ID, pos[j].ID, d, floor)
					}
				}
			}
		})
	}
}

func TestPositionsStayBounded(t *testing.T) {
	star := func(n int) graph.Model {
		nodes := []graph.Node{{ID: "hub", Type: graph.TypeProject}}
		var edges []graph.Edge
		for i := 1; i < n; i++ {
			id := fmt.Sprintf("r%d", i)
			nodes = append(nodes, graph.Node{ID: id, Type: graph.TypeRisk})
			edges = append(edges, graph.Edge{Source: "hub", Target: id})
		}
		return graph.Build(nodes, edges)
	}
	disconnected := graph.Build(
		[]graph.Node{
			{ID: "p1", Type: graph.TypeProject}, {ID: "r1", Type: graph.TypeRisk},
			{ID: "p2", Type: graph.TypeProject}, {ID: "q2", Type: graph.TypeRequirement},
			{ID: "s3", Type: graph.TypeStakeholder}, {ID: "a3", Type: graph.TypeAuditScore},
			{ID: "o1"}, {ID: "o2"}, {ID: "o3"}, {ID: "o4"},
		},
		[]graph.Edge{
			{Source: "p1", Target: "r1"},
			{Source: "p2", Target: "q2"},
			{Source: "s3", Target: "a3"},
		},
	)

	tests := []struct {
		name string
		m    graph.Model
	}{
		{"sample", sampleModel()},
		{"star of 20", star(20)},
		{"star of 40", star(40)},
		{"disconnected", disconnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			e := New(tt.m, p, 9)
			e.Run(200)

			limit := float64(e.Len()) * p.RestLength
			cx, cy := p.Width/2, p.Height/2
			for tick := range 800 {
				e.Step()
				for i, b := range e.Bodies() {
					if d := math.Hypot(b.X-cx, b.Y-cy); d > limit {
						t.Fatalf("tick %d: body %d is %.1f from centre, limit %.1f", 200+tick, i, d, limit)
					}
				}
			}
		})
	}
}

func TestDeterminism(t *testing.T) {
	a := New(sampleModel(), DefaultParams(), 42)
	b := New(sampleModel(), DefaultParams(), 42)
	c := New(sampleModel(), DefaultParams(), 43)
	a.Run(150)
	b.Run(150)
	c.Run(150)

	pa, pb, pc := a.Positions(), b.Positions(), c.Positions()
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("same seed diverged at %s: %+v vs %+v", pa[i].ID, pa[i], pb[i])
		}
	}

	same := true
	for i := range pa {
		if pa[i] != pc[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical runs")
	}
}

func TestEnergyDecays(t *testing.T) {
	e := New(sampleModel(), DefaultParams(), 3)

	early := NewEnergyMonitor(50)
	for range 50 {
		e.Step()
		early.Observe(e.KineticEnergy())
	}
	e.Run(150)
	late := NewEnergyMonitor(100)
	for range 100 {
		e.Step()
		late.Observe(e.KineticEnergy())
	}

	if late.Mean() >= early.Mean() {
		t.Errorf("late mean energy %.4f >= early mean %.4f", late.Mean(), early.Mean())
	}
	if late.Mean() > 1 {
		t.Errorf("late mean energy %.4f, want settled below 1", late.Mean())
	}
}

func TestTwoNodeSpring(t *testing.T) {
	m := graph.Build(
		[]graph.Node{{ID: "a"}, {ID: "b"}},
		[]graph.Edge{{Source: "a", Target: "b", Relation: "requires"}},
	)
	run := func(p Params) float64 {
		e := New(m, p, 1)
		e.Place("a", 150, 300)
		e.Place("b", 650, 300)
		e.Run(500)
		pos := e.Positions()
		return dist(pos[0], pos[1])
	}

	t.Run("spring only", func(t *testing.T) {
		p := DefaultParams()
		p.Repulsion = 0
		p.CenterPull = 0
		if d := run(p); math.Abs(d-p.RestLength) >= 5 {
			t.Errorf("distance = %.2f, want within 5 of %v", d, p.RestLength)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		// Repulsion still reaches 2*MinSeparation, so the pair settles
		// past the rest length.
		p := DefaultParams()
		if d := run(p); d <= p.RestLength || d >= p.RestLength+15 {
			t.Errorf("distance = %.2f, want in (%v, %v)", d, p.RestLength, p.RestLength+15)
		}
	})
}

func TestDanglingEdge(t *testing.T) {
	m := graph.Build(
		[]graph.Node{{ID: "a"}, {ID: "b"}},
		[]graph.Edge{
			{Source: "a", Target: "b"},
			{Source: "a", Target: "missing"},
		},
	)
	e := New(m, DefaultParams(), 1)

	if e.EdgeCount() != 1 {
		t.Errorf("springs = %d, want 1", e.EdgeCount())
	}
	if e.Dropped() != 1 {
		t.Errorf("dropped = %d, want 1", e.Dropped())
	}
	if l := e.Layout(); l.Dropped != 1 {
		t.Errorf("layout dropped = %d, want 1", l.Dropped)
	}
	e.Run(100)
	assertFinite(t, e)
}

func TestEmptyGraph(t *testing.T) {
	e := New(graph.Build(nil, nil), DefaultParams(), 1)

	e.Step()
	if n := e.Run(10); n != 0 {
		t.Errorf("Run on empty engine = %d ticks, want 0", n)
	}
	if e.Ticks() != 0 {
		t.Errorf("ticks = %d, want 0", e.Ticks())
	}
	if pos := e.Positions(); pos == nil || len(pos) != 0 {
		t.Errorf("Positions() = %v, want empty non-nil", pos)
	}
	if e.KineticEnergy() != 0 {
		t.Errorf("energy = %v, want 0", e.KineticEnergy())
	}
}

func TestZeroEngineIsInert(t *testing.T) {
	var e Engine
	e.Step()
	e.Stop()
	if e.State() != StateUninitialized {
		t.Errorf("state = %v, want uninitialized", e.State())
	}
	if len(e.Positions()) != 0 {
		t.Error("zero engine should have no positions")
	}
}

func TestStop(t *testing.T) {
	e := New(sampleModel(), DefaultParams(), 1)
	e.Run(10)
	e.Stop()

	before := e.Positions()
	e.Step()
	if n := e.Run(10); n != 0 {
		t.Errorf("Run after Stop = %d ticks, want 0", n)
	}
	after := e.Positions()

	if e.State() != StateStopped {
		t.Errorf("state = %v, want stopped", e.State())
	}
	if e.Ticks() != 10 {
		t.Errorf("ticks = %d, want 10", e.Ticks())
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("%s moved after Stop", before[i].ID)
		}
	}
}

func TestPositionsAreCopies(t *testing.T) {
	e := New(sampleModel(), DefaultParams(), 1)
	pos := e.Positions()
	pos[0].X = 1e9

	if e.Positions()[0].X == 1e9 {
		t.Error("mutating Positions() leaked into the engine")
	}
}

func TestPlace(t *testing.T) {
	e := New(sampleModel(), DefaultParams(), 1)

	tests := []struct {
		name string
		id   string
		x, y float64
		want bool
	}{
		{"known", "p1", 10, 20, true},
		{"unknown", "nope", 10, 20, false},
		{"nan", "p1", math.NaN(), 0, false},
		{"inf", "p1", 0, math.Inf(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Place(tt.id, tt.x, tt.y); got != tt.want {
				t.Errorf("Place() = %v, want %v", got, tt.want)
			}
		})
	}

	p := e.Positions()[0]
	if p.X != 10 || p.Y != 20 {
		t.Errorf("p1 = (%v, %v), want (10, 20)", p.X, p.Y)
	}
}

func TestCoincidentNodesSeparate(t *testing.T) {
	m := graph.Build([]graph.Node{{ID: "a"}, {ID: "b"}}, nil)
	e := New(m, DefaultParams(), 1)
	e.Place("a", 400, 300)
	e.Place("b", 400, 300)
	e.Run(200)

	pos := e.Positions()
	if d := dist(pos[0], pos[1]); d < pos[0].Radius+pos[1].Radius {
		t.Errorf("coincident nodes still overlap: distance %.2f", d)
	}
}

func TestFiniteUnderExtremeParams(t *testing.T) {
	p := DefaultParams()
	p.Repulsion = math.MaxFloat64
	p.SpringK = 1e300
	p.CenterPull = 1e300

	e := New(sampleModel(), p, 1)
	e.Place("p1", 1e307, -1e307)
	e.Place("r1", -1e307, 1e307)
	e.Place("r2", 400, 300)
	e.Place("q1", 400, 300)

	for range 50 {
		e.Step()
		assertFinite(t, e)
	}
	if ke := e.KineticEnergy(); math.IsNaN(ke) {
		t.Error("energy is NaN")
	}
}

func TestRunContextCancelled(t *testing.T) {
	e := New(sampleModel(), DefaultParams(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := e.RunContext(ctx, 100)
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if n != 0 {
		t.Errorf("ran %d ticks after cancel, want 0", n)
	}
}

func TestLayoutCapturesRun(t *testing.T) {
	m := sampleModel()
	e := New(m, DefaultParams(), 5)
	e.Run(20)

	l := e.Layout()
	if l.Seed != 5 || l.Ticks != 20 {
		t.Errorf("seed/ticks = %d/%d, want 5/20", l.Seed, l.Ticks)
	}
	if len(l.Nodes) != m.NodeCount() || len(l.Edges) != m.EdgeCount() {
		t.Errorf("layout has %d nodes/%d edges, want %d/%d", len(l.Nodes), len(l.Edges), m.NodeCount(), m.EdgeCount())
	}
	if l.Transform != graph.Identity {
		t.Errorf("transform = %+v, want identity", l.Transform)
	}
}

func assertFinite(t *testing.T, e *Engine) {
	t.Helper()
	for i, b := range e.Bodies() {
		for _, v := range []float64{b.X, b.Y, b.VX, b.VY} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("body %d not finite: %+v", i, b)
			}
		}
	}
}
