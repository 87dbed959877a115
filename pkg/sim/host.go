package sim

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/intelgraph/pkg/graph"
	"github.com/matzehuels/intelgraph/pkg/observability"
)

// DefaultInterval is the host tick period (roughly one display frame).
const DefaultInterval = 16 * time.Millisecond

// Snapshot is an immutable copy of an engine's observable state, published
// after every tick.
type Snapshot struct {
	RunID     string           `json:"run_id"`
	State     string           `json:"state"`
	Ticks     int              `json:"ticks"`
	Energy    float64          `json:"energy"`
	Dropped   int              `json:"dropped_edges"`
	Positions []graph.Position `json:"positions"`
	Edges     []graph.Edge     `json:"edges"`
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithInterval sets the tick period. Non-positive values are ignored.
func WithInterval(d time.Duration) HostOption {
	return func(h *Host) {
		if d > 0 {
			h.interval = d
		}
	}
}

// WithMaxTicks stops each engine after n ticks. Zero runs until stopped.
func WithMaxTicks(n int) HostOption {
	return func(h *Host) { h.maxTicks = max(n, 0) }
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *log.Logger) HostOption {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// Host drives an Engine from a single goroutine at a fixed rate and lets
// any number of goroutines read the latest Snapshot.
//
// Ticks never overlap: the engine is only touched while holding the engine
// lock. Readers never see a half-applied tick because snapshots are built
// as copies and swapped in whole.
type Host struct {
	interval time.Duration
	maxTicks int
	logger   *log.Logger

	engMu    sync.Mutex
	engine   *Engine
	runID    string
	started  time.Time
	reported bool

	mu   sync.RWMutex
	snap Snapshot
}

// NewHost wraps e. The host does not tick until Run is called.
func NewHost(e *Engine, opts ...HostOption) *Host {
	h := &Host{
		interval: DefaultInterval,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.engMu.Lock()
	h.install(context.Background(), e)
	h.engMu.Unlock()
	return h
}

// Run ticks the engine until ctx is cancelled.
func (h *Host) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Debug("host started", "interval", h.interval)
	for {
		select {
		case <-ctx.Done():
			h.engMu.Lock()
			h.complete(ctx)
			h.engMu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			h.TickContext(ctx)
		}
	}
}

// Tick advances the engine once and publishes a snapshot.
func (h *Host) Tick() {
	h.TickContext(context.Background())
}

// TickContext is Tick with a context for hooks.
func (h *Host) TickContext(ctx context.Context) {
	h.engMu.Lock()
	defer h.engMu.Unlock()

	e := h.engine
	if e.State() == StateStopped {
		return
	}
	e.Step()
	if h.maxTicks > 0 && e.Ticks() >= h.maxTicks {
		e.Stop()
		h.complete(ctx)
	}
	h.publish()
}

// Snapshot returns the latest published state. The returned slices are
// owned by the caller.
func (h *Host) Snapshot() Snapshot {
	h.mu.RLock()
	s := h.snap
	h.mu.RUnlock()

	s.Positions = append([]graph.Position(nil), s.Positions...)
	s.Edges = append([]graph.Edge(nil), s.Edges...)
	return s
}

// Replace discards the current engine and installs e under a new run ID,
// which it returns.
func (h *Host) Replace(ctx context.Context, e *Engine) string {
	h.engMu.Lock()
	defer h.engMu.Unlock()
	h.complete(ctx)
	h.install(ctx, e)
	return h.runID
}

// Do runs fn with exclusive access to the engine between ticks and
// publishes the result.
func (h *Host) Do(fn func(*Engine)) {
	h.engMu.Lock()
	defer h.engMu.Unlock()
	fn(h.engine)
	h.publish()
}

// Stop stops the current engine. The last snapshot stays readable.
func (h *Host) Stop(ctx context.Context) {
	h.engMu.Lock()
	defer h.engMu.Unlock()
	h.engine.Stop()
	h.complete(ctx)
	h.publish()
}

// RunID returns the ID of the current run.
func (h *Host) RunID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap.RunID
}

// install must be called with engMu held.
func (h *Host) install(ctx context.Context, e *Engine) {
	if e == nil {
		e = &Engine{}
	}
	h.engine = e
	h.runID = uuid.NewString()
	h.started = time.Now()
	h.reported = false

	h.logger.Debug("seeded engine", "run", h.runID, "nodes", e.Len(), "edges", e.EdgeCount(), "seed", e.Seed())
	if e.Dropped() > 0 {
		h.logger.Warn("dropped dangling edges", "run", h.runID, "count", e.Dropped())
	}
	observability.Sim().OnSeed(ctx, h.runID, e.Len(), e.EdgeCount())
	h.publish()
}

// complete must be called with engMu held; it reports each run once.
func (h *Host) complete(ctx context.Context) {
	if h.reported || h.engine == nil {
		return
	}
	h.reported = true
	e := h.engine
	elapsed := time.Since(h.started)
	h.logger.Debug("run complete", "run", h.runID, "ticks", e.Ticks(), "energy", e.KineticEnergy(), "elapsed", elapsed)
	observability.Sim().OnRunComplete(ctx, h.runID, e.Ticks(), e.KineticEnergy(), elapsed)
}

// publish must be called with engMu held.
func (h *Host) publish() {
	e := h.engine
	l := e.Layout()
	s := Snapshot{
		RunID:     h.runID,
		State:     e.State().String(),
		Ticks:     e.Ticks(),
		Energy:    l.Energy,
		Dropped:   e.Dropped(),
		Positions: l.Nodes,
		Edges:     l.Edges,
	}

	h.mu.Lock()
	h.snap = s
	h.mu.Unlock()
}
