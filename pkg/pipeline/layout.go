package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/intelgraph/pkg/graph"
	"github.com/matzehuels/intelgraph/pkg/observability"
	"github.com/matzehuels/intelgraph/pkg/sim"
)

// ComputeLayout seeds an engine for m and runs it headless.
//
// With opts.Settle > 0 the run stops early once kinetic energy has stayed
// below the threshold for SettleWindow ticks; opts.Ticks is then an upper
// bound. Cancelling ctx aborts the run between ticks.
func ComputeLayout(ctx context.Context, m graph.Model, opts Options) (graph.Layout, error) {
	runID := uuid.NewString()
	e := sim.New(m, opts.Params, opts.Seed)
	observability.Sim().OnSeed(ctx, runID, e.Len(), e.EdgeCount())
	start := time.Now()

	var err error
	if opts.Settle > 0 {
		err = runSettled(ctx, e, opts.Settle, opts.Ticks)
	} else {
		_, err = e.RunContext(ctx, opts.Ticks)
	}
	if err != nil {
		return graph.Layout{}, fmt.Errorf("run %s: %w", runID, err)
	}
	e.Stop()

	l := e.Layout()
	l.RunID = runID
	observability.Sim().OnRunComplete(ctx, runID, l.Ticks, l.Energy, time.Since(start))
	return l, nil
}

func runSettled(ctx context.Context, e *sim.Engine, threshold float64, maxTicks int) error {
	mon := sim.NewEnergyMonitor(SettleWindow)
	for range maxTicks {
		n, err := e.RunContext(ctx, 1)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		mon.Observe(e.KineticEnergy())
		if mon.Settled(threshold) {
			return nil
		}
	}
	return nil
}
