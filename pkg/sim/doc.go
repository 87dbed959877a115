// Package sim implements the force-directed simulation behind intelgraph.
//
// An [Engine] is seeded from a [graph.Model] and advanced one tick at a time
// with [Engine.Step]. Each tick applies, in order:
//
//  1. pairwise repulsion (velocity) and hard collision separation (position)
//  2. spring attraction along edges toward [Params.RestLength]
//  3. a weak pull toward the frame centre
//  4. velocity damping, then integration
//
// Seeding is driven by an explicit PCG seed, so the same model, parameters
// and seed reproduce a run exactly:
//
//	e := sim.New(model, sim.DefaultParams(), 42)
//	e.Run(300)
//	for _, p := range e.Positions() {
//	    fmt.Println(p.ID, p.X, p.Y)
//	}
//
// Engines never fail. Contributions that would make a coordinate or
// velocity non-finite are discarded, so every body stays finite after
// every tick.
//
// An Engine is not safe for concurrent use. [Host] owns an engine on a
// ticker goroutine and publishes copied [Snapshot] values for readers.
package sim
