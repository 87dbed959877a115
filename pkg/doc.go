// Package pkg provides the core libraries for intelgraph.
//
// # Overview
//
// intelgraph places the nodes of a typed intelligence graph with a
// force-directed simulation and shows the result. The pkg directory is
// organized by concern:
//
//  1. [graph] - Input and layout types, normalization, components
//  2. [sim] - The force engine and the ticking host that owns it
//  3. [viewport] - Pan, zoom, focus and hit testing
//  4. [render] - SVG, DOT and Graphviz output
//  5. [pipeline] - Orchestration (load → simulate → render) with caching
//  6. [server] - HTTP API over a live simulation
//
// Supporting packages: [cache], [config], [errors], [observability] and
// [buildinfo].
//
// # Architecture
//
//	graph.json
//	     ↓
//	[graph] package (deduplicate, drop dangling edges)
//	     ↓
//	[sim] package (springs, repulsion, collisions, centring)
//	     ↓
//	[graph.Layout] (positions + viewport transform)
//	     ↓
//	[render] package → SVG / DOT / Graphviz SVG / JSON
//
// # Quick Start
//
//	g, err := graph.ReadGraphFile("graph.json")
//	if err != nil {
//	    return err
//	}
//	m := graph.BuildGraph(g)
//
//	e := sim.New(m, sim.DefaultParams(), 42)
//	e.Run(300)
//	l := e.Layout()
//
//	svg := render.RenderSVG(l, render.WithFit(40), render.WithNodes(m.Nodes))
//
// The [pipeline.Runner] wraps the same steps with content-addressed caching.
package pkg
