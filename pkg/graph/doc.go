// Package graph provides the intelligence graph model and its serialization.
//
// This is the leaf package of intelgraph: it validates and normalizes raw
// nodes and edges into the working set the simulation runs on, and defines
// the wire format shared by files, caches and the HTTP API.
//
// # Core Types
//
//   - [Node], [Edge], [Graph]: raw input as decoded from JSON
//   - [Model]: the normalized set produced by [Build]
//   - [Position]: a read-only placement snapshot handed out by engines
//   - [Layout]: a finished run (positions, seed, tick count, energy)
//   - [Transform]: the pan/zoom mapping from world to screen space
//
// # Normalization
//
// [Build] deduplicates nodes by ID (last occurrence wins), drops edges whose
// endpoints are missing and reports how many were dropped:
//
//	m := graph.Build(nodes, edges)
//	if m.Dropped > 0 {
//	    logger.Warn("dropped dangling edges", "count", m.Dropped)
//	}
//
// Node radius is never stored; it is derived from [NodeType] on demand:
//
//	PROJECT      30
//	RISK         22
//	everything   16
//
// # Graph Serialization
//
//	{
//	  "nodes": [{"id": "p1", "label": "Core Banking", "type": "PROJECT", "confidence": 92}],
//	  "edges": [{"source": "p1", "target": "r1", "relation": "exposed_to"}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("graph.json")
//	graph.WriteGraphFile(g, "copy.json")
//	l, _ := graph.ReadLayoutFile("graph.layout.json")
//
// # Concurrency
//
// All functions are safe for concurrent use; Model values are not mutated
// after Build returns.
package graph
