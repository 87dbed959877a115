package graph

import (
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Components returns the connected components of the model, ignoring edge
// direction. Each component lists node IDs in model order; components are
// ordered by the position of their first node.
func (m Model) Components() [][]string {
	if len(m.Nodes) == 0 {
		return nil
	}

	idx := m.Index()
	g := simple.NewUndirectedGraph()
	for i := range m.Nodes {
		g.AddNode(simple.Node(int64(i)))
	}
	for _, e := range m.Edges {
		from, to := idx[e.Source], idx[e.Target]
		// simple graphs reject self loops, and they do not affect connectivity.
		if from == to {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(int64(from)), T: simple.Node(int64(to))})
	}

	var out [][]string
	for _, cc := range topo.ConnectedComponents(g) {
		slots := make([]int, len(cc))
		for i, n := range cc {
			slots[i] = int(n.ID())
		}
		slices.Sort(slots)

		ids := make([]string, len(slots))
		for i, s := range slots {
			ids[i] = m.Nodes[s].ID
		}
		out = append(out, ids)
	}

	first := func(c []string) int { return idx[c[0]] }
	slices.SortFunc(out, func(a, b []string) int { return first(a) - first(b) })
	return out
}

// IsConnected reports whether every node is reachable from every other node.
// Empty and single-node models are connected.
func (m Model) IsConnected() bool {
	return len(m.Components()) <= 1
}
