package graph

// Model is the normalized node/edge set a simulation runs on.
//
// Every edge in a Model references nodes that exist in it, and node IDs are
// unique. Build is the only constructor that guarantees this.
type Model struct {
	Nodes   []Node
	Edges   []Edge
	Dropped int // edges removed because an endpoint was missing
}

// Build normalizes raw nodes and edges into a Model.
//
// Duplicate node IDs collapse to one node: the last occurrence provides the
// content, the first occurrence keeps its slot so ordering stays stable.
// Edges whose source or target is absent are dropped and counted. Confidence
// is clamped to [0, 100]. Empty input yields an empty Model.
func Build(nodes []Node, edges []Edge) Model {
	m := Model{
		Nodes: make([]Node, 0, len(nodes)),
		Edges: make([]Edge, 0, len(edges)),
	}

	slot := make(map[string]int, len(nodes))
	for _, n := range nodes {
		n.Confidence = clampConfidence(n.Confidence)
		if n.Type == "" {
			n.Type = TypeOther
		}
		if i, ok := slot[n.ID]; ok {
			m.Nodes[i] = n
			continue
		}
		slot[n.ID] = len(m.Nodes)
		m.Nodes = append(m.Nodes, n)
	}

	for _, e := range edges {
		_, okS := slot[e.Source]
		_, okT := slot[e.Target]
		if !okS || !okT {
			m.Dropped++
			continue
		}
		m.Edges = append(m.Edges, e)
	}

	return m
}

// BuildGraph is Build applied to a decoded Graph.
func BuildGraph(g Graph) Model {
	return Build(g.Nodes, g.Edges)
}

// Index returns a map from node ID to its position in m.Nodes.
func (m Model) Index() map[string]int {
	idx := make(map[string]int, len(m.Nodes))
	for i, n := range m.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// Node returns the node with the given ID.
func (m Model) Node(id string) (Node, bool) {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodeCount returns the number of nodes.
func (m Model) NodeCount() int { return len(m.Nodes) }

// EdgeCount returns the number of valid edges.
func (m Model) EdgeCount() int { return len(m.Edges) }

// IsEmpty reports whether the model has no nodes.
func (m Model) IsEmpty() bool { return len(m.Nodes) == 0 }

// Graph converts the model back to its serialization form.
func (m Model) Graph() Graph {
	return Graph{
		Nodes: append([]Node(nil), m.Nodes...),
		Edges: append([]Edge(nil), m.Edges...),
	}
}

// TypeCounts tallies nodes per type.
func (m Model) TypeCounts() map[NodeType]int {
	counts := make(map[NodeType]int)
	for _, n := range m.Nodes {
		counts[n.Type]++
	}
	return counts
}

func clampConfidence(c int) int {
	return max(0, min(c, 100))
}
