package graph_test

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/intelgraph/pkg/graph"
)

func ExampleBuild() {
	nodes := []graph.Node{
		{ID: "p1", Label: "Core Banking", Type: graph.TypeProject, Confidence: 92},
		{ID: "r1", Label: "Vendor lock-in", Type: graph.TypeRisk, Confidence: 40},
	}
	edges := []graph.Edge{
		{Source: "p1", Target: "r1", Relation: "exposed_to"},
		{Source: "p1", Target: "s9", Relation: "owned_by"},
	}

	m := graph.Build(nodes, edges)

	fmt.Println("Nodes:", m.NodeCount())
	fmt.Println("Edges:", m.EdgeCount())
	fmt.Println("Dropped:", m.Dropped)
	fmt.Println("Project radius:", m.Nodes[0].Radius())
	// Output:
	// Nodes: 2
	// Edges: 1
	// Dropped: 1
	// Project radius: 30
}

func ExampleReadGraph() {
	jsonData := `{
		"nodes": [
			{"id": "p1", "type": "PROJECT"},
			{"id": "q1", "type": "requirement", "label": "KYC"}
		],
		"edges": [
			{"source": "p1", "target": "q1", "relation": "requires"}
		]
	}`

	g, err := graph.ReadGraph(bytes.NewReader([]byte(jsonData)))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("Nodes:", len(g.Nodes))
	fmt.Println("Second type:", g.Nodes[1].Type)
	fmt.Println("Second label:", g.Nodes[1].DisplayLabel())
	// Output:
	// Nodes: 2
	// Second type: REQUIREMENT
	// Second label: KYC
}

func ExampleModel_Components() {
	m := graph.Build(
		[]graph.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		[]graph.Edge{{Source: "a", Target: "b"}},
	)

	for _, c := range m.Components() {
		fmt.Println(c)
	}
	// Output:
	// [a b]
	// [c]
}
