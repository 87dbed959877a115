package graph

import (
	"encoding/json"
	"strings"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// NodeType classifies an entity in the intelligence graph.
type NodeType string

// Node types. Anything unrecognised is treated as TypeOther.
const (
	TypeProject     NodeType = "PROJECT"
	TypeRisk        NodeType = "RISK"
	TypeRequirement NodeType = "REQUIREMENT"
	TypeStakeholder NodeType = "STAKEHOLDER"
	TypeAuditScore  NodeType = "AUDIT_SCORE"
	TypeOther       NodeType = "OTHER"
)

// Node radii in world units, keyed by type.
const (
	RadiusProject = 30.0
	RadiusRisk    = 22.0
	RadiusDefault = 16.0
)

// Types lists every known node type in display order.
var Types = []NodeType{TypeProject, TypeRisk, TypeRequirement, TypeStakeholder, TypeAuditScore, TypeOther}

// ParseNodeType maps a string to a NodeType, case-insensitively.
// Unknown or empty values map to TypeOther.
func ParseNodeType(s string) NodeType {
	t := NodeType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TypeProject, TypeRisk, TypeRequirement, TypeStakeholder, TypeAuditScore:
		return t
	default:
		return TypeOther
	}
}

// Radius returns the collision and display radius for the type.
func (t NodeType) Radius() float64 {
	switch t {
	case TypeProject:
		return RadiusProject
	case TypeRisk:
		return RadiusRisk
	default:
		return RadiusDefault
	}
}

// UnmarshalJSON normalises the type while decoding.
func (t *NodeType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseNodeType(s)
	return nil
}

// =============================================================================
// Graph - Intelligence Graph Serialization
// =============================================================================

// Graph is the canonical serialization format for intelligence graphs.
//
//	{
//	  "nodes": [{"id": "p1", "label": "Core Banking", "type": "PROJECT", "confidence": 92}],
//	  "edges": [{"source": "p1", "target": "r1", "relation": "exposed_to"}]
//	}
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a labeled entity. Only ID and Type affect the simulation.
type Node struct {
	ID         string         `json:"id"`
	Label      string         `json:"label,omitempty"`
	Type       NodeType       `json:"type"`
	Confidence int            `json:"confidence"`
	Data       map[string]any `json:"data,omitempty"`
}

// Radius returns the radius derived from the node type.
func (n Node) Radius() float64 { return n.Type.Radius() }

// DisplayLabel returns the label if set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed relation between two node IDs.
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation,omitempty"`
}

// Position is a read-only snapshot of one node's placement.
// Engines hand these out as copies; mutating them has no effect on a run.
type Position struct {
	ID     string   `json:"id"`
	Label  string   `json:"label,omitempty"`
	Type   NodeType `json:"type"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Radius float64  `json:"radius"`
}
