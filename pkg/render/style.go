package render

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/intelgraph/pkg/graph"
)

// Palette colours.
const (
	ColorProject     = "#3B82F6"
	ColorRisk        = "#EF4444"
	ColorRequirement = "#10B981"
	ColorStakeholder = "#8B5CF6"
	ColorAuditScore  = "#F59E0B"
	ColorDefault     = "#64748B"

	ColorBackground = "#0F172A"
	ColorEdge       = "#334155"
	ColorLabel      = "#CBD5E1"
	ColorPanel      = "#1E293B"
	ColorConfidence = "#34D399"
)

// Label limits: labels longer than MaxLabel runes are cut to TruncatedLabel
// runes plus "..".
const (
	MaxLabel       = 20
	TruncatedLabel = 18
)

// Color returns the palette colour for a node type.
func Color(t graph.NodeType) string {
	switch t {
	case graph.TypeProject:
		return ColorProject
	case graph.TypeRisk:
		return ColorRisk
	case graph.TypeRequirement:
		return ColorRequirement
	case graph.TypeStakeholder:
		return ColorStakeholder
	case graph.TypeAuditScore:
		return ColorAuditScore
	default:
		return ColorDefault
	}
}

// TruncateLabel shortens long labels for display under a node.
func TruncateLabel(s string) string {
	r := []rune(s)
	if len(r) <= MaxLabel {
		return s
	}
	return string(r[:TruncatedLabel]) + ".."
}

// Note returns the type-specific line shown in a node's tooltip, or "" when
// the type has none.
func Note(t graph.NodeType) string {
	switch t {
	case graph.TypeRisk:
		return "Impact level analyzed as high priority. Mitigation recommended in next phase."
	case graph.TypeRequirement:
		return "Criticality: Mandatory"
	case graph.TypeProject:
		return "Central entity for this strategic intelligence trace."
	default:
		return ""
	}
}

// Tooltip is the content of a node's detail panel.
type Tooltip struct {
	ID         string
	Label      string
	Type       graph.NodeType
	Confidence int
	Note       string
	Color      string
}

// NewTooltip builds the detail panel for n.
func NewTooltip(n graph.Node) Tooltip {
	return Tooltip{
		ID:         n.ID,
		Label:      n.DisplayLabel(),
		Type:       n.Type,
		Confidence: n.Confidence,
		Note:       Note(n.Type),
		Color:      Color(n.Type),
	}
}

// Header returns the first tooltip line, e.g. "RISK · 40% CONF".
func (t Tooltip) Header() string {
	return fmt.Sprintf("%s · %d%% CONF", t.Type, t.Confidence)
}

// EscapeXML escapes s for use in SVG text and attributes.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
