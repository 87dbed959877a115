package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/intelgraph/pkg/graph"
)

// pointsPerInch is Graphviz's unit for pinned positions.
const pointsPerInch = 72

// DOTOptions configures DOT export.
type DOTOptions struct {
	// Detailed adds type and confidence lines to node labels.
	Detailed bool
	// Nodes supplies confidence for detailed labels; optional.
	Nodes []graph.Node
}

// ToDOT converts a layout to Graphviz DOT with every node pinned at its
// simulated position, so neato reproduces the layout instead of computing
// its own. World y grows downward; DOT y grows upward, so y is flipped
// within the frame.
func ToDOT(l graph.Layout, opts DOTOptions) string {
	details := make(map[string]graph.Node, len(opts.Nodes))
	for _, n := range opts.Nodes {
		details[n.ID] = n
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", ColorBackground)
	fmt.Fprintf(&buf, "  inputscale=%d;\n", pointsPerInch)
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, fillcolor=%q, fontcolor=%q, fontsize=9, fixedsize=true];\n",
		ColorBackground, ColorLabel)
	fmt.Fprintf(&buf, "  edge [color=%q, penwidth=1.5];\n", ColorEdge+"66")
	buf.WriteString("\n")

	for _, p := range l.Nodes {
		label := fmtLabel(p, details, opts.Detailed)
		attrs := []string{
			fmt.Sprintf("label=%q", label),
			fmt.Sprintf("pos=\"%.2f,%.2f!\"", p.X, l.Height-p.Y),
			fmt.Sprintf("width=%.3f", 2*p.Radius/pointsPerInch),
			fmt.Sprintf("color=%q", Color(p.Type)),
			"penwidth=2",
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", p.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		if e.Relation != "" {
			fmt.Fprintf(&buf, "  %q -- %q [tooltip=%q];\n", e.Source, e.Target, e.Relation)
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(p graph.Position, details map[string]graph.Node, detailed bool) string {
	label := p.Label
	if label == "" {
		label = p.ID
	}
	label = TruncateLabel(label)
	if !detailed {
		return label
	}

	parts := []string{label, string(p.Type)}
	if n, ok := details[p.ID]; ok {
		parts = append(parts, fmt.Sprintf("%d%%", n.Confidence))
	}
	return strings.Join(parts, "\n")
}

// RenderGraphviz renders DOT produced by ToDOT to SVG with Graphviz's neato
// engine, honouring the pinned positions.
func RenderGraphviz(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	gv.SetLayout(graphviz.NEATO)

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a plain
// pixel-sized one so the SVG scales like RenderSVG output.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
