package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/intelgraph/pkg/graph"
	"github.com/matzehuels/intelgraph/pkg/viewport"
)

const nodeInteractionCSS = `
    .node { transition: opacity 0.3s ease; cursor: pointer; }
    .graph.hovering .node { opacity: 0.3; }
    .graph.hovering .node.hover { opacity: 1; }
    .node-label { font: bold 9px sans-serif; letter-spacing: 0.1em; text-transform: uppercase; pointer-events: none; }`

const nodeInteractionJS = `
    const root = document.querySelector('.graph');
    document.querySelectorAll('.node').forEach(el => {
      el.addEventListener('mouseenter', () => { root.classList.add('hovering'); el.classList.add('hover'); });
      el.addEventListener('mouseleave', () => { root.classList.remove('hovering'); el.classList.remove('hover'); });
    });`

// SVGOption configures RenderSVG.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	transform   graph.Transform
	fit         bool
	padding     float64
	hovered     viewport.Focus
	selected    viewport.Focus
	nodes       map[string]graph.Node
	interactive bool
}

// WithTransform draws the graph under t instead of the layout's transform.
func WithTransform(t graph.Transform) SVGOption {
	return func(r *svgRenderer) { r.transform = t; r.fit = false }
}

// WithFit scales and centres the graph to fill the frame.
func WithFit(padding float64) SVGOption {
	return func(r *svgRenderer) { r.fit = true; r.padding = padding }
}

// WithFocus highlights the hovered and selected nodes.
func WithFocus(hovered, selected viewport.Focus) SVGOption {
	return func(r *svgRenderer) { r.hovered = hovered; r.selected = selected }
}

// WithNodes attaches node details, enabling tooltips.
func WithNodes(nodes []graph.Node) SVGOption {
	return func(r *svgRenderer) {
		r.nodes = make(map[string]graph.Node, len(nodes))
		for _, n := range nodes {
			r.nodes[n.ID] = n
		}
	}
}

// WithInteraction embeds CSS and script for hover dimming in browsers.
func WithInteraction() SVGOption { return func(r *svgRenderer) { r.interactive = true } }

// RenderSVG draws a layout as a standalone SVG document sized to the
// layout frame.
func RenderSVG(l graph.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{transform: l.Transform}
	for _, opt := range opts {
		opt(&r)
	}
	if r.transform.Zoom == 0 {
		r.transform = graph.Identity
	}
	if r.fit {
		r.transform = viewport.Fit(l.Nodes, l.Width, l.Height, r.padding)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		l.Width, l.Height, l.Width, l.Height)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", ColorBackground)

	t := r.transform
	fmt.Fprintf(&buf, `  <g class="graph" transform="translate(%.2f, %.2f) scale(%.4f)">`+"\n", t.PanX, t.PanY, t.Zoom)
	renderEdges(&buf, l)
	for _, p := range l.Nodes {
		r.renderNode(&buf, p)
	}
	buf.WriteString("  </g>\n")

	if r.interactive {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", nodeInteractionCSS)
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", nodeInteractionJS)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderEdges(buf *bytes.Buffer, l graph.Layout) {
	index := make(map[string]graph.Position, len(l.Nodes))
	for _, p := range l.Nodes {
		index[p.ID] = p
	}
	for _, e := range l.Edges {
		s, okS := index[e.Source]
		t, okT := index[e.Target]
		if !okS || !okT {
			continue
		}
		fmt.Fprintf(buf, `    <line class="edge" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1.5" stroke-opacity="0.4"/>`+"\n",
			s.X, s.Y, t.X, t.Y, ColorEdge)
	}
}

func (r *svgRenderer) renderNode(buf *bytes.Buffer, p graph.Position) {
	color := Color(p.Type)
	selected := r.selected.Is(p.ID)

	classes := []string{"node"}
	if r.hovered.Is(p.ID) {
		classes = append(classes, "hover")
	}
	if selected {
		classes = append(classes, "selected")
	}
	opacity := 1.0
	if r.hovered.IsSome() && !r.hovered.Is(p.ID) {
		opacity = 0.3
	}

	fmt.Fprintf(buf, `    <g id="node-%s" class="%s" transform="translate(%.2f, %.2f)" opacity="%.1f">`+"\n",
		EscapeXML(p.ID), strings.Join(classes, " "), p.X, p.Y, opacity)

	if n, ok := r.nodes[p.ID]; ok {
		tip := NewTooltip(n)
		text := tip.Header() + "\n" + tip.Label
		if tip.Note != "" {
			text += "\n" + tip.Note
		}
		fmt.Fprintf(buf, "      <title>%s</title>\n", EscapeXML(text))
	}
	if r.hovered.Is(p.ID) {
		fmt.Fprintf(buf, `      <circle r="%.1f" fill="%s" fill-opacity="0.05"/>`+"\n", p.Radius*2, color)
	}

	stroke, core := 2, 0.8
	if selected {
		stroke, core = 4, 1.0
	}
	fmt.Fprintf(buf, `      <circle r="%.1f" fill="%s" fill-opacity="0.1" stroke="%s" stroke-opacity="0.2"/>`+"\n", p.Radius*1.4, color, color)
	fmt.Fprintf(buf, `      <circle r="%.1f" fill="%s" stroke="%s" stroke-width="%d"/>`+"\n", p.Radius, ColorBackground, color, stroke)
	fmt.Fprintf(buf, `      <circle r="%.1f" fill="%s" fill-opacity="%.1f"/>`+"\n", p.Radius*0.4, color, core)

	label := p.Label
	if label == "" {
		label = p.ID
	}
	fmt.Fprintf(buf, `      <text class="node-label" dy="%.1f" text-anchor="middle" fill="%s">%s</text>`+"\n",
		p.Radius+18, ColorLabel, EscapeXML(TruncateLabel(label)))
	buf.WriteString("    </g>\n")
}
