// Package render turns layouts into pictures.
//
// # Overview
//
// Renderers are pure consumers: they read a [graph.Layout] (positions,
// edges, viewport transform) and never touch a running simulation. Three
// outputs are supported:
//
//   - SVG: hand-written, styled like the interactive view ([RenderSVG])
//   - DOT: Graphviz source with pinned node positions ([ToDOT])
//   - Graphviz SVG: the DOT rendered by neato in-process ([RenderGraphviz])
//
// # SVG Output
//
//	svg := render.RenderSVG(layout,
//	    render.WithFit(40),
//	    render.WithFocus(viewport.None(), viewport.Some("p1")),
//	    render.WithNodes(model.Nodes),
//	    render.WithInteraction(),
//	)
//
// Nodes are drawn as a faint outer ring, a dark core with a type-coloured
// stroke (thicker when selected) and an inner dot. When a node is hovered,
// every other node is dimmed. Labels longer than [MaxLabel] characters are
// truncated.
//
// # Palette
//
//	PROJECT      #3B82F6
//	RISK         #EF4444
//	REQUIREMENT  #10B981
//	STAKEHOLDER  #8B5CF6
//	AUDIT_SCORE  #F59E0B
//	other        #64748B
//
// # Graphviz
//
// [ToDOT] pins every node with pos="x,y!" so neato keeps the simulated
// layout. [RenderGraphviz] uses [github.com/goccy/go-graphviz], which embeds
// Graphviz as WebAssembly; no system install is needed.
package render
