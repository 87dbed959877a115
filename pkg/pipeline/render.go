package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/intelgraph/pkg/graph"
	"github.com/matzehuels/intelgraph/pkg/render"
)

// Render generates artifacts for every requested format. nodes is optional
// and enables tooltips and detailed labels.
func Render(ctx context.Context, l graph.Layout, nodes []graph.Node, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = render.RenderSVG(l, svgOptions(nodes, opts)...)
		case FormatJSON:
			data, err = graph.MarshalLayout(l)
		case FormatDOT:
			data = []byte(render.ToDOT(l, dotOptions(nodes, opts)))
		case FormatGraphviz:
			data, err = render.RenderGraphviz(ctx, render.ToDOT(l, dotOptions(nodes, opts)))
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func svgOptions(nodes []graph.Node, opts Options) []render.SVGOption {
	var out []render.SVGOption
	if opts.Fit {
		out = append(out, render.WithFit(opts.Padding))
	}
	if len(nodes) > 0 {
		out = append(out, render.WithNodes(nodes))
	}
	if opts.Interactive {
		out = append(out, render.WithInteraction())
	}
	return out
}

func dotOptions(nodes []graph.Node, opts Options) render.DOTOptions {
	return render.DOTOptions{Detailed: opts.Detailed, Nodes: nodes}
}
