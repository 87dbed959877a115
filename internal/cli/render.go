package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/intelgraph/pkg/errors"
	"github.com/matzehuels/intelgraph/pkg/pipeline"
)

// stdoutPath selects standard output for a single artifact.
const stdoutPath = "-"

// renderCommand creates the render command for generating artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
		refresh    bool
		fit        bool
		detailed   bool
		interact   bool
	)

	cmd := &cobra.Command{
		Use:   "render [graph.json|layout.json]",
		Short: "Render a graph or a computed layout",
		Long: `Render a graph or a computed layout to SVG, DOT, Graphviz SVG or layout JSON.

Given a graph.json, the simulation runs first (see 'intelgraph layout');
given a layout.json, the stored positions are drawn as they are. Several
formats can be requested at once:

  intelgraph render graph.json -f svg,dot,graphviz

Files are named after the input (graph.svg, graph.dot, graph.graphviz.svg,
graph.layout.json) or after -o. Use -o - to write a single format to
standard output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			if output == stdoutPath && len(formats) != 1 {
				return errors.New(errors.ErrCodeInvalidInput, "-o - needs exactly one format, got %d", len(formats))
			}

			opts, err := c.pipelineOptions()
			if err != nil {
				return err
			}
			opts.Formats = formats
			opts.Fit = fit
			opts.Detailed = detailed
			opts.Interactive = interact
			opts.Refresh = refresh

			return c.runRender(cmd.Context(), args[0], output, noCache, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format), base path (multiple) or - for stdout")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, graphviz (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")
	cmd.Flags().BoolVar(&fit, "fit", true, "scale and centre the graph to fill the frame (svg)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "add type and confidence to node labels (dot, graphviz)")
	cmd.Flags().BoolVar(&interact, "interactive", false, "embed hover dimming script (svg)")
	addRunFlags(cmd)

	return cmd
}

// runRender loads the input, lays it out if needed and writes every artifact.
func (c *CLI) runRender(ctx context.Context, input, output string, noCache bool, opts pipeline.Options) error {
	in, err := pipeline.Load(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	var (
		artifacts map[string][]byte
		cacheHit  bool
		nodes     int
		edges     int
		dropped   int
	)
	if in.IsLayout() {
		l := *in.Layout
		artifacts, cacheHit, err = runner.RenderWithCacheInfo(ctx, l, nil, opts)
		nodes, edges, dropped = len(l.Nodes), len(l.Edges), l.Dropped
	} else {
		spinner.SetMessage("Simulating and rendering...")
		var res *pipeline.Result
		res, err = runner.Execute(ctx, *in.Graph, opts)
		if err == nil {
			artifacts, cacheHit = res.Artifacts, res.CacheInfo.LayoutHit && res.CacheInfo.RenderHit
			nodes, edges, dropped = res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.Dropped
		}
	}
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render %s: %w", input, err)
	}
	spinner.Stop()

	return writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
		nodes:     nodes,
		edges:     edges,
		dropped:   dropped,
		cacheHit:  cacheHit,
	})
}

// artifactWriteParams describes one batch of rendered artifacts.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
	nodes     int
	edges     int
	dropped   int
	cacheHit  bool
}

// writeArtifacts writes each format to its own file, or the single format to
// standard output when output is "-".
func writeArtifacts(p artifactWriteParams) error {
	if p.output == stdoutPath {
		return writeTo(os.Stdout, p.artifacts[p.formats[0]])
	}

	base := basePath(p.output, p.input)
	var paths []string
	for _, f := range p.formats {
		path := artifactPath(base, f)
		if len(p.formats) == 1 && p.output != "" {
			path = p.output
		}
		if filepath.Clean(path) == filepath.Clean(p.input) {
			return errors.New(errors.ErrCodeInvalidPath, "%s output would overwrite the input %s; pass -o", f, p.input)
		}
		if err := os.WriteFile(path, p.artifacts[f], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	printSuccess("Render complete")
	for _, path := range paths {
		printFile(path)
	}
	printStats(p.nodes, p.edges, p.dropped, p.cacheHit)
	return nil
}

func writeTo(w io.Writer, data []byte) error {
	_, err := w.Write(data)
	return err
}
