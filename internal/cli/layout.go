package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/intelgraph/pkg/errors"
	"github.com/matzehuels/intelgraph/pkg/graph"
	"github.com/matzehuels/intelgraph/pkg/pipeline"
)

// layoutCommand creates the layout command for headless simulation runs.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Run the simulation headless and write the layout",
		Long: `Run the force simulation headless and write the resulting layout.

The layout command reads a graph.json file, runs the simulation for --ticks
ticks (or until the motion settles below --settle) and writes a layout.json
file with every node's position, the seed and the run statistics. Render it
with 'intelgraph render <graph>.layout.json'.

Results are cached; the same graph, seed and parameters reuse the stored
layout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, noCache, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")
	addRunFlags(cmd)

	return cmd
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input, output string, noCache, refresh bool) error {
	in, err := pipeline.Load(input)
	if err != nil {
		return err
	}
	if in.IsLayout() {
		return errors.New(errors.ErrCodeInvalidInput, "%s is already a layout; use 'intelgraph render'", input)
	}

	m := graph.BuildGraph(*in.Graph)
	if m.Dropped > 0 {
		printWarning("Dropped %d edges with missing endpoints", m.Dropped)
	}

	opts, err := c.pipelineOptions()
	if err != nil {
		return err
	}
	opts.Refresh = refresh

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Simulating %d nodes...", m.NodeCount()))
	spinner.Start()
	prog := newProgress(c.Logger)

	l, cacheHit, err := runner.LayoutWithCacheInfo(ctx, m, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	prog.done("computed layout", "run", l.RunID, "ticks", l.Ticks, "energy", l.Energy, "cached", cacheHit)

	outputPath := output
	if outputPath == "" {
		outputPath = artifactPath(basePath("", input), pipeline.FormatJSON)
	}
	if err := graph.WriteLayoutFile(l, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(m.NodeCount(), m.EdgeCount(), l.Dropped, cacheHit)
	printNewline()
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}
