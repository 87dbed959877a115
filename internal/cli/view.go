package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/intelgraph/pkg/config"
	"github.com/matzehuels/intelgraph/pkg/graph"
)

// viewCommand creates the interactive terminal viewer command.
func (c *CLI) viewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [graph.json]",
		Short: "Watch the simulation in the terminal",
		Long: `Watch the simulation settle in the terminal and explore the graph.

Nodes are coloured by type. Hover a node with the mouse (or cycle with tab)
to see its type, confidence and notes; click or press enter to select it.
Scroll or press +/- to zoom, drag or use the arrow keys to pan, f fits the
graph to the window and 0 resets the view. p pauses the simulation and r
restarts it with the next seed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), args[0])
		},
	}

	d := config.Default()
	cmd.Flags().Int("fps", d.FPS, "simulation ticks per second")
	cmd.Flags().Uint64("seed", d.Seed, "random seed for initial placement")
	cmd.Flags().Float64("width", d.Width, "frame width")
	cmd.Flags().Float64("height", d.Height, "frame height")

	return cmd
}

func (c *CLI) runView(ctx context.Context, input string) error {
	cfg := c.settings()
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return err
	}
	params, err := cfg.SimParams()
	if err != nil {
		return err
	}

	m := graph.BuildGraph(g)
	c.Logger.Debug("starting viewer", "nodes", m.NodeCount(), "edges", m.EdgeCount(), "fps", cfg.FPS)

	p := tea.NewProgram(newViewer(m, params, cfg.Seed, cfg.FPS),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}
