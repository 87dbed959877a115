package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/intelgraph/pkg/graph"
	"github.com/matzehuels/intelgraph/pkg/pipeline"
	"github.com/matzehuels/intelgraph/pkg/render"
)

// statsCommand creates the stats command for inspecting a graph.
func (c *CLI) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [graph.json]",
		Short: "Show node, edge and component counts for a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := pipeline.Load(args[0])
			if err != nil {
				return err
			}
			if in.IsLayout() {
				printLayoutStats(*in.Layout)
				return nil
			}
			m := graph.BuildGraph(*in.Graph)
			fmt.Fprintln(cmd.OutOrStdout(), graphStats(m))
			return nil
		},
	}
}

// graphStats renders the summary and per-type table for m.
func graphStats(m graph.Model) string {
	components := m.Components()
	largest := 0
	for _, comp := range components {
		largest = max(largest, len(comp))
	}

	summary := lipgloss.JoinVertical(lipgloss.Left,
		StyleTitle.Render("Graph"),
		statRow("nodes", m.NodeCount()),
		statRow("edges", m.EdgeCount()),
		statRow("dropped", m.Dropped),
		statRow("components", len(components)),
		statRow("largest", largest),
	)

	counts := m.TypeCounts()
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Type", "Nodes", "Colour").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, typ := range graph.Types {
		n := counts[typ]
		if n == 0 {
			continue
		}
		t.Row(typeStyle(typ).Render(string(typ)), strconv.Itoa(n), render.Color(typ))
	}

	return summary + "\n\n" + t.Render()
}

func statRow(key string, v int) string {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	return keyStyle.Render(key) + " " + StyleNumber.Render(strconv.Itoa(v))
}

func printLayoutStats(l graph.Layout) {
	printKeyValue("run", l.RunID)
	printKeyValue("seed", strconv.FormatUint(l.Seed, 10))
	printKeyValue("ticks", strconv.Itoa(l.Ticks))
	printKeyValue("energy", strconv.FormatFloat(l.Energy, 'g', 4, 64))
	printKeyValue("nodes", strconv.Itoa(len(l.Nodes)))
	printKeyValue("edges", strconv.Itoa(len(l.Edges)))
	printKeyValue("dropped", strconv.Itoa(l.Dropped))
}
