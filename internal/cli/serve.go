package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/intelgraph/pkg/config"
	"github.com/matzehuels/intelgraph/pkg/errors"
	"github.com/matzehuels/intelgraph/pkg/graph"
	"github.com/matzehuels/intelgraph/pkg/server"
	"github.com/matzehuels/intelgraph/pkg/sim"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var maxTicks int

	cmd := &cobra.Command{
		Use:   "serve [graph.json]",
		Short: "Run the simulation behind an HTTP API",
		Long: `Run the simulation continuously and expose it over HTTP.

The engine ticks at --fps in the background. Clients poll
GET /api/positions for the latest frame, drive the shared viewport with
POST /api/zoom, /api/drag/*, /api/hover and /api/select, and can upload a
new graph with PUT /api/graph. GET /api/render.svg returns the current
frame as SVG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], maxTicks)
		},
	}

	d := config.Default()
	cmd.Flags().String("addr", d.Server.Addr, "listen address")
	cmd.Flags().Int("fps", d.FPS, "simulation ticks per second")
	cmd.Flags().Uint64("seed", d.Seed, "random seed for initial placement")
	cmd.Flags().Float64("width", d.Width, "frame width")
	cmd.Flags().Float64("height", d.Height, "frame height")
	cmd.Flags().IntVar(&maxTicks, "max-ticks", 0, "stop each run after this many ticks (0 runs until shutdown)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, input string, maxTicks int) error {
	cfg := c.settings()
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return err
	}
	if maxTicks < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max-ticks must not be negative, got %d", maxTicks)
	}
	params, err := cfg.SimParams()
	if err != nil {
		return err
	}

	m := graph.BuildGraph(g)
	host := sim.NewHost(sim.New(m, params, cfg.Seed),
		sim.WithInterval(time.Second/time.Duration(cfg.FPS)),
		sim.WithMaxTicks(maxTicks),
		sim.WithLogger(c.Logger),
	)
	srv := server.New(host, m,
		server.WithLogger(c.Logger),
		server.WithParams(params),
		server.WithSeed(cfg.Seed),
	)

	printSuccess("Serving %s", input)
	printStats(m.NodeCount(), m.EdgeCount(), m.Dropped, false)
	printDetail("http://%s/api/positions", displayAddr(cfg.Server.Addr))

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return host.Run(gctx) })
	grp.Go(func() error { return srv.ListenAndServe(gctx, cfg.Server.Addr) })

	err = grp.Wait()
	if ctx.Err() != nil {
		c.Logger.Info("server stopped")
		return nil
	}
	return fmt.Errorf("serve: %w", err)
}

// displayAddr makes ":8080" clickable.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
