// Package server exposes a running simulation over HTTP.
//
// A [sim.Host] ticks the engine in the background; handlers only read its
// snapshots or hand it short mutations via Host.Do. The viewport
// controller is shared by all clients and guarded by a mutex.
//
// # Routes
//
//	GET  /api/positions      latest snapshot
//	GET  /api/viewport       transform and focus
//	GET  /api/stats          run and model statistics
//	GET  /api/nodes/{id}     tooltip for one node
//	GET  /api/render.svg     current frame as SVG
//	POST /api/zoom           {"delta": 1, "x": 400, "y": 300} or {"step": 0.1}
//	POST /api/drag/start     {"x": 10, "y": 20}
//	POST /api/drag/move      {"x": 15, "y": 25}
//	POST /api/drag/end
//	POST /api/hover          {"id": "p1"}; "" clears
//	POST /api/select         {"id": "p1"}; toggles
//	POST /api/place          {"id": "p1", "x": 100, "y": 100}
//	POST /api/reset
//	PUT  /api/graph          graph JSON; rebuilds and reseeds
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/intelgraph/pkg/graph"
	"github.com/matzehuels/intelgraph/pkg/sim"
	"github.com/matzehuels/intelgraph/pkg/viewport"
)

// maxBodyBytes caps request bodies, graph uploads included.
const maxBodyBytes = 8 << 20

// Server serves one simulation.
type Server struct {
	host   *sim.Host
	params sim.Params
	seed   uint64
	logger *log.Logger
	router chi.Router

	mu    sync.Mutex
	vp    *viewport.Controller
	model graph.Model
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithParams sets the parameters used when a new graph is uploaded.
func WithParams(p sim.Params) Option { return func(s *Server) { s.params = p } }

// WithSeed sets the seed used when a new graph is uploaded.
func WithSeed(seed uint64) Option { return func(s *Server) { s.seed = seed } }

// New creates a server for host, whose engine was built from m.
func New(host *sim.Host, m graph.Model, opts ...Option) *Server {
	s := &Server{
		host:   host,
		params: sim.DefaultParams(),
		seed:   1,
		logger: log.Default(),
		vp:     viewport.New(),
		model:  m,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/positions", s.handlePositions)
		r.Get("/viewport", s.handleViewport)
		r.Get("/stats", s.handleStats)
		r.Get("/nodes/{id}", s.handleNode)
		r.Get("/render.svg", s.handleRenderSVG)

		r.Post("/zoom", s.handleZoom)
		r.Route("/drag", func(r chi.Router) {
			r.Post("/start", s.handleDragStart)
			r.Post("/move", s.handleDragMove)
			r.Post("/end", s.handleDragEnd)
		})
		r.Post("/hover", s.handleHover)
		r.Post("/select", s.handleSelect)
		r.Post("/place", s.handlePlace)
		r.Post("/reset", s.handleReset)

		r.Put("/graph", s.handleGraph)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}
