package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/intelgraph/pkg/errors"
	"github.com/matzehuels/intelgraph/pkg/graph"
	"github.com/matzehuels/intelgraph/pkg/render"
	"github.com/matzehuels/intelgraph/pkg/sim"
	"github.com/matzehuels/intelgraph/pkg/viewport"
)

// =============================================================================
// Responses
// =============================================================================

// ViewportResponse describes the shared viewport.
type ViewportResponse struct {
	Transform graph.Transform `json:"transform"`
	Hovered   string          `json:"hovered,omitempty"`
	Selected  string          `json:"selected,omitempty"`
	Active    string          `json:"active,omitempty"`
	Dragging  bool            `json:"dragging"`
}

// StatsResponse summarises the current run and model.
type StatsResponse struct {
	RunID      string                 `json:"run_id"`
	State      string                 `json:"state"`
	Ticks      int                    `json:"ticks"`
	Energy     float64                `json:"energy"`
	Nodes      int                    `json:"nodes"`
	Edges      int                    `json:"edges"`
	Dropped    int                    `json:"dropped_edges"`
	Components int                    `json:"components"`
	Types      map[graph.NodeType]int `json:"types"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

type pointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type zoomRequest struct {
	Delta float64  `json:"delta"`
	Step  float64  `json:"step"`
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
}

type focusRequest struct {
	ID string `json:"id"`
}

type placeRequest struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// =============================================================================
// Read Handlers
// =============================================================================

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.host.Snapshot())
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.viewportState())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.host.Snapshot()
	s.mu.Lock()
	m := s.model
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, StatsResponse{
		RunID:      snap.RunID,
		State:      snap.State,
		Ticks:      snap.Ticks,
		Energy:     snap.Energy,
		Nodes:      m.NodeCount(),
		Edges:      m.EdgeCount(),
		Dropped:    snap.Dropped,
		Components: len(m.Components()),
		Types:      m.TypeCounts(),
	})
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	n, ok := s.model.Node(id)
	s.mu.Unlock()
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "node %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, render.NewTooltip(n))
}

func (s *Server) handleRenderSVG(w http.ResponseWriter, r *http.Request) {
	snap := s.host.Snapshot()
	s.mu.Lock()
	t := s.vp.Transform()
	hovered, selected := s.vp.Hovered(), s.vp.Selected()
	nodes := s.model.Nodes
	s.mu.Unlock()

	l := graph.Layout{
		RunID:     snap.RunID,
		Width:     s.params.Width,
		Height:    s.params.Height,
		Ticks:     snap.Ticks,
		Energy:    snap.Energy,
		Nodes:     snap.Positions,
		Edges:     snap.Edges,
		Transform: t,
	}
	svg := render.RenderSVG(l, render.WithFocus(hovered, selected), render.WithNodes(nodes))

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// =============================================================================
// Viewport Handlers
// =============================================================================

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.updateViewport(w, func(vp *viewport.Controller) {
		switch {
		case req.Step != 0:
			vp.Nudge(req.Step)
		case req.X != nil && req.Y != nil:
			vp.ZoomAt(req.Delta, *req.X, *req.Y)
		default:
			vp.Zoom(req.Delta)
		}
	})
}

func (s *Server) handleDragStart(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.updateViewport(w, func(vp *viewport.Controller) { vp.DragStart(req.X, req.Y) })
}

func (s *Server) handleDragMove(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.updateViewport(w, func(vp *viewport.Controller) { vp.DragMove(req.X, req.Y) })
}

func (s *Server) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	s.updateViewport(w, func(vp *viewport.Controller) { vp.DragEnd() })
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var req focusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.updateViewport(w, func(vp *viewport.Controller) { vp.Hover(viewport.Some(req.ID)) })
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req focusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.updateViewport(w, func(vp *viewport.Controller) { vp.Select(req.ID) })
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.updateViewport(w, func(vp *viewport.Controller) { vp.Reset() })
}

// =============================================================================
// Simulation Handlers
// =============================================================================

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var ok bool
	s.host.Do(func(e *sim.Engine) { ok = e.Place(req.ID, req.X, req.Y) })
	if !ok {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "cannot place %q at (%g, %g)", req.ID, req.X, req.Y))
		return
	}
	writeJSON(w, http.StatusOK, s.host.Snapshot())
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	g, err := graph.ReadGraph(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, err)
		return
	}
	m := graph.BuildGraph(g)

	s.mu.Lock()
	s.model = m
	if id, ok := s.vp.Hovered().Get(); ok {
		if _, exists := m.Node(id); !exists {
			s.vp.Hover(viewport.None())
		}
	}
	if id, ok := s.vp.Selected().Get(); ok {
		if _, exists := m.Node(id); !exists {
			s.vp.ClearSelection()
		}
	}
	s.mu.Unlock()

	runID := s.host.Replace(r.Context(), sim.New(m, s.params, s.seed))
	s.logger.Info("graph replaced", "run", runID, "nodes", m.NodeCount(), "edges", m.EdgeCount(), "dropped", m.Dropped)
	s.handleStats(w, r)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) updateViewport(w http.ResponseWriter, fn func(*viewport.Controller)) {
	s.mu.Lock()
	fn(s.vp)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.viewportState())
}

func (s *Server) viewportState() ViewportResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := ViewportResponse{
		Transform: s.vp.Transform(),
		Dragging:  s.vp.Dragging(),
	}
	resp.Hovered, _ = s.vp.Hovered().Get()
	resp.Selected, _ = s.vp.Selected().Get()
	resp.Active, _ = s.vp.Active().Get()
	return resp
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	writeJSON(w, statusFor(code), ErrorResponse{Error: errors.UserMessage(err), Code: code})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidGraph,
		errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

