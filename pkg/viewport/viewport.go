// Package viewport maps between world and screen space and tracks the
// transient interaction state (pan, zoom, hover, selection) of a graph view.
//
// A Controller never touches simulation state: it only reads positions for
// hit testing. It is not safe for concurrent use; hosts that share one
// across goroutines must guard it.
package viewport

import (
	"math"

	"github.com/matzehuels/intelgraph/pkg/graph"
)

// Transform is the world-to-screen mapping: screen = world*Zoom + Pan.
type Transform = graph.Transform

// Zoom limits and steps.
const (
	MinZoom    = 0.5
	MaxZoom    = 3.0
	ZoomFactor = 1.1 // one wheel notch
	ZoomStep   = 0.1 // one button press
)

// Controller holds pan, zoom, drag and focus state for one view.
type Controller struct {
	t Transform

	dragging       bool
	startX, startY float64

	hovered  Focus
	selected Focus
}

// New returns a controller with the identity transform and no focus.
func New() *Controller {
	return &Controller{t: graph.Identity}
}

// Transform returns the current world-to-screen mapping.
func (c *Controller) Transform() Transform { return c.t }

// Zoom applies one wheel step: positive delta zooms in by ZoomFactor,
// negative zooms out by 1/ZoomFactor, zero does nothing. The result is
// clamped to [MinZoom, MaxZoom]. Pan is unchanged.
func (c *Controller) Zoom(delta float64) {
	switch {
	case delta > 0:
		c.t.Zoom = clampZoom(c.t.Zoom * ZoomFactor)
	case delta < 0:
		c.t.Zoom = clampZoom(c.t.Zoom / ZoomFactor)
	}
}

// ZoomAt is Zoom anchored at a screen point: the world point under
// (sx, sy) stays under it. A non-finite point zooms without an anchor.
func (c *Controller) ZoomAt(delta, sx, sy float64) {
	if !isFinite(sx) || !isFinite(sy) {
		c.Zoom(delta)
		return
	}
	wx, wy := c.t.Invert(sx, sy)
	c.Zoom(delta)
	c.t.PanX = sx - wx*c.t.Zoom
	c.t.PanY = sy - wy*c.t.Zoom
}

// ZoomIn zooms in one wheel step.
func (c *Controller) ZoomIn() { c.Zoom(1) }

// ZoomOut zooms out one wheel step.
func (c *Controller) ZoomOut() { c.Zoom(-1) }

// Nudge adds step to the zoom, clamped. Buttons use ±ZoomStep.
func (c *Controller) Nudge(step float64) {
	if math.IsNaN(step) {
		return
	}
	c.t.Zoom = clampZoom(c.t.Zoom + step)
}

// Reset restores unit zoom and zero pan. Focus and drag are kept.
func (c *Controller) Reset() {
	c.t = graph.Identity
}

// Pan shifts the view by (dx, dy) screen units.
func (c *Controller) Pan(dx, dy float64) {
	if isFinite(dx) && isFinite(dy) {
		c.t.PanX += dx
		c.t.PanY += dy
	}
}

// =============================================================================
// Drag
// =============================================================================

// DragStart begins a pan gesture at screen point (px, py). A non-finite
// point is ignored.
func (c *Controller) DragStart(px, py float64) {
	if !isFinite(px) || !isFinite(py) {
		return
	}
	c.dragging = true
	c.startX = px - c.t.PanX
	c.startY = py - c.t.PanY
}

// DragMove updates the pan while a drag is active and reports whether it
// did anything.
func (c *Controller) DragMove(px, py float64) bool {
	if !c.dragging || !isFinite(px) || !isFinite(py) {
		return false
	}
	c.t.PanX = px - c.startX
	c.t.PanY = py - c.startY
	return true
}

// DragEnd ends the pan gesture.
func (c *Controller) DragEnd() { c.dragging = false }

// Dragging reports whether a drag is active.
func (c *Controller) Dragging() bool { return c.dragging }

// =============================================================================
// Focus
// =============================================================================

// Hover sets the hovered node. None clears the hover; selection is never
// affected.
func (c *Controller) Hover(f Focus) { c.hovered = f }

// Select toggles selection of id: selecting the selected node clears it,
// anything else replaces it. An empty id clears the selection.
func (c *Controller) Select(id string) {
	if c.selected.Is(id) {
		c.selected = None()
		return
	}
	c.selected = Some(id)
}

// ClearSelection drops the selection.
func (c *Controller) ClearSelection() { c.selected = None() }

// Hovered returns the hovered node.
func (c *Controller) Hovered() Focus { return c.hovered }

// Selected returns the selected node.
func (c *Controller) Selected() Focus { return c.selected }

// Active returns the node a tooltip should describe: the hovered node if
// any, otherwise the selected one.
func (c *Controller) Active() Focus { return c.hovered.Or(c.selected) }

// =============================================================================
// Coordinates
// =============================================================================

// ToScreen maps a world point to screen space.
func (c *Controller) ToScreen(x, y float64) (float64, float64) { return c.t.Apply(x, y) }

// ToWorld maps a screen point to world space.
func (c *Controller) ToWorld(sx, sy float64) (float64, float64) { return c.t.Invert(sx, sy) }

// HitTest returns the node whose disc contains screen point (sx, sy).
// Later positions are drawn on top, so they win ties.
func (c *Controller) HitTest(positions []graph.Position, sx, sy float64) Focus {
	wx, wy := c.ToWorld(sx, sy)
	for i := len(positions) - 1; i >= 0; i-- {
		p := positions[i]
		if math.Hypot(wx-p.X, wy-p.Y) <= p.Radius {
			return Some(p.ID)
		}
	}
	return None()
}

func clampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return 1
	}
	return max(MinZoom, min(z, MaxZoom))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Fit returns the transform that centres every disc in positions inside a
// width×height screen with padding on each side, zoom clamped to
// [MinZoom, MaxZoom]. Empty input yields the identity.
func Fit(positions []graph.Position, width, height, padding float64) Transform {
	if len(positions) == 0 || width <= 0 || height <= 0 {
		return graph.Identity
	}
	l := graph.Layout{Nodes: positions}
	minX, minY, maxX, maxY := l.Bounds()
	bw, bh := maxX-minX+2*padding, maxY-minY+2*padding

	z := clampZoom(min(width/bw, height/bh))
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	return Transform{
		PanX: width/2 - cx*z,
		PanY: height/2 - cy*z,
		Zoom: z,
	}
}

// Fit replaces the transform with Fit over positions.
func (c *Controller) Fit(positions []graph.Position, width, height, padding float64) {
	c.t = Fit(positions, width, height, padding)
}
