package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/intelgraph/pkg/errors"
)

// =============================================================================
// Transform - Viewport Mapping
// =============================================================================

// Transform maps world coordinates to screen coordinates:
//
//	screen = world*Zoom + Pan
type Transform struct {
	PanX float64 `json:"pan_x"`
	PanY float64 `json:"pan_y"`
	Zoom float64 `json:"zoom"`
}

// Identity is the transform with no pan and unit zoom.
var Identity = Transform{Zoom: 1}

// Apply maps a world point to screen space.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.Zoom + t.PanX, y*t.Zoom + t.PanY
}

// Invert maps a screen point back to world space.
// A zero zoom is treated as 1.
func (t Transform) Invert(sx, sy float64) (float64, float64) {
	z := t.Zoom
	if z == 0 {
		z = 1
	}
	return (sx - t.PanX) / z, (sy - t.PanY) / z
}

// =============================================================================
// Layout - Headless Run Result
// =============================================================================

// Layout is the serialization format for a finished (or paused) simulation
// run: node positions plus the parameters needed to reproduce them.
type Layout struct {
	RunID   string  `json:"run_id,omitempty"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Seed    uint64  `json:"seed"`
	Ticks   int     `json:"ticks"`
	Energy  float64 `json:"energy"`
	Dropped int     `json:"dropped_edges,omitempty"`

	Nodes     []Position `json:"nodes"`
	Edges     []Edge     `json:"edges"`
	Transform Transform  `json:"transform"`
}

// Position returns the placement of the node with the given ID.
func (l *Layout) Position(id string) (Position, bool) {
	for _, p := range l.Nodes {
		if p.ID == id {
			return p, true
		}
	}
	return Position{}, false
}

// Bounds returns the world-space bounding box of all node discs.
// An empty layout reports the frame itself.
func (l *Layout) Bounds() (minX, minY, maxX, maxY float64) {
	if len(l.Nodes) == 0 {
		return 0, 0, l.Width, l.Height
	}
	p := l.Nodes[0]
	minX, minY, maxX, maxY = p.X-p.Radius, p.Y-p.Radius, p.X+p.Radius, p.Y+p.Radius
	for _, p := range l.Nodes[1:] {
		minX = min(minX, p.X-p.Radius)
		minY = min(minY, p.Y-p.Radius)
		maxX = max(maxX, p.X+p.Radius)
		maxY = max(maxY, p.Y+p.Radius)
	}
	return minX, minY, maxX, maxY
}

// MarshalLayout converts a Layout to indented JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteLayout(l, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalLayout decodes JSON bytes into a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	return ReadLayout(bytes.NewReader(data))
}

// WriteLayout writes a Layout as JSON to an io.Writer.
func WriteLayout(l Layout, w io.Writer) error {
	if l.Nodes == nil {
		l.Nodes = []Position{}
	}
	if l.Edges == nil {
		l.Edges = []Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return nil
}

// ReadLayout decodes a Layout from an io.Reader.
func ReadLayout(r io.Reader) (Layout, error) {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode layout")
	}
	if l.Transform.Zoom == 0 {
		l.Transform = Identity
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteLayout(l, f)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Layout{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "layout file %s", path)
		}
		return Layout{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLayout(f)
}

// IsLayoutData reports whether the JSON document looks like a Layout rather
// than a Graph. Only layouts carry a seed and a tick count.
func IsLayoutData(data []byte) bool {
	var probe struct {
		Ticks json.RawMessage `json:"ticks"`
		Seed  json.RawMessage `json:"seed"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return len(probe.Ticks) > 0 && len(probe.Seed) > 0
}
