// Package pipeline runs the load → layout → render pipeline shared by the
// CLI and the HTTP server.
//
// # Architecture
//
// The pipeline has three stages:
//
//  1. Load: decode a graph (or a previously computed layout) from JSON
//  2. Layout: build a [graph.Model], seed a [sim.Engine] and run it headless
//  3. Render: produce artifacts (SVG, JSON, DOT, Graphviz SVG)
//
// Layouts and artifacts are cached by content hash. A seeded run is
// deterministic, so a cached layout equals a recomputed one.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	g, _ := graph.ReadGraphFile("graph.json")
//	result, err := runner.Execute(ctx, g, pipeline.Options{
//	    Seed:    7,
//	    Ticks:   400,
//	    Formats: []string{"svg", "json"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/intelgraph/pkg/cache"
	"github.com/matzehuels/intelgraph/pkg/errors"
	"github.com/matzehuels/intelgraph/pkg/graph"
	"github.com/matzehuels/intelgraph/pkg/sim"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultTicks is the number of ticks a headless run performs. Typical
	// graphs are visually settled after ~200.
	DefaultTicks = 300

	// DefaultPadding is the margin kept around the graph when fitting.
	DefaultPadding = 40.0

	// SettleWindow is the number of energy samples inspected when Settle
	// is set.
	SettleWindow = 30
)

// Format constants for output formats.
const (
	FormatSVG      = "svg"
	FormatJSON     = "json"
	FormatDOT      = "dot"
	FormatGraphviz = "graphviz"
)

// ValidFormats lists the supported output formats.
var ValidFormats = []string{FormatSVG, FormatJSON, FormatDOT, FormatGraphviz}

// Extension returns the file extension for an output format.
func Extension(format string) string {
	switch format {
	case FormatGraphviz:
		return "graphviz.svg"
	default:
		return format
	}
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	// Layout options
	Params sim.Params `json:"params"`
	Seed   uint64     `json:"seed,omitempty"`
	Ticks  int        `json:"ticks,omitempty"`
	Settle float64    `json:"settle,omitempty"` // stop early once energy stays below this; 0 runs all ticks

	// Render options
	Formats     []string `json:"formats,omitempty"`
	Fit         bool     `json:"fit,omitempty"`
	Padding     float64  `json:"padding,omitempty"`
	Detailed    bool     `json:"detailed,omitempty"`
	Interactive bool     `json:"interactive,omitempty"`

	// Refresh bypasses cached layouts and artifacts.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Model     graph.Model
	GraphHash string
	Layout    graph.Layout
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and size information.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	Dropped    int
	Components int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks which stages hit the cache.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	return errors.ValidateFormat(format, ValidFormats)
}

// ValidateFormats checks every format. An empty list is valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// SetLayoutDefaults fills in unset layout options.
func (o *Options) SetLayoutDefaults() {
	if o.Params == (sim.Params{}) {
		o.Params = sim.DefaultParams()
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Ticks == 0 {
		o.Ticks = DefaultTicks
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout applies layout defaults and validates the result.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := o.Params.Validate(); err != nil {
		return err
	}
	if o.Ticks < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "ticks must not be negative, got %d", o.Ticks)
	}
	if o.Settle < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "settle threshold must not be negative, got %g", o.Settle)
	}
	return nil
}

// SetRenderDefaults fills in unset render options.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Padding == 0 {
		o.Padding = DefaultPadding
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender applies render defaults and validates the formats.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// ValidateAndSetDefaults prepares options for a full pipeline run.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	return o.ValidateForRender()
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Seed:   o.Seed,
		Ticks:  o.Ticks,
		Settle: o.Settle,
		Params: o.Params,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:      format,
		Fit:         o.Fit,
		Detailed:    o.Detailed,
		Interactive: o.Interactive,
	}
}
