package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/intelgraph/pkg/cache"
	"github.com/matzehuels/intelgraph/pkg/graph"
	"github.com/matzehuels/intelgraph/pkg/observability"
)

// Cache key types reported to observability hooks.
const (
	keyTypeLayout   = "layout"
	keyTypeArtifact = "artifact"
)

// Runner executes the pipeline with caching.
//
// The Runner holds no per-run state; multiple goroutines can use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses cache.DefaultKeyer and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute builds the model for g, computes its layout and renders every
// requested format.
func (r *Runner) Execute(ctx context.Context, g graph.Graph, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	m := graph.BuildGraph(g)
	result := &Result{
		Model:     m,
		GraphHash: GraphHash(m),
		Stats: Stats{
			NodeCount:  m.NodeCount(),
			EdgeCount:  m.EdgeCount(),
			Dropped:    m.Dropped,
			Components: len(m.Components()),
		},
	}
	if m.Dropped > 0 {
		r.Logger.Warn("dropped dangling edges", "count", m.Dropped)
	}

	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, m, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"nodes", len(l.Nodes),
		"ticks", l.Ticks,
		"energy", l.Energy,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, m.Nodes, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo computes the layout for m, consulting the cache first,
// and reports whether it was a cache hit.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, m graph.Model, opts Options) (graph.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}

	key := r.Keyer.LayoutKey(GraphHash(m), opts.LayoutKeyOpts())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if cached, err := graph.UnmarshalLayout(data); err == nil {
				observability.Cache().OnCacheHit(ctx, keyTypeLayout)
				return cached, true, nil
			}
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "key", key, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, m.NodeCount())
	start := time.Now()
	l, err := ComputeLayout(ctx, m, opts)
	hooks.OnLayoutComplete(ctx, m.NodeCount(), time.Since(start), err)
	if err != nil {
		return graph.Layout{}, false, err
	}
	opts.Logger.Debug("simulated", "run", l.RunID, "ticks", l.Ticks, "energy", l.Energy)

	if data, err := graph.MarshalLayout(l); err == nil {
		r.store(ctx, key, keyTypeLayout, data, cache.LayoutTTL, opts.Logger)
	}
	return l, false, nil
}

// Layout is LayoutWithCacheInfo without the cache hit report.
func (r *Runner) Layout(ctx context.Context, m graph.Model, opts Options) (graph.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, m, opts)
	return l, err
}

// RenderWithCacheInfo renders l in every requested format. It reports a hit
// only when all formats came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l graph.Layout, nodes []graph.Node, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutData, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(append(layoutData, nodesDigest(nodes)...))

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, l, nodes, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		r.store(ctx, key, keyTypeArtifact, data, cache.ArtifactTTL, opts.Logger)
	}
	return rendered, false, nil
}

// Render is RenderWithCacheInfo without the cache hit report.
func (r *Runner) Render(ctx context.Context, l graph.Layout, nodes []graph.Node, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, nodes, opts)
	return artifacts, err
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) store(ctx context.Context, key, keyType string, data []byte, ttl time.Duration, logger *log.Logger) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// GraphHash returns the content hash of a model, used as the layout cache
// key.
func GraphHash(m graph.Model) string {
	data, err := graph.MarshalGraph(m.Graph())
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// nodesDigest folds node details into the artifact key, since labels and
// tooltips depend on them.
func nodesDigest(nodes []graph.Node) []byte {
	if len(nodes) == 0 {
		return nil
	}
	data, err := graph.MarshalGraph(graph.Graph{Nodes: nodes})
	if err != nil {
		return nil
	}
	return []byte(cache.Hash(data))
}
