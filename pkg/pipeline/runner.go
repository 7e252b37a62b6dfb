package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineageview/pkg/cache"
	lverrors "github.com/matzehuels/lineageview/pkg/errors"
	"github.com/matzehuels/lineageview/pkg/layout"
	"github.com/matzehuels/lineageview/pkg/lineage"
	"github.com/matzehuels/lineageview/pkg/observability"
)

// Runner executes the pipeline with caching.
//
// The Runner holds no pipeline results, only the cache, keyer and logger.
// Multiple goroutines can use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration // lifetime of cache entries, 0 means cache.DefaultTTL
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
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
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute lays out ds and renders the scene in every requested format.
func (r *Runner) Execute(ctx context.Context, ds *lineage.Dataset, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	layoutStart := time.Now()
	s, layoutHit, err := r.ComputeSceneWithCacheInfo(ctx, ds, opts)
	if err != nil {
		return nil, err
	}
	result.Scene = s
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.NodeCount = s.NodeCount()
	result.Stats.EdgeCount = s.EdgeCount()
	result.Stats.Dropped = len(s.Dropped)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"nodes", s.NodeCount(),
		"edges", s.EdgeCount(),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, s, opts)
	if err != nil {
		return nil, err
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

// ComputeSceneWithCacheInfo lays out ds with caching and reports whether the
// scene came from the cache.
func (r *Runner) ComputeSceneWithCacheInfo(ctx context.Context, ds *lineage.Dataset, opts Options) (*layout.Scene, bool, error) {
	if ds == nil {
		return nil, false, lverrors.New(lverrors.ErrCodeInvalidDataset, "dataset must not be nil")
	}
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}

	dsHash, err := cache.HashJSON(ds)
	if err != nil {
		return nil, false, lverrors.Wrap(lverrors.ErrCodeInvalidDataset, err, "hash dataset")
	}
	cacheKey := r.Keyer.SceneKey(dsHash, opts.SceneKeyOpts())

	if !opts.Refresh {
		if s, ok := r.cachedScene(ctx, cacheKey); ok {
			return s, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, ds.Key, ds.Len())
	start := time.Now()

	s, err := layout.Compute(ctx, ds, opts.Layout, opts.Engine)
	stats := observability.LayoutStats{Dataset: ds.Key}
	if s != nil {
		stats.Nodes, stats.Edges, stats.Dropped = s.NodeCount(), s.EdgeCount(), len(s.Dropped)
	}
	hooks.OnLayoutComplete(ctx, stats, time.Since(start), err)
	if err != nil {
		return nil, false, lverrors.Wrap(lverrors.ErrCodeLayoutFailed, err, "layout %s", ds.Key)
	}

	if len(s.Dropped) > 0 {
		r.Logger.Debug("dropped relations with unknown parents",
			"count", len(s.Dropped),
			"parents", ds.Dangling())
	}

	if data, err := MarshalScene(s); err == nil {
		r.store(ctx, cache.ScenePrefix, cacheKey, data)
	}
	return s, false, nil
}

// ComputeScene is ComputeSceneWithCacheInfo without the cache hit info.
func (r *Runner) ComputeScene(ctx context.Context, ds *lineage.Dataset, opts Options) (*layout.Scene, error) {
	s, _, err := r.ComputeSceneWithCacheInfo(ctx, ds, opts)
	return s, err
}

// RenderWithCacheInfo renders s with caching and reports whether every
// artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *layout.Scene, opts Options) (map[string][]byte, bool, error) {
	if s == nil {
		return nil, false, lverrors.New(lverrors.ErrCodeInvalidInput, "scene must not be nil")
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	opts.SetLayoutDefaults()

	sceneHash, err := cache.HashJSON(s)
	if err != nil {
		return nil, false, lverrors.Wrap(lverrors.ErrCodeInternal, err, "hash scene")
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format))
			if data, ok := r.lookup(ctx, cache.ArtifactPrefix, key); ok {
				artifacts[format] = data
				continue
			}
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, missing)
	start := time.Now()

	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := Render(ctx, s, renderOpts)
	hooks.OnRenderComplete(ctx, missing, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		artifacts[format] = data
		r.store(ctx, cache.ArtifactPrefix, r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format)), data)
	}
	return artifacts, false, nil
}

// Render is RenderWithCacheInfo without the cache hit info.
func (r *Runner) Render(ctx context.Context, s *layout.Scene, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, s, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// =============================================================================
// Cache helpers
// =============================================================================

func (r *Runner) cachedScene(ctx context.Context, key string) (*layout.Scene, bool) {
	data, ok := r.lookup(ctx, cache.ScenePrefix, key)
	if !ok {
		return nil, false
	}
	s, err := UnmarshalScene(data)
	if err != nil {
		r.Logger.Debug("discarding unreadable cached scene", "key", key, "error", err)
		return nil, false
	}
	return s, true
}

// lookup reads a cache entry. Cache errors count as misses.
func (r *Runner) lookup(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, ok, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "key", key, "error", err)
		ok = false
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
	return data, ok
}

// store writes a cache entry. Failures are logged, never returned.
func (r *Runner) store(ctx context.Context, keyType, key string, data []byte) {
	ttl := r.TTL
	if ttl == 0 {
		ttl = cache.DefaultTTL
	}
	err := cache.RetryWithBackoff(ctx, func() error {
		return r.Cache.Set(ctx, key, data, ttl)
	})
	if err != nil {
		r.Logger.Debug("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}
