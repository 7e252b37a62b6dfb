package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineageview/pkg/observability"
)

// registerHooks routes pipeline, cache and server events to the debug log.
func (c *CLI) registerHooks() {
	h := &logHooks{logger: c.Logger}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetServerHooks(h)
}

// logHooks implements every observability hook interface on top of a
// logger. Everything but failures logs at debug level.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnLayoutStart(_ context.Context, dataset string, entityCount int) {
	h.logger.Debug("layout started", "dataset", dataset, "entities", entityCount)
}

func (h *logHooks) OnLayoutComplete(_ context.Context, stats observability.LayoutStats, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("layout failed", "dataset", stats.Dataset, "error", err)
		return
	}
	h.logger.Debug("layout complete",
		"dataset", stats.Dataset,
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"dropped", stats.Dropped,
		"duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render started", "formats", formats)
}

func (h *logHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("render failed", "formats", formats, "error", err)
		return
	}
	h.logger.Debug("render complete", "formats", formats, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

// OnRequest is a no-op; the server logs requests itself.
func (h *logHooks) OnRequest(context.Context, string, string, int, time.Duration) {}

func (h *logHooks) OnReload(_ context.Context, datasets int, err error) {
	h.logger.Debug("reload", "datasets", datasets, "ok", err == nil)
}
