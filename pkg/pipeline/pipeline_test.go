package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineageview/pkg/cache"
	lverrors "github.com/matzehuels/lineageview/pkg/errors"
	"github.com/matzehuels/lineageview/pkg/icons"
	"github.com/matzehuels/lineageview/pkg/layout"
	"github.com/matzehuels/lineageview/pkg/lineage"
	"github.com/matzehuels/lineageview/pkg/observability"
)

// columnEngine stacks nodes top to bottom in registration order.
type columnEngine struct{ calls atomic.Int32 }

func (e *columnEngine) Layout(_ context.Context, g *layout.Graph) (*layout.Result, error) {
	e.calls.Add(1)
	cfg := g.Config
	res := &layout.Result{Centers: map[string]layout.Point{}, Routes: map[layout.GraphEdge][]layout.Point{}}
	for i, n := range g.Nodes {
		res.Centers[n.ID] = layout.Point{
			X: cfg.MarginX + n.Width/2,
			Y: cfg.MarginY + n.Height/2 + float64(i)*(n.Height+cfg.NodeSep),
		}
	}
	n := float64(len(g.Nodes))
	res.Width = 2*cfg.MarginX + cfg.NodeWidth
	res.Height = 2*cfg.MarginY + n*cfg.NodeHeight + (n-1)*cfg.NodeSep
	return res, nil
}

func sampleDataset() *lineage.Dataset {
	return &lineage.Dataset{
		Key: "hive://gold.core/orders",
		UpstreamEntities: []lineage.Entity{
			{Key: "hive://gold.core/orders", Database: "hive"},
			{Key: "hive://raw.shop/orders", Parent: "hive://gold.core/orders", Database: "hive"},
		},
		DownstreamEntities: []lineage.Entity{
			{Key: "looker://sales/daily", Parent: "hive://gold.core/orders", Database: "looker"},
			{Key: "orphan", Parent: "ZZZ"},
		},
	}
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, quietLogger())
	t.Cleanup(func() { r.Close() })
	return r
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"html", false},
		{"json", false},
		{"png", false},
		{"pdf", false},
		{"dot", false},
		{"gif", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !lverrors.Is(err, lverrors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, lverrors.GetCode(err))
		}
	}

	if err := ValidateFormats(nil); err != nil {
		t.Errorf("empty formats should pass: %v", err)
	}
}

func TestOptions_ValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if opts.PNGScale != DefaultPNGScale || opts.Logger == nil {
		t.Errorf("render defaults not applied: %+v", opts)
	}
	if opts.Layout != layout.DefaultConfig() {
		t.Errorf("Layout = %+v", opts.Layout)
	}

	// idempotent
	opts.Formats = []string{"gif"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call should be a no-op, got %v", err)
	}
}

func TestOptions_Invalid(t *testing.T) {
	tests := map[string]struct {
		opts Options
		code lverrors.Code
	}{
		"format":    {Options{Formats: []string{"gif"}}, lverrors.ErrCodeInvalidFormat},
		"direction": {Options{Layout: layout.Config{Direction: "UP"}}, lverrors.ErrCodeInvalidConfig},
		"ranker":    {Options{Layout: layout.Config{Ranker: "longest-path"}}, lverrors.ErrCodeInvalidConfig},
		"width":     {Options{Width: -1}, lverrors.ErrCodeInvalidInput},
		"scale":     {Options{Scale: 9}, lverrors.ErrCodeInvalidInput},
		"selected":  {Options{Selected: []string{" "}}, lverrors.ErrCodeInvalidInput},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !lverrors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Selected: []string{"b"}, Title: "T", PNGScale: 3, Scale: 1.5}
	if k := opts.ArtifactKeyOpts(FormatSVG); k.Title != "" || k.Scale != 1.5 {
		t.Errorf("svg key opts = %+v", k)
	}
	if k := opts.ArtifactKeyOpts(FormatHTML); k.Title != "T" {
		t.Errorf("html key opts = %+v", k)
	}
	if k := opts.ArtifactKeyOpts(FormatPNG); k.Scale != 3 {
		t.Errorf("png key opts = %+v", k)
	}
	if k := opts.ArtifactKeyOpts(FormatSVG); k.Width != 1000 || k.Height != 800 {
		t.Errorf("viewport not resolved: %+v", k)
	}

	opts.Icons = map[icons.ResourceType]map[string]string{icons.Table: {"kafka": "icon-kafka"}}
	if k := opts.ArtifactKeyOpts(FormatSVG); k.Icons == "" {
		t.Error("icon overrides should be part of the key")
	}
}

func TestRunner_Execute(t *testing.T) {
	eng := &columnEngine{}
	r := newTestRunner(t)

	res, err := r.Execute(context.Background(), sampleDataset(), Options{
		Formats:  []string{FormatSVG, FormatHTML, FormatJSON, FormatDOT},
		Selected: []string{"looker://sales/daily"},
		Engine:   eng,
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.Stats.NodeCount != 4 || res.Stats.EdgeCount != 2 || res.Stats.Dropped != 1 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.Scene.Root != "hive://gold.core/orders" {
		t.Errorf("Root = %q", res.Scene.Root)
	}

	svg := string(res.Artifacts[FormatSVG])
	if !strings.HasPrefix(svg, "<svg") || !strings.Contains(svg, `stroke="#555"`) {
		t.Errorf("svg artifact missing selection highlight:\n%s", svg)
	}
	if !strings.Contains(string(res.Artifacts[FormatHTML]), "<title>Lineage</title>") {
		t.Error("html artifact should carry the default title")
	}
	if !strings.Contains(string(res.Artifacts[FormatDOT]), `"hive://gold.core/orders" -> "looker://sales/daily";`) {
		t.Errorf("dot artifact = %s", res.Artifacts[FormatDOT])
	}

	s, err := UnmarshalScene(res.Artifacts[FormatJSON])
	if err != nil {
		t.Fatal(err)
	}
	if s.NodeCount() != 4 || len(s.Dropped) != 1 || s.Dropped[0].Parent != "ZZZ" {
		t.Errorf("json scene = %+v", s)
	}
}

func TestRunner_Caching(t *testing.T) {
	eng := &columnEngine{}
	r := newTestRunner(t)
	ctx := context.Background()
	opts := Options{Formats: []string{FormatSVG, FormatJSON}, Engine: eng}

	first, err := r.Execute(ctx, sampleDataset(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss: %+v", first.CacheInfo)
	}

	second, err := r.Execute(ctx, sampleDataset(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit: %+v", second.CacheInfo)
	}
	if got := eng.calls.Load(); got != 1 {
		t.Errorf("engine calls = %d, want 1", got)
	}
	if string(first.Artifacts[FormatSVG]) != string(second.Artifacts[FormatSVG]) {
		t.Error("cached svg differs from the rendered one")
	}

	opts.Selected = []string{"hive://raw.shop/orders"}
	third, err := r.Execute(ctx, sampleDataset(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !third.CacheInfo.LayoutHit || third.CacheInfo.RenderHit {
		t.Errorf("new selection should reuse the scene only: %+v", third.CacheInfo)
	}

	opts.Refresh = true
	if _, err := r.Execute(ctx, sampleDataset(), opts); err != nil {
		t.Fatal(err)
	}
	if got := eng.calls.Load(); got != 2 {
		t.Errorf("refresh should recompute, engine calls = %d", got)
	}
}

func TestRunner_LayoutFailed(t *testing.T) {
	boom := errors.New("boom")
	eng := layout.EngineFunc(func(context.Context, *layout.Graph) (*layout.Result, error) {
		return nil, boom
	})
	r := NewRunner(nil, nil, quietLogger())

	_, err := r.Execute(context.Background(), sampleDataset(), Options{Engine: eng})
	if !lverrors.Is(err, lverrors.ErrCodeLayoutFailed) {
		t.Errorf("error = %v, want LAYOUT_FAILED", err)
	}
	if !errors.Is(err, boom) {
		t.Error("engine error should be wrapped")
	}

	if _, err := r.ComputeScene(context.Background(), nil, Options{}); !lverrors.Is(err, lverrors.ErrCodeInvalidDataset) {
		t.Errorf("nil dataset error = %v", err)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	layouts atomic.Int32
	renders atomic.Int32
	stats   observability.LayoutStats
}

func (h *recordingHooks) OnLayoutComplete(_ context.Context, s observability.LayoutStats, _ time.Duration, _ error) {
	h.layouts.Add(1)
	h.stats = s
}

func (h *recordingHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.renders.Add(1)
}

type countingCacheHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets atomic.Int32
}

func (h *countingCacheHooks) OnCacheHit(context.Context, string)      { h.hits.Add(1) }
func (h *countingCacheHooks) OnCacheMiss(context.Context, string)     { h.misses.Add(1) }
func (h *countingCacheHooks) OnCacheSet(context.Context, string, int) { h.sets.Add(1) }

func TestRunner_Hooks(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	ph := &recordingHooks{}
	ch := &countingCacheHooks{}
	observability.SetPipelineHooks(ph)
	observability.SetCacheHooks(ch)

	r := newTestRunner(t)
	opts := Options{Formats: []string{FormatSVG}, Engine: &columnEngine{}}
	for range 2 {
		if _, err := r.Execute(context.Background(), sampleDataset(), opts); err != nil {
			t.Fatal(err)
		}
	}

	if ph.layouts.Load() != 1 || ph.renders.Load() != 1 {
		t.Errorf("layouts = %d, renders = %d; want 1, 1", ph.layouts.Load(), ph.renders.Load())
	}
	if ph.stats.Nodes != 4 || ph.stats.Dropped != 1 || ph.stats.Dataset != "hive://gold.core/orders" {
		t.Errorf("stats = %+v", ph.stats)
	}
	if ch.misses.Load() != 2 || ch.sets.Load() != 2 || ch.hits.Load() != 2 {
		t.Errorf("cache hooks: hits=%d misses=%d sets=%d", ch.hits.Load(), ch.misses.Load(), ch.sets.Load())
	}
}

func TestRender_Unsupported(t *testing.T) {
	_, err := Render(context.Background(), &layout.Scene{}, Options{Formats: []string{"gif"}})
	if !lverrors.Is(err, lverrors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v", err)
	}
	if _, err := Render(context.Background(), nil, Options{}); !lverrors.Is(err, lverrors.ErrCodeInvalidInput) {
		t.Errorf("nil scene error = %v", err)
	}
}

func TestUnmarshalScene_Errors(t *testing.T) {
	for _, data := range []string{"", "{", `{"width": 10}`} {
		if _, err := UnmarshalScene([]byte(data)); !lverrors.Is(err, lverrors.ErrCodeInvalidInput) {
			t.Errorf("UnmarshalScene(%q) error = %v", data, err)
		}
	}
}
