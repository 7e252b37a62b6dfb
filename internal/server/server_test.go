package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lineageview/pkg/layout"
	"github.com/matzehuels/lineageview/pkg/lineage"
	"github.com/matzehuels/lineageview/pkg/observability"
	"github.com/matzehuels/lineageview/pkg/pipeline"
)

const ordersKey = "hive://gold.core/orders"

// columnEngine stacks nodes top to bottom and counts its calls.
type columnEngine struct{ calls atomic.Int32 }

func (e *columnEngine) Layout(_ context.Context, g *layout.Graph) (*layout.Result, error) {
	e.calls.Add(1)
	cfg := g.Config
	res := &layout.Result{Centers: map[string]layout.Point{}, Routes: map[layout.GraphEdge][]layout.Point{}}
	for i, n := range g.Nodes {
		res.Centers[n.ID] = layout.Point{
			X: cfg.MarginX + n.Width/2 + float64(i)*40,
			Y: cfg.MarginY + n.Height/2 + float64(i)*(n.Height+cfg.NodeSep),
		}
	}
	res.Width, res.Height = 1000, 600
	return res, nil
}

func ordersDataset() *lineage.Dataset {
	return &lineage.Dataset{
		Key: ordersKey,
		UpstreamEntities: []lineage.Entity{
			{Key: ordersKey, Database: "hive"},
			{Key: "hive://raw.shop/orders", Parent: ordersKey, Database: "hive"},
		},
		DownstreamEntities: []lineage.Entity{
			{Key: "looker://sales/daily", Parent: ordersKey, Database: "looker"},
		},
	}
}

type fixture struct {
	srv    *Server
	engine *columnEngine
	dir    string
}

func newFixture(t *testing.T, datasets ...*lineage.Dataset) *fixture {
	t.Helper()
	dir := t.TempDir()
	for i, ds := range datasets {
		require.NoError(t, lineage.WriteDatasetFile(ds, filepath.Join(dir, "ds"+string(rune('a'+i))+".json")))
	}

	eng := &columnEngine{}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	srv, err := New(Config{
		Addr:    "127.0.0.1:0",
		Data:    dir,
		Runner:  pipeline.NewRunner(nil, nil, logger),
		Options: pipeline.Options{Engine: eng},
		Logger:  logger,
	})
	require.NoError(t, err)
	return &fixture{srv: srv, engine: eng, dir: dir}
}

func (f *fixture) do(t *testing.T, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func scenePath(key, file string) string {
	return "/lineage/" + url.PathEscape(key) + "/" + file
}

func TestHealth(t *testing.T) {
	f := newFixture(t, ordersDataset())

	w := f.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 1, body["datasets"])
}

func TestIndex(t *testing.T) {
	f := newFixture(t, ordersDataset())

	w := f.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `href="/lineage/hive:%2F%2Fgold.core%2Forders"`)
	assert.Contains(t, w.Body.String(), "(3 entities)")
}

func TestPage(t *testing.T) {
	f := newFixture(t, ordersDataset())

	w := f.do(t, http.MethodGet, scenePath(ordersKey, "")+"?select=looker://sales/daily", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<span class="lineage-loading">Please wait...</span>`)
	assert.Contains(t, body, `/scene.svg?select=looker://sales/daily`)
	assert.Equal(t, int32(0), f.engine.calls.Load(), "the page itself must not lay out")
}

func TestSceneSVG(t *testing.T) {
	f := newFixture(t, ordersDataset())

	w := f.do(t, http.MethodGet, scenePath(ordersKey, "scene.svg"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "<svg"))
	assert.Contains(t, body, `data-key="looker://sales/daily"`)
	assert.NotContains(t, body, `stroke="#555"`)

	w = f.do(t, http.MethodGet, scenePath(ordersKey, "scene.svg")+"?select=looker://sales/daily&width=1200", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `stroke="#555"`)
	assert.Contains(t, w.Body.String(), `width="1200"`)

	assert.Equal(t, int32(1), f.engine.calls.Load(), "the view should reuse its layout")
}

func TestSceneSVG_Errors(t *testing.T) {
	f := newFixture(t, ordersDataset())

	tests := []struct {
		target string
		status int
		code   string
	}{
		{scenePath("hive://missing", "scene.svg"), http.StatusNotFound, "NOT_FOUND"},
		{scenePath(ordersKey, "scene.svg") + "?width=wide", http.StatusBadRequest, "INVALID_INPUT"},
		{scenePath(ordersKey, "scene.svg") + "?scale=10", http.StatusBadRequest, "INVALID_INPUT"},
		{scenePath(ordersKey, "scene.svg") + "?fit=maybe", http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := f.do(t, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestSceneJSON(t *testing.T) {
	f := newFixture(t, ordersDataset())

	w := f.do(t, http.MethodGet, scenePath(ordersKey, "scene.json"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	s, err := pipeline.UnmarshalScene(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, ordersKey, s.Root)
	assert.Equal(t, 3, s.NodeCount())
	assert.Equal(t, 2, s.EdgeCount())
}

func TestReloadRecomputesChangedDatasets(t *testing.T) {
	f := newFixture(t, ordersDataset())
	f.do(t, http.MethodGet, scenePath(ordersKey, "scene.json"), nil)
	require.Equal(t, int32(1), f.engine.calls.Load())

	ds := ordersDataset()
	ds.DownstreamEntities = append(ds.DownstreamEntities, lineage.Entity{Key: "feature://churn", Parent: ordersKey})
	require.NoError(t, lineage.WriteDatasetFile(ds, filepath.Join(f.dir, "dsa.json")))

	n, err := f.srv.Store().Reload()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	w := f.do(t, http.MethodGet, scenePath(ordersKey, "scene.json"), nil)
	s, err := pipeline.UnmarshalScene(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 4, s.NodeCount(), "reloaded dataset must not show stale nodes")
	assert.Equal(t, int32(2), f.engine.calls.Load())
}

func TestReloadKeepsDatasetsOnError(t *testing.T) {
	f := newFixture(t, ordersDataset())
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "broken.json"), []byte("{"), 0o644))

	_, err := f.srv.Store().Reload()
	require.Error(t, err)
	assert.Equal(t, []string{ordersKey}, f.srv.Store().Keys())
}

func TestStoreReplaceUnmountsRemovedViews(t *testing.T) {
	f := newFixture(t, ordersDataset())
	f.do(t, http.MethodGet, scenePath(ordersKey, "scene.json"), nil)
	_, view, ok := f.srv.Store().Get(ordersKey)
	require.True(t, ok)

	f.srv.Store().Replace(map[string]*lineage.Dataset{})
	_, _, ok = f.srv.Store().Get(ordersKey)
	assert.False(t, ok)
	_, ready := view.Scene()
	assert.False(t, ready, "removed dataset's view should be unmounted")
}

func TestDatasetWithoutKeyUsesFileName(t *testing.T) {
	ds := ordersDataset()
	ds.Key = ""
	f := newFixture(t, ds)
	assert.Equal(t, []string{"dsa"}, f.srv.Store().Keys())
}

func TestAPIScene(t *testing.T) {
	f := newFixture(t)
	body, err := lineage.MarshalDataset(ordersDataset())
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/api/scene", strings.NewReader(string(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s, err := pipeline.UnmarshalScene(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 3, s.NodeCount())

	w = f.do(t, http.MethodPost, "/api/scene", strings.NewReader(`{"upstream_entities": [{"parent": "x"}]}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_DATASET")
}

func TestAPIRender(t *testing.T) {
	f := newFixture(t)
	body, err := lineage.MarshalDataset(ordersDataset())
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/api/render?format=dot", strings.NewReader(string(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/vnd.graphviz")
	assert.Contains(t, w.Body.String(), `"hive://gold.core/orders" -> "looker://sales/daily";`)

	w = f.do(t, http.MethodPost, "/api/render", strings.NewReader(string(body)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))

	w = f.do(t, http.MethodPost, "/api/render?format=gif", strings.NewReader(string(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_FORMAT")
}

type requestRecorder struct {
	observability.NoopServerHooks
	mu     sync.Mutex
	routes []string
}

func (r *requestRecorder) OnRequest(_ context.Context, method, route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, method+" "+route+" "+http.StatusText(status))
}

func TestRequestHooks(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	rec := &requestRecorder{}
	observability.SetServerHooks(rec)

	f := newFixture(t, ordersDataset())
	f.do(t, http.MethodGet, scenePath(ordersKey, "scene.svg"), nil)
	f.do(t, http.MethodGet, scenePath("nope", "scene.svg"), nil)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{
		"GET /lineage/{key}/scene.svg OK",
		"GET /lineage/{key}/scene.svg Not Found",
	}, rec.routes)
}

func TestServeListener_Shutdown(t *testing.T) {
	f := newFixture(t, ordersDataset())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.ServeListener(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	if testing.Short() {
		t.Skip("file watching in short mode")
	}
	f := newFixture(t, ordersDataset())
	f.srv.watch = true

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.ServeListener(ctx, ln) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	second := &lineage.Dataset{Key: "hive://gold.core/customers", UpstreamEntities: []lineage.Entity{{Key: "hive://gold.core/customers"}}}
	require.NoError(t, lineage.WriteDatasetFile(second, filepath.Join(f.dir, "customers.json")))

	require.Eventually(t, func() bool {
		return f.srv.Store().Len() == 2
	}, 5*time.Second, 50*time.Millisecond)
}
