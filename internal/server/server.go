// Package server serves lineage scenes over HTTP.
//
// Datasets are loaded from a JSON file or a directory of JSON files and
// served under /lineage/{key}. Each dataset gets a [scene.View], so its
// layout is computed on first request and reused until the dataset changes.
// With Watch set, the data path is watched and datasets are reloaded when a
// file is written.
//
// Routes:
//
//	GET  /                          index of loaded datasets
//	GET  /lineage/{key}             HTML page that fetches the scene
//	GET  /lineage/{key}/scene.svg   rendered scene (?select=&width=&height=&scale=&fit=&static=)
//	GET  /lineage/{key}/scene.json  laid-out scene
//	POST /api/scene                 dataset body → scene JSON
//	POST /api/render                dataset body → artifact (?format=svg|html|json|dot|png|pdf)
//	GET  /healthz                   liveness
//
// Keys contain slashes, so they are path-escaped in URLs.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/lineageview/pkg/observability"
	"github.com/matzehuels/lineageview/pkg/pipeline"
)

const (
	shutdownTimeout = 5 * time.Second
	reloadDebounce  = 100 * time.Millisecond
	maxBodyBytes    = 16 << 20
)

// Config holds configuration for the server.
type Config struct {
	Addr    string
	Data    string // dataset file or directory
	Watch   bool
	Runner  *pipeline.Runner
	Options pipeline.Options // base options; requests override render fields
	Logger  *log.Logger
}

// Server serves the datasets of one data path.
type Server struct {
	addr    string
	watch   bool
	runner  *pipeline.Runner
	opts    pipeline.Options
	store   *Store
	logger  *log.Logger
	handler http.Handler
}

// New loads the datasets and builds the router.
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Logger == nil {
		cfg.Logger = cfg.Runner.Logger
	}
	opts := cfg.Options
	opts.Logger = cfg.Logger
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}

	s := &Server{
		addr:   cfg.Addr,
		watch:  cfg.Watch,
		runner: cfg.Runner,
		opts:   opts,
		store:  NewStore(cfg.Data, opts.Layout, opts.Engine),
		logger: cfg.Logger,
	}
	if cfg.Data != "" {
		n, err := s.store.Reload()
		if err != nil {
			return nil, err
		}
		s.logger.Info("loaded datasets", "count", n, "path", cfg.Data)
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Store returns the dataset store.
func (s *Server) Store() *Store { return s.store }

func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		s.observe,
		middleware.Compress(5),
	)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Route("/lineage/{key}", func(r chi.Router) {
		r.Get("/", s.handlePage)
		r.Get("/scene.svg", s.handleSceneSVG)
		r.Get("/scene.json", s.handleSceneJSON)
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/scene", s.handleAPIScene)
		r.Post("/render", s.handleAPIRender)
	})
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("serving lineage", "addr", "http://"+ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && s.store.Path() != "" {
		eg.Go(func() error {
			return s.watchData(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// reload re-reads the data path and reports the outcome to the hooks.
func (s *Server) reload(ctx context.Context) {
	n, err := s.store.Reload()
	observability.Server().OnReload(ctx, n, err)
	if err != nil {
		s.logger.Error("reload failed, keeping previous datasets", "error", err)
		return
	}
	s.logger.Info("reloaded datasets", "count", n)
}

// observe reports every request to the server hooks and logs it at debug
// level.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		observability.Server().OnRequest(r.Context(), r.Method, route, status, dur)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", dur,
			"id", middleware.GetReqID(r.Context()))
	})
}
