// Package cli implements the lineageview command-line interface.
//
// # Commands
//
//   - layout: Compute the scene of a lineage dataset (scene.json)
//   - render: Draw a dataset or scene as SVG, HTML, JSON, DOT, PNG or PDF
//   - serve: Serve a directory of datasets over HTTP
//   - cache: Inspect and clear the scene/artifact cache
//   - config: Print the effective configuration
//
// # Configuration
//
// Settings are read from ~/.config/lineageview/config.toml (or --config) and
// overridden by flags given on the command line.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports every layout, render and cache event. Loggers are passed through
// context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at level, with timestamps
// formatted as "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long an operation took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Loaded 3 datasets (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context carrying l.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
