// Package pipeline provides the layout → render pipeline shared by the CLI
// and the HTTP server.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Layout: place the dataset's entities and route their relations
//  2. Render: draw the scene in one or more output formats (SVG, HTML,
//     JSON, PNG, PDF, DOT)
//
// Each stage can run on its own, and each is cached by content hash: the
// scene by dataset and layout options, artifacts by scene and render options.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, ds, pipeline.Options{
//	    Formats:  []string{"svg"},
//	    Selected: []string{"hive://gold.core/orders"},
//	})
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	s, err := runner.ComputeScene(ctx, ds, opts)
//	artifacts, err := runner.Render(ctx, s, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineageview/pkg/cache"
	lverrors "github.com/matzehuels/lineageview/pkg/errors"
	"github.com/matzehuels/lineageview/pkg/icons"
	"github.com/matzehuels/lineageview/pkg/layout"
	"github.com/matzehuels/lineageview/pkg/scene"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultPNGScale is the resolution multiplier for PNG output.
const DefaultPNGScale = 2.0

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatHTML = "html"
	FormatJSON = "json"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
)

// Formats lists the supported output formats.
var Formats = []string{FormatSVG, FormatHTML, FormatJSON, FormatPNG, FormatPDF, FormatDOT}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Layout layout.Config `json:"layout"`

	// Render options
	Formats  []string     `json:"formats,omitempty"`
	Root     string       `json:"root,omitempty"`     // distinguished node, default the dataset key
	Selected []string     `json:"selected,omitempty"` // keys whose incoming edges are highlighted
	Width    float64      `json:"width,omitempty"`
	Height   float64      `json:"height,omitempty"`
	Margin   scene.Margin `json:"margin,omitempty"`
	Scale    float64      `json:"scale,omitempty"` // initial zoom of interactive output
	Fit      bool         `json:"fit,omitempty"`   // fit the scene into the viewport instead
	PNGScale float64      `json:"png_scale,omitempty"`
	Static   bool         `json:"static,omitempty"` // SVG without the pan/zoom script
	Title    string       `json:"title,omitempty"`  // HTML page title
	Refresh  bool         `json:"refresh,omitempty"`

	// Icons overrides the built-in source → icon class mappings.
	Icons map[icons.ResourceType]map[string]string `json:"icons,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger   `json:"-"`
	Engine layout.Engine `json:"-"` // nil means Graphviz

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Scene     *layout.Scene
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	Dropped    int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the scene came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	return lverrors.ValidateFormat(format, Formats)
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults and checks the options for the
// full pipeline. Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	o.Layout = o.Layout.WithDefaults()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := o.Layout.Validate(); err != nil {
		return lverrors.Wrap(lverrors.ErrCodeInvalidConfig, err, "layout options")
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.Title == "" {
		o.Title = "Lineage"
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 {
		return lverrors.New(lverrors.ErrCodeInvalidInput, "width and height must not be negative")
	}
	if o.Scale != 0 && (o.Scale < scene.MinScale || o.Scale > scene.MaxScale) {
		return lverrors.New(lverrors.ErrCodeInvalidInput, "scale must be between %g and %g", scene.MinScale, scene.MaxScale)
	}
	if o.PNGScale < 0 {
		return lverrors.New(lverrors.ErrCodeInvalidInput, "png scale must not be negative")
	}
	for _, key := range o.Selected {
		if err := lverrors.ValidateEntityKey(key); err != nil {
			return err
		}
	}
	return nil
}

// Viewport resolves the configured container size.
func (o *Options) Viewport() scene.Viewport {
	return scene.Dimensions(o.Width, o.Height, o.Margin)
}

// RenderOptions returns the scene render options for s.
func (o *Options) RenderOptions(s *layout.Scene) scene.RenderOptions {
	ro := scene.RenderOptions{
		Root:     o.Root,
		Selected: o.Selected,
		Viewport: o.Viewport(),
		Static:   o.Static,
	}
	switch {
	case o.Fit:
		ro.Transform = scene.Fit(s.Width, s.Height, ro.Viewport)
	case o.Scale != 0:
		ro.Transform = scene.Transform{ScaleX: o.Scale, ScaleY: o.Scale}
	}
	if len(o.Icons) > 0 {
		ro.Icons = icons.NewResolver(o.Icons)
	}
	return ro
}

// SceneKeyOpts returns cache key options for layout computation.
func (o *Options) SceneKeyOpts() cache.SceneKeyOpts {
	c := o.Layout.WithDefaults()
	return cache.SceneKeyOpts{
		Direction:  string(c.Direction),
		Ranker:     c.Ranker,
		MarginX:    c.MarginX,
		MarginY:    c.MarginY,
		NodeSep:    c.NodeSep,
		RankSep:    c.RankSep,
		NodeWidth:  c.NodeWidth,
		NodeHeight: c.NodeHeight,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	vp := o.Viewport()
	opts := cache.ArtifactKeyOpts{
		Format:   format,
		Root:     o.Root,
		Selected: o.Selected,
		Width:    vp.Width,
		Height:   vp.Height,
		Scale:    o.Scale,
		Fit:      o.Fit,
		Static:   o.Static,
	}
	switch format {
	case FormatHTML:
		opts.Title = o.Title
	case FormatPNG:
		opts.Scale = o.PNGScale
	}
	if len(o.Icons) > 0 {
		opts.Icons, _ = cache.HashJSON(o.Icons)
	}
	return opts
}
