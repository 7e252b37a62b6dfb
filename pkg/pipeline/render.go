package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	lverrors "github.com/matzehuels/lineageview/pkg/errors"
	"github.com/matzehuels/lineageview/pkg/layout"
	"github.com/matzehuels/lineageview/pkg/render"
	"github.com/matzehuels/lineageview/pkg/scene"
)

// Render generates output artifacts for s in the requested formats.
// PNG and PDF are converted from the static SVG and need rsvg-convert.
func Render(ctx context.Context, s *layout.Scene, opts Options) (map[string][]byte, error) {
	if s == nil {
		return nil, lverrors.New(lverrors.ErrCodeInvalidInput, "scene must not be nil")
	}
	ro := opts.RenderOptions(s)
	artifacts := make(map[string][]byte, len(opts.Formats))

	var static []byte
	staticSVG := func() []byte {
		if static == nil {
			so := ro
			so.Static = true
			so.Transform = scene.Transform{}
			static = scene.RenderSVG(s, so)
		}
		return static
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = scene.RenderSVG(s, ro)
		case FormatHTML:
			data = scene.RenderHTML(s, opts.Title, ro)
		case FormatJSON:
			data, err = MarshalScene(s)
		case FormatPNG:
			data, err = render.ToPNG(ctx, staticSVG(), opts.PNGScale)
		case FormatPDF:
			data, err = render.ToPDF(ctx, staticSVG())
		case FormatDOT:
			data = []byte(layout.ToDOT(layout.SceneGraph(s, opts.Layout)))
		default:
			return nil, lverrors.New(lverrors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if errors.Is(err, render.ErrConverterMissing) {
			return nil, lverrors.Wrap(lverrors.ErrCodeUnsupported, err, "render %s: install rsvg-convert (librsvg)", format)
		}
		if err != nil {
			return nil, lverrors.Wrap(lverrors.ErrCodeRenderFailed, err, "render %s", format)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// MarshalScene encodes a scene as indented JSON.
func MarshalScene(s *layout.Scene) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scene: %w", err)
	}
	return append(data, '\n'), nil
}

// UnmarshalScene decodes a scene written by [MarshalScene].
func UnmarshalScene(data []byte) (*layout.Scene, error) {
	var s layout.Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, lverrors.Wrap(lverrors.ErrCodeInvalidInput, err, "parse scene")
	}
	if s.Nodes == nil {
		return nil, lverrors.New(lverrors.ErrCodeInvalidInput, "scene has no nodes array")
	}
	return &s, nil
}
