// Package render converts rendered SVG scenes to raster and print formats.
//
// Conversion shells out to rsvg-convert from librsvg, which handles the
// subset of SVG scenes use (paths, symbols, filters, text):
//
//	svg := scene.RenderSVG(s, scene.RenderOptions{Static: true})
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//	pdf, err := render.ToPDF(ctx, svg)
//
// Install librsvg with `brew install librsvg` (macOS) or
// `apt install librsvg2-bin` (Linux). [Available] reports whether it is on
// PATH.
package render
