// Package pkg holds the libraries behind lineageview, a renderer for data
// lineage graphs.
//
// # Overview
//
// A lineage dataset lists entities (tables, dashboards, features, users)
// keyed by URI, each with at most one parent. lineageview lays the graph out
// left to right and draws it as an interactive SVG document with cubic
// Bézier edges between node anchors. The pkg directory is organized as:
//
//  1. [lineage] - Dataset model and JSON codec
//  2. [layout] - Positions and edge routes via Graphviz
//  3. [scene] - SVG drawing, viewport math and edge curves
//  4. [render] - Format conversion (SVG to PNG/PDF)
//  5. [pipeline] - Orchestration (dataset → layout → render) with caching
//
// # Architecture
//
//	Lineage dataset (file or URL)
//	         ↓
//	    [lineage] package (parse, validate keys)
//	         ↓
//	    [layout] package (rank, position, route)
//	         ↓
//	    [scene] package (nodes, edges, viewport)
//	         ↓
//	    SVG/HTML/PNG/PDF/JSON/DOT output
//
// # Quick Start
//
//	ds, _ := lineage.ReadDatasetFile("orders.json")
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	defer runner.Close()
//
//	res, _ := runner.Execute(ctx, ds, pipeline.Options{
//	    Formats:  []string{pipeline.FormatSVG},
//	    Selected: []string{"hive://gold.core/orders"},
//	})
//	os.WriteFile("orders.svg", res.Artifacts[pipeline.FormatSVG], 0o644)
//
// # Supporting Packages
//
// [cache] - File, Redis and null caches keyed by content hashes of the
// dataset and render options.
//
// [config] - TOML configuration shared by the CLI and the server.
//
// [httputil] - Cached, retrying HTTP fetches of remote datasets.
//
// [icons] - Built-in entity type icons and user overrides.
//
// [observability] - Hooks for pipeline, cache and server events.
//
// [errors] - Coded errors with HTTP status mapping and input validation.
//
// [lineage]: https://pkg.go.dev/github.com/matzehuels/lineageview/pkg/lineage
// [layout]: https://pkg.go.dev/github.com/matzehuels/lineageview/pkg/layout
// [scene]: https://pkg.go.dev/github.com/matzehuels/lineageview/pkg/scene
// [render]: https://pkg.go.dev/github.com/matzehuels/lineageview/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/lineageview/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/lineageview/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/lineageview/pkg/config
// [httputil]: https://pkg.go.dev/github.com/matzehuels/lineageview/pkg/httputil
// [icons]: https://pkg.go.dev/github.com/matzehuels/lineageview/pkg/icons
// [observability]: https://pkg.go.dev/github.com/matzehuels/lineageview/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/lineageview/pkg/errors
package pkg
