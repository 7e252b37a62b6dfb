// Package layout positions lineage graphs using an external layout engine.
//
// # Overview
//
// This package is the adapter between a [lineage.Dataset] and a directed
// graph layout engine. It registers every entity as a fixed-size node,
// registers one parent → child edge per resolvable parent reference, runs
// the engine, and converts the result into a [Scene]: nodes with top-left
// coordinates and edges with routed point sequences.
//
//	scene, err := layout.Compute(ctx, ds, layout.DefaultConfig(), layout.NewGraphvizEngine())
//	for _, n := range scene.Nodes {
//	    fmt.Println(n.Entity.Key, n.X, n.Y)
//	}
//
// # Engines
//
// Node placement is delegated entirely. [GraphvizEngine] runs Graphviz's dot
// layout in-process through go-graphviz (network-simplex ranking, layered
// crossing minimization, spline routing). Any type implementing [Engine]
// can be plugged in instead.
//
// # Scenes are values
//
// Every call to [Compute] builds a fresh [Graph], runs the engine, and
// returns a new [Scene]. Nothing is retained between calls, so a scene
// computed for one dataset can never leak nodes into another.
//
// # Unresolvable parents
//
// An entity whose parent key is not among the registered nodes produces no
// edge. The node is still laid out and the dangling parent is listed in
// [Scene.Dropped]. This is not an error.
//
// [lineage.Dataset]: github.com/matzehuels/lineageview/pkg/lineage.Dataset
package layout
