// Package lineage defines the data model for lineage graphs.
//
// # Overview
//
// A lineage graph describes which data entities (tables, dashboards,
// features) feed into which. The model is the one returned by a lineage
// API: a [Dataset] lists the entities upstream and downstream of a focal
// entity, and each [Entity] names its parent by key.
//
//	ds, err := lineage.ReadDatasetFile("orders.json")
//	for _, e := range ds.Entities() {
//	    fmt.Println(e.Key, e.Parent)
//	}
//
// # Parents and Edges
//
// An entity with a non-empty Parent describes the directed relationship
// parent → entity. [Dataset.Relations] lists these relationships in input
// order. Parents that reference keys absent from the dataset are reported
// by [Dataset.Dangling]; they are not an error at this layer.
//
// # Duplicates
//
// The same key may appear in both the upstream and downstream lists. The
// package does not deduplicate: consumers decide how to merge (the layout
// adapter keeps the last occurrence).
package lineage
