package layout

import (
	"context"

	"github.com/matzehuels/lineageview/pkg/lineage"
)

// Point is a position in scene space. Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GraphNode is a node registered with an engine.
type GraphNode struct {
	ID     string
	Width  float64
	Height float64
}

// GraphEdge is a directed edge registered with an engine.
type GraphEdge struct {
	From string
	To   string
}

// Graph is the engine input: fixed-size nodes, directed edges and the
// configuration the engine should honor.
type Graph struct {
	Config Config
	Nodes  []GraphNode
	Edges  []GraphEdge
}

// Result is what an engine produces for a [Graph].
//
// Centers are node center coordinates and Routes are edge polylines, both in
// final scene space: y grows downward and the configured margins are already
// applied. Width and Height span the whole scene including margins.
type Result struct {
	Centers map[string]Point
	Routes  map[GraphEdge][]Point
	Width   float64
	Height  float64
}

// Engine assigns positions to a graph. Implementations must be synchronous
// and must not retain g after returning.
type Engine interface {
	Layout(ctx context.Context, g *Graph) (*Result, error)
}

// EngineFunc adapts a function to the [Engine] interface.
type EngineFunc func(ctx context.Context, g *Graph) (*Result, error)

// Layout calls f(ctx, g).
func (f EngineFunc) Layout(ctx context.Context, g *Graph) (*Result, error) { return f(ctx, g) }

// BuildGraph registers the dataset with a fresh graph.
//
// Every entity becomes a node of the configured size, upstream entities
// first. A repeated key keeps its first position but takes the entity data
// of its last occurrence. Each entity with a parent present among the nodes
// adds one parent → child edge; repeated pairs collapse into one. Relations
// whose parent is missing are returned as dropped.
func BuildGraph(ds *lineage.Dataset, cfg Config) (*Graph, map[string]lineage.Entity, []lineage.Relation) {
	all := ds.Entities()
	g := &Graph{Config: cfg}
	entities := make(map[string]lineage.Entity, len(all))

	for _, e := range all {
		if _, exists := entities[e.Key]; !exists {
			g.Nodes = append(g.Nodes, GraphNode{ID: e.Key, Width: cfg.NodeWidth, Height: cfg.NodeHeight})
		}
		entities[e.Key] = e
	}

	seen := make(map[GraphEdge]struct{})
	var dropped []lineage.Relation
	for _, e := range all {
		if !e.HasParent() {
			continue
		}
		if _, ok := entities[e.Parent]; !ok {
			dropped = append(dropped, lineage.Relation{Parent: e.Parent, Child: e.Key})
			continue
		}
		ge := GraphEdge{From: e.Parent, To: e.Key}
		if _, dup := seen[ge]; dup {
			continue
		}
		seen[ge] = struct{}{}
		g.Edges = append(g.Edges, ge)
	}
	return g, entities, dropped
}
