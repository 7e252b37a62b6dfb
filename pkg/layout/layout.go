package layout

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/lineageview/pkg/lineage"
)

var (
	// ErrNilDataset is returned by [Compute] when no dataset is given.
	ErrNilDataset = errors.New("dataset must not be nil")

	// ErrMissingPosition is returned by [Compute] when the engine did not
	// position a registered node.
	ErrMissingPosition = errors.New("engine returned no position for node")
)

// Node is a laid-out entity. X and Y are the top-left corner of its box.
type Node struct {
	Entity lineage.Entity `json:"entity"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
}

// Key returns the entity key of the node.
func (n Node) Key() string { return n.Entity.Key }

// Center returns the center of the node box.
func (n Node) Center() Point {
	return Point{X: n.X + n.Width/2, Y: n.Y + n.Height/2}
}

// Edge is a parent → child relationship with its routed polyline.
type Edge struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Points   []Point `json:"points"`
	Selected bool    `json:"selected,omitempty"`
}

// End returns the terminal point of the edge.
func (e Edge) End() Point {
	if len(e.Points) == 0 {
		return Point{}
	}
	return e.Points[len(e.Points)-1]
}

// Scene is the result of one layout computation.
type Scene struct {
	Root    string             `json:"root,omitempty"`
	Width   float64            `json:"width"`
	Height  float64            `json:"height"`
	Nodes   []Node             `json:"nodes"`
	Edges   []Edge             `json:"edges"`
	Dropped []lineage.Relation `json:"dropped,omitempty"`
}

// Node returns the laid-out node with the given key.
func (s *Scene) Node(key string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.Key() == key {
			return n, true
		}
	}
	return Node{}, false
}

// NodeCount returns the number of laid-out nodes.
func (s *Scene) NodeCount() int { return len(s.Nodes) }

// EdgeCount returns the number of routed edges.
func (s *Scene) EdgeCount() int { return len(s.Edges) }

// Compute lays out a dataset.
//
// The configuration is completed with defaults and validated first; a nil
// engine means [NewGraphvizEngine]. Node boxes are placed at the engine's
// center coordinates minus half the node size. An edge for which the engine
// returned fewer than two points is drawn straight between the two node
// centers.
func Compute(ctx context.Context, ds *lineage.Dataset, cfg Config, eng Engine) (*Scene, error) {
	if ds == nil {
		return nil, ErrNilDataset
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if eng == nil {
		eng = NewGraphvizEngine()
	}

	g, entities, dropped := BuildGraph(ds, cfg)
	scene := &Scene{
		Root:    ds.Key,
		Dropped: dropped,
		Nodes:   make([]Node, 0, len(g.Nodes)),
		Edges:   make([]Edge, 0, len(g.Edges)),
	}
	if len(g.Nodes) == 0 {
		scene.Width, scene.Height = 2*cfg.MarginX, 2*cfg.MarginY
		return scene, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := eng.Layout(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("layout engine: %w", err)
	}
	scene.Width, scene.Height = res.Width, res.Height

	for _, gn := range g.Nodes {
		c, ok := res.Centers[gn.ID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingPosition, gn.ID)
		}
		scene.Nodes = append(scene.Nodes, Node{
			Entity: entities[gn.ID],
			X:      c.X - gn.Width/2,
			Y:      c.Y - gn.Height/2,
			Width:  gn.Width,
			Height: gn.Height,
		})
	}

	for _, ge := range g.Edges {
		pts := res.Routes[ge]
		if len(pts) < 2 {
			pts = []Point{res.Centers[ge.From], res.Centers[ge.To]}
		}
		scene.Edges = append(scene.Edges, Edge{From: ge.From, To: ge.To, Points: pts})
	}

	return scene, nil
}
