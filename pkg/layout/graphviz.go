package layout

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// pointsPerInch converts pixel sizes to the inches Graphviz expects.
// Graphviz positions are reported in points and used as pixels unchanged.
const pointsPerInch = 72.0

// GraphvizEngine lays out graphs with Graphviz's dot algorithm, run
// in-process through go-graphviz. Ranks are assigned by network simplex.
//
// Each call opens and closes its own Graphviz context, so an engine value
// holds no state and is safe for concurrent use.
type GraphvizEngine struct{}

// NewGraphvizEngine returns a Graphviz-backed engine.
func NewGraphvizEngine() *GraphvizEngine { return &GraphvizEngine{} }

// Layout runs dot on g and reads node and edge positions back from the
// annotated DOT output.
func (e *GraphvizEngine) Layout(ctx context.Context, g *Graph) (*Result, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	gg, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("create graph: %w", err)
	}
	defer gg.Close()

	configureGraph(gg, g.Config)

	nodes := make(map[string]*graphviz.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		gn, err := gg.CreateNodeByName(n.ID)
		if err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.ID, err)
		}
		gn.SetShape(graphviz.BoxShape).
			SetFixedSize(true).
			SetWidth(n.Width / pointsPerInch).
			SetHeight(n.Height / pointsPerInch).
			SetLabel("")
		nodes[n.ID] = gn
	}

	for i, ed := range g.Edges {
		ge, err := gg.CreateEdgeByName(fmt.Sprintf("e%d", i), nodes[ed.From], nodes[ed.To])
		if err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", ed.From, ed.To, err)
		}
		ge.SetArrowHead(graphviz.NoneArrow)
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, gg, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return readPositions(buf.Bytes(), g.Config)
}

func configureGraph(gg *graphviz.Graph, cfg Config) {
	gg.SetRankDir(rankDir(cfg.Direction)).
		SetNodeSeparator(cfg.NodeSep / pointsPerInch).
		SetRankSeparator(cfg.RankSep / pointsPerInch)
}

func rankDir(d Direction) graphviz.RankDir {
	switch d {
	case DirectionRL:
		return graphviz.RLRank
	case DirectionTB:
		return graphviz.TBRank
	case DirectionBT:
		return graphviz.BTRank
	default:
		return graphviz.LRRank
	}
}

// readPositions parses laid-out DOT and converts Graphviz coordinates
// (points, y up, origin at the bounding box corner) to scene coordinates
// (y down, margins applied).
func readPositions(dot []byte, cfg Config) (*Result, error) {
	pg, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, fmt.Errorf("parse layout output: %w", err)
	}
	defer pg.Close()

	bb, err := parseBox(pg.GetStr("bb"))
	if err != nil {
		return nil, fmt.Errorf("bounding box: %w", err)
	}
	toScene := func(p Point) Point {
		return Point{X: p.X - bb.Min.X + cfg.MarginX, Y: bb.Max.Y - p.Y + cfg.MarginY}
	}

	res := &Result{
		Centers: make(map[string]Point),
		Routes:  make(map[GraphEdge][]Point),
		Width:   bb.Max.X - bb.Min.X + 2*cfg.MarginX,
		Height:  bb.Max.Y - bb.Min.Y + 2*cfg.MarginY,
	}

	n, err := pg.FirstNode()
	for ; err == nil && n != nil; n, err = pg.NextNode(n) {
		name, err := n.Name()
		if err != nil {
			return nil, fmt.Errorf("node name: %w", err)
		}
		p, err := parsePoint(n.GetStr("pos"))
		if err != nil {
			return nil, fmt.Errorf("node %s position: %w", name, err)
		}
		res.Centers[name] = toScene(p)

		if err := readRoutes(pg, n, name, res, toScene); err != nil {
			return nil, err
		}
	}
	if err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return res, nil
}

func readRoutes(pg *graphviz.Graph, n *graphviz.Node, from string, res *Result, toScene func(Point) Point) error {
	e, err := pg.FirstOut(n)
	for ; err == nil && e != nil; e, err = pg.NextOut(e) {
		head, err := e.Head()
		if err != nil {
			return fmt.Errorf("edge head: %w", err)
		}
		to, err := head.Name()
		if err != nil {
			return fmt.Errorf("edge head name: %w", err)
		}
		ctrl, err := parseSpline(e.GetStr("pos"))
		if err != nil {
			return fmt.Errorf("edge %s→%s route: %w", from, to, err)
		}
		pts := flattenBezier(ctrl)
		for i := range pts {
			pts[i] = toScene(pts[i])
		}
		res.Routes[GraphEdge{From: from, To: to}] = pts
	}
	if err != nil {
		return fmt.Errorf("iterate edges of %s: %w", from, err)
	}
	return nil
}
