package layout

import (
	"bytes"
	"fmt"
	"strconv"
)

// ToDOT writes g as Graphviz DOT source with the same attributes the
// Graphviz engine applies, so the graph can be inspected or laid out with
// external Graphviz tools (`dot -Tsvg lineage.dot`).
func ToDOT(g *Graph) string {
	cfg := g.Config.WithDefaults()

	var buf bytes.Buffer
	buf.WriteString("digraph lineage {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankDir(cfg.Direction))
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(cfg.NodeSep))
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(cfg.RankSep))
	buf.WriteString("  node [shape=box, style=rounded, fixedsize=true];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [width=%s, height=%s];\n", n.ID, inches(n.Width), inches(n.Height))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func inches(px float64) string {
	return strconv.FormatFloat(px/pointsPerInch, 'f', -1, 64)
}

// SceneGraph returns the engine input a scene corresponds to: its nodes at
// their laid-out sizes and one edge per routed edge.
func SceneGraph(s *Scene, cfg Config) *Graph {
	g := &Graph{Config: cfg}
	for _, n := range s.Nodes {
		g.Nodes = append(g.Nodes, GraphNode{ID: n.Key(), Width: n.Width, Height: n.Height})
	}
	for _, e := range s.Edges {
		g.Edges = append(g.Edges, GraphEdge{From: e.From, To: e.To})
	}
	return g
}
