package layout

import (
	"context"
	"testing"

	"github.com/matzehuels/lineageview/pkg/lineage"
)

func TestGraphvizEngine_LeftToRight(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping graphviz layout in short mode")
	}
	ds := &lineage.Dataset{
		Key: "B",
		UpstreamEntities: []lineage.Entity{
			{Key: "A"},
			{Key: "B", Parent: "A"},
		},
		DownstreamEntities: []lineage.Entity{
			{Key: "C", Parent: "B"},
			{Key: "D", Parent: "B"},
		},
	}
	s, err := Compute(context.Background(), ds, DefaultConfig(), NewGraphvizEngine())
	if err != nil {
		t.Fatal(err)
	}
	if s.NodeCount() != 4 || s.EdgeCount() != 3 {
		t.Fatalf("got %d nodes, %d edges; want 4, 3", s.NodeCount(), s.EdgeCount())
	}

	a, _ := s.Node("A")
	b, _ := s.Node("B")
	c, _ := s.Node("C")
	d, _ := s.Node("D")
	if !(a.X < b.X && b.X < c.X) {
		t.Errorf("ranks not left to right: A.x=%v B.x=%v C.x=%v", a.X, b.X, c.X)
	}
	if c.X != d.X {
		t.Errorf("siblings C and D on different ranks: %v vs %v", c.X, d.X)
	}
	if gap := b.X - (a.X + a.Width); gap < DefaultRankSep-1 {
		t.Errorf("rank gap = %v, want >= %v", gap, DefaultRankSep)
	}
	if a.Width != DefaultNodeWidth || a.Height != DefaultNodeHeight {
		t.Errorf("node size = %vx%v", a.Width, a.Height)
	}

	minX, minY := s.Width, s.Height
	for _, n := range s.Nodes {
		minX = min(minX, n.X)
		minY = min(minY, n.Y)
		if n.X+n.Width > s.Width || n.Y+n.Height > s.Height {
			t.Errorf("node %s outside scene %vx%v", n.Key(), s.Width, s.Height)
		}
	}
	if minX < DefaultMarginX-1 || minY < DefaultMarginY-1 {
		t.Errorf("margins not applied: min=(%v, %v)", minX, minY)
	}

	for _, e := range s.Edges {
		if len(e.Points) < 2 {
			t.Errorf("edge %s→%s has %d points", e.From, e.To, len(e.Points))
			continue
		}
		if e.Points[0].X > e.End().X {
			t.Errorf("edge %s→%s runs right to left", e.From, e.To)
		}
	}
}
