package scene

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/lineageview/pkg/layout"
)

func fanIn() []layout.Edge {
	end := layout.Point{X: 580, Y: 65}
	return []layout.Edge{
		{From: "A", To: "C", Points: []layout.Point{{X: 440, Y: 25}, end}},
		{From: "B", To: "C", Points: []layout.Point{{X: 440, Y: 105}, end}},
		{From: "A", To: "D", Points: []layout.Point{{X: 440, Y: 25}, {X: 580, Y: 165}}},
	}
}

func TestEdgeEnds_CoincidentTerminiShareSelection(t *testing.T) {
	edges := fanIn()
	edges[0].Selected = true

	ends := EdgeEnds(edges)
	if len(ends) != 3 {
		t.Fatalf("got %d ends, want 3", len(ends))
	}
	if !ends[0].Selected || !ends[1].Selected {
		t.Errorf("coincident ends not both selected: %+v", ends[:2])
	}
	if ends[0].Point != ends[1].Point {
		t.Errorf("ends at %v and %v, want same point", ends[0].Point, ends[1].Point)
	}
	if ends[2].Selected {
		t.Error("unrelated end marked selected")
	}
}

func TestEdgeEnds_NoneSelected(t *testing.T) {
	for _, e := range EdgeEnds(fanIn()) {
		if e.Selected {
			t.Errorf("end %+v selected without any selected edge", e)
		}
	}
}

func TestEdgeEnds_SkipsEmptyRoutes(t *testing.T) {
	ends := EdgeEnds([]layout.Edge{{From: "A", To: "B"}})
	if len(ends) != 0 {
		t.Errorf("EdgeEnds = %v, want none", ends)
	}
}

func TestMarkSelected(t *testing.T) {
	in := fanIn()
	in[2].Selected = true

	got := MarkSelected(in, []string{"C"})
	if !got[0].Selected || !got[1].Selected || got[2].Selected {
		t.Errorf("MarkSelected(C) flags = %v %v %v", got[0].Selected, got[1].Selected, got[2].Selected)
	}
	if !in[2].Selected || in[0].Selected {
		t.Error("MarkSelected modified its input")
	}

	kept := MarkSelected(in, nil)
	if !kept[2].Selected {
		t.Error("MarkSelected(nil) dropped input selection")
	}
}

func TestRenderEdges(t *testing.T) {
	edges := MarkSelected(fanIn(), []string{"D"})
	var buf bytes.Buffer
	renderEdges(&buf, "v1", edges)
	out := buf.String()

	if n := strings.Count(out, "<path "); n != 3 {
		t.Errorf("got %d paths, want 3", n)
	}
	if n := strings.Count(out, `href="#v1-caret"`); n != 3 {
		t.Errorf("got %d markers, want 3", n)
	}
	if !strings.Contains(out, `x="572" y="157"`) {
		t.Errorf("marker for D not centered on its end point:\n%s", out)
	}
	if n := strings.Count(out, `class="lineage-edge selected"`); n != 1 {
		t.Errorf("got %d selected paths, want 1", n)
	}
	if !strings.Contains(out, `shape-rendering="geometricPrecision"`) {
		t.Error("missing geometricPrecision rendering hint")
	}
}
