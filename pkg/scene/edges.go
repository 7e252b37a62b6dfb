package scene

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/lineageview/pkg/layout"
)

// MarkerSize is the width and height of the caret drawn at each edge end.
const MarkerSize = 16.0

const (
	edgeColor         = "#ccc"
	edgeSelectedColor = "#555"
)

// caretPath is a right-pointing caret in a 256×512 box.
const caretPath = "M246.6 278.6c12.5-12.5 12.5-32.8 0-45.3l-128-128c-9.2-9.2-22.9-11.9-34.9-6.9s-19.8 16.6-19.8 29.6l0 256c0 12.9 7.8 24.6 19.8 29.6s25.7 2.2 34.9-6.9l128-128z"

// EdgeEnd is the terminal marker of one edge.
type EdgeEnd struct {
	layout.Point
	To       string
	Selected bool
}

// MarkSelected returns a copy of edges where an edge is selected when its
// target key is in keys. With no keys the input selection flags are kept.
func MarkSelected(edges []layout.Edge, keys []string) []layout.Edge {
	out := make([]layout.Edge, len(edges))
	copy(out, edges)
	if len(keys) == 0 {
		return out
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	for i := range out {
		_, out[i].Selected = set[out[i].To]
	}
	return out
}

// EdgeEnds returns one marker per edge, centered on the edge's last point.
// A marker is selected when any edge into the same target is selected, so
// markers that coincide on a shared target render alike.
func EdgeEnds(edges []layout.Edge) []EdgeEnd {
	selected := make(map[string]bool)
	for _, e := range edges {
		if e.Selected {
			selected[e.To] = true
		}
	}
	ends := make([]EdgeEnd, 0, len(edges))
	for _, e := range edges {
		if len(e.Points) == 0 {
			continue
		}
		ends = append(ends, EdgeEnd{Point: e.End(), To: e.To, Selected: selected[e.To]})
	}
	return ends
}

func renderEdges(buf *bytes.Buffer, id string, edges []layout.Edge) {
	for _, e := range edges {
		d := MonotoneX(e.Points)
		if d == "" {
			continue
		}
		class, stroke := "lineage-edge", edgeColor
		if e.Selected {
			class, stroke = "lineage-edge selected", edgeSelectedColor
		}
		fmt.Fprintf(buf, `    <path class="%s" data-from="%s" data-to="%s" d="%s" fill="none" stroke="%s" stroke-width="1" opacity="1" shape-rendering="geometricPrecision"/>`+"\n",
			class, escape(e.From), escape(e.To), d, stroke)
	}
	for _, end := range EdgeEnds(edges) {
		class, color := "lineage-edge-end", edgeColor
		if end.Selected {
			class, color = "lineage-edge-end selected", edgeSelectedColor
		}
		fmt.Fprintf(buf, `    <use class="%s" href="#%s-caret" x="%s" y="%s" width="%s" height="%s" color="%s"/>`+"\n",
			class, id, num(end.X-MarkerSize/2), num(end.Y-MarkerSize/2), num(MarkerSize), num(MarkerSize), color)
	}
}

func renderCaretSymbol(buf *bytes.Buffer, id string) {
	fmt.Fprintf(buf, `    <symbol id="%s-caret" viewBox="0 0 256 512"><path fill="currentColor" d="%s"/></symbol>`+"\n", id, caretPath)
}
