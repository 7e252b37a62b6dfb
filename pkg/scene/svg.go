package scene

import (
	"bytes"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/matzehuels/lineageview/pkg/icons"
	"github.com/matzehuels/lineageview/pkg/layout"
)

// Placeholder is rendered in place of the graph until a layout exists.
const Placeholder = `<span class="lineage-loading">Please wait...</span>`

const sceneCSS = `
    .lineage-scene { user-select: none; touch-action: none; }
    .lineage-label { font-family: -apple-system, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; fill: #292936; }
    .lineage-node .icon { font-family: -apple-system, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; font-weight: bold; fill: #9191a8; }
    .lineage-edge.selected { stroke-width: 1.5; }`

// panZoomJS drives the live transform of one scene. %[1]s is the element
// id, %[2]s the initial matrix values, %[3]s/%[4]s the zoom limits.
const panZoomJS = `
    (function () {
      var svg = document.getElementById('%[1]s');
      if (!svg) return;
      var groups = svg.querySelectorAll('.lineage-edges, .lineage-nodes');
      var m = [%[2]s];
      var drag = null;
      function apply() {
        var s = 'matrix(' + m.join(' ') + ')';
        groups.forEach(function (g) { g.setAttribute('transform', s); });
      }
      function at(ev) {
        var r = svg.getBoundingClientRect();
        return { x: ev.clientX - r.left, y: ev.clientY - r.top };
      }
      function end() { drag = null; svg.style.cursor = 'grab'; }
      svg.addEventListener('pointerdown', function (ev) {
        drag = at(ev);
        svg.style.cursor = 'grabbing';
        svg.setPointerCapture(ev.pointerId);
      });
      svg.addEventListener('pointermove', function (ev) {
        if (!drag) return;
        var p = at(ev);
        m[4] += p.x - drag.x;
        m[5] += p.y - drag.y;
        drag = p;
        apply();
      });
      svg.addEventListener('pointerup', end);
      svg.addEventListener('pointerleave', end);
      svg.addEventListener('wheel', function (ev) {
        ev.preventDefault();
        var p = at(ev);
        var next = Math.min(%[4]s, Math.max(%[3]s, m[0] * (ev.deltaY < 0 ? 1.1 : 1 / 1.1)));
        var k = next / m[0];
        for (var i = 0; i < 4; i++) m[i] *= k;
        m[4] = p.x - k * (p.x - m[4]);
        m[5] = p.y - k * (p.y - m[5]);
        apply();
      }, { passive: false });
    })();`

const pageCSS = `
      html, body { margin: 0; padding: 0; overflow: hidden; background: #fff; }
      .lineage-loading { display: block; padding: 1rem; font-family: sans-serif; color: #63637b; }`

// RenderOptions controls how a scene is drawn.
type RenderOptions struct {
	// Root is the key of the distinguished node. Empty means the scene's
	// own root.
	Root string
	// Selected lists entity keys whose incoming edges are highlighted.
	Selected []string
	// Viewport is the container size. Zero means [Dimensions](0, 0, Margin{}).
	Viewport Viewport
	// Transform is the initial pan/zoom state. Zero means [InitialTransform].
	Transform Transform
	// Icons resolves icon classes. Nil means the built-in mappings.
	Icons IconResolver
	// ID is the element id prefix. Empty means a random one.
	ID string
	// Static drops the interaction script and sizes the document to the
	// scene, for conversion to raster or print formats.
	Static bool
}

func (o RenderOptions) withDefaults(s *layout.Scene) RenderOptions {
	if o.Root == "" {
		o.Root = s.Root
	}
	if o.Viewport == (Viewport{}) {
		o.Viewport = Dimensions(0, 0, Margin{})
	}
	if o.Transform.IsZero() {
		if o.Static {
			o.Transform = Identity()
		} else {
			o.Transform = InitialTransform()
		}
	}
	if o.Icons == nil {
		o.Icons = icons.Default()
	}
	if o.ID == "" {
		o.ID = NewID()
	}
	return o
}

// NewID returns a fresh element id for a scene.
func NewID() string { return "lineage-" + uuid.NewString() }

// RenderSVG draws s as a standalone SVG document.
func RenderSVG(s *layout.Scene, opts RenderOptions) []byte {
	opts = opts.withDefaults(s)
	edges := MarkSelected(s.Edges, opts.Selected)
	matrix := opts.Transform.String()

	var buf bytes.Buffer
	if opts.Static {
		w, h := opts.Transform.ScaleX*s.Width, opts.Transform.ScaleY*s.Height
		fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" id="%s" class="lineage-scene" viewBox="0 0 %s %s" width="%s" height="%s">`+"\n",
			opts.ID, num(w), num(h), num(w), num(h))
	} else {
		fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" id="%s" class="lineage-scene" width="%s" height="%s" style="width: 100vw; height: 100vh; cursor: grab;">`+"\n",
			opts.ID, num(opts.Viewport.Width), num(opts.Viewport.Height))
	}

	renderDefs(&buf, opts.ID)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", sceneCSS)

	fmt.Fprintf(&buf, `  <g class="lineage-edges" transform="%s">`+"\n", matrix)
	renderEdges(&buf, opts.ID, edges)
	buf.WriteString("  </g>\n")

	fmt.Fprintf(&buf, `  <g class="lineage-nodes" transform="%s">`+"\n", matrix)
	renderNodes(&buf, opts.ID, s.Nodes, opts.Root, opts.Icons)
	buf.WriteString("  </g>\n")

	if !opts.Static {
		renderPanZoom(&buf, opts.ID, opts.Transform)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// RenderHTML wraps the interactive SVG of s in a minimal HTML page.
func RenderHTML(s *layout.Scene, title string, opts RenderOptions) []byte {
	opts.Static = false
	var buf bytes.Buffer
	WritePage(&buf, title, RenderSVG(s, opts))
	return buf.Bytes()
}

// WritePage writes an HTML page with body as its content.
func WritePage(w io.Writer, title string, body []byte) {
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n  <head>\n    <meta charset=\"utf-8\">\n    <title>%s</title>\n    <style>%s\n    </style>\n  </head>\n  <body>\n",
		escape(title), pageCSS)
	w.Write(body)
	io.WriteString(w, "  </body>\n</html>\n")
}

func renderDefs(buf *bytes.Buffer, id string) {
	buf.WriteString("  <defs>\n")
	fmt.Fprintf(buf, `    <filter id="%s-shadow" x="-10%%" y="-50%%" width="120%%" height="200%%"><feDropShadow dx="0" dy="0" stdDeviation="5" flood-color="#ccc" flood-opacity="1"/></filter>`+"\n", id)
	renderCaretSymbol(buf, id)
	buf.WriteString("  </defs>\n")
}

func renderPanZoom(buf *bytes.Buffer, id string, t Transform) {
	m := fmt.Sprintf("%s, %s, %s, %s, %s, %s",
		num(t.ScaleX), num(t.SkewY), num(t.SkewX), num(t.ScaleY), num(t.TranslateX), num(t.TranslateY))
	js := fmt.Sprintf(panZoomJS, id, m, num(MinScale), num(MaxScale))
	fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", js)
}
