package scene

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matzehuels/lineageview/pkg/icons"
	"github.com/matzehuels/lineageview/pkg/layout"
)

const (
	boxInset      = 2.5 // box is 5px smaller than the node and centered in it
	boxRadius     = 4.0
	iconSize      = 16.0
	iconMargin    = 8.0
	labelPadding  = 8.0
	labelFontSize = 14.0
	charWidth     = 0.55 // average glyph width relative to font size
	ellipsis      = "…"
)

// IconResolver maps a data source to an icon CSS class.
type IconResolver interface {
	SourceIconClass(source string, rt icons.ResourceType) string
}

// NodeLabel returns the node's display key truncated with an ellipsis to
// fit the label area of a box of the given width.
func NodeLabel(label string, width float64) string {
	avail := width - 2*boxInset - iconMargin - iconSize - 2*labelPadding
	maxChars := max(2, int(avail/(labelFontSize*charWidth)))
	if utf8.RuneCountInString(label) <= maxChars {
		return label
	}
	r := []rune(label)
	return string(r[:maxChars-1]) + ellipsis
}

func renderNodes(buf *bytes.Buffer, id string, nodes []layout.Node, root string, resolver IconResolver) {
	for _, n := range nodes {
		renderNode(buf, id, n, n.Key() == root, resolver)
	}
}

func renderNode(buf *bytes.Buffer, id string, n layout.Node, isRoot bool, resolver IconResolver) {
	class, stroke, filter := "lineage-node", "#ccc", ""
	if isRoot {
		class, stroke = "lineage-node root", "black"
		filter = fmt.Sprintf(` filter="url(#%s-shadow)"`, id)
	}
	key := n.Key()
	source := n.Entity.IconSource()
	iconClass := "icon icon-header " + resolver.SourceIconClass(source, icons.Table)
	cy := n.Height / 2

	fmt.Fprintf(buf, `    <g class="%s" data-key="%s" transform="translate(%s,%s)">`+"\n",
		class, escape(key), num(n.X), num(n.Y))
	fmt.Fprintf(buf, "      <title>%s</title>\n", escape(n.Entity.DisplayLabel()))
	fmt.Fprintf(buf, `      <rect x="%s" y="%s" width="%s" height="%s" rx="%s" fill="white" stroke="%s" stroke-width="1"%s/>`+"\n",
		num(boxInset), num(boxInset), num(n.Width-2*boxInset), num(n.Height-2*boxInset), num(boxRadius), stroke, filter)
	fmt.Fprintf(buf, `      <text class="%s" data-source="%s" x="%s" y="%s" font-size="%s" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
		iconClass, escape(source), num(boxInset+iconMargin+iconSize/2), num(cy), num(iconSize*0.75), escape(iconGlyph(source)))
	fmt.Fprintf(buf, `      <text class="lineage-label" x="%s" y="%s" font-size="%s" dominant-baseline="central">%s</text>`+"\n",
		num(boxInset+iconMargin+iconSize+labelPadding), num(cy), num(labelFontSize), escape(NodeLabel(n.Entity.DisplayLabel(), n.Width)))
	buf.WriteString("    </g>\n")
}

// iconGlyph is the text shown in the icon slot when no icon font is
// loaded: the source's initial, or a dot.
func iconGlyph(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return "•"
	}
	r, _ := utf8.DecodeRuneInString(source)
	return string(unicode.ToUpper(r))
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
