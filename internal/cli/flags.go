package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineageview/pkg/layout"
	"github.com/matzehuels/lineageview/pkg/pipeline"
)

// Flags only override the config file when they are set on the command
// line, so their defaults are never copied into the options.

// layoutFlags holds the layout flags shared by layout, render and serve.
type layoutFlags struct {
	direction  string
	ranker     string
	nodeSep    float64
	rankSep    float64
	nodeWidth  float64
	nodeHeight float64
	marginX    float64
	marginY    float64
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	d := layout.DefaultConfig()
	fs := cmd.Flags()
	fs.StringVar(&f.direction, "direction", string(d.Direction), "layout direction: LR, RL, TB, BT")
	fs.StringVar(&f.ranker, "ranker", d.Ranker, "rank assignment (only network-simplex)")
	fs.Float64Var(&f.nodeSep, "node-sep", d.NodeSep, "gap between nodes of the same rank")
	fs.Float64Var(&f.rankSep, "rank-sep", d.RankSep, "gap between ranks")
	fs.Float64Var(&f.nodeWidth, "node-width", d.NodeWidth, "node width")
	fs.Float64Var(&f.nodeHeight, "node-height", d.NodeHeight, "node height")
	fs.Float64Var(&f.marginX, "margin-x", d.MarginX, "horizontal scene margin")
	fs.Float64Var(&f.marginY, "margin-y", d.MarginY, "vertical scene margin")
}

func (f *layoutFlags) apply(cmd *cobra.Command, cfg *layout.Config) {
	fs := cmd.Flags()
	if fs.Changed("direction") {
		cfg.Direction = layout.Direction(f.direction)
	}
	if fs.Changed("ranker") {
		cfg.Ranker = f.ranker
	}
	floats := []struct {
		name string
		src  float64
		dst  *float64
	}{
		{"node-sep", f.nodeSep, &cfg.NodeSep},
		{"rank-sep", f.rankSep, &cfg.RankSep},
		{"node-width", f.nodeWidth, &cfg.NodeWidth},
		{"node-height", f.nodeHeight, &cfg.NodeHeight},
		{"margin-x", f.marginX, &cfg.MarginX},
		{"margin-y", f.marginY, &cfg.MarginY},
	}
	for _, fl := range floats {
		if fs.Changed(fl.name) {
			*fl.dst = fl.src
		}
	}
}

// viewFlags holds the render flags of render and serve.
type viewFlags struct {
	root     string
	selected []string
	width    float64
	height   float64
	scale    float64
	fit      bool
	static   bool
	title    string
	pngScale float64
}

func (f *viewFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.root, "root", "", "key of the distinguished node (default: dataset key)")
	fs.StringSliceVar(&f.selected, "select", nil, "keys whose incoming edges are highlighted (repeatable)")
	fs.Float64Var(&f.width, "width", 0, "container width (default 1000)")
	fs.Float64Var(&f.height, "height", 0, "container height (default 800)")
	fs.Float64Var(&f.scale, "scale", 0, "initial zoom (default 0.8)")
	fs.BoolVar(&f.fit, "fit", false, "fit the scene into the container")
	fs.BoolVar(&f.static, "static", false, "omit the pan/zoom script")
	fs.StringVar(&f.title, "title", "", "HTML page title")
	fs.Float64Var(&f.pngScale, "png-scale", pipeline.DefaultPNGScale, "PNG resolution multiplier")
}

func (f *viewFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	fs := cmd.Flags()
	if fs.Changed("root") {
		opts.Root = f.root
	}
	if fs.Changed("select") {
		opts.Selected = f.selected
	}
	if fs.Changed("width") {
		opts.Width = f.width
	}
	if fs.Changed("height") {
		opts.Height = f.height
	}
	if fs.Changed("scale") {
		opts.Scale = f.scale
	}
	if fs.Changed("fit") {
		opts.Fit = f.fit
	}
	if fs.Changed("static") {
		opts.Static = f.static
	}
	if fs.Changed("title") {
		opts.Title = f.title
	}
	if fs.Changed("png-scale") {
		opts.PNGScale = f.pngScale
	}
}
