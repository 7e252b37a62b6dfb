// Package scene renders laid-out lineage graphs as SVG.
//
// A [layout.Scene] is drawn as two groups sharing one pan/zoom transform:
// edges first (monotone curves ending in a caret marker), then node boxes
// with an icon and a truncated label. The root entity's box gets a darker
// border and a drop shadow.
//
// # Views
//
// [View] owns the layout of one mounted lineage graph. It starts
// [Uninitialized]; mounting a dataset computes the layout once and moves it
// to [Ready]. Renders in the Ready state reuse the cached scene until a
// different dataset is mounted or the view is unmounted:
//
//	v := scene.NewView(layout.DefaultConfig(), nil)
//	if _, err := v.Mount(ctx, ds); err != nil {
//	    return err
//	}
//	err := v.Render(w, scene.RenderOptions{Selected: []string{"hive://gold.core/orders"}})
//
// An Uninitialized view renders [Placeholder] instead of the graph.
//
// # Interaction
//
// Interactive output embeds a small script: dragging pans (the cursor
// switches between grab and grabbing) and the wheel zooms around the
// pointer within [MinScale] and [MaxScale]. The initial transform is
// [InitialTransform]. Static output (for PNG/PDF conversion) omits the
// script and sizes the document to the scene.
package scene
