package scene

import (
	"context"
	"io"
	"sync"

	"github.com/matzehuels/lineageview/pkg/layout"
	"github.com/matzehuels/lineageview/pkg/lineage"
)

// State is the lifecycle state of a [View].
type State int

const (
	// Uninitialized views have no layout and render the placeholder.
	Uninitialized State = iota
	// Ready views hold the layout of their mounted dataset.
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}

// View caches the layout of one mounted dataset.
//
// The layout is computed at most once per dataset pointer: mounting the same
// *lineage.Dataset again reuses the cached scene, mounting a different one
// (even with identical content) recomputes it. Unmount discards everything,
// so a later mount starts from scratch. A View may be shared between
// goroutines.
type View struct {
	mu      sync.Mutex
	id      string
	cfg     layout.Config
	engine  layout.Engine
	state   State
	dataset *lineage.Dataset
	scene   *layout.Scene
	layouts int
}

// NewView returns an Uninitialized view. A nil engine means the Graphviz
// engine.
func NewView(cfg layout.Config, eng layout.Engine) *View {
	return &View{id: NewID(), cfg: cfg, engine: eng}
}

// ID returns the element id prefix used for this view's SVG.
func (v *View) ID() string { return v.id }

// State returns the current lifecycle state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Layouts returns how many layouts the view has computed.
func (v *View) Layouts() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.layouts
}

// Mount makes ds the view's dataset and returns its scene, computing the
// layout unless ds is already mounted. Layout errors are returned as is and
// leave the view Uninitialized.
func (v *View) Mount(ctx context.Context, ds *lineage.Dataset) (*layout.Scene, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == Ready && v.dataset == ds {
		return v.scene, nil
	}
	v.reset()

	s, err := layout.Compute(ctx, ds, v.cfg, v.engine)
	if err != nil {
		return nil, err
	}
	v.layouts++
	v.dataset, v.scene, v.state = ds, s, Ready
	return s, nil
}

// Scene returns the cached scene, if the view is Ready.
func (v *View) Scene() (*layout.Scene, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scene, v.state == Ready
}

// Unmount drops the dataset and scene and returns to Uninitialized.
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reset()
}

func (v *View) reset() {
	v.dataset, v.scene, v.state = nil, nil, Uninitialized
}

// Render writes the cached scene as SVG, or [Placeholder] when the view is
// Uninitialized. The view's id is used unless opts sets one.
func (v *View) Render(w io.Writer, opts RenderOptions) error {
	s, ok := v.Scene()
	if !ok {
		_, err := io.WriteString(w, Placeholder)
		return err
	}
	if opts.ID == "" {
		opts.ID = v.id
	}
	_, err := w.Write(RenderSVG(s, opts))
	return err
}
