package scene

import (
	"fmt"

	"github.com/matzehuels/lineageview/pkg/layout"
)

// Zoom limits enforced by the interaction script and [Transform.Clamp].
const (
	MinScale     = 0.1
	MaxScale     = 4.0
	InitialScale = 0.8
)

// Transform is a 2D affine pan/zoom state:
//
//	| ScaleX SkewX TranslateX |
//	| SkewY ScaleY TranslateY |
type Transform struct {
	ScaleX     float64 `json:"scale_x"`
	ScaleY     float64 `json:"scale_y"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	SkewX      float64 `json:"skew_x"`
	SkewY      float64 `json:"skew_y"`
}

// Identity returns the identity transform.
func Identity() Transform { return Transform{ScaleX: 1, ScaleY: 1} }

// InitialTransform is the transform a scene starts with: 80% scale, no
// translation or skew.
func InitialTransform() Transform {
	return Transform{ScaleX: InitialScale, ScaleY: InitialScale}
}

// IsZero reports whether t is the zero value (not a usable transform).
func (t Transform) IsZero() bool { return t == Transform{} }

// Compose returns t applied after u.
func (t Transform) Compose(u Transform) Transform {
	return Transform{
		ScaleX:     t.ScaleX*u.ScaleX + t.SkewX*u.SkewY,
		SkewX:      t.ScaleX*u.SkewX + t.SkewX*u.ScaleY,
		TranslateX: t.ScaleX*u.TranslateX + t.SkewX*u.TranslateY + t.TranslateX,
		SkewY:      t.SkewY*u.ScaleX + t.ScaleY*u.SkewY,
		ScaleY:     t.SkewY*u.SkewX + t.ScaleY*u.ScaleY,
		TranslateY: t.SkewY*u.TranslateX + t.ScaleY*u.TranslateY + t.TranslateY,
	}
}

// Translate pans by (dx, dy) in screen space.
func (t Transform) Translate(dx, dy float64) Transform {
	t.TranslateX += dx
	t.TranslateY += dy
	return t
}

// ScaleAt zooms by factor k around the screen point (cx, cy), which stays
// fixed.
func (t Transform) ScaleAt(k, cx, cy float64) Transform {
	zoom := Transform{ScaleX: k, ScaleY: k, TranslateX: cx - k*cx, TranslateY: cy - k*cy}
	return zoom.Compose(t)
}

// Clamp limits the scale to [MinScale, MaxScale], keeping the point at the
// origin of the scene where it is on screen.
func (t Transform) Clamp() Transform {
	s := min(MaxScale, max(MinScale, t.ScaleX))
	if s == t.ScaleX || t.ScaleX == 0 {
		return t
	}
	return t.ScaleAt(s/t.ScaleX, t.TranslateX, t.TranslateY)
}

// Apply maps a scene point to screen space.
func (t Transform) Apply(p layout.Point) layout.Point {
	return layout.Point{
		X: t.ScaleX*p.X + t.SkewX*p.Y + t.TranslateX,
		Y: t.SkewY*p.X + t.ScaleY*p.Y + t.TranslateY,
	}
}

// Invert returns the inverse transform. ok is false when t is singular.
func (t Transform) Invert() (inv Transform, ok bool) {
	det := t.ScaleX*t.ScaleY - t.SkewX*t.SkewY
	if det == 0 {
		return Transform{}, false
	}
	return Transform{
		ScaleX:     t.ScaleY / det,
		SkewX:      -t.SkewX / det,
		SkewY:      -t.SkewY / det,
		ScaleY:     t.ScaleX / det,
		TranslateX: (t.SkewX*t.TranslateY - t.ScaleY*t.TranslateX) / det,
		TranslateY: (t.SkewY*t.TranslateX - t.ScaleX*t.TranslateY) / det,
	}, true
}

// String formats t as an SVG transform attribute value.
func (t Transform) String() string {
	return fmt.Sprintf("matrix(%s %s %s %s %s %s)",
		num(t.ScaleX), num(t.SkewY), num(t.SkewX), num(t.ScaleY), num(t.TranslateX), num(t.TranslateY))
}

// Fit returns a transform that scales the scene to fit inside vp (never
// above [InitialScale]) and centers it.
func Fit(width, height float64, vp Viewport) Transform {
	if width <= 0 || height <= 0 || vp.Width <= 0 || vp.Height <= 0 {
		return InitialTransform()
	}
	k := min(InitialScale, vp.Width/width, vp.Height/height)
	k = min(MaxScale, max(MinScale, k))
	return Transform{
		ScaleX:     k,
		ScaleY:     k,
		TranslateX: (vp.Width - width*k) / 2,
		TranslateY: (vp.Height - height*k) / 2,
	}
}
