package scene

// Default container size used when the host reports no dimensions.
const (
	DefaultWidth  = 1000.0
	DefaultHeight = 800.0
)

// Margin is space reserved around the scene inside its container.
type Margin struct {
	Top    float64 `json:"top" toml:"top"`
	Right  float64 `json:"right" toml:"right"`
	Bottom float64 `json:"bottom" toml:"bottom"`
	Left   float64 `json:"left" toml:"left"`
}

// Viewport is the drawable area of the container in pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Dimensions resolves the viewport for a container of the given size. A
// zero (or negative) width or height falls back to the default size, and the
// margins are subtracted afterwards.
func Dimensions(width, height float64, m Margin) Viewport {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return Viewport{
		Width:  max(0, width-(m.Left+m.Right)),
		Height: max(0, height-(m.Top+m.Bottom)),
	}
}
