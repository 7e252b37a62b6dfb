package scene

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/lineageview/pkg/layout"
)

// MonotoneX returns SVG path data for a cubic curve through pts that is
// monotone in y between consecutive points when the points are ordered in x,
// so the curve never overshoots. Slopes follow Fritsch–Carlson. Consecutive
// coincident points are ignored.
func MonotoneX(pts []layout.Point) string {
	var m monotoneX
	for _, p := range pts {
		m.point(p.X, p.Y)
	}
	m.end()
	return m.b.String()
}

type monotoneX struct {
	b              strings.Builder
	n              int
	x0, y0, x1, y1 float64
	t0             float64
}

func (m *monotoneX) point(x, y float64) {
	if m.n > 0 && x == m.x1 && y == m.y1 {
		return
	}
	var t1 float64
	switch m.n {
	case 0:
		m.moveTo(x, y)
	case 1:
	case 2:
		t1 = slope3(m.x0, m.y0, m.x1, m.y1, x, y)
		m.segment(slope2(m.x0, m.y0, m.x1, m.y1, t1), t1)
	default:
		t1 = slope3(m.x0, m.y0, m.x1, m.y1, x, y)
		m.segment(m.t0, t1)
	}
	if m.n < 3 {
		m.n++
	}
	m.x0, m.x1 = m.x1, x
	m.y0, m.y1 = m.y1, y
	m.t0 = t1
}

func (m *monotoneX) end() {
	switch m.n {
	case 2:
		m.b.WriteString("L" + num(m.x1) + "," + num(m.y1))
	case 3:
		m.segment(m.t0, slope2(m.x0, m.y0, m.x1, m.y1, m.t0))
	}
}

func (m *monotoneX) moveTo(x, y float64) {
	m.b.WriteString("M" + num(x) + "," + num(y))
}

// segment draws a cubic from (x0,y0) to (x1,y1) with tangents t0 and t1.
func (m *monotoneX) segment(t0, t1 float64) {
	dx := (m.x1 - m.x0) / 3
	m.b.WriteString("C" +
		num(m.x0+dx) + "," + num(m.y0+dx*t0) + "," +
		num(m.x1-dx) + "," + num(m.y1-dx*t1) + "," +
		num(m.x1) + "," + num(m.y1))
}

// slope3 is the tangent at (x1,y1) given its neighbors.
func slope3(x0, y0, x1, y1, x2, y2 float64) float64 {
	h0, h1 := x1-x0, x2-x1
	s0 := (y1 - y0) / h0
	s1 := (y2 - y1) / h1
	p := (s0*h1 + s1*h0) / (h0 + h1)
	t := (sign(s0) + sign(s1)) * math.Min(math.Min(math.Abs(s0), math.Abs(s1)), 0.5*math.Abs(p))
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0
	}
	return t
}

// slope2 is the one-sided tangent at an end point.
func slope2(x0, y0, x1, y1, t float64) float64 {
	h := x1 - x0
	if h == 0 {
		return t
	}
	return (3*(y1-y0)/h - t) / 2
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func num(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		v = 0 // drops negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
