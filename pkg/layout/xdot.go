package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedPosition is returned when a Graphviz position attribute
// cannot be parsed.
var ErrMalformedPosition = errors.New("malformed position")

type box struct {
	Min, Max Point
}

// parsePoint parses "x,y" (an optional trailing "!" marks pinned nodes).
func parsePoint(s string) (Point, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "!")
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, fmt.Errorf("%w: %q", ErrMalformedPosition, s)
	}
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %q", ErrMalformedPosition, s)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %q", ErrMalformedPosition, s)
	}
	return Point{X: x, Y: y}, nil
}

// parseBox parses a bounding box "llx,lly,urx,ury".
func parseBox(s string) (box, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 4 {
		return box{}, fmt.Errorf("%w: %q", ErrMalformedPosition, s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return box{}, fmt.Errorf("%w: %q", ErrMalformedPosition, s)
		}
		v[i] = f
	}
	return box{Min: Point{v[0], v[1]}, Max: Point{v[2], v[3]}}, nil
}

// parseSpline parses an edge "pos" attribute into an ordered list of
// B-spline control points. Only the first spline of a ";"-separated list is
// used. The optional "s," start point is prepended and the "e," end point
// appended so the list runs from tail to head.
func parseSpline(s string) ([]Point, error) {
	first, _, _ := strings.Cut(strings.TrimSpace(s), ";")
	var start, end *Point
	var pts []Point
	for _, tok := range strings.Fields(first) {
		switch {
		case strings.HasPrefix(tok, "s,"):
			p, err := parsePoint(tok[2:])
			if err != nil {
				return nil, err
			}
			start = &p
		case strings.HasPrefix(tok, "e,"):
			p, err := parsePoint(tok[2:])
			if err != nil {
				return nil, err
			}
			end = &p
		default:
			p, err := parsePoint(tok)
			if err != nil {
				return nil, err
			}
			pts = append(pts, p)
		}
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("%w: empty spline %q", ErrMalformedPosition, s)
	}
	if start != nil {
		pts = append([]Point{*start}, pts...)
	}
	if end != nil {
		pts = append(pts, *end)
	}
	return pts, nil
}

// flattenBezier turns piecewise cubic Bézier control points into points that
// lie on the curve: every segment end plus each segment's midpoint. Lists
// that are not 3n+1 long are returned unchanged.
func flattenBezier(ctrl []Point) []Point {
	if len(ctrl) < 4 || (len(ctrl)-1)%3 != 0 {
		return ctrl
	}
	out := []Point{ctrl[0]}
	for i := 0; i+3 < len(ctrl); i += 3 {
		out = append(out, cubicAt(ctrl[i], ctrl[i+1], ctrl[i+2], ctrl[i+3], 0.5), ctrl[i+3])
	}
	return out
}

func cubicAt(p0, p1, p2, p3 Point, t float64) Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}
