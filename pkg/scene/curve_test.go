package scene

import (
	"strconv"
	"strings"
	"testing"

	"github.com/matzehuels/lineageview/pkg/layout"
)

func TestMonotoneX(t *testing.T) {
	tests := []struct {
		name string
		pts  []layout.Point
		want string
	}{
		{"empty", nil, ""},
		{"single", []layout.Point{{X: 3, Y: 4}}, "M3,4"},
		{"two points", []layout.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}, "M0,0L10,10"},
		{"coincident", []layout.Point{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 5, Y: 5}}, "M0,0L5,5"},
		{
			"peak",
			[]layout.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}},
			"M0,0C0.333,0.5,0.667,1,1,1C1.333,1,1.667,0.5,2,0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonotoneX(tt.pts); got != tt.want {
				t.Errorf("MonotoneX() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMonotoneX_NoOvershoot(t *testing.T) {
	pts := []layout.Point{{X: 0, Y: 0}, {X: 10, Y: 1}, {X: 20, Y: 10}, {X: 30, Y: 11}, {X: 40, Y: 11}}
	d := MonotoneX(pts)
	segs := strings.Split(strings.TrimPrefix(d, "M0,0"), "C")[1:]
	if len(segs) != len(pts)-1 {
		t.Fatalf("got %d segments, want %d: %s", len(segs), len(pts)-1, d)
	}
	for i, seg := range segs {
		var v []float64
		for _, f := range strings.Split(seg, ",") {
			x, err := strconv.ParseFloat(f, 64)
			if err != nil {
				t.Fatalf("segment %d: %v", i, err)
			}
			v = append(v, x)
		}
		lo, hi := pts[i].Y, pts[i+1].Y
		for _, y := range []float64{v[1], v[3]} {
			if y < lo-1e-9 || y > hi+1e-9 {
				t.Errorf("segment %d control y %v outside [%v, %v]", i, y, lo, hi)
			}
		}
	}
}

func TestNum(t *testing.T) {
	tests := map[float64]string{0: "0", -0.0001: "0", 1.23456: "1.235", 140: "140", -2.5: "-2.5"}
	for in, want := range tests {
		if got := num(in); got != want {
			t.Errorf("num(%v) = %q, want %q", in, got, want)
		}
	}
}
