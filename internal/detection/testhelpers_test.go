package detection

import (
	"math"

	"github.com/ironsheep/landing-detect/internal/geometry"
)

// densify walks the closed outline through corners and emits a point every
// step pixels, the way a boundary tracer would.
func densify(corners []geometry.Point, step float64) geometry.Contour {
	var out geometry.Contour
	n := len(corners)
	for i := 0; i < n; i++ {
		a, b := corners[i], corners[(i+1)%n]
		d := geometry.Distance(a, b)
		segs := int(math.Max(1, math.Ceil(d/step)))
		for k := 0; k < segs; k++ {
			t := float64(k) / float64(segs)
			out = append(out, geometry.Pt(a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t))
		}
	}
	return out
}

func circleContour(cx, cy, r float64, n int) geometry.Contour {
	out := make(geometry.Contour, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		out[i] = geometry.Pt(cx+r*math.Cos(a), cy+r*math.Sin(a))
	}
	return out
}

func squareCorners(x, y, side float64) []geometry.Point {
	return []geometry.Point{
		geometry.Pt(x, y), geometry.Pt(x+side, y),
		geometry.Pt(x+side, y+side), geometry.Pt(x, y+side),
	}
}

func plusCorners(x, y, arm float64) []geometry.Point {
	return []geometry.Point{
		geometry.Pt(x+arm, y), geometry.Pt(x+2*arm, y),
		geometry.Pt(x+2*arm, y+arm), geometry.Pt(x+3*arm, y+arm),
		geometry.Pt(x+3*arm, y+2*arm), geometry.Pt(x+2*arm, y+2*arm),
		geometry.Pt(x+2*arm, y+3*arm), geometry.Pt(x+arm, y+3*arm),
		geometry.Pt(x+arm, y+2*arm), geometry.Pt(x, y+2*arm),
		geometry.Pt(x, y+arm), geometry.Pt(x+arm, y+arm),
	}
}

func kiteCorners() []geometry.Point {
	return []geometry.Point{
		geometry.Pt(50, 0), geometry.Pt(100, 40), geometry.Pt(50, 100), geometry.Pt(0, 40),
	}
}

func parallelogramCorners() []geometry.Point {
	return []geometry.Point{
		geometry.Pt(0, 0), geometry.Pt(200, 0), geometry.Pt(250, 100), geometry.Pt(50, 100),
	}
}

func equilateralCorners(x, y, side float64) []geometry.Point {
	h := side * math.Sqrt(3) / 2
	return []geometry.Point{geometry.Pt(x, y+h), geometry.Pt(x+side, y+h), geometry.Pt(x+side/2, y)}
}

// bumpedSquareCorners is a 100px square with a shallow triangular bump on its
// top edge: seven corners, four of them right angles.
func bumpedSquareCorners() []geometry.Point {
	return []geometry.Point{
		geometry.Pt(0, 0), geometry.Pt(30, 0), geometry.Pt(50, -15), geometry.Pt(70, 0),
		geometry.Pt(100, 0), geometry.Pt(100, 100), geometry.Pt(0, 100),
	}
}
