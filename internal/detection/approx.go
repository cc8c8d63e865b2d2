package detection

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"github.com/ironsheep/landing-detect/internal/geometry"
)

// ApproxPolygon simplifies a closed contour with the Douglas–Peucker
// algorithm. epsilon is the maximum distance in pixels between the contour
// and the resulting polygon.
//
// Open-curve Douglas–Peucker anchors both ends, which on a closed contour
// would pin an arbitrary starting pixel as a vertex. Instead the contour is
// split at two far-apart points:
//
//  1. A is the point farthest from the first contour point.
//  2. B is the point farthest from A.
//  3. The arcs A→B and B→A are simplified independently and joined.
//
// Contours with fewer than 3 points, or a non-positive epsilon, are returned
// as a copy. The result never has more vertices than the input and never
// shares memory with it.
func ApproxPolygon(contour geometry.Contour, epsilon float64) geometry.Polygon {
	if len(contour) < 3 || epsilon <= 0 {
		return geometry.Polygon(contour).Clone()
	}

	a := farthestFrom(contour, contour[0])
	b := farthestFrom(contour, contour[a])
	if a == b {
		// every point coincides
		return geometry.Polygon{contour[a]}
	}

	dp := simplify.DouglasPeucker(epsilon)
	first := dp.LineString(arc(contour, a, b))
	second := dp.LineString(arc(contour, b, a))

	out := make(geometry.Polygon, 0, len(first)+len(second))
	for _, p := range first {
		out = append(out, geometry.Pt(p[0], p[1]))
	}
	// second starts at B and ends at A, both already present
	for _, p := range second[1 : len(second)-1] {
		out = append(out, geometry.Pt(p[0], p[1]))
	}
	return out
}

// arc copies contour[from..to] inclusive, walking forward and wrapping.
func arc(contour geometry.Contour, from, to int) orb.LineString {
	n := len(contour)
	length := (to-from+n)%n + 1
	ls := make(orb.LineString, length)
	for i := 0; i < length; i++ {
		p := contour[(from+i)%n]
		ls[i] = orb.Point{p.X, p.Y}
	}
	return ls
}

func farthestFrom(contour geometry.Contour, origin geometry.Point) int {
	best, bestDist := 0, 0.0
	for i, p := range contour {
		if d := geometry.Distance(origin, p); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
