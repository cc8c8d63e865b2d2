// Package geometry provides the point, contour, and polygon primitives used by
// the shape classifier and composite grouper.
//
// All functions are pure and operate on image pixel coordinates:
//   - Origin (0, 0) at the top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Polygons are implicitly closed: the last vertex connects back to the first.
// Degenerate inputs (zero-length edges, zero area, zero perimeter) never panic;
// functions that cannot produce a meaningful value report it with a boolean.
package geometry

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// FromImagePoint converts an integer image.Point.
func FromImagePoint(p image.Point) Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

// ImagePoint truncates the point to integer pixel coordinates.
func (p Point) ImagePoint() image.Point {
	return image.Point{X: int(p.X), Y: int(p.Y)}
}

func (p Point) vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Contour is an ordered, closed boundary point sequence as produced by
// boundary tracing on a binary image.
type Contour []Point

// Polygon is a simplified contour. It is closed: the edge from the last vertex
// back to the first is implied.
type Polygon []Point

// Clone returns a copy that shares no memory with p.
func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return r2.Norm(r2.Sub(b.vec(), a.vec()))
}

// ArcLength returns the length of the polyline through points. When closed is
// true the segment from the last point back to the first is included.
func ArcLength(points []Point, closed bool) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	if closed {
		total += Distance(points[len(points)-1], points[0])
	}
	return total
}

// Perimeter returns the closed-loop length of the polygon.
func Perimeter(p Polygon) float64 {
	return ArcLength(p, true)
}

// Area returns the signed area of the polygon using the shoelace formula.
// The sign depends on vertex orientation; callers wanting a magnitude should
// take math.Abs.
func Area(p Polygon) float64 {
	if len(p) < 3 {
		return 0
	}
	var sum float64
	for i := range p {
		j := (i + 1) % len(p)
		sum += r2.Cross(p[i].vec(), p[j].vec())
	}
	return sum / 2
}

// InteriorAngle returns the angle in degrees at vertex between the vectors
// vertex→prev and vertex→next, in the range [0, 180].
//
// ok is false when either vector has zero length. Such an angle is undefined
// and must not be counted as a right angle.
func InteriorAngle(prev, vertex, next Point) (deg float64, ok bool) {
	v1 := r2.Sub(prev.vec(), vertex.vec())
	v2 := r2.Sub(next.vec(), vertex.vec())
	n1, n2 := r2.Norm(v1), r2.Norm(v2)
	if n1 == 0 || n2 == 0 {
		return 0, false
	}
	cos := r2.Dot(v1, v2) / (n1 * n2)
	// rounding can push |cos| slightly past 1
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, true
}

// Moments holds the zeroth and first order spatial moments of a polygon.
//
// M00 is the signed area; M10 and M01 are the first moments about the Y and X
// axes. Signs follow vertex orientation, so the centroid ratios are
// orientation independent.
type Moments struct {
	M00 float64
	M10 float64
	M01 float64
}

// PolygonMoments computes area moments via Green's theorem over the polygon
// boundary.
func PolygonMoments(p Polygon) Moments {
	var m Moments
	if len(p) < 3 {
		return m
	}
	for i := range p {
		a := p[i]
		b := p[(i+1)%len(p)]
		cross := r2.Cross(a.vec(), b.vec())
		m.M00 += cross
		m.M10 += (a.X + b.X) * cross
		m.M01 += (a.Y + b.Y) * cross
	}
	m.M00 /= 2
	m.M10 /= 6
	m.M01 /= 6
	return m
}

// Centroid returns the area-moment centroid of the polygon. ok is false when
// the area moment M00 is zero (a degenerate polygon such as collinear points),
// in which case the centroid is undefined and callers must skip the shape.
func Centroid(p Polygon) (Point, bool) {
	m := PolygonMoments(p)
	if m.M00 == 0 {
		return Point{}, false
	}
	return Point{X: m.M10 / m.M00, Y: m.M01 / m.M00}, true
}

// Circularity returns 4π·area/perimeter², which is 1.0 for a perfect circle
// and smaller for elongated or jagged outlines. ok is false when the perimeter
// is zero.
func Circularity(p Polygon) (float64, bool) {
	perimeter := Perimeter(p)
	if perimeter == 0 {
		return 0, false
	}
	area := math.Abs(Area(p))
	return 4 * math.Pi * area / (perimeter * perimeter), true
}
