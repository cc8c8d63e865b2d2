package geometry

import (
	"image"
	"math"
)

// Rect is an axis-aligned bounding box measured in whole pixels.
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// BoundingRect returns the smallest pixel rectangle containing every point.
//
// Extents are inclusive: a run of pixels from x=10 to x=20 is 11 pixels wide.
// This matches how traced contours address pixel centers, so a traced 1-pixel
// blob still has a non-zero width and height.
func BoundingRect(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	x0, y0 := int(math.Floor(minX)), int(math.Floor(minY))
	x1, y1 := int(math.Floor(maxX)), int(math.Floor(maxY))
	return Rect{X: x0, Y: y0, Width: x1 - x0 + 1, Height: y1 - y0 + 1}
}

// AspectRatio returns Width/Height, or 0 for an empty rectangle.
func (r Rect) AspectRatio() float64 {
	if r.Height == 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

// Image converts to an image.Rectangle with exclusive max bounds.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	u := r.Image().Union(o.Image())
	return Rect{X: u.Min.X, Y: u.Min.Y, Width: u.Dx(), Height: u.Dy()}
}
