package detection

import (
	"fmt"
	"strings"

	"github.com/ironsheep/landing-detect/internal/geometry"
)

// ShapeLabel is the category assigned to a classified polygon.
type ShapeLabel int

// Shape labels. Other is the zero value so an unclassified shape never
// masquerades as a marker.
const (
	Other ShapeLabel = iota
	Triangle
	Square
	Rectangle
	Circle
	Cross
)

var labelNames = [...]string{
	Other:     "Other",
	Triangle:  "Triangle",
	Square:    "Square",
	Rectangle: "Rectangle",
	Circle:    "Circle",
	Cross:     "Cross",
}

// Labels returns every label in declaration order.
func Labels() []ShapeLabel {
	return []ShapeLabel{Other, Triangle, Square, Rectangle, Circle, Cross}
}

func (l ShapeLabel) String() string {
	if l < 0 || int(l) >= len(labelNames) {
		return fmt.Sprintf("ShapeLabel(%d)", int(l))
	}
	return labelNames[l]
}

// MarshalText encodes the label by name for JSON and YAML reports.
func (l ShapeLabel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts a label name, case-insensitively.
func (l *ShapeLabel) UnmarshalText(text []byte) error {
	for i, name := range labelNames {
		if strings.EqualFold(name, string(text)) {
			*l = ShapeLabel(i)
			return nil
		}
	}
	return fmt.Errorf("unknown shape label %q", string(text))
}

// ClassifiedShape is a simplified polygon together with its label.
//
// The polygon is owned by the shape: the classifier never retains or mutates
// it after returning, so values may be copied freely.
type ClassifiedShape struct {
	// Polygon is the approximated outline in image pixel coordinates.
	Polygon geometry.Polygon `json:"polygon"`

	// Label is the assigned category.
	Label ShapeLabel `json:"label"`
}

// Centroid returns the area-moment centroid. ok is false for zero-area
// polygons.
func (s ClassifiedShape) Centroid() (geometry.Point, bool) {
	return geometry.Centroid(s.Polygon)
}

// Bounds returns the inclusive pixel bounding box of the polygon.
func (s ClassifiedShape) Bounds() geometry.Rect {
	return geometry.BoundingRect(s.Polygon)
}

// FiducialSquare is a dark four-vertex marker found by FiducialDetector.
type FiducialSquare struct {
	Polygon geometry.Polygon `json:"polygon"`
}

// Centroid returns the area-moment centroid of the marker.
func (f FiducialSquare) Centroid() (geometry.Point, bool) {
	return geometry.Centroid(f.Polygon)
}

// CompositePair is two distinct shapes whose centroids lie closer than the
// grouping threshold.
//
// First always has the lower input index. The shapes share their polygon
// backing arrays with the slice passed to Grouper.Group.
type CompositePair struct {
	First       ClassifiedShape `json:"first"`
	Second      ClassifiedShape `json:"second"`
	FirstIndex  int             `json:"first_index"`
	SecondIndex int             `json:"second_index"`
	Distance    float64         `json:"distance"`
}

// Bounds returns the box enclosing both shapes.
func (p CompositePair) Bounds() geometry.Rect {
	return p.First.Bounds().Union(p.Second.Bounds())
}
