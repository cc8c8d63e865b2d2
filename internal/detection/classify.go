package detection

import (
	"errors"
	"fmt"

	"github.com/ironsheep/landing-detect/internal/geometry"
)

// ErrInvalidContour is returned when a contour has too few points to bound a
// region.
var ErrInvalidContour = errors.New("invalid contour")

// ClassifierConfig holds the tunable thresholds of the shape classifier.
type ClassifierConfig struct {
	// ApproxEpsilon is the Douglas–Peucker tolerance as a fraction of the
	// contour perimeter.
	ApproxEpsilon float64 `mapstructure:"approx_epsilon" yaml:"approx_epsilon" json:"approx_epsilon"`

	// SquareAspectMin and SquareAspectMax bound the width/height ratio of a
	// quadrilateral's bounding box for it to count as a square (inclusive).
	SquareAspectMin float64 `mapstructure:"square_aspect_min" yaml:"square_aspect_min" json:"square_aspect_min"`
	SquareAspectMax float64 `mapstructure:"square_aspect_max" yaml:"square_aspect_max" json:"square_aspect_max"`

	// CircularityMin and CircularityMax bound 4π·area/perimeter² for polygons
	// with more than four vertices (exclusive).
	CircularityMin float64 `mapstructure:"circularity_min" yaml:"circularity_min" json:"circularity_min"`
	CircularityMax float64 `mapstructure:"circularity_max" yaml:"circularity_max" json:"circularity_max"`

	// RightAngleMin and RightAngleMax bound a near-right interior angle in
	// degrees (inclusive).
	RightAngleMin float64 `mapstructure:"right_angle_min" yaml:"right_angle_min" json:"right_angle_min"`
	RightAngleMax float64 `mapstructure:"right_angle_max" yaml:"right_angle_max" json:"right_angle_max"`

	// CrossMinRightAngles is how many near-right corners turn a polygon into
	// a Cross.
	CrossMinRightAngles int `mapstructure:"cross_min_right_angles" yaml:"cross_min_right_angles" json:"cross_min_right_angles"`
}

// DefaultClassifierConfig returns the stock thresholds.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		ApproxEpsilon:       0.02,
		SquareAspectMin:     0.95,
		SquareAspectMax:     1.05,
		CircularityMin:      0.75,
		CircularityMax:      1.25,
		RightAngleMin:       80,
		RightAngleMax:       100,
		CrossMinRightAngles: 4,
	}
}

// Classifier assigns a ShapeLabel to raw contours. It holds no mutable state
// and is safe for concurrent use.
type Classifier struct {
	cfg ClassifierConfig
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Config returns the thresholds the classifier was built with.
func (c *Classifier) Config() ClassifierConfig {
	return c.cfg
}

// Classify approximates the contour to a polygon and labels it.
//
// Labelling happens in two steps:
//
//  1. Vertex count: 3 is a Triangle; 4 is a Square when the bounding box
//     aspect ratio falls in the square band, otherwise a Rectangle; more
//     than 4 is a Circle when circularity falls in the circle band,
//     otherwise Other.
//  2. Cross override: when at least CrossMinRightAngles interior angles
//     fall in the right-angle band the label becomes Cross, whatever step 1
//     decided.
//
// Step 2 also applies to quadrilaterals, so a clean square or rectangle
// with four right-angle corners is labelled Cross. Square and Rectangle are
// only produced for quadrilaterals with fewer near-right corners.
//
// Returns ErrInvalidContour if the contour has fewer than 3 points.
func (c *Classifier) Classify(contour geometry.Contour) (ClassifiedShape, error) {
	if len(contour) < 3 {
		return ClassifiedShape{}, fmt.Errorf("%w: %d points", ErrInvalidContour, len(contour))
	}

	epsilon := c.cfg.ApproxEpsilon * geometry.ArcLength(contour, true)
	poly := ApproxPolygon(contour, epsilon)

	label := c.labelByVertices(poly)
	if c.countRightAngles(poly) >= c.cfg.CrossMinRightAngles {
		label = Cross
	}

	return ClassifiedShape{Polygon: poly, Label: label}, nil
}

// ClassifyAll classifies a batch, skipping invalid contours. skipped reports
// how many were dropped.
func (c *Classifier) ClassifyAll(contours []geometry.Contour) (shapes []ClassifiedShape, skipped int) {
	shapes = make([]ClassifiedShape, 0, len(contours))
	for _, contour := range contours {
		shape, err := c.Classify(contour)
		if err != nil {
			skipped++
			continue
		}
		shapes = append(shapes, shape)
	}
	return shapes, skipped
}

func (c *Classifier) labelByVertices(poly geometry.Polygon) ShapeLabel {
	switch n := len(poly); {
	case n == 3:
		return Triangle
	case n == 4:
		aspect := geometry.BoundingRect(poly).AspectRatio()
		if aspect >= c.cfg.SquareAspectMin && aspect <= c.cfg.SquareAspectMax {
			return Square
		}
		return Rectangle
	case n > 4:
		circularity, ok := geometry.Circularity(poly)
		if ok && circularity > c.cfg.CircularityMin && circularity < c.cfg.CircularityMax {
			return Circle
		}
		return Other
	default:
		return Other
	}
}

// countRightAngles counts vertices whose interior angle is within the
// right-angle band. Undefined angles never count.
func (c *Classifier) countRightAngles(poly geometry.Polygon) int {
	n := len(poly)
	if n < 3 {
		return 0
	}
	count := 0
	for i := range poly {
		prev := poly[(i-1+n)%n]
		next := poly[(i+1)%n]
		deg, ok := geometry.InteriorAngle(prev, poly[i], next)
		if ok && deg >= c.cfg.RightAngleMin && deg <= c.cfg.RightAngleMax {
			count++
		}
	}
	return count
}
