// Package report turns pipeline results into serializable documents and
// encodes them as JSON or YAML.
package report

import (
	"fmt"
	"image"
	"io"
	"math"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/landing-detect/internal/detection"
	"github.com/ironsheep/landing-detect/internal/geometry"
	"github.com/ironsheep/landing-detect/internal/imaging"
	"github.com/ironsheep/landing-detect/internal/pipeline"
)

// Image is the report for one processed image. Coordinates refer to the
// working image of Width×Height pixels.
type Image struct {
	Path   string             `json:"path,omitempty" yaml:"path,omitempty"`
	Source *imaging.ImageInfo `json:"source,omitempty" yaml:"source,omitempty"`
	Width  int                `json:"width" yaml:"width"`
	Height int                `json:"height" yaml:"height"`
	Scale  float64            `json:"scale" yaml:"scale"`

	Contours        int `json:"contours" yaml:"contours"`
	SkippedContours int `json:"skipped_contours" yaml:"skipped_contours"`

	Shapes     []Shape     `json:"shapes" yaml:"shapes"`
	Composites []Composite `json:"composites" yaml:"composites"`
	Fiducials  []Fiducial  `json:"fiducials" yaml:"fiducials"`

	// Overlays lists files written alongside the report.
	Overlays []string `json:"overlays,omitempty" yaml:"overlays,omitempty"`

	DurationMS float64 `json:"duration_ms" yaml:"duration_ms"`
}

// Shape describes one classified polygon.
type Shape struct {
	Index       int                  `json:"index" yaml:"index"`
	Label       detection.ShapeLabel `json:"label" yaml:"label"`
	Vertices    int                  `json:"vertices" yaml:"vertices"`
	Polygon     geometry.Polygon     `json:"polygon" yaml:"polygon"`
	Centroid    *geometry.Point      `json:"centroid,omitempty" yaml:"centroid,omitempty"`
	Bounds      geometry.Rect        `json:"bounds" yaml:"bounds"`
	Area        float64              `json:"area" yaml:"area"`
	Perimeter   float64              `json:"perimeter" yaml:"perimeter"`
	Circularity *float64             `json:"circularity,omitempty" yaml:"circularity,omitempty"`

	// Color is the working-image pixel at the centroid.
	Color *imaging.ColorResult `json:"color,omitempty" yaml:"color,omitempty"`
}

// Composite references two entries of Shapes by index.
type Composite struct {
	First       int                  `json:"first" yaml:"first"`
	Second      int                  `json:"second" yaml:"second"`
	FirstLabel  detection.ShapeLabel `json:"first_label" yaml:"first_label"`
	SecondLabel detection.ShapeLabel `json:"second_label" yaml:"second_label"`
	Distance    float64              `json:"distance" yaml:"distance"`
	Bounds      geometry.Rect        `json:"bounds" yaml:"bounds"`
}

// Fiducial describes one dark marker.
type Fiducial struct {
	Polygon  geometry.Polygon `json:"polygon" yaml:"polygon"`
	Centroid *geometry.Point  `json:"centroid,omitempty" yaml:"centroid,omitempty"`
	Bounds   geometry.Rect    `json:"bounds" yaml:"bounds"`
}

// FromResult builds the report for res.
func FromResult(res *pipeline.Result) Image {
	bounds := res.Frame.Image.Bounds()
	rep := Image{
		Path:            res.Path,
		Source:          res.Source,
		Width:           bounds.Dx(),
		Height:          bounds.Dy(),
		Scale:           res.Frame.Scale,
		Contours:        res.Contours,
		SkippedContours: res.SkippedContours,
		Shapes:          Shapes(res.Frame.Image, res.Shapes),
		Composites:      Composites(res.Composites),
		Fiducials:       Fiducials(res.Fiducials),
		DurationMS:      float64(res.Duration.Microseconds()) / 1000,
	}
	return rep
}

// Shapes describes classified shapes. When img is non-nil each shape's
// color is sampled at its centroid.
func Shapes(img image.Image, shapes []detection.ClassifiedShape) []Shape {
	out := make([]Shape, 0, len(shapes))
	for i, s := range shapes {
		sr := Shape{
			Index:     i,
			Label:     s.Label,
			Vertices:  len(s.Polygon),
			Polygon:   s.Polygon,
			Bounds:    s.Bounds(),
			Area:      math.Abs(geometry.Area(s.Polygon)),
			Perimeter: geometry.Perimeter(s.Polygon),
		}
		if c, ok := s.Centroid(); ok {
			sr.Centroid = &c
			if img != nil {
				if color, err := imaging.SampleColor(img, int(c.X), int(c.Y)); err == nil {
					sr.Color = color
				}
			}
		}
		if circ, ok := geometry.Circularity(s.Polygon); ok {
			sr.Circularity = &circ
		}
		out = append(out, sr)
	}
	return out
}

// Composites describes composite pairs by shape index.
func Composites(pairs []detection.CompositePair) []Composite {
	out := make([]Composite, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, Composite{
			First:       p.FirstIndex,
			Second:      p.SecondIndex,
			FirstLabel:  p.First.Label,
			SecondLabel: p.Second.Label,
			Distance:    p.Distance,
			Bounds:      p.Bounds(),
		})
	}
	return out
}

// Fiducials describes detected fiducial squares.
func Fiducials(fiducials []detection.FiducialSquare) []Fiducial {
	out := make([]Fiducial, 0, len(fiducials))
	for _, f := range fiducials {
		fr := Fiducial{Polygon: f.Polygon, Bounds: geometry.BoundingRect(f.Polygon)}
		if c, ok := f.Centroid(); ok {
			fr.Centroid = &c
		}
		out = append(out, fr)
	}
	return out
}

// Encoder writes a stream of reports.
type Encoder interface {
	Encode(v any) error
	Close() error
}

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// NewEncoder returns an encoder for format. JSON reports are written one
// indented document per call; YAML reports as a multi-document stream.
func NewEncoder(w io.Writer, format string) (Encoder, error) {
	switch format {
	case FormatJSON, "":
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		enc.SetIndent("", "  ")
		return jsonEncoder{enc: enc}, nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return enc, nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

type jsonEncoder struct {
	enc *jsoniter.Encoder
}

func (e jsonEncoder) Encode(v any) error { return e.enc.Encode(v) }

func (jsonEncoder) Close() error { return nil }
