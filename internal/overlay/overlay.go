// Package overlay draws detection results onto copies of the working image.
//
// Every method returns a fresh *image.NRGBA; the input image is never
// modified. Outlines are rasterized with golang.org/x/image/vector and labels
// use the fixed 7x13 bitmap face, so rendering needs no font files.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ironsheep/landing-detect/internal/detection"
	"github.com/ironsheep/landing-detect/internal/geometry"
)

// FiducialLabel is the caption drawn next to each fiducial marker.
const FiducialLabel = "Black Square"

// Label text is anchored this many pixels left of the centroid.
const labelOffsetX = 50

// Params captions start here.
var paramsOrigin = image.Pt(10, 30)

// Style configures overlay colors as hex strings ("#RRGGBB" or "#RGB").
type Style struct {
	ShapeColor           string `mapstructure:"shape_color" yaml:"shape_color" json:"shape_color"`
	CompositeFirstColor  string `mapstructure:"composite_first_color" yaml:"composite_first_color" json:"composite_first_color"`
	CompositeSecondColor string `mapstructure:"composite_second_color" yaml:"composite_second_color" json:"composite_second_color"`
	FiducialColor        string `mapstructure:"fiducial_color" yaml:"fiducial_color" json:"fiducial_color"`
	FiducialTextColor    string `mapstructure:"fiducial_text_color" yaml:"fiducial_text_color" json:"fiducial_text_color"`
	Thickness            int    `mapstructure:"thickness" yaml:"thickness" json:"thickness"`
	ShowParams           bool   `mapstructure:"show_params" yaml:"show_params" json:"show_params"`
}

// DefaultStyle returns green shapes, green/red composite pairs and black
// fiducials with white captions, stroked 2 px wide.
func DefaultStyle() Style {
	return Style{
		ShapeColor:           "#00FF00",
		CompositeFirstColor:  "#00FF00",
		CompositeSecondColor: "#FF0000",
		FiducialColor:        "#000000",
		FiducialTextColor:    "#FFFFFF",
		Thickness:            2,
		ShowParams:           true,
	}
}

// Renderer draws detection results. It is safe for concurrent use.
type Renderer struct {
	shape        color.NRGBA
	first        color.NRGBA
	second       color.NRGBA
	fiducial     color.NRGBA
	fiducialText color.NRGBA
	half         float32
	showParams   bool
	face         font.Face
}

// NewRenderer parses the style colors. Thickness below 1 is drawn as 1 px.
func NewRenderer(style Style) (*Renderer, error) {
	r := &Renderer{
		half:       float32(max(style.Thickness, 1)) / 2,
		showParams: style.ShowParams,
		face:       basicfont.Face7x13,
	}

	for _, c := range []struct {
		name string
		hex  string
		dst  *color.NRGBA
	}{
		{"shape_color", style.ShapeColor, &r.shape},
		{"composite_first_color", style.CompositeFirstColor, &r.first},
		{"composite_second_color", style.CompositeSecondColor, &r.second},
		{"fiducial_color", style.FiducialColor, &r.fiducial},
		{"fiducial_text_color", style.FiducialTextColor, &r.fiducialText},
	} {
		parsed, err := ParseColor(c.hex)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.name, err)
		}
		*c.dst = parsed
	}
	return r, nil
}

// ParseColor converts a hex color string to an opaque NRGBA color.
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// ShowParams reports whether callers should caption composite overlays with
// the detection parameters.
func (r *Renderer) ShowParams() bool {
	return r.showParams
}

// Shapes outlines every shape and writes its label left of the centroid.
// Shapes with an undefined centroid are outlined without a label.
func (r *Renderer) Shapes(img image.Image, shapes []detection.ClassifiedShape) *image.NRGBA {
	dst := imaging.Clone(img)
	for _, s := range shapes {
		r.outline(dst, s.Polygon, r.shape)
		if c, ok := s.Centroid(); ok {
			r.text(dst, s.Label.String(), int(c.X)-labelOffsetX, int(c.Y), r.shape)
		}
	}
	return dst
}

// Composites outlines the first shape of each pair in the first composite
// color and the second in the second color.
func (r *Renderer) Composites(img image.Image, pairs []detection.CompositePair) *image.NRGBA {
	dst := imaging.Clone(img)
	for _, p := range pairs {
		r.outline(dst, p.First.Polygon, r.first)
		r.outline(dst, p.Second.Polygon, r.second)
	}
	return dst
}

// Fiducials outlines each marker and captions it with FiducialLabel.
func (r *Renderer) Fiducials(img image.Image, fiducials []detection.FiducialSquare) *image.NRGBA {
	dst := imaging.Clone(img)
	for _, f := range fiducials {
		r.outline(dst, f.Polygon, r.fiducial)
		if c, ok := f.Centroid(); ok {
			r.text(dst, FiducialLabel, int(c.X)-labelOffsetX, int(c.Y), r.fiducialText)
		}
	}
	return dst
}

// Params writes one caption line per entry, starting at (10, 30).
func (r *Renderer) Params(img image.Image, lines ...string) *image.NRGBA {
	dst := imaging.Clone(img)
	step := r.face.Metrics().Height.Ceil()
	for i, line := range lines {
		r.text(dst, line, paramsOrigin.X, paramsOrigin.Y+i*step, r.shape)
	}
	return dst
}

func (r *Renderer) text(dst *image.NRGBA, s string, x, y int, c color.NRGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// outline strokes the closed polygon. Each edge is filled as its own quad
// with square caps so that joints stay solid.
func (r *Renderer) outline(dst *image.NRGBA, poly geometry.Polygon, c color.NRGBA) {
	n := len(poly)
	if n == 0 {
		return
	}
	b := dst.Bounds()
	if b.Empty() {
		return
	}
	src := image.NewUniform(c)
	ras := vector.NewRasterizer(b.Dx(), b.Dy())

	for i := 0; i < n; i++ {
		ras.Reset(b.Dx(), b.Dy())
		strokeSegment(ras, poly[i], poly[(i+1)%n], r.half, b)
		ras.Draw(dst, b, src, image.Point{})
		if n == 1 {
			break
		}
	}
}

// strokeSegment adds the rectangle covering segment a-b widened by half on
// each side and extended by half at both ends. Pixel coordinates address
// pixel centres.
func strokeSegment(ras *vector.Rasterizer, a, b geometry.Point, half float32, bounds image.Rectangle) {
	ax, ay := float32(a.X)+0.5, float32(a.Y)+0.5
	bx, by := float32(b.X)+0.5, float32(b.Y)+0.5

	dx, dy := bx-ax, by-ay
	length := float32(math.Hypot(float64(dx), float64(dy)))
	var ux, uy float32
	if length == 0 {
		ux, uy = 1, 0
	} else {
		ux, uy = dx/length, dy/length
	}
	// along the edge and across it
	ex, ey := ux*half, uy*half
	nx, ny := -ey, ex

	w, h := float32(bounds.Dx()), float32(bounds.Dy())
	clampX := func(v float32) float32 { return min(max(v, 0), w) }
	clampY := func(v float32) float32 { return min(max(v, 0), h) }

	ras.MoveTo(clampX(ax-ex+nx), clampY(ay-ey+ny))
	ras.LineTo(clampX(bx+ex+nx), clampY(by+ey+ny))
	ras.LineTo(clampX(bx+ex-nx), clampY(by+ey-ny))
	ras.LineTo(clampX(ax-ex-nx), clampY(ay-ey-ny))
	ras.ClosePath()
}
