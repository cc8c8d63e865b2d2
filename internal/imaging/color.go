package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r" yaml:"r"` // Red component (0-255)
	G uint8 `json:"g" yaml:"g"` // Green component (0-255)
	B uint8 `json:"b" yaml:"b"` // Blue component (0-255)
}

// HSVColor is a color in 8-bit HSV: H 0-179, S 0-255, V 0-255.
type HSVColor struct {
	H uint8 `json:"h" yaml:"h"`
	S uint8 `json:"s" yaml:"s"`
	V uint8 `json:"v" yaml:"v"`
}

// ColorResult contains a sampled color in the representations used by reports.
type ColorResult struct {
	Hex string   `json:"hex" yaml:"hex"` // Hex format "#RRGGBB" (no alpha)
	RGB RGBColor `json:"rgb" yaml:"rgb"`
	HSV HSVColor `json:"hsv" yaml:"hsv"`
}

// SampleColor extracts the color value at a specific pixel coordinate.
//
// Returns an error if (x, y) lies outside the image bounds.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	c := img.At(x, y)
	r, g, b, _ := c.RGBA()
	r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)

	return &ColorResult{
		Hex: fmt.Sprintf("#%02X%02X%02X", r8, g8, b8),
		RGB: RGBColor{R: r8, G: g8, B: b8},
		HSV: ToHSV(c),
	}, nil
}

// ToHSV converts any color to 8-bit HSV. Alpha is ignored.
func ToHSV(c color.Color) HSVColor {
	r, g, b, _ := c.RGBA()
	cf := colorful.Color{R: float64(r>>8) / 255, G: float64(g>>8) / 255, B: float64(b>>8) / 255}
	h, s, v := cf.Hsv()

	hue := int(math.Round(h / 2))
	if hue >= 180 {
		hue -= 180
	}
	return HSVColor{
		H: uint8(hue),
		S: uint8(math.Round(s * 255)),
		V: uint8(math.Round(v * 255)),
	}
}

// HSVRange is a named, inclusive HSV band used for color segmentation.
type HSVRange struct {
	Name  string   `mapstructure:"name" yaml:"name" json:"name"`
	Lower [3]uint8 `mapstructure:"lower" yaml:"lower" json:"lower"`
	Upper [3]uint8 `mapstructure:"upper" yaml:"upper" json:"upper"`
}

// Contains reports whether c lies inside the band on all three channels.
func (r HSVRange) Contains(c HSVColor) bool {
	return c.H >= r.Lower[0] && c.H <= r.Upper[0] &&
		c.S >= r.Lower[1] && c.S <= r.Upper[1] &&
		c.V >= r.Lower[2] && c.V <= r.Upper[2]
}

// DefaultColorRanges returns the yellow and blue bands typical of painted
// landing pads.
func DefaultColorRanges() []HSVRange {
	return []HSVRange{
		{Name: "Yellow", Lower: [3]uint8{20, 100, 100}, Upper: [3]uint8{30, 255, 255}},
		{Name: "Blue", Lower: [3]uint8{100, 100, 100}, Upper: [3]uint8{130, 255, 255}},
	}
}

// HSVImage stores an image as interleaved 8-bit H, S, V planes.
type HSVImage struct {
	// Pix holds H, S, V triplets in row-major order.
	Pix  []uint8
	Rect image.Rectangle
}

// NewHSVImage converts img to HSV.
func NewHSVImage(img image.Image) *HSVImage {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := &HSVImage{Pix: make([]uint8, w*h*3), Rect: image.Rect(0, 0, w, h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := ToHSV(img.At(bounds.Min.X+x, bounds.Min.Y+y))
			i := (y*w + x) * 3
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = c.H, c.S, c.V
		}
	}
	return out
}

// Bounds returns the image rectangle, always anchored at (0, 0).
func (m *HSVImage) Bounds() image.Rectangle {
	return m.Rect
}

// HSVAt returns the HSV value at (x, y).
func (m *HSVImage) HSVAt(x, y int) HSVColor {
	i := (y*m.Rect.Dx() + x) * 3
	return HSVColor{H: m.Pix[i], S: m.Pix[i+1], V: m.Pix[i+2]}
}

// Channel extracts one plane (0=H, 1=S, 2=V) as a grayscale image.
func (m *HSVImage) Channel(ch int) *image.Gray {
	out := image.NewGray(m.Rect)
	for i := range out.Pix {
		out.Pix[i] = m.Pix[i*3+ch]
	}
	return out
}

// EqualizeValue histogram-equalizes the V channel in place, normalizing
// illumination across the frame.
func (m *HSVImage) EqualizeValue() {
	v := m.Channel(2)
	EqualizeHist(v)
	for i, val := range v.Pix {
		m.Pix[i*3+2] = val
	}
}

// EqualizeHist spreads the intensity histogram of g across 0-255 in place.
//
// The lowest occupied level maps to 0 and the cumulative distribution of
// the remaining levels is scaled to 255. A single-level image is left
// unchanged.
func EqualizeHist(g *image.Gray) {
	var hist [256]int
	for _, v := range g.Pix {
		hist[v]++
	}
	total := len(g.Pix)

	first := 0
	for first < 256 && hist[first] == 0 {
		first++
	}
	if first == 256 || hist[first] == total {
		return
	}

	var lut [256]uint8
	scale := 255.0 / float64(total-hist[first])
	sum := 0
	for i := first + 1; i < 256; i++ {
		sum += hist[i]
		lut[i] = uint8(math.Min(255, math.Round(float64(sum)*scale)))
	}
	for i, v := range g.Pix {
		g.Pix[i] = lut[v]
	}
}

// HueHistogram counts pixels per hue value. Only bins 0-179 can be
// populated; the array spans 256 bins so limits derived from it may use the
// full 8-bit range.
func HueHistogram(m *HSVImage) [256]int {
	var hist [256]int
	for i := 0; i < len(m.Pix); i += 3 {
		hist[m.Pix[i]]++
	}
	return hist
}

// AdjustHueLimits centres a hue band of ±margin on the most frequent hue,
// clamped to 0-255. Ties resolve to the lowest hue.
func AdjustHueLimits(hist [256]int, margin int) (lower, upper uint8) {
	mode := 0
	for i, n := range hist {
		if n > hist[mode] {
			mode = i
		}
	}
	lo := mode - margin
	if lo < 0 {
		lo = 0
	}
	hi := mode + margin
	if hi > 255 {
		hi = 255
	}
	return uint8(lo), uint8(hi)
}

// SegmentColors returns a mask with 255 wherever the pixel lies inside r.
func SegmentColors(m *HSVImage, r HSVRange) *image.Gray {
	out := image.NewGray(m.Rect)
	for i := range out.Pix {
		c := HSVColor{H: m.Pix[i*3], S: m.Pix[i*3+1], V: m.Pix[i*3+2]}
		if r.Contains(c) {
			out.Pix[i] = 255
		}
	}
	return out
}
