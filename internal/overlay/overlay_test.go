package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/landing-detect/internal/detection"
	"github.com/ironsheep/landing-detect/internal/geometry"
)

var gray = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

func newCanvas(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = gray.R, gray.G, gray.B, gray.A
	}
	return img
}

func square(x, y, size float64) geometry.Polygon {
	return geometry.Polygon{
		geometry.Pt(x, y), geometry.Pt(x+size, y), geometry.Pt(x+size, y+size), geometry.Pt(x, y+size),
	}
}

func countColor(img *image.NRGBA, r image.Rectangle, c color.NRGBA) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.NRGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}

func newDefaultRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(DefaultStyle())
	require.NoError(t, err)
	return r
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#FF8000")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 128, B: 0, A: 255}, c)

	c, err = ParseColor("#0f0")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, c)

	_, err = ParseColor("green")
	assert.Error(t, err)
}

func TestNewRenderer_InvalidColor(t *testing.T) {
	style := DefaultStyle()
	style.FiducialColor = "not-a-color"

	_, err := NewRenderer(style)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fiducial_color")
}

func TestShapes_OutlineAndLabel(t *testing.T) {
	r := newDefaultRenderer(t)
	src := newCanvas(200, 200)
	shapes := []detection.ClassifiedShape{{Polygon: square(100, 100, 40), Label: detection.Cross}}

	out := r.Shapes(src, shapes)
	green := color.NRGBA{G: 255, A: 255}

	assert.Equal(t, green, out.NRGBAAt(120, 100), "top edge")
	assert.Equal(t, green, out.NRGBAAt(140, 120), "right edge")
	assert.Equal(t, gray, out.NRGBAAt(120, 120), "interior stays untouched")

	// label baseline at (70, 120), clear of the outline
	assert.Positive(t, countColor(out, image.Rect(70, 107, 98, 122), green))

	assert.Equal(t, gray, src.NRGBAAt(120, 100), "source must not be modified")
}

func TestShapes_UndefinedCentroidSkipsLabel(t *testing.T) {
	r := newDefaultRenderer(t)
	src := newCanvas(100, 100)
	line := geometry.Polygon{geometry.Pt(60, 50), geometry.Pt(70, 50), geometry.Pt(80, 50)}

	out := r.Shapes(src, []detection.ClassifiedShape{{Polygon: line, Label: detection.Other}})

	green := color.NRGBA{G: 255, A: 255}
	assert.Equal(t, green, out.NRGBAAt(70, 50))
	assert.Zero(t, countColor(out, image.Rect(0, 30, 50, 60), green))
}

func TestComposites_Colors(t *testing.T) {
	r := newDefaultRenderer(t)
	src := newCanvas(200, 100)
	pair := detection.CompositePair{
		First:  detection.ClassifiedShape{Polygon: square(10, 10, 40)},
		Second: detection.ClassifiedShape{Polygon: square(110, 10, 40)},
	}

	out := r.Composites(src, []detection.CompositePair{pair})

	assert.Equal(t, color.NRGBA{G: 255, A: 255}, out.NRGBAAt(30, 10))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBAAt(130, 10))
}

func TestFiducials_OutlineAndCaption(t *testing.T) {
	r := newDefaultRenderer(t)
	src := newCanvas(200, 200)

	out := r.Fiducials(src, []detection.FiducialSquare{{Polygon: square(100, 100, 40)}})

	assert.Equal(t, color.NRGBA{A: 255}, out.NRGBAAt(120, 140))
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	assert.Positive(t, countColor(out, image.Rect(70, 107, 98, 122), white))
}

func TestParams_Caption(t *testing.T) {
	r := newDefaultRenderer(t)
	src := newCanvas(300, 80)

	out := r.Params(src, "Canny: 100/200", "Kernel: 5")

	green := color.NRGBA{G: 255, A: 255}
	assert.Positive(t, countColor(out, image.Rect(10, 17, 120, 32), green), "first line")
	assert.Positive(t, countColor(out, image.Rect(10, 30, 120, 45), green), "second line")
	assert.Zero(t, countColor(out, image.Rect(150, 0, 300, 80), green))
}

func TestOutline_ShapeOnBorderDoesNotPanic(t *testing.T) {
	r := newDefaultRenderer(t)
	src := newCanvas(50, 50)
	out := r.Shapes(src, []detection.ClassifiedShape{{Polygon: square(0, 0, 49)}})
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, out.NRGBAAt(25, 0))
}
