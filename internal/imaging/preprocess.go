package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Frame is a source image brought to working resolution together with its
// HSV representation.
type Frame struct {
	// Image is the resized color image. Every later stage, including overlay
	// rendering, works in its coordinate space.
	Image *image.NRGBA

	// HSV is Image converted to 8-bit HSV, V channel optionally equalized.
	HSV *HSVImage

	// Scale is the factor applied to the source dimensions.
	Scale float64

	// SourceWidth and SourceHeight are the dimensions before resizing.
	SourceWidth  int
	SourceHeight int
}

// Preprocess resizes img proportionally so that it fits maxWidth×maxHeight
// and converts it to HSV.
//
// The scale factor is min(maxWidth/w, maxHeight/h), so small images are
// enlarged as well as large ones reduced; the aspect ratio is always kept.
// A non-positive limit disables resizing. When equalize is true the V channel
// is histogram-equalized to even out illumination.
func Preprocess(img image.Image, maxWidth, maxHeight int, equalize bool) *Frame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	scale := 1.0
	if maxWidth > 0 && maxHeight > 0 && w > 0 && h > 0 {
		scale = math.Min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	}

	var resized *image.NRGBA
	if scale == 1.0 {
		resized = imaging.Clone(img)
	} else {
		newW := max(1, int(float64(w)*scale))
		newH := max(1, int(float64(h)*scale))
		resized = imaging.Resize(img, newW, newH, imaging.Linear)
	}

	hsv := NewHSVImage(resized)
	if equalize {
		hsv.EqualizeValue()
	}

	return &Frame{
		Image:        resized,
		HSV:          hsv,
		Scale:        scale,
		SourceWidth:  w,
		SourceHeight: h,
	}
}
