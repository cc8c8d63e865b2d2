package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
)

// MorphClose performs a morphological close (dilate, then erode) with a
// square kernelSize×kernelSize structuring element. Closing bridges small
// gaps in edge outlines so that shapes trace as single closed contours.
//
// kernelSize values below 1 are treated as 1, which leaves the mask
// unchanged.
func MorphClose(mask *image.Gray, kernelSize int) *image.Gray {
	if kernelSize < 1 {
		kernelSize = 1
	}
	radius := float64(kernelSize-1) / 2
	dilated := effect.Dilate(mask, radius)
	closed := effect.Erode(dilated, radius)
	return binarize(closed)
}

// DarkMask marks pixels whose BT.601 gray level is at or below level, the
// inverse binary threshold used to isolate black fiducial markers.
func DarkMask(img image.Image, level uint8) *image.Gray {
	gray := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)
	gb := gray.Bounds()
	out := image.NewGray(zeroRect(img))
	for y := 0; y < gb.Dy(); y++ {
		for x := 0; x < gb.Dx(); x++ {
			g := color.GrayModel.Convert(gray.At(gb.Min.X+x, gb.Min.Y+y)).(color.Gray)
			if g.Y <= level {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// UnionMasks combines masks with a pixelwise OR. All masks must share the
// dimensions of the first; nil is returned for no masks.
func UnionMasks(masks ...*image.Gray) *image.Gray {
	if len(masks) == 0 {
		return nil
	}
	out := image.NewGray(zeroRect(masks[0]))
	for _, m := range masks {
		for i := range out.Pix {
			if i < len(m.Pix) && m.Pix[i] != 0 {
				out.Pix[i] = 255
			}
		}
	}
	return out
}

// binarize collapses an RGBA filter result back to a 0/255 mask.
func binarize(img *image.RGBA) *image.Gray {
	out := image.NewGray(zeroRect(img))
	for i := range out.Pix {
		if img.Pix[i*4] >= 128 {
			out.Pix[i] = 255
		}
	}
	return out
}

func zeroRect(img image.Image) image.Rectangle {
	b := img.Bounds()
	return image.Rect(0, 0, b.Dx(), b.Dy())
}
