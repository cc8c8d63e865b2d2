package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropZoom extracts region grown by padding pixels on every side, clipped to
// the image, and scales the result by scale.
//
// It is used to produce close-up views of composite landing pads. A scale
// of 1 or less than or equal to 0 leaves the crop at its native size.
func CropZoom(img image.Image, region image.Rectangle, padding int, scale float64) (*image.NRGBA, error) {
	bounds := img.Bounds()

	if region.Empty() {
		return nil, fmt.Errorf("invalid crop region %v: empty", region)
	}
	padded := region.Inset(-padding).Intersect(bounds)
	if padded.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", region, bounds)
	}

	cropped := imaging.Crop(img, padded)

	if scale != 1.0 && scale > 0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return cropped, nil
}
