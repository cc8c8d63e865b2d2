//go:build gocv

package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/landing-detect/internal/geometry"
)

// OpenCVFinder traces contours with OpenCV's findContours using external
// retrieval and simple chain approximation.
type OpenCVFinder struct{}

// NewContourFinder returns the contour backend compiled into this binary.
func NewContourFinder() ContourFinder {
	return OpenCVFinder{}
}

// Name implements ContourFinder.
func (OpenCVFinder) Name() string { return "opencv" }

// FindContours implements ContourFinder.
func (OpenCVFinder) FindContours(mask *image.Gray) ([]geometry.Contour, error) {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, nil
	}

	data := make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(data[y*w:(y+1)*w], mask.Pix[mask.PixOffset(b.Min.X, b.Min.Y+y):])
	}

	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, data)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap mask: %w", err)
	}
	defer mat.Close()

	found := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	contours := make([]geometry.Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		pts := found.At(i).ToPoints()
		c := make(geometry.Contour, len(pts))
		for j, p := range pts {
			c[j] = geometry.FromImagePoint(p)
		}
		contours = append(contours, c)
	}
	return contours, nil
}
