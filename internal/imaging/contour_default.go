//go:build !gocv

package imaging

// NewContourFinder returns the contour backend compiled into this binary.
// Build with -tags gocv to use OpenCV instead of the pure-Go tracer.
func NewContourFinder() ContourFinder {
	return MooreTracer{}
}
