// Package imaging provides the pixel-level stages that feed landing-pad
// shape detection.
//
// Everything here works on standard Go image types and turns a photograph
// into the contours and masks that the detection package consumes:
//
//   - Loading: decoded-image cache, EXIF auto-orientation, format metadata
//   - Preprocessing: proportional resize and HSV conversion with an
//     equalized value channel
//   - Color segmentation: inclusive HSV range masks and an automatic hue
//     band derived from the hue histogram
//   - Edges: Canny edge detection followed by morphological closing
//   - Dark regions: inverse binary threshold for black fiducials
//   - Contours: outer boundary tracing on binary masks
//   - Output: PNG encoding and crop-and-zoom of regions of interest
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, the top-left corner is inclusive and the bottom-right
//     corner is exclusive
//
// # HSV Ranges
//
// HSV values use 8-bit ranges so that thresholds carry over from common
// computer-vision tooling unchanged:
//   - H: 0-179 (degrees halved)
//   - S: 0-255
//   - V: 0-255
//
// # Binary Masks
//
// Masks are *image.Gray with 255 marking foreground and 0 background. Any
// non-zero pixel is treated as foreground by the contour tracer.
//
// # Contour Backends
//
// The default ContourFinder is a pure-Go Moore-neighbour tracer. Building
// with the gocv tag swaps in OpenCV's findContours through gocv.io/x/gocv,
// which requires OpenCV to be installed.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless
// and allocate fresh output images, so they may run concurrently as long as
// callers do not mutate shared inputs.
package imaging
