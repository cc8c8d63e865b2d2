// Package detection recognises landing-pad marker shapes in traced contours.
//
// The package is the core of the landing-zone analysis. It never touches
// pixels: its inputs are contours already traced from a binary edge or mask
// image, and its outputs are labelled polygons, fiducial markers, and
// composite pairs.
//
// # Shape Classification
//
// Classifier turns a raw contour into a ClassifiedShape:
//
//  1. Approximation: closed-curve Douglas–Peucker with a tolerance
//     proportional to the contour perimeter (ApproxPolygon)
//  2. Vertex count: triangles, squares/rectangles by bounding box aspect,
//     and circles by circularity (4π·area/perimeter²)
//  3. Cross override: a polygon with enough near-right interior angles is
//     labelled Cross regardless of step 2
//
// The override runs last and also catches clean squares and rectangles,
// since their four corners are right angles. Only quadrilaterals with fewer
// right-angle corners keep the Square or Rectangle label.
//
// # Black Fiducials
//
// FiducialDetector runs on contours traced from a dark-region mask and keeps
// anything that approximates to exactly four vertices. It applies no squareness
// check.
//
// # Composite Grouping
//
// Grouper pairs shapes whose centroids lie within a threshold distance. A
// landing pad is typically a marker shape nested inside or next to another,
// so close pairs are reported as composites. Candidate enumeration is behind
// ProximityIndex: AllPairs checks every pair, GridIndex buckets centroids
// into cells. Both produce identical output.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Degenerate Input
//
// Nothing in this package panics on degenerate geometry:
//   - Zero-length edges: the angle is skipped and never counted as right
//   - Zero perimeter: circularity fails and the shape is Other
//   - Zero area: the centroid is undefined and the shape is not grouped
//   - Fewer than 3 points: Classify returns ErrInvalidContour
//
// All types are safe for concurrent use once constructed.
package detection
