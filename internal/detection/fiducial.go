package detection

import "github.com/ironsheep/landing-detect/internal/geometry"

// FiducialConfig holds the black-fiducial detector thresholds.
type FiducialConfig struct {
	// ApproxEpsilon is the Douglas–Peucker tolerance as a fraction of the
	// contour perimeter. Coarser than the classifier's so that slightly
	// ragged dark squares still reduce to four corners.
	ApproxEpsilon float64 `mapstructure:"approx_epsilon" yaml:"approx_epsilon" json:"approx_epsilon"`

	// DarkThreshold is the grayscale level at or below which a pixel is
	// considered dark when building the fiducial mask.
	DarkThreshold uint8 `mapstructure:"dark_threshold" yaml:"dark_threshold" json:"dark_threshold"`
}

// DefaultFiducialConfig returns the stock thresholds.
func DefaultFiducialConfig() FiducialConfig {
	return FiducialConfig{ApproxEpsilon: 0.04, DarkThreshold: 50}
}

// FiducialDetector finds dark square markers among contours traced from a
// dark-region mask.
type FiducialDetector struct {
	cfg FiducialConfig
}

// NewFiducialDetector creates a detector with the given thresholds.
func NewFiducialDetector(cfg FiducialConfig) *FiducialDetector {
	return &FiducialDetector{cfg: cfg}
}

// Detect keeps every contour whose coarse approximation has exactly four
// vertices.
//
// There is no aspect-ratio or corner-angle check: any dark quadrilateral,
// including kites and parallelograms, is reported.
func (d *FiducialDetector) Detect(contours []geometry.Contour) []FiducialSquare {
	out := make([]FiducialSquare, 0)
	for _, contour := range contours {
		if len(contour) < 4 {
			continue
		}
		poly := ApproxPolygon(contour, d.cfg.ApproxEpsilon*geometry.ArcLength(contour, true))
		if len(poly) == 4 {
			out = append(out, FiducialSquare{Polygon: poly})
		}
	}
	return out
}
