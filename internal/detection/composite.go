package detection

import (
	"math"
	"sort"

	"github.com/ironsheep/landing-detect/internal/geometry"
)

// GrouperConfig holds the composite grouping settings.
type GrouperConfig struct {
	// ThresholdDistance is the centroid distance in pixels below which two
	// shapes form a composite (exclusive).
	ThresholdDistance float64 `mapstructure:"threshold_distance" yaml:"threshold_distance" json:"threshold_distance"`

	// Index selects the candidate enumeration: "pairs" or "grid".
	Index string `mapstructure:"index" yaml:"index" json:"index"`
}

// DefaultGrouperConfig returns the stock settings.
func DefaultGrouperConfig() GrouperConfig {
	return GrouperConfig{ThresholdDistance: 100, Index: IndexAllPairs}
}

// Grouper pairs shapes whose centroids are close together.
type Grouper struct {
	threshold float64
	index     ProximityIndex
}

// NewGrouper creates a grouper. A nil index means AllPairs.
func NewGrouper(threshold float64, index ProximityIndex) *Grouper {
	if index == nil {
		index = AllPairs{}
	}
	return &Grouper{threshold: threshold, index: index}
}

// NewGrouperFromConfig resolves the configured index by name.
func NewGrouperFromConfig(cfg GrouperConfig) (*Grouper, error) {
	index, err := NewProximityIndex(cfg.Index)
	if err != nil {
		return nil, err
	}
	return NewGrouper(cfg.ThresholdDistance, index), nil
}

// Group returns every unordered pair of distinct shapes whose centroid
// distance is strictly below the threshold, ordered by input index (i, j)
// with i < j.
//
// Centroids are truncated toward zero to whole pixels before they are
// measured, so Distance is the distance between pixel positions. Shapes with
// an undefined centroid (zero area) never take part in a pair. The result
// does not depend on which ProximityIndex is in use.
func (g *Grouper) Group(shapes []ClassifiedShape) []CompositePair {
	out := make([]CompositePair, 0)
	if len(shapes) < 2 {
		return out
	}

	// Undefined centroids are left out of the index and mapped back by
	// position so the index only ever sees real points.
	points := make([]geometry.Point, 0, len(shapes))
	owner := make([]int, 0, len(shapes))
	for i, s := range shapes {
		c, ok := s.Centroid()
		if !ok {
			continue
		}
		points = append(points, pixelCentroid(c))
		owner = append(owner, i)
	}

	for _, cand := range g.index.Candidates(points, g.threshold) {
		if cand.I == cand.J {
			continue
		}
		d := geometry.Distance(points[cand.I], points[cand.J])
		if d >= g.threshold {
			continue
		}
		i, j := owner[cand.I], owner[cand.J]
		if i > j {
			i, j = j, i
		}
		out = append(out, CompositePair{
			First:       shapes[i],
			Second:      shapes[j],
			FirstIndex:  i,
			SecondIndex: j,
			Distance:    d,
		})
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].FirstIndex != out[b].FirstIndex {
			return out[a].FirstIndex < out[b].FirstIndex
		}
		return out[a].SecondIndex < out[b].SecondIndex
	})
	return out
}

// pixelCentroid truncates a centroid to the pixel it falls in.
func pixelCentroid(c geometry.Point) geometry.Point {
	return geometry.Pt(math.Trunc(c.X), math.Trunc(c.Y))
}
