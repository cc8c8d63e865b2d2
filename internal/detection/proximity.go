package detection

import (
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/landing-detect/internal/geometry"
)

// IndexPair identifies two entries of a point slice with I < J.
type IndexPair struct {
	I int
	J int
}

// ProximityIndex enumerates candidate pairs of points that may lie within
// radius of each other.
//
// Implementations may return a superset of the true within-radius pairs but
// must never omit one, and must return each unordered pair at most once
// with I < J.
type ProximityIndex interface {
	Candidates(points []geometry.Point, radius float64) []IndexPair
}

// Index names accepted by NewProximityIndex.
const (
	IndexAllPairs = "pairs"
	IndexGrid     = "grid"
)

// NewProximityIndex returns the index registered under name. An empty name
// selects AllPairs.
func NewProximityIndex(name string) (ProximityIndex, error) {
	switch name {
	case "", IndexAllPairs:
		return AllPairs{}, nil
	case IndexGrid:
		return GridIndex{}, nil
	default:
		return nil, fmt.Errorf("unknown proximity index %q", name)
	}
}

// AllPairs returns every i < j pair. O(n²), which is fine for the handful of
// shapes found in a single frame.
type AllPairs struct{}

// Candidates implements ProximityIndex.
func (AllPairs) Candidates(points []geometry.Point, _ float64) []IndexPair {
	n := len(points)
	if n < 2 {
		return nil
	}
	out := make([]IndexPair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, IndexPair{I: i, J: j})
		}
	}
	return out
}

// GridIndex buckets points into square cells of side radius and only pairs
// points in the same or adjacent cells.
type GridIndex struct{}

type cell struct{ x, y int64 }

// Candidates implements ProximityIndex. A non-positive or non-finite radius
// falls back to AllPairs.
func (GridIndex) Candidates(points []geometry.Point, radius float64) []IndexPair {
	if len(points) < 2 {
		return nil
	}
	if radius <= 0 || math.IsInf(radius, 0) || math.IsNaN(radius) {
		return AllPairs{}.Candidates(points, radius)
	}

	cellOf := func(p geometry.Point) cell {
		return cell{int64(math.Floor(p.X / radius)), int64(math.Floor(p.Y / radius))}
	}

	buckets := make(map[cell][]int)
	for i, p := range points {
		c := cellOf(p)
		buckets[c] = append(buckets[c], i)
	}

	var out []IndexPair
	for i, p := range points {
		c := cellOf(p)
		for dy := int64(-1); dy <= 1; dy++ {
			for dx := int64(-1); dx <= 1; dx++ {
				for _, j := range buckets[cell{c.x + dx, c.y + dy}] {
					if j > i {
						out = append(out, IndexPair{I: i, J: j})
					}
				}
			}
		}
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].I != out[b].I {
			return out[a].I < out[b].I
		}
		return out[a].J < out[b].J
	})
	return out
}
