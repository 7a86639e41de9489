package overlap

import "math"

// Result is the coverage of one postal area. Each ratio is an intersection area
// divided by the postal area's own area, rounded to two decimals.
type Result struct {
	ID          string  `json:"id"`
	DeliveryPct float64 `json:"delivery_pct"` // area ∩ delivery union
	RadiusPct   float64 `json:"radius_pct"`   // area ∩ radius buffer
	TotalPct    float64 `json:"total_pct"`    // area ∩ delivery union ∩ radius buffer

	// Index is the position of the postal area in the input slice
	Index int `json:"-"`
}

// Options tunes the engine. Zero values fall back to the defaults below.
type Options struct {
	// CircleSegments is the vertex count of the polygonal radius buffer
	CircleSegments int `yaml:"circle_segments"`

	// MinTotalRatio is the smallest total ratio that is reported
	MinTotalRatio float64 `yaml:"min_total_ratio"`
}

const (
	// DefaultCircleSegments matches a 16-segments-per-quadrant buffer
	DefaultCircleSegments = 64

	// DefaultMinTotalRatio reports areas with at least 2% combined coverage
	DefaultMinTotalRatio = 0.02
)

// DefaultOptions returns the engine defaults
func DefaultOptions() Options {
	return Options{
		CircleSegments: DefaultCircleSegments,
		MinTotalRatio:  DefaultMinTotalRatio,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
