// Package overlap computes how much of each postal area is covered by a delivery
// radius buffer and a delivery-area polygon. All inputs must already share one
// planar, metric coordinate reference.
package overlap

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/ctessum/geom"
	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"

	"github.com/dpup/postarit/internal/lib/geo"
)

// Engine computes per-area coverage ratios
type Engine struct {
	opts Options
}

// NewEngine creates an Engine, filling unset options with defaults
func NewEngine(opts Options) *Engine {
	if opts.CircleSegments < 3 {
		opts.CircleSegments = DefaultCircleSegments
	}
	if opts.MinTotalRatio <= 0 {
		opts.MinTotalRatio = DefaultMinTotalRatio
	}
	return &Engine{opts: opts}
}

// Options returns the effective engine options
func (e *Engine) Options() Options {
	return e.opts
}

// candidate is a postal area that survived the radius filter
type candidate struct {
	position           int
	area               geo.Feature
	radiusIntersection geom.Polygonal
}

// Compute returns the coverage of every postal area that intersects both the
// radius buffer around center and the union of the delivery polygons, keeping
// only areas whose combined coverage reaches the minimum total ratio. Results
// follow the input order of areas.
//
// Any geometry failure aborts the whole computation with a ComputationError.
func (e *Engine) Compute(ctx context.Context, areas []geo.Feature, delivery []geo.Feature, center geom.Point, radius float64) (results []Result, err error) {
	if radius <= 0 {
		return nil, &geo.InputError{Msg: fmt.Sprintf("radius must be positive, got %v", radius)}
	}
	if len(delivery) == 0 {
		return nil, &geo.ComputationError{Msg: "delivery area has no polygons"}
	}

	defer func() {
		// Recover from panics inside the clipping library
		if r := recover(); r != nil {
			stackErr, _ := errors.ParseStack(debug.Stack())
			skipFrames := 3
			numFrames := 5
			logging.Errorw(ctx, "Overlap engine: recovered from panic",
				"error", r, "error.stack_trace", stackErr.MinimalStack(skipFrames, numFrames))
			results = nil
			err = &geo.ComputationError{Msg: "geometry operation failed", Err: fmt.Errorf("%v", r)}
		}
	}()

	// Buffer around the store
	circle := Circle(center, radius, e.opts.CircleSegments)

	// Broad filter: areas intersecting the buffer
	candidates, err := e.radiusCandidates(ctx, areas, circle)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []Result{}, nil
	}

	// The delivery area is treated as one region
	deliveryUnion := unionOf(delivery)
	if isEmpty(deliveryUnion) {
		return nil, &geo.ComputationError{Msg: "delivery area union is empty"}
	}

	// Areas intersecting the delivery union, with ratios
	results = []Result{}
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, &geo.ComputationError{Msg: "coverage computation cancelled", Err: err}
		}

		deliveryIntersection := c.area.Geometry.Intersection(deliveryUnion)
		if isEmpty(deliveryIntersection) {
			continue
		}

		combined := deliveryIntersection.Intersection(circle)
		if isEmpty(combined) {
			continue
		}

		totalArea := c.area.Geometry.Area()
		if totalArea <= 0 {
			continue
		}

		deliveryPct := deliveryIntersection.Area() / totalArea
		radiusPct := c.radiusIntersection.Area() / totalArea
		totalPct := combined.Area() / totalArea

		if totalPct < e.opts.MinTotalRatio {
			continue
		}

		results = append(results, Result{
			ID:          c.area.ID,
			DeliveryPct: round2(deliveryPct),
			RadiusPct:   round2(radiusPct),
			TotalPct:    round2(totalPct),
			Index:       c.position,
		})
	}

	return results, nil
}

// radiusCandidates narrows areas to those whose geometry intersects circle,
// first by bounding box through the spatial index, then exactly.
func (e *Engine) radiusCandidates(ctx context.Context, areas []geo.Feature, circle geom.Polygon) ([]candidate, error) {
	indexed := make([]geo.Feature, 0, len(areas))
	positions := make([]int, 0, len(areas))
	for i, area := range areas {
		if isEmpty(area.Geometry) {
			continue
		}
		indexed = append(indexed, area)
		positions = append(positions, i)
	}
	if len(indexed) == 0 {
		return nil, nil
	}

	index, err := newAreaIndex(indexed)
	if err != nil {
		return nil, &geo.ComputationError{Msg: "failed to index postal areas", Err: err}
	}

	hits, err := index.candidates(circle.Bounds())
	if err != nil {
		return nil, &geo.ComputationError{Msg: "failed to query postal area index", Err: err}
	}

	var candidates []candidate
	for _, pos := range hits {
		if err := ctx.Err(); err != nil {
			return nil, &geo.ComputationError{Msg: "coverage computation cancelled", Err: err}
		}

		area := indexed[pos]
		intersection := area.Geometry.Intersection(circle)
		if isEmpty(intersection) {
			continue
		}
		candidates = append(candidates, candidate{
			position:           positions[pos],
			area:               area,
			radiusIntersection: intersection,
		})
	}
	return candidates, nil
}

// unionOf merges every delivery polygon into a single region
func unionOf(features []geo.Feature) geom.Polygonal {
	var union geom.Polygonal
	for _, f := range features {
		for _, polygon := range f.Geometry.Polygons() {
			if union == nil {
				union = polygon
				continue
			}
			union = union.Union(polygon)
		}
	}
	return union
}

// isEmpty reports whether g has no vertices. A single empty Polygon still
// reports itself from Polygons(), so paths are checked.
func isEmpty(g geom.Polygonal) bool {
	if g == nil {
		return true
	}
	for _, polygon := range g.Polygons() {
		for _, path := range polygon {
			if len(path) > 0 {
				return false
			}
		}
	}
	return true
}
