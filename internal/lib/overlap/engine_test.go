package overlap

import (
	"context"
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/postarit/internal/lib/geo"
)

func rect(minX, minY, maxX, maxY float64) geom.Polygon {
	return geom.Polygon{{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
		{X: minX, Y: minY},
	}}
}

func area(id string, g geom.Polygonal) geo.Feature {
	return geo.Feature{ID: id, Geometry: g}
}

func deliveryOf(polygons ...geom.Polygon) []geo.Feature {
	features := make([]geo.Feature, len(polygons))
	for i, p := range polygons {
		features[i] = geo.Feature{Geometry: p}
	}
	return features
}

func TestCircle(t *testing.T) {
	circle := Circle(geom.Point{X: 100, Y: 200}, 1000, 64)

	require.Len(t, circle, 1)
	require.Len(t, circle[0], 65)
	assert.Equal(t, circle[0][0], circle[0][64], "Ring should be closed")
	for _, pt := range circle[0] {
		assert.InDelta(t, 1000, math.Hypot(pt.X-100, pt.Y-200), 1e-6)
		assert.NotEqual(t, 200.0, pt.Y, "No vertex on the horizontal axis")
	}

	// A 64-gon covers about 99.8% of the true disk
	assert.InEpsilon(t, math.Pi*1000*1000, circle.Area(), 0.005)

	// Too few segments falls back to the default
	assert.Len(t, Circle(geom.Point{}, 10, 2)[0], DefaultCircleSegments+1)
}

func TestCompute_FullyInside(t *testing.T) {
	engine := NewEngine(DefaultOptions())

	results, err := engine.Compute(context.Background(),
		[]geo.Feature{area("20100", rect(0, 0, 100, 100))},
		deliveryOf(rect(-500, -500, 500, 500)),
		geom.Point{X: 50, Y: 50}, 1000)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, Result{ID: "20100", DeliveryPct: 1, RadiusPct: 1, TotalPct: 1, Index: 0}, results[0])
}

func TestCompute_OutsideBufferExcluded(t *testing.T) {
	engine := NewEngine(DefaultOptions())

	results, err := engine.Compute(context.Background(),
		[]geo.Feature{
			area("far", rect(10000, 10000, 11000, 11000)),
			area("near", rect(0, 0, 100, 100)),
		},
		deliveryOf(rect(-20000, -20000, 20000, 20000)),
		geom.Point{}, 1000)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "near", results[0].ID)
	assert.Equal(t, 1, results[0].Index)
}

func TestCompute_CircleInscribedInSquare(t *testing.T) {
	engine := NewEngine(DefaultOptions())

	results, err := engine.Compute(context.Background(),
		[]geo.Feature{area("square", rect(-1000, -1000, 1000, 1000))},
		deliveryOf(rect(-1001, -1001, 1001, 1001)),
		geom.Point{}, 1000)
	require.NoError(t, err)

	require.Len(t, results, 1)
	r := results[0]
	assert.Less(t, r.RadiusPct, 1.0)
	assert.InDelta(t, math.Pi/4, r.RadiusPct, 0.01)
	assert.Equal(t, 1.0, r.DeliveryPct)
	assert.Equal(t, r.RadiusPct, r.TotalPct)
}

func TestCompute_PartialDeliveryCoverage(t *testing.T) {
	engine := NewEngine(DefaultOptions())

	results, err := engine.Compute(context.Background(),
		[]geo.Feature{area("20100", rect(0, 0, 100, 100))},
		deliveryOf(rect(-10, -10, 50, 110)),
		geom.Point{X: 50, Y: 50}, 5000)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, 0.5, results[0].DeliveryPct)
	assert.Equal(t, 1.0, results[0].RadiusPct)
	assert.Equal(t, 0.5, results[0].TotalPct)
}

func TestCompute_DeliveryPolygonsAreUnioned(t *testing.T) {
	engine := NewEngine(DefaultOptions())

	// Two overlapping halves cover the area exactly once
	results, err := engine.Compute(context.Background(),
		[]geo.Feature{area("20100", rect(0, 0, 100, 100))},
		deliveryOf(rect(-10, -10, 60, 110), rect(40, -20, 110, 120)),
		geom.Point{X: 50, Y: 50}, 5000)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, 1.0, results[0].DeliveryPct)
	assert.Equal(t, 1.0, results[0].TotalPct)
}

func TestCompute_BelowThresholdExcluded(t *testing.T) {
	engine := NewEngine(DefaultOptions())

	// Only a thin sliver of "edge" lies inside the buffer
	results, err := engine.Compute(context.Background(),
		[]geo.Feature{
			area("edge", rect(990, -500, 1990, 500)),
			area("inside", rect(-100, -100, 100, 100)),
		},
		deliveryOf(rect(-5000, -5000, 5000, 5000)),
		geom.Point{}, 1000)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "inside", results[0].ID)
}

func TestCompute_ThresholdUsesUnroundedTotal(t *testing.T) {
	engine := NewEngine(DefaultOptions())

	// "under" is 1.99% covered and would round up to 0.02; "over" is 2.01%
	results, err := engine.Compute(context.Background(),
		[]geo.Feature{
			area("under", rect(0, 0, 100, 100)),
			area("over", rect(200, 0, 300, 100)),
		},
		deliveryOf(rect(-10, -10, 1.99, 110), rect(297.99, -10, 310, 110)),
		geom.Point{X: 150, Y: 50}, 5000)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "over", results[0].ID)
	assert.Equal(t, 0.02, results[0].TotalPct)
	assert.Equal(t, 1, results[0].Index)
}

func TestCompute_RecoversGeometryPanic(t *testing.T) {
	engine := NewEngine(DefaultOptions())

	// A delivery feature without geometry fails inside the union
	results, err := engine.Compute(context.Background(),
		[]geo.Feature{area("20100", rect(0, 0, 100, 100))},
		[]geo.Feature{{Geometry: rect(-500, -500, 500, 500)}, {}},
		geom.Point{}, 1000)
	require.Error(t, err)
	assert.Nil(t, results)

	var compErr *geo.ComputationError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, "geometry operation failed", compErr.Msg)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, isEmpty(nil))
	assert.True(t, isEmpty(geom.Polygon{}))
	assert.True(t, isEmpty(geom.Polygon{{}}))
	assert.True(t, isEmpty(geom.MultiPolygon{}))
	assert.False(t, isEmpty(rect(0, 0, 1, 1)))
	assert.False(t, isEmpty(geom.MultiPolygon{nil, rect(0, 0, 1, 1)}))
}

func TestCompute_DisjointIntersectionIsEmpty(t *testing.T) {
	// Clipping results are Polygonal values; empty ones must not count as overlap
	a := rect(0, 0, 10, 10)
	assert.True(t, isEmpty(a.Intersection(rect(20, 20, 30, 30))))
	assert.False(t, isEmpty(a.Intersection(rect(5, 5, 15, 15))))
	assert.InDelta(t, 25, a.Intersection(rect(5, 5, 15, 15)).Area(), 1e-9)
}

func TestCompute_NoDeliveryOverlap(t *testing.T) {
	engine := NewEngine(DefaultOptions())

	results, err := engine.Compute(context.Background(),
		[]geo.Feature{area("20100", rect(0, 0, 100, 100))},
		deliveryOf(rect(500, 500, 600, 600)),
		geom.Point{X: 50, Y: 50}, 5000)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
}

func TestCompute_InputOrderAndBounds(t *testing.T) {
	engine := NewEngine(DefaultOptions())

	areas := []geo.Feature{
		area("c", rect(500, 0, 1500, 1000)),
		area("a", rect(-1000, -1000, 0, 0)),
		area("b", rect(-300, 200, 300, 800)),
		area("multi", geom.MultiPolygon{rect(-900, 0, -700, 200), rect(-600, 0, -400, 200)}),
	}
	results, err := engine.Compute(context.Background(), areas,
		deliveryOf(rect(-800, -800, 800, 800)),
		geom.Point{}, 1000)
	require.NoError(t, err)

	ids := []string{}
	for _, r := range results {
		ids = append(ids, r.ID)

		assert.GreaterOrEqual(t, r.TotalPct, DefaultMinTotalRatio)
		for _, v := range []float64{r.DeliveryPct, r.RadiusPct, r.TotalPct} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
		assert.LessOrEqual(t, r.TotalPct, r.DeliveryPct)
		assert.LessOrEqual(t, r.TotalPct, r.RadiusPct)
	}
	assert.Equal(t, []string{"c", "a", "b", "multi"}, ids)
}

func TestCompute_CustomThreshold(t *testing.T) {
	engine := NewEngine(Options{MinTotalRatio: 0.6})
	assert.Equal(t, DefaultCircleSegments, engine.Options().CircleSegments)

	results, err := engine.Compute(context.Background(),
		[]geo.Feature{area("20100", rect(0, 0, 100, 100))},
		deliveryOf(rect(-10, -10, 50, 110)),
		geom.Point{X: 50, Y: 50}, 5000)
	require.NoError(t, err)
	assert.Empty(t, results, "50% coverage is below a 60% threshold")
}

func TestCompute_Errors(t *testing.T) {
	engine := NewEngine(DefaultOptions())
	areas := []geo.Feature{area("20100", rect(0, 0, 100, 100))}
	delivery := deliveryOf(rect(-500, -500, 500, 500))

	_, err := engine.Compute(context.Background(), areas, delivery, geom.Point{}, 0)
	require.Error(t, err)
	assert.Equal(t, geo.KindInput, geo.Kind(err))

	_, err = engine.Compute(context.Background(), areas, nil, geom.Point{}, 1000)
	require.Error(t, err)
	assert.Equal(t, geo.KindComputation, geo.Kind(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.Compute(ctx, areas, delivery, geom.Point{}, 1000)
	require.Error(t, err)
	assert.Equal(t, geo.KindComputation, geo.Kind(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.79, round2(0.785398))
	assert.Equal(t, 0.02, round2(0.0199))
	assert.Equal(t, 1.0, round2(0.99999999))
}
