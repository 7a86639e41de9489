package overlap

import (
	"math"

	"github.com/ctessum/geom"
)

// Circle approximates the disk of radius around center as a closed, regular,
// counter-clockwise polygon with the given number of vertices. Vertices sit half
// a segment off the axes so none lands exactly on an axis-aligned edge through
// the circle's extreme points.
func Circle(center geom.Point, radius float64, segments int) geom.Polygon {
	if segments < 3 {
		segments = DefaultCircleSegments
	}

	ring := make(geom.Path, 0, segments+1)
	for i := 0; i < segments; i++ {
		angle := 2 * math.Pi * (float64(i) + 0.5) / float64(segments)
		ring = append(ring, geom.Point{
			X: center.X + radius*math.Cos(angle),
			Y: center.Y + radius*math.Sin(angle),
		})
	}
	ring = append(ring, ring[0])

	return geom.Polygon{ring}
}
