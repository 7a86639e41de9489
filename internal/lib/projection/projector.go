// Package projection reprojects geographic collections into a planar, metric
// coordinate reference so areas and distances can be measured in meters.
package projection

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"

	"github.com/dpup/postarit/internal/lib/geo"
)

// Reference definitions, as proj4 strings
const (
	// ETRS89 / GK25FIN, a Finland zone projection centered on 25°E
	GK25FIN = "+proj=tmerc +lat_0=0 +lon_0=25 +k=1 +x_0=25500000 +y_0=0 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs"

	// ETRS89 / TM35FIN, the national Finnish grid
	TM35FIN = "+proj=utm +zone=35 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs"
)

// knownReferences maps EPSG codes to proj4 definitions so config may name a
// reference by code.
var knownReferences = map[string]string{
	"EPSG:4326": geo.WGS84,
	"EPSG:3879": GK25FIN,
	"EPSG:3067": TM35FIN,
}

// Resolve returns the proj4 definition for an EPSG code, or ref unchanged when
// it is not a known code.
func Resolve(ref string) string {
	if def, ok := knownReferences[strings.ToUpper(strings.TrimSpace(ref))]; ok {
		return def
	}
	return ref
}

// Projector transforms collections into one fixed target reference
type Projector struct {
	target   string
	targetSR *proj.SR
}

// New creates a Projector for target, given as a proj4 string, WKT, or a known
// EPSG code.
func New(target string) (*Projector, error) {
	def := Resolve(target)
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, &geo.ProjectionError{Msg: fmt.Sprintf("unsupported target reference %q", target), Err: err}
	}

	p := &Projector{target: def, targetSR: sr}

	// Unknown projection names only fail once a coordinate is transformed
	if _, err := p.ProjectPoint(geo.Point{Latitude: 60, Longitude: 25}); err != nil {
		return nil, &geo.ProjectionError{Msg: fmt.Sprintf("unsupported target reference %q", target), Err: err}
	}
	return p, nil
}

// Target returns the resolved target reference definition
func (p *Projector) Target() string {
	return p.target
}

// Project returns a copy of c with every geometry transformed to the target
// reference. A collection already in the target reference is copied unchanged.
func (p *Projector) Project(c *geo.Collection) (*geo.Collection, error) {
	out := &geo.Collection{
		Name:     c.Name,
		CRS:      p.target,
		Features: make([]geo.Feature, 0, len(c.Features)),
	}

	if Resolve(c.CRS) == p.target {
		out.Features = append(out.Features, c.Features...)
		return out, nil
	}

	transform, err := p.transformer(c.CRS)
	if err != nil {
		return nil, err
	}

	for i, feature := range c.Features {
		projected, err := clone(feature.Geometry).Transform(transform)
		if err != nil {
			return nil, &geo.ProjectionError{Msg: fmt.Sprintf("failed to project %s feature %d", c.Name, i), Err: err}
		}

		polygonal, ok := projected.(geom.Polygonal)
		if !ok || !finite(polygonal) {
			return nil, &geo.ProjectionError{Msg: fmt.Sprintf("invalid geometry in %s feature %d", c.Name, i)}
		}

		feature.Geometry = polygonal
		out.Features = append(out.Features, feature)
	}

	return out, nil
}

// ProjectPoint transforms a geographic point to the target reference
func (p *Projector) ProjectPoint(point geo.Point) (geom.Point, error) {
	transform, err := p.transformer(geo.WGS84)
	if err != nil {
		return geom.Point{}, err
	}

	x, y, err := transform(point.Longitude, point.Latitude)
	if err != nil {
		return geom.Point{}, &geo.ProjectionError{Msg: "failed to project center point", Err: err}
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return geom.Point{}, &geo.ProjectionError{Msg: "center point is outside the target reference"}
	}
	return geom.Point{X: x, Y: y}, nil
}

func (p *Projector) transformer(source string) (proj.Transformer, error) {
	if source == "" {
		return nil, &geo.ProjectionError{Msg: "collection has no coordinate reference"}
	}

	sourceSR, err := proj.Parse(Resolve(source))
	if err != nil {
		return nil, &geo.ProjectionError{Msg: fmt.Sprintf("unsupported source reference %q", source), Err: err}
	}

	transform, err := sourceSR.NewTransform(p.targetSR)
	if err != nil {
		return nil, &geo.ProjectionError{Msg: "failed to build transform", Err: err}
	}
	return transform, nil
}

// clone deep-copies g so transforms never alias the caller's coordinates
func clone(g geom.Polygonal) geom.Polygonal {
	polygons := g.Polygons()
	out := make(geom.MultiPolygon, len(polygons))
	for i, polygon := range polygons {
		out[i] = make(geom.Polygon, len(polygon))
		for j, path := range polygon {
			out[i][j] = append(geom.Path(nil), path...)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func finite(g geom.Polygonal) bool {
	for _, polygon := range g.Polygons() {
		for _, path := range polygon {
			for _, pt := range path {
				if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
					return false
				}
			}
		}
	}
	return true
}
