// Package geojson loads postal-code boundary feature collections.
package geojson

import (
	"fmt"
	"io"
	"strconv"

	"github.com/ctessum/geom"
	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"

	"github.com/dpup/postarit/internal/lib/geo"
)

// IDProperty is the feature attribute holding the postal code.
const IDProperty = "postinumeroalue"

// Load decodes a GeoJSON FeatureCollection into postal areas. Polygon and
// MultiPolygon features are kept in input order; other geometry types are skipped.
func Load(r io.Reader) (*geo.Collection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &geo.ParseError{Msg: "failed to read postal boundaries", Err: err}
	}

	fc, err := orbjson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, &geo.ParseError{Msg: "failed to parse postal boundaries GeoJSON", Err: err}
	}

	collection := &geo.Collection{
		Name: "postal_codes",
		CRS:  geo.WGS84,
	}

	for _, feature := range fc.Features {
		if feature == nil || feature.Geometry == nil {
			continue
		}

		polygonal, outline := convertGeometry(feature.Geometry)
		if polygonal == nil {
			continue
		}

		collection.Features = append(collection.Features, geo.Feature{
			ID:       areaID(feature.Properties),
			Geometry: polygonal,
			Outline:  outline,
		})
	}

	if len(collection.Features) == 0 {
		return nil, &geo.ParseError{Msg: "No postal code polygons found"}
	}

	return collection, nil
}

// areaID returns the postal code of a feature, formatting numeric codes and
// falling back to geo.DefaultAreaID.
func areaID(props orbjson.Properties) string {
	value, ok := props[IDProperty]
	if !ok || value == nil {
		return geo.DefaultAreaID
	}

	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// convertGeometry maps orb polygons to ctessum/geom polygons. The outline is the
// exterior ring of the first polygon.
func convertGeometry(g orb.Geometry) (geom.Polygonal, []geo.Point) {
	switch v := g.(type) {
	case orb.Polygon:
		if len(v) == 0 {
			return nil, nil
		}
		return convertPolygon(v), outline(v[0])
	case orb.MultiPolygon:
		if len(v) == 0 || len(v[0]) == 0 {
			return nil, nil
		}
		mp := make(geom.MultiPolygon, 0, len(v))
		for _, p := range v {
			mp = append(mp, convertPolygon(p))
		}
		return mp, outline(v[0][0])
	}
	return nil, nil
}

func convertPolygon(p orb.Polygon) geom.Polygon {
	polygon := make(geom.Polygon, 0, len(p))
	for _, ring := range p {
		path := make(geom.Path, len(ring))
		for i, pt := range ring {
			path[i] = geom.Point{X: pt.Lon(), Y: pt.Lat()}
		}
		polygon = append(polygon, path)
	}
	return polygon
}

func outline(ring orb.Ring) []geo.Point {
	points := make([]geo.Point, len(ring))
	for i, pt := range ring {
		points[i] = geo.Point{Latitude: pt.Lat(), Longitude: pt.Lon()}
	}
	return points
}
