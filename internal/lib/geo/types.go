package geo

import "github.com/ctessum/geom"

// WGS84 is the geographic reference (longitude/latitude in degrees) that parsed
// and loaded collections are tagged with.
const WGS84 = "+proj=longlat +datum=WGS84 +no_defs"

// DefaultAreaID is used when a postal area carries no identifier attribute.
const DefaultAreaID = "Unknown"

// Point represents a geographic coordinate
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Feature is a single polygonal geometry in a Collection. Postal areas carry an ID;
// delivery-area polygons do not.
type Feature struct {
	ID       string
	Geometry geom.Polygonal

	// Outline is the geographic exterior ring, kept for rendering after the
	// geometry has been projected.
	Outline []Point
}

// Collection is an ordered set of features sharing one coordinate reference.
type Collection struct {
	Name     string
	CRS      string
	Features []Feature
}

