package kml

import (
	"io"

	gokml "github.com/twpayne/go-kml"

	"github.com/dpup/postarit/internal/lib/geo"
)

// Area is one postal area rendered as a KML Placemark
type Area struct {
	Name        string
	Description string
	Outline     []geo.Point
}

// WriteAreas renders areas as an indented KML document. Areas without an outline
// are written as Placemarks with no geometry.
func WriteAreas(w io.Writer, documentName string, areas []Area) error {
	children := []gokml.Element{gokml.Name(documentName)}
	for _, area := range areas {
		children = append(children, placemark(area))
	}

	return gokml.KML(gokml.Document(children...)).WriteIndent(w, "", "  ")
}

func placemark(area Area) gokml.Element {
	elements := []gokml.Element{
		gokml.Name(area.Name),
		gokml.Description(area.Description),
	}

	if len(area.Outline) >= 3 {
		coords := make([]gokml.Coordinate, len(area.Outline))
		for i, p := range area.Outline {
			coords[i] = gokml.Coordinate{Lon: p.Longitude, Lat: p.Latitude}
		}
		elements = append(elements, gokml.Polygon(
			gokml.OuterBoundaryIs(
				gokml.LinearRing(
					gokml.Coordinates(coords...),
				),
			),
		))
	}

	return gokml.Placemark(elements...)
}
