// Package kml reads delivery-area polygons from KML documents and writes
// qualifying postal areas back out as KML.
package kml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"golang.org/x/net/html/charset"

	"github.com/dpup/postarit/internal/lib/geo"
)

// Namespace is the OGC KML 2.2 schema namespace that Polygon and coordinates
// elements are matched against.
const Namespace = "http://www.opengis.net/kml/2.2"

// Parse reads a KML document and returns every Polygon coordinate block with at
// least three points as a polygon. Blocks are collected at any nesting depth, so
// outer and inner boundaries each become their own polygon.
//
// The result is always tagged geo.WGS84; KML coordinates are longitude,latitude
// in degrees.
func Parse(r io.Reader) (*geo.Collection, error) {
	blocks, err := coordinateBlocks(r)
	if err != nil {
		return nil, err
	}

	if len(blocks) == 0 {
		return nil, &geo.ParseError{Msg: "No Polygon coordinates found"}
	}

	collection := &geo.Collection{
		Name: "delivery_area",
		CRS:  geo.WGS84,
	}

	for i, block := range blocks {
		points, err := parseCoordinates(block)
		if err != nil {
			return nil, &geo.ParseError{Msg: fmt.Sprintf("invalid coordinates in Polygon block %d", i+1), Err: err}
		}
		if len(points) < 3 {
			continue
		}
		collection.Features = append(collection.Features, processPolygon(points))
	}

	if len(collection.Features) == 0 {
		return nil, &geo.ParseError{Msg: "No valid Polygon geometries constructed"}
	}

	return collection, nil
}

// coordinateBlocks walks the token stream and returns the text of every
// kml:coordinates element nested anywhere below a kml:Polygon element.
func coordinateBlocks(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	var (
		blocks       []string
		polygonDepth int
		inCoords     bool
		text         strings.Builder
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &geo.ParseError{Msg: "failed to parse KML", Err: err}
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Space != Namespace {
				continue
			}
			switch t.Name.Local {
			case "Polygon":
				polygonDepth++
			case "coordinates":
				if polygonDepth > 0 {
					inCoords = true
					text.Reset()
				}
			}
		case xml.EndElement:
			if t.Name.Space != Namespace {
				continue
			}
			switch t.Name.Local {
			case "Polygon":
				if polygonDepth > 0 {
					polygonDepth--
				}
			case "coordinates":
				if inCoords {
					blocks = append(blocks, strings.TrimSpace(text.String()))
					inCoords = false
				}
			}
		case xml.CharData:
			if inCoords {
				text.Write(t)
			}
		}
	}

	return blocks, nil
}

// parseCoordinates splits a coordinates block into lon,lat[,alt] tuples.
// Only the first two components are kept.
func parseCoordinates(block string) ([]geo.Point, error) {
	var points []geo.Point
	for _, tuple := range strings.Fields(block) {
		components := strings.Split(tuple, ",")
		if len(components) < 2 {
			return nil, fmt.Errorf("coordinate %q needs at least longitude and latitude", tuple)
		}

		values := make([]float64, len(components))
		for i, c := range components {
			v, err := strconv.ParseFloat(c, 64)
			if err != nil {
				return nil, fmt.Errorf("coordinate %q: %w", tuple, err)
			}
			values[i] = v
		}

		// KML coordinates are in "longitude,latitude,altitude" format
		points = append(points, geo.Point{
			Latitude:  values[1],
			Longitude: values[0],
		})
	}
	return points, nil
}

// processPolygon converts a coordinate ring into a delivery-area feature
func processPolygon(points []geo.Point) geo.Feature {
	path := make(geom.Path, len(points))
	for i, p := range points {
		path[i] = geom.Point{X: p.Longitude, Y: p.Latitude}
	}

	return geo.Feature{
		Geometry: geom.Polygon{path},
		Outline:  points,
	}
}
