package geojson

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/postarit/internal/lib/geo"
)

func TestLoad_PostalCodes(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "postal_codes.geojson"))
	require.NoError(t, err)
	defer f.Close()

	collection, err := Load(f)
	require.NoError(t, err)

	assert.Equal(t, geo.WGS84, collection.CRS)
	require.Len(t, collection.Features, 3, "Point features are skipped")

	ids := []string{}
	for _, feature := range collection.Features {
		ids = append(ids, feature.ID)
	}
	assert.Equal(t, []string{"20100", "20500", geo.DefaultAreaID}, ids)

	first := collection.Features[0]
	require.IsType(t, geom.Polygon{}, first.Geometry)
	assert.Equal(t, geom.Point{X: 22.25, Y: 60.44}, first.Geometry.(geom.Polygon)[0][0])
	require.Len(t, first.Outline, 5)
	assert.Equal(t, geo.Point{Latitude: 60.44, Longitude: 22.25}, first.Outline[0])

	second := collection.Features[1]
	require.IsType(t, geom.MultiPolygon{}, second.Geometry)
	assert.Len(t, second.Geometry.Polygons(), 2)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(strings.NewReader("not json"))
	require.Error(t, err)
	assert.Equal(t, geo.KindParse, geo.Kind(err))

	_, err = Load(strings.NewReader(`{"type":"FeatureCollection","features":[]}`))
	require.Error(t, err)
	assert.EqualError(t, err, "No postal code polygons found")
}
