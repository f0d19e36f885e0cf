package dynworld

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/canopysat/eeharvest/internal/ee"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeometry() *geojson.Geometry {
	return geojson.NewGeometry(orb.Polygon{{{10, 40}, {11, 40}, {11, 41}, {10, 40}}})
}

func exprJSON(t *testing.T, g *ee.Graph, result ee.Node) string {
	t.Helper()
	data, err := json.Marshal(g.Expression(result))
	require.NoError(t, err)
	return string(data)
}

func TestLabelComposite(t *testing.T) {
	windows := []ee.DateWindow{{Start: "2023-01-01", End: "2023-03-01"}}
	g := ee.NewGraph()
	geom := g.Geometry(testGeometry())

	got := exprJSON(t, g, LabelComposite(g, geom, windows))

	assert.Contains(t, got, CollectionID)
	assert.Contains(t, got, `"functionName":"Reducer.mode"`)
	assert.Contains(t, got, `"functionName":"Filter.intersects"`)
	assert.Contains(t, got, `"functionName":"Filter.dateRangeContains"`)
	assert.Contains(t, got, `"label"`)
	assert.NotContains(t, got, "ImageCollection.merge")
}

func TestCollectionMergesWindows(t *testing.T) {
	windows := []ee.DateWindow{
		{Start: "2022-06-01", End: "2022-09-01"},
		{Start: "2023-06-01", End: "2023-09-01"},
		{Start: "2024-06-01", End: "2024-09-01"},
	}
	g := ee.NewGraph()
	geom := g.Geometry(testGeometry())

	got := exprJSON(t, g, Collection(g, geom, windows))

	assert.Equal(t, 2, strings.Count(got, `"functionName":"ImageCollection.merge"`))
	assert.Contains(t, got, "2022-06-01")
	assert.Contains(t, got, "2024-09-01")
}

func TestProbabilityComposite(t *testing.T) {
	windows := []ee.DateWindow{{Start: "2023-01-01", End: "2023-03-01"}}

	g := ee.NewGraph()
	got := exprJSON(t, g, ProbabilityComposite(g, g.Geometry(testGeometry()), windows, ClassBands, "mean"))
	assert.Contains(t, got, `"functionName":"Reducer.mean"`)
	assert.Contains(t, got, "flooded_vegetation")

	g = ee.NewGraph()
	got = exprJSON(t, g, ProbabilityComposite(g, g.Geometry(testGeometry()), windows, ClassBands, "median"))
	assert.Contains(t, got, `"functionName":"Reducer.median"`)
}

func TestParamsValidate(t *testing.T) {
	valid := Params{Windows: []ee.DateWindow{{Start: "2023-01-01", End: "2023-02-01"}}}
	require.NoError(t, valid.validate())
	assert.Equal(t, ClassBands, valid.Bands)
	assert.Equal(t, 4326, valid.EPSG)
	assert.Equal(t, 10.0, valid.Resolution)

	noWindows := Params{}
	assert.ErrorContains(t, noWindows.validate(), "date window")

	badBand := Params{
		Windows: valid.Windows,
		Bands:   []string{"water", "lava"},
	}
	assert.ErrorContains(t, badBand.validate(), `unknown Dynamic World band "lava"`)

	badProb := Params{Windows: valid.Windows, ProbType: "mode"}
	assert.ErrorContains(t, badProb.validate(), "invalid probability type")
}
