package sentinel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/canopysat/eeharvest/internal/aoi"
	"github.com/canopysat/eeharvest/internal/ee"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeometry() *geojson.Geometry {
	return geojson.NewGeometry(orb.Polygon{{{10, 40}, {11, 40}, {11, 41}, {10, 40}}})
}

func maskedMedianJSON(t *testing.T, windows []ee.DateWindow, p MaskParams) string {
	t.Helper()
	g := ee.NewGraph()
	geom := g.Geometry(testGeometry())
	data, err := json.Marshal(g.Expression(MaskedMedian(g, geom, windows, p)))
	require.NoError(t, err)
	return string(data)
}

func TestJoinedCollection(t *testing.T) {
	g := ee.NewGraph()
	geom := g.Geometry(testGeometry())
	col := JoinedCollection(g, geom, ee.DateWindow{Start: "2023-01-01", End: "2023-02-01"}, 15)

	data, err := json.Marshal(g.Expression(col))
	require.NoError(t, err)
	got := string(data)

	assert.Contains(t, got, SRCollectionID)
	assert.Contains(t, got, CloudProbCollectionID)
	assert.Contains(t, got, `"functionName":"Join.saveFirst"`)
	assert.Contains(t, got, `"s2cloudless"`)
	assert.Contains(t, got, `"system:index"`)
	assert.Contains(t, got, `"CLOUDY_PIXEL_PERCENTAGE"`)
}

func TestMaskedMedianGraph(t *testing.T) {
	windows := []ee.DateWindow{{Start: "2023-01-01", End: "2023-02-01"}}
	got := maskedMedianJSON(t, windows, DefaultMaskParams())

	assert.Contains(t, got, `"functionName":"Collection.map"`)
	assert.Contains(t, got, `"_MAPPING_VAR_0_0"`)
	assert.Contains(t, got, `"functionName":"Image.directionalDistanceTransform"`)
	assert.Contains(t, got, `"functionName":"Image.focalMin"`)
	assert.Contains(t, got, `"functionName":"Image.updateMask"`)
	assert.Contains(t, got, `"functionName":"Reducer.median"`)
	assert.Contains(t, got, `"MEAN_SOLAR_AZIMUTH_ANGLE"`)
	assert.Contains(t, got, `"B.*"`)
	// The reflectance scale applied to the 0.15 NIR threshold.
	assert.Contains(t, got, "1500")
}

func TestMaskedMedianProjectionDistance(t *testing.T) {
	windows := []ee.DateWindow{{Start: "2023-01-01", End: "2023-02-01"}}
	p := DefaultMaskParams()
	p.CloudProjDist = 3

	got := maskedMedianJSON(t, windows, p)
	assert.Contains(t, got, `"maxDistance":{`)
	assert.Contains(t, got, `"constantValue":30`)
}

func TestCollectionMergesWindows(t *testing.T) {
	g := ee.NewGraph()
	geom := g.Geometry(testGeometry())
	windows := []ee.DateWindow{
		{Start: "2022-01-01", End: "2022-02-01"},
		{Start: "2023-01-01", End: "2023-02-01"},
	}
	data, err := json.Marshal(g.Expression(Collection(g, geom, windows, 15)))
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(string(data), `"functionName":"ImageCollection.merge"`))
}

func TestHarvestFailsWhenAllImagesTooCloudy(t *testing.T) {
	t.Setenv("EEHARVEST_DATA", t.TempDir())

	// The catalog has images for the window, but none below the cloud
	// filter: the listing must carry the cloudiness cut so the harvest
	// fails here instead of requesting an empty composite.
	var gotFilter string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("filter")
		fmt.Fprint(w, `{"images":[]}`)
	}))
	t.Cleanup(srv.Close)

	client, err := ee.NewClient(context.Background(), "test-project",
		ee.WithHTTPClient(srv.Client()), ee.WithBaseURL(srv.URL))
	require.NoError(t, err)

	h := &Harvester{Client: client}
	err = h.Harvest(context.Background(), aoi.New(orb.Polygon{{{10, 40}, {11, 40}, {11, 41}, {10, 40}}}), Params{
		Windows: []ee.DateWindow{{Start: "2023-01-01", End: "2023-02-01"}},
		Mask:    DefaultMaskParams(),
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "no Sentinel-2 images found")
	assert.ErrorContains(t, err, "cloud filter (max 15%)")
	assert.Equal(t, "properties.CLOUDY_PIXEL_PERCENTAGE <= 15", gotFilter)
}

func TestParamsValidate(t *testing.T) {
	valid := Params{Windows: []ee.DateWindow{{Start: "2023-01-01", End: "2023-02-01"}}}
	require.NoError(t, valid.validate())
	assert.Equal(t, DefaultBands, valid.Bands)
	assert.Equal(t, 4326, valid.EPSG)

	noWindows := Params{}
	assert.ErrorContains(t, noWindows.validate(), "date window")

	badBand := Params{Windows: valid.Windows, Bands: []string{"X2"}}
	assert.ErrorContains(t, badBand.validate(), "invalid Sentinel-2 reflectance band")
}
