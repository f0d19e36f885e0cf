package ee

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridForBoundGeographic(t *testing.T) {
	bound := orb.Bound{Min: orb.Point{10, 40}, Max: orb.Point{12, 41}}

	grid, err := GridForBound(bound, 1110, 4326)
	require.NoError(t, err)

	assert.Equal(t, 200, grid.Dimensions.Width)
	assert.Equal(t, 100, grid.Dimensions.Height)
	assert.Equal(t, "EPSG:4326", grid.CRSCode)

	assert.InDelta(t, 0.01, grid.AffineTransform.ScaleX, 1e-12)
	assert.InDelta(t, -0.01, grid.AffineTransform.ScaleY, 1e-12)
	assert.Equal(t, 10.0, grid.AffineTransform.TranslateX)
	assert.Equal(t, 41.0, grid.AffineTransform.TranslateY)
	assert.Zero(t, grid.AffineTransform.ShearX)
	assert.Zero(t, grid.AffineTransform.ShearY)
}

func TestGridForBoundProjected(t *testing.T) {
	// The bound stays in WGS84 degrees; GridForBound must project it into
	// the target CRS before sizing pixels. 2 degrees of longitude at 40N
	// is roughly 170 km, so at 10 m this grid is on the order of 17k
	// pixels wide, not the single pixel a degrees-as-meters mixup yields.
	bound := orb.Bound{Min: orb.Point{10, 40}, Max: orb.Point{12, 41}}

	grid, err := GridForBound(bound, 10, 32633)
	require.NoError(t, err)

	assert.Equal(t, "EPSG:32633", grid.CRSCode)
	assert.Equal(t, 10.0, grid.AffineTransform.ScaleX)
	assert.Equal(t, -10.0, grid.AffineTransform.ScaleY)

	assert.Greater(t, grid.Dimensions.Width, 15_000)
	assert.Less(t, grid.Dimensions.Width, 20_000)
	assert.Greater(t, grid.Dimensions.Height, 10_000)
	assert.Less(t, grid.Dimensions.Height, 13_000)

	// UTM zone 33N coordinates, not lon/lat values.
	assert.Greater(t, grid.AffineTransform.TranslateX, 1_000.0)
	assert.Greater(t, grid.AffineTransform.TranslateY, 4_000_000.0)
}

func TestGridForBoundRejectsUnknownEPSG(t *testing.T) {
	bound := orb.Bound{Min: orb.Point{10, 40}, Max: orb.Point{12, 41}}

	_, err := GridForBound(bound, 10, 999999)
	assert.ErrorContains(t, err, "EPSG:999999")
}

func TestGridForBoundClampsDimensions(t *testing.T) {
	bound := orb.Bound{Min: orb.Point{-180, -80}, Max: orb.Point{180, 80}}

	grid, err := GridForBound(bound, 1, 4326)
	require.NoError(t, err)

	assert.Equal(t, maxGridDimension, grid.Dimensions.Width)
	assert.Equal(t, maxGridDimension, grid.Dimensions.Height)
}

func TestGridForBoundRejectsBadInput(t *testing.T) {
	ok := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}

	_, err := GridForBound(ok, 0, 4326)
	assert.ErrorContains(t, err, "resolution")

	empty := orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{1, 1}}
	_, err = GridForBound(empty, 10, 4326)
	assert.ErrorContains(t, err, "nonpositive extent")
}
