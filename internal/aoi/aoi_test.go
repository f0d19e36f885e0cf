package aoi

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func TestLarge(t *testing.T) {
	small := New(square(10, 40, 10.5, 40.5))
	assert.False(t, small.Large())

	wide := New(square(10, 40, 11.5, 40.5))
	assert.True(t, wide.Large())

	tall := New(square(10, 40, 10.5, 41.5))
	assert.True(t, tall.Large())

	// Exactly one degree stays single-shot.
	exact := New(square(10, 40, 11, 41))
	assert.False(t, exact.Large())
}

func TestCentroid(t *testing.T) {
	a := New(square(0, 0, 2, 2))
	lat, lon, err := a.Centroid()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, lat, 1e-9)
	assert.InDelta(t, 1.0, lon, 1e-9)
}

func TestGeoJSON(t *testing.T) {
	a := New(square(0, 0, 1, 1))
	geom := a.GeoJSON()
	assert.Equal(t, "Polygon", geom.Type)
}

func TestFishnetPartitionsBound(t *testing.T) {
	bound := orb.Bound{Min: orb.Point{10, 40}, Max: orb.Point{12, 42}}
	tiles := Fishnet(bound, 2, 2)
	require.Len(t, tiles, 4)

	assert.Equal(t, orb.Bound{Min: orb.Point{10, 40}, Max: orb.Point{11, 41}}, tiles[0])
	assert.Equal(t, orb.Bound{Min: orb.Point{11, 41}, Max: orb.Point{12, 42}}, tiles[3])

	// Outer edges must match the parent bound exactly.
	for _, tile := range tiles {
		assert.GreaterOrEqual(t, tile.Left(), bound.Left())
		assert.LessOrEqual(t, tile.Right(), bound.Right())
	}
	assert.Equal(t, bound.Right(), tiles[3].Right())
	assert.Equal(t, bound.Top(), tiles[3].Top())
}

func TestFishnetUnevenGrid(t *testing.T) {
	bound := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{3, 1}}
	tiles := Fishnet(bound, 1, 3)
	require.Len(t, tiles, 3)
	assert.Equal(t, 1.0, tiles[0].Right())
	assert.Equal(t, 3.0, tiles[2].Right())
	assert.Equal(t, 1.0, tiles[2].Top())
}

func TestFishnetClampsToSingleTile(t *testing.T) {
	bound := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}
	tiles := Fishnet(bound, 0, 0)
	require.Len(t, tiles, 1)
	assert.Equal(t, bound, tiles[0])
}
