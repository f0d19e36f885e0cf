package aoi

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// LargeExtentDegrees is the bounding-box side beyond which an AOI is
// downloaded as fishnet tiles instead of a single request.
const LargeExtentDegrees = 1.0

// AOI is an area of interest in WGS84, read from a shapefile or GeoJSON file.
type AOI struct {
	geom  orb.Geometry
	bound orb.Bound
}

// Load reads the first vector layer of path and combines every polygonal
// feature into one AOI.
func Load(path string) (*AOI, error) {
	ds, err := godal.Open(path, godal.VectorOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to open AOI file %s: %w", path, err)
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return nil, fmt.Errorf("no vector layers in %s", path)
	}
	layer := layers[0]

	var polygons orb.MultiPolygon
	for {
		feat := layer.NextFeature()
		if feat == nil {
			break
		}
		geom := feat.Geometry()
		data, err := geom.WKB()
		feat.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to export feature geometry: %v", err)
		}
		g, err := wkb.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode feature geometry: %v", err)
		}
		switch t := g.(type) {
		case orb.Polygon:
			polygons = append(polygons, t)
		case orb.MultiPolygon:
			polygons = append(polygons, t...)
		default:
			return nil, fmt.Errorf("unsupported AOI geometry type %s in %s", g.GeoJSONType(), path)
		}
	}
	if len(polygons) == 0 {
		return nil, fmt.Errorf("no polygon features found in %s", path)
	}
	if len(polygons) == 1 {
		return New(polygons[0]), nil
	}
	return New(polygons), nil
}

// New wraps an existing geometry as an AOI.
func New(geom orb.Geometry) *AOI {
	return &AOI{geom: geom, bound: geom.Bound()}
}

func (a *AOI) Geometry() orb.Geometry {
	return a.geom
}

// GeoJSON returns the AOI geometry in the form embedded into service requests.
func (a *AOI) GeoJSON() *geojson.Geometry {
	return geojson.NewGeometry(a.geom)
}

func (a *AOI) Bound() orb.Bound {
	return a.bound
}

// Centroid returns the area-weighted centroid as (lat, lon).
func (a *AOI) Centroid() (float64, float64, error) {
	centroid, area := planar.CentroidArea(a.geom)
	if area <= 0 {
		return 0, 0, fmt.Errorf("cannot compute centroid of degenerate geometry")
	}
	return centroid.Y(), centroid.X(), nil
}

// Large reports whether the bounding box exceeds the tiling threshold in
// either axis.
func (a *AOI) Large() bool {
	return a.bound.Right()-a.bound.Left() > LargeExtentDegrees ||
		a.bound.Top()-a.bound.Bottom() > LargeExtentDegrees
}

// Fishnet partitions bound into a rows x cols grid of tile bounds. Tiles
// cover the bound exactly and share edges.
func Fishnet(bound orb.Bound, rows, cols int) []orb.Bound {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	width := (bound.Right() - bound.Left()) / float64(cols)
	height := (bound.Top() - bound.Bottom()) / float64(rows)

	tiles := make([]orb.Bound, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			left := bound.Left() + float64(c)*width
			bottom := bound.Bottom() + float64(r)*height
			right := left + width
			top := bottom + height
			// Snap the outer edges to the parent bound so float error
			// cannot leave slivers.
			if c == cols-1 {
				right = bound.Right()
			}
			if r == rows-1 {
				top = bound.Top()
			}
			tiles = append(tiles, orb.Bound{
				Min: orb.Point{left, bottom},
				Max: orb.Point{right, top},
			})
		}
	}
	return tiles
}
