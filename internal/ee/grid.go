package ee

import (
	"fmt"
	"math"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
)

const (
	// metersPerDegree approximates ground distance per degree at the
	// equator, used to convert a metric resolution to geographic CRS units.
	metersPerDegree = 111_000.0

	// maxGridDimension is the per-axis pixel limit accepted by
	// image:computePixels.
	maxGridDimension = 32_768
)

// PixelGrid describes the requested pixel layout of a computePixels call.
type PixelGrid struct {
	Dimensions      GridDimensions  `json:"dimensions"`
	AffineTransform AffineTransform `json:"affineTransform"`
	CRSCode         string          `json:"crsCode"`
}

type GridDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type AffineTransform struct {
	ScaleX     float64 `json:"scaleX"`
	ShearX     float64 `json:"shearX"`
	TranslateX float64 `json:"translateX"`
	ShearY     float64 `json:"shearY"`
	ScaleY     float64 `json:"scaleY"`
	TranslateY float64 `json:"translateY"`
}

// GridForBound derives the pixel grid covering bound at resolution meters in
// the given output CRS. The bound is always WGS84 lon/lat: for EPSG:4326 the
// resolution is converted to degrees, for projected systems the bound is
// projected into the target CRS first. Dimensions are clamped to the
// service's per-request limit.
func GridForBound(bound orb.Bound, resolutionMeters float64, epsg int) (PixelGrid, error) {
	if resolutionMeters <= 0 {
		return PixelGrid{}, fmt.Errorf("resolution must be positive, got %g", resolutionMeters)
	}
	if bound.Right()-bound.Left() <= 0 || bound.Top()-bound.Bottom() <= 0 {
		return PixelGrid{}, fmt.Errorf("bound has nonpositive extent: %g x %g",
			bound.Right()-bound.Left(), bound.Top()-bound.Bottom())
	}

	res := resolutionMeters
	if epsg == 4326 {
		res = resolutionMeters / metersPerDegree
	} else {
		projected, err := projectBound(bound, epsg)
		if err != nil {
			return PixelGrid{}, err
		}
		bound = projected
	}
	width := bound.Right() - bound.Left()
	height := bound.Top() - bound.Bottom()

	cols := clampDimension(int(math.Ceil(width / res)))
	rows := clampDimension(int(math.Ceil(height / res)))

	return PixelGrid{
		Dimensions: GridDimensions{Width: cols, Height: rows},
		AffineTransform: AffineTransform{
			ScaleX:     res,
			TranslateX: bound.Left(),
			ScaleY:     -res,
			TranslateY: bound.Top(),
		},
		CRSCode: fmt.Sprintf("EPSG:%d", epsg),
	}, nil
}

// projectBound transforms a WGS84 lon/lat bound into the target CRS by
// projecting its corners.
func projectBound(bound orb.Bound, epsg int) (orb.Bound, error) {
	src, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("failed to create WGS84 spatial reference: %v", err)
	}
	defer src.Close()
	dst, err := godal.NewSpatialRefFromEPSG(epsg)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("unsupported output EPSG:%d: %v", epsg, err)
	}
	defer dst.Close()
	trn, err := godal.NewTransform(src, dst)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("failed to create transform to EPSG:%d: %v", epsg, err)
	}
	defer trn.Close()

	xs := []float64{bound.Left(), bound.Right(), bound.Left(), bound.Right()}
	ys := []float64{bound.Bottom(), bound.Bottom(), bound.Top(), bound.Top()}
	if err := trn.TransformEx(xs, ys, nil, nil); err != nil {
		return orb.Bound{}, fmt.Errorf("failed to project bound to EPSG:%d: %v", epsg, err)
	}

	out := orb.Bound{Min: orb.Point{xs[0], ys[0]}, Max: orb.Point{xs[0], ys[0]}}
	for i := 1; i < len(xs); i++ {
		out = out.Extend(orb.Point{xs[i], ys[i]})
	}
	return out, nil
}

func clampDimension(d int) int {
	if d < 1 {
		return 1
	}
	if d > maxGridDimension {
		return maxGridDimension
	}
	return d
}
