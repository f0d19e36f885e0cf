package raster

import (
	"fmt"

	"github.com/airbusgeo/godal"
)

// Mosaic stitches the tile rasters into a single GeoTIFF at outPath. The
// tiles are assembled through an in-memory VRT so the output extent is the
// trimmed union of the tile extents.
func Mosaic(tilePaths []string, outPath string) error {
	if len(tilePaths) == 0 {
		return fmt.Errorf("no tiles to mosaic into %s", outPath)
	}
	vrt, err := godal.BuildVRT("", tilePaths, nil)
	if err != nil {
		return fmt.Errorf("failed to build mosaic vrt: %w", err)
	}
	defer vrt.Close()

	out, err := vrt.Translate(outPath, nil, godal.GTiff,
		godal.CreationOption("COMPRESS=LZW", "TILED=YES"))
	if err != nil {
		return fmt.Errorf("failed to write mosaic %s: %w", outPath, err)
	}
	return out.Close()
}
