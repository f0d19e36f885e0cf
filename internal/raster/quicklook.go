package raster

import (
	"fmt"
	"math"

	"github.com/airbusgeo/godal"
	"github.com/fogleman/gg"
)

// Quicklook renders the first band of a GeoTIFF as a grayscale PNG preview,
// stretched between the band's min and max values.
func Quicklook(tiffPath, pngPath string) error {
	ds, err := godal.Open(tiffPath, godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			return nil
		}
		return fmt.Errorf("%s", msg)
	}))
	if err != nil {
		return fmt.Errorf("failed to open %s: %v", tiffPath, err)
	}
	defer ds.Close()

	bands := ds.Bands()
	if len(bands) == 0 {
		return fmt.Errorf("%s has no raster bands", tiffPath)
	}
	band := bands[0]
	width := ds.Structure().SizeX
	height := ds.Structure().SizeY

	data := make([]float64, width*height)
	if err := band.Read(0, 0, data, width, height); err != nil {
		return fmt.Errorf("failed to read raster data: %v", err)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	scale := hi - lo
	if scale == 0 || math.IsInf(lo, 1) {
		scale = 1
	}

	dc := gg.NewContext(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := data[y*width+x]
			if math.IsNaN(v) {
				continue
			}
			gray := (v - lo) / scale
			dc.SetRGB(gray, gray, gray)
			dc.SetPixel(x, y)
		}
	}

	if err := dc.SavePNG(pngPath); err != nil {
		return fmt.Errorf("failed to save quicklook: %v", err)
	}
	return nil
}
