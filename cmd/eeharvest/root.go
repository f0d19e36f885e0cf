package main

import (
	"github.com/canopysat/eeharvest/internal/properties"
	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	flagProject string
	flagAOI     string
	flagOut     string
	flagStarts  []string
	flagEnds    []string
	flagBands   []string
	flagEPSG    int
	flagRes     float64
	flagRows    int
	flagCols    int
	flagWorkers int

	flagQuicklook bool
	flagInventory bool
)

var rootCmd = &cobra.Command{
	Use:   "eeharvest",
	Short: "Download and mosaic Earth Engine raster products for an AOI",
	Long: "eeharvest downloads Google Dynamic World land cover and Sentinel-2\n" +
		"surface reflectance composites for a shapefile or GeoJSON AOI. All raster\n" +
		"computation runs server-side in Earth Engine; large AOIs are fetched as\n" +
		"fishnet tiles and mosaicked locally.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		banner := figure.NewFigure("eeharvest", "", true)
		color.Cyan(banner.String())
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagProject, "project", properties.DefaultProject(), "Earth Engine cloud project id (defaults to EE_PROJECT)")
	pf.StringVar(&flagAOI, "aoi", "", "path to the AOI shapefile or GeoJSON file")
	pf.StringVar(&flagOut, "out", ".", "output folder")
	pf.StringSliceVar(&flagStarts, "start", nil, "window start dates (YYYY-MM-DD), paired with --end")
	pf.StringSliceVar(&flagEnds, "end", nil, "window end dates (YYYY-MM-DD), paired with --start")
	pf.IntVar(&flagEPSG, "epsg", 4326, "output EPSG code")
	pf.Float64Var(&flagRes, "res", 10, "output resolution in meters")
	pf.IntVar(&flagRows, "rows", 2, "fishnet rows for large AOIs")
	pf.IntVar(&flagCols, "cols", 2, "fishnet columns for large AOIs")
	pf.IntVar(&flagWorkers, "workers", 0, "concurrent tile downloads (default: number of CPUs)")
	pf.BoolVar(&flagQuicklook, "quicklook", false, "write a grayscale PNG preview next to each output raster")
	pf.BoolVar(&flagInventory, "inventory", false, "write the image collection listing as CSV")

	rootCmd.MarkPersistentFlagRequired("aoi")
}
