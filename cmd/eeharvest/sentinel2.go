package main

import (
	"fmt"

	"github.com/canopysat/eeharvest/internal/aoi"
	"github.com/canopysat/eeharvest/internal/ee"
	"github.com/canopysat/eeharvest/internal/notification"
	"github.com/canopysat/eeharvest/internal/sentinel"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	flagCloudFilter int
	flagCloudProb   int
	flagNIRDark     float64
	flagProjDist    int
	flagBuffer      int
)

var sentinel2Cmd = &cobra.Command{
	Use:   "sentinel2",
	Short: "Download cloud/shadow-masked Sentinel-2 median composites",
	RunE: func(cmd *cobra.Command, args []string) error {
		windows, err := ee.ParseWindows(flagStarts, flagEnds)
		if err != nil {
			return err
		}

		area, err := aoi.Load(flagAOI)
		if err != nil {
			return err
		}
		if area.Large() {
			color.Yellow("AOI exceeds %g degree, downloading %dx%d fishnet tiles",
				aoi.LargeExtentDegrees, flagRows, flagCols)
		}

		client, err := ee.NewClient(cmd.Context(), flagProject)
		if err != nil {
			return err
		}

		h := &sentinel.Harvester{Client: client}
		err = h.Harvest(cmd.Context(), area, sentinel.Params{
			Windows:    windows,
			Bands:      flagBands,
			EPSG:       flagEPSG,
			Resolution: flagRes,
			Mask: sentinel.MaskParams{
				CloudFilter:     flagCloudFilter,
				CloudProbThresh: flagCloudProb,
				NIRDarkThresh:   flagNIRDark,
				CloudProjDist:   flagProjDist,
				Buffer:          flagBuffer,
			},
			OutFolder:    flagOut,
			Rows:         flagRows,
			Cols:         flagCols,
			Workers:      flagWorkers,
			Quicklook:    flagQuicklook,
			InventoryCSV: flagInventory,
		})
		if err != nil {
			return err
		}

		color.Green("Sentinel-2 composites written to %s", flagOut)
		if nerr := notification.SendDiscordSuccessNotification(
			fmt.Sprintf("Sentinel-2 harvest finished, output in %s", flagOut)); nerr != nil {
			color.Yellow("Failed to send notification: %s", nerr.Error())
		}
		return nil
	},
}

func init() {
	defaults := sentinel.DefaultMaskParams()
	sentinel2Cmd.Flags().StringSliceVar(&flagBands, "bands", nil,
		"reflectance bands to download (default: B2,B3,B4,B8,B12)")
	sentinel2Cmd.Flags().IntVar(&flagCloudFilter, "cloud-filter", defaults.CloudFilter,
		"max CLOUDY_PIXEL_PERCENTAGE for an image to be considered")
	sentinel2Cmd.Flags().IntVar(&flagCloudProb, "cloud-prob", defaults.CloudProbThresh,
		"s2cloudless probability above which a pixel is cloud")
	sentinel2Cmd.Flags().Float64Var(&flagNIRDark, "nir-dark", defaults.NIRDarkThresh,
		"NIR reflectance below which a non-water pixel may be shadow")
	sentinel2Cmd.Flags().IntVar(&flagProjDist, "proj-dist", defaults.CloudProjDist,
		"distance to project cloud shadows, in 100m increments")
	sentinel2Cmd.Flags().IntVar(&flagBuffer, "buffer", defaults.Buffer,
		"meters to dilate the cloud/shadow mask")
	rootCmd.AddCommand(sentinel2Cmd)
}
