package main

import (
	"fmt"

	"github.com/canopysat/eeharvest/internal/aoi"
	"github.com/canopysat/eeharvest/internal/dynworld"
	"github.com/canopysat/eeharvest/internal/ee"
	"github.com/canopysat/eeharvest/internal/notification"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var flagProbType string

var landcoverCmd = &cobra.Command{
	Use:   "landcover",
	Short: "Download a Dynamic World land cover mode composite",
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

		h := &dynworld.Harvester{Client: client}
		err = h.Harvest(cmd.Context(), area, dynworld.Params{
			Windows:      windows,
			Bands:        flagBands,
			EPSG:         flagEPSG,
			Resolution:   flagRes,
			ProbType:     flagProbType,
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

		color.Green("Land cover written to %s", flagOut)
		if nerr := notification.SendDiscordSuccessNotification(
			fmt.Sprintf("Land cover harvest finished, output in %s", flagOut)); nerr != nil {
			color.Yellow("Failed to send notification: %s", nerr.Error())
		}
		return nil
	},
}

func init() {
	landcoverCmd.Flags().StringSliceVar(&flagBands, "bands", nil,
		"class probability bands to download (default: all nine classes)")
	landcoverCmd.Flags().StringVar(&flagProbType, "prob", "",
		"also download probability composites reduced with this statistic: mean or median")
	rootCmd.AddCommand(landcoverCmd)
}
