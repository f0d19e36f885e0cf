package sentinel

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/canopysat/eeharvest/internal/aoi"
	"github.com/canopysat/eeharvest/internal/download"
	"github.com/canopysat/eeharvest/internal/ee"
	"github.com/canopysat/eeharvest/internal/inventory"
	"github.com/canopysat/eeharvest/internal/raster"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"
)

const (
	// SRCollectionID is the harmonized Sentinel-2 surface reflectance
	// collection.
	SRCollectionID = "COPERNICUS/S2_SR_HARMONIZED"
	// CloudProbCollectionID is the s2cloudless probability collection
	// joined onto each reflectance image.
	CloudProbCollectionID = "COPERNICUS/S2_CLOUD_PROBABILITY"
)

// DefaultBands are the reflectance bands downloaded when none are requested.
var DefaultBands = []string{"B2", "B3", "B4", "B8", "B12"}

// Params configures one Sentinel-2 harvest.
type Params struct {
	Windows    []ee.DateWindow
	Bands      []string
	EPSG       int
	Resolution float64
	Mask       MaskParams
	OutFolder  string
	Rows       int
	Cols       int
	Workers    int
	Quicklook  bool
	// InventoryCSV additionally writes the collection listing as CSV.
	InventoryCSV bool
}

func (p *Params) validate() error {
	if len(p.Windows) == 0 {
		return fmt.Errorf("at least one date window is required")
	}
	if len(p.Bands) == 0 {
		p.Bands = DefaultBands
	}
	for _, band := range p.Bands {
		if !strings.HasPrefix(band, "B") {
			return fmt.Errorf("invalid Sentinel-2 reflectance band %q", band)
		}
	}
	if p.EPSG == 0 {
		p.EPSG = 4326
	}
	if p.Resolution == 0 {
		p.Resolution = 10
	}
	return nil
}

// JoinedCollection builds the reflectance collection for one window with the
// matching s2cloudless image saved on each image under "s2cloudless".
func JoinedCollection(g *ee.Graph, geom ee.Node, w ee.DateWindow, cloudFilter int) ee.Node {
	sr := g.ImageCollection(SRCollectionID)
	sr = g.FilterBounds(sr, geom)
	sr = g.FilterDate(sr, w)
	sr = g.FilterLTE(sr, "CLOUDY_PIXEL_PERCENTAGE", cloudFilter)

	prob := g.ImageCollection(CloudProbCollectionID)
	prob = g.FilterBounds(prob, geom)
	prob = g.FilterDate(prob, w)

	return g.SaveFirstJoin(sr, prob, "s2cloudless", "system:index", "system:index")
}

// Collection merges the joined collections of all windows.
func Collection(g *ee.Graph, geom ee.Node, windows []ee.DateWindow, cloudFilter int) ee.Node {
	col := JoinedCollection(g, geom, windows[0], cloudFilter)
	for _, w := range windows[1:] {
		col = g.Merge(col, JoinedCollection(g, geom, w, cloudFilter))
	}
	return col
}

// MaskedMedian is the cloud/shadow-masked median composite of the collection.
// Band names gain a _median suffix from the reducer.
func MaskedMedian(g *ee.Graph, geom ee.Node, windows []ee.DateWindow, p MaskParams) ee.Node {
	col := Collection(g, geom, windows, p.CloudFilter)
	masked := g.Map(col, func(img ee.Node) ee.Node {
		return maskImage(g, img, p)
	})
	return g.Reduce(masked, "Reducer.median")
}

// Harvester downloads Sentinel-2 composites for an AOI.
type Harvester struct {
	Client *ee.Client
}

// Harvest downloads one masked median composite per requested band into
// sentinel2_<band>.tif, tiling large AOIs.
func (h *Harvester) Harvest(ctx context.Context, area *aoi.AOI, p Params) error {
	if err := p.validate(); err != nil {
		return err
	}

	// The listing applies the same cloudiness cut as the composite, so an
	// all-cloudy window fails here instead of compositing nothing.
	cloudFilter := fmt.Sprintf("properties.CLOUDY_PIXEL_PERCENTAGE <= %d", p.Mask.CloudFilter)
	assets, err := inventory.List(ctx, h.Client, SRCollectionID, area.GeoJSON(), p.Windows, cloudFilter)
	if err != nil {
		return fmt.Errorf("failed to list Sentinel-2 collection: %w", err)
	}
	if len(assets) == 0 {
		return fmt.Errorf("no Sentinel-2 images found for the given parameters; check AOI, date ranges and cloud filter (max %d%%)", p.Mask.CloudFilter)
	}
	fmt.Printf("Number of images found: %d\n", len(assets))
	if p.InventoryCSV {
		csvPath := filepath.Join(p.OutFolder, "sentinel2_inventory.csv")
		if err := inventory.WriteCSV(csvPath, assets); err != nil {
			return err
		}
	}

	run := func(ctx context.Context, band string) error {
		g := ee.NewGraph()
		geom := g.Geometry(area.GeoJSON())
		composite := MaskedMedian(g, geom, p.Windows, p.Mask)
		single := g.ImageSelect(composite, fmt.Sprintf("%s_median", band))
		expr := g.Expression(single)

		outFile := filepath.Join(p.OutFolder, fmt.Sprintf("sentinel2_%s.tif", band))
		err := download.Run(ctx, h.fetcher(expr, p), download.Job{
			OutFile: outFile,
			Bound:   area.Bound(),
			Tiled:   area.Large(),
			Rows:    p.Rows,
			Cols:    p.Cols,
			Workers: p.Workers,
			Label:   fmt.Sprintf("Downloading band %s", band),
		})
		if err != nil {
			return err
		}
		if p.Quicklook {
			return raster.Quicklook(outFile, strings.TrimSuffix(outFile, ".tif")+".png")
		}
		return nil
	}

	// Tiled downloads run band by band so progress bars stay readable;
	// single-shot bands fan out.
	if area.Large() {
		for _, band := range p.Bands {
			if err := run(ctx, band); err != nil {
				return err
			}
		}
		return nil
	}
	eg, gctx := errgroup.WithContext(ctx)
	for _, band := range p.Bands {
		band := band
		eg.Go(func() error {
			return run(gctx, band)
		})
	}
	return eg.Wait()
}

func (h *Harvester) fetcher(expr ee.Expression, p Params) download.FetchFunc {
	return func(ctx context.Context, tile orb.Bound) ([]byte, error) {
		grid, err := ee.GridForBound(tile, p.Resolution, p.EPSG)
		if err != nil {
			return nil, err
		}
		return h.Client.ComputePixels(ctx, &ee.PixelsRequest{
			Expression: expr,
			FileFormat: "GEO_TIFF",
			Grid:       grid,
		})
	}
}
