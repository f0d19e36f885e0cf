package dynworld

import (
	"context"
	"fmt"
	"os"
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

// CollectionID is the Dynamic World V1 land cover collection.
const CollectionID = "GOOGLE/DYNAMICWORLD/V1"

// ClassBands are the nine Dynamic World class probability bands.
var ClassBands = []string{
	"water", "trees", "grass", "flooded_vegetation", "crops",
	"shrub_and_scrub", "built", "bare", "snow_and_ice",
}

// Params configures one land cover harvest.
type Params struct {
	Windows    []ee.DateWindow
	Bands      []string
	EPSG       int
	Resolution float64
	// ProbType selects the probability composite: "", "mean" or "median".
	ProbType  string
	OutFolder string
	Rows      int
	Cols      int
	Workers   int
	Quicklook bool
	// InventoryCSV additionally writes the collection listing as CSV.
	InventoryCSV bool
}

func (p *Params) validate() error {
	if len(p.Windows) == 0 {
		return fmt.Errorf("at least one date window is required")
	}
	if p.ProbType != "" && p.ProbType != "mean" && p.ProbType != "median" {
		return fmt.Errorf("invalid probability type %q: must be mean or median", p.ProbType)
	}
	if len(p.Bands) == 0 {
		p.Bands = ClassBands
	}
	for _, band := range p.Bands {
		if !validBand(band) {
			return fmt.Errorf("unknown Dynamic World band %q (options: %s)",
				band, strings.Join(ClassBands, ", "))
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

func validBand(band string) bool {
	for _, b := range ClassBands {
		if b == band {
			return true
		}
	}
	return false
}

// Collection builds the merged, AOI/date-filtered Dynamic World collection.
func Collection(g *ee.Graph, geom ee.Node, windows []ee.DateWindow) ee.Node {
	col := windowed(g, geom, windows[0])
	for _, w := range windows[1:] {
		col = g.Merge(col, windowed(g, geom, w))
	}
	return col
}

func windowed(g *ee.Graph, geom ee.Node, w ee.DateWindow) ee.Node {
	col := g.ImageCollection(CollectionID)
	col = g.FilterBounds(col, geom)
	return g.FilterDate(col, w)
}

// LabelComposite is the most frequently occurring class per pixel: the mode
// reduction of the label band over the collection.
func LabelComposite(g *ee.Graph, geom ee.Node, windows []ee.DateWindow) ee.Node {
	col := Collection(g, geom, windows)
	return g.Reduce(g.Select(col, "label"), "Reducer.mode")
}

// ProbabilityComposite reduces the class probability bands with the mean or
// median reducer.
func ProbabilityComposite(g *ee.Graph, geom ee.Node, windows []ee.DateWindow, bands []string, probType string) ee.Node {
	reducer := "Reducer.median"
	if probType == "mean" {
		reducer = "Reducer.mean"
	}
	col := Collection(g, geom, windows)
	return g.Reduce(g.Select(col, bands...), reducer)
}

// Harvester downloads Dynamic World products for an AOI.
type Harvester struct {
	Client *ee.Client
}

// Harvest downloads the land cover mode composite to landcover.tif, tiling
// large AOIs, and optionally the per-band probability composites.
func (h *Harvester) Harvest(ctx context.Context, area *aoi.AOI, p Params) error {
	if err := p.validate(); err != nil {
		return err
	}

	assets, err := inventory.List(ctx, h.Client, CollectionID, area.GeoJSON(), p.Windows, "")
	if err != nil {
		return fmt.Errorf("failed to list land cover collection: %w", err)
	}
	fmt.Printf("Images in the collection: %d\n", len(assets))
	for _, a := range assets {
		fmt.Printf("\t%s\n", a.ID)
	}
	if p.InventoryCSV {
		csvPath := filepath.Join(p.OutFolder, "landcover_inventory.csv")
		if err := inventory.WriteCSV(csvPath, assets); err != nil {
			return err
		}
	}

	g := ee.NewGraph()
	geom := g.Geometry(area.GeoJSON())
	expr := g.Expression(LabelComposite(g, geom, p.Windows))

	outFile := filepath.Join(p.OutFolder, "landcover.tif")
	err = download.Run(ctx, h.fetcher(expr, p), download.Job{
		OutFile: outFile,
		Bound:   area.Bound(),
		Tiled:   area.Large(),
		Rows:    p.Rows,
		Cols:    p.Cols,
		Workers: p.Workers,
		Label:   "Downloading land cover",
	})
	if err != nil {
		return err
	}
	if p.Quicklook {
		if err := raster.Quicklook(outFile, strings.TrimSuffix(outFile, ".tif")+".png"); err != nil {
			return err
		}
	}

	if p.ProbType == "" {
		return nil
	}
	return h.harvestProbability(ctx, area, p)
}

// harvestProbability downloads one probability raster per class band. Small
// AOIs fan out across bands; tiled downloads stay sequential so their
// progress bars do not interleave.
func (h *Harvester) harvestProbability(ctx context.Context, area *aoi.AOI, p Params) error {
	probDir := filepath.Join(p.OutFolder, "probability")
	if err := os.MkdirAll(probDir, 0755); err != nil {
		return fmt.Errorf("failed to create probability directory: %v", err)
	}

	run := func(ctx context.Context, band string) error {
		g := ee.NewGraph()
		geom := g.Geometry(area.GeoJSON())
		composite := ProbabilityComposite(g, geom, p.Windows, p.Bands, p.ProbType)
		single := g.ImageSelect(composite, fmt.Sprintf("%s_%s", band, p.ProbType))
		expr := g.Expression(single)

		return download.Run(ctx, h.fetcher(expr, p), download.Job{
			OutFile: filepath.Join(probDir, fmt.Sprintf("landcover_prob_%s.tif", band)),
			Bound:   area.Bound(),
			Tiled:   area.Large(),
			Rows:    p.Rows,
			Cols:    p.Cols,
			Workers: p.Workers,
			Label:   fmt.Sprintf("Downloading %s probability", band),
		})
	}

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
