package inventory

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/canopysat/eeharvest/internal/cache"
	"github.com/canopysat/eeharvest/internal/ee"
	"github.com/gocarina/gocsv"
	"github.com/paulmach/orb/geojson"
)

// Record is one CSV row of a collection inventory.
type Record struct {
	ImageID  string `csv:"image_id"`
	Acquired string `csv:"acquired"`
}

// Records converts catalog assets to CSV rows.
func Records(assets []ee.ImageAsset) []Record {
	records := make([]Record, len(assets))
	for i, a := range assets {
		records[i] = Record{
			ImageID:  a.ID,
			Acquired: a.StartTime.UTC().Format(time.RFC3339),
		}
	}
	return records
}

// WriteCSV writes the inventory of assets to path.
func WriteCSV(path string, assets []ee.ImageAsset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create inventory file: %v", err)
	}
	defer f.Close()

	records := Records(assets)
	if err := gocsv.MarshalFile(&records, f); err != nil {
		return fmt.Errorf("failed to write inventory csv: %v", err)
	}
	return nil
}

// Cache stores collection listings keyed by collection, region bound and date
// windows, so repeated runs over the same AOI skip the catalog round trips.
func Cache() *cache.FileCache[[]ee.ImageAsset] {
	return cache.NewFileCache[[]ee.ImageAsset]("inventory")
}

// Key derives the cache key for one listing.
func Key(c *cache.FileCache[[]ee.ImageAsset], collection string, region *geojson.Geometry, windows []ee.DateWindow, filter string) string {
	params := []interface{}{collection, region.Geometry().Bound(), filter}
	for _, w := range windows {
		params = append(params, w.Start, w.End)
	}
	return c.GenerateKey(params...)
}

// List enumerates the collection images intersecting region across all date
// windows, reading through the file cache. filter is an optional metadata
// expression forwarded to the catalog.
func List(ctx context.Context, client *ee.Client, collection string, region *geojson.Geometry, windows []ee.DateWindow, filter string) ([]ee.ImageAsset, error) {
	c := Cache()
	key := Key(c, collection, region, windows, filter)
	if assets, ok := c.Get(key); ok {
		return assets, nil
	}

	var assets []ee.ImageAsset
	for _, w := range windows {
		start, err := time.Parse("2006-01-02", w.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid window start %q: %v", w.Start, err)
		}
		end, err := time.Parse("2006-01-02", w.End)
		if err != nil {
			return nil, fmt.Errorf("invalid window end %q: %v", w.End, err)
		}
		page, err := client.ListImages(ctx, collection, region, start, end, filter)
		if err != nil {
			return nil, err
		}
		assets = append(assets, page...)
	}

	// Cache writes are best effort; on failure the next run relists.
	_ = c.Set(key, assets)
	return assets, nil
}
