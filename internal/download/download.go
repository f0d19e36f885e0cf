package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/canopysat/eeharvest/internal/aoi"
	"github.com/canopysat/eeharvest/internal/raster"
	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/schollz/progressbar/v3"
)

// FetchFunc downloads the raster covering one tile bound and returns the
// encoded GeoTIFF bytes.
type FetchFunc func(ctx context.Context, tile orb.Bound) ([]byte, error)

// Job describes one raster download, either single-shot or fishnet-tiled.
type Job struct {
	// OutFile is the final GeoTIFF path.
	OutFile string
	// Bound is the full AOI bounding box.
	Bound orb.Bound
	// Tiled splits Bound into a Rows x Cols fishnet downloaded concurrently
	// and mosaicked into OutFile.
	Tiled bool
	Rows  int
	Cols  int
	// Workers bounds concurrent tile fetches; defaults to NumCPU.
	Workers int
	// Label names the progress bar.
	Label string
}

// Run executes the job. For tiled jobs the tiles land in a temporary
// directory next to OutFile which is removed after a successful mosaic; on
// failure the directory is kept so partial tiles can be inspected.
func Run(ctx context.Context, fetch FetchFunc, job Job) error {
	if err := os.MkdirAll(filepath.Dir(job.OutFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %v", err)
	}
	if !job.Tiled {
		data, err := fetch(ctx, job.Bound)
		if err != nil {
			return fmt.Errorf("failed to download %s: %w", filepath.Base(job.OutFile), err)
		}
		if err := os.WriteFile(job.OutFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %v", job.OutFile, err)
		}
		return nil
	}

	if job.Rows < 1 {
		job.Rows = 2
	}
	if job.Cols < 1 {
		job.Cols = 2
	}
	workers := job.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	tileDir := filepath.Join(filepath.Dir(job.OutFile),
		fmt.Sprintf("temp_tiles_%s", uuid.NewString()[:8]))
	if err := os.MkdirAll(tileDir, 0755); err != nil {
		return fmt.Errorf("failed to create tile directory: %v", err)
	}

	tiles := aoi.Fishnet(job.Bound, job.Rows, job.Cols)
	prefix := strings.TrimSuffix(filepath.Base(job.OutFile), filepath.Ext(job.OutFile))
	paths := make([]string, len(tiles))

	label := job.Label
	if label == "" {
		label = "Downloading tiles"
	}
	bar := progressbar.Default(int64(len(tiles)), label)

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wp := workerpool.New(workers)
	errChan := make(chan error, 1)
	var firstErr sync.Once

	for i, tile := range tiles {
		i, tile := i, tile
		wp.Submit(func() {
			if cctx.Err() != nil {
				return
			}
			data, err := fetch(cctx, tile)
			if err != nil {
				firstErr.Do(func() {
					errChan <- fmt.Errorf("tile %d/%d: %w", i+1, len(tiles), err)
					cancel()
				})
				return
			}
			path := filepath.Join(tileDir, fmt.Sprintf("%s_%d.tif", prefix, i+1))
			if err := os.WriteFile(path, data, 0644); err != nil {
				firstErr.Do(func() {
					errChan <- fmt.Errorf("failed to write tile %d: %v", i+1, err)
					cancel()
				})
				return
			}
			paths[i] = path
			bar.Add(1)
		})
	}

	go func() {
		wp.StopWait()
		close(errChan)
	}()

	if err := <-errChan; err != nil {
		return fmt.Errorf("tiled download of %s failed (partial tiles kept in %s): %w",
			filepath.Base(job.OutFile), tileDir, err)
	}
	bar.Finish()

	if err := raster.Mosaic(paths, job.OutFile); err != nil {
		return fmt.Errorf("failed to mosaic tiles (kept in %s): %w", tileDir, err)
	}

	for _, path := range paths {
		os.Remove(path)
	}
	if err := os.Remove(tileDir); err != nil {
		return fmt.Errorf("failed to remove tile directory %s: %v", tileDir, err)
	}
	return nil
}
