package build

import (
	"context"
	"fmt"
	"log"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/jeffboody/terrain/internal/coord"
	"github.com/jeffboody/terrain/internal/raster"
	"github.com/jeffboody/terrain/internal/terrain"
)

// Mode selects which source families a fine-level job samples.
type Mode int

const (
	// ModeUSGS samples the finer family only.
	ModeUSGS Mode = iota
	// ModeASTER samples the coarser family only.
	ModeASTER
	// ModeCombined samples both, the finer family overwriting the
	// coarser where they overlap.
	ModeCombined
)

// ModeForZoom returns the build mode for a fine zoom: the combined
// families at FineZoom, the coarser family alone at SourceZoom.
func ModeForZoom(zoom int) (Mode, error) {
	switch zoom {
	case FineZoom:
		return ModeCombined, nil
	case SourceZoom:
		return ModeASTER, nil
	default:
		return 0, fmt.Errorf("unsupported fine zoom %d", zoom)
	}
}

// Job is one fine-level tile queued for a worker.
type Job struct {
	X    int
	Y    int
	Zoom int
	Mode Mode
}

// Pipeline runs the fine-level build in parallel: a fixed worker pool
// consumes jobs from a bounded queue while the main goroutine advances
// the 3x3 raster neighborhood window across the requested region.
//
// The neighborhood slots are mutated only between drains, so workers
// always see a consistent snapshot. Each output tile is owned by one
// worker; tiles never cross workers. Two runs over the same inputs
// produce byte-identical output regardless of scheduling.
type Pipeline struct {
	Base    string // source raster base directory
	Out     string // output database base directory
	Zoom    int
	Mode    Mode
	Workers int

	usgs  Neighborhood
	aster Neighborhood
}

// DefaultWorkers is the worker pool size when Pipeline.Workers is 0.
const DefaultWorkers = 4

// Run builds every fine-level tile whose origin falls inside the region
// (latT, lonL, latB, lonR), sweeping the neighborhood window lat outer,
// lon inner. The first worker error aborts the run after the current
// drain.
func (p *Pipeline) Run(latT, lonL, latB, lonR int) error {
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	total := int64(latT-latB+1) * int64(lonR-lonL+1)
	pb := newProgressBar(fmt.Sprintf("Zoom %2d", p.Zoom), total)
	defer pb.Finish()

	for lati := latB; lati <= latT; lati++ {
		for lonj := lonL; lonj <= lonR; lonj++ {
			// fill empty neighborhood slots; after a shift only the
			// right column is actually loaded
			for row := 0; row < 3; row++ {
				glat := lati + 1 - row
				for col := 0; col < 3; col++ {
					glon := lonj - 1 + col
					p.loadSlot(row, col, glat, glon)
				}
			}

			if err := p.drainCell(lati, lonj, workers); err != nil {
				return err
			}
			pb.Increment()

			// shift the window right: drop the left column, move the
			// centre columns left, load the new right column lazily
			for row := 0; row < 3; row++ {
				p.usgs.Set(row, 0, p.usgs.Get(row, 1))
				p.usgs.Set(row, 1, p.usgs.Get(row, 2))
				p.usgs.Set(row, 2, nil)
				p.aster.Set(row, 0, p.aster.Get(row, 1))
				p.aster.Set(row, 1, p.aster.Get(row, 2))
				p.aster.Set(row, 2, nil)
			}
		}

		// release the neighborhood at the end of the latitude band
		p.usgs = Neighborhood{}
		p.aster = Neighborhood{}
	}

	return nil
}

// loadSlot fills one neighborhood slot if empty, per the pipeline mode.
// Load failures are logged and leave the slot empty; the region samples
// as out-of-extent.
func (p *Pipeline) loadSlot(row, col, glat, glon int) {
	if p.Mode != ModeASTER && p.usgs.Get(row, col) == nil {
		r, err := raster.LoadFLT(p.Base, glat, glon)
		if err != nil {
			log.Printf("WARNING: skipping source %d/%d: %v", glat, glon, err)
		} else if r != nil {
			p.usgs.Set(row, col, r)
		}
	}
	if p.Mode != ModeUSGS && p.aster.Get(row, col) == nil {
		r, err := raster.LoadDEM(p.Base, glat, glon)
		if err != nil {
			log.Printf("WARNING: skipping source %d/%d: %v", glat, glon, err)
		} else if r != nil {
			p.aster.Set(row, col, r)
		}
	}
}

// drainCell enqueues the tiles whose origin falls inside the centre
// raster and waits for the pool to finish them.
func (p *Pipeline) drainCell(lati, lonj, workers int) error {
	// the centre raster bounds the candidate tile range; prefer the
	// finer family when both are present
	cc := p.usgs.Center()
	if cc == nil {
		cc = p.aster.Center()
	}
	if cc == nil {
		// sparse data; nothing to build for this cell
		return nil
	}

	x0, y0, x1, y1 := tileRange(cc, p.Zoom)
	if x0 > x1 || y0 > y1 {
		return nil
	}

	var primary, secondary *Neighborhood
	switch p.Mode {
	case ModeUSGS:
		primary = &p.usgs
	case ModeASTER:
		primary = &p.aster
	case ModeCombined:
		primary = &p.usgs
		secondary = &p.aster
	}

	g, ctx := errgroup.WithContext(context.Background())
	jobs := make(chan Job, workers*2)

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for job := range jobs {
				if err := runJob(p.Out, job, primary, secondary); err != nil {
					return err
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				job := Job{X: x, Y: y, Zoom: p.Zoom, Mode: p.Mode}
				select {
				case jobs <- job:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("lat=%d, lon=%d: %w", lati, lonj, err)
	}
	return nil
}

// runJob builds and exports one fine-level tile.
func runJob(out string, job Job, primary, secondary *Neighborhood) error {
	t := terrain.New(job.X, job.Y, job.Zoom)
	SampleTile(t, primary, secondary)
	if err := t.Export(out); err != nil {
		return fmt.Errorf("tile %d/%d/%d: %w", job.Zoom, job.X, job.Y, err)
	}
	return nil
}

// tileRange returns the tiles whose origin falls inside the raster's
// extent, clipped to the world range. Due to overlap with the
// neighboring rasters, sampling actually draws on the whole window.
func tileRange(r *raster.Raster, zoom int) (x0, y0, x1, y1 int) {
	x0f, y0f := coord.Coord2Tile(r.LatT, r.LonL, zoom)
	x1f, y1f := coord.Coord2Tile(r.LatB, r.LonR, zoom)

	x0 = int(x0f + 1.0)
	y0 = int(y0f + 1.0)
	x1 = int(x1f)
	y1 = int(y1f)

	// a tile origin exactly on the raster edge belongs to this cell
	if x0f == math.Floor(x0f) {
		x0 = int(x0f)
	}
	if y0f == math.Floor(y0f) {
		y0 = int(y0f)
	}

	n := int(math.Pow(2.0, float64(zoom)))
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 >= n {
		x1 = n - 1
	}
	if y1 >= n {
		y1 = n - 1
	}
	return x0, y0, x1, y1
}
