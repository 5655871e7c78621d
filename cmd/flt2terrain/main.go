// Command flt2terrain builds the finest pyramid level in parallel. A
// fixed worker pool resamples tiles while the main thread sweeps the
// 3x3 source raster window across the region, one graticule cell at a
// time. Zoom 15 layers the finer source family over the coarser one;
// zoom 13 uses the coarser family alone.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/jeffboody/terrain/internal/build"
)

func main() {
	var (
		base    string
		workers int
	)

	flag.StringVar(&base, "base", ".", "Source raster base directory")
	flag.IntVar(&workers, "workers", build.DefaultWorkers, "Number of tile workers")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: flt2terrain [flags] <zoom> <latT> <lonL> <latB> <lonR> <out>\n\n")
		fmt.Fprintf(os.Stderr, "Build fine-level tiles for the lat/lon box (zoom 13 or 15).\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 6 {
		flag.Usage()
		os.Exit(1)
	}

	zoom := parseInt(args[0])
	latT := parseInt(args[1])
	lonL := parseInt(args[2])
	latB := parseInt(args[3])
	lonR := parseInt(args[4])
	out := args[5]

	mode, err := build.ModeForZoom(zoom)
	if err != nil {
		log.Fatal(err)
	}
	if latT < latB || lonR < lonL {
		log.Fatalf("invalid region: latT=%d, lonL=%d, latB=%d, lonR=%d",
			latT, lonL, latB, lonR)
	}

	p := &build.Pipeline{
		Base:    base,
		Out:     out,
		Zoom:    zoom,
		Mode:    mode,
		Workers: workers,
	}
	if err := p.Run(latT, lonL, latB, lonR); err != nil {
		log.Fatalf("build failed: %v", err)
	}
}

func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid argument %q: %v", s, err)
	}
	return v
}
