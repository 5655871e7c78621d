// Command maketerrain builds the full elevation tile pyramid for a
// geographic region. Fine-level tiles are resampled from the source
// rasters; every coarser level is downsampled from the level below.
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
		base     string
		budgetMB int
	)

	flag.StringVar(&base, "base", ".", "Source raster base directory")
	flag.IntVar(&budgetMB, "mem-budget", 0, "Cache memory budget in MB (0 = default 4096)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: maketerrain [flags] <latT> <lonL> <latB> <lonR> <out>\n\n")
		fmt.Fprintf(os.Stderr, "Build the elevation tile pyramid covering the lat/lon box.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 5 {
		flag.Usage()
		os.Exit(1)
	}

	latT := parseInt(args[0])
	lonL := parseInt(args[1])
	latB := parseInt(args[2])
	lonR := parseInt(args[3])
	out := args[4]

	if latT < latB || lonR < lonL {
		log.Fatalf("invalid region: latT=%d, lonL=%d, latB=%d, lonR=%d",
			latT, lonL, latB, lonR)
	}

	b := build.NewBuilder(base, out, latT, lonL, latB, lonR,
		int64(budgetMB)*1024*1024)

	obj, err := b.GetTerrain(0, 0, 0)
	if err != nil {
		log.Fatalf("build failed: %v", err)
	}
	if obj == nil {
		log.Fatalf("no source data covers the region")
	}
	b.Put(obj)
}

func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid argument %q: %v", s, err)
	}
	return v
}
