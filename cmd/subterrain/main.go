// Command subterrain retrofits one coarse pyramid level from the
// persisted tiles of the level below. Each coarse tile downsamples its
// 16 surrounding children (the four real children plus a one-tile
// frame); because the frame overlaps between adjacent parents, recently
// imported children are kept in an LRU cache.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jeffboody/terrain/internal/coord"
	"github.com/jeffboody/terrain/internal/terrain"
)

// childCacheSize covers two rows of children for a typical region so
// the one-tile frame shared between neighboring parents stays warm.
const childCacheSize = 256

type builder struct {
	base     string
	zoom     int
	children *lru.Cache[[3]int, *terrain.Tile]
}

// child imports a tile at the next finer zoom, serving repeats from the
// LRU. Missing tiles return nil; nothing here rebuilds a corrupt tile, so
// corrupt tiles are logged and treated as missing.
func (b *builder) child(x, y int) *terrain.Tile {
	key := [3]int{b.zoom + 1, x, y}
	if t, ok := b.children.Get(key); ok {
		return t
	}

	t, err := terrain.Import(b.base, x, y, b.zoom+1)
	if err != nil {
		log.Printf("WARNING: skipping corrupt tile %d/%d/%d: %v", b.zoom+1, x, y, err)
		t = nil
	}
	b.children.Add(key, t)
	return t
}

// sampleTile builds and exports one coarse tile, or skips it when no
// children exist.
func (b *builder) sampleTile(x, y int) error {
	var next [16]*terrain.Tile
	done := true
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			t := b.child(2*x+c-1, 2*y+r-1)
			next[4*r+c] = t
			if t != nil {
				done = false
			}
		}
	}
	if done {
		return nil
	}

	ter := terrain.New(x, y, b.zoom)
	terrain.Downsample(ter, &next)
	return ter.Export(b.base)
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: subterrain <zoom> <latT> <lonL> <latB> <lonR> <base>\n\n")
		fmt.Fprintf(os.Stderr, "Rebuild one coarse level from the persisted level below.\n")
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
	latB := parseInt(args[3]) - 1
	lonR := parseInt(args[4]) + 1
	base := args[5]

	children, err := lru.New[[3]int, *terrain.Tile](childCacheSize)
	if err != nil {
		log.Fatal(err)
	}
	b := &builder{base: base, zoom: zoom, children: children}

	// candidate tile range covering the padded region
	x0f, y0f := coord.Coord2Tile(float64(latT), float64(lonL), zoom)
	x1f, y1f := coord.Coord2Tile(float64(latB), float64(lonR), zoom)
	x0 := int(x0f)
	y0 := int(y0f)
	x1 := int(x1f + 1.0)
	y1 := int(y1f + 1.0)

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

	idx := 0
	count := (x1 - x0 + 1) * (y1 - y0 + 1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			log.Printf("%d/%d: x=%d, y=%d", idx, count, x, y)
			idx++

			if err := b.sampleTile(x, y); err != nil {
				log.Fatalf("tile %d/%d/%d: %v", zoom, x, y, err)
			}
		}
	}
}

func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid argument %q: %v", s, err)
	}
	return v
}
