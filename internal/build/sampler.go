package build

import (
	"github.com/jeffboody/terrain/internal/raster"
	"github.com/jeffboody/terrain/internal/terrain"
)

// Neighborhood is the 3x3 grid of source rasters around a tile, indexed
// [row][col] with row 0 the northern graticule band and col 0 the
// western one. Slots are nil where no source exists.
type Neighborhood struct {
	rasters [3][3]*raster.Raster
	count   int
}

// probeOrder visits the centre raster first (the common case: the tile
// origin lies inside it), then the edge neighbors, then the corners.
// Ties between overlapping rasters are broken by this order, not by
// coordinate precision.
var probeOrder = [9][2]int{
	{1, 1}, // cc
	{0, 1}, // tc
	{2, 1}, // bc
	{1, 0}, // cl
	{1, 2}, // cr
	{0, 0}, // tl
	{2, 0}, // bl
	{0, 2}, // tr
	{2, 2}, // br
}

// Set places a raster in the slot for (row, col).
func (nb *Neighborhood) Set(row, col int, r *raster.Raster) {
	if nb.rasters[row][col] == nil && r != nil {
		nb.count++
	} else if nb.rasters[row][col] != nil && r == nil {
		nb.count--
	}
	nb.rasters[row][col] = r
}

// Get returns the raster in slot (row, col), or nil.
func (nb *Neighborhood) Get(row, col int) *raster.Raster {
	return nb.rasters[row][col]
}

// Count returns the number of loaded slots.
func (nb *Neighborhood) Count() int {
	return nb.count
}

// Center returns the centre raster, or nil.
func (nb *Neighborhood) Center() *raster.Raster {
	return nb.rasters[1][1]
}

// Sample probes the neighborhood in the fixed order and returns the
// first raster hit.
func (nb *Neighborhood) Sample(lat, lon float64) (int16, bool) {
	for _, p := range probeOrder {
		r := nb.rasters[p[0]][p[1]]
		if r == nil {
			continue
		}
		if h, ok := r.Sample(lat, lon); ok {
			return h, true
		}
	}
	return 0, false
}

// SampleTile fills a finest-level tile from up to two raster
// neighborhoods. Every sample position in the extended range
// [-border, 257+border) is resampled; the secondary neighborhood is
// applied first so that primary heights overwrite it where the
// families overlap. Either neighborhood may be nil.
func SampleTile(t *terrain.Tile, primary, secondary *Neighborhood) {
	min := -terrain.SamplesBorder
	max := terrain.SamplesTile + terrain.SamplesBorder
	d := float64(max - min - 1)

	latT, lonL := t.Coord(min, min)
	latB, lonR := t.Coord(max-1, max-1)

	for m := min; m < max; m++ {
		v := float64(m-min) / d
		lat := latT + v*(latB-latT)
		for n := min; n < max; n++ {
			u := float64(n-min) / d
			lon := lonL + u*(lonR-lonL)

			if secondary != nil {
				if h, ok := secondary.Sample(lat, lon); ok {
					t.Set(m, n, h)
				}
			}
			if primary != nil {
				if h, ok := primary.Sample(lat, lon); ok {
					t.Set(m, n, h)
				}
			}
		}
	}
}
