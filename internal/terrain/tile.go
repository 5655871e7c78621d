// Package terrain implements the elevation tile entity: a 257x257 grid of
// signed 16-bit heights in feet with a one sample border, addressed by
// slippy-map (zoom, x, y), plus its binary codec, the LOD downsampler and
// the normal map derivation.
//
// There are 257x257 samples so that the tile can be subdivided evenly
// across multiple LODs: 257 samples means 256 segments. The range of m,n
// is 0..256 for core samples and -1..257 including the border. The border
// is used to compute derivatives for hill/relief shading. Heights are in
// feet because the highest point, Mt Everest at 29029 feet, matches the
// range of int16 (-32768 to 32767).
package terrain

import (
	"fmt"
	"math"

	"github.com/jeffboody/terrain/internal/coord"
)

const (
	// SamplesTotal is the full grid width including the border.
	SamplesTotal = 259
	// SamplesTile is the core sample count along one axis.
	SamplesTile = 257
	// SamplesBorder is the border width on each side.
	SamplesBorder = 1
	// SamplesNormal is the normal map width.
	SamplesNormal = 256

	// Nodata is the sentinel returned for out-of-range sample reads.
	Nodata = 0

	// HeightMin and HeightMax span the int16 height range.
	HeightMin = -32768
	HeightMax = 32767
)

// Flags for next LOD existence.
const (
	NextTL  = 0x1
	NextBL  = 0x2
	NextTR  = 0x4
	NextBR  = 0x8
	NextAll = 0xF
)

// Tile is one elevation tile of the pyramid.
type Tile struct {
	// tile address
	X    int
	Y    int
	Zoom int

	data [SamplesTotal * SamplesTotal]int16

	// min/max altitude over the core samples
	min int16
	max int16

	// LOD existence flags
	flags int
}

// New creates a zero-filled tile at the given address. min/max are
// sentinels until samples are set or the tile is exported.
func New(x, y, zoom int) *Tile {
	return &Tile{
		X:    x,
		Y:    y,
		Zoom: zoom,
		min:  HeightMax,
		max:  HeightMin,
	}
}

// Get returns the sample at (m, n). Indices are core-relative; the border
// is addressed by -1 and 257. Out-of-range reads return Nodata.
func (t *Tile) Get(m, n int) int16 {
	m += SamplesBorder
	n += SamplesBorder
	if m < 0 || m >= SamplesTotal ||
		n < 0 || n >= SamplesTotal {
		return Nodata
	}
	return t.data[m*SamplesTotal+n]
}

// Set stores the sample at (m, n). Indices are core-relative; the border
// is addressed by -1 and 257. Out-of-range writes are silently dropped.
func (t *Tile) Set(m, n int, h int16) {
	m += SamplesBorder
	n += SamplesBorder
	if m < 0 || m >= SamplesTotal ||
		n < 0 || n >= SamplesTotal {
		return
	}
	t.data[m*SamplesTotal+n] = h
}

// Coord returns the (lat, lon) of sample (m, n).
func (t *Tile) Coord(m, n int) (lat, lon float64) {
	return coord.Sample2Coord(t.X, t.Y, t.Zoom, m, n)
}

// Bounds returns the geographic bounding box of the tile.
func (t *Tile) Bounds() (latT, lonL, latB, lonR float64) {
	return coord.Bounds(t.X, t.Y, t.Zoom)
}

// Sample returns the core sample nearest to (lat, lon).
func (t *Tile) Sample(lat, lon float64) int16 {
	lat0, lon0 := coord.Tile2Coord(float64(t.X), float64(t.Y), t.Zoom)
	lat1, lon1 := coord.Tile2Coord(float64(t.X+1), float64(t.Y+1), t.Zoom)
	u := (lon - lon0) / (lon1 - lon0)
	v := (lat - lat0) / (lat1 - lat0)
	m := int(float64(SamplesTile-1)*v + 0.5)
	n := int(float64(SamplesTile-1)*u + 0.5)
	return t.Get(m, n)
}

// Interpolate bilinearly interpolates the height at normalized tile
// coordinates (u, v) in [0,1]. Indices are clamped to the extended range
// [-1, 257] so that interpolation near the edges may use the border.
func (t *Tile) Interpolate(u, v float64) float32 {
	fx := u * float64(SamplesTile-1)
	fy := v * float64(SamplesTile-1)

	j0 := clampIdx(int(math.Floor(fx)))
	i0 := clampIdx(int(math.Floor(fy)))
	j1 := clampIdx(j0 + 1)
	i1 := clampIdx(i0 + 1)

	uu := fx - float64(j0)
	vv := fy - float64(i0)

	h00 := float64(t.Get(i0, j0))
	h01 := float64(t.Get(i0, j1))
	h10 := float64(t.Get(i1, j0))
	h11 := float64(t.Get(i1, j1))

	h0 := h00 + uu*(h01-h00)
	h1 := h10 + uu*(h11-h10)
	return float32(h0 + vv*(h1-h0))
}

func clampIdx(i int) int {
	if i < -SamplesBorder {
		return -SamplesBorder
	}
	if i > SamplesTile {
		return SamplesTile
	}
	return i
}

// GetBlock extracts the (r, c) sub-block of an evenly divided tile into
// data, which must hold (256/blocks + 1) squared samples. blocks must
// divide 256 evenly.
func (t *Tile) GetBlock(blocks, r, c int, data []int16) error {
	if blocks <= 0 || (SamplesTile-1)%blocks != 0 {
		return fmt.Errorf("invalid blocks=%d", blocks)
	}
	step := (SamplesTile - 1) / blocks
	size := step + 1
	if len(data) < size*size {
		return fmt.Errorf("block buffer too small: %d < %d", len(data), size*size)
	}
	for m := 0; m < size; m++ {
		for n := 0; n < size; n++ {
			data[size*m+n] = t.Get(step*r+m, step*c+n)
		}
	}
	return nil
}

// AdjustMinMax folds the range [lo, hi] into the tile's min/max.
func (t *Tile) AdjustMinMax(lo, hi int16) {
	if lo < t.min {
		t.min = lo
	}
	if hi > t.max {
		t.max = hi
	}
}

// Exists ORs the given LOD existence flags into the tile.
func (t *Tile) Exists(flags int) {
	t.flags |= flags
}

// TL reports whether the top-left child exists at the next LOD.
func (t *Tile) TL() bool { return t.flags&NextTL != 0 }

// BL reports whether the bottom-left child exists at the next LOD.
func (t *Tile) BL() bool { return t.flags&NextBL != 0 }

// TR reports whether the top-right child exists at the next LOD.
func (t *Tile) TR() bool { return t.flags&NextTR != 0 }

// BR reports whether the bottom-right child exists at the next LOD.
func (t *Tile) BR() bool { return t.flags&NextBR != 0 }

// Flags returns the raw LOD existence flag bits.
func (t *Tile) Flags() int { return t.flags }

// Min returns the minimum core sample height.
func (t *Tile) Min() int16 { return t.min }

// Max returns the maximum core sample height.
func (t *Tile) Max() int16 { return t.max }

// updateMinMax recomputes min/max over the core samples when they are
// still sentinels (e.g. a freshly sampled tile that was never adjusted).
func (t *Tile) updateMinMax() {
	if t.min != HeightMax && t.max != HeightMin {
		return
	}

	min := int16(HeightMax)
	max := int16(HeightMin)
	for m := 0; m < SamplesTile; m++ {
		for n := 0; n < SamplesTile; n++ {
			h := t.Get(m, n)
			if h < min {
				min = h
			}
			if h > max {
				max = h
			}
		}
	}
	t.min = min
	t.max = max
}
