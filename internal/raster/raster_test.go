package raster

import (
	"math"
	"testing"

	"github.com/jeffboody/terrain/internal/coord"
)

// rampRaster builds a rows x cols raster over the graticule cell at
// (lat, lon) with height[i][j] = heightFt(i+j meters).
func rampRaster(lat, lon, rows, cols int) *Raster {
	height := make([]int16, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			height[i*cols+j] = heightFt(float64(i + j))
		}
	}
	return New(FamilyASTER, lat, lon, rows, cols, height)
}

func TestSampleCenter(t *testing.T) {
	// 1201x1201 grid over lat 40..41, lon -106..-105 with data = i+j
	// meters. The center lands exactly on grid node (600, 600).
	r := rampRaster(40, -106, 1201, 1201)

	h, ok := r.Sample(40.5, -105.5)
	if !ok {
		t.Fatal("center sample out of extent")
	}
	want := int16(math.Round(coord.M2Ft(1200.0)))
	if h != want {
		t.Errorf("Sample(40.5,-105.5) = %d, want %d", h, want)
	}
}

func TestSampleNearCorner(t *testing.T) {
	r := rampRaster(40, -106, 1201, 1201)

	// near the north-west corner the interpolant is close to
	// data[0][0] = 0 plus a fraction of one cell
	h, ok := r.Sample(40.9999, -105.9999)
	if !ok {
		t.Fatal("near-corner sample out of extent")
	}
	frac := 0.0001 * 1200.0 // offset in cells along each axis
	want := coord.M2Ft(2.0 * frac)
	if math.Abs(float64(h)-want) > 1.0 {
		t.Errorf("Sample near corner = %d, want %.2f +- 1", h, want)
	}
}

func TestSampleOutOfExtent(t *testing.T) {
	r := rampRaster(40, -106, 11, 11)

	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"north", 41.001, -105.5},
		{"south", 39.999, -105.5},
		{"west", 40.5, -106.001},
		{"east", 40.5, -104.999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := r.Sample(tt.lat, tt.lon); ok {
				t.Errorf("Sample(%v,%v) inside extent", tt.lat, tt.lon)
			}
		})
	}

	// the extent boundary itself is inside
	if _, ok := r.Sample(41.0, -106.0); !ok {
		t.Error("north-west corner should be in extent")
	}
	if _, ok := r.Sample(40.0, -105.0); !ok {
		t.Error("south-east corner should be in extent")
	}
}

func TestSampleCoastlineFixup(t *testing.T) {
	height := []int16{
		32500, 32500,
		32500, 32500,
	}
	r := New(FamilyUSGS, 40, -106, 2, 2, height)

	// all four corners exceed the coastline threshold and sample as 0
	h, ok := r.Sample(40.5, -105.5)
	if !ok {
		t.Fatal("sample out of extent")
	}
	if h != 0 {
		t.Errorf("coastline fixup: got %d, want 0", h)
	}
}

func TestSampleNodataFixup(t *testing.T) {
	height := []int16{
		-1234, 100,
		100, 100,
	}
	r := New(FamilyUSGS, 40, -106, 2, 2, height)
	r.Nodata = -1234

	// the nodata corner contributes 0 to the interpolation
	h, ok := r.Sample(41.0, -106.0)
	if !ok {
		t.Fatal("sample out of extent")
	}
	if h != 0 {
		t.Errorf("nodata corner = %d, want 0", h)
	}

	h, ok = r.Sample(40.5, -105.5)
	if !ok {
		t.Fatal("sample out of extent")
	}
	if h != 75 { // (0 + 100 + 100 + 100) bilinear at the center
		t.Errorf("center = %d, want 75", h)
	}
}

func TestHeightFt(t *testing.T) {
	tests := []struct {
		m    float64
		want int16
	}{
		{0, 0},
		{1609.344, 5280},
		{-1609.344, -5280},
		{8848.86, 29032},
		{1e9, math.MaxInt16},
		{-1e9, math.MinInt16},
	}
	for _, tt := range tests {
		if got := heightFt(tt.m); got != tt.want {
			t.Errorf("heightFt(%v) = %d, want %d", tt.m, got, tt.want)
		}
	}
}

func TestFltBase(t *testing.T) {
	tests := []struct {
		lat, lon int
		want     string
	}{
		{40, -106, "n41w106"},
		{39, -105, "n40w105"},
		{-34, 18, "s33e018"},
		{-1, -1, "n0w001"},
	}
	for _, tt := range tests {
		if got := fltBase(tt.lat, tt.lon); got != tt.want {
			t.Errorf("fltBase(%d,%d) = %q, want %q", tt.lat, tt.lon, got, tt.want)
		}
	}
}

func TestAsterName(t *testing.T) {
	tests := []struct {
		lat, lon int
		want     string
	}{
		{40, -106, "ASTGTMV003_N40W106"},
		{-34, 18, "ASTGTMV003_S34E018"},
		{7, 7, "ASTGTMV003_N07E007"},
	}
	for _, tt := range tests {
		if got := asterName(tt.lat, tt.lon); got != tt.want {
			t.Errorf("asterName(%d,%d) = %q, want %q", tt.lat, tt.lon, got, tt.want)
		}
	}
}
