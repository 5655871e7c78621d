package terrain

import (
	"testing"
)

func TestNewDefaults(t *testing.T) {
	tile := New(3, 4, 5)
	if tile.X != 3 || tile.Y != 4 || tile.Zoom != 5 {
		t.Errorf("address = (%d,%d,z%d)", tile.X, tile.Y, tile.Zoom)
	}
	if tile.Min() != HeightMax || tile.Max() != HeightMin {
		t.Errorf("min/max = %d/%d, want sentinels", tile.Min(), tile.Max())
	}
	if tile.Flags() != 0 {
		t.Errorf("flags = %d, want 0", tile.Flags())
	}
	for m := -1; m <= 257; m++ {
		for n := -1; n <= 257; n++ {
			if h := tile.Get(m, n); h != 0 {
				t.Fatalf("sample (%d,%d) = %d, want 0", m, n, h)
			}
		}
	}
}

func TestGetSetBorder(t *testing.T) {
	tile := New(0, 0, 0)

	// the extended range covers -1..257
	tile.Set(-1, -1, 11)
	tile.Set(-1, 257, 12)
	tile.Set(257, -1, 13)
	tile.Set(257, 257, 14)
	tile.Set(128, 128, 15)

	if h := tile.Get(-1, -1); h != 11 {
		t.Errorf("(-1,-1) = %d", h)
	}
	if h := tile.Get(-1, 257); h != 12 {
		t.Errorf("(-1,257) = %d", h)
	}
	if h := tile.Get(257, -1); h != 13 {
		t.Errorf("(257,-1) = %d", h)
	}
	if h := tile.Get(257, 257); h != 14 {
		t.Errorf("(257,257) = %d", h)
	}
	if h := tile.Get(128, 128); h != 15 {
		t.Errorf("(128,128) = %d", h)
	}
}

func TestGetSetOutOfRange(t *testing.T) {
	tile := New(0, 0, 0)

	// out-of-range writes are dropped, reads return the nodata sentinel
	tile.Set(-2, 0, 99)
	tile.Set(0, 258, 99)
	tile.Set(1000, 1000, 99)

	if h := tile.Get(-2, 0); h != Nodata {
		t.Errorf("(-2,0) = %d, want nodata", h)
	}
	if h := tile.Get(0, 258); h != Nodata {
		t.Errorf("(0,258) = %d, want nodata", h)
	}
	for m := -1; m <= 257; m++ {
		for n := -1; n <= 257; n++ {
			if h := tile.Get(m, n); h != 0 {
				t.Fatalf("stray write landed at (%d,%d) = %d", m, n, h)
			}
		}
	}
}

func TestSampleNearest(t *testing.T) {
	tile := New(1713, 3198, 13)
	tile.Set(100, 200, 1234)

	lat, lon := tile.Coord(100, 200)
	if h := tile.Sample(lat, lon); h != 1234 {
		t.Errorf("Sample at exact position = %d, want 1234", h)
	}

	// the tile corners map to samples (0,0) and (256,256)
	tile.Set(0, 0, -55)
	latT, lonL, _, _ := tile.Bounds()
	if h := tile.Sample(latT, lonL); h != -55 {
		t.Errorf("Sample at top-left = %d, want -55", h)
	}
}

func TestInterpolate(t *testing.T) {
	tile := New(0, 0, 4)
	// fill the core with a linear ramp so bilinear interpolation is exact
	for m := -1; m <= 257; m++ {
		for n := -1; n <= 257; n++ {
			tile.Set(m, n, int16(m+n))
		}
	}

	tests := []struct {
		name string
		u, v float64
		want float32
	}{
		{"origin", 0, 0, 0},
		{"opposite", 1, 1, 512},
		{"center", 0.5, 0.5, 256},
		{"quarter", 0.25, 0.25, 128},
		{"half cell", 0.5 / 256.0, 0, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tile.Interpolate(tt.u, tt.v)
			if diff := got - tt.want; diff > 1e-4 || diff < -1e-4 {
				t.Errorf("Interpolate(%v,%v) = %v, want %v", tt.u, tt.v, got, tt.want)
			}
		})
	}
}

func TestGetBlock(t *testing.T) {
	tile := New(0, 0, 8)
	for m := 0; m < SamplesTile; m++ {
		for n := 0; n < SamplesTile; n++ {
			tile.Set(m, n, int16(m))
		}
	}

	// 2x2 blocks of 129x129 samples
	data := make([]int16, 129*129)
	if err := tile.GetBlock(2, 1, 0, data); err != nil {
		t.Fatal(err)
	}
	if data[0] != 128 {
		t.Errorf("block (1,0) first sample = %d, want 128", data[0])
	}
	if data[129*129-1] != 256 {
		t.Errorf("block (1,0) last sample = %d, want 256", data[129*129-1])
	}

	// adjacent blocks share their boundary row
	top := make([]int16, 129*129)
	if err := tile.GetBlock(2, 0, 0, top); err != nil {
		t.Fatal(err)
	}
	for n := 0; n < 129; n++ {
		if top[129*128+n] != data[n] {
			t.Fatalf("block seam mismatch at n=%d: %d vs %d",
				n, top[129*128+n], data[n])
		}
	}

	if err := tile.GetBlock(3, 0, 0, data); err == nil {
		t.Error("expected error for blocks=3 (256%3 != 0)")
	}
}

func TestAdjustMinMaxAndFlags(t *testing.T) {
	tile := New(0, 0, 0)

	tile.AdjustMinMax(-100, 2000)
	if tile.Min() != -100 || tile.Max() != 2000 {
		t.Errorf("min/max = %d/%d", tile.Min(), tile.Max())
	}
	tile.AdjustMinMax(0, 0)
	if tile.Min() != -100 || tile.Max() != 2000 {
		t.Errorf("AdjustMinMax(0,0) narrowed the range to %d/%d",
			tile.Min(), tile.Max())
	}

	tile.Exists(NextTL | NextBR)
	if !tile.TL() || !tile.BR() || tile.BL() || tile.TR() {
		t.Errorf("flags = %#x", tile.Flags())
	}
	tile.Exists(NextBL)
	if tile.Flags() != NextTL|NextBL|NextBR {
		t.Errorf("flags = %#x", tile.Flags())
	}
}
