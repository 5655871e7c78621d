package terrain

import "testing"

func TestNormalMapFlat(t *testing.T) {
	tile := New(1713, 3198, 13)

	data := make([]byte, 2*SamplesNormal*SamplesNormal)
	tile.GetNormalMap(data)

	// a flat tile's normals all point straight up: nx = ny = 0 maps to
	// the byte midpoint
	for i := 0; i < len(data); i++ {
		if data[i] < 126 || data[i] > 129 {
			t.Fatalf("flat normal component %d = %d, want ~127", i, data[i])
		}
	}
}

func TestNormalMapSlope(t *testing.T) {
	tile := New(1713, 3198, 13)

	// heights rise to the east, so nx = -dzdx is negative and the
	// packed nx bytes fall below the midpoint; ny stays centered
	for m := -1; m <= 257; m++ {
		for n := -1; n <= 257; n++ {
			tile.Set(m, n, int16(n*20))
		}
	}

	data := make([]byte, 2*SamplesNormal*SamplesNormal)
	tile.GetNormalMap(data)

	for i := 0; i < SamplesNormal; i += 17 {
		for j := 0; j < SamplesNormal; j += 17 {
			idx := 2 * (SamplesNormal*i + j)
			if data[idx] >= 127 {
				t.Fatalf("(%d,%d) nx byte = %d, want < 127", i, j, data[idx])
			}
			if data[idx+1] < 126 || data[idx+1] > 129 {
				t.Fatalf("(%d,%d) ny byte = %d, want ~127", i, j, data[idx+1])
			}
		}
	}
}

func TestNormalMapClamp(t *testing.T) {
	tile := New(1713, 3198, 13)

	// an extreme cliff saturates the clamp to the byte extremes
	for m := -1; m <= 257; m++ {
		for n := -1; n <= 257; n++ {
			tile.Set(m, n, int16(clampHeight(n*30000)))
		}
	}

	data := make([]byte, 2*SamplesNormal*SamplesNormal)
	tile.GetNormalMap(data)

	// nx = -2 maps to byte 0
	if data[0] != 0 {
		t.Errorf("cliff nx byte = %d, want 0", data[0])
	}
}

func clampHeight(v int) int {
	if v > HeightMax {
		return HeightMax
	}
	if v < HeightMin {
		return HeightMin
	}
	return v
}
