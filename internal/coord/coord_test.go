package coord

import (
	"math"
	"testing"
)

func TestTile2CoordWorldCorners(t *testing.T) {
	// The zoom 0 tile spans the full Web Mercator extent.
	lat, lon := Tile2Coord(0, 0, 0)
	if math.Abs(lon-(-180)) > 1e-9 {
		t.Errorf("top-left lon = %v, want -180", lon)
	}
	if lat < 85.0 || lat > 85.1 {
		t.Errorf("top-left lat = %v, want ~85.05", lat)
	}

	lat, lon = Tile2Coord(1, 1, 0)
	if math.Abs(lon-180) > 1e-9 {
		t.Errorf("bottom-right lon = %v, want 180", lon)
	}
	if lat > -85.0 || lat < -85.1 {
		t.Errorf("bottom-right lat = %v, want ~-85.05", lat)
	}
}

func TestCoord2TileRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		x, y int
		zoom int
	}{
		{"boulder z13", 1713, 3198, 13},
		{"origin z13", 0, 0, 13},
		{"equator z10", 512, 512, 10},
		{"z15", 6854, 12792, 15},
		{"z1", 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon := Tile2Coord(float64(tt.x), float64(tt.y), tt.zoom)
			x, y := Coord2Tile(lat, lon, tt.zoom)
			if math.Abs(x-float64(tt.x)) > 1e-9 ||
				math.Abs(y-float64(tt.y)) > 1e-9 {
				t.Errorf("round trip (%d,%d,z%d) = (%v,%v)",
					tt.x, tt.y, tt.zoom, x, y)
			}
		})
	}
}

func TestBoundsRoundTrip(t *testing.T) {
	// Corners of a tile's bounds round-trip to the integer tile
	// coordinates of the tile and its south-east neighbor.
	x, y, zoom := 1713, 3198, 13

	latT, lonL, latB, lonR := Bounds(x, y, zoom)
	if latB >= latT {
		t.Fatalf("latB=%v >= latT=%v", latB, latT)
	}
	if lonL >= lonR {
		t.Fatalf("lonL=%v >= lonR=%v", lonL, lonR)
	}

	x0, y0 := Coord2Tile(latT, lonL, zoom)
	if math.Abs(x0-float64(x)) > 1e-9 || math.Abs(y0-float64(y)) > 1e-9 {
		t.Errorf("top-left corner = (%v,%v), want (%d,%d)", x0, y0, x, y)
	}

	x1, y1 := Coord2Tile(latB, lonR, zoom)
	if math.Abs(x1-float64(x+1)) > 1e-9 || math.Abs(y1-float64(y+1)) > 1e-9 {
		t.Errorf("bottom-right corner = (%v,%v), want (%d,%d)", x1, y1, x+1, y+1)
	}
}

func TestSample2CoordEdges(t *testing.T) {
	// Sample (0,0) is the tile origin and sample (256,256) is the
	// origin of the south-east neighbor.
	x, y, zoom := 100, 200, 9

	lat, lon := Sample2Coord(x, y, zoom, 0, 0)
	wantLat, wantLon := Tile2Coord(float64(x), float64(y), zoom)
	if math.Abs(lat-wantLat) > 1e-12 || math.Abs(lon-wantLon) > 1e-12 {
		t.Errorf("sample (0,0) = (%v,%v), want (%v,%v)", lat, lon, wantLat, wantLon)
	}

	lat, lon = Sample2Coord(x, y, zoom, 256, 256)
	wantLat, wantLon = Tile2Coord(float64(x+1), float64(y+1), zoom)
	if math.Abs(lat-wantLat) > 1e-12 || math.Abs(lon-wantLon) > 1e-12 {
		t.Errorf("sample (256,256) = (%v,%v), want (%v,%v)", lat, lon, wantLat, wantLon)
	}
}

func TestSample2CoordSharedEdge(t *testing.T) {
	// Neighboring tiles share the coordinate of their common edge.
	lat0, lon0 := Sample2Coord(10, 20, 8, 100, 256)
	lat1, lon1 := Sample2Coord(11, 20, 8, 100, 0)
	if math.Abs(lat0-lat1) > 1e-12 || math.Abs(lon0-lon1) > 1e-12 {
		t.Errorf("edge mismatch: (%v,%v) vs (%v,%v)", lat0, lon0, lat1, lon1)
	}
}

func TestUnitConversions(t *testing.T) {
	if got := M2Ft(1609.344); math.Abs(got-5280.0) > 1e-9 {
		t.Errorf("M2Ft(1609.344) = %v, want 5280", got)
	}
	if got := Ft2M(5280.0); math.Abs(got-1609.344) > 1e-9 {
		t.Errorf("Ft2M(5280) = %v, want 1609.344", got)
	}
	for _, m := range []float64{0, 1, 100, 8848.86, -86} {
		if got := Ft2M(M2Ft(m)); math.Abs(got-m) > 1e-9 {
			t.Errorf("Ft2M(M2Ft(%v)) = %v", m, got)
		}
	}
}
