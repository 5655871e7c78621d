package raster

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/jeffboody/terrain/internal/coord"
)

// writeTiledTIFF builds a minimal classic little-endian tiled TIFF with
// one signed 16-bit sample per pixel and uncompressed tiles.
func writeTiledTIFF(t *testing.T, fname string, w, h, tw, th int, value func(i, j int) int16) {
	t.Helper()

	across := (w + tw - 1) / tw
	down := (h + th - 1) / th
	numTiles := across * down
	tileBytes := tw * th * 2

	var buf bytes.Buffer
	le := binary.LittleEndian

	// header: II, 42, first IFD offset (after header + tile data)
	buf.WriteString("II")
	hdr := make([]byte, 6)
	le.PutUint16(hdr[0:2], 42)
	le.PutUint32(hdr[2:6], uint32(8+numTiles*tileBytes))
	buf.Write(hdr)

	// tile data
	tileOffs := make([]uint32, numTiles)
	for row := 0; row < down; row++ {
		for col := 0; col < across; col++ {
			tileOffs[row*across+col] = uint32(buf.Len())
			tile := make([]byte, tileBytes)
			for m := 0; m < th; m++ {
				for n := 0; n < tw; n++ {
					v := int16(0)
					i := row*th + m
					j := col*tw + n
					if i < h && j < w {
						v = value(i, j)
					}
					le.PutUint16(tile[2*(m*tw+n):], uint16(v))
				}
			}
			buf.Write(tile)
		}
	}

	// IFD
	type entry struct {
		tag, dtype uint16
		count, val uint32
	}
	ifdOff := buf.Len()
	// tile offset/bytecount arrays live right after the IFD
	entries := []entry{
		{tagImageWidth, 4, 1, uint32(w)},
		{tagImageLength, 4, 1, uint32(h)},
		{tagBitsPerSample, 3, 1, 16},
		{tagCompression, 3, 1, compressionNone},
		{tagSamplesPerPixel, 3, 1, 1},
		{tagTileWidth, 3, 1, uint32(tw)},
		{tagTileLength, 3, 1, uint32(th)},
		{tagTileOffsets, 4, uint32(numTiles), 0},    // patched below
		{tagTileByteCounts, 4, uint32(numTiles), 0}, // patched below
		{tagSampleFormat, 3, 1, sampleFormatInt},
	}
	arraysOff := ifdOff + 2 + len(entries)*12 + 4
	for i := range entries {
		switch entries[i].tag {
		case tagTileOffsets:
			if numTiles == 1 {
				entries[i].val = tileOffs[0]
			} else {
				entries[i].val = uint32(arraysOff)
			}
		case tagTileByteCounts:
			if numTiles == 1 {
				entries[i].val = uint32(tileBytes)
			} else {
				entries[i].val = uint32(arraysOff + numTiles*4)
			}
		}
	}

	b2 := make([]byte, 2)
	le.PutUint16(b2, uint16(len(entries)))
	buf.Write(b2)
	for _, e := range entries {
		eb := make([]byte, 12)
		le.PutUint16(eb[0:2], e.tag)
		le.PutUint16(eb[2:4], e.dtype)
		le.PutUint32(eb[4:8], e.count)
		le.PutUint32(eb[8:12], e.val)
		buf.Write(eb)
	}
	buf.Write([]byte{0, 0, 0, 0}) // no next IFD

	if numTiles > 1 {
		b4 := make([]byte, 4)
		for _, off := range tileOffs {
			le.PutUint32(b4, off)
			buf.Write(b4)
		}
		for range tileOffs {
			le.PutUint32(b4, uint32(tileBytes))
			buf.Write(b4)
		}
	}

	if err := os.WriteFile(fname, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

// writeDEM writes a synthetic ASTER raster (tif + xml sidecar) for the
// graticule cell at (lat, lon) under base.
func writeDEM(t *testing.T, base string, lat, lon, size int, value func(i, j int) int16) {
	t.Helper()

	dataDir := filepath.Join(base, "ASTERv3", "data")
	zipDir := filepath.Join(base, "ASTERv3", "zip")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(zipDir, 0755); err != nil {
		t.Fatal(err)
	}

	writeTiledTIFF(t, filepath.Join(dataDir, asterName(lat, lon)+"_dem.tif"),
		size, size, 16, 16, value)

	xml := "<GranuleMetaDataFile><GranuleURMetaData><SpatialDomainContainer>" +
		"<HorizontalSpatialDomainContainer><BoundingRectangle>" +
		"<WestBoundingCoordinate>" + fmtF(float64(lon)) + "</WestBoundingCoordinate>" +
		"<NorthBoundingCoordinate>" + fmtF(float64(lat)+1) + "</NorthBoundingCoordinate>" +
		"<EastBoundingCoordinate>" + fmtF(float64(lon)+1) + "</EastBoundingCoordinate>" +
		"<SouthBoundingCoordinate>" + fmtF(float64(lat)) + "</SouthBoundingCoordinate>" +
		"</BoundingRectangle></HorizontalSpatialDomainContainer>" +
		"</SpatialDomainContainer></GranuleURMetaData></GranuleMetaDataFile>"
	if err := os.WriteFile(filepath.Join(zipDir, asterName(lat, lon)+".zip.xml"),
		[]byte(xml), 0644); err != nil {
		t.Fatal(err)
	}
}

func fmtF(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func TestLoadDEMMissing(t *testing.T) {
	r, err := LoadDEM(t.TempDir(), 40, -106)
	if err != nil {
		t.Fatalf("missing raster should not error: %v", err)
	}
	if r != nil {
		t.Error("missing raster should load as nil")
	}
}

func TestLoadDEMRoundTrip(t *testing.T) {
	base := t.TempDir()
	writeDEM(t, base, 40, -106, 33, func(i, j int) int16 {
		return int16(10*i + j)
	})

	if !ExistsDEM(base, 40, -106) {
		t.Fatal("ExistsDEM = false for a written raster")
	}

	r, err := LoadDEM(base, 40, -106)
	if err != nil {
		t.Fatal(err)
	}
	if r == nil {
		t.Fatal("LoadDEM returned nil")
	}

	if r.Rows != 33 || r.Cols != 33 {
		t.Errorf("grid = %dx%d, want 33x33", r.Rows, r.Cols)
	}
	if r.Family != FamilyASTER {
		t.Errorf("family = %v", r.Family)
	}
	if math.Abs(r.LatT-41) > 1e-9 || math.Abs(r.LonL-(-106)) > 1e-9 ||
		math.Abs(r.LatB-40) > 1e-9 || math.Abs(r.LonR-(-105)) > 1e-9 {
		t.Errorf("bounds = (%v,%v,%v,%v)", r.LatT, r.LonL, r.LatB, r.LonR)
	}

	// grid node (16,16) is the extent center; source 10*16+16 = 176 m
	h, ok := r.Sample(40.5, -105.5)
	if !ok {
		t.Fatal("center sample out of extent")
	}
	want := int16(math.Round(coord.M2Ft(176.0)))
	if h != want {
		t.Errorf("center sample = %d, want %d", h, want)
	}
}

func TestLoadDEMNodataSentinel(t *testing.T) {
	base := t.TempDir()
	writeDEM(t, base, 40, -106, 17, func(i, j int) int16 {
		return asterNodata
	})

	r, err := LoadDEM(base, 40, -106)
	if err != nil {
		t.Fatal(err)
	}

	// the sentinel maps to 0 at load
	h, ok := r.Sample(40.5, -105.5)
	if !ok {
		t.Fatal("sample out of extent")
	}
	if h != 0 {
		t.Errorf("nodata sample = %d, want 0", h)
	}
}

func TestLoadDEMMissingSidecar(t *testing.T) {
	base := t.TempDir()
	writeDEM(t, base, 40, -106, 17, func(i, j int) int16 { return 0 })
	if err := os.Remove(filepath.Join(base, "ASTERv3", "zip",
		asterName(40, -106)+".zip.xml")); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadDEM(base, 40, -106); err == nil {
		t.Error("expected error when the sidecar is missing")
	}
}
