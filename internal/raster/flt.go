package raster

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// fltBase returns the vendor file base for the USGS raster whose origin
// graticule is (lat, lon). USGS names tiles by their top-left corner, so
// the latitude is offset by one.
func fltBase(lat, lon int) string {
	ulat := lat + 1
	ns := "n"
	if ulat < 0 {
		ns = "s"
	}
	ew := "e"
	if lon < 0 {
		ew = "w"
	}
	return fmt.Sprintf("%s%d%s%03d", ns, abs(ulat), ew, abs(lon))
}

func fltPath(base string, lat, lon int, ext string) string {
	fbase := fltBase(lat, lon)
	return filepath.Join(base, "usgs-ned", "data", fbase,
		"float"+fbase+"_13"+ext)
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// ExistsFLT reports whether the USGS raster for (lat, lon) is present
// under base. Source coverage is sparse, so absence is expected.
func ExistsFLT(base string, lat, lon int) bool {
	_, err := os.Stat(fltPath(base, lat, lon, ".hdr"))
	return err == nil
}

// LoadFLT imports the USGS raster for (lat, lon) from under base.
// A missing raster returns (nil, nil); a present but unparseable raster
// is an error.
func LoadFLT(base string, lat, lon int) (*Raster, error) {
	hdrName := fltPath(base, lat, lon, ".hdr")
	if _, err := os.Stat(hdrName); err != nil {
		return nil, nil
	}

	r := &Raster{
		Family:    FamilyUSGS,
		Lat:       lat,
		Lon:       lon,
		LonL:      float64(lon),
		LatB:      float64(lat),
		LonR:      float64(lon) + 1.0,
		LatT:      float64(lat) + 1.0,
		ByteOrder: LSBFirst,
	}

	if err := r.importHdr(hdrName); err != nil {
		return nil, fmt.Errorf("%s: %w", hdrName, err)
	}

	// the prj is advisory; warn on surprises but never fail
	r.importPrj(fltPath(base, lat, lon, ".prj"))

	// the body basename has two known vendor spellings
	fltName := fltPath(base, lat, lon, "")
	if err := r.importFlt(fltName); err != nil {
		fltName = fltPath(base, lat, lon, ".flt")
		if err2 := r.importFlt(fltName); err2 != nil {
			return nil, fmt.Errorf("%s: %w", fltName, err2)
		}
	}

	return r, nil
}

// importHdr parses the whitespace-separated key/value header.
func (r *Raster) importHdr(fname string) error {
	f, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	var (
		ncols     int
		nrows     int
		xllcorner float64
		yllcorner float64
		cellsize  float64
		nodata    float64
		byteorder = -1
	)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := keyval(scanner.Text())
		if !ok {
			continue
		}

		switch key {
		case "ncols":
			ncols, _ = strconv.Atoi(value)
		case "nrows":
			nrows, _ = strconv.Atoi(value)
		case "xllcorner":
			xllcorner, _ = strconv.ParseFloat(value, 64)
		case "yllcorner":
			yllcorner, _ = strconv.ParseFloat(value, 64)
		case "cellsize":
			cellsize, _ = strconv.ParseFloat(value, 64)
		case "NODATA_value":
			nodata, _ = strconv.ParseFloat(value, 64)
		case "byteorder":
			switch value {
			case "MSBFIRST":
				byteorder = MSBFirst
			case "LSBFIRST":
				byteorder = LSBFirst
			}
		default:
			log.Printf("WARNING: %s: unknown key=%s, value=%s", fname, key, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if ncols == 0 || nrows == 0 || cellsize == 0.0 || byteorder == -1 {
		return fmt.Errorf("invalid header: nrows=%d, ncols=%d, cellsize=%g, byteorder=%d",
			nrows, ncols, cellsize, byteorder)
	}

	r.LatB = yllcorner
	r.LonL = xllcorner
	r.LatT = yllcorner + float64(nrows)*cellsize
	r.LonR = xllcorner + float64(ncols)*cellsize
	r.Nodata = heightFt(nodata)
	r.ByteOrder = byteorder
	r.Rows = nrows
	r.Cols = ncols
	return nil
}

// importPrj reads the projection sidecar permissively, warning when a
// value differs from the expected defaults.
func (r *Raster) importPrj(fname string) {
	f, err := os.Open(fname)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := keyval(scanner.Text())
		if !ok {
			continue
		}

		warn := false
		switch key {
		case "Projection":
			warn = value != "GEOGRAPHIC"
		case "Datum":
			warn = value != "NAD83"
		case "Zunits":
			warn = value != "METERS"
		case "Units":
			warn = value != "DD"
		case "Spheroid":
			warn = value != "GRS1980"
		case "Xshift", "Yshift":
			v, _ := strconv.ParseFloat(value, 64)
			warn = v != 0.0
		case "Parameters":
			// skip
		default:
			warn = true
		}
		if warn {
			log.Printf("WARNING: %s: %s=%s", fname, key, value)
		}
	}
}

// importFlt streams the binary body: nrows x ncols 32-bit floats in
// meters, swapped when the header declared MSBFIRST, converted to feet.
func (r *Raster) importFlt(fname string) error {
	f, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	r.height = make([]int16, r.Rows*r.Cols)

	br := bufio.NewReaderSize(f, 1<<16)
	row := make([]byte, 4*r.Cols)
	for i := 0; i < r.Rows; i++ {
		if _, err := io.ReadFull(br, row); err != nil {
			r.height = nil
			return fmt.Errorf("row %d: %w", i, err)
		}

		for j := 0; j < r.Cols; j++ {
			var bits uint32
			if r.ByteOrder == MSBFirst {
				bits = binary.BigEndian.Uint32(row[4*j:])
			} else {
				bits = binary.LittleEndian.Uint32(row[4*j:])
			}
			m := float64(math.Float32frombits(bits))
			r.height[i*r.Cols+j] = heightFt(m)
		}
	}

	return nil
}

// keyval splits a header line into its key and value fields.
func keyval(s string) (key, value string, ok bool) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}
