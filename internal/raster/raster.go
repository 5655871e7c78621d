// Package raster loads georeferenced elevation source rasters and samples
// them bilinearly at arbitrary geographic coordinates.
//
// Two source families are supported. USGS rasters are a text header plus a
// binary body of 32-bit floats in meters; they are the finer source and are
// preferred where present. ASTER rasters are tiled 16-bit integer GeoTIFFs
// with an XML sidecar carrying the geographic bounds. Both are converted to
// feet at load time and held as dense row-major int16 grids.
package raster

import (
	"math"

	"github.com/jeffboody/terrain/internal/coord"
)

// Family identifies the source raster format.
type Family int

const (
	// FamilyUSGS is the header/data float raster family (finer, preferred).
	FamilyUSGS Family = iota
	// FamilyASTER is the tiled 16-bit integer raster family.
	FamilyASTER
)

// Byte orders for the USGS float body.
const (
	LSBFirst = iota
	MSBFirst
)

// CoastlineMax is the coastline fixup threshold: source heights above this
// value are empirically bogus (coastal artifacts) and sample as 0. The
// constant comes from inspection of the source data; do not "fix" it.
const CoastlineMax = 32000

// Raster is one elevation source raster held in memory.
type Raster struct {
	Family Family

	// integer origin (the south-west graticule corner; USGS file names
	// use lat+1, see fltBase)
	Lat int
	Lon int

	// geographic bounding box
	LatT float64
	LonL float64
	LatB float64
	LonR float64

	// nodata sentinel, compared against stored heights
	Nodata int16

	// byte order of the USGS body
	ByteOrder int

	Rows int
	Cols int

	// dense row-major heights in feet
	height []int16
}

// New creates an in-memory raster over the 1x1 degree graticule cell at
// (lat, lon) from pre-built height data in feet. height must hold
// rows*cols samples in row-major order with the first row at LatT.
func New(family Family, lat, lon, rows, cols int, height []int16) *Raster {
	return &Raster{
		Family: family,
		Lat:    lat,
		Lon:    lon,
		LonL:   float64(lon),
		LatB:   float64(lat),
		LonR:   float64(lon) + 1.0,
		LatT:   float64(lat) + 1.0,
		Rows:   rows,
		Cols:   cols,
		height: height,
	}
}

// Sample bilinearly interpolates the height in feet at (lat, lon).
// Returns false when the coordinate falls outside the raster's extent.
// Corner values equal to the nodata sentinel or above CoastlineMax are
// treated as 0 before interpolation.
func (r *Raster) Sample(lat, lon float64) (int16, bool) {
	lonu := (lon - r.LonL) / (r.LonR - r.LonL)
	latv := 1.0 - (lat-r.LatB)/(r.LatT-r.LatB)
	if lonu < 0.0 || lonu > 1.0 ||
		latv < 0.0 || latv > 1.0 {
		return 0, false
	}

	// fractional indices
	fx := lonu * float64(r.Cols-1)
	fy := latv * float64(r.Rows-1)

	x0 := int(fx)
	y0 := int(fy)
	x1 := int(fx + 1.0)
	y1 := int(fy + 1.0)

	if x0 < 0 {
		x0 = 0
	}
	if x1 >= r.Cols {
		x1 = r.Cols - 1
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 >= r.Rows {
		y1 = r.Rows - 1
	}

	u := fx - float64(x0)
	v := fy - float64(y0)

	h00 := r.corner(y0, x0)
	h01 := r.corner(y0, x1)
	h10 := r.corner(y1, x0)
	h11 := r.corner(y1, x1)

	// interpolate longitude then latitude
	h0 := h00 + u*(h01-h00)
	h1 := h10 + u*(h11-h10)
	return roundHeight(h0 + v*(h1-h0)), true
}

// corner reads one interpolation corner with the coastline fixup applied.
func (r *Raster) corner(row, col int) float64 {
	h := r.height[row*r.Cols+col]
	if h == r.Nodata || h > CoastlineMax {
		return 0.0
	}
	return float64(h)
}

// Bytes returns the in-memory size of the height grid. Used by the build
// cache for memory accounting.
func (r *Raster) Bytes() int64 {
	return int64(len(r.height)) * 2
}

// heightFt converts a source height in meters to a clamped int16 height
// in feet, rounding half away from zero.
func heightFt(m float64) int16 {
	f := math.Round(coord.M2Ft(m))
	if f > math.MaxInt16 {
		return math.MaxInt16
	}
	if f < math.MinInt16 {
		return math.MinInt16
	}
	return int16(f)
}

// roundHeight rounds an interpolated height (already in feet) half away
// from zero and clamps to the int16 range.
func roundHeight(f float64) int16 {
	f = math.Round(f)
	if f > math.MaxInt16 {
		return math.MaxInt16
	}
	if f < math.MinInt16 {
		return math.MinInt16
	}
	return int16(f)
}
