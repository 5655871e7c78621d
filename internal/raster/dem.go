package raster

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// asterNodata is the sentinel in the ASTER source rasters; it maps to 0
// (sea level) at load time.
const asterNodata = -9999

func asterName(lat, lon int) string {
	ns := "N"
	if lat < 0 {
		ns = "S"
	}
	ew := "E"
	if lon < 0 {
		ew = "W"
	}
	return fmt.Sprintf("ASTGTMV003_%s%02d%s%03d", ns, abs(lat), ew, abs(lon))
}

func asterDemPath(base string, lat, lon int) string {
	return filepath.Join(base, "ASTERv3", "data", asterName(lat, lon)+"_dem.tif")
}

func asterXMLPath(base string, lat, lon int) string {
	return filepath.Join(base, "ASTERv3", "zip", asterName(lat, lon)+".zip.xml")
}

// ExistsDEM reports whether the ASTER raster for (lat, lon) is present
// under base.
func ExistsDEM(base string, lat, lon int) bool {
	_, err := os.Stat(asterDemPath(base, lat, lon))
	return err == nil
}

// LoadDEM imports the ASTER raster for (lat, lon) from under base: a
// tiled int16 GeoTIFF in meters plus an XML sidecar carrying the
// geographic bounding box. A missing raster returns (nil, nil).
func LoadDEM(base string, lat, lon int) (*Raster, error) {
	demName := asterDemPath(base, lat, lon)
	f, err := os.Open(demName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := &Raster{
		Family: FamilyASTER,
		Lat:    lat,
		Lon:    lon,
		LonL:   float64(lon),
		LatB:   float64(lat),
		LonR:   float64(lon) + 1.0,
		LatT:   float64(lat) + 1.0,
	}

	if err := r.importTif(f); err != nil {
		return nil, fmt.Errorf("%s: %w", demName, err)
	}

	xmlName := asterXMLPath(base, lat, lon)
	if err := r.importBounds(xmlName); err != nil {
		return nil, fmt.Errorf("%s: %w", xmlName, err)
	}

	return r, nil
}

// importTif untiles the source raster into the dense height grid,
// mapping the nodata sentinel to 0 and converting meters to feet.
func (r *Raster) importTif(f *os.File) error {
	tr, err := newTIFFReader(f)
	if err != nil {
		return err
	}

	w := int(tr.ifd.width)
	h := int(tr.ifd.height)
	tw := int(tr.ifd.tileWidth)
	th := int(tr.ifd.tileHeight)

	r.height = make([]int16, w*h)

	for row := 0; row < tr.ifd.tilesDown(); row++ {
		for col := 0; col < tr.ifd.tilesAcross(); col++ {
			tile, err := tr.readTile(col, row)
			if err != nil {
				r.height = nil
				return err
			}

			// untile, clipping edge tiles to the image extent
			for m := 0; m < th; m++ {
				i := row*th + m
				if i >= h {
					break
				}
				for n := 0; n < tw; n++ {
					j := col*tw + n
					if j >= w {
						break
					}

					t := tile[m*tw+n]
					if t == asterNodata {
						t = 0
					}
					r.height[i*w+j] = heightFt(float64(t))
				}
			}
		}
	}

	r.Rows = h
	r.Cols = w
	return nil
}

// importBounds reads the geographic bounding box from the XML sidecar:
// the four bounding coordinate elements, wherever they appear in the
// document hierarchy.
func (r *Raster) importBounds(fname string) error {
	f, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	found := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		var dst *float64
		switch se.Name.Local {
		case "NorthBoundingCoordinate":
			dst = &r.LatT
		case "WestBoundingCoordinate":
			dst = &r.LonL
		case "SouthBoundingCoordinate":
			dst = &r.LatB
		case "EastBoundingCoordinate":
			dst = &r.LonR
		default:
			continue
		}

		var v float64
		if err := dec.DecodeElement(&v, &se); err != nil {
			return fmt.Errorf("parsing %s: %w", se.Name.Local, err)
		}
		*dst = v
		found++
	}

	if found < 4 {
		return fmt.Errorf("bounding coordinates incomplete: found %d of 4", found)
	}
	return nil
}
