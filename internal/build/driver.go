package build

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/jeffboody/terrain/internal/coord"
	"github.com/jeffboody/terrain/internal/raster"
	"github.com/jeffboody/terrain/internal/terrain"
)

const (
	// FineZoom is the zoom at which combined sources are resampled
	// directly.
	FineZoom = 15
	// SourceZoom is the zoom whose tiles align with the 1x1 degree
	// source rasters: the raster neighborhood is prefetched here, and
	// it is the fine zoom when only the coarser family covers a region.
	SourceZoom = 13
)

// Builder constructs the tile pyramid for a geographic region. It owns
// the object cache and the raster neighborhood used at the fine zooms.
// Builder is single-threaded; recursion into child tiles is ordinary
// synchronous calls.
type Builder struct {
	base string // source raster base directory
	out  string // output database base directory

	// requested region in whole degrees
	latT int
	lonL int
	latB int
	lonR int

	cache *cache

	// raster neighborhoods prefetched at SourceZoom. Refcounts are not
	// needed: slots are only replaced by the next prefetch, and cache
	// eviction of a slotted raster merely drops the cache's reference.
	usgs  Neighborhood
	aster Neighborhood

	t0    time.Time
	count float64
	total float64
}

// NewBuilder creates a builder for the region (latT, lonL, latB, lonR)
// reading sources under base and writing the database under out.
// budget <= 0 selects the default memory budget.
func NewBuilder(base, out string, latT, lonL, latB, lonR int, budget int64) *Builder {
	xtl, ytl := coord.Coord2Tile(float64(latT), float64(lonL), SourceZoom)
	xbr, ybr := coord.Coord2Tile(float64(latB), float64(lonR), SourceZoom)

	b := &Builder{
		base:  base,
		out:   out,
		latT:  latT,
		lonL:  lonL,
		latB:  latB,
		lonR:  lonR,
		cache: newCache(budget),
		t0:    time.Now(),
		total: (xbr - xtl) * (ybr - ytl),
	}

	log.Printf("latT=%d, lonL=%d, latB=%d, lonR=%d, out=%s, total=%.0f",
		latT, lonL, latB, lonR, out, b.total)
	return b
}

// Put releases a reference obtained from GetTerrain.
func (b *Builder) Put(obj *Object) {
	if obj != nil {
		obj.decref()
	}
}

// GetTerrain returns the tile at (x, y, zoom), building it and its
// descendants as needed. The returned object is pinned; release it with
// Put. A nil object with nil error means the tile has no data.
func (b *Builder) GetTerrain(x, y, zoom int) (*Object, error) {
	// check range
	n := int(math.Pow(2.0, float64(zoom)))
	if x < 0 || y < 0 || x >= n || y >= n {
		return nil, nil
	}

	// clip tile against the requested region
	latT, lonL, latB, lonR := coord.Bounds(x, y, zoom)
	if float64(b.latT) < latB || float64(b.lonL) > lonR ||
		float64(b.latB) > latT || float64(b.lonR) < lonL {
		return nil, nil
	}

	// check if the object is cached
	if obj := b.cache.find(terrainKey(x, y, zoom)); obj != nil {
		obj.incref()
		if zoom == SourceZoom {
			b.cache.trim()
		}
		return obj, nil
	}

	// check if the object is known to be null
	if zoom <= SourceZoom && b.cache.isNull(x, y, zoom) {
		return nil, nil
	}

	// check if the object was persisted by a previous run; only tiles
	// at or above the source zoom are trusted
	if zoom <= SourceZoom {
		if obj := b.importTerrain(x, y, zoom); obj != nil {
			obj.incref()
			if zoom == SourceZoom {
				b.cache.trim()
			}
			return obj, nil
		}
	}

	// end recursion
	if zoom == FineZoom {
		return b.make(x, y, zoom)
	} else if zoom == SourceZoom {
		next, err := b.prefetch13(x, y)
		if err != nil {
			return nil, err
		}
		switch next {
		case SourceZoom:
			obj, err := b.make(x, y, zoom)
			b.cache.trim()
			return obj, err
		case 0:
			b.cache.addNull(x, y, zoom)
			b.cache.trim()
			return nil, nil
		}
		// otherwise descend to the next LOD
	}

	return b.downsample(x, y, zoom)
}

// importTerrain loads a persisted tile into the cache. Corrupt files are
// treated as missing so the driver rebuilds them.
func (b *Builder) importTerrain(x, y, zoom int) *Object {
	t, err := terrain.Import(b.out, x, y, zoom)
	if err != nil {
		log.Printf("WARNING: rebuilding corrupt tile %d/%d/%d: %v", zoom, x, y, err)
		return nil
	}
	if t == nil {
		return nil
	}
	obj := newTerrainObject(t)
	b.cache.add(obj)
	return obj
}

// getFlt returns the cached raster for (family, lat, lon), loading it on
// demand. Missing rasters return nil: source coverage is sparse. Corrupt
// rasters are logged and left null.
func (b *Builder) getFlt(family raster.Family, lat, lon int) *Object {
	if obj := b.cache.find(rasterKey(family, lat, lon)); obj != nil {
		return obj
	}

	var r *raster.Raster
	var err error
	if family == raster.FamilyUSGS {
		r, err = raster.LoadFLT(b.base, lat, lon)
	} else {
		r, err = raster.LoadDEM(b.base, lat, lon)
	}
	if err != nil {
		log.Printf("WARNING: skipping source %d/%d/%d: %v", family, lat, lon, err)
		return nil
	}
	if r == nil {
		return nil
	}

	obj := newRasterObject(r)
	b.cache.add(obj)
	return obj
}

// prefetch13 loads the 3x3 raster neighborhood around tile (x, y) at
// SourceZoom and decides how the region builds: FineZoom when the finer
// family participates, SourceZoom when only the coarser family covers
// the area, 0 when neither does.
func (b *Builder) prefetch13(x, y int) (int, error) {
	b.count += 1.0

	// select the graticule origin of the tile
	latT, lonL, _, _ := coord.Bounds(x, y, SourceZoom)
	lat := int(latT)
	lon := int(lonL)

	log.Printf("13/%d/%d: lat=%d, lon=%d, dt=%.3f, mem=%d MB, %.1f%%",
		x, y, lat, lon, time.Since(b.t0).Seconds(),
		b.cache.memBytes/(1024*1024), 100.0*b.count/b.total)

	b.usgs = Neighborhood{}
	b.aster = Neighborhood{}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			glat := lat + 1 - row
			glon := lon - 1 + col
			if obj := b.getFlt(raster.FamilyUSGS, glat, glon); obj != nil {
				b.usgs.Set(row, col, obj.flt)
			}
		}
	}

	// fully covered by the finer family
	if b.usgs.Count() == 9 {
		return FineZoom, nil
	}

	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			glat := lat + 1 - row
			glon := lon - 1 + col
			if obj := b.getFlt(raster.FamilyASTER, glat, glon); obj != nil {
				b.aster.Set(row, col, obj.flt)
			}
		}
	}

	if b.usgs.Count() > 0 {
		return FineZoom, nil
	} else if b.aster.Count() > 0 {
		return SourceZoom, nil
	}
	return 0, nil
}

// make builds a tile directly from the prefetched raster neighborhood
// and exports it.
func (b *Builder) make(x, y, zoom int) (*Object, error) {
	t := terrain.New(x, y, zoom)

	var primary, secondary *Neighborhood
	if b.usgs.Count() > 0 {
		primary = &b.usgs
	}
	if b.aster.Count() > 0 {
		secondary = &b.aster
	}
	SampleTile(t, primary, secondary)

	if err := t.Export(b.out); err != nil {
		return nil, fmt.Errorf("exporting %d/%d/%d: %w", zoom, x, y, err)
	}

	obj := newTerrainObject(t)
	b.cache.add(obj)
	obj.incref()
	return obj, nil
}

// downsample builds a coarse tile from the 16 surrounding children at
// the next LOD.
func (b *Builder) downsample(x, y, zoom int) (*Object, error) {
	var next [16]*Object
	release := func() {
		for _, obj := range next {
			b.Put(obj)
		}
	}

	done := true
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			obj, err := b.GetTerrain(2*x+c-1, 2*y+r-1, zoom+1)
			if err != nil {
				release()
				return nil, err
			}
			next[4*r+c] = obj
			if obj != nil {
				done = false
			}
		}
	}

	// nothing to sample below this tile
	if done {
		if zoom <= SourceZoom {
			b.cache.addNull(x, y, zoom)
			if zoom == SourceZoom {
				b.cache.trim()
			}
		}
		return nil, nil
	}

	t := terrain.New(x, y, zoom)
	var children [16]*terrain.Tile
	for i, obj := range next {
		if obj != nil {
			children[i] = obj.terrain
		}
	}
	terrain.Downsample(t, &children)

	if err := t.Export(b.out); err != nil {
		release()
		if zoom == SourceZoom {
			b.cache.trim()
		}
		return nil, fmt.Errorf("exporting %d/%d/%d: %w", zoom, x, y, err)
	}

	obj := newTerrainObject(t)
	b.cache.add(obj)
	release()
	obj.incref()

	if zoom == SourceZoom {
		b.cache.trim()
	}
	return obj, nil
}
