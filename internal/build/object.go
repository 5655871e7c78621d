// Package build drives pyramid construction: a shared reference-counted
// cache over source rasters and built tiles, the recursive build driver
// with null-set memoization, and the parallel fine-level pipeline.
package build

import (
	"fmt"

	"github.com/jeffboody/terrain/internal/raster"
	"github.com/jeffboody/terrain/internal/terrain"
)

// Object is the cache's sum type: either a built tile or a loaded source
// raster. Exactly one of terrain/flt is non-nil.
type Object struct {
	refcount int

	terrain *terrain.Tile
	flt     *raster.Raster
}

func newTerrainObject(t *terrain.Tile) *Object {
	return &Object{terrain: t}
}

func newRasterObject(r *raster.Raster) *Object {
	return &Object{flt: r}
}

// Terrain returns the tile variant, or nil.
func (o *Object) Terrain() *terrain.Tile {
	return o.terrain
}

// Key returns the cache key: T/<zoom>/<x>/<y> for tiles and
// F/<family>/<lat>/<lon> for rasters.
func (o *Object) Key() string {
	if o.terrain != nil {
		return terrainKey(o.terrain.X, o.terrain.Y, o.terrain.Zoom)
	}
	return rasterKey(o.flt.Family, o.flt.Lat, o.flt.Lon)
}

// Bytes returns the object's payload size for memory accounting.
func (o *Object) Bytes() int64 {
	if o.terrain != nil {
		return o.terrain.Bytes()
	}
	return o.flt.Bytes()
}

func (o *Object) incref() {
	o.refcount++
}

func (o *Object) decref() {
	o.refcount--
}

func terrainKey(x, y, zoom int) string {
	return fmt.Sprintf("T/%d/%d/%d", zoom, x, y)
}

func rasterKey(family raster.Family, lat, lon int) string {
	return fmt.Sprintf("F/%d/%d/%d", family, lat, lon)
}

func nullKey(x, y, zoom int) string {
	return fmt.Sprintf("%d/%d/%d", zoom, x, y)
}
