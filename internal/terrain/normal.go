package terrain

import (
	"math"

	"github.com/jeffboody/terrain/internal/coord"
)

// GetNormalMap computes the surface normal at each of 256x256 cells and
// packs nx, ny into unsigned byte pairs. data must hold
// 2*SamplesNormal*SamplesNormal bytes.
//
// The normal is derived from (1,0,dzdx)x(0,1,dzdy) = (-dzdx,-dzdy,1) and
// scaled so that nz is 1.0, so only nx and ny need storing. nx and ny are
// clamped to (-2,2) before conversion to bytes: steep normals beyond
// ~63.4 degrees saturate so that the common shallow normals keep better
// 8-bit accuracy (dot(up, normalize(vec3(2,0,1))) = 0.447 = cos(63.4)).
func (t *Tile) GetNormalMap(data []byte) {
	dx, dy := t.metricSpacing()

	for i := 0; i < SamplesNormal; i++ {
		for j := 0; j < SamplesNormal; j++ {
			idx := 2 * (SamplesNormal*i + j)
			nx, ny := t.computeNormal(i, j, dx, dy)
			data[idx] = nx
			data[idx+1] = ny
		}
	}
}

// GetNormalMapf computes unclamped float normals (nx, ny, nz triples).
// data must hold 3*SamplesNormal*SamplesNormal floats.
func (t *Tile) GetNormalMapf(data []float32) {
	dx, dy := t.metricSpacing()

	for i := 0; i < SamplesNormal; i++ {
		for j := 0; j < SamplesNormal; j++ {
			idx := 3 * (SamplesNormal*i + j)
			nx, ny, nz := t.computeNormalf(i, j, dx, dy)
			data[idx] = nx
			data[idx+1] = ny
			data[idx+2] = nz
		}
	}
}

// metricSpacing returns the distance in meters between adjacent samples,
// derived from the ECEF positions of the tile's corner samples.
func (t *Tile) metricSpacing() (dx, dy float32) {
	lat0, lon0 := t.Coord(0, 0)
	lat1, lon1 := t.Coord(1, 1)

	x0, y0, z0 := coord.Geo2XYZ(lat0, lon0, 0.0)
	xe, ye, ze := coord.Geo2XYZ(lat0, lon1, 0.0)
	xs, ys, zs := coord.Geo2XYZ(lat1, lon0, 0.0)

	dx = float32(dist3(xe-x0, ye-y0, ze-z0))
	dy = float32(dist3(xs-x0, ys-y0, zs-z0))
	return dx, dy
}

func dist3(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}

func (t *Tile) computeNormalf(i, j int, dx, dy float32) (nx, ny, nz float32) {
	// heights of center/south/east samples in meters
	hc := float32(coord.Ft2M(float64(t.Get(i, j))))
	hs := float32(coord.Ft2M(float64(t.Get(i+1, j))))
	he := float32(coord.Ft2M(float64(t.Get(i, j+1))))

	tx := normalize3(dx, 0.0, he-hc)
	ty := normalize3(0.0, dy, hc-hs)
	n := normalize3(cross3(tx, ty))
	return n[0], n[1], n[2]
}

func (t *Tile) computeNormal(i, j int, dx, dy float32) (pnx, pny byte) {
	nx, ny, nz := t.computeNormalf(i, j, dx, dy)

	// scale components such that nz is 1.0 so that only nx and ny need
	// to be stored in the normal map texture
	nx /= nz
	ny /= nz

	if nx < -2.0 {
		nx = -2.0
	}
	if nx > 2.0 {
		nx = 2.0
	}
	if ny < -2.0 {
		ny = -2.0
	}
	if ny > 2.0 {
		ny = 2.0
	}

	// scale nx and ny to (0.0, 1.0) then to (0, 255)
	nx = (nx / 4.0) + 0.5
	ny = (ny / 4.0) + 0.5
	return byte(nx * 255.0), byte(ny * 255.0)
}

type vec3 [3]float32

func normalize3(x, y, z float32) vec3 {
	mag := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	if mag == 0.0 {
		return vec3{0, 0, 0}
	}
	return vec3{x / mag, y / mag, z / mag}
}

func cross3(a, b vec3) (x, y, z float32) {
	x = a[1]*b[2] - a[2]*b[1]
	y = a[2]*b[0] - a[0]*b[2]
	z = a[0]*b[1] - a[1]*b[0]
	return x, y, z
}
