package coord

import "math"

// WGS84 derived constants for the closed-form geodetic/ECEF conversion
// of Osen, "Accurate Conversion of Earth-Fixed Earth-Centered Coordinates
// to Geodetic Coordinates" (2017). a = 6378137, e^2 = 6.6943799901377997e-3.
const (
	ecefAADC     = 7.79540464078689228919e+0007 // (a^2)/c
	ecefBBDCC    = 1.48379031586596594555e+0002 // (b^2)/(c^2)
	ecefEED2     = 3.34718999507065852867e-0003 // (e^2)/2
	ecefEEEED4   = 1.12036808631011150655e-0005 // (e^4)/4
	ecefEEEE     = 4.48147234524044602618e-0005 // e^4
	ecefHMIN     = 2.25010182030430273673e-0014 // (e^12)/4
	ecefINV3     = 3.33333333333333333333e-0001 // 1/3
	ecefINV6     = 1.66666666666666666667e-0001 // 1/6
	ecefINVAA    = 2.45817225764733181057e-0014 // 1/(a^2)
	ecefINVCBRT2 = 7.93700525984099737380e-0001 // 1/(2^(1/3))
	ecefP1MEE    = 9.93305620009858682943e-0001 // 1-(e^2)
	ecefP1MEEDAA = 2.44171631847341700642e-0014 // (1-(e^2))/(a^2)
)

// Geo2XYZ converts WGS84 geodetic coordinates (degrees, meters above the
// ellipsoid) to earth-centered earth-fixed Cartesian coordinates in meters.
func Geo2XYZ(lat, lon, alt float64) (x, y, z float64) {
	radLat := lat * math.Pi / 180.0
	radLon := lon * math.Pi / 180.0

	coslat := math.Cos(radLat)
	sinlat := math.Sin(radLat)
	coslon := math.Cos(radLon)
	sinlon := math.Sin(radLon)

	n := ecefAADC / math.Sqrt(coslat*coslat+ecefBBDCC)
	d := (n + alt) * coslat

	x = d * coslon
	y = d * sinlon
	z = (ecefP1MEE*n + alt) * sinlat
	return x, y, z
}

// XYZ2Geo converts earth-centered earth-fixed Cartesian coordinates in
// meters to WGS84 geodetic coordinates (degrees, meters above the
// ellipsoid). The conversion fails (returns ok=false) only for points
// deep inside the earth where the closed form is undefined.
func XYZ2Geo(x, y, z float64) (lat, lon, alt float64, ok bool) {
	ww := x*x + y*y
	m := ww * ecefINVAA
	n := z * z * ecefP1MEEDAA
	mpn := m + n
	p := ecefINV6 * (mpn - ecefEEEE)
	gg := m * n * ecefEEEED4
	h := 2.0*p*p*p + gg
	if h < ecefHMIN {
		return 0, 0, 0, false
	}

	c := ecefINVCBRT2 * math.Cbrt(h+gg+2.0*math.Sqrt(h*gg))
	i := -ecefEEEED4 - 0.5*mpn
	pp := p * p
	beta := ecefINV3*i - c - pp/c
	k := ecefEEEED4 * (ecefEEEED4 - mpn)

	// left part of t
	t1 := beta*beta - k
	t2 := math.Sqrt(t1)
	t3 := t2 - 0.5*(beta+i)
	t4 := math.Sqrt(t3)

	// right part of t
	//
	// t5 may drop slightly below zero due to numeric turbulence;
	// this only occurs at latitudes close to +-45.3 degrees
	t5 := math.Abs(0.5 * (beta - i))
	t6 := math.Sqrt(t5)
	t7 := t6
	if m >= n {
		t7 = -t6
	}
	t := t4 + t7

	// single Newton-Raphson correction of t
	j := ecefEED2 * (m - n)
	g := 2.0 * j
	tt := t * t
	ttt := tt * t
	tttt := tt * tt
	f := tttt + 2.0*i*tt + g*t + k
	dfdt := 4.0*ttt + 4.0*i*t + g
	dt := -f / dfdt

	// latitude (positive north)
	u := t + dt + ecefEED2
	v := t + dt - ecefEED2
	w := math.Sqrt(ww)
	zu := z * u
	wv := w * v
	radLat := math.Atan2(zu, wv)

	// altitude
	invuv := 1.0 / (u * v)
	dw := w - wv*invuv
	dz := z - zu*ecefP1MEE*invuv
	da := math.Sqrt(dw*dw + dz*dz)
	alt = da
	if u < 1.0 {
		alt = -da
	}

	// longitude (positive east)
	radLon := math.Atan2(y, x)

	lat = radLat * 180.0 / math.Pi
	lon = radLon * 180.0 / math.Pi
	return lat, lon, alt, true
}
