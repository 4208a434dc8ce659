package astro

import "math"

// Separation computes the angular distance in radians between two points on
// the celestial sphere, given in equatorial coordinates (radians).
// Uses the haversine formulation, which is numerically stable at small angles.
func Separation(ra1, dec1, ra2, dec2 float64) float64 {
	sdRA := math.Sin((ra2 - ra1) / 2)
	sdDec := math.Sin((dec2 - dec1) / 2)
	h := sdDec*sdDec + math.Cos(dec1)*math.Cos(dec2)*sdRA*sdRA
	// Clamp against rounding before the asin.
	if h > 1 {
		h = 1
	}
	return 2 * math.Asin(math.Sqrt(h))
}

// Altitude computes the altitude in radians of a point at equatorial (ra, dec)
// for an observer at geodetic latitude latRad when the local sidereal time is
// lstRad. Standard hour-angle formula (Meeus Eq 13.6).
func Altitude(ra, dec, latRad, lstRad float64) float64 {
	h := lstRad - ra
	sinAlt := math.Sin(latRad)*math.Sin(dec) + math.Cos(latRad)*math.Cos(dec)*math.Cos(h)
	if sinAlt > 1 {
		sinAlt = 1
	} else if sinAlt < -1 {
		sinAlt = -1
	}
	return math.Asin(sinAlt)
}

// Airmass computes the relative optical airmass for a target at the given
// altitude (radians) using the Kasten & Young (1989) interpolation formula.
// Returns +Inf for targets at or below the horizon; the formula itself is
// only good to about -0.5° and everything that low is masked anyway.
func Airmass(altRad float64) float64 {
	if altRad <= 0 {
		return math.Inf(1)
	}
	altDeg := altRad * 180 / math.Pi
	return 1 / (math.Sin(altRad) + 0.50572*math.Pow(altDeg+6.07995, -1.6364))
}
