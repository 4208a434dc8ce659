package astro

import "math"

// J2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
const J2000 = 2451545.0

// MJDOffset converts between Julian Date and Modified Julian Date.
const MJDOffset = 2400000.5

// JulianDate converts a Modified Julian Date to a Julian Date.
func JulianDate(mjd float64) float64 {
	return mjd + MJDOffset
}

// GMST calculates Greenwich Mean Sidereal Time in radians for a given MJD (UTC).
// Uses the IAU-82 model as described in Vallado "Fundamentals of Astrodynamics".
//
// Formula (Vallado Eq 3-47):
//
//	θ_GMST = 67310.54841 + (876600h + 8640184.812866)*T + 0.093104*T² - 6.2e-6*T³
//
// where T is Julian centuries of UT1 from J2000.0, result is in seconds of time.
func GMST(mjd float64) float64 {
	jd := JulianDate(mjd)
	tUT1 := (jd - J2000) / 36525.0

	// GMST in seconds of time.
	// 876600h = 876600 * 3600 = 3155760000 seconds.
	gmstSec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1

	// Normalize to [0, 86400) seconds, then convert to radians.
	gmstSec = math.Mod(gmstSec, 86400.0)
	if gmstSec < 0 {
		gmstSec += 86400.0
	}
	return gmstSec / 86400.0 * 2.0 * math.Pi
}

// LST calculates local sidereal time in radians for an observer at the given
// east longitude (radians).
func LST(mjd, lonRad float64) float64 {
	lst := math.Mod(GMST(mjd)+lonRad, 2*math.Pi)
	if lst < 0 {
		lst += 2 * math.Pi
	}
	return lst
}
