package astro

import "math"

// Planet identifies a major planet with an approximate Keplerian element set.
type Planet int

const (
	Venus Planet = iota
	Mars
	Jupiter
	Saturn
)

// String returns the planet name.
func (p Planet) String() string {
	switch p {
	case Venus:
		return "venus"
	case Mars:
		return "mars"
	case Jupiter:
		return "jupiter"
	case Saturn:
		return "saturn"
	default:
		return "unknown"
	}
}

// elements holds J2000 Keplerian elements and centennial rates.
// a in AU, angles in degrees; from Standish, "Keplerian Elements for
// Approximate Positions of the Major Planets" (JPL, valid 1800-2050 AD).
type elements struct {
	a, aDot   float64 // semi-major axis
	e, eDot   float64 // eccentricity
	i, iDot   float64 // inclination
	l, lDot   float64 // mean longitude
	lp, lpDot float64 // longitude of perihelion
	o, oDot   float64 // longitude of ascending node
}

var planetElements = map[Planet]elements{
	Venus: {
		0.72333566, 0.00000390, 0.00677672, -0.00004107,
		3.39467605, -0.00078890, 181.97909950, 58517.81538729,
		131.60246718, 0.00268329, 76.67984255, -0.27769418,
	},
	Mars: {
		1.52371034, 0.00001847, 0.09339410, 0.00007882,
		1.84969142, -0.00813131, -4.55343205, 19140.30268499,
		-23.94362959, 0.44441088, 49.55953891, -0.29257343,
	},
	Jupiter: {
		5.20288700, -0.00011607, 0.04838624, -0.00013253,
		1.30439695, -0.00183714, 34.39644051, 3034.74612775,
		14.72847983, 0.21252668, 100.47390909, 0.20469106,
	},
	Saturn: {
		9.53667594, -0.00125060, 0.05386179, -0.00050991,
		2.48599187, 0.00193609, 49.95424423, 1222.49362201,
		92.59887831, -0.41897216, 113.66242448, -0.28867794,
	},
}

// Earth-Moon barycenter, used to shift heliocentric vectors to geocentric.
var earthElements = elements{
	1.00000261, 0.00000562, 0.01671123, -0.00004392,
	-0.00001531, -0.01294668, 100.46457166, 35999.37244981,
	102.93768193, 0.32327364, 0.0, 0.0,
}

// Mean obliquity of the ecliptic at J2000 (degrees).
const obliquityJ2000 = 23.43928

// PlanetEquatorial computes the geocentric apparent equatorial coordinates
// (ra, dec in radians) of a planet at the given MJD. Accuracy is a few
// arcminutes over 1800-2050, far inside the multi-degree avoidance radii
// this is used for.
func PlanetEquatorial(p Planet, mjd float64) (ra, dec float64) {
	t := (JulianDate(mjd) - J2000) / 36525.0

	px, py, pz := heliocentricEcliptic(planetElements[p], t)
	ex, ey, ez := heliocentricEcliptic(earthElements, t)

	// Geocentric ecliptic vector.
	gx := px - ex
	gy := py - ey
	gz := pz - ez

	// Rotate ecliptic -> equatorial.
	eps := obliquityJ2000 * math.Pi / 180
	sinE, cosE := math.Sin(eps), math.Cos(eps)
	qx := gx
	qy := cosE*gy - sinE*gz
	qz := sinE*gy + cosE*gz

	ra = math.Atan2(qy, qx)
	if ra < 0 {
		ra += 2 * math.Pi
	}
	dec = math.Atan2(qz, math.Sqrt(qx*qx+qy*qy))
	return ra, dec
}

// heliocentricEcliptic computes a body's heliocentric position (AU) in the
// J2000 ecliptic frame from its approximate elements at Julian century t.
func heliocentricEcliptic(el elements, t float64) (x, y, z float64) {
	deg := math.Pi / 180

	a := el.a + el.aDot*t
	e := el.e + el.eDot*t
	i := (el.i + el.iDot*t) * deg
	l := (el.l + el.lDot*t) * deg
	lp := (el.lp + el.lpDot*t) * deg
	o := (el.o + el.oDot*t) * deg

	// Argument of perihelion and mean anomaly.
	w := lp - o
	m := math.Mod(l-lp, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}

	ea := solveKepler(m, e)

	// Position in the orbital plane.
	xp := a * (math.Cos(ea) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(ea)

	sinW, cosW := math.Sin(w), math.Cos(w)
	sinO, cosO := math.Sin(o), math.Cos(o)
	sinI, cosI := math.Sin(i), math.Cos(i)

	x = (cosW*cosO-sinW*sinO*cosI)*xp + (-sinW*cosO-cosW*sinO*cosI)*yp
	y = (cosW*sinO+sinW*cosO*cosI)*xp + (-sinW*sinO+cosW*cosO*cosI)*yp
	z = sinW*sinI*xp + cosW*sinI*yp
	return x, y, z
}

// solveKepler solves Kepler's equation E - e*sin(E) = M by Newton iteration.
// Converges in a handful of steps for planetary eccentricities.
func solveKepler(m, e float64) float64 {
	ea := m + e*math.Sin(m)
	for iter := 0; iter < 10; iter++ {
		delta := (ea - e*math.Sin(ea) - m) / (1 - e*math.Cos(ea))
		ea -= delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}
	return ea
}
