package astro

import (
	"math"
	"testing"
)

// TestJulianDate verifies the MJD offset.
func TestJulianDate(t *testing.T) {
	if got := JulianDate(0); got != 2400000.5 {
		t.Errorf("JulianDate(0) = %f, want 2400000.5", got)
	}
	if got := JulianDate(51544.5); got != J2000 {
		t.Errorf("JulianDate(51544.5) = %f, want %f", got, J2000)
	}
}

// TestGMST verifies GMST against known values.
func TestGMST(t *testing.T) {
	tests := []struct {
		name    string
		mjd     float64
		wantDeg float64
	}{
		{
			// Meeus Example 12.a gives GMST 280.46061837 deg at J2000.0.
			name:    "J2000.0 epoch",
			mjd:     51544.5,
			wantDeg: 280.46062,
		},
		{
			// Vallado Example 3-15: April 6, 2004, 07:51:28.386 UTC.
			name:    "Vallado example date",
			mjd:     53101.327411875,
			wantDeg: 312.8098943,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GMST(tt.mjd) * 180 / math.Pi
			if diff := math.Abs(got - tt.wantDeg); diff > 1e-3 {
				t.Errorf("GMST(%f) = %.6f deg, want %.6f (diff=%.2e)", tt.mjd, got, tt.wantDeg, diff)
			}
		})
	}
}

// TestSeparation checks the haversine separation on simple geometries.
func TestSeparation(t *testing.T) {
	tests := []struct {
		name                 string
		ra1, dec1, ra2, dec2 float64
		want                 float64
	}{
		{"coincident", 1.0, 0.5, 1.0, 0.5, 0},
		{"pole to pole", 0, math.Pi / 2, 0, -math.Pi / 2, math.Pi},
		{"equator quarter turn", 0, 0, math.Pi / 2, 0, math.Pi / 2},
		{"one degree in ra at equator", 0, 0, math.Pi / 180, 0, math.Pi / 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Separation(tt.ra1, tt.dec1, tt.ra2, tt.dec2)
			if diff := math.Abs(got - tt.want); diff > 1e-12 {
				t.Errorf("Separation = %.12f, want %.12f", got, tt.want)
			}
		})
	}
}

// TestAirmass checks the Kasten-Young formula at reference altitudes.
func TestAirmass(t *testing.T) {
	// Zenith is the airmass floor.
	if x := Airmass(math.Pi / 2); math.Abs(x-1.0) > 0.002 {
		t.Errorf("Airmass(zenith) = %.4f, want ~1.0", x)
	}
	// 30 deg altitude is close to the plane-parallel value of 2.
	if x := Airmass(math.Pi / 6); math.Abs(x-2.0) > 0.01 {
		t.Errorf("Airmass(30 deg) = %.4f, want ~2.0", x)
	}
	// Monotonically increasing toward the horizon.
	if Airmass(0.2) <= Airmass(0.4) {
		t.Error("airmass should increase toward the horizon")
	}
	// Below the horizon is unobservable.
	if x := Airmass(-0.01); !math.IsInf(x, 1) {
		t.Errorf("Airmass(below horizon) = %v, want +Inf", x)
	}
}

// TestAltitude checks the hour-angle altitude formula.
func TestAltitude(t *testing.T) {
	lat := -0.5
	// A target on the meridian at the observer's declination is at zenith.
	if alt := Altitude(1.0, lat, lat, 1.0); math.Abs(alt-math.Pi/2) > 1e-9 {
		t.Errorf("zenith altitude = %.9f, want pi/2", alt)
	}
	// The opposite pole direction is below the horizon.
	if alt := Altitude(1.0, math.Pi/2, lat, 1.0); alt >= 0 {
		t.Errorf("north celestial pole from southern site: alt = %.4f, want < 0", alt)
	}
}

// TestSolveKepler verifies the Kepler solver satisfies its own equation.
func TestSolveKepler(t *testing.T) {
	for _, e := range []float64{0, 0.0068, 0.093, 0.25} {
		for m := 0.0; m < 2*math.Pi; m += 0.7 {
			ea := solveKepler(m, e)
			if resid := math.Abs(ea - e*math.Sin(ea) - m); resid > 1e-10 {
				t.Errorf("e=%.4f m=%.2f: residual %.2e", e, m, resid)
			}
		}
	}
}

// TestPlanetEquatorial sanity-checks geometry: results are finite, RA is
// normalized, and declinations stay near the ecliptic band.
func TestPlanetEquatorial(t *testing.T) {
	mjd := 59560.2
	for _, p := range []Planet{Venus, Mars, Jupiter, Saturn} {
		t.Run(p.String(), func(t *testing.T) {
			ra, dec := PlanetEquatorial(p, mjd)
			if math.IsNaN(ra) || math.IsNaN(dec) {
				t.Fatal("NaN coordinates")
			}
			if ra < 0 || ra >= 2*math.Pi {
				t.Errorf("ra = %.6f outside [0, 2pi)", ra)
			}
			// Planets stay within ~9 deg of the ecliptic, so geocentric
			// declination is bounded by obliquity plus margin.
			if math.Abs(dec) > (obliquityJ2000+10)*math.Pi/180 {
				t.Errorf("dec = %.4f rad implausibly far from the ecliptic", dec)
			}
		})
	}
}

// TestLSTWrap verifies local sidereal time stays in [0, 2pi).
func TestLSTWrap(t *testing.T) {
	for _, lon := range []float64{-3.0, -1.2345, 0, 2.9} {
		for mjd := 59560.0; mjd < 59561.0; mjd += 0.13 {
			lst := LST(mjd, lon)
			if lst < 0 || lst >= 2*math.Pi {
				t.Fatalf("LST(%.2f, %.2f) = %.6f outside [0, 2pi)", mjd, lon, lst)
			}
		}
	}
}
