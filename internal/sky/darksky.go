package sky

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"github.com/andrewbheyer/sims-skybrightness-pre/internal/astro"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/ephem"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/grid"
)

// Per-band zenith dark-sky surface brightness (mag/arcsec^2) and atmospheric
// extinction coefficients (mag/airmass), representative values for a dark
// Chilean site.
var (
	zenithDark = map[string]float64{
		"u": 22.99, "g": 22.26, "r": 21.20, "i": 20.48, "z": 19.60, "y": 18.61,
	}
	extinction = map[string]float64{
		"u": 0.48, "g": 0.21, "r": 0.13, "i": 0.10, "z": 0.07, "y": 0.10,
	}
	// Relative scattered-moonlight contribution per band, normalized to V~r.
	moonFactor = map[string]float64{
		"u": 1.6, "g": 1.3, "r": 1.0, "i": 0.7, "z": 0.55, "y": 0.45,
	}
)

// DarkSkyModel is the built-in brightness model: per-band dark-sky zenith
// brightness scaled with airmass, plus Krisciunas & Schaefer (1991)
// scattered moonlight. It is deliberately simple; any higher-fidelity model
// plugs in behind the BrightnessModel interface.
type DarkSkyModel struct {
	provider ephem.Provider
	site     ephem.Site
	workers  int
	logger   *slog.Logger
}

// NewDarkSkyModel creates the built-in model. workers <= 0 means NumCPU.
func NewDarkSkyModel(provider ephem.Provider, site ephem.Site, workers int, logger *slog.Logger) *DarkSkyModel {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &DarkSkyModel{
		provider: provider,
		site:     site,
		workers:  workers,
		logger:   logger,
	}
}

// Evaluate computes a Sample over the full grid at the given MJD.
func (m *DarkSkyModel) Evaluate(ctx context.Context, g *grid.Grid, mjd float64) (*Sample, error) {
	sunAlt, err := m.provider.Altitude(ephem.Sun, mjd)
	if err != nil {
		return nil, fmt.Errorf("sun altitude at mjd %.5f: %w", mjd, err)
	}
	sunRA, sunDec, err := m.provider.Position(ephem.Sun, mjd)
	if err != nil {
		return nil, fmt.Errorf("sun position at mjd %.5f: %w", mjd, err)
	}
	moonRA, moonDec, err := m.provider.Position(ephem.Moon, mjd)
	if err != nil {
		return nil, fmt.Errorf("moon position at mjd %.5f: %w", mjd, err)
	}
	moonAlt, err := m.provider.Altitude(ephem.Moon, mjd)
	if err != nil {
		return nil, fmt.Errorf("moon altitude at mjd %.5f: %w", mjd, err)
	}

	// Phase angle: 0 at full moon, 180 at new.
	elong := astro.Separation(sunRA, sunDec, moonRA, moonDec)
	phaseDeg := 180 - elong*180/math.Pi

	n := g.Size()
	s := &Sample{
		Mjd:     mjd,
		SunAlt:  sunAlt,
		Airmass: make([]float64, n),
		MoonSep: make([]float64, n),
		Mags:    make(map[string][]float64, len(Bands)),
	}
	for _, band := range Bands {
		s.Mags[band] = make([]float64, n)
	}

	lst := astro.LST(mjd, m.site.LonRad)

	eval := func(i int) {
		alt := astro.Altitude(g.RA[i], g.Dec[i], m.site.LatRad, lst)
		x := astro.Airmass(alt)
		sep := astro.Separation(g.RA[i], g.Dec[i], moonRA, moonDec)

		s.Airmass[i] = x
		s.MoonSep[i] = sep

		if alt <= 0 {
			for _, band := range Bands {
				s.Mags[band][i] = math.NaN()
			}
			return
		}

		for _, band := range Bands {
			s.Mags[band][i] = m.brightness(band, x, alt, sep, moonAlt, phaseDeg)
		}
	}

	if err := m.forEachLocation(ctx, n, eval); err != nil {
		return nil, err
	}
	return s, nil
}

// brightness returns the sky surface brightness in one band (mag/arcsec^2)
// for a location at airmass x, altitude alt, and angular distance sep from
// the moon.
func (m *DarkSkyModel) brightness(band string, x, alt, sep, moonAlt, phaseDeg float64) float64 {
	k := extinction[band]

	// Airglow scales roughly with airmass; extinction dims the column.
	dark := zenithDark[band] - 2.5*math.Log10(x) + k*(x-1)

	if moonAlt <= 0 {
		return dark
	}

	bMoon := moonBrightnessNL(sep, alt, moonAlt, phaseDeg, k)
	if bMoon <= 0 {
		return dark
	}
	mMoon := nanoLambertsToMag(bMoon)

	// Combine in linear flux.
	flux := math.Pow(10, -0.4*dark) + moonFactor[band]*math.Pow(10, -0.4*mMoon)
	return -2.5 * math.Log10(flux)
}

// moonBrightnessNL computes scattered moonlight in nanoLamberts per
// Krisciunas & Schaefer (1991) eqs 8-15. sep, alt, moonAlt in radians,
// phase angle in degrees, k in mag/airmass.
func moonBrightnessNL(sep, alt, moonAlt, phaseDeg, k float64) float64 {
	sepDeg := sep * 180 / math.Pi
	if sepDeg < 0.25 {
		// Inside the lunar disk; masked downstream regardless.
		sepDeg = 0.25
	}

	// Illuminance of the moon outside the atmosphere (eq 20).
	absPhase := math.Abs(phaseDeg)
	iStar := math.Pow(10, -0.4*(3.84+0.026*absPhase+4e-9*math.Pow(absPhase, 4)))

	// Scattering function: Rayleigh + Mie terms (eq 21).
	cs := math.Cos(sep)
	fRho := math.Pow(10, 5.36)*(1.06+cs*cs) + math.Pow(10, 6.15-sepDeg/40)

	// Optical path lengths for moon and target (eq 3).
	xMoon := ksPath(math.Pi/2 - moonAlt)
	xTarg := ksPath(math.Pi/2 - alt)

	return fRho * iStar * math.Pow(10, -0.4*k*xMoon) * (1 - math.Pow(10, -0.4*k*xTarg))
}

// ksPath is the Krisciunas & Schaefer optical path length for zenith
// distance z (radians).
func ksPath(z float64) float64 {
	s := math.Sin(z)
	return 1 / math.Sqrt(1-0.96*s*s)
}

// nanoLambertsToMag converts surface brightness in nanoLamberts to
// mag/arcsec^2 (Garstang 1989 relation, as used by KS91 eq 1).
func nanoLambertsToMag(b float64) float64 {
	return (20.7233 - math.Log(b/34.08)) / 0.92104
}
