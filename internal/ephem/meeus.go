package ephem

import (
	"math"

	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/solar"

	"github.com/andrewbheyer/sims-skybrightness-pre/internal/astro"
)

// MeeusProvider computes body positions with the meeus algorithms for the Sun
// and Moon and approximate Keplerian elements for the planets.
// Stateless apart from the site; safe for concurrent use.
type MeeusProvider struct {
	site Site
}

// NewMeeusProvider creates a provider for the given observing site.
func NewMeeusProvider(site Site) *MeeusProvider {
	return &MeeusProvider{site: site}
}

// Site returns the observing site.
func (p *MeeusProvider) Site() Site {
	return p.site
}

// Position returns geocentric apparent equatorial coordinates in radians.
func (p *MeeusProvider) Position(b Body, mjd float64) (ra, dec float64, err error) {
	jde := astro.JulianDate(mjd)

	switch b {
	case Sun:
		a, d := solar.ApparentEquatorial(jde)
		return a.Rad(), d.Rad(), nil
	case Moon:
		lambda, beta, _ := moonposition.Position(jde)
		eps := nutation.MeanObliquity(jde)
		a, d := coord.EclToEq(lambda, beta, math.Sin(eps.Rad()), math.Cos(eps.Rad()))
		return a.Rad(), d.Rad(), nil
	case Venus:
		ra, dec = astro.PlanetEquatorial(astro.Venus, mjd)
	case Mars:
		ra, dec = astro.PlanetEquatorial(astro.Mars, mjd)
	case Jupiter:
		ra, dec = astro.PlanetEquatorial(astro.Jupiter, mjd)
	case Saturn:
		ra, dec = astro.PlanetEquatorial(astro.Saturn, mjd)
	default:
		return 0, 0, errUnknownBody(b)
	}
	return ra, dec, nil
}

// Altitude returns the body's altitude in radians as seen from the site.
func (p *MeeusProvider) Altitude(b Body, mjd float64) (float64, error) {
	ra, dec, err := p.Position(b, mjd)
	if err != nil {
		return 0, err
	}
	lst := astro.LST(mjd, p.site.LonRad)
	return astro.Altitude(ra, dec, p.site.LatRad, lst), nil
}
