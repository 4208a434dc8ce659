// Package mask computes per-location validity masks for evaluated samples.
// A masked location failed the airmass bounds, sat too close to the moon, or
// sat too close to one of the avoidance planets at that timestamp. Masks are
// derived once per sample and never modified afterwards.
package mask

import (
	"fmt"

	"github.com/andrewbheyer/sims-skybrightness-pre/internal/astro"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/ephem"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/grid"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/sky"
)

// Mask flags excluded locations; true = excluded. Aligned to the grid.
type Mask []bool

// Config holds the exclusion limits. Angles in radians.
type Config struct {
	AirmassLimit   float64 // ceiling; floor is always 1.0
	MoonSepLimit   float64
	PlanetSepLimit float64
}

// Builder computes masks for samples against a fixed grid and limits.
type Builder struct {
	cfg      Config
	provider ephem.Provider
	planets  []ephem.Body
	g        *grid.Grid
}

// NewBuilder creates a mask builder. The avoidance planet set is fixed for
// the run (ephem.AvoidancePlanets by default when planets is nil).
func NewBuilder(cfg Config, provider ephem.Provider, g *grid.Grid, planets []ephem.Body) *Builder {
	if planets == nil {
		planets = ephem.AvoidancePlanets
	}
	return &Builder{
		cfg:      cfg,
		provider: provider,
		planets:  planets,
		g:        g,
	}
}

// Build computes the validity mask for one sample. Pure per-timestamp; the
// only external input is the planet ephemeris at the sample's MJD.
func (b *Builder) Build(s *sky.Sample) (Mask, error) {
	n := b.g.Size()
	m := make(Mask, n)

	for i := 0; i < n; i++ {
		// NaN airmass fails neither comparison and stays unmasked;
		// +Inf (below horizon) is caught by the ceiling.
		if s.Airmass[i] > b.cfg.AirmassLimit || s.Airmass[i] < 1.0 {
			m[i] = true
		}
		if s.MoonSep[i] <= b.cfg.MoonSepLimit {
			m[i] = true
		}
	}

	for _, p := range b.planets {
		ra, dec, err := b.provider.Position(p, s.Mjd)
		if err != nil {
			return nil, fmt.Errorf("position of %s at mjd %.5f: %w", p, s.Mjd, err)
		}
		for i := 0; i < n; i++ {
			if m[i] {
				continue
			}
			if astro.Separation(b.g.RA[i], b.g.Dec[i], ra, dec) <= b.cfg.PlanetSepLimit {
				m[i] = true
			}
		}
	}

	return m, nil
}

// Count returns the number of excluded locations.
func (m Mask) Count() int {
	var c int
	for _, v := range m {
		if v {
			c++
		}
	}
	return c
}
