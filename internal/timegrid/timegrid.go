// Package timegrid enumerates the candidate evaluation timestamps for a run:
// a fine regular MJD grid over the requested interval, filtered to the
// timestamps where the sun sits at or below the altitude limit.
package timegrid

import (
	"context"
	"fmt"

	"github.com/andrewbheyer/sims-skybrightness-pre/internal/ephem"
)

// daysPerYear is the Julian year length used to span the requested duration.
const daysPerYear = 365.25

// Config holds the grid parameters. Times in MJD/days, angles in radians.
type Config struct {
	StartMJD      float64
	DurationYears float64
	StepDays      float64
	SunAltLimit   float64
}

// Window is a contiguous run of sun-down candidate timestamps.
type Window struct {
	StartMJD float64
	EndMJD   float64
	Count    int
}

// Grid is the filtered candidate timestamp sequence plus the sun-down
// windows it spans, used for progress reporting.
type Grid struct {
	MJDs    []float64
	Windows []Window
}

// Build enumerates candidates at the fine step over
// [start, start+duration*365.25] inclusive and keeps those with
// altitude(sun) <= limit. An empty result is not an error; it yields an
// empty but valid artifact downstream.
func Build(ctx context.Context, cfg Config, provider ephem.Provider) (*Grid, error) {
	if cfg.StepDays <= 0 {
		return nil, fmt.Errorf("timegrid: step must be positive, got %g", cfg.StepDays)
	}

	end := cfg.StartMJD + cfg.DurationYears*daysPerYear
	g := &Grid{}
	var open *Window

	for mjd := cfg.StartMJD; mjd <= end+cfg.StepDays/2; mjd += cfg.StepDays {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		alt, err := provider.Altitude(ephem.Sun, mjd)
		if err != nil {
			return nil, fmt.Errorf("sun altitude at mjd %.5f: %w", mjd, err)
		}

		if alt > cfg.SunAltLimit {
			if open != nil {
				g.Windows = append(g.Windows, *open)
				open = nil
			}
			continue
		}

		g.MJDs = append(g.MJDs, mjd)
		if open == nil {
			open = &Window{StartMJD: mjd}
		}
		open.EndMJD = mjd
		open.Count++
	}
	if open != nil {
		g.Windows = append(g.Windows, *open)
	}

	return g, nil
}
