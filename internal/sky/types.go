// Package sky evaluates sky brightness over a spatial grid at a single
// instant, producing immutable Samples consumed by the masking and
// compaction stages.
package sky

import (
	"context"

	"github.com/andrewbheyer/sims-skybrightness-pre/internal/grid"
)

// Bands lists the photometric bands, in the fixed order used everywhere.
var Bands = []string{"u", "g", "r", "i", "z", "y"}

// Sample holds the evaluation result for one timestamp. Immutable once
// created; slices are aligned to the grid's location index.
type Sample struct {
	Mjd    float64
	SunAlt float64 // radians

	Airmass []float64
	MoonSep []float64 // radians

	// Mags holds one magnitude slice per band. NaN marks locations where
	// the model has no defined brightness (e.g. below the horizon).
	Mags map[string][]float64
}

// BrightnessModel evaluates sky brightness over the full grid at one MJD.
// Implementations must be safe for sequential reuse across many timestamps.
type BrightnessModel interface {
	Evaluate(ctx context.Context, g *grid.Grid, mjd float64) (*Sample, error)
}
