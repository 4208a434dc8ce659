// Package compact implements the adaptive temporal compaction of evaluated
// sky samples.
//
// The compactor consumes (sample, mask) pairs in strict timestamp order and
// maintains the retained subsequence plus a short history of raw samples. On
// each push it reconsiders the second-to-last retained sample: if every raw
// sample between its retained neighbors can be reconstructed from those
// neighbors by linear interpolation to within the magnitude tolerance, the
// middle sample is redundant and removed. Two hard gates override the
// tolerance check: the retained gap must never reach the configured maximum,
// and at least one location must be reliably observable ("overhead") at both
// bracketing neighbors.
package compact

import (
	"math"

	"github.com/andrewbheyer/sims-skybrightness-pre/internal/mask"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/metrics"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/sky"
)

// Config holds compaction parameters. Times in days, angles-free.
type Config struct {
	MaxGapDays      float64 // retained gap ceiling
	AirmassOverhead float64 // airmass below which a location counts as overhead
	Tolerance       float64 // max allowed interpolation error, magnitudes
	HistorySize     int     // raw samples kept for the error check (default 5)
}

// DefaultHistorySize bounds the raw-sample history when Config leaves it zero.
const DefaultHistorySize = 5

// Retained pairs a sample with its validity mask. Keeping them in one record
// means a drop can never desynchronize the per-band buffers from the mask
// and timestamp sequence.
type Retained struct {
	Sample *sky.Sample
	Mask   mask.Mask
}

// Stats reports compactor counters.
type Stats struct {
	Evaluated int // samples pushed
	Retained  int // currently retained
	Dropped   int // removed as redundant
}

// Compactor holds the retained sequence and raw history for one run. Owned
// by a single goroutine; decisions depend on push order.
type Compactor struct {
	cfg Config

	retained []Retained
	history  []*sky.Sample // raw pushes, oldest first, bounded

	evaluated int
	dropped   int
}

// New creates a compactor.
func New(cfg Config) *Compactor {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	return &Compactor{cfg: cfg}
}

// Push appends a sample in timestamp order and reconsiders the previous
// sample for removal. Samples must arrive with strictly increasing MJD.
func (c *Compactor) Push(s *sky.Sample, m mask.Mask) {
	c.evaluated++

	c.history = append(c.history, s)
	if len(c.history) > c.cfg.HistorySize {
		c.history = c.history[1:]
	}

	c.retained = append(c.retained, Retained{Sample: s, Mask: m})
	if len(c.retained) < 3 {
		return
	}

	n := len(c.retained)
	left := c.retained[n-3]
	right := c.retained[n-1]

	if !c.canDropMiddle(left, right) {
		return
	}

	// The middle sample is redundant. It stays in the raw history so future
	// neighbor pairs are still validated against it until it ages out.
	copy(c.retained[n-2:], c.retained[n-1:])
	c.retained = c.retained[:n-1]
	c.dropped++
	metrics.IncSamplesDropped()
}

// canDropMiddle decides whether the sample between left and right is
// recoverable by interpolation.
func (c *Compactor) canDropMiddle(left, right Retained) bool {
	if right.Sample.Mjd-left.Sample.Mjd >= c.cfg.MaxGapDays {
		return false
	}

	overhead := c.overheadSet(left, right)
	if len(overhead) == 0 {
		return false
	}

	span := right.Sample.Mjd - left.Sample.Mjd
	for _, h := range c.history {
		if h.Mjd <= left.Sample.Mjd || h.Mjd >= right.Sample.Mjd {
			continue
		}
		w := (h.Mjd - left.Sample.Mjd) / span
		if !c.withinTolerance(left.Sample, right.Sample, h, w, overhead) {
			return false
		}
	}
	return true
}

// overheadSet returns the locations that are reliably observable at both
// bracketing samples: airmass at or below the overhead threshold and not
// masked at either end. NaN airmass fails the comparison and is excluded.
func (c *Compactor) overheadSet(left, right Retained) []int {
	var idx []int
	for i := range left.Sample.Airmass {
		if left.Sample.Airmass[i] <= c.cfg.AirmassOverhead &&
			right.Sample.Airmass[i] <= c.cfg.AirmassOverhead &&
			!left.Mask[i] && !right.Mask[i] {
			idx = append(idx, i)
		}
	}
	return idx
}

// withinTolerance checks one raw history sample against the linear
// interpolation of left and right at weight w, over the overhead locations.
// NaN values on either side are excluded from the comparison rather than
// treated as failures.
func (c *Compactor) withinTolerance(left, right, h *sky.Sample, w float64, overhead []int) bool {
	for _, band := range sky.Bands {
		lm := left.Mags[band]
		rm := right.Mags[band]
		hm := h.Mags[band]
		for _, i := range overhead {
			interp := (1-w)*lm[i] + w*rm[i]
			diff := math.Abs(hm[i] - interp)
			if math.IsNaN(diff) {
				continue
			}
			if diff > c.cfg.Tolerance {
				return false
			}
		}
	}
	return true
}

// Retained returns the retained sequence in timestamp order. The returned
// slice is owned by the compactor; callers must not mutate it.
func (c *Compactor) Retained() []Retained {
	return c.retained
}

// Stats returns the current counters.
func (c *Compactor) Stats() Stats {
	return Stats{
		Evaluated: c.evaluated,
		Retained:  len(c.retained),
		Dropped:   c.dropped,
	}
}
