package compact

import (
	"math"
	"testing"

	"github.com/andrewbheyer/sims-skybrightness-pre/internal/mask"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/sky"
)

const minute = 1.0 / 60.0 / 24.0

// testConfig matches the reference run: 20 minute gap ceiling, overhead
// airmass 1.5, 0.2 mag tolerance.
func testConfig() Config {
	return Config{
		MaxGapDays:      20 * minute,
		AirmassOverhead: 1.5,
		Tolerance:       0.2,
	}
}

// flatSample builds a sample with uniform airmass and per-band magnitudes
// mag, mag+1, ... so bands stay distinguishable.
func flatSample(mjd float64, n int, airmass, mag float64) *sky.Sample {
	s := &sky.Sample{
		Mjd:     mjd,
		SunAlt:  -0.5,
		Airmass: make([]float64, n),
		MoonSep: make([]float64, n),
		Mags:    make(map[string][]float64, len(sky.Bands)),
	}
	for i := range s.Airmass {
		s.Airmass[i] = airmass
		s.MoonSep[i] = math.Pi / 2
	}
	for bi, band := range sky.Bands {
		mags := make([]float64, n)
		for i := range mags {
			mags[i] = mag + float64(bi)
		}
		s.Mags[band] = mags
	}
	return s
}

func clearMask(n int) mask.Mask {
	return make(mask.Mask, n)
}

func fullMask(n int) mask.Mask {
	m := make(mask.Mask, n)
	for i := range m {
		m[i] = true
	}
	return m
}

// TestDropInterpolatable verifies the central behavior: a middle sample that
// is the exact linear interpolation of its neighbors is removed.
func TestDropInterpolatable(t *testing.T) {
	c := New(testConfig())
	t0 := 59560.0

	// Three samples 5 minutes apart; brightness drifts linearly.
	c.Push(flatSample(t0, 4, 1.2, 21.0), clearMask(4))
	c.Push(flatSample(t0+5*minute, 4, 1.2, 21.1), clearMask(4))
	c.Push(flatSample(t0+10*minute, 4, 1.2, 21.2), clearMask(4))

	got := c.Retained()
	if len(got) != 2 {
		t.Fatalf("retained %d samples, want 2", len(got))
	}
	if got[0].Sample.Mjd != t0 || got[1].Sample.Mjd != t0+10*minute {
		t.Errorf("retained wrong bracket: %.5f, %.5f", got[0].Sample.Mjd, got[1].Sample.Mjd)
	}
	if st := c.Stats(); st.Dropped != 1 || st.Evaluated != 3 {
		t.Errorf("stats = %+v, want 1 dropped of 3", st)
	}
}

// TestKeepOverTolerance verifies that a deviation just past dm retains the
// middle sample.
func TestKeepOverTolerance(t *testing.T) {
	c := New(testConfig())
	t0 := 59560.0

	mid := flatSample(t0+5*minute, 4, 1.2, 21.1)
	mid.Mags["r"][2] += 0.2 + 0.01 // one location, one band, just over dm

	c.Push(flatSample(t0, 4, 1.2, 21.0), clearMask(4))
	c.Push(mid, clearMask(4))
	c.Push(flatSample(t0+10*minute, 4, 1.2, 21.2), clearMask(4))

	if got := c.Retained(); len(got) != 3 {
		t.Fatalf("retained %d samples, want 3", len(got))
	}
}

// TestWithinTolerance verifies that a deviation inside dm still drops.
func TestWithinTolerance(t *testing.T) {
	c := New(testConfig())
	t0 := 59560.0

	mid := flatSample(t0+5*minute, 4, 1.2, 21.1)
	mid.Mags["r"][2] += 0.19

	c.Push(flatSample(t0, 4, 1.2, 21.0), clearMask(4))
	c.Push(mid, clearMask(4))
	c.Push(flatSample(t0+10*minute, 4, 1.2, 21.2), clearMask(4))

	if got := c.Retained(); len(got) != 2 {
		t.Fatalf("retained %d samples, want 2", len(got))
	}
}

// TestGapForcedRetention verifies the hard gap gate: neighbors further apart
// than max_gap keep the middle sample even when interpolation would pass.
func TestGapForcedRetention(t *testing.T) {
	c := New(testConfig())
	t0 := 59560.0

	c.Push(flatSample(t0, 4, 1.2, 21.0), clearMask(4))
	c.Push(flatSample(t0+10.5*minute, 4, 1.2, 21.1), clearMask(4))
	c.Push(flatSample(t0+21*minute, 4, 1.2, 21.2), clearMask(4))

	if got := c.Retained(); len(got) != 3 {
		t.Fatalf("retained %d samples, want 3 (gap %.1f min >= 20)", len(got), 21.0)
	}
}

// TestEmptyOverheadKeeps verifies the overhead precondition: when no
// location is reliable at both neighbors, the middle sample is kept.
func TestEmptyOverheadKeeps(t *testing.T) {
	tests := []struct {
		name    string
		airmass float64
		maskFn  func(int) mask.Mask
	}{
		{"all masked", 1.2, fullMask},
		{"all high airmass", 2.0, clearMask},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(testConfig())
			t0 := 59560.0
			c.Push(flatSample(t0, 4, tt.airmass, 21.0), tt.maskFn(4))
			c.Push(flatSample(t0+5*minute, 4, tt.airmass, 21.1), tt.maskFn(4))
			c.Push(flatSample(t0+10*minute, 4, tt.airmass, 21.2), tt.maskFn(4))

			if got := c.Retained(); len(got) != 3 {
				t.Fatalf("retained %d samples, want 3", len(got))
			}
		})
	}
}

// TestNaNDoesNotBlockDrop verifies that undefined magnitudes are excluded
// from the comparison instead of failing it.
func TestNaNDoesNotBlockDrop(t *testing.T) {
	c := New(testConfig())
	t0 := 59560.0

	mid := flatSample(t0+5*minute, 4, 1.2, 21.1)
	mid.Mags["u"][1] = math.NaN()

	c.Push(flatSample(t0, 4, 1.2, 21.0), clearMask(4))
	c.Push(mid, clearMask(4))
	c.Push(flatSample(t0+10*minute, 4, 1.2, 21.2), clearMask(4))

	if got := c.Retained(); len(got) != 2 {
		t.Fatalf("retained %d samples, want 2", len(got))
	}
}

// TestHistoryGuardsDroppedSamples verifies that an already-dropped sample
// still vetoes a later drop that would leave it unrecoverable.
func TestHistoryGuardsDroppedSamples(t *testing.T) {
	c := New(testConfig())
	t0 := 59560.0

	// t1 sits 0.15 mag off the (t0, t2) line and gets dropped (inside dm).
	// t3 then flattens the curve: t2 itself interpolates fine from (t0, t3)
	// with error 0.17, but reconstructing t1 (still in history) from that
	// bracket is off by 0.23 > dm, so t2 must stay.
	c.Push(flatSample(t0, 2, 1.2, 21.0), clearMask(2))
	c.Push(flatSample(t0+5*minute, 2, 1.2, 21.25), clearMask(2))
	c.Push(flatSample(t0+10*minute, 2, 1.2, 21.2), clearMask(2))
	if len(c.Retained()) != 2 {
		t.Fatalf("setup: expected t1 dropped, retained %d", len(c.Retained()))
	}

	c.Push(flatSample(t0+15*minute, 2, 1.2, 21.05), clearMask(2))

	got := c.Retained()
	if len(got) != 3 {
		t.Fatalf("retained %d samples, want 3 (t2 protected by dropped t1)", len(got))
	}
	wantMjds := []float64{t0, t0 + 10*minute, t0 + 15*minute}
	for i, r := range got {
		if math.Abs(r.Sample.Mjd-wantMjds[i]) > 1e-9 {
			t.Errorf("retained[%d].Mjd = %.6f, want %.6f", i, r.Sample.Mjd, wantMjds[i])
		}
	}
}

// TestMonotoneSubsequence verifies retained timestamps are strictly
// increasing and a subsequence of the pushed stream.
func TestMonotoneSubsequence(t *testing.T) {
	c := New(testConfig())
	t0 := 59560.0

	var pushed []float64
	mags := []float64{21.0, 21.3, 21.1, 21.1, 21.7, 20.9, 21.0, 21.4}
	for i, m := range mags {
		mjd := t0 + float64(i)*5*minute
		pushed = append(pushed, mjd)
		c.Push(flatSample(mjd, 3, 1.2, m), clearMask(3))
	}

	got := c.Retained()
	prev := math.Inf(-1)
	j := 0
	for _, r := range got {
		if r.Sample.Mjd <= prev {
			t.Fatalf("retained timestamps not strictly increasing at %.6f", r.Sample.Mjd)
		}
		prev = r.Sample.Mjd
		for j < len(pushed) && pushed[j] != r.Sample.Mjd {
			j++
		}
		if j == len(pushed) {
			t.Fatalf("retained mjd %.6f is not in the pushed stream", r.Sample.Mjd)
		}
	}
}

// TestDeterminism verifies two runs over the identical stream agree.
func TestDeterminism(t *testing.T) {
	run := func() []float64 {
		c := New(testConfig())
		t0 := 59560.0
		mags := []float64{21.0, 21.05, 21.1, 21.4, 21.2, 21.25, 21.3}
		for i, m := range mags {
			c.Push(flatSample(t0+float64(i)*5*minute, 3, 1.2, m), clearMask(3))
		}
		var mjds []float64
		for _, r := range c.Retained() {
			mjds = append(mjds, r.Sample.Mjd)
		}
		return mjds
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("runs disagree: %d vs %d retained", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("retained[%d]: %.6f vs %.6f", i, a[i], b[i])
		}
	}
}

// TestErrorBound verifies the interpolation guarantee for dropped samples:
// reconstructing any dropped sample from its retained bracket stays within
// the tolerance at every overhead location and band.
func TestErrorBound(t *testing.T) {
	cfg := testConfig()
	c := New(cfg)
	t0 := 59560.0

	// A gently curving brightness track; some middles drop, some don't.
	var all []*sky.Sample
	for i := 0; i < 10; i++ {
		mjd := t0 + float64(i)*5*minute
		mag := 21.0 + 0.01*float64(i)*float64(i)/10
		s := flatSample(mjd, 3, 1.2, mag)
		all = append(all, s)
		c.Push(s, clearMask(3))
	}

	retained := c.Retained()
	isRetained := make(map[float64]bool, len(retained))
	for _, r := range retained {
		isRetained[r.Sample.Mjd] = true
	}

	for _, s := range all {
		if isRetained[s.Mjd] {
			continue
		}
		// Find the retained bracket.
		var left, right *sky.Sample
		for _, r := range retained {
			if r.Sample.Mjd < s.Mjd {
				left = r.Sample
			} else if right == nil {
				right = r.Sample
			}
		}
		if left == nil || right == nil {
			t.Fatalf("dropped sample %.6f has no retained bracket", s.Mjd)
		}
		w := (s.Mjd - left.Mjd) / (right.Mjd - left.Mjd)
		for _, band := range sky.Bands {
			for i := range s.Mags[band] {
				interp := (1-w)*left.Mags[band][i] + w*right.Mags[band][i]
				if diff := math.Abs(interp - s.Mags[band][i]); diff > cfg.Tolerance+1e-9 {
					t.Errorf("dropped %.6f band %s loc %d: error %.4f > %.4f",
						s.Mjd, band, i, diff, cfg.Tolerance)
				}
			}
		}
	}
}
