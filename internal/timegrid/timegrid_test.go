package timegrid

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/andrewbheyer/sims-skybrightness-pre/internal/ephem"
)

// altFunc adapts a plain altitude function to ephem.Provider.
type altFunc func(mjd float64) float64

func (f altFunc) Position(b ephem.Body, mjd float64) (float64, float64, error) {
	return 0, 0, nil
}

func (f altFunc) Altitude(b ephem.Body, mjd float64) (float64, error) {
	return f(mjd), nil
}

type errProvider struct{ err error }

func (p errProvider) Position(b ephem.Body, mjd float64) (float64, float64, error) {
	return 0, 0, p.err
}

func (p errProvider) Altitude(b ephem.Body, mjd float64) (float64, error) {
	return 0, p.err
}

func TestBuildFiltersDaytime(t *testing.T) {
	// Synthetic sun: below the horizon on the second half of each day. The
	// threshold sits between grid points so accumulated rounding cannot
	// flip a candidate.
	sun := altFunc(func(mjd float64) float64 {
		frac := mjd - math.Floor(mjd)
		if frac >= 0.45 {
			return -0.5
		}
		return 0.5
	})

	cfg := Config{
		StartMJD:      60000.0,
		DurationYears: 2.0 / daysPerYear, // two days
		StepDays:      0.1,
		SunAltLimit:   -0.2,
	}
	g, err := Build(context.Background(), cfg, sun)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Candidates at .5, .6, .7, .8, .9 on each of two nights.
	if len(g.MJDs) != 10 {
		t.Fatalf("got %d candidates, want 10", len(g.MJDs))
	}
	for _, mjd := range g.MJDs {
		if frac := mjd - math.Floor(mjd); frac < 0.5-1e-9 {
			t.Errorf("daytime candidate at mjd %.4f", mjd)
		}
	}
	for i := 1; i < len(g.MJDs); i++ {
		if g.MJDs[i] <= g.MJDs[i-1] {
			t.Fatalf("candidates not increasing at index %d", i)
		}
	}

	if len(g.Windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(g.Windows))
	}
	for i, w := range g.Windows {
		if w.Count != 5 {
			t.Errorf("window %d count = %d, want 5", i, w.Count)
		}
		if w.EndMJD < w.StartMJD {
			t.Errorf("window %d inverted: [%.4f, %.4f]", i, w.StartMJD, w.EndMJD)
		}
	}
}

func TestBuildInclusiveEnd(t *testing.T) {
	sun := altFunc(func(mjd float64) float64 { return -1 })
	cfg := Config{
		StartMJD:      60000.0,
		DurationYears: 1.0 / daysPerYear, // exactly one day
		StepDays:      0.25,
		SunAltLimit:   0,
	}
	g, err := Build(context.Background(), cfg, sun)
	if err != nil {
		t.Fatal(err)
	}
	// 60000.0 .. 60001.0 inclusive at 0.25-day steps.
	if len(g.MJDs) != 5 {
		t.Fatalf("got %d candidates, want 5", len(g.MJDs))
	}
	if last := g.MJDs[len(g.MJDs)-1]; math.Abs(last-60001.0) > 1e-9 {
		t.Errorf("last candidate %.6f, want 60001.0", last)
	}
	if len(g.Windows) != 1 || g.Windows[0].Count != 5 {
		t.Errorf("windows = %+v, want one window of 5", g.Windows)
	}
}

// A run where the sun never sets below the limit is valid and empty.
func TestBuildEmptyResult(t *testing.T) {
	sun := altFunc(func(mjd float64) float64 { return 1 })
	cfg := Config{
		StartMJD:      60000.0,
		DurationYears: 1.0 / daysPerYear,
		StepDays:      0.25,
		SunAltLimit:   -0.2,
	}
	g, err := Build(context.Background(), cfg, sun)
	if err != nil {
		t.Fatalf("empty grid should not be an error: %v", err)
	}
	if len(g.MJDs) != 0 || len(g.Windows) != 0 {
		t.Errorf("got %d candidates, %d windows, want none", len(g.MJDs), len(g.Windows))
	}
}

func TestBuildInvalidStep(t *testing.T) {
	sun := altFunc(func(mjd float64) float64 { return -1 })
	for _, step := range []float64{0, -0.1} {
		if _, err := Build(context.Background(), Config{StepDays: step}, sun); err == nil {
			t.Errorf("step %g: expected error", step)
		}
	}
}

func TestBuildProviderError(t *testing.T) {
	wantErr := errors.New("no ephemeris")
	cfg := Config{StartMJD: 60000, DurationYears: 0.01, StepDays: 0.1}
	if _, err := Build(context.Background(), cfg, errProvider{wantErr}); !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want wrapped %v", err, wantErr)
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sun := altFunc(func(mjd float64) float64 { return -1 })
	cfg := Config{StartMJD: 60000, DurationYears: 0.01, StepDays: 0.1}
	if _, err := Build(ctx, cfg, sun); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
