// Package generate runs the sequential pre-computation loop: enumerate
// candidate timestamps, evaluate each through the brightness model, build
// its validity mask, and feed the compactor. Ordering is strict — the
// compactor's state depends on seeing samples in timestamp order, so
// timestamps are never processed concurrently.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/andrewbheyer/sims-skybrightness-pre/internal/compact"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/ephem"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/grid"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/mask"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/metrics"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/sky"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/timegrid"
)

// Config holds everything the run loop needs beyond its collaborators.
type Config struct {
	TimeGrid timegrid.Config
	Compact  compact.Config
}

// Progress is a point-in-time snapshot of a running generation.
type Progress struct {
	Percent    float64 `json:"percent"`
	CurrentMJD float64 `json:"current_mjd"`
	Evaluated  int     `json:"evaluated"`
	Retained   int     `json:"retained"`
	Dropped    int     `json:"dropped"`
	Skipped    int     `json:"skipped"`
}

// Result holds the output of a completed run.
type Result struct {
	Retained []compact.Retained
	Windows  []timegrid.Window
	Stats    compact.Stats
	Skipped  int
}

// Generator owns one run's state. Safe for concurrent Progress reads while
// Run executes; everything else is single-goroutine.
type Generator struct {
	cfg      Config
	grid     *grid.Grid
	model    sky.BrightnessModel
	provider ephem.Provider
	masks    *mask.Builder
	logger   *slog.Logger

	mu   sync.Mutex
	prog Progress
}

// New creates a generator.
func New(cfg Config, g *grid.Grid, model sky.BrightnessModel, provider ephem.Provider, masks *mask.Builder, logger *slog.Logger) *Generator {
	return &Generator{
		cfg:      cfg,
		grid:     g,
		model:    model,
		provider: provider,
		masks:    masks,
		logger:   logger,
	}
}

// Progress returns the latest progress snapshot.
func (gen *Generator) Progress() Progress {
	gen.mu.Lock()
	defer gen.mu.Unlock()
	return gen.prog
}

// Run executes the full pre-computation. Model and ephemeris errors abort
// the run; there is no partial-artifact recovery.
func (gen *Generator) Run(ctx context.Context) (*Result, error) {
	metrics.SetGridSize(gen.grid.Size())

	tg, err := timegrid.Build(ctx, gen.cfg.TimeGrid, gen.provider)
	if err != nil {
		return nil, fmt.Errorf("build time grid: %w", err)
	}

	gen.logger.Info("time grid built",
		"candidates", len(tg.MJDs),
		"night_windows", len(tg.Windows),
		"grid_locations", gen.grid.Size(),
	)

	comp := compact.New(gen.cfg.Compact)
	var skipped int

	start := time.Now()
	lastLogged := -1

	for i, mjd := range tg.MJDs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		evalStart := time.Now()
		s, err := gen.model.Evaluate(ctx, gen.grid, mjd)
		if err != nil {
			return nil, fmt.Errorf("evaluate mjd %.5f: %w", mjd, err)
		}
		metrics.IncSamplesEvaluated()
		metrics.ObserveEvalDuration(time.Since(evalStart))

		// The coarse grid filter and the model can disagree right at the
		// twilight boundary; trust the model and skip the sample entirely.
		if s.SunAlt > gen.cfg.TimeGrid.SunAltLimit {
			skipped++
			metrics.IncSamplesSkipped()
			gen.logger.Debug("sun above limit at evaluation, skipping", "mjd", mjd, "sun_alt", s.SunAlt)
			continue
		}

		m, err := gen.masks.Build(s)
		if err != nil {
			return nil, fmt.Errorf("mask mjd %.5f: %w", mjd, err)
		}
		metrics.AddMaskedLocations(m.Count())

		comp.Push(s, m)

		pct := float64(i+1) / float64(len(tg.MJDs)) * 100
		gen.publish(pct, mjd, comp.Stats(), skipped)

		// Log roughly every 5%.
		if bucket := int(pct / 5); bucket > lastLogged {
			lastLogged = bucket
			st := comp.Stats()
			gen.logger.Info("generation progress",
				"percent", fmt.Sprintf("%.1f", pct),
				"mjd", mjd,
				"evaluated", st.Evaluated,
				"retained", st.Retained,
				"dropped", st.Dropped,
			)
		}
	}

	st := comp.Stats()
	metrics.AddSamplesRetained(st.Retained)
	gen.logger.Info("generation complete",
		"evaluated", st.Evaluated,
		"retained", st.Retained,
		"dropped", st.Dropped,
		"skipped", skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Result{
		Retained: comp.Retained(),
		Windows:  tg.Windows,
		Stats:    st,
		Skipped:  skipped,
	}, nil
}

// publish updates the shared progress snapshot and the progress gauge.
func (gen *Generator) publish(pct, mjd float64, st compact.Stats, skipped int) {
	metrics.SetProgress(pct)

	gen.mu.Lock()
	gen.prog = Progress{
		Percent:    pct,
		CurrentMJD: mjd,
		Evaluated:  st.Evaluated,
		Retained:   st.Retained,
		Dropped:    st.Dropped,
		Skipped:    skipped,
	}
	gen.mu.Unlock()
}
