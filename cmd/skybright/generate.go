package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/andrewbheyer/sims-skybrightness-pre/internal/compact"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/config"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/ephem"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/generate"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/grid"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/mask"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/sky"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/status"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/store"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/timegrid"
)

func newGenerateCmd() *cobra.Command {
	def := config.Default()
	var (
		configPath string
		force      bool
		flagCfg    = def
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run a pre-computation and write the artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Precedence: flags > env > config file > defaults.
			cfg := config.Default()
			logger := newLogger(flagCfg.LogLevel)

			if configPath != "" {
				if err := cfg.LoadFile(configPath); err != nil {
					return err
				}
			}
			cfg.ApplyEnv(logger)
			applyChangedFlags(cmd.Flags(), &cfg, &flagCfg)

			logger = newLogger(cfg.LogLevel)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runGenerate(cmd, cfg, force, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "YAML config file")
	flags.BoolVar(&force, "force", false, "overwrite an existing artifact")
	flags.Float64Var(&flagCfg.StartMJD, "start-mjd", def.StartMJD, "start time (modified Julian date)")
	flags.Float64Var(&flagCfg.DurationYears, "duration-years", def.DurationYears, "time range length in Julian years")
	flags.Float64Var(&flagCfg.FineStepMin, "fine-step", def.FineStepMin, "candidate timestamp spacing in minutes")
	flags.Float64Var(&flagCfg.MaxGapMin, "max-gap", def.MaxGapMin, "maximum retained timestamp gap in minutes")
	flags.StringVar(&flagCfg.OutputPath, "out", def.OutputPath, "artifact output path")
	flags.IntVar(&flagCfg.Nside, "nside", def.Nside, "healpix resolution")
	flags.StringVar(&flagCfg.FieldCatalog, "field-catalog", "", "field catalog file (overrides the healpix grid)")
	flags.Float64Var(&flagCfg.SunAltLimitDeg, "sun-alt-limit", def.SunAltLimitDeg, "sun altitude limit in degrees")
	flags.Float64Var(&flagCfg.AirmassOverhead, "airmass-overhead", def.AirmassOverhead, "airmass below which a location counts as overhead")
	flags.Float64Var(&flagCfg.MagTolerance, "dm", def.MagTolerance, "interpolation tolerance in magnitudes")
	flags.Float64Var(&flagCfg.AirmassLimit, "airmass-limit", def.AirmassLimit, "airmass masking ceiling")
	flags.Float64Var(&flagCfg.MoonSepLimitDeg, "moon-sep-limit", def.MoonSepLimitDeg, "minimum lunar separation in degrees")
	flags.Float64Var(&flagCfg.PlanetSepLimitDeg, "planet-sep-limit", def.PlanetSepLimitDeg, "minimum planet separation in degrees")
	flags.Float64Var(&flagCfg.SiteLatDeg, "site-lat", def.SiteLatDeg, "site latitude in degrees")
	flags.Float64Var(&flagCfg.SiteLonDeg, "site-lon", def.SiteLonDeg, "site east longitude in degrees")
	flags.Float64Var(&flagCfg.SiteHeightM, "site-height", def.SiteHeightM, "site height in meters")
	flags.IntVar(&flagCfg.Workers, "workers", def.Workers, "per-timestamp evaluation workers")
	flags.StringVar(&flagCfg.MetricsAddr, "metrics-addr", "", "serve /metrics and /progress on this address during the run")
	flags.StringVar(&flagCfg.LogLevel, "log-level", def.LogLevel, "log level (debug, info, warn, error)")

	return cmd
}

// applyChangedFlags overlays only the flags the user actually set, keeping
// env and file values for the rest.
func applyChangedFlags(flags *pflag.FlagSet, cfg, flagCfg *config.Config) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "start-mjd":
			cfg.StartMJD = flagCfg.StartMJD
		case "duration-years":
			cfg.DurationYears = flagCfg.DurationYears
		case "fine-step":
			cfg.FineStepMin = flagCfg.FineStepMin
		case "max-gap":
			cfg.MaxGapMin = flagCfg.MaxGapMin
		case "out":
			cfg.OutputPath = flagCfg.OutputPath
		case "nside":
			cfg.Nside = flagCfg.Nside
		case "field-catalog":
			cfg.FieldCatalog = flagCfg.FieldCatalog
		case "sun-alt-limit":
			cfg.SunAltLimitDeg = flagCfg.SunAltLimitDeg
		case "airmass-overhead":
			cfg.AirmassOverhead = flagCfg.AirmassOverhead
		case "dm":
			cfg.MagTolerance = flagCfg.MagTolerance
		case "airmass-limit":
			cfg.AirmassLimit = flagCfg.AirmassLimit
		case "moon-sep-limit":
			cfg.MoonSepLimitDeg = flagCfg.MoonSepLimitDeg
		case "planet-sep-limit":
			cfg.PlanetSepLimitDeg = flagCfg.PlanetSepLimitDeg
		case "site-lat":
			cfg.SiteLatDeg = flagCfg.SiteLatDeg
		case "site-lon":
			cfg.SiteLonDeg = flagCfg.SiteLonDeg
		case "site-height":
			cfg.SiteHeightM = flagCfg.SiteHeightM
		case "workers":
			cfg.Workers = flagCfg.Workers
		case "metrics-addr":
			cfg.MetricsAddr = flagCfg.MetricsAddr
		case "log-level":
			cfg.LogLevel = flagCfg.LogLevel
		}
	})
}

func runGenerate(cmd *cobra.Command, cfg config.Config, force bool, logger *slog.Logger) error {
	if _, err := os.Stat(cfg.OutputPath); err == nil {
		if !force {
			return fmt.Errorf("output %s already exists (use --force to overwrite)", cfg.OutputPath)
		}
		if err := os.Remove(cfg.OutputPath); err != nil {
			return fmt.Errorf("remove existing artifact: %w", err)
		}
	}

	site := ephem.NewSite(cfg.SiteLatDeg, cfg.SiteLonDeg, cfg.SiteHeightM)
	provider := ephem.NewMeeusProvider(site)

	var (
		g   *grid.Grid
		err error
	)
	if cfg.FieldCatalog != "" {
		g, err = grid.LoadCatalog(cfg.FieldCatalog, logger)
	} else {
		g, err = grid.NewHealpix(cfg.Nside)
	}
	if err != nil {
		return err
	}
	logger.Info("spatial grid ready", "kind", string(g.Kind), "locations", g.Size())

	model := sky.NewDarkSkyModel(provider, site, cfg.Workers, logger)
	masks := mask.NewBuilder(mask.Config{
		AirmassLimit:   cfg.AirmassLimit,
		MoonSepLimit:   cfg.MoonSepLimitRad(),
		PlanetSepLimit: cfg.PlanetSepLimitRad(),
	}, provider, g, nil)

	gen := generate.New(generate.Config{
		TimeGrid: timegrid.Config{
			StartMJD:      cfg.StartMJD,
			DurationYears: cfg.DurationYears,
			StepDays:      cfg.FineStepDays(),
			SunAltLimit:   cfg.SunAltLimitRad(),
		},
		Compact: compact.Config{
			MaxGapDays:      cfg.MaxGapDays(),
			AirmassOverhead: cfg.AirmassOverhead,
			Tolerance:       cfg.MagTolerance,
		},
	}, g, model, provider, masks, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go status.New(cfg.MetricsAddr, gen.Progress, logger).Start(ctx)
	}

	res, err := gen.Run(ctx)
	if err != nil {
		return err
	}

	meta := store.Meta{
		Grid: g,
		Params: map[string]string{
			"start_mjd":            formatFloat(cfg.StartMJD),
			"duration_years":       formatFloat(cfg.DurationYears),
			"fine_step_minutes":    formatFloat(cfg.FineStepMin),
			"max_gap_minutes":      formatFloat(cfg.MaxGapMin),
			"sun_alt_limit_deg":    formatFloat(cfg.SunAltLimitDeg),
			"airmass_overhead":     formatFloat(cfg.AirmassOverhead),
			"magnitude_tolerance":  formatFloat(cfg.MagTolerance),
			"airmass_limit":        formatFloat(cfg.AirmassLimit),
			"moon_sep_limit_deg":   formatFloat(cfg.MoonSepLimitDeg),
			"planet_sep_limit_deg": formatFloat(cfg.PlanetSepLimitDeg),
			"site_lat_deg":         formatFloat(cfg.SiteLatDeg),
			"site_lon_deg":         formatFloat(cfg.SiteLonDeg),
			"site_height_m":        formatFloat(cfg.SiteHeightM),
		},
	}
	if err := store.Write(cfg.OutputPath, meta, res.Retained); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}

	logger.Info("artifact written",
		"path", cfg.OutputPath,
		"retained", res.Stats.Retained,
		"dropped", res.Stats.Dropped,
		"skipped", res.Skipped,
		"night_windows", len(res.Windows),
	)
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
