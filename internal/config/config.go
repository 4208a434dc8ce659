// Package config holds run configuration. Sources, in precedence order:
// command-line flags, SKYBRIGHT_* environment variables, an optional YAML
// config file, and built-in defaults. Invalid environment values log a
// warning and keep the previous value; invalid file values are errors.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config covers every input of a generation run.
type Config struct {
	StartMJD      float64 `yaml:"start_mjd"`
	DurationYears float64 `yaml:"duration_years"`
	FineStepMin   float64 `yaml:"fine_step_minutes"`
	MaxGapMin     float64 `yaml:"max_gap_minutes"`

	OutputPath string `yaml:"output_path"`

	Nside        int    `yaml:"nside"`
	FieldCatalog string `yaml:"field_catalog"` // when set, overrides the healpix grid

	SunAltLimitDeg    float64 `yaml:"sun_alt_limit_deg"`
	AirmassOverhead   float64 `yaml:"airmass_overhead"`
	MagTolerance      float64 `yaml:"magnitude_tolerance"`
	AirmassLimit      float64 `yaml:"airmass_limit"`
	MoonSepLimitDeg   float64 `yaml:"moon_sep_limit_deg"`
	PlanetSepLimitDeg float64 `yaml:"planet_sep_limit_deg"`

	SiteLatDeg  float64 `yaml:"site_lat_deg"`
	SiteLonDeg  float64 `yaml:"site_lon_deg"`
	SiteHeightM float64 `yaml:"site_height_m"`

	Workers     int    `yaml:"workers"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Default returns the built-in defaults, matching the reference run: half a
// lunation starting late 2021, nside 32, Cerro Pachón.
func Default() Config {
	return Config{
		StartMJD:          59560.2,
		DurationYears:     0.05,
		FineStepMin:       5,
		MaxGapMin:         20,
		OutputPath:        "generated_sky.db",
		Nside:             32,
		SunAltLimitDeg:    -12,
		AirmassOverhead:   1.5,
		MagTolerance:      0.2,
		AirmassLimit:      2.5,
		MoonSepLimitDeg:   30,
		PlanetSepLimitDeg: 4,
		SiteLatDeg:        -30.2444,
		SiteLonDeg:        -70.7494,
		SiteHeightM:       2650,
		Workers:           runtime.NumCPU(),
		LogLevel:          "info",
	}
}

// LoadFile merges a YAML config file over c. Unknown keys are errors.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv merges SKYBRIGHT_* environment variables over c. Invalid values
// keep the existing setting and log a warning.
func (c *Config) ApplyEnv(logger *slog.Logger) {
	envFloat(logger, "SKYBRIGHT_START_MJD", &c.StartMJD)
	envFloat(logger, "SKYBRIGHT_DURATION_YEARS", &c.DurationYears)
	envFloat(logger, "SKYBRIGHT_FINE_STEP_MINUTES", &c.FineStepMin)
	envFloat(logger, "SKYBRIGHT_MAX_GAP_MINUTES", &c.MaxGapMin)
	envString("SKYBRIGHT_OUTPUT_PATH", &c.OutputPath)
	envInt(logger, "SKYBRIGHT_NSIDE", &c.Nside)
	envString("SKYBRIGHT_FIELD_CATALOG", &c.FieldCatalog)
	envFloat(logger, "SKYBRIGHT_SUN_ALT_LIMIT_DEG", &c.SunAltLimitDeg)
	envFloat(logger, "SKYBRIGHT_AIRMASS_OVERHEAD", &c.AirmassOverhead)
	envFloat(logger, "SKYBRIGHT_MAG_TOLERANCE", &c.MagTolerance)
	envFloat(logger, "SKYBRIGHT_AIRMASS_LIMIT", &c.AirmassLimit)
	envFloat(logger, "SKYBRIGHT_MOON_SEP_LIMIT_DEG", &c.MoonSepLimitDeg)
	envFloat(logger, "SKYBRIGHT_PLANET_SEP_LIMIT_DEG", &c.PlanetSepLimitDeg)
	envFloat(logger, "SKYBRIGHT_SITE_LAT_DEG", &c.SiteLatDeg)
	envFloat(logger, "SKYBRIGHT_SITE_LON_DEG", &c.SiteLonDeg)
	envFloat(logger, "SKYBRIGHT_SITE_HEIGHT_M", &c.SiteHeightM)
	envInt(logger, "SKYBRIGHT_WORKERS", &c.Workers)
	envString("SKYBRIGHT_METRICS_ADDR", &c.MetricsAddr)
	envString("SKYBRIGHT_LOG_LEVEL", &c.LogLevel)
}

// Validate rejects configurations the run loop cannot honor.
func (c Config) Validate() error {
	if c.FineStepMin <= 0 {
		return fmt.Errorf("fine step must be positive, got %g minutes", c.FineStepMin)
	}
	if c.MaxGapMin < c.FineStepMin {
		return fmt.Errorf("max gap (%g min) must not be smaller than the fine step (%g min)", c.MaxGapMin, c.FineStepMin)
	}
	if c.DurationYears < 0 {
		return fmt.Errorf("duration must be non-negative, got %g years", c.DurationYears)
	}
	if c.AirmassLimit < 1 {
		return fmt.Errorf("airmass limit must be at least 1, got %g", c.AirmassLimit)
	}
	if c.AirmassOverhead < 1 {
		return fmt.Errorf("airmass overhead must be at least 1, got %g", c.AirmassOverhead)
	}
	if c.MagTolerance <= 0 {
		return fmt.Errorf("magnitude tolerance must be positive, got %g", c.MagTolerance)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path must not be empty")
	}
	if c.FieldCatalog == "" && c.Nside < 1 {
		return fmt.Errorf("nside must be positive when no field catalog is given, got %d", c.Nside)
	}
	return nil
}

// Derived units. The run loop works in days and radians throughout.

// FineStepDays returns the candidate grid step in days.
func (c Config) FineStepDays() float64 { return c.FineStepMin / 60 / 24 }

// MaxGapDays returns the retained gap ceiling in days.
func (c Config) MaxGapDays() float64 { return c.MaxGapMin / 60 / 24 }

// SunAltLimitRad returns the sun altitude limit in radians.
func (c Config) SunAltLimitRad() float64 { return c.SunAltLimitDeg * math.Pi / 180 }

// MoonSepLimitRad returns the lunar separation limit in radians.
func (c Config) MoonSepLimitRad() float64 { return c.MoonSepLimitDeg * math.Pi / 180 }

// PlanetSepLimitRad returns the planet separation limit in radians.
func (c Config) PlanetSepLimitRad() float64 { return c.PlanetSepLimitDeg * math.Pi / 180 }

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envFloat(logger *slog.Logger, key string, dst *float64) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn("invalid value, keeping current", "var", key, "value", v)
		return
	}
	*dst = f
}

func envInt(logger *slog.Logger, key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("invalid value, keeping current", "var", key, "value", v)
		return
	}
	*dst = n
}
