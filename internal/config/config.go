// Package config loads run settings from the environment, with a
// best-effort .env bootstrap and struct validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/lake-balance/internal/domain"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	// Input files, resolved relative to DataDir.
	DataDir        string `validate:"required"`
	PrecipFile     string `validate:"required"`
	LevelFile      string `validate:"required"`
	WeberFile      string `validate:"required"`
	JordanFile     string `validate:"required"`
	BearFile       string `validate:"required"`
	PrecipSkipRows int    `validate:"gte=0"`

	// Water-balance parameters. The reference period carries the
	// zero-storage-change assumption; both areas are square miles.
	ReferenceStart    time.Time `validate:"required"`
	ReferenceEnd      time.Time `validate:"required"`
	ReferenceAreaSqMi float64   `validate:"gt=0"`
	CurrentStart      time.Time `validate:"required"`
	CurrentEnd        time.Time `validate:"required"`
	CurrentAreaSqMi   float64   `validate:"gt=0"`

	FigureTitle string `validate:"required"`
	LogLevel    string `validate:"oneof=debug info warn error"`
	LogFormat   string `validate:"oneof=json text"`

	// Optional run artifacts; empty disables each.
	ChartDir    string
	MetricsFile string
	HistoryDB   string
}

var validate = validator.New()

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is folded in first if
// present.
func Load() (*Config, error) {
	// Ignore a missing .env; explicit environment always wins.
	_ = godotenv.Load()

	skipRows, err := envInt("PRECIP_SKIP_ROWS", 4)
	if err != nil {
		return nil, err
	}

	referenceStart, err := envDate("REFERENCE_PERIOD_START", "1963-01-01")
	if err != nil {
		return nil, err
	}
	referenceEnd, err := envDate("REFERENCE_PERIOD_END", "1982-12-31")
	if err != nil {
		return nil, err
	}
	currentStart, err := envDate("CURRENT_PERIOD_START", "2003-01-01")
	if err != nil {
		return nil, err
	}
	currentEnd, err := envDate("CURRENT_PERIOD_END", "2022-12-31")
	if err != nil {
		return nil, err
	}

	referenceArea, err := envFloat("REFERENCE_AREA_SQMI", 3300)
	if err != nil {
		return nil, err
	}
	currentArea, err := envFloat("CURRENT_AREA_SQMI", 2300)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:        envOrDefault("DATA_DIR", "data"),
		PrecipFile:     envOrDefault("PRECIP_FILE", "GSL-precip.csv"),
		LevelFile:      envOrDefault("LEVEL_FILE", "GSL-waterlevel.csv"),
		WeberFile:      envOrDefault("WEBER_FILE", "WeberRiver-Q.csv"),
		JordanFile:     envOrDefault("JORDAN_FILE", "JordanRiver-Q.csv"),
		BearFile:       envOrDefault("BEAR_FILE", "BearRiver-Q.csv"),
		PrecipSkipRows: skipRows,

		ReferenceStart:    referenceStart,
		ReferenceEnd:      referenceEnd,
		ReferenceAreaSqMi: referenceArea,
		CurrentStart:      currentStart,
		CurrentEnd:        currentEnd,
		CurrentAreaSqMi:   currentArea,

		FigureTitle: envOrDefault("FIGURE_TITLE", "Great Salt Lake, Utah"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		LogFormat:   envOrDefault("LOG_FORMAT", "json"),

		ChartDir:    os.Getenv("CHART_DIR"),
		MetricsFile: os.Getenv("METRICS_FILE"),
		HistoryDB:   os.Getenv("HISTORY_DB"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.ReferenceEnd.Before(cfg.ReferenceStart) {
		return nil, fmt.Errorf("REFERENCE_PERIOD_END %s precedes REFERENCE_PERIOD_START %s",
			cfg.ReferenceEnd.Format("2006-01-02"), cfg.ReferenceStart.Format("2006-01-02"))
	}
	if cfg.CurrentEnd.Before(cfg.CurrentStart) {
		return nil, fmt.Errorf("CURRENT_PERIOD_END %s precedes CURRENT_PERIOD_START %s",
			cfg.CurrentEnd.Format("2006-01-02"), cfg.CurrentStart.Format("2006-01-02"))
	}

	return cfg, nil
}

// Basin returns the water-balance parameters as the domain type.
func (c *Config) Basin() domain.Basin {
	return domain.Basin{
		Reference:     domain.Period{Start: c.ReferenceStart, End: c.ReferenceEnd},
		ReferenceArea: c.ReferenceAreaSqMi,
		Current:       domain.Period{Start: c.CurrentStart, End: c.CurrentEnd},
		CurrentArea:   c.CurrentAreaSqMi,
	}
}

// PrecipPath and friends resolve each input file under DataDir.
func (c *Config) PrecipPath() string { return filepath.Join(c.DataDir, c.PrecipFile) }
func (c *Config) LevelPath() string  { return filepath.Join(c.DataDir, c.LevelFile) }
func (c *Config) WeberPath() string  { return filepath.Join(c.DataDir, c.WeberFile) }
func (c *Config) JordanPath() string { return filepath.Join(c.DataDir, c.JordanFile) }
func (c *Config) BearPath() string   { return filepath.Join(c.DataDir, c.BearFile) }

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return f, nil
}

func envDate(key, def string) (time.Time, error) {
	v := os.Getenv(key)
	if v == "" {
		v = def
	}
	d, err := time.ParseInLocation("2006-01-02", v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %q (want YYYY-MM-DD)", key, v)
	}
	return d, nil
}
