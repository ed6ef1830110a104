// Package pipeline orchestrates one analysis run: read the input series,
// align them on date, fit descriptive trends, and evaluate the two-epoch
// water balance. The heavy lifting lives in domain and source; this
// package wires them together with logging and metrics.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/lake-balance/internal/config"
	"github.com/couchcryptid/lake-balance/internal/domain"
	"github.com/couchcryptid/lake-balance/internal/observability"
	"github.com/couchcryptid/lake-balance/internal/source"
)

// Format identifies which reader parses an input file.
type Format int

const (
	FormatMonthly Format = iota // NOAA Climate at a Glance annual CSV
	FormatGauge                 // USGS annual-statistics RDB
)

// Role identifies what a series contributes to the water balance.
type Role int

const (
	RolePrecipitation Role = iota
	RoleLevel
	RoleDischarge
)

// Source describes one input file: where it is, how to parse it, and the
// semantic column name its values carry through the aligned table.
type Source struct {
	Path     string
	Column   string
	Format   Format
	SkipRows int // metadata rows before the header; monthly format only
	Role     Role
}

// Sources builds the basin's five-input layout from the configuration:
// precipitation, lake level, and the three tributary discharges.
func Sources(cfg *config.Config) []Source {
	return []Source{
		{Path: cfg.PrecipPath(), Column: "Precipitation (in/year)", Format: FormatMonthly, SkipRows: cfg.PrecipSkipRows, Role: RolePrecipitation},
		{Path: cfg.LevelPath(), Column: "Water Level (feet)", Format: FormatGauge, Role: RoleLevel},
		{Path: cfg.WeberPath(), Column: "Weber Discharge (cfs)", Format: FormatGauge, Role: RoleDischarge},
		{Path: cfg.JordanPath(), Column: "Jordan Discharge (cfs)", Format: FormatGauge, Role: RoleDischarge},
		{Path: cfg.BearPath(), Column: "Bear Discharge (cfs)", Format: FormatGauge, Role: RoleDischarge},
	}
}

// Pipeline runs the load-align-fit-evaluate sequence once.
type Pipeline struct {
	sources []Source
	basin   domain.Basin
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Pipeline over the given sources and basin parameters.
func New(sources []Source, basin domain.Basin, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		sources: sources,
		basin:   basin,
		logger:  logger,
		metrics: metrics,
	}
}

// Run executes the pipeline and returns the complete report. A failed
// trend fit on one column only drops that column's trend; a read, align,
// or evaluation failure aborts the run.
func (p *Pipeline) Run() (*Report, error) {
	start := time.Now()
	defer func() {
		p.metrics.RunDuration.Set(time.Since(start).Seconds())
	}()

	precipCol, levelCol, dischargeCols, err := p.roles()
	if err != nil {
		return nil, err
	}

	series := make([]domain.Series, len(p.sources))
	for i, src := range p.sources {
		s, err := p.read(src)
		if err != nil {
			return nil, err
		}
		series[i] = s
	}

	table, err := domain.Align(series...)
	if err != nil {
		return nil, fmt.Errorf("align series: %w", err)
	}
	p.metrics.RowsAligned.Set(float64(table.Len()))
	p.logger.Info("series aligned", "rows", table.Len(), "columns", len(table.Columns()))

	report := &Report{Table: table}
	for _, col := range table.Columns() {
		values, err := table.Column(col)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}

		cr := ColumnReport{Name: col, Summary: domain.Describe(values)}
		trend, err := domain.FitTrend(values)
		switch {
		case err == nil:
			cr.Trend = &trend
		case isInsufficientData(err):
			// Descriptive only; the water balance does not consume trends.
			p.logger.Warn("skipping trend fit", "column", col, "error", err)
		default:
			return nil, fmt.Errorf("fit trend for %q: %w", col, err)
		}
		report.Columns = append(report.Columns, cr)
	}

	assessment, err := domain.Evaluate(table, p.basin, precipCol, dischargeCols, levelCol)
	if err != nil {
		return nil, fmt.Errorf("evaluate water balance: %w", err)
	}
	report.Assessment = assessment

	p.metrics.ReferenceRate.Set(assessment.ReferenceRate)
	p.metrics.CurrentRate.Set(assessment.CurrentRate)
	p.metrics.NetRate.Set(assessment.NetRate)
	if assessment.Projection.NeverDries {
		p.metrics.NeverDries.Set(1)
	} else {
		p.metrics.DaysToDry.Set(assessment.Projection.DaysToDry)
	}

	p.logger.Info("water balance evaluated",
		"reference_rate", assessment.ReferenceRate,
		"current_rate", assessment.CurrentRate,
		"net_rate", assessment.NetRate,
		"last_level", assessment.LastLevel,
		"last_date", assessment.LastDate.Format("2006-01-02"),
		"never_dries", assessment.Projection.NeverDries,
	)
	return report, nil
}

// read parses one source file with the reader its format calls for.
func (p *Pipeline) read(src Source) (domain.Series, error) {
	var (
		s       domain.Series
		skipped int
		err     error
	)
	switch src.Format {
	case FormatMonthly:
		s, err = source.ReadMonthlyFile(src.Path, src.Column, src.SkipRows)
	case FormatGauge:
		s, skipped, err = source.ReadGaugeFile(src.Path, src.Column)
	default:
		return domain.Series{}, fmt.Errorf("source %q: unknown format %d", src.Path, src.Format)
	}
	if err != nil {
		return domain.Series{}, fmt.Errorf("read %q: %w", src.Path, err)
	}

	p.metrics.RowsRead.WithLabelValues(src.Column).Add(float64(s.Len()))
	if skipped > 0 {
		p.metrics.RowsSkipped.WithLabelValues(src.Column).Add(float64(skipped))
	}
	p.logger.Debug("series loaded", "path", src.Path, "column", src.Column,
		"rows", s.Len(), "skipped", skipped)
	return s, nil
}

// roles resolves the column names feeding the water balance and rejects a
// source layout that cannot be evaluated.
func (p *Pipeline) roles() (precipCol, levelCol string, dischargeCols []string, err error) {
	for _, src := range p.sources {
		switch src.Role {
		case RolePrecipitation:
			if precipCol != "" {
				return "", "", nil, fmt.Errorf("two precipitation sources: %q and %q", precipCol, src.Column)
			}
			precipCol = src.Column
		case RoleLevel:
			if levelCol != "" {
				return "", "", nil, fmt.Errorf("two level sources: %q and %q", levelCol, src.Column)
			}
			levelCol = src.Column
		case RoleDischarge:
			dischargeCols = append(dischargeCols, src.Column)
		}
	}
	if precipCol == "" || levelCol == "" || len(dischargeCols) == 0 {
		return "", "", nil, errors.New("sources must include precipitation, level, and at least one discharge")
	}
	return precipCol, levelCol, dischargeCols, nil
}

func isInsufficientData(err error) bool {
	var insufficientErr *domain.InsufficientDataError
	return errors.As(err, &insufficientErr)
}
