package pipeline_test

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/lake-balance/internal/domain"
	"github.com/couchcryptid/lake-balance/internal/fixture"
	"github.com/couchcryptid/lake-balance/internal/observability"
	"github.com/couchcryptid/lake-balance/internal/pipeline"
)

const (
	precipCol = "Precipitation (in/year)"
	levelCol  = "Water Level (feet)"
	weberCol  = "Weber Discharge (cfs)"
	jordanCol = "Jordan Discharge (cfs)"
	bearCol   = "Bear Discharge (cfs)"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBasin() domain.Basin {
	return domain.Basin{
		Reference:     domain.Period{Start: yearDate(1963), End: yearDate(1982)},
		ReferenceArea: 3300,
		Current:       domain.Period{Start: yearDate(2003), End: yearDate(2022)},
		CurrentArea:   2300,
	}
}

func yearDate(y int) time.Time {
	return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// writeBasin writes a consistent five-file synthetic basin covering
// 1952-2022 and returns the matching sources. Precipitation and discharge
// decline over time so the current epoch runs a deficit against the
// reference baseline.
func writeBasin(t *testing.T) []pipeline.Source {
	t.Helper()
	dir := t.TempDir()

	years, precip := fixture.Annual(11, 1952, 71, 16, -0.04, 0)
	_, level := fixture.Annual(12, 1952, 71, 4205, -0.15, 0)
	_, weber := fixture.Annual(13, 1952, 71, 1600, -12, 0)
	_, jordan := fixture.Annual(14, 1952, 71, 700, -6, 0)
	_, bear := fixture.Annual(15, 1952, 71, 2100, -16, 0)

	precipPath := filepath.Join(dir, "precip.csv")
	require.NoError(t, fixture.WriteMonthlyFile(precipPath, "Great Salt Lake Basin Precipitation", years, precip))
	levelPath := filepath.Join(dir, "level.rdb")
	require.NoError(t, fixture.WriteGaugeFile(levelPath, "10010000", "00065", years, level))
	weberPath := filepath.Join(dir, "weber.rdb")
	require.NoError(t, fixture.WriteGaugeFile(weberPath, "10141000", "00060", years, weber))
	jordanPath := filepath.Join(dir, "jordan.rdb")
	require.NoError(t, fixture.WriteGaugeFile(jordanPath, "10171000", "00060", years, jordan))
	bearPath := filepath.Join(dir, "bear.rdb")
	require.NoError(t, fixture.WriteGaugeFile(bearPath, "10126000", "00060", years, bear))

	return []pipeline.Source{
		{Path: precipPath, Column: precipCol, Format: pipeline.FormatMonthly, SkipRows: fixture.MonthlySkipRows, Role: pipeline.RolePrecipitation},
		{Path: levelPath, Column: levelCol, Format: pipeline.FormatGauge, Role: pipeline.RoleLevel},
		{Path: weberPath, Column: weberCol, Format: pipeline.FormatGauge, Role: pipeline.RoleDischarge},
		{Path: jordanPath, Column: jordanCol, Format: pipeline.FormatGauge, Role: pipeline.RoleDischarge},
		{Path: bearPath, Column: bearCol, Format: pipeline.FormatGauge, Role: pipeline.RoleDischarge},
	}
}

func TestPipelineRun(t *testing.T) {
	now := time.Date(2023, time.March, 27, 0, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	defer domain.SetClock(nil)

	sources := writeBasin(t)
	p := pipeline.New(sources, testBasin(), testLogger(), observability.NewMetrics())

	report, err := p.Run()
	require.NoError(t, err)

	assert.Equal(t, 71, report.Table.Len())
	assert.Equal(t, []string{precipCol, levelCol, weberCol, jordanCol, bearCol}, report.Table.Columns())

	require.Len(t, report.Columns, 5)
	for _, c := range report.Columns {
		assert.Equal(t, 71, c.Summary.N, c.Name)
		require.NotNil(t, c.Trend, c.Name)
		assert.Equal(t, 71, c.Trend.N, c.Name)
		// Every synthetic series declines.
		assert.Negative(t, c.Trend.Slope, c.Name)
	}

	a := report.Assessment
	assert.Equal(t, now, a.ComputedAt)
	assert.Equal(t, yearDate(2022), a.LastDate)
	assert.Less(t, a.NetRate, 0.0)
	assert.InDelta(t, a.CurrentRate-a.ReferenceRate, a.NetRate, 1e-12)
	require.False(t, a.Projection.NeverDries)
	// The synthetic basin's level sits thousands of feet above datum zero,
	// so the projection runs millions of days out; the date must still
	// land that far in the future, not wrap into the past.
	assert.Greater(t, a.Projection.DaysToDry, 150000.0)
	assert.True(t, a.Projection.Date.After(a.LastDate))
	expected := a.LastDate.AddDate(0, 0, int(a.Projection.DaysToDry))
	assert.WithinDuration(t, expected, a.Projection.Date, 24*time.Hour)

	assert.Contains(t, report.Headline(), "lake level reaches zero on")
}

func TestPipelineRun_StableBasinNeverDries(t *testing.T) {
	dir := t.TempDir()
	years, precip := fixture.Annual(21, 1952, 71, 16, 0, 0)
	_, level := fixture.Annual(22, 1952, 71, 4200, 0, 0)
	_, q := fixture.Annual(23, 1952, 71, 1500, 0, 0)

	precipPath := filepath.Join(dir, "precip.csv")
	require.NoError(t, fixture.WriteMonthlyFile(precipPath, "t", years, precip))
	levelPath := filepath.Join(dir, "level.rdb")
	require.NoError(t, fixture.WriteGaugeFile(levelPath, "10010000", "00065", years, level))
	qPath := filepath.Join(dir, "weber.rdb")
	require.NoError(t, fixture.WriteGaugeFile(qPath, "10141000", "00060", years, q))

	basin := testBasin()
	basin.CurrentArea = basin.ReferenceArea // constant inputs, constant area

	p := pipeline.New([]pipeline.Source{
		{Path: precipPath, Column: precipCol, Format: pipeline.FormatMonthly, SkipRows: fixture.MonthlySkipRows, Role: pipeline.RolePrecipitation},
		{Path: levelPath, Column: levelCol, Format: pipeline.FormatGauge, Role: pipeline.RoleLevel},
		{Path: qPath, Column: weberCol, Format: pipeline.FormatGauge, Role: pipeline.RoleDischarge},
	}, basin, testLogger(), observability.NewMetrics())

	report, err := p.Run()
	require.NoError(t, err)
	assert.True(t, report.Assessment.Projection.NeverDries)
	assert.Equal(t, "lake will not dry up under current trend", report.Headline())
}

func TestPipelineRun_Failures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		sources := writeBasin(t)
		sources[0].Path = filepath.Join(t.TempDir(), "nope.csv")
		p := pipeline.New(sources, testBasin(), testLogger(), observability.NewMetrics())
		_, err := p.Run()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope.csv")
	})

	t.Run("malformed file", func(t *testing.T) {
		sources := writeBasin(t)
		bad := filepath.Join(t.TempDir(), "bad.rdb")
		require.NoError(t, writeFileString(bad, "not an rdb file\n"))
		sources[1].Path = bad
		p := pipeline.New(sources, testBasin(), testLogger(), observability.NewMetrics())
		_, err := p.Run()
		var formatErr *domain.FormatError
		require.ErrorAs(t, err, &formatErr)
	})

	t.Run("duplicate columns", func(t *testing.T) {
		sources := writeBasin(t)
		sources[3].Column = sources[2].Column
		p := pipeline.New(sources, testBasin(), testLogger(), observability.NewMetrics())
		_, err := p.Run()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "align series")
	})

	t.Run("no discharge sources", func(t *testing.T) {
		sources := writeBasin(t)[:2]
		p := pipeline.New(sources, testBasin(), testLogger(), observability.NewMetrics())
		_, err := p.Run()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one discharge")
	})

	t.Run("epoch outside the data", func(t *testing.T) {
		sources := writeBasin(t)
		basin := testBasin()
		basin.Reference = domain.Period{Start: yearDate(1800), End: yearDate(1810)}
		p := pipeline.New(sources, basin, testLogger(), observability.NewMetrics())
		_, err := p.Run()
		require.Error(t, err)
		var insufficientErr *domain.InsufficientDataError
		assert.ErrorAs(t, err, &insufficientErr)
	})
}

func TestReportWriteText(t *testing.T) {
	sources := writeBasin(t)
	p := pipeline.New(sources, testBasin(), testLogger(), observability.NewMetrics())
	report, err := p.Run()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf))
	out := buf.String()

	assert.Contains(t, out, precipCol)
	assert.Contains(t, out, bearCol)
	assert.Contains(t, out, "net rate:")
	assert.Contains(t, out, report.Headline())
}

func TestPipelineRun_SkippedObservations(t *testing.T) {
	sources := writeBasin(t)

	// Rewrite the level file with two missing observations.
	years, level := fixture.Annual(12, 1952, 71, 4205, -0.15, 0)
	level[10] = math.NaN()
	level[11] = math.NaN()
	require.NoError(t, fixture.WriteGaugeFile(sources[1].Path, "10010000", "00065", years, level))

	p := pipeline.New(sources, testBasin(), testLogger(), observability.NewMetrics())
	report, err := p.Run()
	require.NoError(t, err)

	// The inner join drops 1962 and 1963 everywhere.
	assert.Equal(t, 69, report.Table.Len())
	for _, d := range report.Table.Dates() {
		assert.NotEqual(t, 1962, d.Year())
		assert.NotEqual(t, 1963, d.Year())
	}
}

func writeFileString(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
