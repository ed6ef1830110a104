package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	precipCol = "Precipitation (in/year)"
	levelCol  = "Water Level (feet)"
	weberCol  = "Weber Discharge (cfs)"
	jordanCol = "Jordan Discharge (cfs)"
	bearCol   = "Bear Discharge (cfs)"
)

// constantTable builds an aligned table holding the given per-column
// constants for each year in [from, to].
func constantTable(t *testing.T, from, to int, columns map[string]float64) Table {
	t.Helper()
	n := to - from + 1
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = year(from + i)
	}

	series := make([]Series, 0, len(columns))
	for _, name := range []string{precipCol, levelCol, weberCol, jordanCol, bearCol} {
		v, ok := columns[name]
		if !ok {
			continue
		}
		values := make([]float64, n)
		for i := range values {
			values[i] = v
		}
		series = append(series, mustSeries(t, name, dates, values))
	}

	table, err := Align(series...)
	require.NoError(t, err)
	return table
}

func TestComputeRate(t *testing.T) {
	t.Run("hand-computed scenario", func(t *testing.T) {
		table := constantTable(t, 1960, 1969, map[string]float64{
			precipCol: 24,
			weberCol:  1500,
			jordanCol: 800,
			bearCol:   2200,
		})

		rate, err := ComputeRate(table, precipCol, []string{weberCol, jordanCol, bearCol},
			Period{Start: year(1960), End: year(1969)}, 2300)
		require.NoError(t, err)

		// 24 in/yr over 12, plus 4500 cfs spread over 2300 mi²
		// (27,878,400 ft²/mi² over 31,557,600 s/yr).
		expected := 24.0/12 + 4500.0/(2300*27878400.0/31557600.0)
		assert.InDelta(t, expected, rate, 1e-9)
	})

	t.Run("zero inputs give zero rate", func(t *testing.T) {
		table := constantTable(t, 1960, 1969, map[string]float64{
			precipCol: 0,
			weberCol:  0,
		})

		rate, err := ComputeRate(table, precipCol, []string{weberCol},
			Period{Start: year(1960), End: year(1969)}, 2300)
		require.NoError(t, err)
		assert.Equal(t, 0.0, rate)
	})

	t.Run("period restriction is inclusive", func(t *testing.T) {
		dates := []time.Time{year(1960), year(1961), year(1962)}
		table, err := Align(mustSeries(t, precipCol, dates, []float64{12, 24, 48}))
		require.NoError(t, err)

		// Only 1960 and 1961 fall inside: mean 18 in/yr.
		rate, err := ComputeRate(table, precipCol, nil,
			Period{Start: year(1960), End: year(1961)}, 2300)
		require.NoError(t, err)
		assert.InDelta(t, 1.5, rate, 1e-12)
	})

	t.Run("empty period", func(t *testing.T) {
		table := constantTable(t, 1960, 1969, map[string]float64{precipCol: 24})
		_, err := ComputeRate(table, precipCol, nil,
			Period{Start: year(1990), End: year(1999)}, 2300)
		var insufficientErr *InsufficientDataError
		require.ErrorAs(t, err, &insufficientErr)
	})

	t.Run("unknown column", func(t *testing.T) {
		table := constantTable(t, 1960, 1969, map[string]float64{precipCol: 24})
		_, err := ComputeRate(table, "nope", nil,
			Period{Start: year(1960), End: year(1969)}, 2300)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown column "nope"`)
	})

	t.Run("non-positive area", func(t *testing.T) {
		table := constantTable(t, 1960, 1969, map[string]float64{precipCol: 24})
		_, err := ComputeRate(table, precipCol, nil,
			Period{Start: year(1960), End: year(1969)}, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "surface area")
	})
}

func TestExtrapolateDryDate(t *testing.T) {
	d := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)

	t.Run("falling level dries out", func(t *testing.T) {
		p := ExtrapolateDryDate(10, -0.01, d)
		assert.False(t, p.NeverDries)
		assert.InDelta(t, 1000, p.DaysToDry, 1e-9)
		assert.Equal(t, d.AddDate(0, 0, 1000), p.Date)
	})

	t.Run("fractional days preserved", func(t *testing.T) {
		p := ExtrapolateDryDate(1, -0.4, d)
		assert.InDelta(t, 2.5, p.DaysToDry, 1e-12)
		assert.Equal(t, d.AddDate(0, 0, 2).Add(12*time.Hour), p.Date)
	})

	t.Run("projections past the Duration range", func(t *testing.T) {
		// A level thousands of feet above datum zero at a small net rate
		// projects millions of days out, far beyond what a single
		// time.Duration can express.
		p := ExtrapolateDryDate(10, -1.0/16384, d)
		require.False(t, p.NeverDries)
		assert.Equal(t, 163840.0, p.DaysToDry)
		assert.Equal(t, d.AddDate(0, 0, 163840), p.Date)

		p = ExtrapolateDryDate(4194.5, -0.25/365.25, d)
		require.False(t, p.NeverDries)
		assert.InDelta(t, 6128164.5, p.DaysToDry, 1e-3)
		assert.True(t, p.Date.After(d), "dry-up date must follow the last observation")
		expected := d.AddDate(0, 0, int(p.DaysToDry))
		assert.WithinDuration(t, expected, p.Date, 24*time.Hour)
	})

	t.Run("zero rate never dries", func(t *testing.T) {
		p := ExtrapolateDryDate(10, 0, d)
		assert.True(t, p.NeverDries)
		assert.Zero(t, p.DaysToDry)
		assert.True(t, p.Date.IsZero())
	})

	t.Run("rising level never dries", func(t *testing.T) {
		p := ExtrapolateDryDate(10, 0.25, d)
		assert.True(t, p.NeverDries)
	})
}

func TestEvaluate(t *testing.T) {
	basin := Basin{
		Reference:     Period{Start: year(1960), End: year(1969)},
		ReferenceArea: 3300,
		Current:       Period{Start: year(2010), End: year(2019)},
		CurrentArea:   2300,
	}
	dischargeCols := []string{weberCol, jordanCol, bearCol}

	now := time.Date(2023, time.March, 27, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	defer SetClock(nil)

	t.Run("dry inputs reduce to negative baseline", func(t *testing.T) {
		// Wet reference epoch, then every input drops to zero: the net rate
		// is exactly the negative of the evaporation-equivalent baseline.
		reference := constantTable(t, 1960, 1969, map[string]float64{
			precipCol: 24, levelCol: 4200, weberCol: 1500, jordanCol: 800, bearCol: 2200,
		})
		current := constantTable(t, 2010, 2019, map[string]float64{
			precipCol: 0, levelCol: 8, weberCol: 0, jordanCol: 0, bearCol: 0,
		})
		table := concatTables(t, reference, current)

		a, err := Evaluate(table, basin, precipCol, dischargeCols, levelCol)
		require.NoError(t, err)

		assert.Greater(t, a.ReferenceRate, 0.0)
		assert.Equal(t, 0.0, a.CurrentRate)
		assert.InDelta(t, -a.ReferenceRate, a.NetRate, 1e-12)
		assert.InDelta(t, a.NetRate/365.25, a.NetRatePerDay, 1e-15)

		assert.Equal(t, 8.0, a.LastLevel)
		assert.Equal(t, year(2019), a.LastDate)
		assert.Equal(t, now, a.ComputedAt)

		require.False(t, a.Projection.NeverDries)
		assert.InDelta(t, 8.0/-a.NetRatePerDay, a.Projection.DaysToDry, 1e-9)
	})

	t.Run("balanced epochs never dry", func(t *testing.T) {
		columns := map[string]float64{
			precipCol: 24, levelCol: 4200, weberCol: 1500, jordanCol: 800, bearCol: 2200,
		}
		table := concatTables(t,
			constantTable(t, 1960, 1969, columns),
			constantTable(t, 2010, 2019, columns),
		)

		// Same inputs and same area in both epochs: net rate is zero.
		sameArea := basin
		sameArea.CurrentArea = sameArea.ReferenceArea
		a, err := Evaluate(table, sameArea, precipCol, dischargeCols, levelCol)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, a.NetRate, 1e-12)
		assert.True(t, a.Projection.NeverDries)
	})

	t.Run("missing epoch coverage", func(t *testing.T) {
		table := constantTable(t, 2010, 2019, map[string]float64{
			precipCol: 24, levelCol: 4200, weberCol: 1500, jordanCol: 800, bearCol: 2200,
		})
		_, err := Evaluate(table, basin, precipCol, dischargeCols, levelCol)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reference epoch")
		var insufficientErr *InsufficientDataError
		assert.ErrorAs(t, err, &insufficientErr)
	})

	t.Run("unknown level column", func(t *testing.T) {
		table := concatTables(t,
			constantTable(t, 1960, 1969, map[string]float64{precipCol: 24, weberCol: 1500, jordanCol: 800, bearCol: 2200}),
			constantTable(t, 2010, 2019, map[string]float64{precipCol: 24, weberCol: 1500, jordanCol: 800, bearCol: 2200}),
		)
		_, err := Evaluate(table, basin, precipCol, dischargeCols, levelCol)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown column "Water Level (feet)"`)
	})
}

// concatTables rebuilds one table from the rows of several disjoint tables
// sharing the same columns.
func concatTables(t *testing.T, tables ...Table) Table {
	t.Helper()
	require.NotEmpty(t, tables)

	columns := tables[0].Columns()
	var dates []time.Time
	values := make(map[string][]float64, len(columns))
	for _, tab := range tables {
		require.Equal(t, columns, tab.Columns())
		dates = append(dates, tab.Dates()...)
		for _, col := range columns {
			v, err := tab.Column(col)
			require.NoError(t, err)
			values[col] = append(values[col], v...)
		}
	}

	series := make([]Series, len(columns))
	for i, col := range columns {
		series[i] = mustSeries(t, col, dates, values[col])
	}
	merged, err := Align(series...)
	require.NoError(t, err)
	return merged
}
