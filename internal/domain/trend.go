package domain

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Trend is an ordinary least-squares line fit of a value sequence against
// its integer sample positions 0..N-1. Slope units therefore depend on the
// sampling interval of the underlying series: one slope unit per sample,
// which for the annual inputs here reads as per-year.
type Trend struct {
	Slope     float64
	Intercept float64
	N         int
}

// At evaluates the fitted line at sample position i.
func (t Trend) At(i int) float64 {
	return t.Intercept + t.Slope*float64(i)
}

// FitTrend fits a least-squares line through the values at positions
// 0..len(values)-1. Fewer than two values is an InsufficientDataError;
// positions are distinct integers by construction, so the fit cannot
// otherwise degenerate.
func FitTrend(values []float64) (Trend, error) {
	if len(values) < 2 {
		return Trend{}, &InsufficientDataError{
			Op:     "fit trend",
			Reason: "need at least 2 points",
		}
	}

	positions := make([]float64, len(values))
	for i := range positions {
		positions[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(positions, values, nil, false)
	return Trend{Slope: slope, Intercept: intercept, N: len(values)}, nil
}

// Summary holds descriptive statistics for one column of an aligned table.
type Summary struct {
	N      int
	Mean   float64
	Std    float64
	Min    float64
	Median float64
	Max    float64
}

// Describe computes descriptive statistics over the values. The zero-value
// Summary is returned for an empty input; Std is 0 for a single value.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	slices.Sort(sorted)

	s := Summary{
		N:      len(values),
		Mean:   stat.Mean(values, nil),
		Min:    sorted[0],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
	if s.N > 1 {
		s.Std = stat.StdDev(values, nil)
	}
	return s
}
