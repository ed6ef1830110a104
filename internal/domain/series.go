package domain

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// Series is an ordered sequence of (date, value) observations tagged with a
// semantic name, e.g. "Precipitation (in/year)". Dates are ascending and
// unique; they are the alignment key when series are merged.
type Series struct {
	Name   string
	Dates  []time.Time
	Values []float64
}

// NewSeries builds a Series from parallel date and value slices. The inputs
// are copied and sorted ascending by date. Mismatched lengths or duplicate
// dates are an error.
func NewSeries(name string, dates []time.Time, values []float64) (Series, error) {
	if len(dates) != len(values) {
		return Series{}, fmt.Errorf("series %q: %d dates but %d values", name, len(dates), len(values))
	}

	type point struct {
		date  time.Time
		value float64
	}
	points := make([]point, len(dates))
	for i := range dates {
		points[i] = point{date: dates[i].UTC(), value: values[i]}
	}
	slices.SortFunc(points, func(a, b point) int { return cmp.Compare(a.date.Unix(), b.date.Unix()) })

	s := Series{
		Name:   name,
		Dates:  make([]time.Time, len(points)),
		Values: make([]float64, len(points)),
	}
	for i, p := range points {
		if i > 0 && p.date.Equal(points[i-1].date) {
			return Series{}, fmt.Errorf("series %q: duplicate date %s", name, p.date.Format("2006-01-02"))
		}
		s.Dates[i] = p.date
		s.Values[i] = p.value
	}
	return s, nil
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Values) }
