package domain

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// areaFlowDivisor converts a lake surface area in square miles into the
// denominator that turns a discharge in cubic feet per second into feet of
// lake level per year: 27,878,400 square feet per square mile over
// 31,557,600 seconds per Julian year. Fixed constant, not derived.
const areaFlowDivisor = 27878400.0 / 31557600.0

// daysPerYear converts a yearly rate to a daily one, matching the Julian
// year used by areaFlowDivisor.
const daysPerYear = 365.25

// Period is an inclusive date range over which mass-balance inputs are
// averaged.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls within the period, boundaries included.
func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Basin holds the caller-supplied water-balance parameters: the two
// averaging epochs and the lake surface area assumed for each. The
// reference epoch establishes the evaporation-equivalent baseline under an
// assumed zero net change in storage; that assumption is carried by the
// caller's choice of period, never computed here.
type Basin struct {
	Reference     Period
	ReferenceArea float64 // square miles
	Current       Period
	CurrentArea   float64 // square miles
}

// Projection is the dry-up extrapolation result. NeverDries is a defined
// outcome, not an error: a non-negative net rate means the level never
// reaches zero, and the remaining fields are meaningless.
type Projection struct {
	NeverDries bool
	DaysToDry  float64
	Date       time.Time
}

// Assessment is the complete two-epoch evaluation of an aligned table.
// Rates are in feet of lake level per year except NetRatePerDay.
type Assessment struct {
	ReferenceRate float64 // evaporation-equivalent baseline
	CurrentRate   float64 // raw current-epoch mass balance
	NetRate       float64 // CurrentRate - ReferenceRate
	NetRatePerDay float64 // NetRate / 365.25, drives the extrapolation
	LastLevel     float64
	LastDate      time.Time
	Projection    Projection
	ComputedAt    time.Time
}

// ComputeRate computes the mass-balance input rate over the rows of t whose
// dates fall in p, in feet of lake level per year:
//
//	mean(precip)/12 + sum_i mean(discharge_i) / (surfaceArea * areaFlowDivisor)
//
// with precipitation in inches per year, discharges in cubic feet per
// second, and surfaceArea in square miles. An empty restriction is an
// InsufficientDataError; a non-positive area or unknown column is a plain
// error.
func ComputeRate(t Table, precipCol string, dischargeCols []string, p Period, surfaceArea float64) (float64, error) {
	if surfaceArea <= 0 {
		return 0, fmt.Errorf("compute rate: surface area must be positive, got %g", surfaceArea)
	}

	window := t.Between(p.Start, p.End)
	if window.Len() == 0 {
		return 0, &InsufficientDataError{
			Op: "compute rate",
			Reason: fmt.Sprintf("no rows between %s and %s",
				p.Start.Format("2006-01-02"), p.End.Format("2006-01-02")),
		}
	}

	precip, err := window.Column(precipCol)
	if err != nil {
		return 0, fmt.Errorf("compute rate: %w", err)
	}
	rate := stat.Mean(precip, nil) / 12

	var discharge float64
	for _, col := range dischargeCols {
		q, err := window.Column(col)
		if err != nil {
			return 0, fmt.Errorf("compute rate: %w", err)
		}
		discharge += stat.Mean(q, nil)
	}
	rate += discharge / (surfaceArea * areaFlowDivisor)

	return rate, nil
}

// ExtrapolateDryDate projects the date at which the level reaches zero
// under a constant net rate in feet per day. A non-negative rate returns
// the NeverDries sentinel, so the division below cannot be reached with a
// rate that would run the projection backwards or blow it up. Fractional
// days are preserved.
//
// Whole days advance through AddDate and only the sub-day remainder goes
// through a Duration: a realistic projection (thousands of feet of level
// at fractions of a foot per year) runs to millions of days, far past the
// ~292-year Duration range.
func ExtrapolateDryDate(level, ratePerDay float64, lastObserved time.Time) Projection {
	if ratePerDay >= 0 {
		return Projection{NeverDries: true}
	}
	days := level / -ratePerDay
	whole := math.Floor(days)
	frac := days - whole
	return Projection{
		DaysToDry: days,
		Date:      lastObserved.AddDate(0, 0, int(whole)).Add(time.Duration(frac * 24 * float64(time.Hour))),
	}
}

// Evaluate runs the two-epoch water-balance policy over an aligned table:
// the reference epoch's rate is the evaporation-equivalent baseline, the
// current epoch's rate minus that baseline is the net rate, and the most
// recent observed level is extrapolated forward under the net rate.
func Evaluate(t Table, b Basin, precipCol string, dischargeCols []string, levelCol string) (Assessment, error) {
	reference, err := ComputeRate(t, precipCol, dischargeCols, b.Reference, b.ReferenceArea)
	if err != nil {
		return Assessment{}, fmt.Errorf("reference epoch: %w", err)
	}
	current, err := ComputeRate(t, precipCol, dischargeCols, b.Current, b.CurrentArea)
	if err != nil {
		return Assessment{}, fmt.Errorf("current epoch: %w", err)
	}

	last, ok := t.Last()
	if !ok {
		return Assessment{}, &InsufficientDataError{Op: "evaluate", Reason: "empty table"}
	}
	level, ok := last.Values[levelCol]
	if !ok {
		return Assessment{}, fmt.Errorf("evaluate: unknown column %q", levelCol)
	}

	a := Assessment{
		ReferenceRate: reference,
		CurrentRate:   current,
		NetRate:       current - reference,
		LastLevel:     level,
		LastDate:      last.Date,
		ComputedAt:    clock.Now(),
	}
	a.NetRatePerDay = a.NetRate / daysPerYear
	a.Projection = ExtrapolateDryDate(a.LastLevel, a.NetRatePerDay, a.LastDate)
	return a, nil
}
