package pipeline

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/couchcryptid/lake-balance/internal/domain"
)

// ColumnReport carries the descriptive statistics, and the linear trend
// when one could be fitted, for a single aligned column.
type ColumnReport struct {
	Name    string
	Summary domain.Summary
	Trend   *domain.Trend
}

// Report is the complete output of one pipeline run.
type Report struct {
	Table      domain.Table
	Columns    []ColumnReport
	Assessment domain.Assessment
}

// Headline is the run's one-line verdict.
func (r *Report) Headline() string {
	p := r.Assessment.Projection
	if p.NeverDries {
		return "lake will not dry up under current trend"
	}
	return fmt.Sprintf("lake level reaches zero on %s (%.0f days after %s)",
		p.Date.Format("2006-01-02"),
		p.DaysToDry,
		r.Assessment.LastDate.Format("2006-01-02"))
}

// WriteText renders the human-readable report: per-column statistics and
// trends, the epoch rates, and the headline.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "column\tn\tmean\tstd\tmin\tmedian\tmax\ttrend/yr")
	for _, c := range r.Columns {
		trend := "n/a"
		if c.Trend != nil {
			trend = fmt.Sprintf("%+.4f", c.Trend.Slope)
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%s\n",
			c.Name, c.Summary.N, c.Summary.Mean, c.Summary.Std,
			c.Summary.Min, c.Summary.Median, c.Summary.Max, trend)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	a := r.Assessment
	fmt.Fprintf(w, "\nreference rate: %+.4f ft/yr\n", a.ReferenceRate)
	fmt.Fprintf(w, "current rate:   %+.4f ft/yr\n", a.CurrentRate)
	fmt.Fprintf(w, "net rate:       %+.4f ft/yr (%+.6f ft/day)\n", a.NetRate, a.NetRatePerDay)
	fmt.Fprintf(w, "last observed:  %.2f ft on %s\n", a.LastLevel, a.LastDate.Format("2006-01-02"))
	_, err := fmt.Fprintf(w, "\n%s\n", r.Headline())
	return err
}
