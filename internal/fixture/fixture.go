// Package fixture writes synthetic input files in the two formats the
// pipeline reads, for tests and for cmd/gendata. The emitted values round
// trip exactly through the source readers.
package fixture

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// WriteMonthly writes a NOAA Climate at a Glance style annual CSV: four
// metadata rows, a Date,Value,Anomaly header, then one YYYY12 row per
// year. The anomaly is the value's departure from the series mean, which
// is what the real files carry and what readers are expected to discard.
func WriteMonthly(w io.Writer, title string, years []int, values []float64) error {
	if len(years) != len(values) {
		return fmt.Errorf("write monthly: %d years but %d values", len(years), len(values))
	}

	mean := 0.0
	if len(values) > 0 {
		mean = stat.Mean(values, nil)
	}

	metadata := []string{
		title,
		"Units: Inches",
		"Base Period: 1901-2000",
		"Missing: -99",
	}
	for _, line := range metadata {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write monthly: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Value", "Anomaly"}); err != nil {
		return fmt.Errorf("write monthly: %w", err)
	}
	for i, y := range years {
		record := []string{
			fmt.Sprintf("%04d12", y),
			formatValue(values[i]),
			formatValue(values[i] - mean),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write monthly: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MonthlySkipRows is the number of metadata rows WriteMonthly emits before
// the header, matching the source reader's skipRows argument.
const MonthlySkipRows = 4

// WriteGauge writes a USGS annual-statistics RDB file for the given site:
// a "#" comment preamble, the column-name and column-format rows, then one
// tab-separated row per year. A NaN value is written as an empty statistic
// field, the RDB convention for a missing observation.
func WriteGauge(w io.Writer, site, parameter string, years []int, values []float64) error {
	if len(years) != len(values) {
		return fmt.Errorf("write gauge: %d years but %d values", len(years), len(values))
	}

	preamble := []string{
		"# ---------------------------------- WARNING ----------------------------------------",
		"# Annual statistics generated from the USGS Surface-Water Annual Statistics service.",
		"#",
		fmt.Sprintf("# Site: %s  Parameter: %s", site, parameter),
		"#",
	}
	for _, line := range preamble {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write gauge: %w", err)
		}
	}

	rows := [][]string{
		{"agency_cd", "site_no", "parameter_cd", "ts_id", "year_nu", "mean_va"},
		{"5s", "15s", "5s", "3n", "4s", "12n"},
	}
	for i, y := range years {
		value := formatValue(values[i])
		if math.IsNaN(values[i]) { // missing observation
			value = ""
		}
		rows = append(rows, []string{"USGS", site, parameter, "1", strconv.Itoa(y), value})
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return fmt.Errorf("write gauge: %w", err)
		}
	}
	return nil
}

// WriteMonthlyFile and WriteGaugeFile create path and delegate to the
// io.Writer variants.
func WriteMonthlyFile(path, title string, years []int, values []float64) error {
	return writeFile(path, func(f io.Writer) error {
		return WriteMonthly(f, title, years, values)
	})
}

func WriteGaugeFile(path, site, parameter string, years []int, values []float64) error {
	return writeFile(path, func(f io.Writer) error {
		return WriteGauge(f, site, parameter, years, values)
	})
}

// Annual generates a synthetic annual series of n years starting at start:
// base + trend per year, plus uniform noise in [-noise, noise] from the
// seeded generator. The same seed always yields the same series.
func Annual(seed int64, start, n int, base, trend, noise float64) ([]int, []float64) {
	rng := rand.New(rand.NewSource(seed))
	years := make([]int, n)
	values := make([]float64, n)
	for i := range years {
		years[i] = start + i
		values[i] = base + trend*float64(i) + noise*(2*rng.Float64()-1)
	}
	return years, values
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
