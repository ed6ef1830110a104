package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/lake-balance/internal/domain"
)

// USGS RDB layout for annual statistics: six tab-separated fields per row.
// The format row spells out each field's width and kind; only the water
// year (4s) and the statistic (12n) carry data we keep, the rest is site
// metadata.
const (
	gaugeFieldCount = 6
	gaugeYearIdx    = 4 // 4s
	gaugeValueIdx   = 5 // 12n
)

var gaugeFormatRow = []string{"5s", "15s", "5s", "3n", "4s", "12n"}

// ReadGauge parses a USGS annual-statistics RDB file: "#" comment lines, a
// column-name header row, the column-format row, then tab-separated data.
// The water year maps to January 1 UTC of that year and the statistic is
// returned under the caller's semantic name. Rows with an empty statistic
// field are missing observations: they are skipped, and the count of
// skipped rows is returned alongside the series.
func ReadGauge(r io.Reader, name string) (domain.Series, int, error) {
	sc := bufio.NewScanner(r)

	line := 0
	next := func() (string, bool) {
		for sc.Scan() {
			line++
			text := sc.Text()
			if strings.HasPrefix(text, "#") || strings.TrimSpace(text) == "" {
				continue
			}
			return text, true
		}
		return "", false
	}

	if _, ok := next(); !ok {
		return domain.Series{}, 0, &domain.FormatError{
			Path: name, Line: line, Reason: "missing column-name header row",
		}
	}
	format, ok := next()
	if !ok {
		return domain.Series{}, 0, &domain.FormatError{
			Path: name, Line: line, Reason: "missing column-format row",
		}
	}
	if err := checkFormatRow(format); err != nil {
		return domain.Series{}, 0, &domain.FormatError{
			Path: name, Line: line, Reason: err.Error(),
		}
	}

	var dates []time.Time
	var values []float64
	skipped := 0
	for {
		text, ok := next()
		if !ok {
			break
		}
		fields := strings.Split(text, "\t")
		if len(fields) != gaugeFieldCount {
			return domain.Series{}, 0, &domain.FormatError{
				Path: name, Line: line,
				Reason: fmt.Sprintf("%d columns, want %d", len(fields), gaugeFieldCount),
			}
		}

		raw := strings.TrimSpace(fields[gaugeValueIdx])
		if raw == "" {
			skipped++
			continue
		}

		y, err := strconv.Atoi(strings.TrimSpace(fields[gaugeYearIdx]))
		if err != nil {
			return domain.Series{}, 0, &domain.FormatError{
				Path: name, Line: line,
				Reason: fmt.Sprintf("bad water year %q", fields[gaugeYearIdx]),
			}
		}
		value, err := strconv.ParseFloat(raw, 64)
		// ParseFloat accepts "NaN" and "Inf" spellings, which have no
		// place in an observation record.
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return domain.Series{}, 0, &domain.FormatError{
				Path: name, Line: line,
				Reason: fmt.Sprintf("bad value %q", raw),
			}
		}

		dates = append(dates, time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC))
		values = append(values, value)
	}
	if err := sc.Err(); err != nil {
		return domain.Series{}, 0, &domain.FormatError{Path: name, Line: line, Reason: err.Error()}
	}

	s, err := domain.NewSeries(name, dates, values)
	if err != nil {
		return domain.Series{}, 0, &domain.FormatError{Path: name, Reason: err.Error()}
	}
	return s, skipped, nil
}

// ReadGaugeFile opens path and delegates to ReadGauge, attributing errors
// to the file path instead of the series name.
func ReadGaugeFile(path, name string) (domain.Series, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Series{}, 0, fmt.Errorf("read gauge series: %w", err)
	}
	defer f.Close()

	s, skipped, err := ReadGauge(f, name)
	var formatErr *domain.FormatError
	if errors.As(err, &formatErr) {
		formatErr.Path = path
	}
	return s, skipped, err
}

// checkFormatRow verifies the RDB column-format row matches the annual
// statistics layout, the cheapest way to catch a file of the wrong RDB
// flavor before misreading its columns.
func checkFormatRow(row string) error {
	fields := strings.Split(row, "\t")
	if len(fields) != gaugeFieldCount {
		return fmt.Errorf("format row has %d columns, want %d", len(fields), gaugeFieldCount)
	}
	for i, want := range gaugeFormatRow {
		if strings.TrimSpace(fields[i]) != want {
			return fmt.Errorf("format row column %d is %q, want %q", i+1, fields[i], want)
		}
	}
	return nil
}
