// Package source parses the two on-disk tabular formats the water-balance
// pipeline consumes: NOAA Climate at a Glance annual CSVs and USGS
// annual-statistics RDB files. Both readers normalize the date key to
// midnight UTC on January 1 of the labeled year, the shared alignment key
// for annual data, and return series with strictly increasing unique dates.
package source

import (
	"bufio"
	"encoding/csv"
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

// Column names expected in the NOAA header row.
const (
	monthlyDateCol    = "Date"
	monthlyValueCol   = "Value"
	monthlyAnomalyCol = "Anomaly"
)

// ReadMonthly parses a NOAA Climate at a Glance annual CSV: skipRows
// metadata lines, then a header with Date, Value and Anomaly columns. The
// Anomaly column is discarded and Value is returned under the caller's
// semantic name. The Date column holds YYYY12 codes, a 12-month window
// ending in December, which collapse to January 1 of the labeled year.
func ReadMonthly(r io.Reader, name string, skipRows int) (domain.Series, error) {
	br := bufio.NewReader(r)
	for i := 0; i < skipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			return domain.Series{}, &domain.FormatError{
				Path:   name,
				Line:   i + 1,
				Reason: fmt.Sprintf("expected %d metadata rows: %v", skipRows, err),
			}
		}
	}

	cr := csv.NewReader(br)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return domain.Series{}, &domain.FormatError{
			Path:   name,
			Line:   skipRows + 1,
			Reason: fmt.Sprintf("reading header: %v", err),
		}
	}

	dateIdx, valueIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case monthlyDateCol:
			dateIdx = i
		case monthlyValueCol:
			valueIdx = i
		}
	}
	if dateIdx < 0 || valueIdx < 0 {
		return domain.Series{}, &domain.FormatError{
			Path:   name,
			Line:   skipRows + 1,
			Reason: fmt.Sprintf("header %v is missing %q or %q", header, monthlyDateCol, monthlyValueCol),
		}
	}

	var dates []time.Time
	var values []float64
	for line := skipRows + 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Series{}, &domain.FormatError{
				Path: name, Line: line, Reason: err.Error(),
			}
		}

		date, err := parseYearCode(record[dateIdx])
		if err != nil {
			return domain.Series{}, &domain.FormatError{
				Path: name, Line: line, Reason: err.Error(),
			}
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[valueIdx]), 64)
		// ParseFloat accepts "NaN" and "Inf" spellings, which have no
		// place in an observation record.
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return domain.Series{}, &domain.FormatError{
				Path: name, Line: line,
				Reason: fmt.Sprintf("bad value %q", record[valueIdx]),
			}
		}
		dates = append(dates, date)
		values = append(values, value)
	}

	s, err := domain.NewSeries(name, dates, values)
	if err != nil {
		return domain.Series{}, &domain.FormatError{Path: name, Reason: err.Error()}
	}
	return s, nil
}

// ReadMonthlyFile opens path and delegates to ReadMonthly, attributing
// errors to the file path instead of the series name.
func ReadMonthlyFile(path, name string, skipRows int) (domain.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Series{}, fmt.Errorf("read monthly series: %w", err)
	}
	defer f.Close()

	s, err := ReadMonthly(f, name, skipRows)
	var formatErr *domain.FormatError
	if errors.As(err, &formatErr) {
		formatErr.Path = path
	}
	return s, err
}

// parseYearCode parses a NOAA YYYY12 date code to January 1 UTC of the
// labeled year. A bare YYYY is accepted too, since older downloads omit
// the month suffix on annual data.
func parseYearCode(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	digits := s
	if len(s) == 6 {
		if !strings.HasSuffix(s, "12") {
			return time.Time{}, fmt.Errorf("bad date code %q: want a YYYY12 annual window", s)
		}
		digits = s[:4]
	}
	if len(digits) != 4 {
		return time.Time{}, fmt.Errorf("bad date code %q", s)
	}
	y, err := strconv.Atoi(digits)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date code %q", s)
	}
	return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), nil
}
