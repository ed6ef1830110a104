package domain

import (
	"fmt"
	"sort"
	"time"
)

// Table is the result of aligning several series on their date index: a set
// of named columns sharing one ascending date index, with every row fully
// populated. The zero value is an empty table.
type Table struct {
	dates   []time.Time
	columns []string
	values  map[string][]float64
}

// Row is one fully populated table row.
type Row struct {
	Date   time.Time
	Values map[string]float64
}

// Align inner-joins the given series on date: only dates present in every
// input survive, and each series contributes one column named after it.
// Rows are ordered ascending by date regardless of input order. An empty
// intersection yields an empty table, not an error. Duplicate series names
// are an error, since the later column would silently shadow the earlier.
func Align(series ...Series) (Table, error) {
	if len(series) == 0 {
		return Table{}, nil
	}

	seen := make(map[string]struct{}, len(series))
	for _, s := range series {
		if _, ok := seen[s.Name]; ok {
			return Table{}, fmt.Errorf("duplicate series name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}

	byDate := make([]map[int64]float64, len(series))
	for i, s := range series {
		if len(s.Dates) != len(s.Values) {
			return Table{}, fmt.Errorf("series %q: %d dates but %d values", s.Name, len(s.Dates), len(s.Values))
		}
		m := make(map[int64]float64, len(s.Dates))
		for j, d := range s.Dates {
			// Series fields are exported, so a hand-filled literal may
			// not honor the sorted-unique invariant NewSeries enforces.
			if j > 0 && !d.After(s.Dates[j-1]) {
				if d.Equal(s.Dates[j-1]) {
					return Table{}, fmt.Errorf("series %q: duplicate date %s", s.Name, d.Format("2006-01-02"))
				}
				return Table{}, fmt.Errorf("series %q: dates out of order at %s", s.Name, d.Format("2006-01-02"))
			}
			m[d.Unix()] = s.Values[j]
		}
		byDate[i] = m
	}

	t := Table{
		columns: make([]string, len(series)),
		values:  make(map[string][]float64, len(series)),
	}
	for i, s := range series {
		t.columns[i] = s.Name
	}

	// The first series' dates are already ascending, so walking them keeps
	// the output sorted without a separate pass.
	for j, d := range series[0].Dates {
		key := d.Unix()
		shared := true
		for _, m := range byDate[1:] {
			if _, ok := m[key]; !ok {
				shared = false
				break
			}
		}
		if !shared {
			continue
		}
		t.dates = append(t.dates, d)
		t.values[series[0].Name] = append(t.values[series[0].Name], series[0].Values[j])
		for i, s := range series[1:] {
			t.values[s.Name] = append(t.values[s.Name], byDate[i+1][key])
		}
	}
	return t, nil
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.dates) }

// Columns returns the column names in their original input order.
func (t Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Dates returns the ascending date index.
func (t Table) Dates() []time.Time {
	out := make([]time.Time, len(t.dates))
	copy(out, t.dates)
	return out
}

// Column returns the values of the named column, row-aligned with Dates.
func (t Table) Column(name string) ([]float64, error) {
	v, ok := t.values[name]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, nil
}

// Between returns the rows with dates in [start, end] inclusive. The result
// shares no storage with the receiver and keeps all columns, possibly with
// zero rows.
func (t Table) Between(start, end time.Time) Table {
	lo := sort.Search(len(t.dates), func(i int) bool { return !t.dates[i].Before(start) })
	hi := sort.Search(len(t.dates), func(i int) bool { return t.dates[i].After(end) })
	if lo > hi {
		lo, hi = 0, 0
	}

	out := Table{
		dates:   make([]time.Time, hi-lo),
		columns: t.Columns(),
		values:  make(map[string][]float64, len(t.columns)),
	}
	copy(out.dates, t.dates[lo:hi])
	for name, v := range t.values {
		col := make([]float64, hi-lo)
		copy(col, v[lo:hi])
		out.values[name] = col
	}
	return out
}

// Last returns the most recent row, or false for an empty table.
func (t Table) Last() (Row, bool) {
	if len(t.dates) == 0 {
		return Row{}, false
	}
	i := len(t.dates) - 1
	row := Row{Date: t.dates[i], Values: make(map[string]float64, len(t.columns))}
	for name, v := range t.values {
		row.Values[name] = v[i]
	}
	return row, true
}
