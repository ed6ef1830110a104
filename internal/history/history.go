// Package history persists assessment results to a local SQLite database,
// so runs over refreshed data files can be compared after the fact.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/lake-balance/internal/domain"
)

// Record is one stored assessment. DryDate is nil for a NeverDries result.
type Record struct {
	ID            int64
	ComputedAt    time.Time
	ReferenceRate float64
	CurrentRate   float64
	NetRate       float64
	LastLevel     float64
	LastDate      time.Time
	NeverDries    bool
	DryDate       *time.Time
}

// Store is a SQLite-backed assessment log.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS assessments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	computed_at TEXT NOT NULL,
	reference_rate REAL NOT NULL,
	current_rate REAL NOT NULL,
	net_rate REAL NOT NULL,
	last_level REAL NOT NULL,
	last_date TEXT NOT NULL,
	never_dries INTEGER NOT NULL,
	dry_date TEXT
);
CREATE INDEX IF NOT EXISTS idx_assessments_computed_at ON assessments(computed_at);`

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save appends one assessment and returns its row id.
func (s *Store) Save(a domain.Assessment) (int64, error) {
	var dryDate any
	if !a.Projection.NeverDries {
		dryDate = a.Projection.Date.UTC().Format(time.RFC3339Nano)
	}

	res, err := s.db.Exec(`
		INSERT INTO assessments
			(computed_at, reference_rate, current_rate, net_rate, last_level, last_date, never_dries, dry_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ComputedAt.UTC().Format(time.RFC3339Nano),
		a.ReferenceRate,
		a.CurrentRate,
		a.NetRate,
		a.LastLevel,
		a.LastDate.UTC().Format(time.RFC3339Nano),
		a.Projection.NeverDries,
		dryDate,
	)
	if err != nil {
		return 0, fmt.Errorf("save assessment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save assessment: %w", err)
	}
	return id, nil
}

// Latest returns the most recently computed assessment, or sql.ErrNoRows
// when the log is empty.
func (s *Store) Latest() (Record, error) {
	row := s.db.QueryRow(`
		SELECT id, computed_at, reference_rate, current_rate, net_rate,
		       last_level, last_date, never_dries, dry_date
		FROM assessments ORDER BY computed_at DESC, id DESC LIMIT 1`)
	return scanRecord(row.Scan)
}

// List returns up to limit assessments, most recent first.
func (s *Store) List(limit int) ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT id, computed_at, reference_rate, current_rate, net_rate,
		       last_level, last_date, never_dries, dry_date
		FROM assessments ORDER BY computed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return records, nil
}

func scanRecord(scan func(...any) error) (Record, error) {
	var (
		r          Record
		computedAt string
		lastDate   string
		dryDate    sql.NullString
	)
	if err := scan(&r.ID, &computedAt, &r.ReferenceRate, &r.CurrentRate, &r.NetRate,
		&r.LastLevel, &lastDate, &r.NeverDries, &dryDate); err != nil {
		return Record{}, err
	}

	var err error
	if r.ComputedAt, err = time.Parse(time.RFC3339Nano, computedAt); err != nil {
		return Record{}, fmt.Errorf("bad computed_at %q: %w", computedAt, err)
	}
	if r.LastDate, err = time.Parse(time.RFC3339Nano, lastDate); err != nil {
		return Record{}, fmt.Errorf("bad last_date %q: %w", lastDate, err)
	}
	if dryDate.Valid {
		d, err := time.Parse(time.RFC3339Nano, dryDate.String)
		if err != nil {
			return Record{}, fmt.Errorf("bad dry_date %q: %w", dryDate.String, err)
		}
		r.DryDate = &d
	}
	return r, nil
}
