// Package ledger records completed squaring units in an embedded DuckDB
// database. The ledger is observational: resumability is decided by
// on-disk stage outputs, never by ledger contents.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for run bookkeeping.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path. Use an empty
// string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS unit_results (
		sample VARCHAR,
		region VARCHAR,
		caller VARCHAR,
		targets BIGINT,
		kept BIGINT,
		demoted_ref BIGINT,
		demoted_nocall BIGINT,
		resumed BOOLEAN,
		wall_ms BIGINT,
		finished_at TIMESTAMP
	)`)
	return err
}

// UnitResult is one completed (sample, region) squaring unit.
type UnitResult struct {
	Sample        string
	Region        string
	Caller        string
	Targets       int64
	Kept          int64
	DemotedRef    int64
	DemotedNoCall int64
	Resumed       bool
	WallTime      time.Duration
}

// RecordUnit appends one unit row. Callers serialize writes through a
// single goroutine; the ledger itself takes no locks.
func (s *Store) RecordUnit(u UnitResult) error {
	_, err := s.db.Exec(
		`INSERT INTO unit_results VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Sample, u.Region, u.Caller, u.Targets, u.Kept,
		u.DemotedRef, u.DemotedNoCall, u.Resumed,
		u.WallTime.Milliseconds(), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("record unit %s %s: %w", u.Sample, u.Region, err)
	}
	return nil
}

// Units returns all recorded units ordered by region then sample.
func (s *Store) Units() ([]UnitResult, error) {
	rows, err := s.db.Query(
		`SELECT sample, region, caller, targets, kept, demoted_ref,
		        demoted_nocall, resumed, wall_ms
		 FROM unit_results ORDER BY region, sample`)
	if err != nil {
		return nil, fmt.Errorf("query units: %w", err)
	}
	defer rows.Close()

	var out []UnitResult
	for rows.Next() {
		var u UnitResult
		var wallMS int64
		if err := rows.Scan(&u.Sample, &u.Region, &u.Caller, &u.Targets,
			&u.Kept, &u.DemotedRef, &u.DemotedNoCall, &u.Resumed, &wallMS); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		u.WallTime = time.Duration(wallMS) * time.Millisecond
		out = append(out, u)
	}
	return out, rows.Err()
}
