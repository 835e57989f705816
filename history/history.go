// Package history persists one row per evaluation-round metric in a local
// sqlite database, so past runs can be inspected without replaying
// summary streams.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS eval_rounds (
	id INTEGER PRIMARY KEY,
	global_counter INTEGER NOT NULL,
	env_steps INTEGER NOT NULL,
	metric TEXT NOT NULL,
	value REAL NOT NULL,
	best INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_eval_rounds_metric ON eval_rounds (metric, global_counter);
`

// Store is the evaluation-history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	// The store has a single writer (the evaluator); serialize access so
	// the sqlite driver never sees concurrent writes.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating history db: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordRound inserts all metric values for one completed round.
func (s *Store) RecordRound(globalCounter, envSteps int64, values map[string]float64, best bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning history tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO eval_rounds (global_counter, env_steps, metric, value, best) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing history insert: %w", err)
	}
	defer stmt.Close()

	b := 0
	if best {
		b = 1
	}
	for metric, value := range values {
		if _, err := stmt.Exec(globalCounter, envSteps, metric, value, b); err != nil {
			return fmt.Errorf("inserting history row: %w", err)
		}
	}
	return tx.Commit()
}

// Round is one historical metric value.
type Round struct {
	GlobalCounter int64
	EnvSteps      int64
	Metric        string
	Value         float64
	Best          bool
}

// BestRound returns the most recent round flagged best for the given
// metric. sql.ErrNoRows if none exists yet.
func (s *Store) BestRound(metric string) (Round, error) {
	row := s.db.QueryRow(
		`SELECT global_counter, env_steps, metric, value, best FROM eval_rounds
		 WHERE metric = ? AND best = 1 ORDER BY global_counter DESC LIMIT 1`, metric)
	var r Round
	var best int
	if err := row.Scan(&r.GlobalCounter, &r.EnvSteps, &r.Metric, &r.Value, &best); err != nil {
		return Round{}, err
	}
	r.Best = best == 1
	return r, nil
}

// Rounds returns every row for a metric in global-counter order.
func (s *Store) Rounds(metric string) ([]Round, error) {
	rows, err := s.db.Query(
		`SELECT global_counter, env_steps, metric, value, best FROM eval_rounds
		 WHERE metric = ? ORDER BY global_counter ASC, id ASC`, metric)
	if err != nil {
		return nil, fmt.Errorf("querying history rounds: %w", err)
	}
	defer rows.Close()

	var out []Round
	for rows.Next() {
		var r Round
		var best int
		if err := rows.Scan(&r.GlobalCounter, &r.EnvSteps, &r.Metric, &r.Value, &best); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		r.Best = best == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
