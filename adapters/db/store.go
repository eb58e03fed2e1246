// Package db persists sessions and trial records through sqlx. Both
// PostgreSQL (lib/pq) and file-backed SQLite (modernc.org/sqlite) are
// supported; queries are written with ? bindvars and rebound per driver.
package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"gostair/domain/core"
	"gostair/domain/trial"
	"gostair/internal/config"
	"gostair/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	seed          BIGINT NOT NULL,
	started_at    TIMESTAMP NOT NULL,
	completed_at  TIMESTAMP
);

CREATE TABLE IF NOT EXISTS trials (
	session_id        TEXT NOT NULL REFERENCES sessions(id),
	ordinal           INTEGER NOT NULL,
	phase             TEXT NOT NULL,
	reference_side    TEXT NOT NULL,
	comparison_level  DOUBLE PRECISION NOT NULL,
	response          TEXT NOT NULL,
	correct           BOOLEAN NOT NULL,
	reaction_time_ms  BIGINT NOT NULL,
	reversal_count    INTEGER NOT NULL,
	low_bound         DOUBLE PRECISION NOT NULL,
	mid_value         DOUBLE PRECISION NOT NULL,
	high_bound        DOUBLE PRECISION NOT NULL,
	annotation        TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (session_id, ordinal)
);

CREATE TABLE IF NOT EXISTS session_summaries (
	session_id  TEXT NOT NULL REFERENCES sessions(id),
	key         TEXT NOT NULL,
	value       TEXT NOT NULL,
	PRIMARY KEY (session_id, key)
);
`

// trialRow maps the trials table
type trialRow struct {
	SessionID       string  `db:"session_id"`
	Ordinal         int     `db:"ordinal"`
	Phase           string  `db:"phase"`
	ReferenceSide   string  `db:"reference_side"`
	ComparisonLevel float64 `db:"comparison_level"`
	Response        string  `db:"response"`
	Correct         bool    `db:"correct"`
	ReactionTimeMs  int64   `db:"reaction_time_ms"`
	ReversalCount   int     `db:"reversal_count"`
	LowBound        float64 `db:"low_bound"`
	MidValue        float64 `db:"mid_value"`
	HighBound       float64 `db:"high_bound"`
	Annotation      string  `db:"annotation"`
}

// Store provides session and trial persistence
type Store struct {
	db *sqlx.DB
}

// Open connects the configured driver and ensures the schema exists
func Open(cfg config.DatabaseConfig) (*Store, error) {
	db, err := sqlx.Connect(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect %s database", cfg.Driver)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession registers a new session row
func (s *Store) CreateSession(ctx context.Context, id core.SessionID, name string, seed int64, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO sessions (id, name, seed, started_at)
		VALUES (?, ?, ?, ?)
	`), id.String(), name, seed, startedAt)
	if err != nil {
		return errors.Wrap(err, "failed to create session")
	}
	return nil
}

// CompleteSession stamps the session's completion time
func (s *Store) CompleteSession(ctx context.Context, id core.SessionID, completedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE sessions SET completed_at = ? WHERE id = ?
	`), completedAt, id.String())
	if err != nil {
		return errors.Wrap(err, "failed to complete session")
	}
	return nil
}

// ListTrials returns a session's records in trial order
func (s *Store) ListTrials(ctx context.Context, id core.SessionID) ([]trial.Record, error) {
	var rows []trialRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT session_id, ordinal, phase, reference_side, comparison_level,
		       response, correct, reaction_time_ms, reversal_count,
		       low_bound, mid_value, high_bound, annotation
		FROM trials WHERE session_id = ? ORDER BY ordinal
	`), id.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to list trials")
	}
	records := make([]trial.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, trial.Record{
			Ordinal:         r.Ordinal,
			Phase:           trial.Phase(r.Phase),
			ReferenceSide:   trial.Side(r.ReferenceSide),
			ComparisonLevel: r.ComparisonLevel,
			Response:        trial.Response(r.Response),
			Correct:         r.Correct,
			ReactionTime:    time.Duration(r.ReactionTimeMs) * time.Millisecond,
			ReversalCount:   r.ReversalCount,
			LowBound:        r.LowBound,
			MidValue:        r.MidValue,
			HighBound:       r.HighBound,
			Annotation:      r.Annotation,
		})
	}
	return records, nil
}

// ListSummaries returns a session's summary key/value pairs
func (s *Store) ListSummaries(ctx context.Context, id core.SessionID) (map[string]string, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT key, value FROM session_summaries WHERE session_id = ?
	`), id.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to list summaries")
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}
