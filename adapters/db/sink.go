package db

import (
	"context"

	"gostair/domain/core"
	"gostair/domain/trial"
	"gostair/internal/errors"
)

// SessionSink adapts the store to the record-sink port for one session. The
// sequencer is single-threaded, so no locking is needed here.
type SessionSink struct {
	store     *Store
	sessionID core.SessionID
	ctx       context.Context
}

// SinkForSession creates a record sink bound to a session id. The context
// bounds every write issued through the sink.
func (s *Store) SinkForSession(ctx context.Context, id core.SessionID) *SessionSink {
	return &SessionSink{store: s, sessionID: id, ctx: ctx}
}

// Append inserts one trial record
func (k *SessionSink) Append(rec trial.Record) error {
	_, err := k.store.db.ExecContext(k.ctx, k.store.db.Rebind(`
		INSERT INTO trials (session_id, ordinal, phase, reference_side,
			comparison_level, response, correct, reaction_time_ms,
			reversal_count, low_bound, mid_value, high_bound, annotation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), k.sessionID.String(), rec.Ordinal, string(rec.Phase), string(rec.ReferenceSide),
		rec.ComparisonLevel, string(rec.Response), rec.Correct,
		rec.ReactionTime.Milliseconds(), rec.ReversalCount,
		rec.LowBound, rec.MidValue, rec.HighBound, rec.Annotation)
	if err != nil {
		return errors.SinkError("failed to insert trial record", err)
	}
	return nil
}

// AppendSummary upserts one summary key/value pair
func (k *SessionSink) AppendSummary(key, value string) error {
	_, err := k.store.db.ExecContext(k.ctx, k.store.db.Rebind(`
		INSERT INTO session_summaries (session_id, key, value)
		VALUES (?, ?, ?)
	`), k.sessionID.String(), key, value)
	if err != nil {
		return errors.SinkError("failed to insert session summary", err)
	}
	return nil
}

// Flush is a no-op; writes are not buffered
func (k *SessionSink) Flush() error {
	return nil
}
