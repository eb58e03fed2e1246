package ports

import "gostair/domain/trial"

// RecordSink receives immutable trial records and session summary pairs.
// Implementations own the persisted layout; Flush must be called before the
// sink's output is read.
type RecordSink interface {
	Append(rec trial.Record) error
	AppendSummary(key, value string) error
	Flush() error
}
