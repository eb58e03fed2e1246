// Package csvsink persists trial records as tabular CSV in the layout the
// downstream analysis tooling expects. Column order and count must be
// preserved for compatibility.
package csvsink

import (
	"encoding/csv"
	"io"
	"strconv"

	"gostair/domain/trial"
	"gostair/internal/errors"
)

// header is the fixed column layout. Summary rows reuse the same column
// count with blank leading fields and key,value in the last two columns.
var header = []string{
	"trial", "referenceSide", "comparisonLevel", "response", "correct",
	"reactionTimeMs", "lowBound", "midValue", "highBound", "comment",
}

// Sink writes trial records to an underlying writer as CSV
type Sink struct {
	w             *csv.Writer
	closer        io.Closer
	headerWritten bool
}

// New creates a sink over w. If w is also an io.Closer, Close closes it.
func New(w io.Writer) *Sink {
	s := &Sink{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

func (s *Sink) writeHeader() error {
	if s.headerWritten {
		return nil
	}
	s.headerWritten = true
	return s.w.Write(header)
}

// Append writes one trial row
func (s *Sink) Append(rec trial.Record) error {
	if err := s.writeHeader(); err != nil {
		return errors.SinkError("failed to write csv header", err)
	}
	row := []string{
		strconv.Itoa(rec.Ordinal),
		string(rec.ReferenceSide),
		formatFloat(rec.ComparisonLevel),
		string(rec.Response),
		strconv.FormatBool(rec.Correct),
		strconv.FormatInt(rec.ReactionTime.Milliseconds(), 10),
		formatFloat(rec.LowBound),
		formatFloat(rec.MidValue),
		formatFloat(rec.HighBound),
		rec.Annotation,
	}
	if err := s.w.Write(row); err != nil {
		return errors.SinkError("failed to write trial row", err)
	}
	return nil
}

// AppendSummary writes a trailing summary row: blank leading fields with the
// key,value pair in the last two columns.
func (s *Sink) AppendSummary(key, value string) error {
	if err := s.writeHeader(); err != nil {
		return errors.SinkError("failed to write csv header", err)
	}
	row := make([]string, len(header))
	row[len(header)-2] = key
	row[len(header)-1] = value
	if err := s.w.Write(row); err != nil {
		return errors.SinkError("failed to write summary row", err)
	}
	return nil
}

// Flush pushes buffered rows to the underlying writer
func (s *Sink) Flush() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return errors.SinkError("failed to flush csv", err)
	}
	return nil
}

// Close flushes and closes the underlying writer when it is closable
func (s *Sink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
