package app

import (
	"gostair/domain/trial"
	"gostair/ports"
)

// MultiSink fans records out to several sinks; the first error wins
type MultiSink struct {
	sinks []ports.RecordSink
}

func NewMultiSink(sinks ...ports.RecordSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Append(rec trial.Record) error {
	for _, s := range m.sinks {
		if err := s.Append(rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSink) AppendSummary(key, value string) error {
	for _, s := range m.sinks {
		if err := s.AppendSummary(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSink) Flush() error {
	for _, s := range m.sinks {
		if err := s.Flush(); err != nil {
			return err
		}
	}
	return nil
}
