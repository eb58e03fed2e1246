// Package testkit provides deterministic fakes for sequencer and detector
// tests: scripted activation sources, an instantly advancing clock, an
// in-memory record sink, and a scripted subject that answers trials
// according to a fixed correct/incorrect script.
package testkit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gostair/domain/trial"
	"gostair/ports"
)

// ScriptedSource replays a fixed sequence of activation values, then holds
// the last value forever. An empty script holds zero.
type ScriptedSource struct {
	name   string
	values []float64
	pos    int
}

func NewScriptedSource(name string, values ...float64) *ScriptedSource {
	return &ScriptedSource{name: name, values: values}
}

func (s *ScriptedSource) Name() string { return s.name }

func (s *ScriptedSource) Activation() (float64, error) {
	if len(s.values) == 0 {
		return 0, nil
	}
	if s.pos >= len(s.values) {
		return s.values[len(s.values)-1], nil
	}
	v := s.values[s.pos]
	s.pos++
	return v, nil
}

// FailingSource always errors, for degradation tests
type FailingSource struct {
	name string
}

func NewFailingSource(name string) *FailingSource { return &FailingSource{name: name} }

func (s *FailingSource) Name() string { return s.name }

func (s *FailingSource) Activation() (float64, error) {
	return 0, fmt.Errorf("source %s unavailable", s.name)
}

// FakeClock advances instantly on Sleep so trial loops run without waiting
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2025, 10, 20, 0, 39, 15, 0, time.UTC)}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MemorySink collects records and summaries in memory
type MemorySink struct {
	mu        sync.Mutex
	Records   []trial.Record
	Summaries [][2]string
	Flushed   int
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (m *MemorySink) Append(rec trial.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, rec)
	return nil
}

func (m *MemorySink) AppendSummary(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Summaries = append(m.Summaries, [2]string{key, value})
	return nil
}

func (m *MemorySink) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Flushed++
	return nil
}

// NopPresenter accepts every presentation
type NopPresenter struct{}

func (NopPresenter) Present(context.Context, trial.Side, ports.Stimulus) error { return nil }
