package testkit

import (
	"context"
	"sync"

	"gostair/domain/trial"
	"gostair/ports"
)

// ScriptedSubject plays a whole session from a correct/incorrect script. It
// doubles as the stimulus presenter (to learn which side holds the
// reference) and as both activation sources. On each trial it activates the
// side that yields the scripted outcome after a fixed number of samples; a
// nil entry in the script times the trial out.
//
// Outcome values: true = respond on the reference side, false = respond on
// the other side. Use Timeout() entries for no response at all.
type ScriptedSubject struct {
	mu           sync.Mutex
	script       []ScriptedOutcome
	pos          int
	refSide      trial.Side
	chosenSide   trial.Side
	respond      bool
	samplesUntil int
	sampleCount  int
}

// ScriptedOutcome is one trial's intent
type ScriptedOutcome struct {
	Respond bool // false times the trial out
	Correct bool
	// Latency in detector samples before the activation rises
	LatencySamples int
}

// Correct and Incorrect are shorthand outcome constructors
func Correct() ScriptedOutcome   { return ScriptedOutcome{Respond: true, Correct: true, LatencySamples: 2} }
func Incorrect() ScriptedOutcome { return ScriptedOutcome{Respond: true, Correct: false, LatencySamples: 2} }
func Timeout() ScriptedOutcome   { return ScriptedOutcome{} }

func NewScriptedSubject(script ...ScriptedOutcome) *ScriptedSubject {
	return &ScriptedSubject{script: script}
}

// Present records the reference side and arms the next scripted outcome.
// The sequencer presents the reference first, then the comparison.
func (s *ScriptedSubject) Present(_ context.Context, side trial.Side, stim ports.Stimulus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !stim.Reference {
		return nil
	}
	s.refSide = side
	s.sampleCount = 0
	if s.pos >= len(s.script) {
		s.respond = false
		return nil
	}
	outcome := s.script[s.pos]
	s.pos++
	s.respond = outcome.Respond
	s.samplesUntil = outcome.LatencySamples
	if outcome.Correct {
		s.chosenSide = side
	} else {
		s.chosenSide = side.Other()
	}
	return nil
}

// Source returns the activation source for one side
func (s *ScriptedSubject) Source(side trial.Side) ports.ActivationSource {
	return &subjectSource{subject: s, side: side}
}

type subjectSource struct {
	subject *ScriptedSubject
	side    trial.Side
}

func (src *subjectSource) Name() string { return "scripted-" + string(src.side) }

func (src *subjectSource) Activation() (float64, error) {
	s := src.subject
	s.mu.Lock()
	defer s.mu.Unlock()
	// Count samples once per detector pass; the detector polls left first.
	if src.side == trial.SideLeft {
		s.sampleCount++
	}
	if !s.respond || src.side != s.chosenSide {
		return 0, nil
	}
	if s.sampleCount > s.samplesUntil {
		return 1, nil
	}
	return 0, nil
}
