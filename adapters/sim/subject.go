// Package sim provides a simulated subject for dry runs and demos. The
// subject answers each trial from a cumulative-normal psychometric model, so
// staircase runs against it converge near the model's threshold.
package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"gostair/domain/trial"
	"gostair/ports"
)

// Model parameterizes the simulated observer
type Model struct {
	// Threshold is the level at which discrimination sits at 75% correct
	Threshold float64
	// Slope controls how quickly accuracy changes around the threshold
	Slope float64
	// Lapse is the probability of a random answer regardless of level
	Lapse float64
	// MeanLatency and LatencyJitter shape the simulated reaction time
	MeanLatency   time.Duration
	LatencyJitter time.Duration
}

// Subject implements both the stimulus presenter and the two activation
// sources. On the comparison presentation it decides which side it will
// select and after what latency; the sources then report the rising
// activation once that latency has elapsed.
type Subject struct {
	model Model
	clock ports.Clock
	rng   *rand.Rand

	mu         sync.Mutex
	refSide    trial.Side
	chosenSide trial.Side
	decideAt   time.Time
	armed      bool
}

// NewSubject creates a simulated subject driven by the given seeded stream
func NewSubject(model Model, clock ports.Clock, rng *rand.Rand) *Subject {
	return &Subject{model: model, clock: clock, rng: rng}
}

// Present implements ports.StimulusPresenter. The reference presentation
// records the side; the comparison presentation makes the decision.
func (s *Subject) Present(_ context.Context, side trial.Side, stim ports.Stimulus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stim.Reference {
		s.refSide = side
		s.armed = false
		return nil
	}
	s.decide(stim.Level)
	return nil
}

// decide picks the answer side from the psychometric model. Levels are
// difficulty magnitudes: accuracy falls toward chance as the level grows
// past the threshold and saturates toward ceiling below it.
func (s *Subject) decide(level float64) {
	pCorrect := 0.5 + 0.5*distuv.Normal{Mu: s.model.Threshold, Sigma: s.model.Slope}.Survival(level)
	if s.rng.Float64() < s.model.Lapse {
		pCorrect = 0.5
	}

	if s.rng.Float64() < pCorrect {
		s.chosenSide = s.refSide
	} else {
		s.chosenSide = s.refSide.Other()
	}

	latency := s.model.MeanLatency
	if s.model.LatencyJitter > 0 {
		latency += time.Duration(s.rng.Int63n(int64(s.model.LatencyJitter)))
	}
	s.decideAt = s.clock.Now().Add(latency)
	s.armed = true
}

// Source returns the activation source for one side
func (s *Subject) Source(side trial.Side) ports.ActivationSource {
	return &subjectSource{subject: s, side: side}
}

type subjectSource struct {
	subject *Subject
	side    trial.Side
}

func (src *subjectSource) Name() string { return "sim-" + string(src.side) }

func (src *subjectSource) Activation() (float64, error) {
	s := src.subject
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.armed || src.side != s.chosenSide {
		return 0, nil
	}
	if s.clock.Now().Before(s.decideAt) {
		return 0, nil
	}
	return 1, nil
}
