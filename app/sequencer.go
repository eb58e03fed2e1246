package app

import (
	"context"
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	"gostair/domain/core"
	"gostair/domain/ladder"
	"gostair/domain/staircase"
	"gostair/domain/trial"
	"gostair/internal/detect"
	"gostair/internal/errors"
	"gostair/ports"
)

// SequencerState names the phases of the trial state machine. Transitions
// are linear: Idle -> IntroTrial -> AdaptiveTrial -> Complete.
type SequencerState string

const (
	StateIdle          SequencerState = "idle"
	StateIntroTrial    SequencerState = "intro"
	StateAdaptiveTrial SequencerState = "adaptive"
	StateComplete      SequencerState = "complete"
)

// SequencerConfig carries the per-session settings the sequencer needs
type SequencerConfig struct {
	SessionID          core.SessionID
	IntroLevels        []float64
	StartLevel         float64
	ReferencePool      []string
	TrialTimeout       time.Duration
	InterTrialInterval time.Duration
	SamplingInterval   time.Duration
}

// Snapshot is the read-only view published for diagnostics between trials.
// Diagnostic consumers never drive or mutate the experiment.
type Snapshot struct {
	SessionID      string           `json:"sessionId"`
	State          SequencerState   `json:"state"`
	TrialsEmitted  int              `json:"trialsEmitted"`
	Staircase      *staircase.State `json:"staircase,omitempty"`
	LastRecord     *trial.Record    `json:"lastRecord,omitempty"`
	SourceFailures map[string]int   `json:"sourceFailures,omitempty"`
}

// Sequencer orchestrates intro and adaptive phases, drives each trial to
// completion against the detector, feeds the staircase engine, and emits
// immutable records to the sink. It owns the engine and ladder exclusively
// while a trial is in flight.
type Sequencer struct {
	cfg       SequencerConfig
	lad       *ladder.Ladder
	params    staircase.Params
	detector  *detect.Detector
	presenter ports.StimulusPresenter
	sink      ports.RecordSink
	clock     ports.Clock
	rng       ports.RNG

	engine  *staircase.Engine
	state   SequencerState
	ordinal int
	lastRef string

	snapshot atomic.Pointer[Snapshot]
}

// NewSequencer wires a sequencer from its collaborators. The staircase
// engine is created lazily at the intro->adaptive transition.
func NewSequencer(
	cfg SequencerConfig,
	lad *ladder.Ladder,
	params staircase.Params,
	detector *detect.Detector,
	presenter ports.StimulusPresenter,
	sink ports.RecordSink,
	clock ports.Clock,
	rng ports.RNG,
) (*Sequencer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if cfg.SamplingInterval <= 0 {
		return nil, errors.ConfigInvalid("sampling interval must be > 0")
	}
	if cfg.TrialTimeout <= 0 {
		return nil, errors.ConfigInvalid("trial timeout must be > 0")
	}
	s := &Sequencer{
		cfg:       cfg,
		lad:       lad,
		params:    params,
		detector:  detector,
		presenter: presenter,
		sink:      sink,
		clock:     clock,
		rng:       rng,
		state:     StateIdle,
	}
	if len(s.cfg.ReferencePool) == 0 {
		// recoverable: fall back to a single default reference
		log.Printf("warning: empty reference pool, falling back to default instance")
		s.cfg.ReferencePool = []string{"default"}
	}
	s.publishSnapshot(nil)
	return s, nil
}

// Snapshot returns the latest published diagnostics view
func (s *Sequencer) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Run executes the whole session: the fixed intro trials, then adaptive
// trials until the staircase stop condition holds. It returns the final
// threshold estimate via the summary. Context is honored only between
// trials; within a trial the only cancellation is the response deadline.
func (s *Sequencer) Run(ctx context.Context) (*trial.Summary, error) {
	if s.state != StateIdle {
		return nil, errors.InvalidInput("sequencer already ran")
	}

	sideRNG := s.rng.Stream("side-assignment")
	refRNG := s.rng.Stream("reference-selection")

	var records []trial.Record

	s.state = StateIntroTrial
	for _, level := range s.cfg.IntroLevels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := s.runTrial(ctx, trial.PhaseIntro, level, sideRNG, refRNG)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		s.publishSnapshot(&rec)
		s.clock.Sleep(s.cfg.InterTrialInterval)
	}

	engine, err := staircase.New(s.params, s.lad, s.lad.NearestIndex(s.cfg.StartLevel))
	if err != nil {
		return nil, err
	}
	s.engine = engine

	s.state = StateAdaptiveTrial
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		level := s.lad.LevelAt(s.engine.Index())
		rec, err := s.runTrial(ctx, trial.PhaseAdaptive, level, sideRNG, refRNG)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		s.engine.Update(rec.Correct)
		s.publishSnapshot(&rec)
		if s.engine.ShouldStop() {
			break
		}
		s.clock.Sleep(s.cfg.InterTrialInterval)
	}

	s.state = StateComplete
	s.publishSnapshot(nil)
	return s.finish(records)
}

// runTrial drives one trial to completion and emits its record
func (s *Sequencer) runTrial(ctx context.Context, phase trial.Phase, level float64, sideRNG, refRNG *rand.Rand) (trial.Record, error) {
	instance := s.pickReference(refRNG)
	refSide := trial.SideLeft
	if sideRNG.Intn(2) == 1 {
		refSide = trial.SideRight
	}

	s.detector.ResetLatches()

	if err := s.presenter.Present(ctx, refSide, ports.Stimulus{Reference: true, Instance: instance}); err != nil {
		return trial.Record{}, errors.Wrap(err, "failed to present reference stimulus")
	}
	if err := s.presenter.Present(ctx, refSide.Other(), ports.Stimulus{Level: level}); err != nil {
		return trial.Record{}, errors.Wrap(err, "failed to present comparison stimulus")
	}

	response, reaction := s.awaitResponse()

	correct := false
	if side, ok := response.Side(); ok {
		correct = side == refSide
	}

	s.ordinal++
	rec := trial.Record{
		Ordinal:         s.ordinal,
		Phase:           phase,
		ReferenceSide:   refSide,
		ComparisonLevel: level,
		Response:        response,
		Correct:         correct,
		ReactionTime:    reaction,
	}
	if phase == trial.PhaseAdaptive {
		snap := s.engine.Snapshot()
		rec.ReversalCount = snap.ReversalCount
		rec.LowBound, rec.MidValue, rec.HighBound = s.engine.EstimateBounds()
	} else {
		rec.Annotation = "intro"
	}

	if err := s.sink.Append(rec); err != nil {
		return trial.Record{}, errors.SinkError("failed to append trial record", err)
	}
	return rec, nil
}

// awaitResponse polls the detector each sampling tick until a rising edge on
// either side or the timeout deadline, whichever occurs first. Exactly one
// outcome results; a timeout is a normal trial outcome, not an error.
func (s *Sequencer) awaitResponse() (trial.Response, time.Duration) {
	start := s.clock.Now()
	deadline := start.Add(s.cfg.TrialTimeout)
	for {
		if side, ok := s.detector.Sample(); ok {
			rt := s.clock.Now().Sub(start)
			if side == trial.SideLeft {
				return trial.ResponseLeft, rt
			}
			return trial.ResponseRight, rt
		}
		if !s.clock.Now().Before(deadline) {
			return trial.ResponseTimeout, s.cfg.TrialTimeout
		}
		s.clock.Sleep(s.cfg.SamplingInterval)
	}
}

// pickReference selects a reference instance, excluding the one used in the
// immediately preceding trial. A single-element pool repeats unavoidably.
func (s *Sequencer) pickReference(rng *rand.Rand) string {
	pool := s.cfg.ReferencePool
	if len(pool) > 1 && s.lastRef != "" {
		filtered := make([]string, 0, len(pool)-1)
		for _, inst := range pool {
			if inst != s.lastRef {
				filtered = append(filtered, inst)
			}
		}
		pool = filtered
	}
	choice := pool[rng.Intn(len(pool))]
	s.lastRef = choice
	return choice
}

// finish computes the summary, appends the summary rows, and flushes
func (s *Sequencer) finish(records []trial.Record) (*trial.Summary, error) {
	estimate := s.engine.Estimate()
	summary := ComputeSummary(s.cfg.SessionID.String(), records, estimate, s.clock.Now())
	summary.Reversals = s.engine.Snapshot().ReversalCount

	if err := s.sink.AppendSummary("JND", formatLevel(estimate)); err != nil {
		return nil, errors.SinkError("failed to append summary", err)
	}
	if err := s.sink.Flush(); err != nil {
		return nil, errors.SinkError("failed to flush record sink", err)
	}
	return summary, nil
}

func (s *Sequencer) publishSnapshot(last *trial.Record) {
	snap := &Snapshot{
		SessionID:      s.cfg.SessionID.String(),
		State:          s.state,
		TrialsEmitted:  s.ordinal,
		LastRecord:     last,
		SourceFailures: s.detector.Failures(),
	}
	if s.engine != nil {
		st := s.engine.Snapshot()
		snap.Staircase = &st
	}
	s.snapshot.Store(snap)
}
