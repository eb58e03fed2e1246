package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostair/adapters/rng"
	"gostair/domain/core"
	"gostair/domain/ladder"
	"gostair/domain/staircase"
	"gostair/domain/trial"
	"gostair/internal/detect"
	"gostair/internal/testkit"
	"gostair/ports"
)

func referenceLadder(t *testing.T) *ladder.Ladder {
	t.Helper()
	levels := []float64{1024, 512, 256, 128, 64, 32, 16, 8, 4}
	lad, err := ladder.Build(levels, levels)
	require.NoError(t, err)
	return lad
}

func referenceParams() staircase.Params {
	return staircase.Params{
		NCorrectToStepUp:   2,
		UpStepMultiplier:   1.0,
		DownStepMultiplier: 1.0,
		InitialStep:        1,
		MinStep:            1,
		TargetReversals:    2,
		MaxTrials:          50,
	}
}

func referenceConfig() SequencerConfig {
	return SequencerConfig{
		SessionID:          core.NewSessionID(),
		StartLevel:         64,
		ReferencePool:      []string{"bricks004", "bricks101", "rock062"},
		TrialTimeout:       10 * time.Second,
		InterTrialInterval: 500 * time.Millisecond,
		SamplingInterval:   10 * time.Millisecond,
	}
}

func newTestSequencer(t *testing.T, cfg SequencerConfig, params staircase.Params, subject *testkit.ScriptedSubject, sink ports.RecordSink) *Sequencer {
	t.Helper()
	detector := detect.New(
		[]ports.ActivationSource{subject.Source(trial.SideLeft)},
		[]ports.ActivationSource{subject.Source(trial.SideRight)},
	)
	seq, err := NewSequencer(cfg, referenceLadder(t), params, detector,
		subject, sink, testkit.NewFakeClock(), rng.New(42))
	require.NoError(t, err)
	return seq
}

// The reference trace from the staircase procedure, driven end to end
// through the sequencer: C,C,I,I,C,C with targetReversals=2 stops after the
// second reversal with an estimate of 80.
func TestRunReferenceSession(t *testing.T) {
	subject := testkit.NewScriptedSubject(
		testkit.Correct(), testkit.Correct(),
		testkit.Incorrect(), testkit.Incorrect(),
		testkit.Correct(), testkit.Correct(),
	)
	sink := testkit.NewMemorySink()
	seq := newTestSequencer(t, referenceConfig(), referenceParams(), subject, sink)

	summary, err := seq.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, summary.AdaptiveTrials)
	assert.Equal(t, 0, summary.IntroTrials)
	assert.Equal(t, 2, summary.Reversals)
	assert.InDelta(t, 80.0, summary.ThresholdEstimate, 1e-9)

	require.Len(t, sink.Records, 6)
	wantLevels := []float64{64, 64, 128, 64, 32, 32}
	for i, rec := range sink.Records {
		assert.Equal(t, i+1, rec.Ordinal)
		assert.Equal(t, trial.PhaseAdaptive, rec.Phase)
		assert.Equal(t, wantLevels[i], rec.ComparisonLevel, "trial %d", i+1)
	}

	// correctness follows the script regardless of side assignment
	wantCorrect := []bool{true, true, false, false, true, true}
	for i, rec := range sink.Records {
		assert.Equal(t, wantCorrect[i], rec.Correct, "trial %d", i+1)
	}

	require.Len(t, sink.Summaries, 1)
	assert.Equal(t, "JND", sink.Summaries[0][0])
	assert.Equal(t, "80", sink.Summaries[0][1])
	assert.Equal(t, 1, sink.Flushed)
}

func TestIntroTrialsRunFirstAndNeverTouchStaircase(t *testing.T) {
	cfg := referenceConfig()
	cfg.IntroLevels = []float64{1024, 512}

	subject := testkit.NewScriptedSubject(
		// intro answers: one right, one wrong; must not move the staircase
		testkit.Correct(), testkit.Incorrect(),
		// adaptive: walk to the stop condition
		testkit.Correct(), testkit.Correct(),
		testkit.Incorrect(), testkit.Incorrect(),
		testkit.Correct(), testkit.Correct(),
	)
	sink := testkit.NewMemorySink()
	seq := newTestSequencer(t, cfg, referenceParams(), subject, sink)

	summary, err := seq.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.IntroTrials)
	assert.Equal(t, 6, summary.AdaptiveTrials)

	require.GreaterOrEqual(t, len(sink.Records), 3)
	assert.Equal(t, trial.PhaseIntro, sink.Records[0].Phase)
	assert.Equal(t, 1024.0, sink.Records[0].ComparisonLevel)
	assert.Equal(t, "intro", sink.Records[0].Annotation)
	assert.Equal(t, trial.PhaseIntro, sink.Records[1].Phase)
	assert.Equal(t, 512.0, sink.Records[1].ComparisonLevel)

	// first adaptive trial starts at the configured start level: the intro
	// incorrect did not push the staircase easier
	assert.Equal(t, trial.PhaseAdaptive, sink.Records[2].Phase)
	assert.Equal(t, 64.0, sink.Records[2].ComparisonLevel)
}

func TestTimeoutScoresIncorrectAndBreaksStreak(t *testing.T) {
	cfg := referenceConfig()
	cfg.TrialTimeout = 200 * time.Millisecond

	subject := testkit.NewScriptedSubject(
		testkit.Correct(),
		testkit.Timeout(),
		testkit.Correct(), testkit.Correct(),
		testkit.Incorrect(), testkit.Incorrect(),
		testkit.Correct(), testkit.Correct(),
	)
	sink := testkit.NewMemorySink()
	seq := newTestSequencer(t, cfg, referenceParams(), subject, sink)

	summary, err := seq.Run(context.Background())
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(sink.Records), 2)
	timeoutRec := sink.Records[1]
	assert.Equal(t, trial.ResponseTimeout, timeoutRec.Response)
	assert.False(t, timeoutRec.Correct, "timeout always scores incorrect")
	assert.Equal(t, cfg.TrialTimeout, timeoutRec.ReactionTime)
	assert.Equal(t, 1, summary.Timeouts)

	// the timeout moved the index easier: next trial is at level 32, and
	// the interrupted streak never produced a step-up at trial 2
	assert.Equal(t, 64.0, sink.Records[1].ComparisonLevel)
	assert.Equal(t, 32.0, sink.Records[2].ComparisonLevel)
}

func TestReferencePoolNeverRepeatsImmediately(t *testing.T) {
	script := make([]testkit.ScriptedOutcome, 0, 30)
	for i := 0; i < 30; i++ {
		script = append(script, testkit.Correct())
	}
	cfg := referenceConfig()
	cfg.StartLevel = 4 // easiest; correct streak clamps at the easy ladder end quickly

	subject := testkit.NewScriptedSubject(script...)
	sink := testkit.NewMemorySink()

	detector := detect.New(
		[]ports.ActivationSource{subject.Source(trial.SideLeft)},
		[]ports.ActivationSource{subject.Source(trial.SideRight)},
	)
	presenterSpy := &referenceSpy{inner: subject}
	seq, err := NewSequencer(cfg, referenceLadder(t), referenceParams(), detector,
		presenterSpy, sink, testkit.NewFakeClock(), rng.New(42))
	require.NoError(t, err)

	_, err = seq.Run(context.Background())
	require.NoError(t, err)

	require.Greater(t, len(presenterSpy.instances), 2)
	for i := 1; i < len(presenterSpy.instances); i++ {
		assert.NotEqual(t, presenterSpy.instances[i-1], presenterSpy.instances[i],
			"reference instance repeated at trial %d", i+1)
	}
}

// referenceSpy records reference instances while delegating presentation
type referenceSpy struct {
	inner     ports.StimulusPresenter
	instances []string
}

func (r *referenceSpy) Present(ctx context.Context, side trial.Side, stim ports.Stimulus) error {
	if stim.Reference {
		r.instances = append(r.instances, stim.Instance)
	}
	return r.inner.Present(ctx, side, stim)
}

func TestSingleElementPoolRepeats(t *testing.T) {
	cfg := referenceConfig()
	cfg.ReferencePool = []string{"only"}

	subject := testkit.NewScriptedSubject(
		testkit.Correct(), testkit.Correct(),
		testkit.Incorrect(), testkit.Incorrect(),
		testkit.Correct(), testkit.Correct(),
	)
	sink := testkit.NewMemorySink()
	seq := newTestSequencer(t, cfg, referenceParams(), subject, sink)

	_, err := seq.Run(context.Background())
	require.NoError(t, err)
}

func TestEmptyPoolFallsBackToDefault(t *testing.T) {
	cfg := referenceConfig()
	cfg.ReferencePool = nil

	subject := testkit.NewScriptedSubject(
		testkit.Correct(), testkit.Correct(),
		testkit.Incorrect(), testkit.Incorrect(),
		testkit.Correct(), testkit.Correct(),
	)
	sink := testkit.NewMemorySink()
	seq := newTestSequencer(t, cfg, referenceParams(), subject, sink)

	_, err := seq.Run(context.Background())
	require.NoError(t, err, "empty pool is recoverable, not fatal")
}

func TestSequencerRunsOnlyOnce(t *testing.T) {
	subject := testkit.NewScriptedSubject(
		testkit.Correct(), testkit.Correct(),
		testkit.Incorrect(), testkit.Incorrect(),
		testkit.Correct(), testkit.Correct(),
	)
	sink := testkit.NewMemorySink()
	seq := newTestSequencer(t, referenceConfig(), referenceParams(), subject, sink)

	_, err := seq.Run(context.Background())
	require.NoError(t, err)
	_, err = seq.Run(context.Background())
	assert.Error(t, err)
}

func TestSnapshotPublishedBetweenTrials(t *testing.T) {
	subject := testkit.NewScriptedSubject(
		testkit.Correct(), testkit.Correct(),
		testkit.Incorrect(), testkit.Incorrect(),
		testkit.Correct(), testkit.Correct(),
	)
	sink := testkit.NewMemorySink()
	seq := newTestSequencer(t, referenceConfig(), referenceParams(), subject, sink)

	snap := seq.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, StateIdle, snap.State)

	_, err := seq.Run(context.Background())
	require.NoError(t, err)

	snap = seq.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, StateComplete, snap.State)
	assert.Equal(t, 6, snap.TrialsEmitted)
	require.NotNil(t, snap.Staircase)
	assert.Equal(t, 2, snap.Staircase.ReversalCount)
}

func TestAdaptiveRecordsCarryStaircaseTrace(t *testing.T) {
	subject := testkit.NewScriptedSubject(
		testkit.Correct(), testkit.Correct(),
		testkit.Incorrect(), testkit.Incorrect(),
		testkit.Correct(), testkit.Correct(),
	)
	sink := testkit.NewMemorySink()
	seq := newTestSequencer(t, referenceConfig(), referenceParams(), subject, sink)

	_, err := seq.Run(context.Background())
	require.NoError(t, err)

	// trial 4 runs after the first reversal (recorded at index 3, level 128)
	rec := sink.Records[3]
	assert.Equal(t, 1, rec.ReversalCount)
	assert.Equal(t, 128.0, rec.MidValue, "single reversal window")
	assert.Equal(t, rec.LowBound, rec.HighBound)

	// trial 1 runs before any reversal: bounds collapse to the current level
	first := sink.Records[0]
	assert.Equal(t, 0, first.ReversalCount)
	assert.Equal(t, 64.0, first.MidValue)
}

func TestContextCancellationStopsBetweenTrials(t *testing.T) {
	subject := testkit.NewScriptedSubject(
		testkit.Correct(), testkit.Correct(),
		testkit.Incorrect(), testkit.Incorrect(),
		testkit.Correct(), testkit.Correct(),
	)
	sink := testkit.NewMemorySink()
	seq := newTestSequencer(t, referenceConfig(), referenceParams(), subject, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := seq.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.Records)
}
