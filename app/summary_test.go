package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gostair/domain/trial"
)

func TestComputeSummary(t *testing.T) {
	records := []trial.Record{
		{Phase: trial.PhaseIntro, Correct: true, Response: trial.ResponseLeft, ReactionTime: 400 * time.Millisecond},
		{Phase: trial.PhaseIntro, Correct: false, Response: trial.ResponseRight, ReactionTime: 600 * time.Millisecond},
		{Phase: trial.PhaseAdaptive, Correct: true, Response: trial.ResponseLeft, ReactionTime: 500 * time.Millisecond},
		{Phase: trial.PhaseAdaptive, Correct: false, Response: trial.ResponseTimeout, ReactionTime: 10 * time.Second},
		{Phase: trial.PhaseAdaptive, Correct: true, Response: trial.ResponseRight, ReactionTime: 700 * time.Millisecond, ReversalCount: 2},
	}

	now := time.Now()
	summary := ComputeSummary("s-1", records, 80, now)

	assert.Equal(t, 2, summary.IntroTrials)
	assert.Equal(t, 3, summary.AdaptiveTrials)
	assert.Equal(t, 1, summary.Timeouts)
	assert.Equal(t, 2, summary.Reversals)
	assert.InDelta(t, 0.5, summary.AccuracyIntro, 1e-9)
	assert.InDelta(t, 2.0/3.0, summary.AccuracyAdaptive, 1e-9)
	assert.InDelta(t, 80.0, summary.ThresholdEstimate, 1e-9)

	// timeouts carry no reaction time: mean over 400, 600, 500, 700
	assert.InDelta(t, 550, summary.MeanReactionMs, 1e-9)
	assert.InDelta(t, 550, summary.MedianReactionMs, 1e-9)
	assert.Equal(t, now, summary.CompletedAt)
}

func TestComputeSummaryEmpty(t *testing.T) {
	summary := ComputeSummary("s-2", nil, 0, time.Now())
	assert.Zero(t, summary.IntroTrials)
	assert.Zero(t, summary.MeanReactionMs)
}
