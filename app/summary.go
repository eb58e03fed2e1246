package app

import (
	"strconv"
	"time"

	"github.com/montanaflynn/stats"

	"gostair/domain/trial"
)

// ComputeSummary aggregates a completed session's records into a summary.
// Reaction-time statistics exclude timeouts, which carry no real reaction.
func ComputeSummary(sessionID string, records []trial.Record, estimate float64, completedAt time.Time) *trial.Summary {
	summary := &trial.Summary{
		SessionID:         sessionID,
		ThresholdEstimate: estimate,
		CompletedAt:       completedAt,
	}

	var introCorrect, adaptiveCorrect int
	var reactions []float64
	for _, rec := range records {
		switch rec.Phase {
		case trial.PhaseIntro:
			summary.IntroTrials++
			if rec.Correct {
				introCorrect++
			}
		case trial.PhaseAdaptive:
			summary.AdaptiveTrials++
			if rec.Correct {
				adaptiveCorrect++
			}
			if rec.ReversalCount > summary.Reversals {
				summary.Reversals = rec.ReversalCount
			}
		}
		if rec.Response == trial.ResponseTimeout {
			summary.Timeouts++
			continue
		}
		reactions = append(reactions, float64(rec.ReactionTime.Milliseconds()))
	}

	if summary.IntroTrials > 0 {
		summary.AccuracyIntro = float64(introCorrect) / float64(summary.IntroTrials)
	}
	if summary.AdaptiveTrials > 0 {
		summary.AccuracyAdaptive = float64(adaptiveCorrect) / float64(summary.AdaptiveTrials)
	}
	if len(reactions) > 0 {
		summary.MeanReactionMs, _ = stats.Mean(reactions)
		summary.MedianReactionMs, _ = stats.Median(reactions)
		summary.StdDevReactionMs, _ = stats.StandardDeviation(reactions)
	}
	return summary
}

func formatLevel(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
