// Package analysis provides post-session psychometrics: per-level response
// binning, cumulative-normal and logistic psychometric fits, and a
// model-free interpolated threshold. Staircase data concentrates trials
// near the threshold, so fits are weighted by per-level trial counts.
package analysis

import (
	"sort"

	"gostair/domain/trial"
)

// LevelBin is the proportion correct observed at one comparison level
type LevelBin struct {
	Level      float64
	Proportion float64
	Trials     int
}

// MinTrialsPerLevel excludes levels visited too briefly to carry signal
const MinTrialsPerLevel = 2

// BinByLevel groups records by comparison level and computes the proportion
// correct per level, ascending by level. Timeouts count as incorrect.
// Levels with fewer than minTrials trials are dropped.
func BinByLevel(records []trial.Record, minTrials int) []LevelBin {
	if minTrials < 1 {
		minTrials = MinTrialsPerLevel
	}
	counts := map[float64][2]int{} // level -> {trials, correct}
	for _, rec := range records {
		c := counts[rec.ComparisonLevel]
		c[0]++
		if rec.Correct {
			c[1]++
		}
		counts[rec.ComparisonLevel] = c
	}

	bins := make([]LevelBin, 0, len(counts))
	for level, c := range counts {
		if c[0] < minTrials {
			continue
		}
		bins = append(bins, LevelBin{
			Level:      level,
			Proportion: float64(c[1]) / float64(c[0]),
			Trials:     c[0],
		})
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].Level < bins[j].Level })
	return bins
}
