package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostair/domain/trial"
)

func TestBinByLevel(t *testing.T) {
	records := []trial.Record{
		{ComparisonLevel: 64, Correct: true},
		{ComparisonLevel: 64, Correct: false},
		{ComparisonLevel: 64, Correct: true},
		{ComparisonLevel: 64, Correct: true},
		{ComparisonLevel: 128, Correct: true},
		{ComparisonLevel: 128, Correct: false},
		{ComparisonLevel: 32, Correct: true}, // only one trial: dropped
	}

	bins := BinByLevel(records, 2)
	require.Len(t, bins, 2)
	assert.Equal(t, 64.0, bins[0].Level)
	assert.InDelta(t, 0.75, bins[0].Proportion, 1e-9)
	assert.Equal(t, 4, bins[0].Trials)
	assert.Equal(t, 128.0, bins[1].Level)
	assert.InDelta(t, 0.5, bins[1].Proportion, 1e-9)
}

func TestBinByLevelSortsAscending(t *testing.T) {
	records := []trial.Record{
		{ComparisonLevel: 256, Correct: true}, {ComparisonLevel: 256, Correct: true},
		{ComparisonLevel: 16, Correct: true}, {ComparisonLevel: 16, Correct: false},
		{ComparisonLevel: 64, Correct: false}, {ComparisonLevel: 64, Correct: false},
	}
	bins := BinByLevel(records, 2)
	require.Len(t, bins, 3)
	assert.Equal(t, []float64{16, 64, 256}, []float64{bins[0].Level, bins[1].Level, bins[2].Level})
}

func TestInterpolatedThreshold(t *testing.T) {
	bins := []LevelBin{
		{Level: 10, Proportion: 0.95, Trials: 10},
		{Level: 20, Proportion: 0.90, Trials: 10},
		{Level: 30, Proportion: 0.60, Trials: 10},
		{Level: 40, Proportion: 0.50, Trials: 10},
	}

	// crossing of 0.707 lies between levels 20 and 30
	got := InterpolatedThreshold(bins, Target2Down1Up)
	require.False(t, math.IsNaN(got))
	assert.InDelta(t, 20+10*(0.707-0.90)/(0.60-0.90), got, 1e-9)
}

func TestInterpolatedThresholdNoCrossing(t *testing.T) {
	bins := []LevelBin{
		{Level: 10, Proportion: 0.95, Trials: 10},
		{Level: 20, Proportion: 0.92, Trials: 10},
	}
	assert.True(t, math.IsNaN(InterpolatedThreshold(bins, 0.707)))
}

func TestFitCumulativeNormalRecoversGeneratedCurve(t *testing.T) {
	// generate proportions straight from a known cumulative normal
	mu, sigma := 50.0, 12.0
	var bins []LevelBin
	for level := 20.0; level <= 80; level += 10 {
		z := (level - mu) / sigma
		p := 0.5 * (1 + math.Erf(z/math.Sqrt2))
		bins = append(bins, LevelBin{Level: level, Proportion: p, Trials: 20})
	}

	fit, err := FitCumulativeNormal(bins, 0.707)
	require.NoError(t, err)
	assert.InDelta(t, mu, fit.Params[0], 2.0)
	assert.InDelta(t, sigma, fit.Params[1], 3.0)
	assert.Greater(t, fit.RSquared, 0.98)

	// the 70.7% point of N(mu, sigma)
	want := mu + sigma*math.Sqrt2*erfinv(2*0.707-1)
	assert.InDelta(t, want, fit.Threshold, 2.5)
}

func TestFitRequiresEnoughLevels(t *testing.T) {
	bins := []LevelBin{
		{Level: 10, Proportion: 0.9, Trials: 5},
		{Level: 20, Proportion: 0.7, Trials: 5},
		{Level: 30, Proportion: 0.5, Trials: 5},
	}
	_, err := FitCumulativeNormal(bins, 0.707)
	assert.Error(t, err)
	_, err = FitLogistic(bins, 0.707)
	assert.Error(t, err)
}

func TestFitLogisticOnDecreasingData(t *testing.T) {
	// staircase data where accuracy falls as the level grows (harder levels)
	bins := []LevelBin{
		{Level: 10, Proportion: 0.98, Trials: 12},
		{Level: 20, Proportion: 0.95, Trials: 14},
		{Level: 40, Proportion: 0.80, Trials: 20},
		{Level: 60, Proportion: 0.68, Trials: 22},
		{Level: 80, Proportion: 0.55, Trials: 16},
		{Level: 100, Proportion: 0.52, Trials: 10},
	}

	fit, err := FitLogistic(bins, Target2Down1Up)
	require.NoError(t, err)
	assert.Greater(t, fit.RSquared, 0.85)
	require.False(t, math.IsNaN(fit.Threshold))
	assert.InDelta(t, 55, fit.Threshold, 15, "threshold near the 70.7%% crossing")
}

func TestFitLogisticThresholdOutsideRangeIsNaN(t *testing.T) {
	// performance never drops to the target inside the sampled range
	bins := []LevelBin{
		{Level: 10, Proportion: 1.0, Trials: 10},
		{Level: 20, Proportion: 0.98, Trials: 10},
		{Level: 30, Proportion: 0.97, Trials: 10},
		{Level: 40, Proportion: 0.95, Trials: 10},
	}
	fit, err := FitLogistic(bins, 0.707)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(fit.Threshold))
}

// erfinv approximates the inverse error function (Winitzki)
func erfinv(x float64) float64 {
	a := 0.147
	ln := math.Log(1 - x*x)
	t1 := 2/(math.Pi*a) + ln/2
	return math.Copysign(math.Sqrt(math.Sqrt(t1*t1-ln/a)-t1), x)
}
