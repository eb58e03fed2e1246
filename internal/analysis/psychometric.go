package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"gostair/internal/errors"
)

// Target2Down1Up is the accuracy a 2-down/1-up staircase converges to
const Target2Down1Up = 0.707

// FitResult describes a fitted psychometric function
type FitResult struct {
	Model     string
	Params    []float64 // model-specific
	RSquared  float64
	Threshold float64 // level at the target proportion; NaN when outside range
}

// minBinsForFit matches the analysis tooling's requirement of at least four
// sampled levels before a fit is attempted.
const minBinsForFit = 4

// FitCumulativeNormal fits a cumulative normal psychometric function to the
// bins by weighted least squares over a refined grid of (mu, sigma). The
// threshold is the quantile at the target proportion.
func FitCumulativeNormal(bins []LevelBin, target float64) (*FitResult, error) {
	if len(bins) < minBinsForFit {
		return nil, errors.InvalidInput("need at least 4 stimulus levels with sufficient trials")
	}

	lo, hi := bins[0].Level, bins[len(bins)-1].Level
	span := hi - lo

	muGrid := gridRange(lo, hi, 41)
	sigmaGrid := gridRange(span/50, span*2, 41)

	bestMu, bestSigma := muGrid[len(muGrid)/2], sigmaGrid[len(sigmaGrid)/2]
	bestSSE := math.Inf(1)

	// coarse grid, then two refinement passes around the best cell
	for pass := 0; pass < 3; pass++ {
		for _, mu := range muGrid {
			for _, sigma := range sigmaGrid {
				sse := weightedSSE(bins, func(x float64) float64 {
					return distuv.Normal{Mu: mu, Sigma: sigma}.CDF(x)
				})
				if sse < bestSSE {
					bestSSE = sse
					bestMu, bestSigma = mu, sigma
				}
			}
		}
		muStep := (muGrid[len(muGrid)-1] - muGrid[0]) / float64(len(muGrid)-1)
		sigmaStep := (sigmaGrid[len(sigmaGrid)-1] - sigmaGrid[0]) / float64(len(sigmaGrid)-1)
		muGrid = gridRange(bestMu-2*muStep, bestMu+2*muStep, 21)
		sigmaGrid = gridRange(math.Max(1e-9, bestSigma-2*sigmaStep), bestSigma+2*sigmaStep, 21)
	}

	dist := distuv.Normal{Mu: bestMu, Sigma: bestSigma}
	threshold := dist.Quantile(target)
	if threshold < lo || threshold > hi {
		threshold = math.NaN()
	}

	return &FitResult{
		Model:     "cumulative-normal",
		Params:    []float64{bestMu, bestSigma},
		RSquared:  rSquared(bins, dist.CDF),
		Threshold: threshold,
	}, nil
}

// FitLogistic fits the four-parameter logistic
// a + (d-a)/(1+exp(-b(x-c))) by cyclic coordinate grid refinement: the lower
// asymptote a is bounded near chance, d near ceiling, c inside the sampled
// range. Threshold solves the inverse at the target proportion.
func FitLogistic(bins []LevelBin, target float64) (*FitResult, error) {
	if len(bins) < minBinsForFit {
		return nil, errors.InvalidInput("need at least 4 stimulus levels with sufficient trials")
	}

	lo, hi := bins[0].Level, bins[len(bins)-1].Level
	span := hi - lo
	minP, maxP := propRange(bins)

	a, d := math.Max(0.4, math.Min(0.6, minP)), math.Max(minP, maxP)
	c := lo + span/2
	b := 4.0 / span

	grids := []struct {
		lo, hi float64
		set    func(v float64)
		get    func() float64
	}{
		{0.4, 0.6, func(v float64) { a = v }, func() float64 { return a }},
		{-100 / span, 100 / span, func(v float64) { b = v }, func() float64 { return b }},
		{lo, hi, func(v float64) { c = v }, func() float64 { return c }},
		{minP, 1.0, func(v float64) { d = v }, func() float64 { return d }},
	}

	model := func(x float64) float64 {
		return a + (d-a)/(1+math.Exp(-b*(x-c)))
	}

	for pass := 0; pass < 6; pass++ {
		for _, g := range grids {
			best := g.get()
			bestSSE := weightedSSE(bins, model)
			for _, v := range gridRange(g.lo, g.hi, 61) {
				g.set(v)
				if sse := weightedSSE(bins, model); sse < bestSSE {
					bestSSE = sse
					best = v
				}
			}
			g.set(best)
		}
	}

	threshold := math.NaN()
	if a < target && target < d && b != 0 {
		threshold = c - math.Log((d-a)/(target-a)-1)/b
		if threshold < lo || threshold > hi {
			threshold = math.NaN()
		}
	}

	return &FitResult{
		Model:     "logistic",
		Params:    []float64{a, b, c, d},
		RSquared:  rSquared(bins, model),
		Threshold: threshold,
	}, nil
}

// InterpolatedThreshold returns the model-free threshold: the level where
// the proportion correct first crosses the target, linearly interpolated
// between the straddling bins. It is often more robust for staircase data
// than a full fit. Returns NaN when no crossing exists.
func InterpolatedThreshold(bins []LevelBin, target float64) float64 {
	for i := 1; i < len(bins); i++ {
		p0, p1 := bins[i-1].Proportion, bins[i].Proportion
		if (p0-target)*(p1-target) > 0 {
			continue
		}
		if p0 == p1 {
			return bins[i-1].Level
		}
		frac := (target - p0) / (p1 - p0)
		return bins[i-1].Level + frac*(bins[i].Level-bins[i-1].Level)
	}
	return math.NaN()
}

// weightedSSE computes the trial-count weighted sum of squared errors,
// down-weighting proportions near the extremes the way the analysis tooling
// does.
func weightedSSE(bins []LevelBin, model func(float64) float64) float64 {
	var sse float64
	for _, bin := range bins {
		w := math.Sqrt(float64(bin.Trials)) * (1 - math.Abs(bin.Proportion-0.5)*0.5)
		diff := bin.Proportion - model(bin.Level)
		sse += w * diff * diff
	}
	return sse
}

func rSquared(bins []LevelBin, model func(float64) float64) float64 {
	var mean float64
	for _, bin := range bins {
		mean += bin.Proportion
	}
	mean /= float64(len(bins))

	var ssRes, ssTot float64
	for _, bin := range bins {
		d := bin.Proportion - model(bin.Level)
		ssRes += d * d
		t := bin.Proportion - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func propRange(bins []LevelBin) (minP, maxP float64) {
	minP, maxP = bins[0].Proportion, bins[0].Proportion
	for _, bin := range bins[1:] {
		if bin.Proportion < minP {
			minP = bin.Proportion
		}
		if bin.Proportion > maxP {
			maxP = bin.Proportion
		}
	}
	return minP, maxP
}

func gridRange(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
