package staircase

import (
	"math"

	"github.com/montanaflynn/stats"

	"gostair/domain/core"
	"gostair/domain/ladder"
)

// DefaultEstimateWindow is the number of trailing reversals averaged for the
// threshold estimate when the configuration does not override it.
const DefaultEstimateWindow = 6

// Params configures the n-down/1-up adaptive procedure. The up and down step
// multipliers are independent so errors can move difficulty away faster than
// a correct streak moves it back, biasing convergence below the midpoint
// between chance and ceiling.
type Params struct {
	NCorrectToStepUp   int
	UpStepMultiplier   float64
	DownStepMultiplier float64
	InitialStep        int
	MinStep            int
	TargetReversals    int
	MaxTrials          int
	EstimateWindow     int
}

// Validate checks parameter ranges and fills the estimate window default
func (p *Params) Validate() error {
	if p.NCorrectToStepUp < 1 {
		return core.NewParamError("nCorrectToStepUp", "must be >= 1")
	}
	if p.UpStepMultiplier <= 0 {
		return core.NewParamError("upStepMultiplier", "must be > 0")
	}
	if p.DownStepMultiplier <= 0 {
		return core.NewParamError("downStepMultiplier", "must be > 0")
	}
	if p.InitialStep < 1 {
		return core.NewParamError("initialStep", "must be >= 1")
	}
	if p.MinStep < 1 {
		return core.NewParamError("minStep", "must be >= 1")
	}
	if p.TargetReversals < 1 {
		return core.NewParamError("targetReversals", "must be >= 1")
	}
	if p.MaxTrials < 1 {
		return core.NewParamError("maxTrials", "must be >= 1")
	}
	if p.EstimateWindow == 0 {
		p.EstimateWindow = DefaultEstimateWindow
	}
	if p.EstimateWindow < 1 {
		return core.NewParamError("estimateWindow", "must be >= 1")
	}
	return nil
}

// State is the mutable staircase bookkeeping. It changes exactly once per
// completed adaptive trial, through Engine.Update only.
type State struct {
	Index              int
	StepSize           int
	ConsecutiveCorrect int
	LastMoveDirection  int
	ReversalCount      int
	ReversalIndices    []int
	TrialsCompleted    int
}

// clone returns a deep copy safe to hand to diagnostics
func (s State) clone() State {
	out := s
	out.ReversalIndices = make([]int, len(s.ReversalIndices))
	copy(out.ReversalIndices, s.ReversalIndices)
	return out
}

// Engine owns the adaptive state and the update rule. It is exclusively
// owned by the trial sequencer while a trial is in flight; other components
// see it only through Snapshot.
type Engine struct {
	params Params
	lad    *ladder.Ladder
	state  State

	// set when a move had to be clamped at a ladder bound; treated as an
	// immediate stop, never an error
	hitBound bool
}

// New creates an engine positioned at startIndex with the initial step size
func New(params Params, lad *ladder.Ladder, startIndex int) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if startIndex < 0 || startIndex >= lad.Size() {
		return nil, core.ErrIndexOutOfRange
	}
	return &Engine{
		params: params,
		lad:    lad,
		state: State{
			Index:    startIndex,
			StepSize: params.InitialStep,
		},
	}, nil
}

// Index returns the current ladder index
func (e *Engine) Index() int {
	return e.state.Index
}

// Level returns the ladder level at the current index
func (e *Engine) Level() float64 {
	return e.lad.LevelAt(e.state.Index)
}

// Params returns the engine configuration
func (e *Engine) Params() Params {
	return e.params
}

// Snapshot returns a read-only copy of the adaptive state
func (e *Engine) Snapshot() State {
	return e.state.clone()
}

// Update applies the n-down/1-up rule for one completed adaptive trial.
//
// A correct response increments the streak; when the streak reaches
// NCorrectToStepUp the index moves toward 0 (harder) by
// max(1, round(stepSize*UpStepMultiplier)) and the streak resets. Any
// incorrect response resets the streak and moves the index toward N-1
// (easier) by max(1, round(stepSize*DownStepMultiplier)). Moves clamp at the
// ladder bounds; a clamped no-op records direction 0 and never counts as a
// reversal. A sign change against the last nonzero direction records the
// pre-move index as a reversal and halves the step size, floored at MinStep.
func (e *Engine) Update(correct bool) {
	preMove := e.state.Index
	direction := 0

	if correct {
		e.state.ConsecutiveCorrect++
		if e.state.ConsecutiveCorrect >= e.params.NCorrectToStepUp {
			e.state.ConsecutiveCorrect = 0
			next := e.state.Index - stepAmount(e.state.StepSize, e.params.UpStepMultiplier)
			if next < 0 {
				next = 0
				e.hitBound = true
			}
			if next < e.state.Index {
				direction = 1
			}
			e.state.Index = next
		}
	} else {
		e.state.ConsecutiveCorrect = 0
		next := e.state.Index + stepAmount(e.state.StepSize, e.params.DownStepMultiplier)
		if last := e.lad.Size() - 1; next > last {
			next = last
			e.hitBound = true
		}
		if next > e.state.Index {
			direction = -1
		}
		e.state.Index = next
	}

	if direction != 0 {
		if e.state.LastMoveDirection != 0 && direction != e.state.LastMoveDirection {
			e.state.ReversalIndices = append(e.state.ReversalIndices, preMove)
			e.state.ReversalCount++
			e.state.StepSize = e.state.StepSize / 2
			if e.state.StepSize < e.params.MinStep {
				e.state.StepSize = e.params.MinStep
			}
		}
		e.state.LastMoveDirection = direction
	}

	e.state.TrialsCompleted++
}

func stepAmount(stepSize int, multiplier float64) int {
	n := int(math.Round(float64(stepSize) * multiplier))
	if n < 1 {
		n = 1
	}
	return n
}

// ShouldStop reports whether the procedure has converged or run out of
// budget: enough reversals at the minimum step, the trial cap, or a move
// that hit a ladder bound.
func (e *Engine) ShouldStop() bool {
	if e.state.ReversalCount >= e.params.TargetReversals && e.state.StepSize <= e.params.MinStep {
		return true
	}
	if e.state.TrialsCompleted >= e.params.MaxTrials {
		return true
	}
	return e.hitBound
}

// Estimate returns the threshold estimate: the mean ladder level over the
// last EstimateWindow reversal indices, over fewer if fewer exist, or the
// current index's level when no reversal has occurred yet.
func (e *Engine) Estimate() float64 {
	levels := e.windowLevels()
	if len(levels) == 0 {
		return e.lad.LevelAt(e.state.Index)
	}
	mean, err := stats.Mean(levels)
	if err != nil {
		return e.lad.LevelAt(e.state.Index)
	}
	return mean
}

// EstimateBounds returns the min, running estimate, and max of the reversal
// window, for the per-trial trace fields. With no reversals all three equal
// the current level.
func (e *Engine) EstimateBounds() (low, mid, high float64) {
	levels := e.windowLevels()
	if len(levels) == 0 {
		v := e.lad.LevelAt(e.state.Index)
		return v, v, v
	}
	low, _ = stats.Min(levels)
	mid = e.Estimate()
	high, _ = stats.Max(levels)
	return low, mid, high
}

func (e *Engine) windowLevels() []float64 {
	n := len(e.state.ReversalIndices)
	if n == 0 {
		return nil
	}
	start := n - e.params.EstimateWindow
	if start < 0 {
		start = 0
	}
	levels := make([]float64, 0, n-start)
	for _, idx := range e.state.ReversalIndices[start:] {
		levels = append(levels, e.lad.LevelAt(idx))
	}
	return levels
}
