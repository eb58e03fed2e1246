package ladder

import (
	"fmt"
	"math"

	"gostair/domain/core"
)

// Ladder is the ordered, immutable set of discriminability levels available
// to a session. Index 0 is the hardest level (closest to the reference),
// index N-1 the easiest.
type Ladder struct {
	levels []float64
}

// Build filters an idealized progression down to the levels actually
// available, preserving order. The first entry of the idealized progression
// is the canonical hardest level and must survive the filter.
func Build(idealized, available []float64) (*Ladder, error) {
	if len(idealized) == 0 {
		return nil, core.NewLadderError(core.ErrEmptyLadder, "idealized progression is empty")
	}

	avail := make(map[float64]bool, len(available))
	for _, v := range available {
		avail[v] = true
	}

	levels := make([]float64, 0, len(idealized))
	for _, v := range idealized {
		if avail[v] {
			levels = append(levels, v)
		}
	}

	if len(levels) == 0 {
		return nil, core.NewLadderError(core.ErrEmptyLadder, "no idealized level is available")
	}
	if levels[0] != idealized[0] {
		return nil, core.NewLadderError(core.ErrMissingHardestLevel,
			fmt.Sprintf("level %g is not available", idealized[0]))
	}
	if err := checkMonotonic(levels); err != nil {
		return nil, err
	}

	return &Ladder{levels: levels}, nil
}

// checkMonotonic requires the levels to be strictly increasing or strictly
// decreasing; duplicates or direction changes are construction errors.
func checkMonotonic(levels []float64) error {
	if len(levels) < 2 {
		return nil
	}
	increasing := levels[1] > levels[0]
	for i := 1; i < len(levels); i++ {
		if levels[i] == levels[i-1] {
			return core.NewLadderError(core.ErrNonMonotonicLadder,
				fmt.Sprintf("duplicate level %g", levels[i]))
		}
		if (levels[i] > levels[i-1]) != increasing {
			return core.NewLadderError(core.ErrNonMonotonicLadder,
				fmt.Sprintf("direction change at level %g", levels[i]))
		}
	}
	return nil
}

// Size returns the number of levels
func (l *Ladder) Size() int {
	return len(l.levels)
}

// LevelAt returns the level value at the given index
func (l *Ladder) LevelAt(index int) float64 {
	return l.levels[index]
}

// Levels returns a copy of the level values in ladder order
func (l *Ladder) Levels() []float64 {
	out := make([]float64, len(l.levels))
	copy(out, l.levels)
	return out
}

// NearestIndex returns the index whose level is closest to value. Ties break
// toward the lower index, i.e. the harder level.
func (l *Ladder) NearestIndex(value float64) int {
	best := 0
	bestDist := math.Abs(l.levels[0] - value)
	for i := 1; i < len(l.levels); i++ {
		d := math.Abs(l.levels[i] - value)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
