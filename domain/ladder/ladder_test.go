package ladder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostair/domain/core"
)

func TestBuildFiltersToAvailableLevels(t *testing.T) {
	lad, err := Build(
		[]float64{1024, 512, 256, 128, 64},
		[]float64{64, 1024, 256},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, lad.Size())
	assert.Equal(t, []float64{1024, 256, 64}, lad.Levels(), "idealized order preserved")
}

func TestBuildErrors(t *testing.T) {
	t.Run("empty idealized", func(t *testing.T) {
		_, err := Build(nil, []float64{1})
		assert.ErrorIs(t, err, core.ErrEmptyLadder)
	})

	t.Run("nothing available", func(t *testing.T) {
		_, err := Build([]float64{1024, 512}, []float64{3})
		assert.ErrorIs(t, err, core.ErrEmptyLadder)
	})

	t.Run("hardest level missing", func(t *testing.T) {
		_, err := Build([]float64{1024, 512, 256}, []float64{512, 256})
		assert.ErrorIs(t, err, core.ErrMissingHardestLevel)
	})

	t.Run("duplicate level", func(t *testing.T) {
		_, err := Build([]float64{8, 8, 4}, []float64{8, 4})
		assert.ErrorIs(t, err, core.ErrNonMonotonicLadder)
	})

	t.Run("direction change", func(t *testing.T) {
		_, err := Build([]float64{8, 4, 16}, []float64{8, 4, 16})
		assert.ErrorIs(t, err, core.ErrNonMonotonicLadder)
	})
}

func TestNearestIndex(t *testing.T) {
	lad, err := Build(
		[]float64{1024, 512, 256, 128, 64, 32, 16, 8, 4},
		[]float64{1024, 512, 256, 128, 64, 32, 16, 8, 4},
	)
	require.NoError(t, err)

	tests := []struct {
		value float64
		want  int
	}{
		{64, 4},
		{1024, 0},
		{4, 8},
		{5000, 0},
		{0, 8},
		{100, 3},  // closer to 128 than 64
		{96, 3},   // exact midpoint ties to the lower (harder) index
		{95.9, 4}, // just below the midpoint
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lad.NearestIndex(tt.value), "value %g", tt.value)
	}
}

func TestLevelsReturnsACopy(t *testing.T) {
	lad, err := Build([]float64{16, 8, 4}, []float64{16, 8, 4})
	require.NoError(t, err)

	levels := lad.Levels()
	levels[0] = 0
	assert.Equal(t, 16.0, lad.LevelAt(0))
}
