package ports

import (
	"context"

	"gostair/domain/trial"
)

// Stimulus is the opaque handle the core hands to the presenter. Exactly one
// of the two stimuli on screen is the reference; the other carries a ladder
// level.
type Stimulus struct {
	Reference bool
	Instance  string
	Level     float64
}

// StimulusPresenter sets which stimulus is shown on a given side. The core
// does not know how rendering happens.
type StimulusPresenter interface {
	Present(ctx context.Context, side trial.Side, stim Stimulus) error
}
