package detect

import (
	"gostair/domain/trial"
	"gostair/ports"
)

// activationThreshold is the fixed crossing threshold that turns an
// aggregated activation into a boolean "active" state.
const activationThreshold = 0.5

// Detector converts per-side raw activation samples into a single debounced
// selection event. Each side aggregates its sources by maximum; a selection
// fires only on the inactive-to-active transition, so a held signal emits
// exactly one event per trial.
type Detector struct {
	sources map[trial.Side][]ports.ActivationSource
	latched map[trial.Side]bool

	// failure counts per source name, for diagnostics only
	failures map[string]int
}

// New creates a detector with the given per-side sources. A side may have
// zero sources; it then never activates.
func New(left, right []ports.ActivationSource) *Detector {
	return &Detector{
		sources: map[trial.Side][]ports.ActivationSource{
			trial.SideLeft:  left,
			trial.SideRight: right,
		},
		latched:  map[trial.Side]bool{},
		failures: map[string]int{},
	}
}

// ResetLatches clears both side latches. Called at the start of every trial
// so a selection made in a prior trial cannot leak into the next.
func (d *Detector) ResetLatches() {
	d.latched[trial.SideLeft] = false
	d.latched[trial.SideRight] = false
}

// Activation returns the max-aggregated activation for a side. A failing
// source degrades to zero activation for that source only.
func (d *Detector) Activation(side trial.Side) float64 {
	var level float64
	for _, src := range d.sources[side] {
		v, err := src.Activation()
		if err != nil {
			d.failures[src.Name()]++
			continue
		}
		if v > level {
			level = v
		}
	}
	return level
}

// Sample polls both sides once and reports a selection if a rising edge
// occurred. When both sides rise on the same sample, left wins; sampling is
// fast relative to human responses, so genuine ties do not occur in
// practice.
func (d *Detector) Sample() (trial.Side, bool) {
	selected := trial.Side("")
	fired := false
	for _, side := range []trial.Side{trial.SideLeft, trial.SideRight} {
		active := d.Activation(side) >= activationThreshold
		if active && !d.latched[side] && !fired {
			selected = side
			fired = true
		}
		d.latched[side] = active
	}
	return selected, fired
}

// Failures returns per-source failure counts accumulated since construction
func (d *Detector) Failures() map[string]int {
	out := make(map[string]int, len(d.failures))
	for k, v := range d.failures {
		out[k] = v
	}
	return out
}
