package api

import (
	"context"
	"sync"
	"time"

	"gostair/ports"
)

// InputPoller samples raw activation sources on an independent cooperative
// timer, purely for diagnostic observation. It reads source activations and
// nothing else; the trial state machine never sees it.
type InputPoller struct {
	sources  map[string]ports.ActivationSource
	interval time.Duration

	mu     sync.RWMutex
	levels map[string]float64
}

// NewInputPoller observes the given named sources at the given cadence
func NewInputPoller(sources []ports.ActivationSource, interval time.Duration) *InputPoller {
	byName := make(map[string]ports.ActivationSource, len(sources))
	for _, src := range sources {
		byName[src.Name()] = src
	}
	return &InputPoller{
		sources:  byName,
		interval: interval,
		levels:   make(map[string]float64, len(sources)),
	}
}

// Run polls until the context is cancelled
func (p *InputPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.poll()
		}
	}
}

func (p *InputPoller) poll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, src := range p.sources {
		v, err := src.Activation()
		if err != nil {
			// failing sources degrade to zero, same as the detector
			v = 0
		}
		p.levels[name] = v
	}
}

// Levels returns the last observed activation per source name
func (p *InputPoller) Levels() map[string]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]float64, len(p.levels))
	for k, v := range p.levels {
		out[k] = v
	}
	return out
}
