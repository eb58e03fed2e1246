package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gostair/domain/staircase"
	"gostair/internal/errors"
)

// SessionConfig describes one experiment session: the ladder, the staircase
// tuning, trial timing, and the reference pool. Loaded from a YAML file.
type SessionConfig struct {
	Name string `yaml:"name"`
	Seed int64  `yaml:"seed"`

	Ladder struct {
		Idealized []float64 `yaml:"idealized"`
		Available []float64 `yaml:"available"`
	} `yaml:"ladder"`

	StartLevel  float64   `yaml:"startLevel"`
	IntroLevels []float64 `yaml:"introLevels"`

	Staircase struct {
		InitialStep        int     `yaml:"initialStep"`
		MinStep            int     `yaml:"minStep"`
		TargetReversals    int     `yaml:"targetReversals"`
		MaxTrials          int     `yaml:"maxTrials"`
		NCorrectToStepUp   int     `yaml:"nCorrectToStepUp"`
		UpStepMultiplier   float64 `yaml:"upStepMultiplier"`
		DownStepMultiplier float64 `yaml:"downStepMultiplier"`
		EstimateWindow     int     `yaml:"estimateWindow"`
	} `yaml:"staircase"`

	Timing struct {
		TrialTimeoutSeconds       float64 `yaml:"trialTimeoutSeconds"`
		InterTrialIntervalSeconds float64 `yaml:"interTrialIntervalSeconds"`
		SamplingIntervalMs        int     `yaml:"samplingIntervalMs"`
	} `yaml:"timing"`

	ReferencePool []string `yaml:"referencePool"`
}

// LoadSession reads and validates a session configuration file
func LoadSession(path string) (*SessionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read session config %s", path)
	}
	var sc SessionConfig
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrapf(err, "failed to parse session config %s", path)
	}
	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *SessionConfig) applyDefaults() {
	if sc.Name == "" {
		sc.Name = "2AFC"
	}
	if sc.Seed == 0 {
		sc.Seed = 42
	}
	if len(sc.Ladder.Available) == 0 {
		// no availability filter means every idealized level materialized
		sc.Ladder.Available = append([]float64(nil), sc.Ladder.Idealized...)
	}
	if sc.Staircase.InitialStep == 0 {
		sc.Staircase.InitialStep = 4
	}
	if sc.Staircase.MinStep == 0 {
		sc.Staircase.MinStep = 1
	}
	if sc.Staircase.TargetReversals == 0 {
		sc.Staircase.TargetReversals = 8
	}
	if sc.Staircase.MaxTrials == 0 {
		sc.Staircase.MaxTrials = 80
	}
	if sc.Staircase.NCorrectToStepUp == 0 {
		sc.Staircase.NCorrectToStepUp = 2
	}
	if sc.Staircase.UpStepMultiplier == 0 {
		sc.Staircase.UpStepMultiplier = 1.0
	}
	if sc.Staircase.DownStepMultiplier == 0 {
		sc.Staircase.DownStepMultiplier = 1.5
	}
	if sc.Timing.TrialTimeoutSeconds == 0 {
		sc.Timing.TrialTimeoutSeconds = 10
	}
	if sc.Timing.SamplingIntervalMs == 0 {
		sc.Timing.SamplingIntervalMs = 10
	}
}

// Validate checks the session configuration for fatal errors
func (sc *SessionConfig) Validate() error {
	if len(sc.Ladder.Idealized) == 0 {
		return errors.ConfigInvalid("ladder.idealized must not be empty")
	}
	params := sc.StaircaseParams()
	if err := params.Validate(); err != nil {
		return errors.Wrap(err, "invalid staircase parameters")
	}
	if sc.Timing.TrialTimeoutSeconds <= 0 {
		return errors.ConfigInvalid("timing.trialTimeoutSeconds must be > 0")
	}
	return nil
}

// StaircaseParams converts the YAML block into engine parameters
func (sc *SessionConfig) StaircaseParams() staircase.Params {
	return staircase.Params{
		NCorrectToStepUp:   sc.Staircase.NCorrectToStepUp,
		UpStepMultiplier:   sc.Staircase.UpStepMultiplier,
		DownStepMultiplier: sc.Staircase.DownStepMultiplier,
		InitialStep:        sc.Staircase.InitialStep,
		MinStep:            sc.Staircase.MinStep,
		TargetReversals:    sc.Staircase.TargetReversals,
		MaxTrials:          sc.Staircase.MaxTrials,
		EstimateWindow:     sc.Staircase.EstimateWindow,
	}
}

// TrialTimeout returns the per-trial response deadline
func (sc *SessionConfig) TrialTimeout() time.Duration {
	return time.Duration(sc.Timing.TrialTimeoutSeconds * float64(time.Second))
}

// InterTrialInterval returns the pause between trials
func (sc *SessionConfig) InterTrialInterval() time.Duration {
	return time.Duration(sc.Timing.InterTrialIntervalSeconds * float64(time.Second))
}

// SamplingInterval returns the input polling cadence inside a trial
func (sc *SessionConfig) SamplingInterval() time.Duration {
	return time.Duration(sc.Timing.SamplingIntervalMs) * time.Millisecond
}
