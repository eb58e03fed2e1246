package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSession(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSessionAppliesDefaults(t *testing.T) {
	path := writeSession(t, `
name: bricks004
ladder:
  idealized: [1024, 512, 256, 128, 64, 32, 16, 8, 4]
startLevel: 64
`)

	sc, err := LoadSession(path)
	require.NoError(t, err)

	assert.Equal(t, "bricks004", sc.Name)
	assert.Equal(t, int64(42), sc.Seed)
	assert.Equal(t, sc.Ladder.Idealized, sc.Ladder.Available,
		"missing availability filter keeps all levels")
	assert.Equal(t, 2, sc.Staircase.NCorrectToStepUp)
	assert.Equal(t, 1.5, sc.Staircase.DownStepMultiplier)
	assert.Equal(t, 10.0, sc.Timing.TrialTimeoutSeconds)
	assert.Equal(t, int64(10_000_000), int64(sc.SamplingInterval()))
}

func TestLoadSessionFullFile(t *testing.T) {
	path := writeSession(t, `
name: rock062
seed: 1234
ladder:
  idealized: [1024, 512, 256, 128, 64, 32, 16, 8, 4]
  available: [1024, 256, 64, 16, 4]
startLevel: 64
introLevels: [1024, 512]
staircase:
  initialStep: 2
  minStep: 1
  targetReversals: 6
  maxTrials: 60
  nCorrectToStepUp: 2
  upStepMultiplier: 1.0
  downStepMultiplier: 2.0
  estimateWindow: 4
timing:
  trialTimeoutSeconds: 8
  interTrialIntervalSeconds: 1.5
  samplingIntervalMs: 5
referencePool: [bricks004, bricks101]
`)

	sc, err := LoadSession(path)
	require.NoError(t, err)

	assert.Equal(t, int64(1234), sc.Seed)
	assert.Equal(t, []float64{1024, 512}, sc.IntroLevels)
	assert.Equal(t, 4, sc.StaircaseParams().EstimateWindow)
	assert.Equal(t, 2.0, sc.StaircaseParams().DownStepMultiplier)
	assert.Equal(t, "1.5s", sc.InterTrialInterval().String())
	assert.Equal(t, []string{"bricks004", "bricks101"}, sc.ReferencePool)
}

func TestLoadSessionRejectsEmptyLadder(t *testing.T) {
	path := writeSession(t, `
name: broken
startLevel: 64
`)
	_, err := LoadSession(path)
	assert.Error(t, err)
}

func TestLoadSessionRejectsBadTimeout(t *testing.T) {
	path := writeSession(t, `
ladder:
  idealized: [8, 4]
startLevel: 8
timing:
  trialTimeoutSeconds: -1
`)
	_, err := LoadSession(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
}
