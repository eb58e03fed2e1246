package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gostair/adapters/csvsink"
	"gostair/adapters/db"
	"gostair/adapters/rng"
	"gostair/adapters/sim"
	"gostair/app"
	"gostair/domain/core"
	"gostair/domain/ladder"
	"gostair/domain/trial"
	"gostair/internal/api"
	"gostair/internal/config"
	"gostair/internal/detect"
	"gostair/ports"
)

func newRunCmd() *cobra.Command {
	var (
		sessionFile   string
		simThreshold  float64
		simSlope      float64
		simLapse      float64
		useDB         bool
		noDiagnostics bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a staircase session against the simulated subject",
		Long: `Run a full 2AFC session from a YAML session file. The subject is
simulated from a psychometric model; results go to a timestamped CSV in the
results directory and, with --db, to the trial store.

Example: gostair run --session session.yaml --sim-threshold 60 --sim-slope 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context(), sessionFile, sim.Model{
				Threshold:     simThreshold,
				Slope:         simSlope,
				Lapse:         simLapse,
				MeanLatency:   450 * time.Millisecond,
				LatencyJitter: 300 * time.Millisecond,
			}, useDB, !noDiagnostics)
		},
	}

	cmd.Flags().StringVar(&sessionFile, "session", "session.yaml", "Session configuration file")
	cmd.Flags().Float64Var(&simThreshold, "sim-threshold", 60, "Simulated subject threshold level")
	cmd.Flags().Float64Var(&simSlope, "sim-slope", 30, "Simulated subject psychometric slope")
	cmd.Flags().Float64Var(&simLapse, "sim-lapse", 0.02, "Simulated subject lapse rate")
	cmd.Flags().BoolVar(&useDB, "db", false, "Also persist trials to the configured database")
	cmd.Flags().BoolVar(&noDiagnostics, "no-diag", false, "Disable the diagnostics HTTP server")

	return cmd
}

func runSession(parent context.Context, sessionFile string, model sim.Model, useDB, diagnostics bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	sc, err := config.LoadSession(sessionFile)
	if err != nil {
		return err
	}

	lad, err := ladder.Build(sc.Ladder.Idealized, sc.Ladder.Available)
	if err != nil {
		return err
	}

	sessionID := core.NewSessionID()
	clock := ports.SystemClock{}
	streams := rng.New(sc.Seed)

	subject := sim.NewSubject(model, clock, streams.Stream("simulated-subject"))
	leftSource := subject.Source(trial.SideLeft)
	rightSource := subject.Source(trial.SideRight)
	detector := detect.New(
		[]ports.ActivationSource{leftSource},
		[]ports.ActivationSource{rightSource},
	)

	if err := os.MkdirAll(cfg.Output.ResultsDir, 0o755); err != nil {
		return err
	}
	csvPath := filepath.Join(cfg.Output.ResultsDir,
		fmt.Sprintf("2AFC_P_%s.csv", clock.Now().Format("20060102_150405")))
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return err
	}
	fileSink := csvsink.New(csvFile)
	defer fileSink.Close()

	sinks := []ports.RecordSink{fileSink}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	var store *db.Store
	if useDB {
		store, err = db.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.CreateSession(ctx, sessionID, sc.Name, sc.Seed, clock.Now()); err != nil {
			return err
		}
		sinks = append(sinks, store.SinkForSession(ctx, sessionID))
	}

	seq, err := app.NewSequencer(app.SequencerConfig{
		SessionID:          sessionID,
		IntroLevels:        sc.IntroLevels,
		StartLevel:         sc.StartLevel,
		ReferencePool:      sc.ReferencePool,
		TrialTimeout:       sc.TrialTimeout(),
		InterTrialInterval: sc.InterTrialInterval(),
		SamplingInterval:   sc.SamplingInterval(),
	}, lad, sc.StaircaseParams(), detector, subject, app.NewMultiSink(sinks...), clock, streams)
	if err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)

	var summary *trial.Summary
	group.Go(func() error {
		var runErr error
		summary, runErr = seq.Run(ctx)
		stop() // session finished; shut the diagnostics server down
		return runErr
	})

	if diagnostics && cfg.Server.Enabled {
		poller := api.NewInputPoller(
			[]ports.ActivationSource{leftSource, rightSource},
			250*time.Millisecond,
		)
		group.Go(func() error { return poller.Run(ctx) })

		srv := &http.Server{
			Addr:    ":" + cfg.Server.Port,
			Handler: api.NewServer(seq, poller).Handler(),
		}
		group.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		group.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		log.Printf("diagnostics on http://localhost:%s", cfg.Server.Port)
	}

	if err := group.Wait(); err != nil {
		return err
	}

	if useDB && store != nil {
		if err := store.CompleteSession(context.Background(), sessionID, clock.Now()); err != nil {
			return err
		}
	}

	fmt.Printf("session %s complete: %d trials, %d reversals, threshold %.3f\n",
		sessionID, summary.IntroTrials+summary.AdaptiveTrials, summary.Reversals,
		summary.ThresholdEstimate)
	fmt.Printf("results written to %s\n", csvPath)
	return nil
}
