package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"gostair/adapters/csvsink"
	"gostair/adapters/db"
	"gostair/adapters/report"
	"gostair/app"
	"gostair/domain/core"
	"gostair/domain/trial"
	"gostair/internal/analysis"
	"gostair/internal/config"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		csvPath   string
		sessionID string
		target    float64
		htmlOut   string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Fit psychometric functions to a recorded session",
		Long: `Analyze a session from a results CSV or from the trial store:
per-level proportion correct, cumulative-normal and logistic fits, and the
model-free interpolated threshold at the target proportion.

Example: gostair analyze --csv results/2AFC_P_20251020_003915.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, csvPath, sessionID, target, htmlOut)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Results CSV to analyze")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Stored session to analyze")
	cmd.Flags().Float64Var(&target, "target", analysis.Target2Down1Up, "Target proportion correct")
	cmd.Flags().StringVar(&htmlOut, "html", "", "Write an HTML report to this path")

	return cmd
}

func runAnalyze(cmd *cobra.Command, csvPath, sessionID string, target float64, htmlOut string) error {
	records, summaries, err := loadRecords(cmd, csvPath, sessionID)
	if err != nil {
		return err
	}

	estimate := 0.0
	if v, ok := summaries["JND"]; ok {
		estimate, _ = strconv.ParseFloat(v, 64)
	}
	summary := app.ComputeSummary(sessionID, records, estimate, time.Now())

	bins := analysis.BinByLevel(records, analysis.MinTrialsPerLevel)

	var fits []*analysis.FitResult
	if fit, err := analysis.FitCumulativeNormal(bins, target); err == nil {
		fits = append(fits, fit)
	} else {
		fmt.Fprintf(os.Stderr, "cumulative-normal fit skipped: %v\n", err)
	}
	if fit, err := analysis.FitLogistic(bins, target); err == nil {
		fits = append(fits, fit)
	} else {
		fmt.Fprintf(os.Stderr, "logistic fit skipped: %v\n", err)
	}

	md := report.BuildMarkdown(summary, bins, fits)
	fmt.Print(md)

	interp := analysis.InterpolatedThreshold(bins, target)
	fmt.Printf("interpolated threshold at %.1f%%: %g\n", target*100, interp)

	if htmlOut != "" {
		if err := report.WriteHTML(md, htmlOut); err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", htmlOut)
	}
	return nil
}

// loadRecords reads trial records from a CSV file or from the trial store
func loadRecords(cmd *cobra.Command, csvPath, sessionID string) ([]trial.Record, map[string]string, error) {
	if csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		return csvsink.Read(f)
	}
	if sessionID == "" {
		return nil, nil, fmt.Errorf("either --csv or --session-id is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	store, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	id, err := core.ParseSessionID(sessionID)
	if err != nil {
		return nil, nil, err
	}
	records, err := store.ListTrials(cmd.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	summaries, err := store.ListSummaries(cmd.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	return records, summaries, nil
}
