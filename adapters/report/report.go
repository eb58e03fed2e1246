// Package report renders a completed session as a markdown report and
// optionally as standalone HTML.
package report

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gostair/domain/trial"
	"gostair/internal/analysis"
	"gostair/internal/errors"
)

// BuildMarkdown renders the session summary, psychometric fits, and the
// per-level response table as markdown. Fits may be nil when too few levels
// were sampled.
func BuildMarkdown(summary *trial.Summary, bins []analysis.LevelBin, fits []*analysis.FitResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Session %s\n\n", summary.SessionID)
	fmt.Fprintf(&b, "Completed %s\n\n", summary.CompletedAt.Format("2006-01-02 15:04:05"))

	b.WriteString("## Summary\n\n")
	b.WriteString("| metric | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| intro trials | %d |\n", summary.IntroTrials)
	fmt.Fprintf(&b, "| adaptive trials | %d |\n", summary.AdaptiveTrials)
	fmt.Fprintf(&b, "| timeouts | %d |\n", summary.Timeouts)
	fmt.Fprintf(&b, "| reversals | %d |\n", summary.Reversals)
	fmt.Fprintf(&b, "| threshold estimate | %.3f |\n", summary.ThresholdEstimate)
	fmt.Fprintf(&b, "| accuracy (intro) | %.1f%% |\n", summary.AccuracyIntro*100)
	fmt.Fprintf(&b, "| accuracy (adaptive) | %.1f%% |\n", summary.AccuracyAdaptive*100)
	fmt.Fprintf(&b, "| reaction time mean/median | %.0f / %.0f ms |\n\n",
		summary.MeanReactionMs, summary.MedianReactionMs)

	if len(bins) > 0 {
		b.WriteString("## Performance by level\n\n")
		b.WriteString("| level | trials | proportion correct |\n|---|---|---|\n")
		for _, bin := range bins {
			fmt.Fprintf(&b, "| %g | %d | %.3f |\n", bin.Level, bin.Trials, bin.Proportion)
		}
		b.WriteString("\n")
	}

	if len(fits) > 0 {
		b.WriteString("## Psychometric fits\n\n")
		b.WriteString("| model | threshold | R² |\n|---|---|---|\n")
		for _, fit := range fits {
			if fit == nil {
				continue
			}
			fmt.Fprintf(&b, "| %s | %s | %.3f |\n", fit.Model, formatThreshold(fit.Threshold), fit.RSquared)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// WriteHTML converts the markdown report to a standalone HTML page at path
func WriteHTML(md string, path string) error {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
	})
	out := markdown.ToHTML([]byte(md), p, renderer)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write report %s", path)
	}
	return nil
}

func formatThreshold(v float64) string {
	if math.IsNaN(v) {
		return "outside sampled range"
	}
	return fmt.Sprintf("%.3f", v)
}
