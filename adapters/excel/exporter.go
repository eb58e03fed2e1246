// Package excel exports a completed session to an xlsx workbook: one sheet
// of trials, one of summary values.
package excel

import (
	"sort"

	"github.com/xuri/excelize/v2"

	"gostair/domain/trial"
	"gostair/internal/errors"
)

const (
	trialsSheet  = "Trials"
	summarySheet = "Summary"
)

// Export writes the session's records and summary pairs to path
func Export(records []trial.Record, summaries map[string]string, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", trialsSheet); err != nil {
		return errors.Wrap(err, "failed to rename trials sheet")
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return errors.Wrap(err, "failed to create summary sheet")
	}

	headers := []any{
		"trial", "phase", "referenceSide", "comparisonLevel", "response",
		"correct", "reactionTimeMs", "reversalCount",
		"lowBound", "midValue", "highBound", "comment",
	}
	if err := f.SetSheetRow(trialsSheet, "A1", &headers); err != nil {
		return errors.Wrap(err, "failed to write header row")
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "failed to compute cell name")
		}
		row := []any{
			rec.Ordinal, string(rec.Phase), string(rec.ReferenceSide),
			rec.ComparisonLevel, string(rec.Response), rec.Correct,
			rec.ReactionTime.Milliseconds(), rec.ReversalCount,
			rec.LowBound, rec.MidValue, rec.HighBound, rec.Annotation,
		}
		if err := f.SetSheetRow(trialsSheet, cell, &row); err != nil {
			return errors.Wrap(err, "failed to write trial row")
		}
	}

	for i, pair := range sortedPairs(summaries) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "failed to compute cell name")
		}
		kv := []any{pair[0], pair[1]}
		if err := f.SetSheetRow(summarySheet, cell, &kv); err != nil {
			return errors.Wrap(err, "failed to write summary row")
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save workbook %s", path)
	}
	return nil
}

// sortedPairs returns the summary entries ordered by key for stable output
func sortedPairs(summaries map[string]string) [][2]string {
	keys := make([]string, 0, len(summaries))
	for k := range summaries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([][2]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, [2]string{k, summaries[k]})
	}
	return pairs
}
