package csvsink

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"gostair/domain/trial"
	"gostair/internal/errors"
)

// Read parses a results file written by Sink back into records and summary
// pairs. Summary rows are recognized by their blank trial column, the same
// way the analysis tooling filters them.
func Read(r io.Reader) ([]trial.Record, map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read results csv")
	}
	if len(rows) == 0 {
		return nil, nil, errors.InvalidInput("results csv is empty")
	}

	var records []trial.Record
	summaries := map[string]string{}
	for i, row := range rows {
		if i == 0 && row[0] == header[0] {
			continue // header row
		}
		if row[0] == "" {
			if key := row[len(header)-2]; key != "" {
				summaries[key] = row[len(header)-1]
			}
			continue
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "bad row %d", i+1)
		}
		records = append(records, rec)
	}
	return records, summaries, nil
}

func parseRow(row []string) (trial.Record, error) {
	var rec trial.Record
	var err error

	if rec.Ordinal, err = strconv.Atoi(row[0]); err != nil {
		return rec, err
	}
	rec.ReferenceSide = trial.Side(row[1])
	if rec.ComparisonLevel, err = strconv.ParseFloat(row[2], 64); err != nil {
		return rec, err
	}
	rec.Response = trial.Response(row[3])
	if rec.Correct, err = strconv.ParseBool(row[4]); err != nil {
		return rec, err
	}
	ms, err := strconv.ParseInt(row[5], 10, 64)
	if err != nil {
		return rec, err
	}
	rec.ReactionTime = time.Duration(ms) * time.Millisecond
	if rec.LowBound, err = strconv.ParseFloat(row[6], 64); err != nil {
		return rec, err
	}
	if rec.MidValue, err = strconv.ParseFloat(row[7], 64); err != nil {
		return rec, err
	}
	if rec.HighBound, err = strconv.ParseFloat(row[8], 64); err != nil {
		return rec, err
	}
	rec.Annotation = row[9]

	rec.Phase = trial.PhaseAdaptive
	if rec.Annotation == "intro" {
		rec.Phase = trial.PhaseIntro
	}
	return rec, nil
}
