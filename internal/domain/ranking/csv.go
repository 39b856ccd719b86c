package ranking

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// csvHeader is the admin export row layout.
var csvHeader = []string{
	"Rank", "Team Name", "Levels Completed", "Final Submitted",
	"Total Time", "Average Score", "Position",
}

// WriteCSV serializes ordered records as the admin export. The encoding is
// lossless for rank, position and the numeric fields.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range records {
		r := &records[i]
		row := []string{
			strconv.Itoa(r.Rank),
			r.TeamName,
			strconv.Itoa(r.CompletedLevels),
			strconv.FormatBool(r.FinalSubmitted),
			strconv.FormatInt(r.TotalTime, 10),
			strconv.FormatFloat(r.AverageScore, 'f', -1, 64),
			strconv.Itoa(r.Position),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadCSV parses an admin export back into partial records. Only the fields
// present in the export are populated; used by tooling that post-processes
// exports.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return []Record{}, nil
	}
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("read csv: expected %d columns, got %d", len(csvHeader), len(row))
		}
		rank, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("parse rank: %w", err)
		}
		completed, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("parse levels completed: %w", err)
		}
		final, err := strconv.ParseBool(row[3])
		if err != nil {
			return nil, fmt.Errorf("parse final submitted: %w", err)
		}
		total, err := strconv.ParseInt(row[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse total time: %w", err)
		}
		avg, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return nil, fmt.Errorf("parse average score: %w", err)
		}
		position, err := strconv.Atoi(row[6])
		if err != nil {
			return nil, fmt.Errorf("parse position: %w", err)
		}
		records = append(records, Record{
			Rank:            rank,
			TeamName:        row[1],
			CompletedLevels: completed,
			FinalSubmitted:  final,
			TotalTime:       total,
			AverageScore:    avg,
			Position:        position,
		})
	}
	return records, nil
}
