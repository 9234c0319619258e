package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// outputHeader is the result CSV schema, in column order.
var outputHeader = []string{
	"case_id",
	"district",
	"filing_date",
	"termination_date",
	"event_sequence",
	"days_to_resolution",
	"outcome",
}

// writeOutputCSV writes the result rows. The event sequence column holds a
// JSON array of type labels so downstream consumers get one parseable cell.
func writeOutputCSV(path string, rows []outputRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(outputHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		labels := row.eventSequence
		if labels == nil {
			labels = []string{}
		}
		seq, err := json.Marshal(labels)
		if err != nil {
			return fmt.Errorf("marshal event sequence: %w", err)
		}
		record := []string{
			row.caseID,
			row.district,
			row.filingDate,
			row.terminationDate,
			string(seq),
			row.daysToResolution,
			strconv.Itoa(int(row.outcome)),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return f.Close()
}

// writeFileAtomic writes data via a temp file and rename so a crash never
// leaves a truncated file behind.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
