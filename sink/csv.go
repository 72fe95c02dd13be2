// Package sink persists feed reports as delimited datasets and reads
// them back for the dataset API.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/use-agent/harvest/models"
)

// provenance columns appended after every spec field.
const (
	colSource    = "source"
	colScrapedAt = "scraped_at"
)

// DatasetPath returns the CSV path for a feed inside dir.
func DatasetPath(dir, feed string) string {
	return filepath.Join(dir, feed+".csv")
}

// WriteCSV writes records as one CSV with a header naming every field.
// Column order is spec order followed by the provenance columns. Nil
// values become empty cells; ints are written base-10; timestamps are
// RFC 3339.
func WriteCSV(path string, spec models.RecordSpec, records []models.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sink: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	names := spec.FieldNames()
	header := append(names, colSource, colScrapedAt)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("sink: write header: %w", err)
	}

	row := make([]string, len(header))
	for _, rec := range records {
		for i, name := range names {
			row[i] = formatValue(rec.Fields[name])
		}
		row[len(row)-2] = rec.Source
		row[len(row)-1] = rec.ExtractedAt.Format(time.RFC3339)
		if err := w.Write(row); err != nil {
			return fmt.Errorf("sink: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("sink: flush %s: %w", path, err)
	}
	return nil
}

// ReadCSV reads a dataset back as header + rows. The reader tolerates
// extra columns (e.g. sentiment columns appended by the external
// classifier): it reports what is there, nothing more.
func ReadCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("sink: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("sink: read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}
