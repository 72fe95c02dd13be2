package sink

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/use-agent/harvest/models"
)

func testSpec() models.RecordSpec {
	return models.RecordSpec{
		Container: "div.review",
		Fields: []models.FieldSpec{
			{Name: "review_id"},
			{Name: "stars"},
			{Name: "text"},
		},
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	at := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	records := []models.Record{
		{
			Fields:      map[string]any{"review_id": "r-1", "stars": 4, "text": "good"},
			Source:      "https://example.test/reviews",
			ExtractedAt: at,
		},
		{
			Fields:      map[string]any{"review_id": "r-2", "stars": 0, "text": nil},
			Source:      "https://example.test/reviews",
			ExtractedAt: at,
		},
	}

	path := filepath.Join(t.TempDir(), "reviews.csv")
	if err := WriteCSV(path, testSpec(), records); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	header, rows, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	wantHeader := []string{"review_id", "stars", "text", "source", "scraped_at"}
	if !reflect.DeepEqual(header, wantHeader) {
		t.Errorf("header = %v, want %v", header, wantHeader)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][1] != "4" {
		t.Errorf("int cell = %q, want %q", rows[0][1], "4")
	}
	if rows[1][2] != "" {
		t.Errorf("nil cell = %q, want empty", rows[1][2])
	}
	if rows[0][4] != "2026-08-23T12:00:00Z" {
		t.Errorf("scraped_at = %q", rows[0][4])
	}
}

func TestWriteCSV_EmptyDatasetStillHasHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := WriteCSV(path, testSpec(), nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	header, rows, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(header) != 5 {
		t.Errorf("header has %d columns, want 5", len(header))
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0", len(rows))
	}
}
