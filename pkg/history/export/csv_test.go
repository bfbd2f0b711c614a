package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"mercator-hq/mercury/pkg/history"
)

// TestCSVExporter_Export tests exporting records with a header row.
func TestCSVExporter_Export(t *testing.T) {
	exporter := NewCSVExporter(true)

	var buf bytes.Buffer
	if err := exporter.Export(context.Background(), makeRecords(3), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	reader := csv.NewReader(&buf)
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Output is not valid CSV: %v", err)
	}

	if len(rows) != 4 {
		t.Fatalf("Expected 4 rows (header + 3), got %d", len(rows))
	}
	if rows[0][0] != "id" {
		t.Errorf("Header first column = %q, want id", rows[0][0])
	}

	// Each data row must have the same width as the header.
	for i, row := range rows[1:] {
		if len(row) != len(rows[0]) {
			t.Errorf("Row %d has %d columns, header has %d", i+1, len(row), len(rows[0]))
		}
	}
}

// TestCSVExporter_ExportNoHeader tests exporting without a header row.
func TestCSVExporter_ExportNoHeader(t *testing.T) {
	exporter := NewCSVExporter(false)

	var buf bytes.Buffer
	if err := exporter.Export(context.Background(), makeRecords(2), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	reader := csv.NewReader(&buf)
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Output is not valid CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(rows))
	}
}

// TestCSVExporter_FieldMapping tests that record fields land in the right columns.
func TestCSVExporter_FieldMapping(t *testing.T) {
	exporter := NewCSVExporter(true)

	records := makeRecords(1)
	records[0].StatusCode = 502
	records[0].Outcome = history.OutcomeBackendUnavailable
	records[0].Error = "dial tcp: connection refused"
	records[0].RequestHeaders = map[string]string{"User-Agent": "curl/8.0"}

	var buf bytes.Buffer
	if err := exporter.Export(context.Background(), records, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	reader := csv.NewReader(&buf)
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Output is not valid CSV: %v", err)
	}

	header := rows[0]
	data := rows[1]
	byName := make(map[string]string, len(header))
	for i, name := range header {
		byName[name] = data[i]
	}

	if byName["status_code"] != "502" {
		t.Errorf("status_code = %q", byName["status_code"])
	}
	if byName["outcome"] != history.OutcomeBackendUnavailable {
		t.Errorf("outcome = %q", byName["outcome"])
	}
	if byName["error"] != "dial tcp: connection refused" {
		t.Errorf("error = %q", byName["error"])
	}
	if !strings.Contains(byName["request_headers"], "curl/8.0") {
		t.Errorf("request_headers = %q", byName["request_headers"])
	}
}

// TestCSVExporter_ExportStream tests streaming export from a channel.
func TestCSVExporter_ExportStream(t *testing.T) {
	exporter := NewCSVExporter(true)

	records := makeRecords(5)
	recordsCh := make(chan *history.TrafficRecord, len(records))
	for _, r := range records {
		recordsCh <- r
	}
	close(recordsCh)

	var buf bytes.Buffer
	if err := exporter.ExportStream(context.Background(), recordsCh, &buf); err != nil {
		t.Fatalf("ExportStream() failed: %v", err)
	}

	reader := csv.NewReader(&buf)
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Streamed output is not valid CSV: %v", err)
	}
	if len(rows) != 6 {
		t.Errorf("Expected 6 rows (header + 5), got %d", len(rows))
	}
}

// TestCSVExporter_ExportStreamCancelled tests context cancellation.
func TestCSVExporter_ExportStreamCancelled(t *testing.T) {
	exporter := NewCSVExporter(false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recordsCh := make(chan *history.TrafficRecord)

	var buf bytes.Buffer
	if err := exporter.ExportStream(ctx, recordsCh, &buf); err == nil {
		t.Error("ExportStream() with cancelled context should fail")
	}
}
