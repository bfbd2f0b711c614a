package export

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"mercator-hq/mercury/pkg/history"
)

func makeRecords(n int) []*history.TrafficRecord {
	now := time.Now().UTC().Truncate(time.Second)
	records := make([]*history.TrafficRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, &history.TrafficRecord{
			ID:           string(rune('a' + i)),
			RequestID:    "req-" + string(rune('a'+i)),
			RequestTime:  now.Add(time.Duration(i) * time.Second),
			RecordedTime: now.Add(time.Duration(i) * time.Second),
			Method:       "GET",
			Path:         "/api/accounts",
			Backend:      "http://localhost:9000",
			StatusCode:   200,
			Outcome:      history.OutcomeForwarded,
			Latency:      25 * time.Millisecond,
		})
	}
	return records
}

// TestJSONExporter_Export tests exporting records as a JSON array.
func TestJSONExporter_Export(t *testing.T) {
	exporter := NewJSONExporter(false)

	var buf bytes.Buffer
	if err := exporter.Export(context.Background(), makeRecords(3), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	var decoded []*history.TrafficRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(decoded) != 3 {
		t.Errorf("Decoded %d records, want 3", len(decoded))
	}
	if decoded[0].Backend != "http://localhost:9000" {
		t.Errorf("Backend = %q", decoded[0].Backend)
	}
}

// TestJSONExporter_ExportEmpty tests that no records produce an empty array.
func TestJSONExporter_ExportEmpty(t *testing.T) {
	exporter := NewJSONExporter(true)

	var buf bytes.Buffer
	if err := exporter.Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if buf.String() != "[]" {
		t.Errorf("Empty export = %q, want []", buf.String())
	}
}

// TestJSONExporter_ExportPretty tests indentation.
func TestJSONExporter_ExportPretty(t *testing.T) {
	exporter := NewJSONExporter(true)

	var buf bytes.Buffer
	if err := exporter.Export(context.Background(), makeRecords(1), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte("\n  ")) {
		t.Error("Pretty output is not indented")
	}

	var decoded []*history.TrafficRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Pretty output is not valid JSON: %v", err)
	}
}

// TestJSONExporter_ExportStream tests streaming export from a channel.
func TestJSONExporter_ExportStream(t *testing.T) {
	exporter := NewJSONExporter(false)

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

	var decoded []*history.TrafficRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Streamed output is not valid JSON: %v", err)
	}
	if len(decoded) != 5 {
		t.Errorf("Decoded %d records, want 5", len(decoded))
	}
}

// TestJSONExporter_ExportStreamEmpty tests streaming with no records.
func TestJSONExporter_ExportStreamEmpty(t *testing.T) {
	exporter := NewJSONExporter(false)

	recordsCh := make(chan *history.TrafficRecord)
	close(recordsCh)

	var buf bytes.Buffer
	if err := exporter.ExportStream(context.Background(), recordsCh, &buf); err != nil {
		t.Fatalf("ExportStream() failed: %v", err)
	}
	if buf.String() != "[]" {
		t.Errorf("Empty stream export = %q, want []", buf.String())
	}
}

// TestJSONExporter_ExportStreamCancelled tests context cancellation.
func TestJSONExporter_ExportStreamCancelled(t *testing.T) {
	exporter := NewJSONExporter(false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recordsCh := make(chan *history.TrafficRecord)

	var buf bytes.Buffer
	if err := exporter.ExportStream(ctx, recordsCh, &buf); err == nil {
		t.Error("ExportStream() with cancelled context should fail")
	}
}
