package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"mercator-hq/mercury/pkg/history"
)

// CSVExporter exports traffic records to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes traffic records to the provided writer in CSV format.
// The captured header map is flattened to a JSON string column.
func (e *CSVExporter) Export(ctx context.Context, records []*history.TrafficRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(e.getHeaderRow()); err != nil {
			return history.NewExportError("csv", len(records), err)
		}
	}

	for _, record := range records {
		row := e.recordToRow(record)
		if err := writer.Write(row); err != nil {
			return history.NewExportError("csv", len(records), err)
		}
	}

	return nil
}

// ExportStream exports traffic records from a channel to CSV format.
// This is memory-efficient for large result sets as it streams records
// one at a time instead of loading all records in memory.
//
// The CSV writer flushes periodically to provide progress feedback
// for long-running exports.
func (e *CSVExporter) ExportStream(ctx context.Context, recordsCh <-chan *history.TrafficRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(e.getHeaderRow()); err != nil {
			return history.NewExportError("csv", 0, err)
		}
	}

	recordCount := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case record, ok := <-recordsCh:
			if !ok {
				// Channel closed - flush and return
				writer.Flush()
				if err := writer.Error(); err != nil {
					return history.NewExportError("csv", recordCount, err)
				}
				return nil
			}

			row := e.recordToRow(record)
			if err := writer.Write(row); err != nil {
				return history.NewExportError("csv", recordCount, err)
			}

			recordCount++

			// Flush periodically (every 100 records)
			if recordCount%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return history.NewExportError("csv", recordCount, err)
				}
			}
		}
	}
}

// getHeaderRow returns the CSV header row.
func (e *CSVExporter) getHeaderRow() []string {
	return []string{
		"id", "request_id",
		"request_time", "recorded_time",
		"method", "path", "query", "request_headers",
		"backend", "status_code", "outcome", "latency_ms",
		"request_bytes", "response_bytes",
		"remote_addr", "user_agent",
		"error",
	}
}

// recordToRow converts a traffic record to a CSV row.
func (e *CSVExporter) recordToRow(record *history.TrafficRecord) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	}

	headers := ""
	if len(record.RequestHeaders) > 0 {
		data, _ := json.Marshal(record.RequestHeaders)
		headers = string(data)
	}

	return []string{
		record.ID,
		record.RequestID,
		formatTime(record.RequestTime),
		formatTime(record.RecordedTime),
		record.Method,
		record.Path,
		record.Query,
		headers,
		record.Backend,
		fmt.Sprintf("%d", record.StatusCode),
		record.Outcome,
		fmt.Sprintf("%d", record.Latency.Milliseconds()),
		fmt.Sprintf("%d", record.RequestBytes),
		fmt.Sprintf("%d", record.ResponseBytes),
		record.RemoteAddr,
		record.UserAgent,
		record.Error,
	}
}
