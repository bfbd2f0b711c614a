package export

import (
	"context"
	"encoding/json"
	"io"

	"mercator-hq/mercury/pkg/history"
)

// JSONExporter exports traffic records to JSON format.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// Export writes traffic records to the provided writer in JSON format.
// Records are always exported as a JSON array, even when empty, so the
// output shape does not depend on result size.
func (e *JSONExporter) Export(ctx context.Context, records []*history.TrafficRecord, w io.Writer) error {
	if len(records) == 0 {
		_, err := w.Write([]byte("[]"))
		return err
	}

	var data []byte
	var err error

	if e.Pretty {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = json.Marshal(records)
	}

	if err != nil {
		return history.NewExportError("json", len(records), err)
	}

	if _, err = w.Write(data); err != nil {
		return history.NewExportError("json", len(records), err)
	}

	return nil
}

// ExportStream exports traffic records from a channel to JSON format.
// This is memory-efficient for large result sets as it streams records
// one at a time instead of loading all records in memory.
//
// The records are exported as a JSON array. The stream processes records
// as they arrive on the channel, making it suitable for very large exports.
func (e *JSONExporter) ExportStream(ctx context.Context, recordsCh <-chan *history.TrafficRecord, w io.Writer) error {
	if _, err := w.Write([]byte("[")); err != nil {
		return history.NewExportError("json", 0, err)
	}

	first := true
	recordCount := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case record, ok := <-recordsCh:
			if !ok {
				// Channel closed - write closing bracket and return
				if _, err := w.Write([]byte("]")); err != nil {
					return history.NewExportError("json", recordCount, err)
				}
				return nil
			}

			if !first {
				if _, err := w.Write([]byte(",")); err != nil {
					return history.NewExportError("json", recordCount, err)
				}
				if e.Pretty {
					if _, err := w.Write([]byte("\n")); err != nil {
						return history.NewExportError("json", recordCount, err)
					}
				}
			}
			first = false

			data, err := e.serializeRecord(record)
			if err != nil {
				return history.NewExportError("json", recordCount, err)
			}

			if _, err := w.Write(data); err != nil {
				return history.NewExportError("json", recordCount, err)
			}

			recordCount++
		}
	}
}

// serializeRecord serializes a single traffic record to JSON.
func (e *JSONExporter) serializeRecord(record *history.TrafficRecord) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(record, "  ", "  ")
	}
	return json.Marshal(record)
}
