package history

import (
	"context"
	"io"
	"time"
)

// Outcome values for a recorded forward attempt.
const (
	// OutcomeForwarded means the backend responded and its response was
	// relayed to the client, regardless of the status code it chose.
	OutcomeForwarded = "forwarded"

	// OutcomeBackendUnavailable means the backend could not be reached
	// and the gateway answered 502 on its behalf.
	OutcomeBackendUnavailable = "backend_unavailable"
)

// TrafficRecord captures a single proxied request/response pair. It records
// which backend the gateway resolved at forward time, how the upstream call
// went, and enough request metadata to reconstruct traffic patterns after
// a reconfiguration.
type TrafficRecord struct {
	// Identity
	ID        string `json:"id"`         // UUID v4
	RequestID string `json:"request_id"` // From the request ID middleware

	// Timestamps
	RequestTime  time.Time `json:"request_time"`  // When the request arrived
	RecordedTime time.Time `json:"recorded_time"` // When the record was built

	// Request metadata
	Method         string            `json:"method"`
	Path           string            `json:"path"`
	Query          string            `json:"query,omitempty"`
	RequestHeaders map[string]string `json:"request_headers,omitempty"` // Captured headers, sensitive values redacted

	// Forward result
	Backend    string        `json:"backend"`     // Backend base URL resolved for this request
	StatusCode int           `json:"status_code"` // Status relayed to the client
	Outcome    string        `json:"outcome"`     // "forwarded" or "backend_unavailable"
	Latency    time.Duration `json:"latency"`     // Upstream round-trip time

	// Sizes
	RequestBytes  int64 `json:"request_bytes"`
	ResponseBytes int64 `json:"response_bytes"`

	// Client info
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent,omitempty"`

	// Error info
	Error string `json:"error,omitempty"` // Transport error when the backend was unreachable
}

// Query defines filter parameters for querying traffic records.
type Query struct {
	// Time range
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	Backend string `json:"backend,omitempty"` // Filter by resolved backend URL
	Method  string `json:"method,omitempty"`  // Filter by HTTP method
	Path    string `json:"path,omitempty"`    // Filter by request path prefix
	Outcome string `json:"outcome,omitempty"` // "forwarded" or "backend_unavailable"

	// Status code range
	MinStatus *int `json:"min_status,omitempty"`
	MaxStatus *int `json:"max_status,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // "request_time", "latency", "status_code"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Storage defines the interface for traffic history storage backends.
// Implementations must be thread-safe and support concurrent access.
type Storage interface {
	// Store persists a traffic record.
	Store(ctx context.Context, record *TrafficRecord) error

	// Query retrieves traffic records matching the query filters.
	// Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*TrafficRecord, error)

	// QueryStream returns a channel of traffic records for memory-efficient
	// streaming of large result sets.
	//
	// Returns:
	//   - recordsCh: Channel of traffic records (buffered)
	//   - errCh: Channel for errors (buffered, max 1 error)
	//   - error: Immediate error (e.g., invalid query)
	//
	// The channels are closed when the query completes or errors. Callers
	// should read from both channels until they are closed.
	QueryStream(ctx context.Context, query *Query) (<-chan *TrafficRecord, <-chan error, error)

	// Count returns the number of traffic records matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes traffic records matching the query filters and returns
	// the number removed. Used for retention policy enforcement.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the storage backend.
	Close() error
}

// Exporter defines the interface for exporting traffic records to various formats.
type Exporter interface {
	// Export writes traffic records to the provided writer in the exporter's format.
	Export(ctx context.Context, records []*TrafficRecord, w io.Writer) error
}
