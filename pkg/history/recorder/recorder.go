package recorder

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/mercury/pkg/history"
)

// Config contains configuration for the traffic recorder.
type Config struct {
	// Enabled enables traffic recording.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// CaptureHeaders enables capturing request headers in records.
	// Default: false
	CaptureHeaders bool

	// RedactHeaders lists headers whose values are replaced with
	// "[REDACTED]" when header capture is enabled. Matching is
	// case-insensitive. Defaults to the usual credential carriers.
	RedactHeaders []string

	// MaxFieldLength is the maximum length for text fields before truncation.
	// Default: 500
	MaxFieldLength int
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		AsyncBuffer:    1000,
		WriteTimeout:   5 * time.Second,
		CaptureHeaders: false,
		RedactHeaders:  DefaultRedactedHeaders(),
		MaxFieldLength: 500,
	}
}

// Recorder records traffic history for proxied requests. Records are
// enqueued to a buffered channel and written by a background worker, so
// recording never blocks the forward path. When the buffer is full the
// record is dropped and counted, not queued.
type Recorder struct {
	storage    history.Storage
	config     *Config
	recordChan chan *history.TrafficRecord
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger

	mu      sync.Mutex
	dropped int64
}

// NewRecorder creates a new traffic recorder with the provided storage
// backend and configuration.
func NewRecorder(storage history.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = 1000
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}
	if config.MaxFieldLength <= 0 {
		config.MaxFieldLength = 500
	}
	if len(config.RedactHeaders) == 0 {
		config.RedactHeaders = DefaultRedactedHeaders()
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		recordChan: make(chan *history.TrafficRecord, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "history.recorder"),
	}

	// Start background worker to drain channel
	r.wg.Add(1)
	go r.worker()

	r.logger.Info("traffic recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
		"capture_headers", config.CaptureHeaders,
	)

	return r
}

// Record enqueues a traffic record for async writing to storage.
//
// The record is completed in place: a UUID is assigned if missing, the
// recorded time is stamped, and text fields are truncated to the configured
// maximum. The method returns immediately; if the write buffer is full the
// record is dropped and a RecorderError is returned so callers can count
// the loss without stalling the request they are serving.
func (r *Recorder) Record(ctx context.Context, record *history.TrafficRecord) error {
	if !r.config.Enabled {
		return nil
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.RecordedTime.IsZero() {
		record.RecordedTime = time.Now()
	}

	record.Path = TruncateString(record.Path, r.config.MaxFieldLength)
	record.Query = TruncateString(record.Query, r.config.MaxFieldLength)
	record.UserAgent = TruncateString(record.UserAgent, r.config.MaxFieldLength)
	record.Error = TruncateString(record.Error, r.config.MaxFieldLength)

	select {
	case <-r.done:
		r.logger.Warn("recorder shutting down, dropping record",
			"record_id", record.ID,
			"request_id", record.RequestID,
		)
		return history.NewRecorderError(record.ID, context.Canceled)
	default:
	}

	select {
	case r.recordChan <- record:
		return nil
	default:
		r.mu.Lock()
		r.dropped++
		dropped := r.dropped
		r.mu.Unlock()

		r.logger.Error("traffic record buffer full, dropping record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"channel_capacity", r.config.AsyncBuffer,
			"dropped_total", dropped,
		)
		return history.NewRecorderError(record.ID, context.DeadlineExceeded)
	}
}

// CaptureHeaders extracts request headers into a record-ready map, applying
// the configured redaction. Returns nil when header capture is disabled.
func (r *Recorder) CaptureHeaders(h http.Header) map[string]string {
	if !r.config.CaptureHeaders {
		return nil
	}
	return RedactHeaderMap(h, r.config.RedactHeaders, r.config.MaxFieldLength)
}

// Dropped returns the number of records dropped due to a full buffer.
func (r *Recorder) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.dropped
}

// Close gracefully shuts down the recorder by draining the async channel
// and waiting for all pending writes to complete.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down traffic recorder")

		close(r.done)
		r.wg.Wait()

		r.logger.Info("traffic recorder shut down complete")
	})
	return nil
}

// worker is the background goroutine that drains the record channel and
// writes records to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			// Drain remaining records from channel before exit
			r.logger.Info("draining record channel before shutdown",
				"pending_count", len(r.recordChan),
			)

			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					r.logger.Info("record channel drained")
					return
				}
			}
		}
	}
}

// writeRecord writes a single traffic record to storage.
func (r *Recorder) writeRecord(record *history.TrafficRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store traffic record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
		return
	}

	duration := time.Since(start)

	r.logger.Debug("traffic recorded",
		"record_id", record.ID,
		"request_id", record.RequestID,
		"backend", record.Backend,
		"outcome", record.Outcome,
		"duration_ms", duration.Milliseconds(),
	)

	// Warn if write was slow
	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow traffic record write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
