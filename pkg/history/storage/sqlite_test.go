package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/mercury/pkg/history"
)

// createTempDB creates a temporary SQLite database for testing.
func createTempDB(t *testing.T) (*SQLiteStorage, string) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	config := &SQLiteConfig{
		Path:         dbPath,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}

	storage, err := NewSQLiteStorage(config)
	if err != nil {
		t.Fatalf("Failed to create SQLite storage: %v", err)
	}

	return storage, dbPath
}

// sampleRecord builds a minimal valid traffic record for tests.
func sampleRecord(id string, t0 time.Time) *history.TrafficRecord {
	return &history.TrafficRecord{
		ID:           id,
		RequestID:    "req-" + id,
		RequestTime:  t0,
		RecordedTime: t0,
		Method:       "GET",
		Path:         "/api/accounts",
		Backend:      "http://localhost:9000",
		StatusCode:   200,
		Outcome:      history.OutcomeForwarded,
		Latency:      42 * time.Millisecond,
		RemoteAddr:   "127.0.0.1:54321",
	}
}

// TestSQLiteStorage_Initialize tests database initialization.
func TestSQLiteStorage_Initialize(t *testing.T) {
	storage, dbPath := createTempDB(t)
	defer storage.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

// TestSQLiteStorage_StoreAndQuery tests storing and querying records.
func TestSQLiteStorage_StoreAndQuery(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	record := sampleRecord("test-id-1", now)
	if err := storage.Store(ctx, record); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	results, err := storage.Query(ctx, &history.Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(results))
	}

	got := results[0]
	if got.ID != "test-id-1" {
		t.Errorf("Expected ID 'test-id-1', got '%s'", got.ID)
	}
	if got.Backend != "http://localhost:9000" {
		t.Errorf("Expected backend 'http://localhost:9000', got '%s'", got.Backend)
	}
	if got.Outcome != history.OutcomeForwarded {
		t.Errorf("Expected outcome %q, got %q", history.OutcomeForwarded, got.Outcome)
	}
	if got.Latency != 42*time.Millisecond {
		t.Errorf("Expected latency 42ms, got %v", got.Latency)
	}
}

// TestSQLiteStorage_StoreWithHeaders tests round-tripping the captured header map.
func TestSQLiteStorage_StoreWithHeaders(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	record := sampleRecord("with-headers", now)
	record.RequestHeaders = map[string]string{
		"User-Agent":    "test-agent/1.0",
		"Authorization": "[REDACTED]",
	}
	record.Query = "limit=10"
	record.UserAgent = "test-agent/1.0"
	record.Error = ""

	if err := storage.Store(ctx, record); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	results, err := storage.Query(ctx, &history.Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(results))
	}

	got := results[0]
	if got.RequestHeaders["Authorization"] != "[REDACTED]" {
		t.Errorf("Headers did not round-trip: %v", got.RequestHeaders)
	}
	if got.Query != "limit=10" {
		t.Errorf("Expected query 'limit=10', got %q", got.Query)
	}
	if got.Error != "" {
		t.Errorf("Expected empty error, got %q", got.Error)
	}
}

// TestSQLiteStorage_QueryFilters tests the query filter combinations.
func TestSQLiteStorage_QueryFilters(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond).Add(-time.Hour)

	ok := sampleRecord("ok-1", base)
	unavailable := sampleRecord("down-1", base.Add(10*time.Minute))
	unavailable.Backend = "http://localhost:9999"
	unavailable.StatusCode = 502
	unavailable.Outcome = history.OutcomeBackendUnavailable
	unavailable.Error = "dial tcp: connection refused"
	health := sampleRecord("health-1", base.Add(20*time.Minute))
	health.Path = "/health"

	for _, r := range []*history.TrafficRecord{ok, unavailable, health} {
		if err := storage.Store(ctx, r); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	t.Run("by outcome", func(t *testing.T) {
		results, err := storage.Query(ctx, &history.Query{Outcome: history.OutcomeBackendUnavailable})
		if err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
		if len(results) != 1 || results[0].ID != "down-1" {
			t.Errorf("Expected only down-1, got %d records", len(results))
		}
	})

	t.Run("by backend", func(t *testing.T) {
		results, err := storage.Query(ctx, &history.Query{Backend: "http://localhost:9999"})
		if err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
		if len(results) != 1 || results[0].ID != "down-1" {
			t.Errorf("Expected only down-1, got %d records", len(results))
		}
	})

	t.Run("by path prefix", func(t *testing.T) {
		results, err := storage.Query(ctx, &history.Query{Path: "/api"})
		if err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("Expected 2 /api records, got %d", len(results))
		}
	})

	t.Run("by status range", func(t *testing.T) {
		minStatus := 500
		results, err := storage.Query(ctx, &history.Query{MinStatus: &minStatus})
		if err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
		if len(results) != 1 || results[0].StatusCode != 502 {
			t.Errorf("Expected one 502 record, got %d records", len(results))
		}
	})

	t.Run("by time range", func(t *testing.T) {
		start := base.Add(5 * time.Minute)
		results, err := storage.Query(ctx, &history.Query{StartTime: &start})
		if err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("Expected 2 records after start, got %d", len(results))
		}
	})
}

// TestSQLiteStorage_QuerySortAndPaginate tests ordering and pagination.
func TestSQLiteStorage_QuerySortAndPaginate(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond).Add(-time.Hour)

	for i := 0; i < 5; i++ {
		r := sampleRecord(string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
		if err := storage.Store(ctx, r); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	// Default sort is request_time descending
	results, err := storage.Query(ctx, &history.Query{Limit: 2})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(results))
	}
	if results[0].ID != "e" || results[1].ID != "d" {
		t.Errorf("Expected newest-first [e d], got [%s %s]", results[0].ID, results[1].ID)
	}

	// Ascending with offset
	results, err = storage.Query(ctx, &history.Query{Limit: 2, Offset: 1, SortOrder: "asc"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if results[0].ID != "b" || results[1].ID != "c" {
		t.Errorf("Expected [b c], got [%s %s]", results[0].ID, results[1].ID)
	}

	// Unknown sort field falls back to request_time
	results, err = storage.Query(ctx, &history.Query{SortBy: "bogus; DROP TABLE traffic"})
	if err != nil {
		t.Fatalf("Query() with unknown sort failed: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("Expected 5 records, got %d", len(results))
	}
}

// TestSQLiteStorage_Count tests record counting.
func TestSQLiteStorage_Count(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		r := sampleRecord(string(rune('x'+i)), now.Add(time.Duration(i)*time.Second))
		if i == 0 {
			r.Outcome = history.OutcomeBackendUnavailable
			r.StatusCode = 502
		}
		if err := storage.Store(ctx, r); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	count, err := storage.Count(ctx, &history.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected count 3, got %d", count)
	}

	count, err = storage.Count(ctx, &history.Query{Outcome: history.OutcomeBackendUnavailable})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected count 1, got %d", count)
	}
}

// TestSQLiteStorage_Delete tests deleting records by filter.
func TestSQLiteStorage_Delete(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	base := time.Now().UTC().Add(-2 * time.Hour)

	old := sampleRecord("old", base)
	recent := sampleRecord("recent", time.Now().UTC())

	for _, r := range []*history.TrafficRecord{old, recent} {
		if err := storage.Store(ctx, r); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	cutoff := base.Add(time.Hour)
	deleted, err := storage.Delete(ctx, &history.Query{EndTime: &cutoff})
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted, got %d", deleted)
	}

	count, err := storage.Count(ctx, &history.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 remaining record, got %d", count)
	}
}

// TestSQLiteStorage_QueryStream tests streaming query results.
func TestSQLiteStorage_QueryStream(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 10; i++ {
		r := sampleRecord(string(rune('a'+i)), now.Add(time.Duration(i)*time.Second))
		if err := storage.Store(ctx, r); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	recordsCh, errCh, err := storage.QueryStream(ctx, &history.Query{Limit: 10})
	if err != nil {
		t.Fatalf("QueryStream() failed: %v", err)
	}

	received := 0
	for range recordsCh {
		received++
	}
	if err := <-errCh; err != nil {
		t.Fatalf("QueryStream() error: %v", err)
	}
	if received != 10 {
		t.Errorf("Expected 10 streamed records, got %d", received)
	}
}
