package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"mercator-hq/mercury/pkg/history"
)

// MemoryStorage implements the Storage interface using an in-memory map.
// This implementation is intended for testing and ephemeral deployments
// that do not need history to survive a restart.
type MemoryStorage struct {
	records map[string]*history.TrafficRecord
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*history.TrafficRecord),
	}
}

// Store persists a traffic record to memory.
func (s *MemoryStorage) Store(ctx context.Context, record *history.TrafficRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Create a copy to avoid mutation
	recordCopy := *record
	s.records[record.ID] = &recordCopy

	return nil
}

// Query retrieves traffic records matching the query filters.
func (s *MemoryStorage) Query(ctx context.Context, query *history.Query) ([]*history.TrafficRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*history.TrafficRecord

	for _, record := range s.records {
		if s.matchesQuery(record, query) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}

	sortRecords(results, query.SortBy, query.SortOrder)

	// Apply pagination
	start := query.Offset
	if start > len(results) {
		return []*history.TrafficRecord{}, nil
	}

	end := start + query.Limit
	if end > len(results) {
		end = len(results)
	}

	if query.Limit > 0 {
		results = results[start:end]
	}

	return results, nil
}

// QueryStream returns a channel of traffic records for memory-efficient
// streaming. The channels are closed when the query completes or errors.
func (s *MemoryStorage) QueryStream(ctx context.Context, query *history.Query) (<-chan *history.TrafficRecord, <-chan error, error) {
	recordsCh := make(chan *history.TrafficRecord, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		// Snapshot under the read lock, then stream without holding it.
		records, err := s.Query(ctx, query)
		if err != nil {
			errCh <- err
			return
		}

		for _, record := range records {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
			}
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of traffic records matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *history.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64

	for _, record := range s.records {
		if s.matchesQuery(record, query) {
			count++
		}
	}

	return count, nil
}

// Delete removes traffic records matching the query filters.
func (s *MemoryStorage) Delete(ctx context.Context, query *history.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64

	toDelete := []string{}
	for id, record := range s.records {
		if s.matchesQuery(record, query) {
			toDelete = append(toDelete, id)
		}
	}

	for _, id := range toDelete {
		delete(s.records, id)
		deleted++
	}

	return deleted, nil
}

// Close releases resources held by the storage backend.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*history.TrafficRecord)
	return nil
}

// matchesQuery checks if a record matches the query filters.
func (s *MemoryStorage) matchesQuery(record *history.TrafficRecord, query *history.Query) bool {
	// Time range filter
	if query.StartTime != nil && record.RequestTime.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.RequestTime.After(*query.EndTime) {
		return false
	}

	// Backend/method filter
	if query.Backend != "" && record.Backend != query.Backend {
		return false
	}
	if query.Method != "" && record.Method != query.Method {
		return false
	}

	// Path prefix filter
	if query.Path != "" && !strings.HasPrefix(record.Path, query.Path) {
		return false
	}

	// Outcome filter
	if query.Outcome != "" && record.Outcome != query.Outcome {
		return false
	}

	// Status code range
	if query.MinStatus != nil && record.StatusCode < *query.MinStatus {
		return false
	}
	if query.MaxStatus != nil && record.StatusCode > *query.MaxStatus {
		return false
	}

	return true
}

// sortRecords orders results the same way the SQLite backend does:
// request_time descending unless the query says otherwise.
func sortRecords(records []*history.TrafficRecord, sortBy, sortOrder string) {
	asc := sortOrder == "asc"

	sort.SliceStable(records, func(i, j int) bool {
		var less bool
		switch sortBy {
		case "latency":
			less = records[i].Latency < records[j].Latency
		case "status_code":
			less = records[i].StatusCode < records[j].StatusCode
		default:
			less = records[i].RequestTime.Before(records[j].RequestTime)
		}
		if asc {
			return less
		}
		return !less
	})
}

// Clear removes all records from storage (for testing).
func (s *MemoryStorage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*history.TrafficRecord)
}

// GetByID retrieves a single traffic record by ID (for testing).
func (s *MemoryStorage) GetByID(id string) *history.TrafficRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil
	}

	recordCopy := *record
	return &recordCopy
}

// Size returns the number of records in storage (for testing).
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}
