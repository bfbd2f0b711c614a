package retention

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/mercury/pkg/history"
	"mercator-hq/mercury/pkg/history/storage"
)

func storeRecords(t *testing.T, s history.Storage, ages ...time.Duration) {
	t.Helper()

	ctx := context.Background()
	now := time.Now()

	for i, age := range ages {
		record := &history.TrafficRecord{
			ID:           string(rune('a' + i)),
			RequestID:    "req-" + string(rune('a'+i)),
			RequestTime:  now.Add(-age),
			RecordedTime: now.Add(-age),
			Method:       "GET",
			Path:         "/api/accounts",
			Backend:      "http://localhost:9000",
			StatusCode:   200,
			Outcome:      history.OutcomeForwarded,
		}
		if err := s.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}
}

// TestPruner_PruneByAge tests age-based pruning.
func TestPruner_PruneByAge(t *testing.T) {
	mem := storage.NewMemoryStorage()
	defer mem.Close()

	// Two old records (40 days), two recent.
	storeRecords(t, mem,
		40*24*time.Hour,
		35*24*time.Hour,
		time.Hour,
		time.Minute,
	)

	pruner := NewPruner(mem, &Config{RetentionDays: 30})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Prune() deleted %d, want 2", deleted)
	}
	if mem.Size() != 2 {
		t.Errorf("Remaining records = %d, want 2", mem.Size())
	}
}

// TestPruner_PruneByCount tests count-based pruning of the oldest records.
func TestPruner_PruneByCount(t *testing.T) {
	mem := storage.NewMemoryStorage()
	defer mem.Close()

	storeRecords(t, mem,
		5*time.Hour,
		4*time.Hour,
		3*time.Hour,
		2*time.Hour,
		time.Hour,
	)

	pruner := NewPruner(mem, &Config{
		RetentionDays: 0, // age pruning off
		MaxRecords:    3,
	})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Prune() deleted %d, want 2", deleted)
	}

	// The oldest two must be gone.
	if mem.GetByID("a") != nil || mem.GetByID("b") != nil {
		t.Error("Oldest records were not pruned")
	}
	if mem.GetByID("e") == nil {
		t.Error("Newest record was pruned")
	}
}

// TestPruner_NoPruningWhenDisabled tests that zero config keeps everything.
func TestPruner_NoPruningWhenDisabled(t *testing.T) {
	mem := storage.NewMemoryStorage()
	defer mem.Close()

	storeRecords(t, mem, 400*24*time.Hour, time.Hour)

	pruner := NewPruner(mem, &Config{RetentionDays: 0, MaxRecords: 0})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Prune() deleted %d, want 0", deleted)
	}
	if mem.Size() != 2 {
		t.Errorf("Remaining records = %d, want 2", mem.Size())
	}
}

// TestPruner_ArchiveBeforeDelete tests that pruned records are archived first.
func TestPruner_ArchiveBeforeDelete(t *testing.T) {
	mem := storage.NewMemoryStorage()
	defer mem.Close()

	storeRecords(t, mem, 40*24*time.Hour, time.Hour)

	archiveDir := t.TempDir()
	pruner := NewPruner(mem, &Config{
		RetentionDays:       30,
		ArchiveBeforeDelete: true,
		ArchivePath:         archiveDir,
	})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Prune() deleted %d, want 1", deleted)
	}

	archives, err := filepath.Glob(filepath.Join(archiveDir, "traffic-*.json"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(archives) != 1 {
		t.Fatalf("Expected 1 archive file, got %d", len(archives))
	}

	data, err := os.ReadFile(archives[0])
	if err != nil {
		t.Fatalf("Failed to read archive: %v", err)
	}
	if len(data) == 0 {
		t.Error("Archive file is empty")
	}
}

// TestPruner_DefaultConfig tests config defaulting.
func TestPruner_DefaultConfig(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), nil)

	if pruner.config.RetentionDays != 30 {
		t.Errorf("Default RetentionDays = %d, want 30", pruner.config.RetentionDays)
	}
	if pruner.config.PruneSchedule != "0 3 * * *" {
		t.Errorf("Default PruneSchedule = %q", pruner.config.PruneSchedule)
	}
}
