package retention

import (
	"context"
	"testing"
	"time"

	"mercator-hq/mercury/pkg/history/storage"
)

// TestScheduler_StartStop tests the scheduler lifecycle.
func TestScheduler_StartStop(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), &Config{
		RetentionDays: 30,
		PruneSchedule: "0 3 * * *",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pruner.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if !pruner.scheduler.IsRunning() {
		t.Error("Scheduler not running after Start()")
	}

	next := pruner.NextPruning()
	if next == nil {
		t.Fatal("NextPruning() = nil, want a scheduled time")
	}
	if !next.After(time.Now()) {
		t.Errorf("NextPruning() = %v, want a future time", next)
	}

	pruner.Stop()
	if pruner.scheduler.IsRunning() {
		t.Error("Scheduler still running after Stop()")
	}
}

// TestScheduler_EmptySchedule tests that an empty schedule is a no-op.
func TestScheduler_EmptySchedule(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), &Config{
		RetentionDays: 30,
		PruneSchedule: "",
	})

	if err := pruner.Start(context.Background()); err != nil {
		t.Fatalf("Start() with empty schedule failed: %v", err)
	}
	if pruner.scheduler.IsRunning() {
		t.Error("Scheduler running without a schedule")
	}
}

// TestScheduler_InvalidSchedule tests cron expression validation.
func TestScheduler_InvalidSchedule(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), &Config{
		RetentionDays: 30,
		PruneSchedule: "not a cron expression",
	})

	if err := pruner.Start(context.Background()); err == nil {
		t.Error("Start() with invalid schedule should fail")
	}
}

// TestScheduler_StopOnContextCancel tests shutdown via context.
func TestScheduler_StopOnContextCancel(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), &Config{
		RetentionDays: 30,
		PruneSchedule: "0 3 * * *",
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := pruner.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for pruner.scheduler.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if pruner.scheduler.IsRunning() {
		t.Error("Scheduler did not stop after context cancellation")
	}
}
