package api

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestStore_CreateAndGetRun(t *testing.T) {
	store := NewStore()

	run := &BuildRun{
		ID:        "test-1",
		EntityRef: "group:default/backend",
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}

	store.CreateRun(run)

	retrieved, ok := store.GetRun("test-1")
	if !ok {
		t.Fatal("Expected to retrieve run, got not found")
	}
	if retrieved.ID != run.ID {
		t.Errorf("Expected ID %s, got %s", run.ID, retrieved.ID)
	}
	if retrieved.EntityRef != run.EntityRef {
		t.Errorf("Expected EntityRef %s, got %s", run.EntityRef, retrieved.EntityRef)
	}
	if retrieved.Status != run.Status {
		t.Errorf("Expected Status %s, got %s", run.Status, retrieved.Status)
	}
}

func TestStore_ListRuns(t *testing.T) {
	store := NewStore()

	now := time.Now()
	store.CreateRun(&BuildRun{ID: "test-1", Status: StatusCompleted, StartedAt: now.Add(-2 * time.Hour)})
	store.CreateRun(&BuildRun{ID: "test-2", Status: StatusRunning, StartedAt: now.Add(-1 * time.Hour)})
	store.CreateRun(&BuildRun{ID: "test-3", Status: StatusPending, StartedAt: now})

	runs := store.ListRuns()
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(runs))
	}

	// Sorted by StartedAt descending (most recent first)
	if runs[0].ID != "test-3" || runs[1].ID != "test-2" || runs[2].ID != "test-1" {
		t.Errorf("Unexpected run order: %s, %s, %s", runs[0].ID, runs[1].ID, runs[2].ID)
	}
}

func TestStore_UpdateRun(t *testing.T) {
	store := NewStore()
	store.CreateRun(&BuildRun{ID: "test-1", Status: StatusPending})

	store.UpdateRun("test-1", func(r *BuildRun) {
		r.Status = StatusRunning
	})

	updated, _ := store.GetRun("test-1")
	if updated.Status != StatusRunning {
		t.Errorf("Expected status Running, got %s", updated.Status)
	}

	// Updating a non-existent run should be a safe no-op.
	store.UpdateRun("non-existent", func(r *BuildRun) {
		r.Status = StatusFailed
	})
}

func TestStore_GetStats(t *testing.T) {
	store := NewStore()
	now := time.Now()

	completed1 := now.Add(-30 * time.Minute)
	store.CreateRun(&BuildRun{
		ID:          "test-1",
		Status:      StatusCompleted,
		StartedAt:   now.Add(-1 * time.Hour),
		CompletedAt: &completed1,
	})

	completed2 := now.Add(-15 * time.Minute)
	store.CreateRun(&BuildRun{
		ID:          "test-2",
		Status:      StatusCompleted,
		StartedAt:   now.Add(-45 * time.Minute),
		CompletedAt: &completed2,
	})

	store.CreateRun(&BuildRun{
		ID:        "test-3",
		Status:    StatusRunning,
		StartedAt: now.Add(-10 * time.Minute),
	})

	failedAt := now.Add(-90 * time.Minute)
	store.CreateRun(&BuildRun{
		ID:          "test-4",
		Status:      StatusFailed,
		StartedAt:   now.Add(-2 * time.Hour),
		CompletedAt: &failedAt,
	})

	stats := store.GetStats()

	if stats.TotalBuilds != 4 {
		t.Errorf("Expected TotalBuilds 4, got %d", stats.TotalBuilds)
	}
	if stats.CompletedBuilds != 2 {
		t.Errorf("Expected CompletedBuilds 2, got %d", stats.CompletedBuilds)
	}
	if stats.ActiveBuilds != 1 {
		t.Errorf("Expected ActiveBuilds 1, got %d", stats.ActiveBuilds)
	}
	if stats.FailedBuilds != 1 {
		t.Errorf("Expected FailedBuilds 1, got %d", stats.FailedBuilds)
	}
	if stats.SuccessRate != 0.5 {
		t.Errorf("Expected SuccessRate 0.5, got %f", stats.SuccessRate)
	}
	// (30 + 30) / 2 = 30 minutes = 1800 seconds
	if stats.AvgDuration != 1800.0 {
		t.Errorf("Expected AvgDuration 1800 seconds, got %f", stats.AvgDuration)
	}
}

func TestStore_AddAndGetLogs(t *testing.T) {
	store := NewStore()
	now := time.Now()

	store.AddLog(LogEntry{Timestamp: now.Add(-3 * time.Minute), Level: "info", Message: "First log", RunID: "test-1"})
	store.AddLog(LogEntry{Timestamp: now.Add(-2 * time.Minute), Level: "warn", Message: "Second log", RunID: "test-1"})
	store.AddLog(LogEntry{Timestamp: now.Add(-1 * time.Minute), Level: "error", Message: "Third log", RunID: "test-1"})
	store.AddLog(LogEntry{Timestamp: now, Level: "info", Message: "Different run", RunID: "test-2"})

	logs := store.GetLogs("test-1", 0)
	if len(logs) != 3 {
		t.Fatalf("Expected 3 logs for test-1, got %d", len(logs))
	}

	// Most recent first
	if logs[0].Message != "Third log" {
		t.Errorf("Expected first log to be 'Third log', got %s", logs[0].Message)
	}
	if logs[2].Message != "First log" {
		t.Errorf("Expected last log to be 'First log', got %s", logs[2].Message)
	}

	limited := store.GetLogs("test-1", 2)
	if len(limited) != 2 {
		t.Fatalf("Expected 2 logs with limit, got %d", len(limited))
	}

	logs2 := store.GetLogs("test-2", 0)
	if len(logs2) != 1 || logs2[0].Message != "Different run" {
		t.Errorf("Unexpected logs for test-2: %v", logs2)
	}
}

func TestStore_Eviction(t *testing.T) {
	store := NewStore()
	now := time.Now()

	for i := 0; i < 110; i++ {
		completed := now.Add(time.Duration(-i) * time.Minute)
		store.CreateRun(&BuildRun{
			ID:          fmt.Sprintf("run-%03d", i),
			Status:      StatusCompleted,
			StartedAt:   now.Add(time.Duration(-i-1) * time.Minute),
			CompletedAt: &completed,
		})
	}

	runs := store.ListRuns()
	if len(runs) != maxRuns {
		t.Errorf("Expected %d runs after eviction, got %d", maxRuns, len(runs))
	}

	// Oldest by completion time were created last, so they get evicted.
	for i := 100; i < 110; i++ {
		id := fmt.Sprintf("run-%03d", i)
		if _, ok := store.GetRun(id); ok {
			t.Errorf("Expected old run %s to be evicted, but it still exists", id)
		}
	}
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("run-%03d", i)
		if _, ok := store.GetRun(id); !ok {
			t.Errorf("Expected recent run %s to exist, but it was evicted", id)
		}
	}
}

func TestEmitter_BuildLifecycle(t *testing.T) {
	store := NewStore()
	hub := NewHub()
	emitter := NewEmitter(store, hub)

	emitter.BuildStarted("test-1", "group:default/backend", "docs-build-abc")

	run, ok := store.GetRun("test-1")
	if !ok {
		t.Fatal("Expected build run to be created")
	}
	if run.Status != StatusRunning {
		t.Errorf("Expected status Running, got %s", run.Status)
	}
	if run.WorkflowID != "docs-build-abc" {
		t.Errorf("Expected workflow ID, got %s", run.WorkflowID)
	}

	emitter.Log("test-1", "info", "docs published for group:default/backend")
	emitter.BuildCompleted("test-1", true)

	run, _ = store.GetRun("test-1")
	if run.Status != StatusCompleted {
		t.Errorf("Expected status Completed, got %s", run.Status)
	}
	if run.CompletedAt == nil {
		t.Error("Expected CompletedAt to be set")
	}
	if !run.Indexed {
		t.Error("Expected Indexed to be recorded on the run")
	}

	logs := store.GetLogs("test-1", 0)
	if len(logs) != 1 || logs[0].Level != "info" {
		t.Errorf("Unexpected logs: %v", logs)
	}
}

func TestEmitter_BuildFailed(t *testing.T) {
	store := NewStore()
	hub := NewHub()
	emitter := NewEmitter(store, hub)

	emitter.BuildStarted("test-1", "group:default/backend", "docs-build-abc")

	buildErr := errors.New("generator exited with status 2")
	emitter.Log("test-1", "error", buildErr.Error())
	emitter.BuildFailed("test-1", buildErr)

	run, _ := store.GetRun("test-1")
	if run.Status != StatusFailed {
		t.Errorf("Expected status Failed, got %s", run.Status)
	}
	if run.Error != "generator exited with status 2" {
		t.Errorf("Expected run error to be set, got %s", run.Error)
	}
	if run.CompletedAt == nil {
		t.Error("Expected CompletedAt to be set on failed build")
	}

	logs := store.GetLogs("test-1", 0)
	if len(logs) != 1 || logs[0].Level != "error" {
		t.Errorf("Unexpected logs: %v", logs)
	}
}

func TestHub_ClientCountTracksRegistrations(t *testing.T) {
	hub := NewHub()
	if hub.ClientCount() != 0 {
		t.Fatalf("new hub reports %d clients", hub.ClientCount())
	}

	c := &Client{done: make(chan struct{})}
	hub.Register(c)
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount = %d after register, want 1", hub.ClientCount())
	}

	hub.Unregister(c)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d after unregister, want 0", hub.ClientCount())
	}

	// Double unregister is a safe no-op.
	hub.Unregister(c)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d after double unregister, want 0", hub.ClientCount())
	}
}
