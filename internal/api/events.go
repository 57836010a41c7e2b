package api

import (
	"time"
)

// Event types broadcast over the SSE stream.
const (
	EventConnected      = "connected"
	EventBuildStarted   = "build.started"
	EventBuildCompleted = "build.completed"
	EventBuildFailed    = "build.failed"
	EventLog            = "log"
)

// Emitter records build lifecycle events and forwards them to SSE clients.
// It is safe to use from multiple goroutines.
type Emitter struct {
	store *Store
	hub   *Hub
}

// NewEmitter creates a new event emitter.
func NewEmitter(store *Store, hub *Hub) *Emitter {
	return &Emitter{store: store, hub: hub}
}

// BuildStarted creates a new BuildRun in the store with StatusRunning and
// broadcasts a "build.started" event.
func (e *Emitter) BuildStarted(id, entityRef, workflowID string) {
	run := &BuildRun{
		ID:         id,
		EntityRef:  entityRef,
		WorkflowID: workflowID,
		Status:     StatusRunning,
		StartedAt:  time.Now(),
	}

	e.store.CreateRun(run)

	e.hub.Broadcast(&Event{
		Type:      EventBuildStarted,
		Timestamp: time.Now(),
		RunID:     id,
		Data:      run,
	})
}

// BuildCompleted marks the run completed and broadcasts "build.completed".
func (e *Emitter) BuildCompleted(runID string, indexed bool) {
	var completedRun *BuildRun

	e.store.UpdateRun(runID, func(run *BuildRun) {
		now := time.Now()
		run.Status = StatusCompleted
		run.CompletedAt = &now
		run.Indexed = indexed
		completedRun = run
	})

	e.hub.Broadcast(&Event{
		Type:      EventBuildCompleted,
		Timestamp: time.Now(),
		RunID:     runID,
		Data:      completedRun,
	})
}

// BuildFailed marks the run failed and broadcasts "build.failed".
func (e *Emitter) BuildFailed(runID string, err error) {
	var failedRun *BuildRun
	errorMsg := ""
	if err != nil {
		errorMsg = err.Error()
	}

	e.store.UpdateRun(runID, func(run *BuildRun) {
		now := time.Now()
		run.Status = StatusFailed
		run.CompletedAt = &now
		run.Error = errorMsg
		failedRun = run
	})

	e.hub.Broadcast(&Event{
		Type:      EventBuildFailed,
		Timestamp: time.Now(),
		RunID:     runID,
		Data:      failedRun,
	})
}

// Log adds a LogEntry to the store and broadcasts a "log" event.
func (e *Emitter) Log(runID, level, message string) {
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		RunID:     runID,
	}

	e.store.AddLog(entry)

	e.hub.Broadcast(&Event{
		Type:      EventLog,
		Timestamp: time.Now(),
		RunID:     runID,
		Data:      entry,
	})
}
