package api

import "time"

// BuildStatus represents the state of a docs build run.
type BuildStatus string

const (
	StatusPending   BuildStatus = "pending"
	StatusRunning   BuildStatus = "running"
	StatusCompleted BuildStatus = "completed"
	StatusFailed    BuildStatus = "failed"
)

// BuildRun represents a single docs build for an entity, tracked from
// workflow start to its final result.
type BuildRun struct {
	ID          string      `json:"id"`
	EntityRef   string      `json:"entity_ref"`
	WorkflowID  string      `json:"workflow_id,omitempty"`
	Status      BuildStatus `json:"status"`
	Indexed     bool        `json:"indexed,omitempty"` // search index refreshed after publish
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// ServiceStats holds aggregate build statistics.
type ServiceStats struct {
	TotalBuilds     int     `json:"total_builds"`
	ActiveBuilds    int     `json:"active_builds"`
	CompletedBuilds int     `json:"completed_builds"`
	FailedBuilds    int     `json:"failed_builds"`
	AvgDuration     float64 `json:"avg_duration_seconds"`
	SuccessRate     float64 `json:"success_rate"`
}

// Event represents a real-time service event.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	RunID     string      `json:"run_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// LogEntry represents a log line for a build run.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	RunID     string    `json:"run_id"`
}
