package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventSyncStart     AuditEventType = "sync.start"
	AuditEventSyncComplete  AuditEventType = "sync.complete"
	AuditEventSyncError     AuditEventType = "sync.error"
	AuditEventCatalogFetch  AuditEventType = "catalog.fetch"
	AuditEventChartBuild    AuditEventType = "chart.build"
	AuditEventGraphStore    AuditEventType = "graph.store"
	AuditEventSearchIndex   AuditEventType = "search.index"
	AuditEventDocsGenerate  AuditEventType = "docs.generate"
	AuditEventDocsPublish   AuditEventType = "docs.publish"
	AuditEventWorkflowStart AuditEventType = "workflow.start"
	AuditEventWorkflowEnd   AuditEventType = "workflow.end"
)

// AuditEvent represents a single audit log entry.
type AuditEvent struct {
	Timestamp   time.Time              `json:"timestamp"`
	EventType   AuditEventType         `json:"event_type"`
	SessionID   string                 `json:"session_id"`
	WorkflowID  string                 `json:"workflow_id,omitempty"`
	EntityRef   string                 `json:"entity_ref,omitempty"`
	UserID      string                 `json:"user_id,omitempty"`
	Success     bool                   `json:"success"`
	Duration    time.Duration          `json:"duration_ms,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
	ErrorDetail string                 `json:"error_detail,omitempty"`
}

// AuditLogger handles audit event logging.
type AuditLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	sessionID string
	userID    string
	enabled   bool
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enabled    bool
	OutputPath string // File path or "stdout"/"stderr"
	SessionID  string
	UserID     string
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		Enabled:    true,
		OutputPath: "stdout",
	}
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(config *AuditConfig) (*AuditLogger, error) {
	if config == nil {
		config = DefaultAuditConfig()
	}

	var writer io.Writer
	switch config.OutputPath {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		writer = f
	}

	sessionID := config.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("session-%d", time.Now().UnixNano())
	}

	return &AuditLogger{
		writer:    writer,
		sessionID: sessionID,
		userID:    config.UserID,
		enabled:   config.Enabled,
	}, nil
}

// Log writes an audit event.
func (l *AuditLogger) Log(event *AuditEvent) error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Fill in defaults
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.SessionID == "" {
		event.SessionID = l.sessionID
	}
	if event.UserID == "" {
		event.UserID = l.userID
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	_, err = fmt.Fprintf(l.writer, "%s\n", data)
	return err
}

// LogSyncStart logs the start of a catalog sync run.
func (l *AuditLogger) LogSyncStart(ctx context.Context, kinds []string) {
	l.Log(&AuditEvent{
		EventType: AuditEventSyncStart,
		Success:   true,
		Message:   "Catalog sync started",
		Details: map[string]interface{}{
			"kinds": kinds,
		},
	})
}

// LogSyncComplete logs the completion of a catalog sync run.
func (l *AuditLogger) LogSyncComplete(ctx context.Context, duration time.Duration, entityCount, nodeCount, edgeCount int) {
	l.Log(&AuditEvent{
		EventType: AuditEventSyncComplete,
		Success:   true,
		Duration:  duration,
		Message:   "Catalog sync completed",
		Details: map[string]interface{}{
			"entity_count": entityCount,
			"node_count":   nodeCount,
			"edge_count":   edgeCount,
		},
	})
}

// LogSyncError logs a failed sync run.
func (l *AuditLogger) LogSyncError(ctx context.Context, stage string, err error) {
	l.Log(&AuditEvent{
		EventType:   AuditEventSyncError,
		Success:     false,
		Message:     fmt.Sprintf("Catalog sync failed during %s", stage),
		ErrorDetail: err.Error(),
		Details: map[string]interface{}{
			"stage": stage,
		},
	})
}

// LogCatalogFetch logs a catalog fetch.
func (l *AuditLogger) LogCatalogFetch(ctx context.Context, kinds []string, entityCount int, duration time.Duration) {
	l.Log(&AuditEvent{
		EventType: AuditEventCatalogFetch,
		Success:   true,
		Duration:  duration,
		Message:   fmt.Sprintf("Fetched %d entities", entityCount),
		Details: map[string]interface{}{
			"kinds":        kinds,
			"entity_count": entityCount,
		},
	})
}

// LogChartBuild logs an org chart build.
func (l *AuditLogger) LogChartBuild(ctx context.Context, nodeCount, edgeCount, placeholderCount int) {
	l.Log(&AuditEvent{
		EventType: AuditEventChartBuild,
		Success:   true,
		Message:   fmt.Sprintf("Built chart: %d nodes, %d edges", nodeCount, edgeCount),
		Details: map[string]interface{}{
			"node_count":        nodeCount,
			"edge_count":        edgeCount,
			"placeholder_count": placeholderCount,
		},
	})
}

// LogGraphStore logs a graph store write.
func (l *AuditLogger) LogGraphStore(ctx context.Context, nodeCount, edgeCount int, duration time.Duration) {
	l.Log(&AuditEvent{
		EventType: AuditEventGraphStore,
		Success:   true,
		Duration:  duration,
		Message:   fmt.Sprintf("Stored graph: %d nodes, %d edges", nodeCount, edgeCount),
		Details: map[string]interface{}{
			"node_count": nodeCount,
			"edge_count": edgeCount,
		},
	})
}

// LogSearchIndex logs a search index write.
func (l *AuditLogger) LogSearchIndex(ctx context.Context, docCount int, duration time.Duration) {
	l.Log(&AuditEvent{
		EventType: AuditEventSearchIndex,
		Success:   true,
		Duration:  duration,
		Message:   fmt.Sprintf("Indexed %d documents", docCount),
		Details: map[string]interface{}{
			"doc_count": docCount,
		},
	})
}

// LogDocsGenerate logs a docs generation run.
func (l *AuditLogger) LogDocsGenerate(ctx context.Context, entityRef string, success bool, duration time.Duration, errorMsg string) {
	event := &AuditEvent{
		EventType: AuditEventDocsGenerate,
		EntityRef: entityRef,
		Success:   success,
		Duration:  duration,
		Message:   fmt.Sprintf("Generated docs for %s", entityRef),
	}
	if errorMsg != "" {
		event.ErrorDetail = errorMsg
	}
	l.Log(event)
}

// LogDocsPublish logs a docs publish.
func (l *AuditLogger) LogDocsPublish(ctx context.Context, entityRef, targetDir string) {
	l.Log(&AuditEvent{
		EventType: AuditEventDocsPublish,
		EntityRef: entityRef,
		Success:   true,
		Message:   fmt.Sprintf("Published docs for %s", entityRef),
		Details: map[string]interface{}{
			"target_dir": targetDir,
		},
	})
}

// LogWorkflowStart logs a docs build workflow start.
func (l *AuditLogger) LogWorkflowStart(ctx context.Context, workflowID, entityRef string) {
	l.Log(&AuditEvent{
		EventType:  AuditEventWorkflowStart,
		WorkflowID: workflowID,
		EntityRef:  entityRef,
		Success:    true,
		Message:    fmt.Sprintf("Docs build workflow started for %s", entityRef),
	})
}

// LogWorkflowEnd logs a docs build workflow completion.
func (l *AuditLogger) LogWorkflowEnd(ctx context.Context, workflowID, entityRef string, success bool, duration time.Duration) {
	l.Log(&AuditEvent{
		EventType:  AuditEventWorkflowEnd,
		WorkflowID: workflowID,
		EntityRef:  entityRef,
		Success:    success,
		Duration:   duration,
		Message:    fmt.Sprintf("Docs build workflow completed for %s", entityRef),
	})
}

// Close closes the audit logger (if using a file).
func (l *AuditLogger) Close() error {
	if closer, ok := l.writer.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}
	return nil
}

// Global audit logger instance
var globalAuditLogger *AuditLogger
var auditOnce sync.Once

// InitGlobalAuditLogger initializes the global audit logger.
func InitGlobalAuditLogger(config *AuditConfig) error {
	var err error
	auditOnce.Do(func() {
		globalAuditLogger, err = NewAuditLogger(config)
	})
	return err
}

// Audit returns the global audit logger.
func Audit() *AuditLogger {
	if globalAuditLogger == nil {
		// Return a disabled logger if not initialized
		return &AuditLogger{enabled: false}
	}
	return globalAuditLogger
}
