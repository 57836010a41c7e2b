package api

import (
	"sort"
	"sync"
	"time"
)

const (
	maxRuns      = 100
	maxTotalLogs = 10000
)

// Store provides thread-safe in-memory storage for build runs and logs.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*BuildRun
	logs []LogEntry
}

// NewStore creates a new Store instance.
func NewStore() *Store {
	return &Store{
		runs: make(map[string]*BuildRun),
		logs: make([]LogEntry, 0, maxTotalLogs),
	}
}

// CreateRun adds a new build run to the store.
func (s *Store) CreateRun(run *BuildRun) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	s.evictOldRuns()
}

// GetRun retrieves a build run by ID.
func (s *Store) GetRun(id string) (*BuildRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok
}

// ListRuns returns all build runs sorted by StartedAt descending.
func (s *Store) ListRuns() []*BuildRun {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*BuildRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	return runs
}

// UpdateRun performs a thread-safe update on a build run.
func (s *Store) UpdateRun(id string, fn func(*BuildRun)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run, ok := s.runs[id]; ok {
		fn(run)
	}
}

// GetStats computes and returns aggregate statistics.
func (s *Store) GetStats() *ServiceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &ServiceStats{
		TotalBuilds: len(s.runs),
	}

	var totalDuration time.Duration
	var completedCount int

	for _, run := range s.runs {
		switch run.Status {
		case StatusRunning, StatusPending:
			stats.ActiveBuilds++
		case StatusCompleted:
			stats.CompletedBuilds++
			completedCount++
			if run.CompletedAt != nil {
				totalDuration += run.CompletedAt.Sub(run.StartedAt)
			}
		case StatusFailed:
			stats.FailedBuilds++
		}
	}

	if completedCount > 0 {
		stats.AvgDuration = totalDuration.Seconds() / float64(completedCount)
	}
	if stats.TotalBuilds > 0 {
		stats.SuccessRate = float64(stats.CompletedBuilds) / float64(stats.TotalBuilds)
	}

	return stats
}

// AddLog adds a log entry to the store.
func (s *Store) AddLog(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, entry)
	if len(s.logs) > maxTotalLogs {
		s.logs = s.logs[len(s.logs)-maxTotalLogs:]
	}
}

// GetLogs retrieves logs for a specific run, most recent first.
func (s *Store) GetLogs(runID string, limit int) []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []LogEntry
	for i := len(s.logs) - 1; i >= 0; i-- {
		if s.logs[i].RunID == runID {
			filtered = append(filtered, s.logs[i])
			if limit > 0 && len(filtered) >= limit {
				break
			}
		}
	}

	return filtered
}

// evictOldRuns removes the oldest finished runs if we exceed maxRuns.
// Must be called with lock held.
func (s *Store) evictOldRuns() {
	if len(s.runs) <= maxRuns {
		return
	}

	type runTime struct {
		id   string
		time time.Time
	}

	var finished []runTime
	for id, run := range s.runs {
		if run.Status == StatusCompleted || run.Status == StatusFailed {
			t := run.StartedAt
			if run.CompletedAt != nil {
				t = *run.CompletedAt
			}
			finished = append(finished, runTime{id: id, time: t})
		}
	}
	if len(finished) == 0 {
		return
	}

	sort.Slice(finished, func(i, j int) bool {
		return finished[i].time.Before(finished[j].time)
	})

	toDelete := len(s.runs) - maxRuns
	for i := 0; i < toDelete && i < len(finished); i++ {
		delete(s.runs, finished[i].id)
	}
}
