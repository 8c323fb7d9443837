// Package metrics provides in-memory counters and recent-run history for
// the generation pipeline, served by the status API.
package metrics

import (
	"sync"
	"time"
)

// RunStatus classifies a completed pipeline run.
type RunStatus string

const (
	// RunStatusFull means both the image and the model were produced.
	RunStatusFull RunStatus = "full"
	// RunStatusPartial means the image was produced but the model stage failed.
	RunStatusPartial RunStatus = "partial"
	// RunStatusFailed means no artifact was produced.
	RunStatusFailed RunStatus = "failed"
)

// RunRecord is one completed pipeline run as seen by the metrics store.
type RunRecord struct {
	RunID      string        `json:"run_id"`
	Status     RunStatus     `json:"status"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Snapshot is a read-only view of the aggregated counters.
type Snapshot struct {
	TotalRuns    int64         `json:"total_runs"`
	FullRuns     int64         `json:"full_runs"`
	PartialRuns  int64         `json:"partial_runs"`
	FailedRuns   int64         `json:"failed_runs"`
	SuccessRate  float64       `json:"success_rate"`
	AvgDuration  time.Duration `json:"avg_duration"`
	Uptime       time.Duration `json:"uptime"`
	LastRunAt    time.Time     `json:"last_run_at,omitempty"`
	LastRunError string        `json:"last_run_error,omitempty"`
}

// Store aggregates pipeline run outcomes in memory. Runs are kept in a
// circular buffer; counters never reset for the process lifetime.
type Store struct {
	mu sync.RWMutex

	history []RunRecord
	cap     int
	head    int
	size    int

	totalRuns     int64
	fullRuns      int64
	partialRuns   int64
	failedRuns    int64
	totalDuration time.Duration
	lastRun       RunRecord

	startTime time.Time
}

// NewStore creates a Store retaining up to capacity recent runs.
func NewStore(capacity int, startTime time.Time) *Store {
	if capacity < 1 {
		capacity = 100
	}
	return &Store{
		history:   make([]RunRecord, capacity),
		cap:       capacity,
		startTime: startTime,
	}
}

// RecordRun logs a completed pipeline run.
func (s *Store) RecordRun(run RunRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[s.head] = run
	s.head = (s.head + 1) % s.cap
	if s.size < s.cap {
		s.size++
	}

	s.totalRuns++
	s.totalDuration += run.Duration
	switch run.Status {
	case RunStatusFull:
		s.fullRuns++
	case RunStatusPartial:
		s.partialRuns++
	default:
		s.failedRuns++
	}
	s.lastRun = run
}

// GetSnapshot returns the aggregated counters.
func (s *Store) GetSnapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		TotalRuns:   s.totalRuns,
		FullRuns:    s.fullRuns,
		PartialRuns: s.partialRuns,
		FailedRuns:  s.failedRuns,
		Uptime:      time.Since(s.startTime),
	}
	if s.totalRuns > 0 {
		snap.SuccessRate = float64(s.fullRuns+s.partialRuns) / float64(s.totalRuns) * 100
		snap.AvgDuration = s.totalDuration / time.Duration(s.totalRuns)
		snap.LastRunAt = s.lastRun.FinishedAt
		snap.LastRunError = s.lastRun.Error
	}
	return snap
}

// GetRecentRuns returns up to limit most recent runs, newest first.
func (s *Store) GetRecentRuns(limit int) []RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 || limit > s.size {
		limit = s.size
	}

	runs := make([]RunRecord, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (s.head - 1 - i + s.cap) % s.cap
		runs = append(runs, s.history[idx])
	}
	return runs
}

// Classify derives the run status from the per-stage outcomes.
func Classify(imageGenerated, modelGenerated bool) RunStatus {
	switch {
	case imageGenerated && modelGenerated:
		return RunStatusFull
	case imageGenerated:
		return RunStatusPartial
	default:
		return RunStatusFailed
	}
}
