package metrics

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// DefaultHistoryCapacity is the number of task records retained.
const DefaultHistoryCapacity = 100

// Store is an in-memory, thread-safe record of processed tasks.
// Task history is a ring buffer; aggregates cover every task ever recorded.
//
// Usage:
//
//	store := NewStore(DefaultStoreConfig(), time.Now())
//	task := NewTask(TaskTypeColorize, "photo.jpg")
//	store.Record(task.Finish(err))
//	lines := store.HistoryLines(10)
type Store struct {
	mu sync.RWMutex

	// Task history
	history []TaskRecord
	cap     int
	head    int // Write index
	size    int // Current number of records

	// Aggregation
	totalTasks    int64
	totalSuccess  int64
	totalDegraded int64
	totalErrors   int64
	byType        map[string]*taskTypeStats

	startTime time.Time
	version   string
}

// taskTypeStats holds per-type aggregation data
type taskTypeStats struct {
	count         int64
	successCount  int64
	totalDuration time.Duration
}

// StoreConfig configures the Store.
type StoreConfig struct {
	// HistoryCapacity is the max number of tasks to retain in history
	HistoryCapacity int
	// Version is the application version string
	Version string
}

// DefaultStoreConfig returns a default configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		HistoryCapacity: DefaultHistoryCapacity,
		Version:         "0.0.0",
	}
}

// NewStore creates a Store. The startTime is used to calculate uptime.
func NewStore(config StoreConfig, startTime time.Time) *Store {
	capacity := config.HistoryCapacity
	if capacity < 1 {
		capacity = DefaultHistoryCapacity
	}
	return &Store{
		history:   make([]TaskRecord, capacity),
		cap:       capacity,
		byType:    make(map[string]*taskTypeStats),
		startTime: startTime,
		version:   config.Version,
	}
}

// Record appends a finished task to the history and updates the totals.
// Records of type "history" only enter the history.
func (s *Store) Record(task TaskRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.push(task)

	if task.Type == TaskTypeHistory {
		return
	}

	s.totalTasks++
	switch task.Status {
	case TaskStatusSuccess:
		s.totalSuccess++
	case TaskStatusDegraded:
		s.totalDegraded++
	case TaskStatusError:
		s.totalErrors++
	}

	stats, ok := s.byType[task.Type]
	if !ok {
		stats = &taskTypeStats{}
		s.byType[task.Type] = stats
	}
	stats.count++
	if task.Status == TaskStatusSuccess || task.Status == TaskStatusDegraded {
		stats.successCount++
	}
	stats.totalDuration += task.Duration
}

// push must be called with the lock held.
func (s *Store) push(task TaskRecord) {
	s.history[s.head] = task
	s.head = (s.head + 1) % s.cap
	if s.size < s.cap {
		s.size++
	}
}

// Totals returns aggregated task processing statistics.
func (s *Store) Totals() TaskMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := TaskMetrics{
		TotalProcessed: s.totalTasks,
		TotalSuccess:   s.totalSuccess,
		TotalDegraded:  s.totalDegraded,
		TotalErrors:    s.totalErrors,
		ByType:         make(map[string]*TaskTypeMetrics, len(s.byType)),
	}
	for taskType, stats := range s.byType {
		tm := &TaskTypeMetrics{Count: stats.count}
		if stats.count > 0 {
			tm.SuccessRate = float64(stats.successCount) / float64(stats.count) * 100
			tm.AvgDuration = stats.totalDuration / time.Duration(stats.count)
		}
		m.ByType[taskType] = tm
	}
	return m
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) []TaskRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || s.size == 0 {
		return []TaskRecord{}
	}
	limit = min(limit, s.size)

	result := make([]TaskRecord, limit)
	for i := 0; i < limit; i++ {
		idx := (s.head - 1 - i + s.cap) % s.cap
		result[i] = s.history[idx]
	}
	return result
}

// HistoryLines returns up to limit formatted history lines, newest first.
func (s *Store) HistoryLines(limit int) []string {
	records := s.Recent(limit)
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.Line()
	}
	return lines
}

// Clear drops the history and records a "History cleared" entry.
// Totals are kept.
func (s *Store) Clear() {
	s.mu.Lock()
	s.history = make([]TaskRecord, s.cap)
	s.head, s.size = 0, 0
	s.mu.Unlock()

	s.Record(NewTask(TaskTypeHistory, "").Finish(nil))
}

// Len returns the number of records in the history.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Export writes the whole history, oldest first, under a titled header.
func (s *Store) Export(w io.Writer, now time.Time) error {
	records := s.Recent(s.cap)
	rule := strings.Repeat("=", 50)

	var b strings.Builder
	fmt.Fprintf(&b, "Image Colorizer - Processing History\n%s\n", rule)
	fmt.Fprintf(&b, "Exported: %s\n%s\n\n", now.Format("2006-01-02 15:04:05"), rule)
	for i := len(records) - 1; i >= 0; i-- {
		b.WriteString(records[i].Line())
		b.WriteByte('\n')
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("export history: %w", err)
	}
	return nil
}

// Status returns the overall system status.
func (s *Store) Status(modelLoaded bool) SystemStatus {
	return SystemStatus{
		Health:      SystemHealthHealthy,
		ModelLoaded: modelLoaded,
		Version:     s.version,
		Uptime:      time.Since(s.startTime),
		Timestamp:   time.Now(),
	}
}
