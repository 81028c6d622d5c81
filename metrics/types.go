// Package metrics keeps an in-memory history of colorization tasks.
// This file contains the record and summary types.
package metrics

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskRecord represents a single task execution record.
type TaskRecord struct {
	// ID is the unique identifier for this task
	ID string `json:"id"`

	// Type identifies the kind of task (e.g., "colorize", "batch", "preset")
	Type string `json:"type"`

	// Input is the file or folder the task worked on
	Input string `json:"input,omitempty"`

	// Status indicates the current state: "success", "degraded", "error", "processing"
	Status string `json:"status"`

	// Style is the style name the task ran with
	Style string `json:"style,omitempty"`

	// Note is a short free-form summary, such as "4/5 files processed"
	Note string `json:"note,omitempty"`

	// StartTime is when the task began execution
	StartTime time.Time `json:"start_time"`

	// Duration is the total execution time
	Duration time.Duration `json:"duration"`

	// ErrorMsg contains error details if Status is "error" or "degraded"
	ErrorMsg string `json:"error_msg,omitempty"`
}

// NewTask starts a record with a fresh ID and the current time.
func NewTask(taskType, input string) TaskRecord {
	return TaskRecord{
		ID:        uuid.NewString(),
		Type:      taskType,
		Input:     input,
		Status:    TaskStatusProcessing,
		StartTime: time.Now(),
	}
}

// Finish stamps the duration and final status. A nil error means success.
func (r TaskRecord) Finish(err error) TaskRecord {
	r.Duration = time.Since(r.StartTime)
	if err != nil {
		r.Status = TaskStatusError
		r.ErrorMsg = err.Error()
		return r
	}
	r.Status = TaskStatusSuccess
	return r
}

// Degrade stamps the duration and marks the task as a grayscale fallback.
func (r TaskRecord) Degrade(cause error) TaskRecord {
	r.Duration = time.Since(r.StartTime)
	r.Status = TaskStatusDegraded
	if cause != nil {
		r.ErrorMsg = cause.Error()
	}
	return r
}

// Action renders the record as a one-line history action.
// This is a pure function with no side effects.
func (r TaskRecord) Action() string {
	var action string
	switch r.Type {
	case TaskTypeColorize:
		action = "Colorized: " + r.Input
	case TaskTypeBatch:
		action = "Batch: " + r.Note
	case TaskTypePreset:
		action = r.Input + " preset applied"
	case TaskTypeComparison:
		action = "Comparison exported: " + r.Input
	case TaskTypeSave:
		action = "Saved: " + r.Input
	case TaskTypeLoad:
		action = "Loaded: " + r.Input
	case TaskTypeHistory:
		action = "History cleared"
	default:
		action = r.Type
		if r.Input != "" {
			action += ": " + r.Input
		}
	}

	switch r.Status {
	case TaskStatusError:
		return fmt.Sprintf("Failed %s (%s)", action, r.ErrorMsg)
	case TaskStatusDegraded:
		return action + " (grayscale fallback)"
	}
	return action
}

// Line formats the record as "[HH:MM:SS] action".
func (r TaskRecord) Line() string {
	return fmt.Sprintf("[%s] %s", r.StartTime.Format("15:04:05"), r.Action())
}

// SystemStatus represents the overall system health and status.
// This is a pure data structure with no behavior.
type SystemStatus struct {
	// Health is always "healthy" while the process serves requests
	Health string `json:"status"`

	// ModelLoaded reports whether inference is available
	ModelLoaded bool `json:"model_loaded"`

	// Version is the application version string
	Version string `json:"version"`

	// Uptime is the duration since the application started
	Uptime time.Duration `json:"uptime"`

	// Timestamp is when the status was taken
	Timestamp time.Time `json:"timestamp"`
}

// TaskMetrics represents aggregated task processing statistics.
// This is a pure data structure with no behavior.
type TaskMetrics struct {
	// TotalProcessed is the total number of tasks processed
	TotalProcessed int64 `json:"total_processed"`

	// TotalSuccess is the count of successfully completed tasks
	TotalSuccess int64 `json:"total_success"`

	// TotalDegraded is the count of tasks that fell back to grayscale
	TotalDegraded int64 `json:"total_degraded"`

	// TotalErrors is the count of failed tasks
	TotalErrors int64 `json:"total_errors"`

	// ByType contains per-type statistics
	ByType map[string]*TaskTypeMetrics `json:"by_type"`
}

// TaskTypeMetrics represents statistics for a specific task type.
type TaskTypeMetrics struct {
	// Count is the total number of tasks of this type
	Count int64 `json:"count"`

	// SuccessRate is the percentage of successful operations (0-100).
	// Degraded tasks count as successful.
	SuccessRate float64 `json:"success_rate"`

	// AvgDuration is the average execution time for this task type
	AvgDuration time.Duration `json:"avg_duration"`
}

// Status constants for TaskRecord
const (
	TaskStatusSuccess    = "success"
	TaskStatusDegraded   = "degraded"
	TaskStatusError      = "error"
	TaskStatusProcessing = "processing"
)

// SystemHealthHealthy is the only health value reported.
const SystemHealthHealthy = "healthy"

// Task type constants
const (
	TaskTypeColorize   = "colorize"
	TaskTypeBatch      = "batch"
	TaskTypePreset     = "preset"
	TaskTypeComparison = "comparison"
	TaskTypeSave       = "save"
	TaskTypeLoad       = "load"
	TaskTypeHistory    = "history"
)
