package webui

import (
	"time"
)

// Message types sent to websocket clients.
const (
	// MessageTypeInitial carries the status snapshot sent on connect
	MessageTypeInitial = "initial"

	// MessageTypeBatchProgress is sent after each file of a batch finishes
	MessageTypeBatchProgress = "batch_progress"

	// MessageTypeTaskComplete is sent when a colorize or batch request ends
	MessageTypeTaskComplete = "task_complete"

	// MessageTypeError reports a failure outside any task
	MessageTypeError = "error"
)

// WSMessage is the envelope for every websocket message.
type WSMessage struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// NewWSMessage creates a message stamped with the current time.
func NewWSMessage(msgType string, data interface{}) WSMessage {
	return WSMessage{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// BatchProgressData reports one finished file of a batch request.
type BatchProgressData struct {
	BatchID   string `json:"batch_id"`
	Filename  string `json:"filename"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// TaskCompleteData summarizes a finished request.
type TaskCompleteData struct {
	TaskID   string `json:"task_id"`
	TaskType string `json:"task_type"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// ErrorData describes a non-task failure.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
