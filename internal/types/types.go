// Package types holds the API payloads shared by the HTTP and websocket layers.
package types

import "time"

// HealthStatus represents the health status of a service
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProgressUpdate is pushed to websocket subscribers of a run
type ProgressUpdate struct {
	Type        string    `json:"type"` // "optimization_progress", "optimization_complete" or "optimization_failed"
	RunID       string    `json:"run_id"`
	Progress    float64   `json:"progress"` // 0.0 to 1.0
	Message     string    `json:"message"`
	CurrentStep string    `json:"current_step"`
	Produced    int       `json:"produced"`
	Requested   int       `json:"requested"`
	Timestamp   time.Time `json:"timestamp"`
}

const (
	ProgressTypeUpdate   = "optimization_progress"
	ProgressTypeComplete = "optimization_complete"
	ProgressTypeFailed   = "optimization_failed"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Success response for API endpoints
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
