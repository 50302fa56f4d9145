package pipeline

import "time"

// Progress levels.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// ProgressEvent represents one log line of a run as it happens
type ProgressEvent struct {
	BatchID   string    `json:"batch_id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	SourceURL string    `json:"source_url,omitempty"`
	Time      time.Time `json:"time"`
}

// ProgressCallback is called synchronously for every log line of a run
type ProgressCallback func(event ProgressEvent)
