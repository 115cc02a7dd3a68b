package model

import "time"

// TaskStatus represents the current state of an ingestion run.
type TaskStatus string

const (
	TaskStatusPending  TaskStatus = "pending"
	TaskStatusRunning  TaskStatus = "running"
	TaskStatusFinished TaskStatus = "finished"
	TaskStatusError    TaskStatus = "error"
)

// TaskStats aggregates per-run counters, persisted as JSON on the task row.
type TaskStats struct {
	NodesProcessed       int `json:"nodes_processed"`
	NodesFailed          int `json:"nodes_failed"`
	DistributionsUpdated int `json:"distributions_updated"`
	DistributionsSame    int `json:"distributions_unchanged"`
	DistributionsFailed  int `json:"distributions_failed"`
	FieldsCreated        int `json:"fields_created"`
	FieldsReattached     int `json:"fields_reattached"`
}

// Task records one ingestion run: status, timestamps, aggregated stats and
// free-text logs consumed by the external reporting surface.
type Task struct {
	ID         string     `json:"id"`
	Status     TaskStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Stats      TaskStats  `json:"stats"`
	Logs       string     `json:"logs"`
}

// IngestFileKind discriminates uploaded registry files.
type IngestFileKind string

const (
	IngestFileNodes     IngestFileKind = "nodes"
	IngestFileWhitelist IngestFileKind = "whitelist"
)

// IngestFileState tracks the processing lifecycle of a registry file.
type IngestFileState string

const (
	IngestFilePending    IngestFileState = "pending"
	IngestFileProcessing IngestFileState = "processing"
	IngestFileProcessed  IngestFileState = "processed"
	IngestFileFailed     IngestFileState = "failed"
)

// IngestFile records the processing of a node register or whitelist file.
type IngestFile struct {
	ID        string          `json:"id"`
	Kind      IngestFileKind  `json:"kind"`
	Path      string          `json:"path"`
	State     IngestFileState `json:"state"`
	Logs      string          `json:"logs"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
