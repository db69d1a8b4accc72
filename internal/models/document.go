package models

import "time"

// ProcessingStatus tracks where a document sits in the backend pipeline.

type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Document is the backend-owned record of an uploaded file. Clients hold a
// read-only cached copy refreshed by re-fetching the full list.
type Document struct {
	ID               string           `json:"id"`
	Filename         string           `json:"filename"`
	UploadTime       *time.Time       `json:"upload_time,omitempty"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
}
