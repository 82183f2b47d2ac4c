package models

import (
	"time"

	"github.com/google/uuid"
)

// ImportJobKind identifies the kind of background corpus job
type ImportJobKind string

const (
	JobKindBulkImport       ImportJobKind = "bulk_import"
	JobKindUpdateEmbeddings ImportJobKind = "update_embeddings"
)

// ImportJobStatus represents the status of a background job
type ImportJobStatus string

const (
	JobStatusPending    ImportJobStatus = "pending"
	JobStatusInProgress ImportJobStatus = "in_progress"
	JobStatusCompleted  ImportJobStatus = "completed"
	JobStatusFailed     ImportJobStatus = "failed"
)

// ImportJob represents a long-running corpus job. Jobs report incremental
// progress (current/total) and run to completion or failure; callers poll
// status, cancellation is not supported.
type ImportJob struct {
	ID           uuid.UUID       `json:"id"`
	Kind         ImportJobKind   `json:"kind"`
	Status       ImportJobStatus `json:"status"`
	Current      int             `json:"current"`
	Total        int             `json:"total"`
	Message      string          `json:"message"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}
