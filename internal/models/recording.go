package models

import (
	"time"

	"github.com/google/uuid"
)

// Recording archival status values.
const (
	RecordingPending   = "pending"
	RecordingCompleted = "completed"
)

// Recording is a recorded webinar session. RecordingURL points at the
// external provider; S3Key is set once the worker archives the file.
type Recording struct {
	ID              uuid.UUID  `json:"id"`
	EventID         uuid.UUID  `json:"event_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	RecordingURL    string     `json:"recording_url"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	UploadedBy      *uuid.UUID `json:"uploaded_by,omitempty"`
	IsPublic        bool       `json:"is_public"`
	S3Key           *string    `json:"s3_key,omitempty"`
	Status          string     `json:"status"`
	UploadedAt      time.Time  `json:"uploaded_at"`
}
