package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisStatus tracks a document through its analysis lifecycle. Transitions
// are monotonic: pending -> analyzing -> completed|failed. The terminal states
// are never exited.
type AnalysisStatus string

const (
	StatusPending   AnalysisStatus = "pending"
	StatusAnalyzing AnalysisStatus = "analyzing"
	StatusCompleted AnalysisStatus = "completed"
	StatusFailed    AnalysisStatus = "failed"
)

const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeText = "text/plain"
)

type Document struct {
	ID             uuid.UUID      `db:"id"`
	UserID         uuid.UUID      `db:"user_id"`
	Filename       string         `db:"filename"`
	MediaType      string         `db:"media_type"`
	FileSize       int64          `db:"file_size"`
	StorageKey     string         `db:"storage_key"`
	AnalysisStatus AnalysisStatus `db:"analysis_status"`
	UploadedAt     time.Time      `db:"uploaded_at"`
}

// SupportedMediaType reports whether the declared media type is one the
// service accepts for analysis.
func SupportedMediaType(mediaType string) bool {
	switch mediaType {
	case MediaTypePDF, MediaTypeDOCX, MediaTypeText:
		return true
	}
	return false
}
