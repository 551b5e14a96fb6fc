package domain

import (
	"time"

	"github.com/google/uuid"
)

// DownloadStatus represents the current status of a download
type DownloadStatus string

const (
	StatusQueued     DownloadStatus = "queued"
	StatusProcessing DownloadStatus = "processing"
	StatusCompleted  DownloadStatus = "completed"
	StatusFailed     DownloadStatus = "failed"
	StatusCancelled  DownloadStatus = "cancelled"
)

// Download represents a download job as tracked by the service layer. The
// orchestration pipeline itself is stateless; this record carries the request
// fields plus job state for the API.
type Download struct {
	ID             string         `json:"id" gorm:"primaryKey"`
	URL            string         `json:"url" gorm:"not null"`
	Kind           MediaKind      `json:"kind" gorm:"not null"`
	QualityCeiling int            `json:"quality_ceiling,omitempty"`
	Destination    string         `json:"destination,omitempty"`
	Status         DownloadStatus `json:"status" gorm:"not null;index"`
	Title          string         `json:"title,omitempty"`
	FilePath       string         `json:"file_path,omitempty"`
	SizeBytes      int64          `json:"size_bytes,omitempty"`
	ErrorKind      ErrorKind      `json:"error_kind,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// NewDownload creates a new queued download job from a request
func NewDownload(req DownloadRequest) *Download {
	return &Download{
		ID:             uuid.New().String(),
		URL:            req.URL,
		Kind:           req.Kind,
		QualityCeiling: req.QualityCeiling,
		Destination:    req.Destination,
		Status:         StatusQueued,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

// Request reconstructs the immutable request this job was created from
func (d *Download) Request() DownloadRequest {
	return DownloadRequest{
		URL:            d.URL,
		Kind:           d.Kind,
		QualityCeiling: d.QualityCeiling,
		Destination:    d.Destination,
	}
}

// MarkProcessing marks the download as processing
func (d *Download) MarkProcessing() {
	d.Status = StatusProcessing
	now := time.Now()
	d.StartedAt = &now
	d.UpdatedAt = now
}

// MarkCompleted records the verified artifact and marks the job completed
func (d *Download) MarkCompleted(artifactPath, title string, sizeBytes int64) {
	d.Status = StatusCompleted
	d.FilePath = artifactPath
	d.Title = title
	d.SizeBytes = sizeBytes
	d.ErrorKind = ErrNone
	d.ErrorMessage = ""
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
}

// MarkFailed records the terminal error kind and message
func (d *Download) MarkFailed(kind ErrorKind, message string) {
	d.Status = StatusFailed
	d.ErrorKind = kind
	d.ErrorMessage = message
	d.UpdatedAt = time.Now()
}

// MarkCancelled marks the download as cancelled
func (d *Download) MarkCancelled() {
	d.Status = StatusCancelled
	d.UpdatedAt = time.Now()
}

// ResetForRetry returns a failed or cancelled job to the queue
func (d *Download) ResetForRetry() {
	d.Status = StatusQueued
	d.ErrorKind = ErrNone
	d.ErrorMessage = ""
	d.StartedAt = nil
	d.CompletedAt = nil
	d.UpdatedAt = time.Now()
}

// IsTerminal checks if the download is in a terminal state
func (d *Download) IsTerminal() bool {
	return d.Status == StatusCompleted || d.Status == StatusCancelled
}

// IsPending checks if the download is pending
func (d *Download) IsPending() bool {
	return d.Status == StatusQueued
}

// IsProcessing checks if the download is currently processing
func (d *Download) IsProcessing() bool {
	return d.Status == StatusProcessing
}
