package ports

import (
	"context"
	"io"

	"github.com/subvox/subvox/internal/models"
)

// StatusEvent is emitted on every media status transition and fanned out to
// websocket subscribers.
type StatusEvent struct {
	MediaID string
	Status  string
	Error   string
}

type SaveChunkInput struct {
	UploadID    string
	OwnerID     string
	ChunkNumber int
	TotalChunks int
	Filename    string
	FileType    string
	TotalSize   int64
	Payload     io.Reader
	PayloadSize int64
}

type SaveChunkResult struct {
	Chunk    *models.ChunkUpload
	Uploaded int
	Total    int
	Complete bool
	// Media is set when this chunk completed the session and assembly ran.
	Media *models.MediaFile
}

type UploadService interface {
	SaveChunk(ctx context.Context, in SaveChunkInput) (*SaveChunkResult, error)
	CancelUpload(ctx context.Context, uploadID, ownerID string) error
}

// MediaProcessor drives one media record's pipeline (normalize → split →
// transcribe → render) as a background task.
type MediaProcessor interface {
	// Start enqueues the pipeline for a freshly assembled record.
	Start(media *models.MediaFile)
	// Retry re-drives a failed_transcription record from pending_transcription.
	Retry(ctx context.Context, mediaID, ownerID string) error
	// Recover re-enqueues records stuck in a processing status after restart.
	Recover(ctx context.Context) error
	// UpdateSegments replaces a completed transcript's segments with
	// edited ones and re-renders the subtitle artifacts.
	UpdateSegments(ctx context.Context, mediaID, ownerID string, segments []models.Segment) (*models.Transcription, error)
	// DeleteMedia removes artifacts and records for a media file.
	DeleteMedia(ctx context.Context, mediaID, ownerID string) error
	Events() <-chan StatusEvent
}
