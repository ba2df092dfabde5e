package ports

import (
	"context"

	"github.com/subvox/subvox/internal/models"
)

type TranscriptRepository interface {
	Insert(ctx context.Context, t *models.Transcription) (*models.Transcription, error)
	GetByMediaID(ctx context.Context, mediaID string) (*models.Transcription, error)
	// UpdateResult persists an edited transcript: raw output and counts.
	UpdateResult(ctx context.Context, t *models.Transcription) error
	DeleteByMediaID(ctx context.Context, mediaID string) error
}
