package ports

import (
	"context"

	"github.com/subvox/subvox/internal/models"
)

// MediaRepository is the durable record store for media files. Mutations are
// split per pipeline stage so each stage stays the sole writer of the fields
// it owns.
type MediaRepository interface {
	Insert(ctx context.Context, media *models.MediaFile) (*models.MediaFile, error)
	GetByID(ctx context.Context, id string) (*models.MediaFile, error)
	GetForOwner(ctx context.Context, id, ownerID string) (*models.MediaFile, error)
	ListByStatus(ctx context.Context, statuses ...string) ([]*models.MediaFile, error)
	Delete(ctx context.Context, id string) error

	SetStatus(ctx context.Context, id, status string) error
	SetFailed(ctx context.Context, id, status, errMsg string) error

	// Stage-owned field sets.
	SetOriginalPath(ctx context.Context, id, path, status string) error
	SetAudioPath(ctx context.Context, id, path, status string) error
	SetJobRef(ctx context.Context, id, ref string) error
}
