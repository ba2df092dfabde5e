package ports

import (
	"context"

	"github.com/subvox/subvox/internal/models"
)

// ChunkRepository records uploaded byte ranges per upload session.
// Upsert overwrites on (upload_id, chunk_number) so re-sent chunks never
// duplicate. Concurrent writes for one session are safe; "assemble exactly
// once" is the caller's contract, not the store's.
type ChunkRepository interface {
	Upsert(ctx context.Context, chunk *models.ChunkUpload) (*models.ChunkUpload, error)
	List(ctx context.Context, uploadID, ownerID string) ([]*models.ChunkUpload, error)
	Count(ctx context.Context, uploadID, ownerID string) (int, error)
	DeleteAll(ctx context.Context, uploadID, ownerID string) error
}
