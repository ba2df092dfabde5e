package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/subvox/subvox/internal/models"
	"github.com/subvox/subvox/internal/ports"
)

type PostgresChunkRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresChunkRepo(pool *pgxpool.Pool) ports.ChunkRepository {
	return &PostgresChunkRepo{pool: pool}
}

func (r *PostgresChunkRepo) Upsert(ctx context.Context, chunk *models.ChunkUpload) (*models.ChunkUpload, error) {
	query := `
		INSERT INTO chunk_upload
			(upload_id, owner_id, chunk_number, total_chunks, chunk_size,
			 filename, file_type, total_size, chunk_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (upload_id, chunk_number) DO UPDATE
		SET chunk_size = EXCLUDED.chunk_size,
		    total_chunks = EXCLUDED.total_chunks,
		    chunk_path = EXCLUDED.chunk_path,
		    uploaded_at = now()
		RETURNING id, uploaded_at
	`
	row := r.pool.QueryRow(ctx, query,
		chunk.UploadID,
		chunk.OwnerID,
		chunk.ChunkNumber,
		chunk.TotalChunks,
		chunk.ChunkSize,
		chunk.Filename,
		chunk.FileType,
		chunk.TotalSize,
		chunk.ChunkPath,
	)
	if err := row.Scan(&chunk.ID, &chunk.UploadedAt); err != nil {
		return nil, fmt.Errorf("upsert chunk: %w", err)
	}
	return chunk, nil
}

func (r *PostgresChunkRepo) List(ctx context.Context, uploadID, ownerID string) ([]*models.ChunkUpload, error) {
	query := `
		SELECT id, upload_id, owner_id, chunk_number, total_chunks, chunk_size,
		       filename, file_type, total_size, chunk_path, uploaded_at
		FROM chunk_upload
		WHERE upload_id = $1 AND owner_id = $2
		ORDER BY chunk_number ASC
	`
	rows, err := r.pool.Query(ctx, query, uploadID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var out []*models.ChunkUpload
	for rows.Next() {
		var c models.ChunkUpload
		err := rows.Scan(
			&c.ID,
			&c.UploadID,
			&c.OwnerID,
			&c.ChunkNumber,
			&c.TotalChunks,
			&c.ChunkSize,
			&c.Filename,
			&c.FileType,
			&c.TotalSize,
			&c.ChunkPath,
			&c.UploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *PostgresChunkRepo) Count(ctx context.Context, uploadID, ownerID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunk_upload WHERE upload_id = $1 AND owner_id = $2`,
		uploadID, ownerID,
	).Scan(&n)
	return n, err
}

func (r *PostgresChunkRepo) DeleteAll(ctx context.Context, uploadID, ownerID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM chunk_upload WHERE upload_id = $1 AND owner_id = $2`,
		uploadID, ownerID,
	)
	return err
}
