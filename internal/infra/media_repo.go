package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/subvox/subvox/internal/models"
	"github.com/subvox/subvox/internal/ports"
)

type PostgresMediaRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresMediaRepo(pool *pgxpool.Pool) ports.MediaRepository {
	return &PostgresMediaRepo{pool: pool}
}

const mediaColumns = `
	id, owner_id, filename_original, filesize_bytes, file_type, mime_type,
	language_transcription, status, job_ref, storage_path_original,
	storage_path_audio, duration_seconds, error_message, upload_date
`

func scanMedia(row pgx.Row) (*models.MediaFile, error) {
	var m models.MediaFile
	err := row.Scan(
		&m.ID,
		&m.OwnerID,
		&m.FilenameOriginal,
		&m.FilesizeBytes,
		&m.FileType,
		&m.MimeType,
		&m.Language,
		&m.Status,
		&m.JobRef,
		&m.StoragePathOrig,
		&m.StoragePathAudio,
		&m.DurationSeconds,
		&m.ErrorMessage,
		&m.UploadDate,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan media: %w", err)
	}
	return &m, nil
}

func (r *PostgresMediaRepo) Insert(ctx context.Context, media *models.MediaFile) (*models.MediaFile, error) {
	query := `
		INSERT INTO media_file
			(id, owner_id, filename_original, filesize_bytes, file_type,
			 mime_type, language_transcription, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING upload_date
	`
	row := r.pool.QueryRow(ctx, query,
		media.ID,
		media.OwnerID,
		media.FilenameOriginal,
		media.FilesizeBytes,
		media.FileType,
		media.MimeType,
		media.Language,
		media.Status,
	)
	if err := row.Scan(&media.UploadDate); err != nil {
		return nil, fmt.Errorf("insert media: %w", err)
	}
	return media, nil
}

func (r *PostgresMediaRepo) GetByID(ctx context.Context, id string) (*models.MediaFile, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_file WHERE id = $1`
	return scanMedia(r.pool.QueryRow(ctx, query, id))
}

func (r *PostgresMediaRepo) GetForOwner(ctx context.Context, id, ownerID string) (*models.MediaFile, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_file WHERE id = $1 AND owner_id = $2`
	return scanMedia(r.pool.QueryRow(ctx, query, id, ownerID))
}

func (r *PostgresMediaRepo) ListByStatus(ctx context.Context, statuses ...string) ([]*models.MediaFile, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_file WHERE status = ANY($1) ORDER BY upload_date`
	rows, err := r.pool.Query(ctx, query, statuses)
	if err != nil {
		return nil, fmt.Errorf("list media by status: %w", err)
	}
	defer rows.Close()

	var out []*models.MediaFile
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresMediaRepo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM media_file WHERE id = $1`, id)
	return err
}

func (r *PostgresMediaRepo) SetStatus(ctx context.Context, id, status string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE media_file SET status = $1 WHERE id = $2`,
		status, id,
	)
	return err
}

func (r *PostgresMediaRepo) SetFailed(ctx context.Context, id, status, errMsg string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE media_file SET status = $1, error_message = $2 WHERE id = $3`,
		status, errMsg, id,
	)
	return err
}

func (r *PostgresMediaRepo) SetOriginalPath(ctx context.Context, id, path, status string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE media_file SET storage_path_original = $1, status = $2 WHERE id = $3`,
		path, status, id,
	)
	return err
}

func (r *PostgresMediaRepo) SetAudioPath(ctx context.Context, id, path, status string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE media_file SET storage_path_audio = $1, status = $2 WHERE id = $3`,
		path, status, id,
	)
	return err
}

func (r *PostgresMediaRepo) SetJobRef(ctx context.Context, id, ref string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE media_file SET job_ref = $1 WHERE id = $2`,
		ref, id,
	)
	return err
}
