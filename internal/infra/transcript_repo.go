package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/subvox/subvox/internal/models"
	"github.com/subvox/subvox/internal/ports"
)

type PostgresTranscriptRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresTranscriptRepo(pool *pgxpool.Pool) ports.TranscriptRepository {
	return &PostgresTranscriptRepo{pool: pool}
}

func (r *PostgresTranscriptRepo) Insert(ctx context.Context, t *models.Transcription) (*models.Transcription, error) {
	query := `
		INSERT INTO transcription
			(id, media_id, vtt_file_path, word_level_vtt_file_path,
			 srt_file_path, txt_file_path, raw_output, raw_output_path,
			 segment_count, word_count, speaker_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING completed_date
	`
	row := r.pool.QueryRow(ctx, query,
		t.ID,
		t.MediaID,
		t.VTTPath,
		t.WordLevelVTTPath,
		t.SRTPath,
		t.TXTPath,
		t.RawOutput,
		t.RawOutputPath,
		t.SegmentCount,
		t.WordCount,
		t.SpeakerCount,
	)
	if err := row.Scan(&t.CompletedDate); err != nil {
		return nil, fmt.Errorf("insert transcription: %w", err)
	}
	return t, nil
}

func (r *PostgresTranscriptRepo) GetByMediaID(ctx context.Context, mediaID string) (*models.Transcription, error) {
	query := `
		SELECT id, media_id, vtt_file_path, word_level_vtt_file_path,
		       srt_file_path, txt_file_path, raw_output, raw_output_path,
		       segment_count, word_count, speaker_count, completed_date
		FROM transcription
		WHERE media_id = $1
	`
	var t models.Transcription
	err := r.pool.QueryRow(ctx, query, mediaID).Scan(
		&t.ID,
		&t.MediaID,
		&t.VTTPath,
		&t.WordLevelVTTPath,
		&t.SRTPath,
		&t.TXTPath,
		&t.RawOutput,
		&t.RawOutputPath,
		&t.SegmentCount,
		&t.WordCount,
		&t.SpeakerCount,
		&t.CompletedDate,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get transcription: %w", err)
	}
	return &t, nil
}

func (r *PostgresTranscriptRepo) UpdateResult(ctx context.Context, t *models.Transcription) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE transcription
		 SET raw_output = $1, segment_count = $2, word_count = $3
		 WHERE id = $4`,
		t.RawOutput, t.SegmentCount, t.WordCount, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transcription: %w", err)
	}
	return nil
}

func (r *PostgresTranscriptRepo) DeleteByMediaID(ctx context.Context, mediaID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM transcription WHERE media_id = $1`, mediaID)
	return err
}
