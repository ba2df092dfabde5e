package domain

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/subvox/subvox/internal/domain/stations"
	"github.com/subvox/subvox/internal/models"
	"github.com/subvox/subvox/internal/ports"
)

// UploadService receives chunks, and triggers assembly plus the media
// pipeline when it observes the last expected chunk. Concurrent chunk
// writes are fine; the "assemble exactly once" discipline sits here, on the
// caller side of the chunk store.
type UploadService struct {
	chunks    ports.ChunkRepository
	assemble  *stations.S1Assemble
	processor ports.MediaProcessor
	mediaRoot string
}

func NewUploadService(
	chunks ports.ChunkRepository,
	assemble *stations.S1Assemble,
	processor ports.MediaProcessor,
	mediaRoot string,
) ports.UploadService {
	return &UploadService{
		chunks:    chunks,
		assemble:  assemble,
		processor: processor,
		mediaRoot: mediaRoot,
	}
}

func (s *UploadService) SaveChunk(ctx context.Context, in ports.SaveChunkInput) (*ports.SaveChunkResult, error) {
	if err := validateChunk(in); err != nil {
		return nil, err
	}

	chunkPath, size, err := s.writePayload(in)
	if err != nil {
		return nil, fmt.Errorf("store chunk payload: %w", err)
	}

	chunk, err := s.chunks.Upsert(ctx, &models.ChunkUpload{
		UploadID:    in.UploadID,
		OwnerID:     in.OwnerID,
		ChunkNumber: in.ChunkNumber,
		TotalChunks: in.TotalChunks,
		ChunkSize:   size,
		Filename:    in.Filename,
		FileType:    in.FileType,
		TotalSize:   in.TotalSize,
		ChunkPath:   chunkPath,
	})
	if err != nil {
		return nil, err
	}

	uploaded, err := s.chunks.Count(ctx, in.UploadID, in.OwnerID)
	if err != nil {
		return nil, err
	}

	log.Printf("[UPLOAD] session=%s chunk=%d/%d stored", in.UploadID, in.ChunkNumber, in.TotalChunks)

	result := &ports.SaveChunkResult{
		Chunk:    chunk,
		Uploaded: uploaded,
		Total:    in.TotalChunks,
		Complete: uploaded == in.TotalChunks,
	}

	if result.Complete {
		// Single-trigger contract: the client must not re-send the final
		// chunk concurrently. Two racing final chunks would both observe a
		// full count here and assemble twice; the store does not arbitrate.
		media, err := s.assemble.Run(ctx, in.UploadID, in.OwnerID)
		if err != nil {
			return nil, err
		}
		result.Media = media
		s.processor.Start(media)
	}

	return result, nil
}

func (s *UploadService) CancelUpload(ctx context.Context, uploadID, ownerID string) error {
	chunks, err := s.chunks.List(ctx, uploadID, ownerID)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("%w: upload %s", ErrNotFound, uploadID)
	}

	for _, chunk := range chunks {
		if err := os.Remove(chunk.ChunkPath); err != nil && !os.IsNotExist(err) {
			log.Printf("[UPLOAD][CANCEL-SKIP] chunk=%d err=%v", chunk.ChunkNumber, err)
		}
	}
	_ = os.Remove(filepath.Dir(chunks[0].ChunkPath))

	log.Printf("[UPLOAD][CANCEL] session=%s chunks=%d", uploadID, len(chunks))
	return s.chunks.DeleteAll(ctx, uploadID, ownerID)
}

func validateChunk(in ports.SaveChunkInput) error {
	switch {
	case in.OwnerID == "":
		return fmt.Errorf("%w: missing owner", ErrInvalidChunk)
	case in.UploadID == "":
		return fmt.Errorf("%w: missing upload id", ErrInvalidChunk)
	case in.TotalChunks <= 0:
		return fmt.Errorf("%w: total chunks must be positive", ErrInvalidChunk)
	case in.ChunkNumber < 0 || in.ChunkNumber >= in.TotalChunks:
		return fmt.Errorf("%w: chunk number %d outside [0, %d)", ErrInvalidChunk, in.ChunkNumber, in.TotalChunks)
	case in.Filename == "":
		return fmt.Errorf("%w: missing filename", ErrInvalidChunk)
	case in.FileType != models.FileTypeAudio && in.FileType != models.FileTypeVideo:
		return fmt.Errorf("%w: unknown file type %q", ErrInvalidChunk, in.FileType)
	}
	return nil
}

func (s *UploadService) writePayload(in ports.SaveChunkInput) (string, int64, error) {
	dir := filepath.Join(s.mediaRoot, "tmp_chunks", in.UploadID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, err
	}

	path := filepath.Join(dir, fmt.Sprintf("chunk_%05d.part", in.ChunkNumber))
	f, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	n, err := io.Copy(f, in.Payload)
	if err != nil {
		return "", 0, err
	}
	return path, n, nil
}
