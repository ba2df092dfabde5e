package stations

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/subvox/subvox/internal/models"
	"github.com/subvox/subvox/internal/ports"
)

var mimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mov":  "video/quicktime",
}

func mimeType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// S1Assemble merges a complete chunk session into one original artifact and
// registers the media record.
type S1Assemble struct {
	chunks    ports.ChunkRepository
	media     ports.MediaRepository
	mediaRoot string
}

func NewS1Assemble(chunks ports.ChunkRepository, media ports.MediaRepository, mediaRoot string) *S1Assemble {
	return &S1Assemble{
		chunks:    chunks,
		media:     media,
		mediaRoot: mediaRoot,
	}
}

func (s *S1Assemble) Run(ctx context.Context, uploadID, ownerID string) (*models.MediaFile, error) {
	start := time.Now()
	log.Printf("[S1][START] upload=%s", uploadID)

	chunks, err := s.chunks.List(ctx, uploadID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("[S1] list chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	first := chunks[0]
	if len(chunks) != first.TotalChunks {
		log.Printf("[S1][ERR] upload=%s expected=%d got=%d", uploadID, first.TotalChunks, len(chunks))
		return nil, fmt.Errorf("%w: expected %d chunks, got %d", ErrIncompleteUpload, first.TotalChunks, len(chunks))
	}

	media, err := s.media.Insert(ctx, &models.MediaFile{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		FilenameOriginal: first.Filename,
		FilesizeBytes:    first.TotalSize,
		FileType:         first.FileType,
		MimeType:         mimeType(first.Filename),
		Language:         "en",
		Status:           models.StatusAssembling,
	})
	if err != nil {
		return nil, fmt.Errorf("[S1] insert media: %w", err)
	}

	relPath, err := s.concat(media, chunks)
	if err != nil {
		_ = s.media.SetFailed(ctx, media.ID, models.StatusFailedAssembly, err.Error())
		media.Status = models.StatusFailedAssembly
		log.Printf("[S1][FAIL] media=%s err=%v", media.ID, err)
		return media, err
	}

	if err := s.media.SetOriginalPath(ctx, media.ID, relPath, models.StatusAudioProcessing); err != nil {
		_ = s.media.SetFailed(ctx, media.ID, models.StatusFailedAssembly, err.Error())
		media.Status = models.StatusFailedAssembly
		return media, fmt.Errorf("[S1] persist path: %w", err)
	}
	media.StoragePathOrig = &relPath
	media.Status = models.StatusAudioProcessing

	// Best-effort cleanup: the artifact exists, leftover chunks only waste
	// disk.
	s.cleanup(ctx, uploadID, ownerID, chunks)

	log.Printf("[S1][OK] media=%s chunks=%d dur=%s", media.ID, len(chunks), time.Since(start))
	return media, nil
}

// concat writes the chunks to the owner/media-scoped original path in
// ascending chunk order.
func (s *S1Assemble) concat(media *models.MediaFile, chunks []*models.ChunkUpload) (string, error) {
	dir := filepath.Join(s.mediaRoot, "uploads", "originals", media.OwnerID, media.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}

	outPath := filepath.Join(dir, media.FilenameOriginal)
	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	defer out.Close()

	for _, chunk := range chunks {
		in, err := os.Open(chunk.ChunkPath)
		if err != nil {
			return "", fmt.Errorf("open chunk %d: %w", chunk.ChunkNumber, err)
		}
		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			return "", fmt.Errorf("write chunk %d: %w", chunk.ChunkNumber, err)
		}
	}

	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}

	rel, err := filepath.Rel(s.mediaRoot, outPath)
	if err != nil {
		return "", err
	}
	return rel, nil
}

func (s *S1Assemble) cleanup(ctx context.Context, uploadID, ownerID string, chunks []*models.ChunkUpload) {
	for _, chunk := range chunks {
		if err := os.Remove(chunk.ChunkPath); err != nil && !os.IsNotExist(err) {
			log.Printf("[S1][CLEANUP-SKIP] chunk=%d err=%v", chunk.ChunkNumber, err)
		}
	}
	if len(chunks) > 0 {
		_ = os.Remove(filepath.Dir(chunks[0].ChunkPath))
	}
	if err := s.chunks.DeleteAll(ctx, uploadID, ownerID); err != nil {
		log.Printf("[S1][CLEANUP-SKIP] upload=%s err=%v", uploadID, err)
	}
}
