package stations

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/subvox/subvox/internal/ports"
)

// BytesPerSecond is the canonical PCM data rate: 16 kHz mono, 2 bytes per
// sample. Piece durations and start offsets are estimated from it.
const BytesPerSecond = 16000 * 2

const (
	// Default policy: split above 95 MB into ~90 MB pieces.
	DefaultMaxSizeMB     = 95.0
	DefaultTargetChunkMB = 90.0

	minChunkSeconds = 30

	defaultCutTimeout = 10 * time.Minute
)

// S3Split partitions an oversized waveform into time-bounded sub-files by
// repeatedly cutting [offset, offset+duration) windows with the transcoder.
type S3Split struct {
	transcoder ports.Transcoder
	cutTimeout time.Duration
}

func NewS3Split(transcoder ports.Transcoder) *S3Split {
	return &S3Split{
		transcoder: transcoder,
		cutTimeout: defaultCutTimeout,
	}
}

// RunConservative picks a smaller target ahead of the external transcription
// upload: 15 MB pieces for a 25 MB threshold, 45 MB for anything looser.
func (s *S3Split) RunConservative(ctx context.Context, path string, maxSizeMB float64) ([]string, error) {
	target := 45.0
	if maxSizeMB <= 25 {
		target = 15.0
	}
	log.Printf("[S3] conservative split: threshold=%.0fMB target=%.0fMB", maxSizeMB, target)
	return s.Run(ctx, path, maxSizeMB, target)
}

// Run returns the input path untouched when it fits under maxSizeMB.
// Otherwise it cuts the file into pieces of roughly targetChunkMB each,
// re-encoded to canonical PCM. A failed cut aborts with ErrSplitTruncated:
// the produced prefix must not be used as full coverage.
func (s *S3Split) Run(ctx context.Context, path string, maxSizeMB, targetChunkMB float64) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("[S3] stat input: %w", err)
	}

	fileSizeMB := float64(info.Size()) / (1024 * 1024)
	if fileSizeMB <= maxSizeMB {
		return []string{path}, nil
	}

	estimatedDuration := float64(info.Size()) / BytesPerSecond
	chunkDuration := int(estimatedDuration * targetChunkMB / fileSizeMB)
	if chunkDuration < minChunkSeconds {
		chunkDuration = minChunkSeconds
	}

	log.Printf("[S3][START] size=%.2fMB target=%.0fMB cut=%ds", fileSizeMB, targetChunkMB, chunkDuration)

	chunksDir := filepath.Join(filepath.Dir(path), "chunks")
	if err := os.MkdirAll(chunksDir, 0755); err != nil {
		return nil, fmt.Errorf("[S3] create chunks dir: %w", err)
	}

	var pieces []string
	offset := 0

	for float64(offset) < estimatedDuration {
		piecePath := filepath.Join(chunksDir, fmt.Sprintf("chunk_%03d.wav", len(pieces)))

		cutCtx, cancel := context.WithTimeout(ctx, s.cutTimeout)
		err := s.transcoder.Transcode(cutCtx, path, piecePath, false, &ports.CutWindow{
			OffsetSec:   offset,
			DurationSec: chunkDuration,
		})
		cancel()
		if err != nil {
			log.Printf("[S3][FAIL] piece=%d offset=%ds err=%v", len(pieces), offset, err)
			return pieces, fmt.Errorf("%w: piece %d at %ds: %v", ErrSplitTruncated, len(pieces), offset, err)
		}

		pieces = append(pieces, piecePath)
		offset += chunkDuration
	}

	log.Printf("[S3][OK] pieces=%d", len(pieces))
	return pieces, nil
}
