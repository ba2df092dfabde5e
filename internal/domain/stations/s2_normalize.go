package stations

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/subvox/subvox/internal/models"
	"github.com/subvox/subvox/internal/ports"
)

const defaultNormalizeTimeout = time.Hour

// S2Normalize extracts/converts a media artifact into the canonical
// waveform: mono 16 kHz 16-bit PCM WAV. Video inputs get their audio track
// extracted, audio inputs are transcoded directly.
type S2Normalize struct {
	transcoder ports.Transcoder
	mediaRoot  string
	timeout    time.Duration
}

func NewS2Normalize(transcoder ports.Transcoder, mediaRoot string) *S2Normalize {
	return &S2Normalize{
		transcoder: transcoder,
		mediaRoot:  mediaRoot,
		timeout:    defaultNormalizeTimeout,
	}
}

// Run returns the normalized artifact's path relative to the media root.
func (s *S2Normalize) Run(ctx context.Context, media *models.MediaFile) (string, error) {
	start := time.Now()
	log.Printf("[S2][START] media=%s type=%s", media.ID, media.FileType)

	if media.StoragePathOrig == nil {
		return "", fmt.Errorf("[S2] media %s has no original artifact", media.ID)
	}
	inputPath := filepath.Join(s.mediaRoot, *media.StoragePathOrig)

	dir := filepath.Join(s.mediaRoot, "uploads", "audio", media.OwnerID, media.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("[S2] create audio dir: %w", err)
	}
	outputPath := filepath.Join(dir, media.ID+".wav")

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dropVideo := media.FileType == models.FileTypeVideo
	if err := s.transcoder.Transcode(ctx, inputPath, outputPath, dropVideo, nil); err != nil {
		log.Printf("[S2][FAIL] media=%s err=%v dur=%s", media.ID, err, time.Since(start))
		return "", err
	}

	rel, err := filepath.Rel(s.mediaRoot, outputPath)
	if err != nil {
		return "", err
	}

	log.Printf("[S2][OK] media=%s out=%s dur=%s", media.ID, rel, time.Since(start))
	return rel, nil
}
