package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/subvox/subvox/internal/domain/stations"
	"github.com/subvox/subvox/internal/domain/subtitles"
	"github.com/subvox/subvox/internal/models"
	"github.com/subvox/subvox/internal/ports"
	"golang.org/x/sync/semaphore"
)

// The external transcription API caps payloads around 100 MB; splitting at
// 25 MB leaves margin for upload reliability.
const transcribeSplitThresholdMB = 25.0

// Raw API output above this size goes to a file instead of the record.
const rawOutputInlineLimit = 1000000

const hfTokenPlaceholder = "your-huggingface-token-here"

// MediaService runs each media record's pipeline (normalize → split →
// transcribe → render) as one background task on a bounded pool. Stages
// within a task are strictly sequential; tasks for different records run in
// parallel and share nothing but the record store.
type MediaService struct {
	media       ports.MediaRepository
	transcripts ports.TranscriptRepository

	s2 *stations.S2Normalize
	s3 *stations.S3Split
	s4 *stations.S4Transcribe

	mediaRoot string
	hfToken   string

	sem    *semaphore.Weighted
	events chan ports.StatusEvent
}

func NewMediaService(
	media ports.MediaRepository,
	transcripts ports.TranscriptRepository,
	s2 *stations.S2Normalize,
	s3 *stations.S3Split,
	s4 *stations.S4Transcribe,
	mediaRoot string,
	hfToken string,
	workers int64,
) *MediaService {
	if workers <= 0 {
		workers = 4
	}
	return &MediaService{
		media:       media,
		transcripts: transcripts,
		s2:          s2,
		s3:          s3,
		s4:          s4,
		mediaRoot:   mediaRoot,
		hfToken:     hfToken,
		sem:         semaphore.NewWeighted(workers),
		events:      make(chan ports.StatusEvent, 256),
	}
}

func (s *MediaService) Events() <-chan ports.StatusEvent { return s.events }

// Start enqueues the full pipeline for a freshly assembled record.
func (s *MediaService) Start(media *models.MediaFile) {
	s.spawn(media, s.runPipeline)
}

func (s *MediaService) spawn(media *models.MediaFile, stage func(context.Context, *models.MediaFile)) {
	go func() {
		ctx := context.Background()
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer s.sem.Release(1)
		stage(ctx, media)
	}()
}

func (s *MediaService) runPipeline(ctx context.Context, media *models.MediaFile) {
	start := time.Now()
	log.Printf("[PIPELINE][START] media=%s", media.ID)

	if !s.normalize(ctx, media) {
		return
	}
	s.transcribe(ctx, media)

	log.Printf("[PIPELINE][END] media=%s dur=%s", media.ID, time.Since(start))
}

// normalize runs S2 and owns the audio_processing → pending_transcription
// transition. Returns false when the pipeline must stop.
func (s *MediaService) normalize(ctx context.Context, media *models.MediaFile) bool {
	relAudio, err := s.s2.Run(ctx, media)
	if err != nil {
		s.fail(ctx, media, models.StatusFailedExtraction, err.Error())
		return false
	}

	if err := s.media.SetAudioPath(ctx, media.ID, relAudio, models.StatusPendingTranscription); err != nil {
		s.fail(ctx, media, models.StatusFailedExtraction, fmt.Sprintf("persist audio path: %v", err))
		return false
	}
	media.StoragePathAudio = &relAudio
	media.Status = models.StatusPendingTranscription
	s.emit(media.ID, models.StatusPendingTranscription, "")
	return true
}

// transcribe is the orchestration core: conservative split, sequential
// per-piece submit/poll, timestamp re-basing, stitching, result processing.
func (s *MediaService) transcribe(ctx context.Context, media *models.MediaFile) {
	if media.StoragePathAudio == nil {
		s.fail(ctx, media, models.StatusFailedTranscription, "no normalized audio artifact")
		return
	}
	audioPath := filepath.Join(s.mediaRoot, *media.StoragePathAudio)

	pieces, err := s.s3.RunConservative(ctx, audioPath, transcribeSplitThresholdMB)
	if err != nil {
		s.fail(ctx, media, models.StatusFailedTranscription, err.Error())
		return
	}

	if len(pieces) > 1 {
		log.Printf("[TRANSCRIBE] media=%s pieces=%d", media.ID, len(pieces))
		s.setStatus(ctx, media, models.StatusTranscribingChunked)
	} else {
		s.setStatus(ctx, media, models.StatusTranscribing)
	}

	offsets, err := PieceOffsets(pieces)
	if err != nil {
		s.fail(ctx, media, models.StatusFailedTranscription, err.Error())
		return
	}

	params := ports.TranscriptionParams{Language: media.Language}
	if ValidHFToken(s.hfToken) {
		params.Diarize = true
		params.HFToken = s.hfToken
	} else {
		log.Printf("[TRANSCRIBE] media=%s diarization disabled (no valid token)", media.ID)
	}

	// Sequential on purpose: offsets depend on earlier piece sizes and the
	// external API dislikes concurrent submissions.
	results := make([]*models.Result, 0, len(pieces))
	for i, piece := range pieces {
		log.Printf("[TRANSCRIBE] media=%s piece=%d/%d offset=%.1fs", media.ID, i+1, len(pieces), offsets[i])

		_, result, err := s.s4.Run(ctx, piece, params)
		if err != nil {
			s.fail(ctx, media, models.StatusFailedTranscription,
				fmt.Sprintf("piece %d/%d: %v", i+1, len(pieces), err))
			return
		}

		results = append(results, ShiftResult(result, offsets[i]))
	}

	combined := CombineResults(results)

	jobRef := fmt.Sprintf("chunked_%d_chunks", len(pieces))
	if err := s.media.SetJobRef(ctx, media.ID, jobRef); err != nil {
		log.Printf("[TRANSCRIBE][WARN] media=%s job ref not persisted: %v", media.ID, err)
	}

	s.processResult(ctx, media, combined)
}

// processResult persists the stitched transcript, renders the four subtitle
// artifacts, and completes the record. Failures here must not leave the
// record stuck in a transcribing status.
func (s *MediaService) processResult(ctx context.Context, media *models.MediaFile, combined *models.Result) {
	dir := filepath.Join(s.mediaRoot, "transcriptions", media.OwnerID, media.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.failResult(ctx, media, err)
		return
	}

	t := &models.Transcription{
		ID:      uuid.NewString(),
		MediaID: media.ID,
	}

	raw, err := json.Marshal(combined)
	if err != nil {
		s.failResult(ctx, media, err)
		return
	}
	if len(raw) < rawOutputInlineLimit {
		t.RawOutput = raw
	} else {
		rel, err := s.writeArtifact(dir, "raw_output.json", string(raw))
		if err != nil {
			s.failResult(ctx, media, err)
			return
		}
		t.RawOutputPath = &rel
	}

	artifacts := []struct {
		name   string
		render func(*models.Result) string
		target **string
	}{
		{"subtitles.vtt", subtitles.VTT, &t.VTTPath},
		{"word_level_subtitles.vtt", subtitles.WordLevelVTT, &t.WordLevelVTTPath},
		{"subtitles.srt", subtitles.SRT, &t.SRTPath},
		{"transcript.txt", subtitles.TXT, &t.TXTPath},
	}
	for _, a := range artifacts {
		rel, err := s.writeArtifact(dir, a.name, a.render(combined))
		if err != nil {
			s.failResult(ctx, media, err)
			return
		}
		*a.target = &rel
	}

	t.SegmentCount = len(combined.Segments)
	t.WordCount = combined.WordCount()
	t.SpeakerCount = combined.SpeakerCount()

	if _, err := s.transcripts.Insert(ctx, t); err != nil {
		s.failResult(ctx, media, err)
		return
	}

	s.setStatus(ctx, media, models.StatusCompleted)
	log.Printf("[RESULT][OK] media=%s segments=%d words=%d speakers=%d",
		media.ID, t.SegmentCount, t.WordCount, t.SpeakerCount)
}

func (s *MediaService) writeArtifact(dir, name, content string) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return filepath.Rel(s.mediaRoot, path)
}

// UpdateSegments replaces a completed transcript's segments with edited
// ones: timing is validated, text trimmed, speaker and word data kept as
// submitted. The raw output keeps its non-segment fields and its storage
// location (inline or file), and all recorded subtitle artifacts are
// re-rendered in place.
func (s *MediaService) UpdateSegments(ctx context.Context, mediaID, ownerID string, segments []models.Segment) (*models.Transcription, error) {
	media, err := s.media.GetForOwner(ctx, mediaID, ownerID)
	if err != nil {
		return nil, err
	}
	if media == nil {
		return nil, fmt.Errorf("%w: media %s", ErrNotFound, mediaID)
	}

	t, err := s.transcripts.GetByMediaID(ctx, media.ID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: transcription for media %s", ErrNotFound, mediaID)
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments provided", ErrInvalidSegment)
	}
	for i, seg := range segments {
		if seg.Start < 0 || seg.End <= seg.Start {
			return nil, fmt.Errorf("%w: segment %d has invalid timing (start: %g, end: %g)",
				ErrInvalidSegment, i, seg.Start, seg.End)
		}
	}

	combined, err := s.loadResult(t)
	if err != nil {
		return nil, err
	}

	combined.Segments = make([]models.Segment, len(segments))
	for i, seg := range segments {
		seg.Text = strings.TrimSpace(seg.Text)
		combined.Segments[i] = seg
	}

	raw, err := json.Marshal(combined)
	if err != nil {
		return nil, err
	}
	if len(t.RawOutput) > 0 {
		t.RawOutput = raw
	} else if t.RawOutputPath != nil {
		if err := os.WriteFile(filepath.Join(s.mediaRoot, *t.RawOutputPath), raw, 0644); err != nil {
			return nil, fmt.Errorf("write raw output: %w", err)
		}
	}

	rerender := []struct {
		rel    *string
		render func(*models.Result) string
	}{
		{t.VTTPath, subtitles.VTT},
		{t.WordLevelVTTPath, subtitles.WordLevelVTT},
		{t.SRTPath, subtitles.SRT},
		{t.TXTPath, subtitles.TXT},
	}
	for _, a := range rerender {
		if a.rel == nil {
			continue
		}
		if err := os.WriteFile(filepath.Join(s.mediaRoot, *a.rel), []byte(a.render(combined)), 0644); err != nil {
			return nil, fmt.Errorf("rewrite artifact %s: %w", *a.rel, err)
		}
	}

	t.SegmentCount = len(combined.Segments)
	words := 0
	for _, seg := range combined.Segments {
		words += len(strings.Fields(seg.Text))
	}
	t.WordCount = words

	if err := s.transcripts.UpdateResult(ctx, t); err != nil {
		return nil, err
	}

	log.Printf("[SEGMENTS][OK] media=%s segments=%d words=%d", media.ID, t.SegmentCount, t.WordCount)
	return t, nil
}

// loadResult reads the stitched raw output back, inline or by file.
func (s *MediaService) loadResult(t *models.Transcription) (*models.Result, error) {
	raw := t.RawOutput
	if len(raw) == 0 {
		if t.RawOutputPath == nil {
			return nil, fmt.Errorf("transcription %s has no raw output", t.ID)
		}
		b, err := os.ReadFile(filepath.Join(s.mediaRoot, *t.RawOutputPath))
		if err != nil {
			return nil, fmt.Errorf("read raw output: %w", err)
		}
		raw = b
	}

	var result models.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode raw output: %w", err)
	}
	return &result, nil
}

// Retry resets a failed_transcription record and re-drives it from the
// split step. Explicit operator action, never automatic.
func (s *MediaService) Retry(ctx context.Context, mediaID, ownerID string) error {
	media, err := s.media.GetForOwner(ctx, mediaID, ownerID)
	if err != nil {
		return err
	}
	if media == nil {
		return fmt.Errorf("%w: media %s", ErrNotFound, mediaID)
	}
	if media.Status != models.StatusFailedTranscription {
		return fmt.Errorf("media %s is %s, only failed_transcription can be retried", mediaID, media.Status)
	}
	if media.StoragePathAudio == nil {
		return fmt.Errorf("media %s has no normalized audio to retranscribe", mediaID)
	}

	if err := s.media.SetStatus(ctx, media.ID, models.StatusPendingTranscription); err != nil {
		return err
	}
	media.Status = models.StatusPendingTranscription
	s.emit(media.ID, models.StatusPendingTranscription, "")

	log.Printf("[RETRY] media=%s re-enqueued", media.ID)
	s.spawn(media, s.transcribe)
	return nil
}

// Recover re-drives records stranded in a processing status by a restart.
// Assembly cannot resume (its chunks are gone on the success path), so
// stuck assembling records are failed instead.
func (s *MediaService) Recover(ctx context.Context) error {
	stuck, err := s.media.ListByStatus(ctx, models.StatusAssembling)
	if err != nil {
		return err
	}
	for _, media := range stuck {
		msg := "assembly interrupted by restart, upload must be re-driven"
		if err := s.media.SetFailed(ctx, media.ID, models.StatusFailedAssembly, msg); err != nil {
			return err
		}
		s.emit(media.ID, models.StatusFailedAssembly, msg)
	}

	renormalize, err := s.media.ListByStatus(ctx, models.StatusAudioProcessing)
	if err != nil {
		return err
	}
	for _, media := range renormalize {
		log.Printf("[RECOVER] media=%s renormalizing", media.ID)
		s.Start(media)
	}

	retranscribe, err := s.media.ListByStatus(ctx,
		models.StatusPendingTranscription,
		models.StatusTranscribing,
		models.StatusTranscribingChunked,
	)
	if err != nil {
		return err
	}
	for _, media := range retranscribe {
		if err := s.media.SetStatus(ctx, media.ID, models.StatusPendingTranscription); err != nil {
			return err
		}
		media.Status = models.StatusPendingTranscription
		log.Printf("[RECOVER] media=%s retranscribing", media.ID)
		s.spawn(media, s.transcribe)
	}

	if n := len(stuck) + len(renormalize) + len(retranscribe); n > 0 {
		log.Printf("[RECOVER] records=%d", n)
	}
	return nil
}

// DeleteMedia removes every artifact directory of a record, then the
// transcript and media rows.
func (s *MediaService) DeleteMedia(ctx context.Context, mediaID, ownerID string) error {
	media, err := s.media.GetForOwner(ctx, mediaID, ownerID)
	if err != nil {
		return err
	}
	if media == nil {
		return fmt.Errorf("%w: media %s", ErrNotFound, mediaID)
	}

	for _, dir := range []string{
		filepath.Join(s.mediaRoot, "uploads", "originals", media.OwnerID, media.ID),
		filepath.Join(s.mediaRoot, "uploads", "audio", media.OwnerID, media.ID),
		filepath.Join(s.mediaRoot, "transcriptions", media.OwnerID, media.ID),
	} {
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("[DELETE][SKIP] media=%s dir=%s err=%v", media.ID, dir, err)
		}
	}

	if err := s.transcripts.DeleteByMediaID(ctx, media.ID); err != nil {
		return err
	}
	return s.media.Delete(ctx, media.ID)
}

func (s *MediaService) setStatus(ctx context.Context, media *models.MediaFile, status string) {
	if err := s.media.SetStatus(ctx, media.ID, status); err != nil {
		log.Printf("[STATUS][ERR] media=%s status=%s err=%v", media.ID, status, err)
		return
	}
	media.Status = status
	s.emit(media.ID, status, "")
}

func (s *MediaService) fail(ctx context.Context, media *models.MediaFile, status, msg string) {
	if err := s.media.SetFailed(ctx, media.ID, status, msg); err != nil {
		log.Printf("[FAIL][ERR] media=%s err=%v", media.ID, err)
	}
	media.Status = status
	media.ErrorMessage = &msg
	s.emit(media.ID, status, msg)
	log.Printf("[FAIL] media=%s status=%s msg=%s", media.ID, status, msg)
}

func (s *MediaService) failResult(ctx context.Context, media *models.MediaFile, err error) {
	s.fail(ctx, media, models.StatusFailedTranscription,
		fmt.Sprintf("error processing transcription result: %v", err))
}

func (s *MediaService) emit(mediaID, status, errMsg string) {
	select {
	case s.events <- ports.StatusEvent{MediaID: mediaID, Status: status, Error: errMsg}:
	default:
		log.Printf("[EVENTS][DROP] media=%s status=%s", mediaID, status)
	}
}

// ValidHFToken reports whether the diarization credential is syntactically
// plausible. Anything else means the job parameter is omitted entirely.
func ValidHFToken(token string) bool {
	return token != "" && token != hfTokenPlaceholder && len(token) > 10
}
