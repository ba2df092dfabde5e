package domain

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/subvox/subvox/internal/models"
	"github.com/subvox/subvox/internal/ports"
)

// In-memory repository fakes shared by the service tests. They imitate the
// postgres repos closely enough for orchestration logic: nil-on-miss reads,
// upsert-by-key chunk writes, stage-scoped media mutations.

type memMediaRepo struct {
	mu      sync.Mutex
	records map[string]*models.MediaFile
}

func newMemMediaRepo() *memMediaRepo {
	return &memMediaRepo{records: map[string]*models.MediaFile{}}
}

func (r *memMediaRepo) Insert(ctx context.Context, media *models.MediaFile) (*models.MediaFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *media
	r.records[media.ID] = &stored
	out := stored
	return &out, nil
}

func (r *memMediaRepo) GetByID(ctx context.Context, id string) (*models.MediaFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.records[id]; ok {
		out := *m
		return &out, nil
	}
	return nil, nil
}

func (r *memMediaRepo) GetForOwner(ctx context.Context, id, ownerID string) (*models.MediaFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.records[id]; ok && m.OwnerID == ownerID {
		out := *m
		return &out, nil
	}
	return nil, nil
}

func (r *memMediaRepo) ListByStatus(ctx context.Context, statuses ...string) ([]*models.MediaFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.MediaFile
	for _, m := range r.records {
		for _, status := range statuses {
			if m.Status == status {
				cp := *m
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (r *memMediaRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func (r *memMediaRepo) SetStatus(ctx context.Context, id, status string) error {
	return r.update(id, func(m *models.MediaFile) {
		m.Status = status
	})
}

func (r *memMediaRepo) SetFailed(ctx context.Context, id, status, errMsg string) error {
	return r.update(id, func(m *models.MediaFile) {
		m.Status = status
		m.ErrorMessage = &errMsg
	})
}

func (r *memMediaRepo) SetOriginalPath(ctx context.Context, id, path, status string) error {
	return r.update(id, func(m *models.MediaFile) {
		m.StoragePathOrig = &path
		m.Status = status
	})
}

func (r *memMediaRepo) SetAudioPath(ctx context.Context, id, path, status string) error {
	return r.update(id, func(m *models.MediaFile) {
		m.StoragePathAudio = &path
		m.Status = status
	})
}

func (r *memMediaRepo) SetJobRef(ctx context.Context, id, ref string) error {
	return r.update(id, func(m *models.MediaFile) {
		m.JobRef = &ref
	})
}

func (r *memMediaRepo) update(id string, apply func(*models.MediaFile)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.records[id]
	if !ok {
		return fmt.Errorf("media %s not found", id)
	}
	apply(m)
	return nil
}

type chunkKey struct {
	uploadID string
	number   int
}

type memChunkRepo struct {
	mu     sync.Mutex
	nextID int
	chunks map[chunkKey]*models.ChunkUpload
}

func newMemChunkRepo() *memChunkRepo {
	return &memChunkRepo{chunks: map[chunkKey]*models.ChunkUpload{}}
}

func (r *memChunkRepo) Upsert(ctx context.Context, chunk *models.ChunkUpload) (*models.ChunkUpload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := chunkKey{chunk.UploadID, chunk.ChunkNumber}
	stored := *chunk
	if prev, ok := r.chunks[key]; ok {
		stored.ID = prev.ID
	} else {
		r.nextID++
		stored.ID = r.nextID
	}
	r.chunks[key] = &stored
	out := stored
	return &out, nil
}

func (r *memChunkRepo) List(ctx context.Context, uploadID, ownerID string) ([]*models.ChunkUpload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ChunkUpload
	for _, c := range r.chunks {
		if c.UploadID == uploadID && c.OwnerID == ownerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkNumber < out[j].ChunkNumber })
	return out, nil
}

func (r *memChunkRepo) Count(ctx context.Context, uploadID, ownerID string) (int, error) {
	list, _ := r.List(ctx, uploadID, ownerID)
	return len(list), nil
}

func (r *memChunkRepo) DeleteAll(ctx context.Context, uploadID, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, c := range r.chunks {
		if c.UploadID == uploadID && c.OwnerID == ownerID {
			delete(r.chunks, key)
		}
	}
	return nil
}

type memTranscriptRepo struct {
	mu      sync.Mutex
	byMedia map[string]*models.Transcription
}

func newMemTranscriptRepo() *memTranscriptRepo {
	return &memTranscriptRepo{byMedia: map[string]*models.Transcription{}}
}

func (r *memTranscriptRepo) Insert(ctx context.Context, t *models.Transcription) (*models.Transcription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *t
	r.byMedia[t.MediaID] = &stored
	out := stored
	return &out, nil
}

func (r *memTranscriptRepo) GetByMediaID(ctx context.Context, mediaID string) (*models.Transcription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.byMedia[mediaID]; ok {
		out := *t
		return &out, nil
	}
	return nil, nil
}

func (r *memTranscriptRepo) UpdateResult(ctx context.Context, t *models.Transcription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byMedia[t.MediaID]
	if !ok {
		return fmt.Errorf("transcription for media %s not found", t.MediaID)
	}
	stored.RawOutput = t.RawOutput
	stored.SegmentCount = t.SegmentCount
	stored.WordCount = t.WordCount
	return nil
}

func (r *memTranscriptRepo) DeleteByMediaID(ctx context.Context, mediaID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byMedia, mediaID)
	return nil
}

// stubTranscoder writes output files without ffmpeg: cuts get the size
// their duration implies, full transcodes copy a fixed payload.
type stubTranscoder struct{}

func (stubTranscoder) Transcode(ctx context.Context, input, output string, dropVideo bool, cut *ports.CutWindow) error {
	if cut == nil {
		return os.WriteFile(output, []byte("RIFFfake"), 0644)
	}
	out, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := out.Truncate(int64(cut.DurationSec) * 32000); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// scriptAPI scripts the external transcription service per call.
type scriptAPI struct {
	mu     sync.Mutex
	jobSeq int
	params []ports.TranscriptionParams

	submit func(jobID string, params ports.TranscriptionParams) (string, error)
	job    func(jobID string) (*ports.TranscriptionJob, error)
}

func (f *scriptAPI) Submit(ctx context.Context, audioPath string, params ports.TranscriptionParams) (string, error) {
	f.mu.Lock()
	f.jobSeq++
	jobID := fmt.Sprintf("job-%d", f.jobSeq)
	f.params = append(f.params, params)
	f.mu.Unlock()

	if f.submit != nil {
		return f.submit(jobID, params)
	}
	return jobID, nil
}

func (f *scriptAPI) Job(ctx context.Context, jobID string) (*ports.TranscriptionJob, error) {
	return f.job(jobID)
}

type recordingProcessor struct {
	mu      sync.Mutex
	started []*models.MediaFile
}

func (p *recordingProcessor) Start(media *models.MediaFile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = append(p.started, media)
}

func (p *recordingProcessor) Retry(ctx context.Context, mediaID, ownerID string) error { return nil }
func (p *recordingProcessor) Recover(ctx context.Context) error                        { return nil }
func (p *recordingProcessor) UpdateSegments(ctx context.Context, mediaID, ownerID string, segments []models.Segment) (*models.Transcription, error) {
	return nil, nil
}
func (p *recordingProcessor) DeleteMedia(ctx context.Context, mediaID, ownerID string) error {
	return nil
}
func (p *recordingProcessor) Events() <-chan ports.StatusEvent { return nil }
