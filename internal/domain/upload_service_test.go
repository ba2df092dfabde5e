package domain

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subvox/subvox/internal/domain/stations"
	"github.com/subvox/subvox/internal/models"
	"github.com/subvox/subvox/internal/ports"
)

func newUploadFixture(t *testing.T) (*UploadService, *memChunkRepo, *memMediaRepo, *recordingProcessor, string) {
	t.Helper()
	mediaRoot := t.TempDir()
	chunks := newMemChunkRepo()
	media := newMemMediaRepo()
	processor := &recordingProcessor{}
	assemble := stations.NewS1Assemble(chunks, media, mediaRoot)
	svc := NewUploadService(chunks, assemble, processor, mediaRoot).(*UploadService)
	return svc, chunks, media, processor, mediaRoot
}

func chunkInput(number int, payload string) ports.SaveChunkInput {
	return ports.SaveChunkInput{
		UploadID:    "upload-1",
		OwnerID:     "owner-1",
		ChunkNumber: number,
		TotalChunks: 3,
		Filename:    "meeting.mp3",
		FileType:    models.FileTypeAudio,
		TotalSize:   8,
		Payload:     strings.NewReader(payload),
		PayloadSize: int64(len(payload)),
	}
}

func TestSaveChunkValidation(t *testing.T) {
	svc, _, _, _, _ := newUploadFixture(t)
	ctx := context.Background()

	for name, mutate := range map[string]func(*ports.SaveChunkInput){
		"missing owner":       func(in *ports.SaveChunkInput) { in.OwnerID = "" },
		"missing upload id":   func(in *ports.SaveChunkInput) { in.UploadID = "" },
		"zero total":          func(in *ports.SaveChunkInput) { in.TotalChunks = 0 },
		"negative number":     func(in *ports.SaveChunkInput) { in.ChunkNumber = -1 },
		"number out of range": func(in *ports.SaveChunkInput) { in.ChunkNumber = 3 },
		"missing filename":    func(in *ports.SaveChunkInput) { in.Filename = "" },
		"unknown file type":   func(in *ports.SaveChunkInput) { in.FileType = "hologram" },
	} {
		t.Run(name, func(t *testing.T) {
			in := chunkInput(0, "data")
			mutate(&in)
			_, err := svc.SaveChunk(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidChunk)
		})
	}
}

func TestSaveChunkAssemblesOutOfOrder(t *testing.T) {
	svc, chunks, media, processor, mediaRoot := newUploadFixture(t)
	ctx := context.Background()

	// chunk payloads arrive 2, 0, 1; assembly must still be positional
	res, err := svc.SaveChunk(ctx, chunkInput(2, "CC"))
	require.NoError(t, err)
	assert.False(t, res.Complete)
	assert.Equal(t, 1, res.Uploaded)
	assert.Nil(t, res.Media)

	res, err = svc.SaveChunk(ctx, chunkInput(0, "AAA"))
	require.NoError(t, err)
	assert.False(t, res.Complete)
	assert.Equal(t, 2, res.Uploaded)

	res, err = svc.SaveChunk(ctx, chunkInput(1, "BBB"))
	require.NoError(t, err)
	assert.True(t, res.Complete)
	require.NotNil(t, res.Media)

	assert.Equal(t, models.StatusAudioProcessing, res.Media.Status)
	assert.Equal(t, "meeting.mp3", res.Media.FilenameOriginal)
	assert.Equal(t, "audio/mpeg", res.Media.MimeType)

	require.NotNil(t, res.Media.StoragePathOrig)
	artifact, err := os.ReadFile(filepath.Join(mediaRoot, *res.Media.StoragePathOrig))
	require.NoError(t, err)
	assert.Equal(t, "AAABBBCC", string(artifact))

	// pipeline kicked off exactly once, for the assembled record
	require.Len(t, processor.started, 1)
	assert.Equal(t, res.Media.ID, processor.started[0].ID)

	// session cleaned up: rows gone, temp chunk dir gone
	n, err := chunks.Count(ctx, "upload-1", "owner-1")
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = os.Stat(filepath.Join(mediaRoot, "tmp_chunks", "upload-1"))
	assert.True(t, os.IsNotExist(err))

	stored, err := media.GetByID(ctx, res.Media.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.StatusAudioProcessing, stored.Status)
}

func TestSaveChunkResendOverwrites(t *testing.T) {
	svc, chunks, _, _, _ := newUploadFixture(t)
	ctx := context.Background()

	_, err := svc.SaveChunk(ctx, chunkInput(0, "old"))
	require.NoError(t, err)
	_, err = svc.SaveChunk(ctx, chunkInput(0, "new-bytes"))
	require.NoError(t, err)

	list, err := chunks.List(ctx, "upload-1", "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(len("new-bytes")), list[0].ChunkSize)

	data, err := os.ReadFile(list[0].ChunkPath)
	require.NoError(t, err)
	assert.Equal(t, "new-bytes", string(data))
}

func TestIncompleteUploadCreatesNoRecord(t *testing.T) {
	svc, _, media, _, mediaRoot := newUploadFixture(t)
	ctx := context.Background()

	_, err := svc.SaveChunk(ctx, chunkInput(0, "AAA"))
	require.NoError(t, err)

	assemble := stations.NewS1Assemble(svc.chunks, media, mediaRoot)
	_, err = assemble.Run(ctx, "upload-1", "owner-1")
	assert.ErrorIs(t, err, stations.ErrIncompleteUpload)

	records, err := media.ListByStatus(ctx, models.StatusAssembling, models.StatusFailedAssembly)
	require.NoError(t, err)
	assert.Empty(t, records, "incomplete sessions must not create media records")
}

func TestCancelUpload(t *testing.T) {
	svc, chunks, _, _, mediaRoot := newUploadFixture(t)
	ctx := context.Background()

	_, err := svc.SaveChunk(ctx, chunkInput(0, "AAA"))
	require.NoError(t, err)
	_, err = svc.SaveChunk(ctx, chunkInput(1, "BBB"))
	require.NoError(t, err)

	require.NoError(t, svc.CancelUpload(ctx, "upload-1", "owner-1"))

	n, err := chunks.Count(ctx, "upload-1", "owner-1")
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = os.Stat(filepath.Join(mediaRoot, "tmp_chunks", "upload-1"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, svc.CancelUpload(ctx, "upload-1", "owner-1"), ErrNotFound)
}
