package delivery

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/subvox/subvox/internal/domain"
	"github.com/subvox/subvox/internal/models"
	"github.com/subvox/subvox/internal/ports"
)

type MediaHandler struct {
	media     ports.MediaRepository
	processor ports.MediaProcessor
	mediaRoot string
	log       *logger.ZapLogger
}

func NewMediaHandler(media ports.MediaRepository, processor ports.MediaProcessor, mediaRoot string, log *logger.ZapLogger) *MediaHandler {
	return &MediaHandler{
		media:     media,
		processor: processor,
		mediaRoot: mediaRoot,
		log:       log,
	}
}

type mediaResponse struct {
	ID               string  `json:"id"`
	FilenameOriginal string  `json:"filename_original"`
	FilesizeBytes    int64   `json:"filesize_bytes"`
	FileType         string  `json:"file_type"`
	MimeType         string  `json:"mime_type"`
	Language         string  `json:"language"`
	Status           string  `json:"status"`
	JobRef           *string `json:"job_ref,omitempty"`
	DurationSeconds  *int    `json:"duration_seconds,omitempty"`
	ErrorMessage     *string `json:"error_message,omitempty"`
	UploadDate       string  `json:"upload_date"`
}

func toMediaResponse(m *models.MediaFile) mediaResponse {
	return mediaResponse{
		ID:               m.ID,
		FilenameOriginal: m.FilenameOriginal,
		FilesizeBytes:    m.FilesizeBytes,
		FileType:         m.FileType,
		MimeType:         m.MimeType,
		Language:         m.Language,
		Status:           m.Status,
		JobRef:           m.JobRef,
		DurationSeconds:  m.DurationSeconds,
		ErrorMessage:     m.ErrorMessage,
		UploadDate:       m.UploadDate.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *MediaHandler) lookup(w http.ResponseWriter, r *http.Request) *models.MediaFile {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return nil
	}

	media, err := h.media.GetForOwner(r.Context(), id, ownerID(r))
	if err != nil {
		http.Error(w, "failed to get media: "+err.Error(), http.StatusInternalServerError)
		return nil
	}
	if media == nil {
		http.Error(w, "media not found", http.StatusNotFound)
		return nil
	}
	return media
}

// GET /api/media/{id}
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	media := h.lookup(w, r)
	if media == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toMediaResponse(media))
}

// GET /api/media/{id}/status
func (h *MediaHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	media := h.lookup(w, r)
	if media == nil {
		return
	}

	resp := map[string]any{
		"id":            media.ID,
		"status":        media.Status,
		"is_processing": media.IsProcessing(),
		"is_completed":  media.IsCompleted(),
		"has_failed":    media.HasFailed(),
	}
	if media.ErrorMessage != nil {
		resp["error_message"] = *media.ErrorMessage
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// POST /api/media/{id}/retry
func (h *MediaHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	if err := h.processor.Retry(r.Context(), id, ownerID(r)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "media not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "transcription retry enqueued",
		Fields:  map[string]any{"mediaID": id},
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"id":     id,
		"status": models.StatusPendingTranscription,
	})
}

// DELETE /api/media/{id}
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	if err := h.processor.DeleteMedia(r.Context(), id, ownerID(r)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "media not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete media: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "media deleted",
		Fields:  map[string]any{"mediaID": id},
	})

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/media/{id}/file serves the original artifact, with range support.
func (h *MediaHandler) ServeOriginal(w http.ResponseWriter, r *http.Request) {
	media := h.lookup(w, r)
	if media == nil {
		return
	}
	h.serveArtifact(w, r, media, media.StoragePathOrig, media.MimeType, media.FilenameOriginal)
}

// GET /api/media/{id}/audio serves the normalized waveform.
func (h *MediaHandler) ServeAudio(w http.ResponseWriter, r *http.Request) {
	media := h.lookup(w, r)
	if media == nil {
		return
	}
	h.serveArtifact(w, r, media, media.StoragePathAudio, "audio/wav", media.ID+".wav")
}

func (h *MediaHandler) serveArtifact(w http.ResponseWriter, r *http.Request, media *models.MediaFile, relPath *string, mimeType, filename string) {
	if relPath == nil {
		http.Error(w, "artifact not available", http.StatusNotFound)
		return
	}

	path := filepath.Join(h.mediaRoot, *relPath)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "artifact not found on disk", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	http.ServeFile(w, r, path)
}
