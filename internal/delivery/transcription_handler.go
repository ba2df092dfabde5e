package delivery

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/subvox/subvox/internal/domain"
	"github.com/subvox/subvox/internal/models"
	"github.com/subvox/subvox/internal/ports"
)

type TranscriptionHandler struct {
	media       ports.MediaRepository
	transcripts ports.TranscriptRepository
	processor   ports.MediaProcessor
	mediaRoot   string
	log         *logger.ZapLogger
}

func NewTranscriptionHandler(
	media ports.MediaRepository,
	transcripts ports.TranscriptRepository,
	processor ports.MediaProcessor,
	mediaRoot string,
	log *logger.ZapLogger,
) *TranscriptionHandler {
	return &TranscriptionHandler{
		media:       media,
		transcripts: transcripts,
		processor:   processor,
		mediaRoot:   mediaRoot,
		log:         log,
	}
}

func (h *TranscriptionHandler) lookup(w http.ResponseWriter, r *http.Request) *models.Transcription {
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

	t, err := h.transcripts.GetByMediaID(r.Context(), media.ID)
	if err != nil {
		http.Error(w, "failed to get transcription: "+err.Error(), http.StatusInternalServerError)
		return nil
	}
	if t == nil {
		http.Error(w, "transcription not available", http.StatusNotFound)
		return nil
	}
	return t
}

// GET /api/media/{id}/transcription
func (h *TranscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	t := h.lookup(w, r)
	if t == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":                 t.ID,
		"media_file_id":      t.MediaID,
		"segment_count":      t.SegmentCount,
		"word_count":         t.WordCount,
		"speaker_count":      t.SpeakerCount,
		"completed_date":     t.CompletedDate.Format("2006-01-02T15:04:05Z07:00"),
		"has_vtt":            t.VTTPath != nil,
		"has_word_level_vtt": t.WordLevelVTTPath != nil,
		"has_srt":            t.SRTPath != nil,
		"has_txt":            t.TXTPath != nil,
		"has_raw_output":     len(t.RawOutput) > 0 || t.RawOutputPath != nil,
	})
}

// PUT /api/media/{id}/transcription/segments replaces the transcript's
// segments with edited ones and regenerates the subtitle artifacts.
func (h *TranscriptionHandler) UpdateSegments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	var body struct {
		Segments []models.Segment `json:"segments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}

	t, err := h.processor.UpdateSegments(r.Context(), id, ownerID(r), body.Segments)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidSegment):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "failed to update segments: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "transcription segments updated",
		Fields: map[string]any{
			"mediaID":  id,
			"segments": t.SegmentCount,
		},
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message":       "transcription updated successfully",
		"segment_count": t.SegmentCount,
		"word_count":    t.WordCount,
	})
}

// GET /api/media/{id}/transcription/{kind} with kind in
// vtt|word_vtt|srt|txt|raw.
func (h *TranscriptionHandler) Download(w http.ResponseWriter, r *http.Request) {
	t := h.lookup(w, r)
	if t == nil {
		return
	}

	kind := chi.URLParam(r, "kind")

	if kind == "raw" {
		h.serveRaw(w, r, t)
		return
	}

	var relPath *string
	var contentType string
	switch kind {
	case "vtt":
		relPath, contentType = t.VTTPath, "text/vtt"
	case "word_vtt":
		relPath, contentType = t.WordLevelVTTPath, "text/vtt"
	case "srt":
		relPath, contentType = t.SRTPath, "application/x-subrip"
	case "txt":
		relPath, contentType = t.TXTPath, "text/plain; charset=utf-8"
	default:
		http.Error(w, "unknown artifact kind: "+kind, http.StatusBadRequest)
		return
	}

	if relPath == nil {
		http.Error(w, "artifact not available", http.StatusNotFound)
		return
	}

	path := filepath.Join(h.mediaRoot, *relPath)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "artifact not found on disk", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(path))
	http.ServeFile(w, r, path)
}

func (h *TranscriptionHandler) serveRaw(w http.ResponseWriter, r *http.Request, t *models.Transcription) {
	if len(t.RawOutput) > 0 {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(t.RawOutput)
		return
	}

	if t.RawOutputPath == nil {
		http.Error(w, "raw output not available", http.StatusNotFound)
		return
	}

	path := filepath.Join(h.mediaRoot, *t.RawOutputPath)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "raw output not found on disk", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, path)
}
