package delivery

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/subvox/subvox/internal/domain"
	"github.com/subvox/subvox/internal/ports"
)

const maxChunkMemory = 64 << 20

type UploadHandler struct {
	uploads ports.UploadService
	log     *logger.ZapLogger
}

func NewUploadHandler(uploads ports.UploadService, log *logger.ZapLogger) *UploadHandler {
	return &UploadHandler{
		uploads: uploads,
		log:     log,
	}
}

// POST /api/media/chunk
func (h *UploadHandler) PostChunk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxChunkMemory); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	chunkNumber, err1 := strconv.Atoi(r.FormValue("chunk_number"))
	totalChunks, err2 := strconv.Atoi(r.FormValue("total_chunks"))
	totalSize, err3 := strconv.ParseInt(r.FormValue("total_size"), 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		http.Error(w, "chunk_number, total_chunks and total_size must be integers", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("chunk_file")
	if err != nil {
		http.Error(w, "missing chunk_file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.uploads.SaveChunk(r.Context(), ports.SaveChunkInput{
		UploadID:    r.FormValue("upload_id"),
		OwnerID:     ownerID(r),
		ChunkNumber: chunkNumber,
		TotalChunks: totalChunks,
		Filename:    r.FormValue("filename"),
		FileType:    r.FormValue("file_type"),
		TotalSize:   totalSize,
		Payload:     file,
		PayloadSize: header.Size,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidChunk) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to save chunk: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "chunk saved",
		Fields: map[string]any{
			"uploadID": result.Chunk.UploadID,
			"chunk":    result.Chunk.ChunkNumber,
			"uploaded": result.Uploaded,
			"total":    result.Total,
		},
	})

	resp := map[string]any{
		"upload_id":       result.Chunk.UploadID,
		"chunk_number":    result.Chunk.ChunkNumber,
		"uploaded_chunks": result.Uploaded,
		"total_chunks":    result.Total,
		"upload_complete": result.Complete,
	}
	if result.Media != nil {
		resp["media_file_id"] = result.Media.ID
		resp["status"] = result.Media.Status
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(resp)
}

// POST /api/media/upload/{uploadID}/cancel
func (h *UploadHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	if uploadID == "" {
		http.Error(w, "missing upload id", http.StatusBadRequest)
		return
	}

	if err := h.uploads.CancelUpload(r.Context(), uploadID, ownerID(r)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "no chunks found for upload", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to cancel upload: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "upload cancelled",
		Fields:  map[string]any{"uploadID": uploadID},
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message": "upload cancelled successfully",
	})
}
