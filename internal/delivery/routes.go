package delivery

import (
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, hUpload *UploadHandler, hMedia *MediaHandler, hTranscription *TranscriptionHandler) {
	r.Group(func(r chi.Router) {
		r.Use(OwnerMiddleware)

		// chunked upload
		r.Post("/api/media/chunk", hUpload.PostChunk)
		r.Post("/api/media/upload/{uploadID}/cancel", hUpload.Cancel)

		// media records
		r.Get("/api/media/{id}", hMedia.Get)
		r.Get("/api/media/{id}/status", hMedia.GetStatus)
		r.Post("/api/media/{id}/retry", hMedia.Retry)
		r.Delete("/api/media/{id}", hMedia.Delete)
		r.Get("/api/media/{id}/file", hMedia.ServeOriginal)
		r.Get("/api/media/{id}/audio", hMedia.ServeAudio)

		// transcription artifacts
		r.Get("/api/media/{id}/transcription", hTranscription.Get)
		r.Put("/api/media/{id}/transcription/segments", hTranscription.UpdateSegments)
		r.Get("/api/media/{id}/transcription/{kind}", hTranscription.Download)
	})
}
