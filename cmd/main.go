package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/subvox/subvox/internal/delivery"
	ws "github.com/subvox/subvox/internal/delivery/ws"
	"github.com/subvox/subvox/internal/domain"
	"github.com/subvox/subvox/internal/domain/stations"
	"github.com/subvox/subvox/internal/infra"
	"go.uber.org/zap"
)

func main() {

	_ = godotenv.Load()

	// LOGGER
	zcore, _ := zap.NewProduction()
	zl := logger.NewZapLogger(zcore.Sugar())

	// ENV
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		panic("DATABASE_URL is not set")
	}

	mediaRoot := os.Getenv("MEDIA_ROOT")
	if mediaRoot == "" {
		mediaRoot = "/var/lib/subvox/media"
	}
	if err := os.MkdirAll(mediaRoot, 0755); err != nil {
		panic("cannot create media root: " + err.Error())
	}

	replicateToken := os.Getenv("REPLICATE_API_TOKEN")
	if replicateToken == "" {
		panic("REPLICATE_API_TOKEN is not set")
	}

	hfToken := os.Getenv("HUGGINGFACE_ACCESS_TOKEN")
	if !domain.ValidHFToken(hfToken) {
		log.Println("WARN: no valid HUGGINGFACE_ACCESS_TOKEN; diarization disabled")
	}

	workers := int64(4)
	if raw := os.Getenv("PIPELINE_WORKERS"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			panic("PIPELINE_WORKERS must be a positive integer")
		}
		workers = n
	}

	// POSTGRES
	ctx := context.Background()

	pool, err := infra.NewPgxPool(ctx, dsn)
	if err != nil {
		panic("postgres: " + err.Error())
	}
	defer pool.Close()

	// REPOS
	mediaRepo := infra.NewPostgresMediaRepo(pool)
	chunkRepo := infra.NewPostgresChunkRepo(pool)
	transcriptRepo := infra.NewPostgresTranscriptRepo(pool)

	// EXTERNAL COLLABORATORS
	transcoder := infra.NewFFmpegTranscoder(os.Getenv("FFMPEG_BINARY"))
	transcriptionAPI := infra.NewReplicateClient(replicateToken)

	// STATIONS
	s1 := stations.NewS1Assemble(chunkRepo, mediaRepo, mediaRoot)
	s2 := stations.NewS2Normalize(transcoder, mediaRoot)
	s3 := stations.NewS3Split(transcoder)
	s4 := stations.NewS4Transcribe(transcriptionAPI)

	// SERVICES
	mediaService := domain.NewMediaService(
		mediaRepo,
		transcriptRepo,
		s2, s3, s4,
		mediaRoot,
		hfToken,
		workers,
	)
	uploadService := domain.NewUploadService(chunkRepo, s1, mediaService, mediaRoot)

	// re-drive records stranded by the previous shutdown
	if err := mediaService.Recover(ctx); err != nil {
		panic("startup recovery failed: " + err.Error())
	}

	// WS HUB
	hub := ws.NewHub()

	// BROADCAST LISTENER
	go func() {
		for ev := range mediaService.Events() {

			type wsStatus struct {
				MediaID string `json:"mediaId"`
				Status  string `json:"status"`
				Error   string `json:"error,omitempty"`
			}

			payload, err := json.Marshal(wsStatus{
				MediaID: ev.MediaID,
				Status:  ev.Status,
				Error:   ev.Error,
			})
			if err != nil {
				log.Printf("[SEND][ERR] json marshal failed: %v", err)
				continue
			}

			hub.SendToRoom(ev.MediaID, payload)
		}
	}()

	// HANDLERS
	hUpload := delivery.NewUploadHandler(uploadService, zl)
	hMedia := delivery.NewMediaHandler(mediaRepo, mediaService, mediaRoot, zl)
	hTranscription := delivery.NewTranscriptionHandler(mediaRepo, transcriptRepo, mediaService, mediaRoot, zl)

	// ROUTER
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Owner-ID"},
		AllowCredentials: true,
	}))

	delivery.RegisterRoutes(r, hUpload, hMedia, hTranscription)

	r.Get("/ws", ws.Handler(hub))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "server started",
		Fields:  map[string]any{"port": port, "workers": workers},
	})

	if err := http.ListenAndServe(":"+port, r); err != nil {
		zl.Log(logger.LogEntry{
			Level:   "error",
			Message: "server crashed",
			Error:   err,
		})
	}
}
