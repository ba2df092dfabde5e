package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/subvox/subvox/internal/ports"
)

const (
	replicateBaseURL = "https://api.replicate.com/v1"

	// WhisperX model with alignment and optional diarization.
	whisperxVersion = "victor-upmeet/whisperx-a40-large:1395a1d7aa48a01094887250475f384d4bae08fd0616f9c405bb81d4174597ea"
)

// ReplicateClient talks to the Replicate prediction API: upload the audio
// payload, create a prediction, poll it by id.
type ReplicateClient struct {
	apiToken string
	version  string
	baseURL  string
	client   *http.Client
}

func NewReplicateClient(apiToken string) ports.TranscriptionAPI {
	return &ReplicateClient{
		apiToken: apiToken,
		version:  whisperxVersion,
		baseURL:  replicateBaseURL,
		client:   http.DefaultClient,
	}
}

type replicateFile struct {
	URLs struct {
		Get string `json:"get"`
	} `json:"urls"`
}

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  *string         `json:"error"`
}

// uploadFile pushes the audio to Replicate's file store and returns the
// URL a prediction input can reference.
func (c *ReplicateClient) uploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("content", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/files", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Token "+c.apiToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("replicate file upload: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("replicate file upload http %d: %s", resp.StatusCode, raw)
	}

	var file replicateFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return "", fmt.Errorf("replicate file upload decode: %w", err)
	}
	if file.URLs.Get == "" {
		return "", fmt.Errorf("replicate file upload: empty file url")
	}
	return file.URLs.Get, nil
}

func (c *ReplicateClient) Submit(ctx context.Context, audioPath string, params ports.TranscriptionParams) (string, error) {
	fileURL, err := c.uploadFile(ctx, audioPath)
	if err != nil {
		return "", err
	}

	input := map[string]any{
		"audio_file":   fileURL,
		"language":     params.Language,
		"align_output": true,
		"diarization":  params.Diarize,
		"temperature":  0.0,
	}
	// The API rejects an empty token; the field must be absent when
	// diarization is off.
	if params.Diarize {
		input["huggingface_access_token"] = params.HFToken
	}

	payload, err := json.Marshal(map[string]any{
		"version": c.version,
		"input":   input,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/predictions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Token "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("replicate create: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("replicate create http %d: %s", resp.StatusCode, raw)
	}

	var pred replicatePrediction
	if err := json.Unmarshal(raw, &pred); err != nil {
		return "", fmt.Errorf("replicate create decode: %w", err)
	}
	if pred.ID == "" {
		return "", fmt.Errorf("replicate create: empty prediction id")
	}
	return pred.ID, nil
}

func (c *ReplicateClient) Job(ctx context.Context, jobID string) (*ports.TranscriptionJob, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/predictions/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+c.apiToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate get: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("replicate get http %d: %s", resp.StatusCode, raw)
	}

	var pred replicatePrediction
	if err := json.Unmarshal(raw, &pred); err != nil {
		return nil, fmt.Errorf("replicate get decode: %w", err)
	}

	job := &ports.TranscriptionJob{
		ID:     pred.ID,
		Status: pred.Status,
		Output: pred.Output,
	}
	if pred.Error != nil {
		job.Error = *pred.Error
	}
	return job, nil
}
