package ports

import (
	"context"
	"encoding/json"
)

// Transcription job statuses as reported by the external API.
const (
	JobStatusStarting   = "starting"
	JobStatusProcessing = "processing"
	JobStatusSucceeded  = "succeeded"
	JobStatusFailed     = "failed"
)

type TranscriptionParams struct {
	Language string
	// Diarize enables speaker attribution. It requires HFToken, which is
	// then passed as an explicit job parameter; when Diarize is false the
	// token parameter is omitted entirely.
	Diarize bool
	HFToken string
}

type TranscriptionJob struct {
	ID     string
	Status string
	Output json.RawMessage
	Error  string
}

// TranscriptionAPI is the external speech-transcription service: submit an
// audio payload, then poll the returned job id until a terminal status.
type TranscriptionAPI interface {
	Submit(ctx context.Context, audioPath string, params TranscriptionParams) (jobID string, err error)
	Job(ctx context.Context, jobID string) (*TranscriptionJob, error)
}
