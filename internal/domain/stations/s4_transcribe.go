package stations

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/subvox/subvox/internal/models"
	"github.com/subvox/subvox/internal/ports"
)

const (
	defaultSubmitAttempts = 3
	defaultSubmitDelay    = 5 * time.Second

	defaultPollInterval    = 5 * time.Second
	defaultMaxPollAttempts = 360 // ~30 minutes
)

// S4Transcribe drives one audio piece through the external transcription
// API: submit with retries, then poll the job to a terminal state.
type S4Transcribe struct {
	api ports.TranscriptionAPI

	submitAttempts  int
	submitDelay     time.Duration
	pollInterval    time.Duration
	maxPollAttempts int
}

func NewS4Transcribe(api ports.TranscriptionAPI) *S4Transcribe {
	return &S4Transcribe{
		api:             api,
		submitAttempts:  defaultSubmitAttempts,
		submitDelay:     defaultSubmitDelay,
		pollInterval:    defaultPollInterval,
		maxPollAttempts: defaultMaxPollAttempts,
	}
}

func (s *S4Transcribe) Run(ctx context.Context, piecePath string, params ports.TranscriptionParams) (string, *models.Result, error) {
	jobID, err := s.submit(ctx, piecePath, params)
	if err != nil {
		return "", nil, err
	}

	result, err := s.poll(ctx, jobID)
	if err != nil {
		return jobID, nil, err
	}
	return jobID, result, nil
}

// submit retries transient failures with doubling delays (5s, 10s). The
// final attempt's error propagates as the piece's hard failure.
func (s *S4Transcribe) submit(ctx context.Context, piecePath string, params ports.TranscriptionParams) (string, error) {
	delay := s.submitDelay

	var lastErr error
	for attempt := 1; attempt <= s.submitAttempts; attempt++ {
		log.Printf("[S4][SUBMIT] piece=%s attempt=%d/%d", piecePath, attempt, s.submitAttempts)

		jobID, err := s.api.Submit(ctx, piecePath, params)
		if err == nil {
			log.Printf("[S4][SUBMIT-OK] job=%s", jobID)
			return jobID, nil
		}

		lastErr = err
		log.Printf("[S4][SUBMIT-ERR] attempt=%d err=%v", attempt, err)

		if attempt < s.submitAttempts {
			if err := sleep(ctx, delay); err != nil {
				return "", err
			}
			delay *= 2
		}
	}

	return "", fmt.Errorf("submit failed after %d attempts: %w", s.submitAttempts, lastErr)
}

// poll treats anything that is not succeeded/failed as still running,
// unrecognized statuses included.
func (s *S4Transcribe) poll(ctx context.Context, jobID string) (*models.Result, error) {
	for attempt := 0; attempt < s.maxPollAttempts; attempt++ {
		job, err := s.api.Job(ctx, jobID)
		if err != nil {
			log.Printf("[S4][POLL-ERR] job=%s err=%v", jobID, err)
			if err := sleep(ctx, s.pollInterval); err != nil {
				return nil, err
			}
			continue
		}

		switch job.Status {
		case ports.JobStatusSucceeded:
			var result models.Result
			if err := json.Unmarshal(job.Output, &result); err != nil {
				return nil, fmt.Errorf("decode job %s output: %w", jobID, err)
			}
			log.Printf("[S4][OK] job=%s segments=%d", jobID, len(result.Segments))
			return &result, nil

		case ports.JobStatusFailed:
			log.Printf("[S4][JOB-FAIL] job=%s err=%s", jobID, job.Error)
			return nil, fmt.Errorf("transcription job %s failed: %s", jobID, job.Error)

		default:
			if job.Status != ports.JobStatusStarting && job.Status != ports.JobStatusProcessing {
				log.Printf("[S4][POLL-UNKNOWN] job=%s status=%q", jobID, job.Status)
			}
			if err := sleep(ctx, s.pollInterval); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%w: job %s", ErrPollTimeout, jobID)
}

// sleep waits for d but wakes immediately on ctx cancellation so shutdown
// drains outstanding polls instead of abandoning them.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
