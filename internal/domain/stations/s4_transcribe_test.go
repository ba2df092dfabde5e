package stations

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subvox/subvox/internal/ports"
)

type fakeAPI struct {
	submitCalls int
	submit      func(attempt int) (string, error)

	jobCalls int
	job      func(attempt int) (*ports.TranscriptionJob, error)
}

func (f *fakeAPI) Submit(ctx context.Context, audioPath string, params ports.TranscriptionParams) (string, error) {
	f.submitCalls++
	return f.submit(f.submitCalls)
}

func (f *fakeAPI) Job(ctx context.Context, jobID string) (*ports.TranscriptionJob, error) {
	f.jobCalls++
	return f.job(f.jobCalls)
}

func fastS4(api ports.TranscriptionAPI) *S4Transcribe {
	s4 := NewS4Transcribe(api)
	s4.submitDelay = time.Millisecond
	s4.pollInterval = time.Millisecond
	return s4
}

func succeededJob(t *testing.T) *ports.TranscriptionJob {
	t.Helper()
	out, err := json.Marshal(map[string]any{
		"segments": []map[string]any{
			{"start": 0.0, "end": 1.5, "text": "hello"},
		},
	})
	require.NoError(t, err)
	return &ports.TranscriptionJob{ID: "job-1", Status: ports.JobStatusSucceeded, Output: out}
}

func TestTranscribeFirstAttempt(t *testing.T) {
	api := &fakeAPI{
		submit: func(int) (string, error) { return "job-1", nil },
		job:    func(int) (*ports.TranscriptionJob, error) { return succeededJob(t), nil },
	}

	jobID, result, err := fastS4(api).Run(context.Background(), "piece.wav", ports.TranscriptionParams{Language: "en"})
	require.NoError(t, err)

	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, 1, api.submitCalls)
	require.Len(t, result.Segments, 1)
	assert.Equal(t, "hello", result.Segments[0].Text)
}

func TestTranscribeSubmitRecoversOnThirdAttempt(t *testing.T) {
	api := &fakeAPI{
		submit: func(attempt int) (string, error) {
			if attempt < 3 {
				return "", errors.New("transient")
			}
			return "job-1", nil
		},
		job: func(int) (*ports.TranscriptionJob, error) { return succeededJob(t), nil },
	}

	_, result, err := fastS4(api).Run(context.Background(), "piece.wav", ports.TranscriptionParams{})
	require.NoError(t, err)

	assert.Equal(t, 3, api.submitCalls)
	assert.NotNil(t, result)
}

func TestTranscribeSubmitExhausted(t *testing.T) {
	api := &fakeAPI{
		submit: func(int) (string, error) { return "", errors.New("down") },
	}

	_, _, err := fastS4(api).Run(context.Background(), "piece.wav", ports.TranscriptionParams{})
	require.Error(t, err)

	assert.Equal(t, 3, api.submitCalls)
	assert.Contains(t, err.Error(), "submit failed after 3 attempts")
	assert.Contains(t, err.Error(), "down")
}

func TestTranscribeJobFailure(t *testing.T) {
	api := &fakeAPI{
		submit: func(int) (string, error) { return "job-1", nil },
		job: func(int) (*ports.TranscriptionJob, error) {
			return &ports.TranscriptionJob{ID: "job-1", Status: ports.JobStatusFailed, Error: "cuda out of memory"}, nil
		},
	}

	jobID, _, err := fastS4(api).Run(context.Background(), "piece.wav", ports.TranscriptionParams{})
	require.Error(t, err)

	assert.Equal(t, "job-1", jobID)
	assert.Contains(t, err.Error(), "cuda out of memory")
}

func TestTranscribeKeepsPollingThroughUnknownStatus(t *testing.T) {
	api := &fakeAPI{
		submit: func(int) (string, error) { return "job-1", nil },
		job: func(attempt int) (*ports.TranscriptionJob, error) {
			switch attempt {
			case 1:
				return &ports.TranscriptionJob{ID: "job-1", Status: ports.JobStatusStarting}, nil
			case 2:
				return &ports.TranscriptionJob{ID: "job-1", Status: "queued-weirdly"}, nil
			case 3:
				return nil, errors.New("flaky network")
			default:
				return succeededJob(t), nil
			}
		},
	}

	_, result, err := fastS4(api).Run(context.Background(), "piece.wav", ports.TranscriptionParams{})
	require.NoError(t, err)

	assert.Equal(t, 4, api.jobCalls)
	assert.NotNil(t, result)
}

func TestTranscribePollTimeout(t *testing.T) {
	api := &fakeAPI{
		submit: func(int) (string, error) { return "job-1", nil },
		job: func(int) (*ports.TranscriptionJob, error) {
			return &ports.TranscriptionJob{ID: "job-1", Status: ports.JobStatusProcessing}, nil
		},
	}

	s4 := fastS4(api)
	s4.maxPollAttempts = 5

	_, _, err := s4.Run(context.Background(), "piece.wav", ports.TranscriptionParams{})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.Equal(t, 5, api.jobCalls)
}

func TestTranscribeCancelledDuringPoll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	api := &fakeAPI{
		submit: func(int) (string, error) { return "job-1", nil },
		job: func(int) (*ports.TranscriptionJob, error) {
			cancel()
			return &ports.TranscriptionJob{ID: "job-1", Status: ports.JobStatusProcessing}, nil
		},
	}

	_, _, err := fastS4(api).Run(ctx, "piece.wav", ports.TranscriptionParams{})
	assert.ErrorIs(t, err, context.Canceled)
}
