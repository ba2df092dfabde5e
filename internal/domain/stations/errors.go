package stations

import "errors"

var (
	// ErrNoChunks: assembly requested for a session with no stored chunks.
	ErrNoChunks = errors.New("no chunks found for upload")

	// ErrIncompleteUpload: stored chunk count does not match the declared
	// total. No media record is created.
	ErrIncompleteUpload = errors.New("incomplete upload")

	// ErrSplitTruncated: a cut failed mid-sequence; the produced pieces do
	// not cover the input and must not be transcribed.
	ErrSplitTruncated = errors.New("audio split truncated")

	// ErrPollTimeout: the external job never reached a terminal state
	// within the polling budget.
	ErrPollTimeout = errors.New("transcription polling timed out")
)
