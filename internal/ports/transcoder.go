package ports

import "context"

// CutWindow bounds a transcode to [OffsetSec, OffsetSec+DurationSec).
type CutWindow struct {
	OffsetSec   int
	DurationSec int
}

// Transcoder converts media into canonical PCM: mono, 16 kHz, 16-bit
// linear PCM in a WAV container. dropVideo strips the video track when the
// input is a video file. cut, when non-nil, re-encodes only a time window.
// Failure text must carry the external tool's stderr.
type Transcoder interface {
	Transcode(ctx context.Context, input, output string, dropVideo bool, cut *CutWindow) error
}
