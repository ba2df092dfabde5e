package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/subvox/subvox/internal/ports"
)

func TestTranscodeArgs(t *testing.T) {
	tests := []struct {
		name      string
		dropVideo bool
		cut       *ports.CutWindow
		want      []string
	}{
		{
			name: "audio passthrough",
			want: []string{
				"-loglevel", "error", "-i", "in.mp3",
				"-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1", "-y", "out.wav",
			},
		},
		{
			name:      "video drops the video stream",
			dropVideo: true,
			want: []string{
				"-loglevel", "error", "-i", "in.mp3",
				"-vn",
				"-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1", "-y", "out.wav",
			},
		},
		{
			name: "cut window precedes codec flags",
			cut:  &ports.CutWindow{OffsetSec: 982, DurationSec: 491},
			want: []string{
				"-loglevel", "error", "-i", "in.mp3",
				"-ss", "982", "-t", "491",
				"-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1", "-y", "out.wav",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := transcodeArgs("in.mp3", "out.wav", tc.dropVideo, tc.cut)
			assert.Equal(t, tc.want, got)
		})
	}
}
