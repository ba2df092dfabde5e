package infra

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/subvox/subvox/internal/ports"
)

const maxStderrPreview = 500

// FFmpegTranscoder shells out to ffmpeg for all audio conversion. Every
// invocation targets canonical PCM: mono, 16 kHz, 16-bit little-endian.
type FFmpegTranscoder struct {
	binary string
}

func NewFFmpegTranscoder(binary string) ports.Transcoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegTranscoder{binary: binary}
}

func transcodeArgs(input, output string, dropVideo bool, cut *ports.CutWindow) []string {
	args := []string{"-loglevel", "error", "-i", input}

	if cut != nil {
		args = append(args,
			"-ss", strconv.Itoa(cut.OffsetSec),
			"-t", strconv.Itoa(cut.DurationSec),
		)
	}
	if dropVideo {
		args = append(args, "-vn")
	}

	return append(args,
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		output,
	)
}

func (t *FFmpegTranscoder) Transcode(ctx context.Context, input, output string, dropVideo bool, cut *ports.CutWindow) error {
	start := time.Now()
	args := transcodeArgs(input, output, dropVideo, cut)
	log.Printf("[FFMPEG][START] %s %s", t.binary, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, t.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			log.Printf("[FFMPEG][TIMEOUT] dur=%s", time.Since(start))
			return fmt.Errorf("%s timed out: %w", t.binary, ctx.Err())
		}
		diag := strings.TrimSpace(stderr.String())
		if len(diag) > maxStderrPreview {
			diag = diag[:maxStderrPreview] + "…"
		}
		log.Printf("[FFMPEG][ERR] %v stderr=%q", err, diag)
		return fmt.Errorf("%s: %w: %s", t.binary, err, diag)
	}

	if _, err := os.Stat(output); err != nil {
		return fmt.Errorf("%s produced no output file: %w", t.binary, err)
	}

	log.Printf("[FFMPEG][OK] out=%s dur=%s", output, time.Since(start))
	return nil
}
