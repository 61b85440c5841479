package whisper

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// buildFFmpegExtractArgs constructs the arguments for extracting a mono
// 16kHz WAV from an uploaded audio file.
func buildFFmpegExtractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

// ExtractAudio converts an uploaded file into a mono 16kHz WAV suitable for
// WhisperX.
func ExtractAudio(ctx context.Context, ffmpegBinary, source, dest string) error {
	args := buildFFmpegExtractArgs(source, dest)
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
