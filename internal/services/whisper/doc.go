// Package whisper wraps speech recognition via the WhisperX CLI. Audio is
// first normalized to mono 16kHz WAV with ffmpeg, then transcribed through
// uvx-managed WhisperX, and the JSON output parsed into timed segments.
package whisper
