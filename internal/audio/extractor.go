package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alnah/vid2txt/internal/ffmpeg"
)

// Output format of every extracted track.
const (
	// SampleRate is the sample rate recognizers expect, in Hz.
	SampleRate = 16000

	// Channels is the channel count of extracted audio (mono).
	Channels = 1

	// BitsPerSample is the sample depth of extracted audio (signed 16-bit).
	BitsPerSample = 16
)

// gracefulShutdownTimeout is how long FFmpeg gets to finish writing the WAV
// header after 'q' before it is killed.
const gracefulShutdownTimeout = 5 * time.Second

// Extractor pulls the audio track out of a video file with FFmpeg.
type Extractor struct {
	ffmpegPath string
	runner     ffmpegRunner
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithFFmpegRunner sets the FFmpeg runner (for testing).
func WithFFmpegRunner(r ffmpegRunner) ExtractorOption {
	return func(e *Extractor) { e.runner = r }
}

// NewExtractor creates an Extractor using the FFmpeg binary at ffmpegPath.
func NewExtractor(ffmpegPath string, opts ...ExtractorOption) (*Extractor, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	e := &Extractor{
		ffmpegPath: ffmpegPath,
		runner:     defaultFFmpegRunner{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract decodes the first audio stream of videoPath into a mono 16 kHz
// signed 16-bit WAV at audioPath, overwriting it if present.
// Failures wrap ErrExtractionFailed and carry FFmpeg's diagnostics.
// A canceled context returns the context error instead.
func (e *Extractor) Extract(ctx context.Context, videoPath, audioPath string) error {
	err := e.runner.RunGraceful(ctx, e.ffmpegPath, extractArgs(videoPath, audioPath), gracefulShutdownTimeout)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("extract %s: %w", filepath.Base(videoPath), ctxErr)
	}
	return fmt.Errorf("%w: %s: %w", ErrExtractionFailed, filepath.Base(videoPath), err)
}

// extractArgs builds the FFmpeg command line for Extract.
func extractArgs(videoPath, audioPath string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-vn",
		"-ac", strconv.Itoa(Channels),
		"-ar", strconv.Itoa(SampleRate),
		"-acodec", "pcm_s16le",
		"-f", "wav",
		audioPath,
	}
}
