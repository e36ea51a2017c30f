package audio

import (
	"context"
	"time"

	"github.com/alnah/vid2txt/internal/ffmpeg"
)

// ffmpegRunner runs FFmpeg with graceful shutdown.
type ffmpegRunner interface {
	RunGraceful(ctx context.Context, ffmpegPath string, args []string, gracefulTimeout time.Duration) error
}

// defaultFFmpegRunner delegates to the ffmpeg package.
type defaultFFmpegRunner struct{}

func (defaultFFmpegRunner) RunGraceful(ctx context.Context, ffmpegPath string, args []string, gracefulTimeout time.Duration) error {
	return ffmpeg.RunGraceful(ctx, ffmpegPath, args, gracefulTimeout)
}
