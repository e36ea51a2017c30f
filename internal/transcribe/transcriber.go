// Package transcribe recognizes an audio track window by window and writes
// the resulting transcript.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alnah/vid2txt/internal/apierr"
	"github.com/alnah/vid2txt/internal/audio"
	"github.com/alnah/vid2txt/internal/lang"
	"github.com/alnah/vid2txt/internal/logging"
)

// Progress receives one update per processed window.
type Progress interface {
	Step(r Result)
	Finish()
}

// ProgressFactory creates the progress display for one file.
type ProgressFactory func(total int, label string) Progress

// ChunkedTranscriber splits audio into fixed windows and submits them one
// at a time. A window that fails or contains no speech is logged and skipped;
// it never aborts the file.
type ChunkedTranscriber struct {
	recognizer      Recognizer
	windowSize      time.Duration
	logger          *slog.Logger
	newProgress     ProgressFactory
	partialDecision func() bool
}

// Option configures a ChunkedTranscriber.
type Option func(*ChunkedTranscriber)

// WithWindowSize sets the window length. Non-positive values are ignored.
func WithWindowSize(d time.Duration) Option {
	return func(t *ChunkedTranscriber) {
		if d > 0 {
			t.windowSize = d
		}
	}
}

// WithLogger sets the logger for skipped windows.
func WithLogger(l *slog.Logger) Option {
	return func(t *ChunkedTranscriber) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithProgress sets the progress display factory.
func WithProgress(f ProgressFactory) Option {
	return func(t *ChunkedTranscriber) { t.newProgress = f }
}

// WithPartialDecision sets the callback asked, after an interruption, whether
// the segments recognized so far should be written.
func WithPartialDecision(f func() bool) Option {
	return func(t *ChunkedTranscriber) { t.partialDecision = f }
}

// NewChunkedTranscriber creates a transcriber using r for every window.
func NewChunkedTranscriber(r Recognizer, opts ...Option) *ChunkedTranscriber {
	t := &ChunkedTranscriber{
		recognizer:  r,
		windowSize:  audio.DefaultWindowSize,
		logger:      logging.Discard(),
		newProgress: func(int, string) Progress { return nopProgress{} },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe recognizes the WAV at audioPath and writes the transcript to
// outputPath, replacing any previous file.
//
// Recognition failures are counted in the Report, not returned. Errors are
// returned only when the audio cannot be read, the transcript cannot be
// written, or ctx is canceled.
func (t *ChunkedTranscriber) Transcribe(ctx context.Context, audioPath, outputPath string, language lang.Language) (Report, error) {
	wav, err := audio.OpenWAV(audioPath)
	if err != nil {
		return Report{}, err
	}
	defer func() { _ = wav.Close() }()

	windows, err := audio.PlanWindows(wav.Duration(), t.windowSize)
	if err != nil {
		return Report{}, err
	}

	report := Report{Duration: wav.Duration(), Windows: len(windows)}
	progress := t.newProgress(len(windows), filepath.Base(outputPath))
	defer progress.Finish()

	results := make([]Result, 0, len(windows))
	for _, w := range windows {
		if ctx.Err() != nil {
			return t.interrupted(ctx, report, results, outputPath)
		}

		res, err := t.recognizeWindow(ctx, wav, w, language)
		if err != nil {
			return report, err
		}
		if ctx.Err() != nil {
			return t.interrupted(ctx, report, results, outputPath)
		}

		t.logResult(outputPath, res)
		results = append(results, res)
		report.add(res)
		progress.Step(res)
	}

	if err := WriteTranscript(outputPath, Assemble(results)); err != nil {
		return report, err
	}
	return report, nil
}

// recognizeWindow submits one window and classifies the outcome.
// Only a failure to read the window itself is returned as an error.
func (t *ChunkedTranscriber) recognizeWindow(ctx context.Context, wav *audio.WAVFile, w audio.Window, language lang.Language) (Result, error) {
	clip, err := wav.Clip(w)
	if err != nil {
		return Result{}, fmt.Errorf("window %s: %w", w, err)
	}

	text, err := t.recognizer.Recognize(ctx, clip, language)
	switch {
	case errors.Is(err, ErrNoSpeech):
		return Result{Window: w, Outcome: OutcomeMiss}, nil
	case err != nil:
		return Result{Window: w, Outcome: OutcomeServiceError, Err: err}, nil
	}

	res := Result{Window: w, Outcome: OutcomeText, Text: text}
	if Assemble([]Result{res}) == "" {
		res = Result{Window: w, Outcome: OutcomeMiss}
	}
	return res, nil
}

func (t *ChunkedTranscriber) logResult(outputPath string, res Result) {
	switch res.Outcome {
	case OutcomeMiss:
		t.logger.Warn("cannot recognize window",
			"file", filepath.Base(outputPath),
			"range", res.Window.String())
	case OutcomeServiceError:
		msg := "recognition request failed"
		if apierr.IsServiceError(res.Err) {
			msg = "recognition service rejected window"
		}
		t.logger.Warn(msg,
			"file", filepath.Base(outputPath),
			"range", res.Window.String(),
			"error", res.Err)
	default:
		t.logger.Debug("window recognized",
			"file", filepath.Base(outputPath),
			"range", res.Window.String(),
			"chars", len(res.Text))
	}
}

// interrupted handles cancellation mid-file. The partial transcript is
// written only when the decision callback asks for it.
func (t *ChunkedTranscriber) interrupted(ctx context.Context, report Report, results []Result, outputPath string) (Report, error) {
	cause := fmt.Errorf("interrupted after %d of %d windows: %w", len(results), report.Windows, ctx.Err())
	if t.partialDecision == nil || len(results) == 0 || !t.partialDecision() {
		return report, cause
	}
	if err := WriteTranscript(outputPath, Assemble(results)); err != nil {
		return report, errors.Join(cause, err)
	}
	report.Partial = true
	return report, cause
}

// WriteTranscript writes text to path atomically: a temp file in the same
// directory is renamed over the destination.
func WriteTranscript(path, text string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp transcript: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		_ = tmp.Close()
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.WriteString(tmp, text); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close transcript: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("install transcript: %w", err)
	}

	success = true
	return nil
}

type nopProgress struct{}

func (nopProgress) Step(Result) {}
func (nopProgress) Finish()     {}
