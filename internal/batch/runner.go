// Package batch converts every video of an input directory into a
// transcript in an output directory, one file at a time.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/alnah/vid2txt/internal/format"
	"github.com/alnah/vid2txt/internal/lang"
	"github.com/alnah/vid2txt/internal/logging"
	"github.com/alnah/vid2txt/internal/transcribe"
)

// LockPath returns the advisory lock file guarding outputDir. The lock
// lives in lockDir and is named after the absolute output path, so the
// output directory only ever holds transcripts.
func LockPath(lockDir, outputDir string) (string, error) {
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolve output directory: %w", err)
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs)))
	return filepath.Join(lockDir, "vid2txt-"+id.String()+".lock"), nil
}

// Extractor produces a WAV file from a video file.
type Extractor interface {
	Extract(ctx context.Context, videoPath, audioPath string) error
}

// Transcriber writes the transcript of a WAV file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, outputPath string, language lang.Language) (transcribe.Report, error)
}

// fileRemover removes temporary audio files.
type fileRemover interface {
	Remove(name string) error
}

type osFileRemover struct{}

func (osFileRemover) Remove(name string) error { return os.Remove(name) }

// Options selects what a run processes.
type Options struct {
	InputDir   string
	OutputDir  string
	Extensions []string // Defaults to DefaultExtensions.
	Language   lang.Language

	// ContinueOnError records a failed file and moves on instead of
	// aborting the batch.
	ContinueOnError bool
}

// FileResult is the outcome of one video.
type FileResult struct {
	Video   string
	Output  string
	Report  transcribe.Report
	Elapsed time.Duration
	Err     error
}

// Summary lists per-video outcomes in processing order.
type Summary struct {
	Files []FileResult
}

// Failed returns how many videos produced no transcript.
func (s Summary) Failed() int {
	n := 0
	for _, f := range s.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Succeeded returns how many videos were transcribed.
func (s Summary) Succeeded() int {
	return len(s.Files) - s.Failed()
}

// Runner processes a batch sequentially.
type Runner struct {
	extractor   Extractor
	transcriber Transcriber
	logger      *slog.Logger
	stderr      io.Writer
	tempDir     string
	lockDir     string
	tempName    func() string
	files       fileRemover
	onAbort     func(cleanup func()) (remove func())
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger for cleanup and per-file failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithStderr sets the writer for status lines.
func WithStderr(w io.Writer) Option {
	return func(r *Runner) { r.stderr = w }
}

// WithTempDir sets the directory holding temporary audio files.
func WithTempDir(dir string) Option {
	return func(r *Runner) {
		if dir != "" {
			r.tempDir = dir
		}
	}
}

// WithLockDir sets the directory holding the per-output lock file.
func WithLockDir(dir string) Option {
	return func(r *Runner) {
		if dir != "" {
			r.lockDir = dir
		}
	}
}

// WithAbortCleanup registers temporary audio files with register for the
// duration of their use, so a forced exit can still remove them.
func WithAbortCleanup(register func(cleanup func()) (remove func())) Option {
	return func(r *Runner) { r.onAbort = register }
}

// WithTempName sets the temporary file name generator (for testing).
func WithTempName(fn func() string) Option {
	return func(r *Runner) { r.tempName = fn }
}

// WithFileRemover sets the file remover (for testing).
func WithFileRemover(f fileRemover) Option {
	return func(r *Runner) { r.files = f }
}

// NewRunner creates a Runner.
func NewRunner(e Extractor, t Transcriber, opts ...Option) *Runner {
	r := &Runner{
		extractor:   e,
		transcriber: t,
		logger:      logging.Discard(),
		stderr:      os.Stderr,
		tempDir:     os.TempDir(),
		lockDir:     os.TempDir(),
		tempName:    func() string { return "vid2txt-" + uuid.NewString() + ".wav" },
		files:       osFileRemover{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run transcribes every matching video of opts.InputDir into opts.OutputDir.
//
// An input directory without videos is not an error: a message is printed,
// an empty Summary is returned and the output directory is left untouched. Extraction and transcription failures
// abort the batch unless opts.ContinueOnError is set; recognition failures
// inside a file never do.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	if info, err := os.Stat(opts.InputDir); err != nil || !info.IsDir() {
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return Summary{}, fmt.Errorf("%w: %s", ErrInputDirMissing, opts.InputDir)
		}
		return Summary{}, fmt.Errorf("stat input directory: %w", err)
	}

	videos, err := Discover(opts.InputDir, opts.Extensions)
	if err != nil {
		return Summary{}, err
	}
	if len(videos) == 0 {
		fmt.Fprintf(r.stderr, "No video files found in %s\n", opts.InputDir)
		return Summary{}, nil
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create output directory: %w", err)
	}

	lockPath, err := LockPath(r.lockDir, opts.OutputDir)
	if err != nil {
		return Summary{}, err
	}
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return Summary{}, fmt.Errorf("%w: %s", ErrAlreadyRunning, opts.OutputDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release output lock", "error", err)
		}
	}()

	fmt.Fprintf(r.stderr, "Found %d video file(s)\n", len(videos))

	var summary Summary
	for _, video := range videos {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		fmt.Fprintf(r.stderr, "\nProcessing %s\n", filepath.Base(video))
		res := r.processFile(ctx, video, opts)
		summary.Files = append(summary.Files, res)

		if res.Err == nil {
			continue
		}
		if ctx.Err() != nil {
			return summary, res.Err
		}
		r.logger.Error("file failed", "video", filepath.Base(video), "error", res.Err)
		if !opts.ContinueOnError {
			return summary, res.Err
		}
	}
	return summary, nil
}

// processFile extracts and transcribes one video. The temporary audio file
// is removed on every path.
func (r *Runner) processFile(ctx context.Context, video string, opts Options) FileResult {
	start := time.Now()
	res := FileResult{Video: video, Output: OutputPath(opts.OutputDir, video)}
	audioPath := filepath.Join(r.tempDir, r.tempName())

	if r.onAbort != nil {
		remove := r.onAbort(func() { _ = os.Remove(audioPath) })
		defer remove()
	}
	defer func() {
		if err := r.files.Remove(audioPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("failed to remove temporary audio", "path", audioPath, "error", err)
		}
	}()

	fmt.Fprintln(r.stderr, "Extracting audio...")
	if err := r.extractor.Extract(ctx, video, audioPath); err != nil {
		res.Err = err
		res.Elapsed = time.Since(start)
		return res
	}
	if info, err := os.Stat(audioPath); err == nil {
		r.logger.Debug("audio extracted", "video", filepath.Base(video), "size", format.Size(info.Size()))
	}

	fmt.Fprintln(r.stderr, "Recognizing speech...")
	report, err := r.transcriber.Transcribe(ctx, audioPath, res.Output, opts.Language)
	res.Report = report
	res.Err = err
	res.Elapsed = time.Since(start)
	return res
}
