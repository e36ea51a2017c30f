package cli

import (
	"context"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/vid2txt/internal/audio"
	"github.com/alnah/vid2txt/internal/batch"
	"github.com/alnah/vid2txt/internal/config"
	"github.com/alnah/vid2txt/internal/ffmpeg"
	"github.com/alnah/vid2txt/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string

	// Factories for domain objects
	FFmpegResolver    FFmpegResolver
	ConfigLoader      ConfigLoader
	ExtractorFactory  ExtractorFactory
	RecognizerFactory RecognizerFactory

	// PartialDecision is asked, after an interruption, whether the segments
	// recognized so far are written. Nil discards them.
	PartialDecision func() bool

	// AbortCleanup registers work to run if a second Ctrl+C exits the
	// process. It returns the func that unregisters it. Nil skips it.
	AbortCleanup func(cleanup func()) (remove func())
}

// FFmpegResolver locates the ffmpeg binary and reports its version.
type FFmpegResolver interface {
	// Resolve honors FFMPEG_PATH, then configured, then PATH.
	Resolve(ctx context.Context, configured string) (string, error)
	// Version returns the version token, or "" if unreadable.
	Version(ctx context.Context, ffmpegPath string) string
	// CheckVersion warns on stderr about outdated releases.
	CheckVersion(ctx context.Context, ffmpegPath string)
}

// ConfigLoader loads the merged file and environment configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// ExtractorFactory creates the video to WAV extractor.
type ExtractorFactory interface {
	NewExtractor(ffmpegPath string) (batch.Extractor, error)
}

// RecognizerConfig selects and tunes a speech recognizer.
type RecognizerConfig struct {
	Provider Provider
	APIKey   string
	// Model and Prompt apply to the openai provider only.
	Model  string
	Prompt string
}

// RecognizerFactory creates the speech recognizer of a provider.
type RecognizerFactory interface {
	NewRecognizer(cfg RecognizerConfig) transcribe.Recognizer
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) { e.FFmpegResolver = r }
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) { e.ConfigLoader = l }
}

// WithExtractorFactory sets the extractor factory.
func WithExtractorFactory(f ExtractorFactory) EnvOption {
	return func(e *Env) { e.ExtractorFactory = f }
}

// WithRecognizerFactory sets the recognizer factory.
func WithRecognizerFactory(f RecognizerFactory) EnvOption {
	return func(e *Env) { e.RecognizerFactory = f }
}

// WithPartialDecision sets the interrupted-file callback.
func WithPartialDecision(fn func() bool) EnvOption {
	return func(e *Env) { e.PartialDecision = fn }
}

// WithAbortCleanup sets the forced-exit cleanup registry.
func WithAbortCleanup(register func(cleanup func()) (remove func())) EnvOption {
	return func(e *Env) { e.AbortCleanup = register }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:            os.Stdout,
		Stderr:            os.Stderr,
		Getenv:            os.Getenv,
		FFmpegResolver:    &defaultFFmpegResolver{},
		ConfigLoader:      &defaultConfigLoader{},
		ExtractorFactory:  &defaultExtractorFactory{},
		RecognizerFactory: &defaultRecognizerFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(ctx context.Context, configured string) (string, error) {
	return ffmpeg.NewResolver(ffmpeg.WithExplicitPath(config.ExpandPath(configured))).Resolve(ctx)
}

func (defaultFFmpegResolver) Version(ctx context.Context, ffmpegPath string) string {
	return ffmpeg.NewVersionChecker().Version(ctx, ffmpegPath)
}

func (defaultFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	ffmpeg.NewVersionChecker().Check(ctx, ffmpegPath)
}

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

type defaultExtractorFactory struct{}

func (defaultExtractorFactory) NewExtractor(ffmpegPath string) (batch.Extractor, error) {
	e, err := audio.NewExtractor(ffmpegPath)
	if err != nil {
		return nil, err
	}
	return e, nil
}

type defaultRecognizerFactory struct{}

func (defaultRecognizerFactory) NewRecognizer(cfg RecognizerConfig) transcribe.Recognizer {
	if cfg.Provider.OrDefault() == GoogleProvider {
		return transcribe.NewGoogleRecognizer(cfg.APIKey)
	}
	return transcribe.NewOpenAIRecognizer(openai.NewClient(cfg.APIKey),
		transcribe.WithModel(cfg.Model),
		transcribe.WithPrompt(cfg.Prompt))
}

// Compile-time interface verification.
var (
	_ FFmpegResolver    = (*defaultFFmpegResolver)(nil)
	_ ConfigLoader      = (*defaultConfigLoader)(nil)
	_ ExtractorFactory  = (*defaultExtractorFactory)(nil)
	_ RecognizerFactory = (*defaultRecognizerFactory)(nil)
)
