package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alnah/vid2txt/internal/audio"
	"github.com/alnah/vid2txt/internal/batch"
	"github.com/alnah/vid2txt/internal/config"
	"github.com/alnah/vid2txt/internal/lang"
	"github.com/alnah/vid2txt/internal/testsupport"
	"github.com/alnah/vid2txt/internal/transcribe"
)

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc      func(ctx context.Context, configured string) (string, error)
	VersionFunc      func(ctx context.Context, ffmpegPath string) string
	CheckVersionFunc func(ctx context.Context, ffmpegPath string)

	mu           sync.Mutex
	resolveCalls []string // configured paths passed
}

func (m *mockFFmpegResolver) Resolve(ctx context.Context, configured string) (string, error) {
	m.mu.Lock()
	m.resolveCalls = append(m.resolveCalls, configured)
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, configured)
	}
	return "/usr/bin/ffmpeg", nil
}

func (m *mockFFmpegResolver) Version(ctx context.Context, ffmpegPath string) string {
	if m.VersionFunc != nil {
		return m.VersionFunc(ctx, ffmpegPath)
	}
	return "6.1.1"
}

func (m *mockFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	if m.CheckVersionFunc != nil {
		m.CheckVersionFunc(ctx, ffmpegPath)
	}
}

func (m *mockFFmpegResolver) ResolveCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resolveCalls...)
}

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

// ---------------------------------------------------------------------------
// Mock ExtractorFactory + Extractor
// ---------------------------------------------------------------------------

type mockExtractorFactory struct {
	NewExtractorFunc func(ffmpegPath string) (batch.Extractor, error)
	extractor        *mockExtractor

	mu    sync.Mutex
	paths []string
}

func (m *mockExtractorFactory) NewExtractor(ffmpegPath string) (batch.Extractor, error) {
	m.mu.Lock()
	m.paths = append(m.paths, ffmpegPath)
	m.mu.Unlock()

	if m.NewExtractorFunc != nil {
		return m.NewExtractorFunc(ffmpegPath)
	}
	if m.extractor == nil {
		m.extractor = &mockExtractor{}
	}
	return m.extractor, nil
}

func (m *mockExtractorFactory) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

// mockExtractor writes a silent WAV of Length (65s by default) for every
// video, except those named in Fail.
type mockExtractor struct {
	Length time.Duration
	Fail   map[string]bool

	mu     sync.Mutex
	videos []string
	audio  []string
}

func (m *mockExtractor) Extract(_ context.Context, videoPath, audioPath string) error {
	m.mu.Lock()
	m.videos = append(m.videos, filepath.Base(videoPath))
	m.audio = append(m.audio, audioPath)
	m.mu.Unlock()

	if m.Fail[filepath.Base(videoPath)] {
		return fmt.Errorf("%w: %s: no audio stream", audio.ErrExtractionFailed, filepath.Base(videoPath))
	}

	length := m.Length
	if length == 0 {
		length = 65 * time.Second
	}
	return os.WriteFile(audioPath, testsupport.SilentWAV(length), 0o600)
}

func (m *mockExtractor) Videos() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.videos...)
}

func (m *mockExtractor) AudioPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.audio...)
}

// ---------------------------------------------------------------------------
// Mock RecognizerFactory + Recognizer
// ---------------------------------------------------------------------------

type recognizerCall = RecognizerConfig

type mockRecognizerFactory struct {
	recognizer *mockRecognizer

	mu    sync.Mutex
	calls []recognizerCall
}

func (m *mockRecognizerFactory) NewRecognizer(cfg RecognizerConfig) transcribe.Recognizer {
	m.mu.Lock()
	m.calls = append(m.calls, cfg)
	m.mu.Unlock()

	if m.recognizer == nil {
		m.recognizer = &mockRecognizer{}
	}
	return m.recognizer
}

func (m *mockRecognizerFactory) Calls() []recognizerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recognizerCall(nil), m.calls...)
}

// mockRecognizer answers by window index from Answers; other windows are
// misses.
type mockRecognizer struct {
	Answers map[int]string
	// OnRecognize, if set, runs before every answer.
	OnRecognize func()

	mu    sync.Mutex
	langs []string
}

func (m *mockRecognizer) Recognize(_ context.Context, clip audio.Clip, language lang.Language) (string, error) {
	m.mu.Lock()
	m.langs = append(m.langs, language.String())
	m.mu.Unlock()

	if m.OnRecognize != nil {
		m.OnRecognize()
	}

	if text, ok := m.Answers[clip.Window.Index]; ok {
		return text, nil
	}
	return "", transcribe.ErrNoSpeech
}

func (m *mockRecognizer) Languages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.langs...)
}

// Compile-time interface verification.
var (
	_ FFmpegResolver        = (*mockFFmpegResolver)(nil)
	_ ConfigLoader          = (*mockConfigLoader)(nil)
	_ ExtractorFactory      = (*mockExtractorFactory)(nil)
	_ batch.Extractor       = (*mockExtractor)(nil)
	_ RecognizerFactory     = (*mockRecognizerFactory)(nil)
	_ transcribe.Recognizer = (*mockRecognizer)(nil)
)
