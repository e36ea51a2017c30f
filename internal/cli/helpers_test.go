package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alnah/vid2txt/internal/config"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	ffmpegResolver *mockFFmpegResolver
	configLoader   *mockConfigLoader
	extractor      *mockExtractorFactory
	recognizer     *mockRecognizerFactory
	stdout         *syncBuffer
	stderr         *syncBuffer
}

func newTestMocks() *testMocks {
	return &testMocks{
		ffmpegResolver: &mockFFmpegResolver{},
		configLoader:   &mockConfigLoader{},
		extractor:      &mockExtractorFactory{extractor: &mockExtractor{}},
		recognizer:     &mockRecognizerFactory{recognizer: &mockRecognizer{}},
		stdout:         &syncBuffer{},
		stderr:         &syncBuffer{},
	}
}

// testEnvOption configures testEnv.
type testEnvOption func(*Env, *testMocks)

// withGetenv replaces the default test environment.
func withGetenv(fn func(string) string) testEnvOption {
	return func(e *Env, _ *testMocks) { e.Getenv = fn }
}

// withConfig makes the config loader return cfg.
func withConfig(cfg config.Config) testEnvOption {
	return func(_ *Env, m *testMocks) {
		m.configLoader.LoadFunc = func() (config.Config, error) { return cfg, nil }
	}
}

// testEnv creates an Env with all dependencies mocked.
// Returns the Env and the mocks for assertions.
func testEnv(opts ...testEnvOption) (*Env, *testMocks) {
	mocks := newTestMocks()
	env := &Env{
		Stdout:            mocks.stdout,
		Stderr:            mocks.stderr,
		Getenv:            defaultTestEnv,
		FFmpegResolver:    mocks.ffmpegResolver,
		ConfigLoader:      mocks.configLoader,
		ExtractorFactory:  mocks.extractor,
		RecognizerFactory: mocks.recognizer,
	}
	for _, opt := range opts {
		opt(env, mocks)
	}
	return env, mocks
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// defaultTestEnv returns API keys for both providers.
func defaultTestEnv(key string) string {
	switch key {
	case EnvOpenAIAPIKey:
		return "test-openai-key"
	case EnvGoogleAPIKey:
		return "test-google-key"
	default:
		return ""
	}
}

// flagsSet returns a Changed function reporting the given flag names.
func flagsSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

// videoDirs creates an input directory holding empty files named videos and
// returns it with a not-yet-created output directory.
func videoDirs(t *testing.T, videos ...string) (in, out string) {
	t.Helper()
	root := t.TempDir()
	in = filepath.Join(root, "input")
	out = filepath.Join(root, "output")
	if err := os.MkdirAll(in, 0o755); err != nil {
		t.Fatalf("create input dir: %v", err)
	}
	for _, v := range videos {
		if err := os.WriteFile(filepath.Join(in, v), []byte("fake video"), 0o644); err != nil {
			t.Fatalf("create video: %v", err)
		}
	}
	return in, out
}

// ioFlags returns run flags pointing at in and out.
func ioFlags(in, out string, extra ...string) runFlags {
	return runFlags{
		inputDir:  in,
		outputDir: out,
		changed:   flagsSet(append([]string{"input", "output"}, extra...)...),
	}
}

// readFile returns the content of path or fails the test.
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
