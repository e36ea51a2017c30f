package transcribe_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alnah/vid2txt/internal/audio"
	"github.com/alnah/vid2txt/internal/lang"
	"github.com/alnah/vid2txt/internal/testsupport"
	"github.com/alnah/vid2txt/internal/transcribe"
)

var testFormat = audio.Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16}

// writeSilentWAV writes a WAV of the given length into dir.
func writeSilentWAV(t *testing.T, dir string, length time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, "audio.wav")
	testsupport.WriteFile(t, path, testsupport.SilentWAV(length))
	return path
}

// openClip returns a clip covering the first window of a fresh WAV.
func openClip(t *testing.T, length time.Duration) audio.Clip {
	t.Helper()
	w, err := audio.OpenWAV(writeSilentWAV(t, t.TempDir(), length))
	if err != nil {
		t.Fatalf("OpenWAV() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	clip, err := w.Clip(audio.Window{Index: 3, Start: 0, End: length})
	if err != nil {
		t.Fatalf("Clip() unexpected error: %v", err)
	}
	return clip
}

// mockRecognizer records every window it is asked to recognize.
type mockRecognizer struct {
	mu      sync.Mutex
	windows []audio.Window
	langs   []lang.Language

	RecognizeFunc func(ctx context.Context, clip audio.Clip, language lang.Language) (string, error)
}

var _ transcribe.Recognizer = (*mockRecognizer)(nil)

func (m *mockRecognizer) Recognize(ctx context.Context, clip audio.Clip, language lang.Language) (string, error) {
	m.mu.Lock()
	m.windows = append(m.windows, clip.Window)
	m.langs = append(m.langs, language)
	m.mu.Unlock()
	if m.RecognizeFunc != nil {
		return m.RecognizeFunc(ctx, clip, language)
	}
	return "", transcribe.ErrNoSpeech
}

func (m *mockRecognizer) calls() []audio.Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audio.Window(nil), m.windows...)
}

// scriptedRecognizer answers by window index.
func scriptedRecognizer(answers map[int]string, failures map[int]error) *mockRecognizer {
	return &mockRecognizer{
		RecognizeFunc: func(_ context.Context, clip audio.Clip, _ lang.Language) (string, error) {
			if err, ok := failures[clip.Window.Index]; ok {
				return "", err
			}
			if text, ok := answers[clip.Window.Index]; ok {
				return text, nil
			}
			return "", transcribe.ErrNoSpeech
		},
	}
}

// recordingProgress counts progress updates.
type recordingProgress struct {
	mu       sync.Mutex
	total    int
	steps    []transcribe.Outcome
	finished bool
}

func (p *recordingProgress) factory(total int, _ string) transcribe.Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	return p
}

func (p *recordingProgress) Step(r transcribe.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, r.Outcome)
}

func (p *recordingProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = true
}
