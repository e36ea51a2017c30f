// Package progress displays per-window transcription progress: a bar on
// terminals, one status line per window elsewhere (logs, CI, pipes).
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/alnah/vid2txt/internal/transcribe"
)

// Compile-time interface compliance checks.
var (
	_ transcribe.Progress = (*Bar)(nil)
	_ transcribe.Progress = (*Lines)(nil)
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Factory returns a transcribe.ProgressFactory writing to w, choosing the
// bar or the line display once.
func Factory(w io.Writer) transcribe.ProgressFactory {
	if IsTerminal(w) {
		return func(total int, label string) transcribe.Progress { return NewBar(w, total, label) }
	}
	return func(total int, label string) transcribe.Progress { return NewLines(w, total, label) }
}

// ---------------------------------------------------------------------------
// Bar - terminal display
// ---------------------------------------------------------------------------

// Bar renders a progress bar over the windows of one file.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewBar creates a bar of total steps labeled with label.
func NewBar(w io.Writer, total int, label string) *Bar {
	return &Bar{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)}
}

// Step advances the bar by one window.
func (b *Bar) Step(transcribe.Result) {
	_ = b.bar.Add(1)
}

// Finish completes and clears the bar.
func (b *Bar) Finish() {
	_ = b.bar.Finish()
}

// ---------------------------------------------------------------------------
// Lines - plain display
// ---------------------------------------------------------------------------

// Lines writes one status line per window.
type Lines struct {
	mu    sync.Mutex
	w     io.Writer
	label string
	total int
	done  int
}

// NewLines creates a line display of total steps labeled with label.
func NewLines(w io.Writer, total int, label string) *Lines {
	return &Lines{w: w, label: label, total: total}
}

// Step writes "label [n/total] range outcome".
func (l *Lines) Step(r transcribe.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.done++
	fmt.Fprintf(l.w, "%s [%d/%d] %s %s\n", l.label, l.done, l.total, r.Window, r.Outcome)
}

// Finish is a no-op; every line is already complete.
func (l *Lines) Finish() {}
