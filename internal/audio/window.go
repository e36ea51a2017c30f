package audio

import (
	"fmt"
	"time"

	"github.com/alnah/vid2txt/internal/format"
)

// DefaultWindowSize is the length of one recognition window.
const DefaultWindowSize = 30 * time.Second

// Window is one fixed-size slice of an audio track. End-Start is its length.
type Window struct {
	Index int           // Zero-based position in the track.
	Start time.Duration // Offset of the first sample.
	End   time.Duration // Offset just past the last sample.
}

// Duration returns the length of this window.
func (w Window) Duration() time.Duration {
	return w.End - w.Start
}

// String returns the window's time range, e.g. "00:30-01:00".
func (w Window) String() string {
	return format.Range(w.Start, w.End)
}

// PlanWindows partitions an audio track of length total into windows of
// length size. Windows start at 0, size, 2*size... while the start is below
// total truncated to whole seconds; each window ends at min(start+size, total).
// A track shorter than one second therefore yields no window.
func PlanWindows(total, size time.Duration) ([]Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %v", size)
	}
	bound := total.Truncate(time.Second)
	if bound <= 0 {
		return nil, nil
	}

	windows := make([]Window, 0, int((bound+size-1)/size))
	for start := time.Duration(0); start < bound; start += size {
		windows = append(windows, Window{
			Index: len(windows),
			Start: start,
			End:   min(start+size, total),
		})
	}
	return windows, nil
}
