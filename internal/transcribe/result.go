package transcribe

import (
	"strings"
	"time"

	"github.com/alnah/vid2txt/internal/audio"
)

// Outcome tags what happened to one window.
type Outcome int

const (
	// OutcomeText means the window produced a non-empty segment.
	OutcomeText Outcome = iota
	// OutcomeMiss means the service heard no speech in the window.
	OutcomeMiss
	// OutcomeServiceError means the request for the window failed.
	OutcomeServiceError
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeText:
		return "text"
	case OutcomeMiss:
		return "miss"
	case OutcomeServiceError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the recognition outcome of one window.
// Text is set only for OutcomeText, Err only for OutcomeServiceError.
type Result struct {
	Window  audio.Window
	Outcome Outcome
	Text    string
	Err     error
}

// Report counts window outcomes for one audio file.
type Report struct {
	Duration   time.Duration // Length of the audio track.
	Windows    int           // Windows planned.
	Recognized int
	Missed     int
	Failed     int
	Partial    bool // Set when an interrupted run wrote the segments so far.
}

// Processed returns how many windows were submitted.
func (r Report) Processed() int {
	return r.Recognized + r.Missed + r.Failed
}

func (r *Report) add(res Result) {
	switch res.Outcome {
	case OutcomeText:
		r.Recognized++
	case OutcomeMiss:
		r.Missed++
	case OutcomeServiceError:
		r.Failed++
	}
}

// Assemble joins the text of every OutcomeText result, in order, with "\n".
// Segments are trimmed; line breaks inside a segment become single spaces
// so each window stays on one line. Other spacing is kept. The output has
// no blank lines and no trailing newline.
func Assemble(results []Result) string {
	segments := make([]string, 0, len(results))
	for _, r := range results {
		if r.Outcome != OutcomeText {
			continue
		}
		if text := segmentText(r.Text); text != "" {
			segments = append(segments, text)
		}
	}
	return strings.Join(segments, "\n")
}

func segmentText(s string) string {
	lines := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, " ")
}
