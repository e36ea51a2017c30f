package transcribe

import (
	"context"

	"github.com/alnah/vid2txt/internal/audio"
	"github.com/alnah/vid2txt/internal/lang"
)

// Recognizer turns one clip of speech into text.
//
// Implementations return ErrNoSpeech when the service found nothing to
// transcribe, and errors wrapping the apierr sentinels for request failures.
// A single attempt is made per call.
type Recognizer interface {
	Recognize(ctx context.Context, clip audio.Clip, language lang.Language) (string, error)
}

// Compile-time interface compliance checks.
var (
	_ Recognizer = (*OpenAIRecognizer)(nil)
	_ Recognizer = (*GoogleRecognizer)(nil)
)
