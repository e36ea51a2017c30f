package transcribe

import "errors"

// ErrNoSpeech indicates the service returned no hypothesis for a window
// (silence, music, unintelligible speech). It is recoverable: the window is
// skipped and transcription continues.
var ErrNoSpeech = errors.New("no speech recognized")
