package audio

import "errors"

// ErrExtractionFailed indicates FFmpeg could not produce the audio track
// (missing audio stream, corrupt or unsupported container).
var ErrExtractionFailed = errors.New("audio extraction failed")

// ErrInvalidWAV indicates the extracted file is not a PCM WAV file this
// package can slice.
var ErrInvalidWAV = errors.New("invalid wav file")

// ErrWindowOutOfRange indicates a window that does not lie inside the audio.
var ErrWindowOutOfRange = errors.New("window out of range")
