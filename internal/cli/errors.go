package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates the selected provider's API key is not set.
	ErrAPIKeyMissing = errors.New("API key missing")

	// ErrInvalidWindow indicates a window size that is not a positive
	// duration of at least one second.
	ErrInvalidWindow = errors.New("invalid window size")

	// ErrUnsupportedProvider indicates an unknown recognition provider.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrInvalidValue indicates a config value its key does not accept.
	ErrInvalidValue = errors.New("invalid config value")

	// ErrFilesFailed indicates that --keep-going skipped failed videos.
	ErrFilesFailed = errors.New("some videos failed")
)
