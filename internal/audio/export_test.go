package audio

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// ExtractArgs exports extractArgs for testing.
var ExtractArgs = extractArgs

// FFmpegRunner exports ffmpegRunner interface for testing.
type FFmpegRunner = ffmpegRunner
