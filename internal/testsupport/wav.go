// Package testsupport holds fixtures shared by package tests.
package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Speech format produced by the extractor: 16 kHz mono signed 16-bit.
const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
)

// WAV returns a canonical 44-byte-header PCM WAV holding pcm.
// Sizes are test-sized; the integer conversions cannot overflow.
func WAV(sampleRate, channels, bitsPerSample int, pcm []byte) []byte {
	blockAlign := channels * bitsPerSample / 8
	le := binary.LittleEndian

	b := make([]byte, 0, 44+len(pcm))
	b = append(b, "RIFF"...)
	b = le.AppendUint32(b, uint32(36+len(pcm)))
	b = append(b, "WAVEfmt "...)
	b = le.AppendUint32(b, 16)
	b = le.AppendUint16(b, 1)
	b = le.AppendUint16(b, uint16(channels))
	b = le.AppendUint32(b, uint32(sampleRate))
	b = le.AppendUint32(b, uint32(sampleRate*blockAlign))
	b = le.AppendUint16(b, uint16(blockAlign))
	b = le.AppendUint16(b, uint16(bitsPerSample))
	b = append(b, "data"...)
	b = le.AppendUint32(b, uint32(len(pcm)))
	return append(b, pcm...)
}

// SilentWAV returns length of silence in the speech format.
func SilentWAV(length time.Duration) []byte {
	frames := int64(length) * SampleRate / int64(time.Second)
	return WAV(SampleRate, Channels, BitsPerSample, make([]byte, frames*2))
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
