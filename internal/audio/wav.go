package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"
)

// WAV format tags accepted in the fmt chunk.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// Format describes interleaved little-endian PCM samples.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// BlockAlign is the size in bytes of one frame (one sample per channel).
func (f Format) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// framesToDuration converts a frame count to a duration without float rounding.
func (f Format) framesToDuration(frames int64) time.Duration {
	return time.Duration(frames * int64(time.Second) / int64(f.SampleRate))
}

// durationToFrames converts a duration to a frame count, rounding down.
func (f Format) durationToFrames(d time.Duration) int64 {
	return int64(d) * int64(f.SampleRate) / int64(time.Second)
}

// WAVFile is an opened PCM WAV file whose data chunk can be read by window.
type WAVFile struct {
	f          *os.File
	format     Format
	dataOffset int64
	dataSize   int64
}

// OpenWAV opens path and parses its RIFF header.
// The caller must Close the returned file.
func OpenWAV(path string) (*WAVFile, error) {
	f, err := os.Open(path) // #nosec G304 -- path is the temp file written by Extract
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat wav: %w", err)
	}

	w, err := parseWAVHeader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	w.f = f
	return w, nil
}

// parseWAVHeader walks the RIFF chunks of r until it finds "fmt " and "data".
// size is the total file size, used to clamp a data chunk that claims more
// bytes than were written (streamed or truncated output).
func parseWAVHeader(r io.ReadSeeker, size int64) (*WAVFile, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("%w: file too small", ErrInvalidWAV)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE file", ErrInvalidWAV)
	}

	w := &WAVFile{}
	var haveFmt bool
	pos := int64(12)
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, fmt.Errorf("%w: missing data chunk", ErrInvalidWAV)
		}
		id := string(hdr[0:4])
		chunkSize := int64(binary.LittleEndian.Uint32(hdr[4:8]))
		pos += 8

		switch id {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too small", ErrInvalidWAV)
			}
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("%w: truncated fmt chunk", ErrInvalidWAV)
			}
			tag := binary.LittleEndian.Uint16(body[0:2])
			if tag != wavFormatPCM && tag != wavFormatExtensible {
				return nil, fmt.Errorf("%w: unsupported format tag %#x", ErrInvalidWAV, tag)
			}
			w.format = Format{
				Channels:      int(binary.LittleEndian.Uint16(body[2:4])),
				SampleRate:    int(binary.LittleEndian.Uint32(body[4:8])),
				BitsPerSample: int(binary.LittleEndian.Uint16(body[14:16])),
			}
			if w.format.SampleRate <= 0 || w.format.BlockAlign() <= 0 {
				return nil, fmt.Errorf("%w: bad fmt chunk", ErrInvalidWAV)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrInvalidWAV)
			}
			w.dataOffset = pos
			w.dataSize = min(chunkSize, size-pos)
			// Drop a trailing partial frame.
			w.dataSize -= w.dataSize % int64(w.format.BlockAlign())
			return w, nil
		default:
			if _, err := r.Seek(chunkSize, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
			}
		}

		pos += chunkSize
		if chunkSize%2 != 0 {
			// Chunks are word aligned.
			if _, err := r.Seek(1, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
			}
			pos++
		}
	}
}

// Format returns the sample format of the data chunk.
func (w *WAVFile) Format() Format { return w.format }

// Duration returns the length of the audio.
func (w *WAVFile) Duration() time.Duration {
	return w.format.framesToDuration(w.dataSize / int64(w.format.BlockAlign()))
}

// Clip returns the samples covered by win. The clip reads from the file
// lazily and is valid until the file is closed.
func (w *WAVFile) Clip(win Window) (Clip, error) {
	if win.Start < 0 || win.End < win.Start || win.Start > w.Duration() {
		return Clip{}, fmt.Errorf("%w: %s", ErrWindowOutOfRange, win)
	}
	align := int64(w.format.BlockAlign())
	startByte := w.format.durationToFrames(win.Start) * align
	endByte := min(w.format.durationToFrames(win.End)*align, w.dataSize)
	return Clip{
		Window: win,
		Format: w.format,
		data:   io.NewSectionReader(w.f, w.dataOffset+startByte, endByte-startByte),
	}, nil
}

// Close releases the underlying file.
func (w *WAVFile) Close() error {
	return w.f.Close()
}

// ---------------------------------------------------------------------------
// Clip - one window of samples
// ---------------------------------------------------------------------------

// Clip is the audio of one window, renderable for each recognizer.
type Clip struct {
	Window Window
	Format Format
	data   *io.SectionReader
}

// Size returns the PCM payload size in bytes.
func (c Clip) Size() int64 {
	if c.data == nil {
		return 0
	}
	return c.data.Size()
}

// WAV returns the clip as a standalone WAV stream.
func (c Clip) WAV() io.Reader {
	var hdr bytes.Buffer
	writeWAVHeader(&hdr, c.Format, c.Size())
	return io.MultiReader(&hdr, c.pcm())
}

// L16 returns the clip as raw signed 16-bit big-endian PCM, the "audio/l16"
// media type. Only 16-bit clips can be rendered this way.
func (c Clip) L16() ([]byte, error) {
	if c.Format.BitsPerSample != 16 {
		return nil, fmt.Errorf("%w: l16 needs 16-bit samples, got %d", ErrInvalidWAV, c.Format.BitsPerSample)
	}
	buf := make([]byte, c.Size())
	if _, err := io.ReadFull(c.pcm(), buf); err != nil {
		return nil, fmt.Errorf("read clip: %w", err)
	}
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i], buf[i+1] = buf[i+1], buf[i]
	}
	return buf, nil
}

// pcm returns a fresh reader over the clip samples so each rendering starts
// at the beginning.
func (c Clip) pcm() io.Reader {
	if c.data == nil {
		return bytes.NewReader(nil)
	}
	return io.NewSectionReader(c.data, 0, c.data.Size())
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// writeWAVHeader writes a RIFF header for a data chunk of dataSize bytes.
// Values are bounded by a single window, far below the 4 GiB RIFF limit.
func writeWAVHeader(buf *bytes.Buffer, f Format, dataSize int64) {
	le := binary.LittleEndian
	buf.WriteString("RIFF")
	_ = binary.Write(buf, le, uint32(36+dataSize)) // #nosec G115
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	fields := []any{
		uint32(16),
		uint16(wavFormatPCM),
		uint16(f.Channels),
		uint32(f.SampleRate),
		uint32(f.SampleRate * f.BlockAlign()),
		uint16(f.BlockAlign()),
		uint16(f.BitsPerSample),
	}
	for _, v := range fields {
		_ = binary.Write(buf, le, v)
	}
	buf.WriteString("data")
	_ = binary.Write(buf, le, uint32(dataSize)) // #nosec G115
}
