package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtensions lists the video extensions processed when none are set.
var DefaultExtensions = []string{".mp4"}

// NormalizeExtensions lowercases extensions, adds the leading dot, and drops
// blanks and duplicates. An empty result falls back to DefaultExtensions.
func NormalizeExtensions(exts []string) []string {
	seen := make(map[string]bool, len(exts))
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || e == "." {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultExtensions...)
	}
	return out
}

// Discover lists the files directly inside dir whose names end in one of
// exts, compared case-insensitively. Subdirectories are not entered.
// Paths are returned in directory order (lexical by file name).
func Discover(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputDirMissing, dir)
		}
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	exts = NormalizeExtensions(exts)
	var videos []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if hasExtension(e.Name(), exts) {
			videos = append(videos, filepath.Join(dir, e.Name()))
		}
	}
	return videos, nil
}

func hasExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// OutputPath returns the transcript path for video: the file name without
// its extension, plus ".txt", inside outputDir.
func OutputPath(outputDir, video string) string {
	name := filepath.Base(video)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		stem = name
	}
	return filepath.Join(outputDir, stem+".txt")
}
