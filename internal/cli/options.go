package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/vid2txt/internal/audio"
	"github.com/alnah/vid2txt/internal/batch"
	"github.com/alnah/vid2txt/internal/config"
	"github.com/alnah/vid2txt/internal/lang"
)

// Defaults for values set by neither flag, config file nor environment.
const (
	DefaultInputDir  = "input"
	DefaultOutputDir = "output"
)

// minWindow is the shortest accepted window.
const minWindow = time.Second

// runFlags holds raw flag values. changed reports whether the user set a
// flag explicitly; unset flags give way to the config file.
type runFlags struct {
	inputDir   string
	outputDir  string
	language   string
	provider   string
	extensions []string
	window     string
	model      string
	prompt     string
	keepGoing  bool
	logLevel   string
	logFormat  string

	changed func(name string) bool
}

// runOptions is the validated outcome of flags, config and defaults.
type runOptions struct {
	InputDir   string
	OutputDir  string
	Language   lang.Language
	Provider   Provider
	Extensions []string
	Window     time.Duration
	Model      string
	Prompt     string
	KeepGoing  bool
	LogLevel   string
	LogFormat  string
	FFmpegPath string
}

// pick applies flag > config > default. cfg already carries the
// VID2TXT_* environment fallbacks.
func pick(changed bool, flagVal, cfgVal, def string) string {
	if changed {
		return flagVal
	}
	if cfgVal != "" {
		return cfgVal
	}
	return def
}

// resolveRunOptions merges flags with cfg and validates the result.
// Validation errors wrap lang.ErrInvalid, ErrInvalidWindow or
// ErrUnsupportedProvider.
func resolveRunOptions(f runFlags, cfg config.Config) (runOptions, error) {
	changed := f.changed
	if changed == nil {
		changed = func(string) bool { return false }
	}

	opts := runOptions{
		InputDir:   config.ExpandPath(pick(changed("input"), f.inputDir, cfg.InputDir, DefaultInputDir)),
		OutputDir:  config.ExpandPath(pick(changed("output"), f.outputDir, cfg.OutputDir, DefaultOutputDir)),
		Model:      pick(changed("model"), f.model, cfg.Model, ""),
		Prompt:     pick(changed("prompt"), f.prompt, cfg.Prompt, ""),
		KeepGoing:  f.keepGoing,
		LogLevel:   pick(changed("log-level"), f.logLevel, cfg.LogLevel, "info"),
		LogFormat:  pick(changed("log-format"), f.logFormat, cfg.LogFormat, "console"),
		FFmpegPath: cfg.FFmpegPath,
	}

	language, err := lang.Parse(pick(changed("language"), f.language, cfg.Language, ""))
	if err != nil {
		return runOptions{}, err
	}
	opts.Language = language.OrDefault()

	provider, err := ParseProvider(pick(changed("provider"), f.provider, cfg.Provider, ""))
	if err != nil {
		return runOptions{}, err
	}
	opts.Provider = provider.OrDefault()

	if opts.Provider == OpenAIProvider && !opts.Language.HasTwoLetterCode() {
		return runOptions{}, fmt.Errorf("language %q has no two-letter code, which the openai provider requires (use --provider google): %w",
			opts.Language, lang.ErrInvalid)
	}

	window, err := parseWindow(pick(changed("window"), f.window, cfg.Window, ""))
	if err != nil {
		return runOptions{}, err
	}
	opts.Window = window

	exts := cfg.Extensions
	if changed("ext") {
		exts = f.extensions
	}
	opts.Extensions = batch.NormalizeExtensions(exts)

	return opts, nil
}

// parseWindow accepts a Go duration ("30s", "1m") or a bare number of
// seconds ("30"). Empty means audio.DefaultWindowSize.
func parseWindow(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return audio.DefaultWindowSize, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		secs, convErr := strconv.Atoi(s)
		if convErr != nil {
			return 0, fmt.Errorf("%w %q (use a duration such as 30s or 1m)", ErrInvalidWindow, s)
		}
		d = time.Duration(secs) * time.Second
	}
	if d < minWindow {
		return 0, fmt.Errorf("%w %q (minimum %s)", ErrInvalidWindow, s, minWindow)
	}
	return d, nil
}
