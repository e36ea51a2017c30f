// Package config reads and writes the vid2txt TOML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config keys, as accepted by Get and Save.
const (
	KeyLanguage   = "language"
	KeyInputDir   = "input-dir"
	KeyOutputDir  = "output-dir"
	KeyProvider   = "provider"
	KeyExtensions = "extensions"
	KeyWindow     = "window"
	KeyModel      = "model"
	KeyPrompt     = "prompt"
	KeyLogLevel   = "log-level"
	KeyLogFormat  = "log-format"
	KeyFFmpegPath = "ffmpeg-path"
)

// EnvPrefix prefixes the environment variable fallback of every key.
// The variable name is the key upper-cased with dashes turned into
// underscores: output-dir reads VID2TXT_OUTPUT_DIR.
const EnvPrefix = "VID2TXT_"

// fileName is the config file name inside the config directory.
const fileName = "config.toml"

// Config holds user configuration. Empty fields mean "not set".
type Config struct {
	Language   string   `toml:"language,omitempty"`
	InputDir   string   `toml:"input_dir,omitempty"`
	OutputDir  string   `toml:"output_dir,omitempty"`
	Provider   string   `toml:"provider,omitempty"`
	Extensions []string `toml:"extensions,omitempty"`
	Window     string   `toml:"window,omitempty"`
	Model      string   `toml:"model,omitempty"`
	Prompt     string   `toml:"prompt,omitempty"`
	LogLevel   string   `toml:"log_level,omitempty"`
	LogFormat  string   `toml:"log_format,omitempty"`
	FFmpegPath string   `toml:"ffmpeg_path,omitempty"`
}

// field binds a key to its Config field.
type field struct {
	key string
	get func(*Config) string
	set func(*Config, string)
}

// fields lists every key in display order.
var fields = []field{
	{KeyLanguage, func(c *Config) string { return c.Language }, func(c *Config, v string) { c.Language = v }},
	{KeyInputDir, func(c *Config) string { return c.InputDir }, func(c *Config, v string) { c.InputDir = v }},
	{KeyOutputDir, func(c *Config) string { return c.OutputDir }, func(c *Config, v string) { c.OutputDir = v }},
	{KeyProvider, func(c *Config) string { return c.Provider }, func(c *Config, v string) { c.Provider = v }},
	{KeyExtensions, func(c *Config) string { return strings.Join(c.Extensions, ",") }, func(c *Config, v string) { c.Extensions = SplitList(v) }},
	{KeyWindow, func(c *Config) string { return c.Window }, func(c *Config, v string) { c.Window = v }},
	{KeyModel, func(c *Config) string { return c.Model }, func(c *Config, v string) { c.Model = v }},
	{KeyPrompt, func(c *Config) string { return c.Prompt }, func(c *Config, v string) { c.Prompt = v }},
	{KeyLogLevel, func(c *Config) string { return c.LogLevel }, func(c *Config, v string) { c.LogLevel = v }},
	{KeyLogFormat, func(c *Config) string { return c.LogFormat }, func(c *Config, v string) { c.LogFormat = v }},
	{KeyFFmpegPath, func(c *Config) string { return c.FFmpegPath }, func(c *Config, v string) { c.FFmpegPath = v }},
}

func lookup(key string) (field, error) {
	for _, f := range fields {
		if f.key == key {
			return f, nil
		}
	}
	return field{}, fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
}

// Keys returns every config key in display order.
func Keys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	return keys
}

// EnvName returns the environment variable consulted for key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Value returns the value of key in c, lists joined with commas.
func (c Config) Value(key string) (string, error) {
	f, err := lookup(key)
	if err != nil {
		return "", err
	}
	return f.get(&c), nil
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/vid2txt.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vid2txt"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "vid2txt"), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, fileName), nil
}

// Load reads the configuration file, then fills every unset key from its
// VID2TXT_* environment variable. A missing file is not an error.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Config{}, err
	}

	cfg, err := readFile(p)
	if err != nil {
		return Config{}, err
	}

	for _, f := range fields {
		if f.get(&cfg) != "" {
			continue
		}
		if v := os.Getenv(EnvName(f.key)); v != "" {
			f.set(&cfg, v)
		}
	}
	return cfg, nil
}

// readFile decodes p. Unknown fields are rejected so typos surface.
func readFile(p string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			unknown := make([]string, 0, len(strict.Errors))
			for i := range strict.Errors {
				unknown = append(unknown, strings.Join(strict.Errors[i].Key(), "."))
			}
			return cfg, fmt.Errorf("%w: %s: unknown fields %s", ErrInvalidFile, p, strings.Join(unknown, ", "))
		}
		return cfg, fmt.Errorf("%w: %s: %w", ErrInvalidFile, p, err)
	}
	return cfg, nil
}

// Save sets key to value in the config file, creating the file and its
// directory when needed. Other keys are preserved. An empty value unsets
// the key.
func Save(key, value string) error {
	f, err := lookup(key)
	if err != nil {
		return err
	}

	p, err := Path()
	if err != nil {
		return err
	}

	cfg, err := readFile(p)
	if err != nil {
		return err
	}
	f.set(&cfg, strings.TrimSpace(value))

	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	return writeFile(p, cfg)
}

// writeFile encodes cfg to a temporary file and renames it over p.
func writeFile(p string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmpPath, p); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Get reads a single value from the config file, ignoring the environment.
// Returns an empty string if the key is not set.
func Get(key string) (string, error) {
	f, err := lookup(key)
	if err != nil {
		return "", err
	}

	p, err := Path()
	if err != nil {
		return "", err
	}
	cfg, err := readFile(p)
	if err != nil {
		return "", err
	}
	return f.get(&cfg), nil
}

// Entry is one key and its value from the config file.
type Entry struct {
	Key   string
	Value string
}

// List returns the keys set in the config file, in display order.
func List() ([]Entry, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	cfg, err := readFile(p)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, f := range fields {
		if v := f.get(&cfg); v != "" {
			entries = append(entries, Entry{Key: f.key, Value: v})
		}
	}
	return entries, nil
}

// SplitList splits a comma-separated value, dropping blank items.
func SplitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
