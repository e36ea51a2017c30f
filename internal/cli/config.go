package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/vid2txt/internal/batch"
	"github.com/alnah/vid2txt/internal/config"
	"github.com/alnah/vid2txt/internal/lang"
	"github.com/alnah/vid2txt/internal/logging"
)

// validLogLevels lists the names accepted for the log-level key.
var validLogLevels = []string{"debug", "info", "warn", "error"}

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in $XDG_CONFIG_HOME/vid2txt/config.toml
(~/.config/vid2txt/config.toml by default). Every key can also be set
with an environment variable, used when the file does not set it:

  language      Spoken language tag          (VID2TXT_LANGUAGE)
  input-dir     Directory holding the videos (VID2TXT_INPUT_DIR)
  output-dir    Transcript directory         (VID2TXT_OUTPUT_DIR)
  provider      openai or google             (VID2TXT_PROVIDER)
  extensions    Comma-separated extensions   (VID2TXT_EXTENSIONS)
  window        Recognition window length    (VID2TXT_WINDOW)
  model         OpenAI transcription model   (VID2TXT_MODEL)
  prompt        OpenAI context prompt        (VID2TXT_PROMPT)
  log-level     debug, info, warn, error     (VID2TXT_LOG_LEVEL)
  log-format    console or json              (VID2TXT_LOG_FORMAT)
  ffmpeg-path   ffmpeg binary                (VID2TXT_FFMPEG_PATH)`,
		Example: `  vid2txt config set language en-US
  vid2txt config set output-dir ~/Transcripts
  vid2txt config get provider
  vid2txt config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value. The value is validated before it is saved.
An empty value ("") removes the key.`,
		Example: `  vid2txt config set window 20s
  vid2txt config set extensions mp4,mkv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value from the config file, or from its environment variable
when the file does not set it. Prints nothing if neither does.`,
		Example: `  vid2txt config get output-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List all configuration values",
		Long:    `List every key with its value and where the value comes from.`,
		Example: `  vid2txt config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	normalized, err := normalizeConfigValue(key, value)
	if err != nil {
		return err
	}

	if err := config.Save(key, normalized); err != nil {
		return err
	}

	if normalized == "" {
		fmt.Fprintf(env.Stderr, "Unset %s\n", key)
		return nil
	}
	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, normalized)
	return nil
}

// normalizeConfigValue validates value for key and returns the form to store.
// Empty values pass through to unset the key.
func normalizeConfigValue(key, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}

	switch key {
	case config.KeyLanguage:
		l, err := lang.Parse(value)
		if err != nil {
			return "", err
		}
		return l.String(), nil

	case config.KeyProvider:
		p, err := ParseProvider(value)
		if err != nil {
			return "", err
		}
		return p.String(), nil

	case config.KeyWindow:
		if _, err := parseWindow(value); err != nil {
			return "", err
		}
		return value, nil

	case config.KeyExtensions:
		return strings.Join(batch.NormalizeExtensions(config.SplitList(value)), ","), nil

	case config.KeyLogLevel:
		level := strings.ToLower(value)
		for _, l := range validLogLevels {
			if level == l {
				return level, nil
			}
		}
		return "", fmt.Errorf("%w: log-level %q (use %s)", ErrInvalidValue, value, strings.Join(validLogLevels, ", "))

	case config.KeyLogFormat:
		f := strings.ToLower(value)
		if f != logging.FormatConsole && f != logging.FormatJSON {
			return "", fmt.Errorf("%w %q (use %s or %s)", logging.ErrUnsupportedFormat, value, logging.FormatConsole, logging.FormatJSON)
		}
		return f, nil

	case config.KeyInputDir, config.KeyOutputDir, config.KeyFFmpegPath:
		return config.ExpandPath(value), nil

	default:
		// Unknown keys are reported by config.Save.
		return value, nil
	}
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	value, err := config.Get(key)
	if err != nil {
		return err
	}

	if value == "" {
		value = env.Getenv(config.EnvName(key))
	}

	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	entries, err := config.List()
	if err != nil {
		return err
	}

	fromFile := make(map[string]string, len(entries))
	for _, e := range entries {
		fromFile[e.Key] = e.Value
	}

	keys := config.Keys()
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		envName := config.EnvName(key)
		switch {
		case fromFile[key] != "":
			rows = append(rows, []string{key, fromFile[key], "file"})
		case env.Getenv(envName) != "":
			rows = append(rows, []string{key, env.Getenv(envName), envName})
		default:
			rows = append(rows, []string{key, "", "unset"})
		}
	}

	fmt.Fprintln(env.Stdout, renderTable([]string{"Key", "Value", "Source"}, rows, nil))
	return nil
}
