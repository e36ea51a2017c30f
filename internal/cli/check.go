package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alnah/vid2txt/internal/batch"
	"github.com/alnah/vid2txt/internal/preflight"
)

// Check names, as shown in the check table.
const (
	checkFFmpeg   = "ffmpeg"
	checkAPIKey   = "api key"
	checkInputDir = "input directory"
)

// dependencies collects what the required checks resolved.
// Each check writes only its own field.
type dependencies struct {
	ffmpegPath string
	apiKey     string
}

// requiredChecks builds the checks that block a run: the ffmpeg binary and
// the provider's API key.
func requiredChecks(env *Env, opts runOptions, deps *dependencies) []preflight.Check {
	return []preflight.Check{
		{
			Name:     checkFFmpeg,
			Required: true,
			Run: func(ctx context.Context) (string, error) {
				path, err := env.FFmpegResolver.Resolve(ctx, opts.FFmpegPath)
				if err != nil {
					return "", err
				}
				deps.ffmpegPath = path
				if v := env.FFmpegResolver.Version(ctx, path); v != "" {
					return fmt.Sprintf("%s (%s)", path, v), nil
				}
				return path, nil
			},
		},
		{
			Name:     checkAPIKey,
			Required: true,
			Run: func(context.Context) (string, error) {
				key, err := opts.Provider.APIKey(env.Getenv)
				if err != nil {
					return "", err
				}
				deps.apiKey = key
				return fmt.Sprintf("%s set (provider %s)", opts.Provider.APIKeyEnv(), opts.Provider), nil
			},
		},
	}
}

// inputDirCheck reports how many videos the input directory holds.
// It never blocks: a missing directory only ends the run early.
func inputDirCheck(opts runOptions) preflight.Check {
	return preflight.Check{
		Name: checkInputDir,
		Run: func(context.Context) (string, error) {
			if _, err := os.Stat(opts.InputDir); err != nil {
				return "", fmt.Errorf("%s: %w", opts.InputDir, err)
			}
			videos, err := batch.Discover(opts.InputDir, opts.Extensions)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s (%d video file(s))", opts.InputDir, len(videos)), nil
		},
	}
}

// CheckCmd creates the check command.
// The env parameter provides injectable dependencies for testing.
func CheckCmd(env *Env) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify ffmpeg, API key and input directory",
		Long: `Verify that everything a run needs is available.

Resolves the ffmpeg binary (FFMPEG_PATH, ffmpeg-path config key, then PATH),
checks that the selected provider's API key is set, and counts the videos
in the input directory. Exits with code 3 if a required check fails.`,
		Example: `  vid2txt check
  vid2txt check --provider google -i ~/Videos`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.changed = cmd.Flags().Changed
			return runCheck(cmd.Context(), env, f)
		},
	}

	cmd.Flags().StringVarP(&f.inputDir, "input", "i", DefaultInputDir, "Directory holding the videos")
	cmd.Flags().StringVar(&f.provider, "provider", ProviderOpenAI, "Recognition provider: openai, google")
	cmd.Flags().StringSliceVar(&f.extensions, "ext", nil, "Video extensions to count (default mp4)")

	return cmd
}

// runCheck runs every check and prints the table to stdout.
func runCheck(ctx context.Context, env *Env, f runFlags) error {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}

	opts, err := resolveRunOptions(f, cfg)
	if err != nil {
		return err
	}

	var deps dependencies
	checks := append(requiredChecks(env, opts, &deps), inputDirCheck(opts))
	results := preflight.RunAll(ctx, checks)

	writeChecks(env.Stdout, results)
	return preflight.Required(results)
}
