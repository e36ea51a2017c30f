package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/vid2txt/internal/batch"
	"github.com/alnah/vid2txt/internal/format"
	"github.com/alnah/vid2txt/internal/logging"
	"github.com/alnah/vid2txt/internal/preflight"
	"github.com/alnah/vid2txt/internal/progress"
	"github.com/alnah/vid2txt/internal/transcribe"
)

// RunCmd creates the run command.
// The env parameter provides injectable dependencies for testing.
func RunCmd(env *Env) *cobra.Command {
	var (
		f       runFlags
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transcribe every video of the input directory",
		Long: `Transcribe every video of the input directory into the output directory.

For each video, the audio track is extracted with ffmpeg to a temporary
16 kHz mono WAV file, recognized in fixed windows (30s by default) one at a
time, and written as <name>.txt with one recognized segment per line.
Windows with no speech or a failed request are logged and skipped.

Values come from flags, then the config file, then VID2TXT_* environment
variables, then defaults. The API key is read from OPENAI_API_KEY or
GOOGLE_SPEECH_API_KEY depending on --provider; a .env file is honored.

Press Ctrl+C once to stop after the current window and keep the partial
transcript, twice within 2 seconds to abort.`,
		Example: `  vid2txt run
  vid2txt run -i ~/Videos -o ~/Transcripts -l en-US
  vid2txt run --provider google -l zh-CN
  vid2txt run -l en --model whisper-1 --prompt "PostgreSQL, Kubernetes"
  vid2txt run --ext mp4,mkv,mov --window 20s --keep-going`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.changed = cmd.Flags().Changed
			return runRun(cmd.Context(), env, f, logFile)
		},
	}

	cmd.Flags().StringVarP(&f.inputDir, "input", "i", DefaultInputDir, "Directory holding the videos")
	cmd.Flags().StringVarP(&f.outputDir, "output", "o", DefaultOutputDir, "Directory receiving the transcripts")
	cmd.Flags().StringVarP(&f.language, "language", "l", "zh-CN", "Spoken language (BCP 47 tag, e.g. zh-CN, en-US, fr)")
	cmd.Flags().StringVar(&f.provider, "provider", ProviderOpenAI, "Recognition provider: openai, google")
	cmd.Flags().StringSliceVar(&f.extensions, "ext", []string{"mp4"}, "Video extensions to process")
	cmd.Flags().StringVar(&f.window, "window", "30s", "Recognition window length")
	cmd.Flags().StringVar(&f.model, "model", "", "OpenAI transcription model (default gpt-4o-mini-transcribe)")
	cmd.Flags().StringVar(&f.prompt, "prompt", "", "OpenAI context prompt sent with every window (names, vocabulary)")
	cmd.Flags().BoolVar(&f.keepGoing, "keep-going", false, "Record failed videos and continue with the next one")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&f.logFormat, "log-format", logging.FormatConsole, "Log format: console, json")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Also append logs to this file")

	return cmd
}

// runRun executes the batch.
// Order: options -> logger -> preflight (ffmpeg, API key) -> batch -> summary.
// Nothing touches the input or output directory before preflight passes.
func runRun(ctx context.Context, env *Env, f runFlags, logFile string) error {
	// === OPTIONS ===

	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}

	opts, err := resolveRunOptions(f, cfg)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:  opts.LogLevel,
		Format: opts.LogFormat,
		Writer: env.Stderr,
		File:   logFile,
	})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	// === PREFLIGHT ===

	var deps dependencies
	results := preflight.RunAll(ctx, requiredChecks(env, opts, &deps))
	if err := preflight.Required(results); err != nil {
		return err
	}
	env.FFmpegResolver.CheckVersion(ctx, deps.ffmpegPath)

	// === SETUP ===

	extractor, err := env.ExtractorFactory.NewExtractor(deps.ffmpegPath)
	if err != nil {
		return err
	}
	recognizer := env.RecognizerFactory.NewRecognizer(RecognizerConfig{
		Provider: opts.Provider,
		APIKey:   deps.apiKey,
		Model:    opts.Model,
		Prompt:   opts.Prompt,
	})
	transcriber := transcribe.NewChunkedTranscriber(recognizer,
		transcribe.WithWindowSize(opts.Window),
		transcribe.WithLogger(logger),
		transcribe.WithProgress(progress.Factory(env.Stderr)),
		transcribe.WithPartialDecision(env.PartialDecision),
	)
	runner := batch.NewRunner(extractor, transcriber,
		batch.WithLogger(logger),
		batch.WithStderr(env.Stderr),
		batch.WithAbortCleanup(env.AbortCleanup),
	)

	logger.Debug("run options",
		"input", opts.InputDir,
		"output", opts.OutputDir,
		"language", opts.Language.String(),
		"provider", opts.Provider.String(),
		"extensions", opts.Extensions,
		"window", format.Duration(opts.Window),
		"model", opts.Model,
		"ffmpeg", deps.ffmpegPath)
	fmt.Fprintf(env.Stderr, "Language: %s (%s), provider: %s\n",
		opts.Language, opts.Language.DisplayName(), opts.Provider)

	// === BATCH ===

	summary, err := runner.Run(ctx, batch.Options{
		InputDir:        opts.InputDir,
		OutputDir:       opts.OutputDir,
		Extensions:      opts.Extensions,
		Language:        opts.Language,
		ContinueOnError: opts.KeepGoing,
	})
	if errors.Is(err, batch.ErrInputDirMissing) {
		fmt.Fprintf(env.Stderr, "Input directory %s does not exist\n", opts.InputDir)
		return nil
	}

	writeSummary(env.Stdout, summary)
	if err != nil {
		return err
	}
	if n := summary.Failed(); n > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFilesFailed, n, len(summary.Files))
	}
	if len(summary.Files) > 0 {
		fmt.Fprintln(env.Stderr, "\nAll files processed.")
	}
	return nil
}

// Compile-time check that the transcriber satisfies the batch dependency.
var _ batch.Transcriber = (*transcribe.ChunkedTranscriber)(nil)
