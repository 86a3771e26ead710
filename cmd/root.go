package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/icco/beatgrid/internal/config"
)

var (
	cfg    = config.Load()
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "beatgrid",
	Short: "A sample-based step sequencer",
	Long: `beatgrid is a step sequencer that plays audio samples on a looping grid.

Patterns are YAML files listing tracks, their samples and which steps are
active. Patterns can be played headless, edited in a terminal UI, and exported
to Standard MIDI Files. Samples can be compressed into a local store.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = newLogger(os.Stderr)
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level()}))
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
