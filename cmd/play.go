package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/icco/beatgrid/internal/audio"
	"github.com/icco/beatgrid/internal/sequencer"
)

var playDuration time.Duration

var playCmd = &cobra.Command{
	Use:   "play <pattern.yaml>",
	Short: "Play a pattern through the default audio device",
	Long: `Play a pattern headless until interrupted.

Samples are decoded before playback starts. Use --duration to stop
automatically.

Example:
  beatgrid play beats/house.yaml --duration 30s
`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().DurationVarP(&playDuration, "duration", "d", 0, "Stop after this long (0 plays until interrupted)")
	playCmd.Flags().IntVar(&cfg.OutputRate, "rate", cfg.OutputRate, "Output sample rate in Hz")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	p, err := openPattern(args[0], false)
	if err != nil {
		return err
	}

	out, err := audio.NewOutput(cfg.OutputRate)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	e, _ := loadSession(p, patternDir(args[0]), sequencer.WithPlayer(out))
	defer e.Close()
	e.WaitLoaded()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if playDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, playDuration)
		defer cancel()
	}

	events := e.Watch()
	logger.Info("playing", slog.String("pattern", args[0]), slog.String("summary", describePattern(p)))
	fmt.Fprintf(cmd.OutOrStdout(), "Playing %s (%s). Ctrl+C to stop.\n", args[0], describePattern(p))
	e.Start()

	for {
		select {
		case <-ctx.Done():
			e.Stop()
			logger.Info("stopped")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Kind == sequencer.EventCursor {
				logger.Debug("step", slog.Int("cursor", ev.Cursor))
			}
		}
	}
}
