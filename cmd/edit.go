package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/icco/beatgrid/internal/audio"
	"github.com/icco/beatgrid/internal/sequencer"
	"github.com/icco/beatgrid/internal/tui"
)

var (
	editMIDIPath string
	editLogFile  string
	editMute     bool
)

var editCmd = &cobra.Command{
	Use:   "edit <pattern.yaml>",
	Short: "Edit a pattern in the interactive grid editor",
	Long: `Open a pattern in the terminal grid editor.

A missing pattern file starts an empty grid; press w to save it. The grid
plays through the default audio device unless --mute is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editMIDIPath, "midi", "", "Where e exports a MIDI file (default: pattern path with .mid)")
	editCmd.Flags().StringVar(&editLogFile, "log-file", "", "Write logs to this file while the editor is open")
	editCmd.Flags().BoolVar(&editMute, "mute", false, "Edit without audio output")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	// The editor owns the terminal, so logs go to a file or nowhere.
	var w io.Writer = io.Discard
	if editLogFile != "" {
		f, err := os.OpenFile(editLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // user supplied log path
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	logger = newLogger(w)
	slog.SetDefault(logger)

	path := args[0]
	p, err := openPattern(path, true)
	if err != nil {
		return err
	}

	var opts []sequencer.Option
	if !editMute {
		out, err := audio.NewOutput(cfg.OutputRate)
		if err != nil {
			logger.Warn("audio unavailable, editing muted", slog.Any("error", err))
		} else {
			defer func() { _ = out.Close() }()
			opts = append(opts, sequencer.WithPlayer(out))
		}
	}

	e, sources := loadSession(p, patternDir(path), opts...)
	defer e.Close()

	midiPath := editMIDIPath
	if midiPath == "" {
		midiPath = strings.TrimSuffix(path, ".yaml") + ".mid"
	}
	m := tui.New(e, tui.Options{
		PatternPath:  path,
		MIDIPath:     midiPath,
		StepsPerBeat: sequencer.DefaultStepsPerBeat,
		Sources:      sources,
	})

	prog := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
