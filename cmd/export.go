package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/icco/beatgrid/internal/config"
	"github.com/icco/beatgrid/internal/midi"
	"github.com/icco/beatgrid/internal/sequencer"
)

var (
	exportOut   string
	importOut   string
	importSteps int
)

var exportCmd = &cobra.Command{
	Use:   "export <pattern.yaml>",
	Short: "Write a pattern as a Standard MIDI File",
	Long: `Write a pattern as a Standard MIDI File with one track per pattern
track on the General MIDI drum channel.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file.mid>",
	Short: "Convert a Standard MIDI File into a pattern",
	Long: `Read note-ons from every track of a Standard MIDI File and write a
pattern file. Sample paths are left for you to fill in.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path (default: pattern path with .mid)")
	importCmd.Flags().StringVarP(&importOut, "out", "o", "", "Output path (default: MIDI path with .yaml)")
	importCmd.Flags().IntVar(&importSteps, "steps", cfg.Steps, "Steps per pattern")
	rootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	p, err := config.LoadPattern(args[0])
	if err != nil {
		return err
	}
	out := exportOut
	if out == "" {
		out = strings.TrimSuffix(args[0], ".yaml") + ".mid"
	}
	if err := midi.WriteFile(out, p, sequencer.DefaultStepsPerBeat); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%s)\n", out, describePattern(p))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	p, err := midi.ReadFile(args[0], importSteps, sequencer.DefaultStepsPerBeat)
	if err != nil {
		return err
	}
	out := importOut
	if out == "" {
		out = strings.TrimSuffix(args[0], ".mid") + ".yaml"
	}
	if err := p.Save(out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%s)\n", out, describePattern(p))
	return nil
}
