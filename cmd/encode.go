package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/icco/beatgrid/internal/encode"
	"github.com/icco/beatgrid/internal/sample"
	"github.com/icco/beatgrid/internal/storage"
)

var encodeSampleID string

var encodeCmd = &cobra.Command{
	Use:   "encode <audio-file>",
	Short: "Compress a sample into the local store",
	Long: `Decode an audio file, fold it to mono 16-bit WAV at the target rate and
write it to the store under {owner}/{sample-id}.wav. Files that cannot be
decoded are stored unchanged under their own extension. Prints the key.`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

func init() {
	f := encodeCmd.Flags()
	f.StringVar(&encodeSampleID, "id", "", "Sample id (default: a new UUID)")
	f.StringVar(&cfg.Owner, "owner", cfg.Owner, "Owner the sample is stored under")
	f.StringVar(&cfg.StorageDir, "store", cfg.StorageDir, "Store directory")
	f.IntVar(&cfg.TargetRate, "target-rate", cfg.TargetRate, "Target sample rate in Hz")
	rootCmd.AddCommand(encodeCmd)
}

func runEncode(cmd *cobra.Command, args []string) error {
	key, err := encodeSample(cmd.Context(), args[0], storage.NewDirStore(cfg.StorageDir))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}

func encodeSample(ctx context.Context, path string, store storage.Store) (string, error) {
	p, err := sample.ReadFile(path)
	if err != nil {
		return "", err
	}
	id := encodeSampleID
	if id == "" {
		id = uuid.NewString()
	}

	prepared := storage.Prepare(ctx, p, sample.NewDecoder(), encode.New(cfg.TargetRate), logger)
	key := storage.Key(cfg.Owner, id, prepared.MIMEType)
	if err := store.Put(ctx, key, prepared.Data); err != nil {
		return "", fmt.Errorf("store sample: %w", err)
	}
	logger.Info("sample stored",
		slog.String("key", key),
		slog.Int("bytes", len(prepared.Data)))
	return key, nil
}
