// Package storage prepares sample payloads for persistence and writes them
// under owner-scoped keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/icco/beatgrid/internal/buffer"
	"github.com/icco/beatgrid/internal/encode"
	"github.com/icco/beatgrid/internal/sample"
)

// ErrInvalidKey is returned for keys that would escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// WAVType is the MIME type of payloads produced by the encoder.
const WAVType = "audio/wav"

// Store persists encoded sample bytes.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Extension picks a file extension for a MIME type. Anything unrecognised is
// stored as wav.
func Extension(mime string) string {
	mime = strings.ToLower(mime)
	switch {
	case strings.Contains(mime, "webm"):
		return "webm"
	case strings.Contains(mime, "mp3"), strings.Contains(mime, "mpeg"):
		return "mp3"
	case strings.Contains(mime, "m4a"), strings.Contains(mime, "mp4"):
		return "m4a"
	case strings.Contains(mime, "ogg"):
		return "ogg"
	}
	return "wav"
}

// Key derives the storage key {owner}/{sampleID}.{ext}.
func Key(ownerID, sampleID, mime string) string {
	return fmt.Sprintf("%s/%s.%s", ownerID, sampleID, Extension(mime))
}

// Prepare compresses p into a mono WAV when it can be decoded. When decoding
// fails the original payload is returned unchanged; compression is best
// effort and never blocks storing a usable sample.
func Prepare(ctx context.Context, p sample.Payload, dec buffer.Decoder, enc encode.Encoder, logger *slog.Logger) sample.Payload {
	if logger == nil {
		logger = slog.Default()
	}
	buf, err := dec.Decode(ctx, p)
	if err != nil {
		logger.Warn("compression skipped, storing original payload",
			slog.String("mime", p.MIMEType),
			slog.Int("bytes", len(p.Data)),
			slog.Any("error", err))
		return p
	}
	out := enc.Encode(buf)
	logger.Debug("payload compressed",
		slog.Int("from_bytes", len(p.Data)),
		slog.Int("to_bytes", len(out)),
		slog.Int("rate", enc.SampleRate))
	return sample.Payload{Data: out, MIMEType: WAVType}
}

// DirStore is a Store backed by a directory tree.
type DirStore struct {
	root string
}

// NewDirStore creates a store rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{root: dir}
}

// Root returns the directory the store writes into.
func (s *DirStore) Root() string {
	return s.root
}

// Path resolves key to a file path inside the store.
func (s *DirStore) Path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, clean), nil
}

// Put writes data under key, creating parent directories as needed.
func (s *DirStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Get reads the bytes stored under key.
func (s *DirStore) Get(key string) ([]byte, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, fs.ErrNotExist)
	}
	return data, err
}
