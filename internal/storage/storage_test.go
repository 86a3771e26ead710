package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io/fs"
	"testing"

	"github.com/go-audio/audio"

	"github.com/icco/beatgrid/internal/buffer"
	"github.com/icco/beatgrid/internal/encode"
	"github.com/icco/beatgrid/internal/sample"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"audio/wav", "wav"},
		{"", "wav"},
		{"application/octet-stream", "wav"},
		{"audio/webm;codecs=opus", "webm"},
		{"audio/mp3", "mp3"},
		{"audio/mpeg", "mp3"},
		{"audio/x-m4a", "m4a"},
		{"audio/mp4", "m4a"},
		{"audio/ogg", "ogg"},
		{"AUDIO/OGG", "ogg"},
	}
	for _, tt := range tests {
		if got := Extension(tt.mime); got != tt.want {
			t.Errorf("Extension(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}

func TestKey(t *testing.T) {
	if got := Key("user-1", "s42", "audio/webm"); got != "user-1/s42.webm" {
		t.Errorf("Key = %q, want user-1/s42.webm", got)
	}
	if got := Key("user-1", "s42", WAVType); got != "user-1/s42.wav" {
		t.Errorf("Key = %q, want user-1/s42.wav", got)
	}
}

func TestPrepareEncodes(t *testing.T) {
	dec := buffer.DecoderFunc(func(ctx context.Context, p sample.Payload) (*audio.Float32Buffer, error) {
		return &audio.Float32Buffer{
			Format: &audio.Format{NumChannels: 1, SampleRate: 16000},
			Data:   []float32{0, 0.25, -0.25},
		}, nil
	})
	got := Prepare(context.Background(), sample.Payload{Data: []byte("raw"), MIMEType: "audio/webm"}, dec, encode.New(16000), nil)
	if got.MIMEType != WAVType {
		t.Errorf("MIMEType = %q, want %q", got.MIMEType, WAVType)
	}
	if len(got.Data) != encode.HeaderSize+6 {
		t.Errorf("len = %d, want %d", len(got.Data), encode.HeaderSize+6)
	}
	if rate := binary.LittleEndian.Uint32(got.Data[24:]); rate != 16000 {
		t.Errorf("rate = %d, want 16000", rate)
	}
}

func TestPrepareFallsBackToOriginal(t *testing.T) {
	dec := buffer.DecoderFunc(func(ctx context.Context, p sample.Payload) (*audio.Float32Buffer, error) {
		return nil, sample.ErrUnsupportedFormat
	})
	orig := sample.Payload{Data: []byte{1, 2, 3}, MIMEType: "audio/ogg"}
	got := Prepare(context.Background(), orig, dec, encode.New(16000), nil)
	if got.MIMEType != orig.MIMEType || !bytes.Equal(got.Data, orig.Data) {
		t.Errorf("Prepare = %+v, want original payload %+v", got, orig)
	}
}

func TestDirStore(t *testing.T) {
	s := NewDirStore(t.TempDir())
	ctx := context.Background()
	key := Key("owner", "kick", WAVType)

	if err := s.Put(ctx, key, []byte("wav-bytes")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "wav-bytes" {
		t.Errorf("Get = %q, want wav-bytes", got)
	}

	if _, err := s.Get("owner/missing.wav"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Get missing = %v, want fs.ErrNotExist", err)
	}
	for _, bad := range []string{"", "../escape.wav", "/abs.wav", ".."} {
		if err := s.Put(ctx, bad, nil); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Put(%q) = %v, want ErrInvalidKey", bad, err)
		}
	}
}
