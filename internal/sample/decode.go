package sample

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// mp3 decoder output is always 16-bit little-endian stereo
const (
	mp3Channels  = 2
	mp3FrameSize = 4
	mp3ReadChunk = 64 * 1024
)

// Decoder turns encoded payloads into float32 buffers normalized to [-1, 1].
// WAV (integer PCM) and MP3 are supported; other containers report
// ErrUnsupportedFormat.
type Decoder struct{}

// NewDecoder creates a payload decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes p. The context is checked between chunks so a superseded
// decode can be abandoned early.
func (d *Decoder) Decode(ctx context.Context, p Payload) (*audio.Float32Buffer, error) {
	if p.Empty() {
		return nil, &DecodeError{MIMEType: p.MIMEType, Cause: ErrEmptyPayload}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mime := strings.ToLower(p.MIMEType)
	if mime == "" {
		mime = Sniff(p.Data)
	}

	var (
		buf *audio.Float32Buffer
		err error
	)
	switch {
	case strings.Contains(mime, "wav") || strings.Contains(mime, "wave"):
		buf, err = decodeWAV(p.Data)
	case strings.Contains(mime, "mpeg") || strings.Contains(mime, "mp3"):
		buf, err = decodeMP3(ctx, p.Data)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &DecodeError{MIMEType: p.MIMEType, Cause: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return buf, nil
}

func decodeWAV(data []byte) (*audio.Float32Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, ErrCorruptedPayload
	}
	// IEEE float and compressed WAV variants are not handled by the decoder
	if dec.WavAudioFormat != 1 {
		return nil, ErrUnsupportedFormat
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Join(ErrCorruptedPayload, err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels <= 0 || pcm.Format.SampleRate <= 0 {
		return nil, ErrCorruptedPayload
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 {
		bitDepth = pcm.SourceBitDepth
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, ErrUnsupportedFormat
	}
	out := make([]float32, len(pcm.Data))
	if bitDepth == 8 {
		// 8-bit WAV is unsigned
		for i, v := range pcm.Data {
			out[i] = float32(v-128) / 128
		}
	} else {
		scale := float32(int64(1) << (bitDepth - 1))
		for i, v := range pcm.Data {
			out[i] = float32(v) / scale
		}
	}
	return &audio.Float32Buffer{
		Format: &audio.Format{
			NumChannels: pcm.Format.NumChannels,
			SampleRate:  pcm.Format.SampleRate,
		},
		Data:           out,
		SourceBitDepth: bitDepth,
	}, nil
}

func decodeMP3(ctx context.Context, data []byte) (*audio.Float32Buffer, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Join(ErrCorruptedPayload, err)
	}

	var raw bytes.Buffer
	if n := dec.Length(); n > 0 {
		raw.Grow(int(n))
	}
	chunk := make([]byte, mp3ReadChunk)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := dec.Read(chunk)
		raw.Write(chunk[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Join(ErrCorruptedPayload, err)
		}
	}

	pcm := raw.Bytes()
	pcm = pcm[:len(pcm)-len(pcm)%mp3FrameSize]
	if len(pcm) == 0 {
		return nil, ErrCorruptedPayload
	}
	out := make([]float32, len(pcm)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768
	}
	return &audio.Float32Buffer{
		Format: &audio.Format{
			NumChannels: mp3Channels,
			SampleRate:  dec.SampleRate(),
		},
		Data:           out,
		SourceBitDepth: 16,
	}, nil
}
