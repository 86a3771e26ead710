// Package encode renders decoded audio into a compact mono 16-bit WAV file.
package encode

import (
	"encoding/binary"

	"github.com/go-audio/audio"
	"github.com/viterin/vek/vek32"
)

const (
	// DefaultSampleRate is the storage rate used when none is configured.
	DefaultSampleRate = 16000
	// HeaderSize is the length of the canonical RIFF/WAVE header.
	HeaderSize = 44

	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
)

// Encoder converts buffers to single-channel PCM16 WAV at a fixed rate.
type Encoder struct {
	SampleRate int
}

// New returns an encoder targeting sampleRate, or DefaultSampleRate when
// sampleRate is not positive.
func New(sampleRate int) Encoder {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return Encoder{SampleRate: sampleRate}
}

// Encode downmixes buf to mono, resamples it to the encoder's rate and
// returns the WAV bytes. It is deterministic and does no I/O. The result is
// always HeaderSize + 2*samples bytes long.
func (e Encoder) Encode(buf *audio.Float32Buffer) []byte {
	rate := e.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	mono := Mono(buf)
	if buf != nil && buf.Format != nil && buf.Format.SampleRate > 0 {
		mono = Resample(mono, buf.Format.SampleRate, rate)
	}
	return WAV(mono, rate)
}

// WAV writes mono float samples as a PCM16 WAV file at sampleRate.
func WAV(samples []float32, sampleRate int) []byte {
	dataSize := len(samples) * bytesPerSample
	out := make([]byte, HeaderSize+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:], 1) // mono
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*bytesPerSample))
	binary.LittleEndian.PutUint16(out[32:], bytesPerSample)
	binary.LittleEndian.PutUint16(out[34:], bitsPerSample)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[HeaderSize+i*bytesPerSample:], uint16(PCM16(s)))
	}
	return out
}

// PCM16 converts a float sample to a signed 16-bit value. Input is clamped to
// [-1, 1]; negative values scale by 32768 and the rest by 32767 so both ends
// of the int16 range are reachable.
func PCM16(v float32) int16 {
	if v != v { // NaN
		return 0
	}
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	if v < 0 {
		return int16(v * 32768)
	}
	return int16(v * 32767)
}

// Mono averages the interleaved channels of buf into one channel.
func Mono(buf *audio.Float32Buffer) []float32 {
	if buf == nil || len(buf.Data) == 0 {
		return []float32{}
	}
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 1 {
		channels = buf.Format.NumChannels
	}
	frames := len(buf.Data) / channels
	if channels == 1 {
		out := make([]float32, frames)
		copy(out, buf.Data)
		return out
	}

	out := make([]float32, frames)
	lane := make([]float32, frames)
	for ch := 0; ch < channels; ch++ {
		for i := 0; i < frames; i++ {
			lane[i] = buf.Data[i*channels+ch]
		}
		vek32.Add_Inplace(out, lane)
	}
	vek32.MulNumber_Inplace(out, 1/float32(channels))
	return out
}

// Resample converts samples from one rate to another with linear
// interpolation. Equal rates return the input unchanged.
func Resample(samples []float32, from, to int) []float32 {
	if from <= 0 || to <= 0 || from == to || len(samples) == 0 {
		return samples
	}
	n := int(int64(len(samples)) * int64(to) / int64(from))
	if n == 0 {
		n = 1
	}
	out := make([]float32, n)
	step := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		lo := int(pos)
		if lo >= last {
			out[i] = samples[last]
			continue
		}
		frac := float32(pos - float64(lo))
		out[i] = samples[lo] + (samples[lo+1]-samples[lo])*frac
	}
	return out
}
