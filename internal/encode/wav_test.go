package encode

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-audio/audio"
)

func monoBuffer(rate int, data ...float32) *audio.Float32Buffer {
	return &audio.Float32Buffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:   data,
	}
}

func TestEncodeFullScale(t *testing.T) {
	out := New(16000).Encode(monoBuffer(16000, 1.0, -1.0))
	if len(out) != HeaderSize+4 {
		t.Fatalf("len = %d, want %d", len(out), HeaderSize+4)
	}
	if got := int16(binary.LittleEndian.Uint16(out[44:])); got != 32767 {
		t.Errorf("first sample = %d, want 32767", got)
	}
	if got := int16(binary.LittleEndian.Uint16(out[46:])); got != -32768 {
		t.Errorf("second sample = %d, want -32768", got)
	}
	if !bytes.Equal(out[44:48], []byte{0xFF, 0x7F, 0x00, 0x80}) {
		t.Errorf("data bytes = % x, want ff 7f 00 80", out[44:48])
	}
}

func TestEncodeHeader(t *testing.T) {
	const k = 37
	data := make([]float32, k)
	for i := range data {
		data[i] = float32(math.Sin(float64(i)))
	}
	for _, rate := range []int{8000, 16000, 44100} {
		out := New(rate).Encode(monoBuffer(rate, data...))
		if len(out) != HeaderSize+2*k {
			t.Fatalf("rate %d: len = %d, want %d", rate, len(out), HeaderSize+2*k)
		}
		checks := []struct {
			name string
			got  uint32
			want uint32
		}{
			{"chunk size", binary.LittleEndian.Uint32(out[4:]), uint32(36 + 2*k)},
			{"fmt size", binary.LittleEndian.Uint32(out[16:]), 16},
			{"format", uint32(binary.LittleEndian.Uint16(out[20:])), 1},
			{"channels", uint32(binary.LittleEndian.Uint16(out[22:])), 1},
			{"sample rate", binary.LittleEndian.Uint32(out[24:]), uint32(rate)},
			{"byte rate", binary.LittleEndian.Uint32(out[28:]), uint32(rate * 2)},
			{"block align", uint32(binary.LittleEndian.Uint16(out[32:])), 2},
			{"bits", uint32(binary.LittleEndian.Uint16(out[34:])), 16},
			{"data size", binary.LittleEndian.Uint32(out[40:]), 2 * k},
		}
		for _, c := range checks {
			if c.got != c.want {
				t.Errorf("rate %d: %s = %d, want %d", rate, c.name, c.got, c.want)
			}
		}
		for off, tag := range map[int]string{0: "RIFF", 8: "WAVE", 12: "fmt ", 36: "data"} {
			if string(out[off:off+4]) != tag {
				t.Errorf("rate %d: tag at %d = %q, want %q", rate, off, out[off:off+4], tag)
			}
		}
	}
}

func TestPCM16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32768},
		{0.5, 16383},
		{-0.5, -16384},
		{2, 32767},
		{-7, -32768},
		{float32(math.NaN()), 0},
	}
	for _, tt := range tests {
		if got := PCM16(tt.in); got != tt.want {
			t.Errorf("PCM16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMonoAveragesChannels(t *testing.T) {
	buf := &audio.Float32Buffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: 8000},
		Data:   []float32{1, 0, 0.5, 0.5, -1, 1},
	}
	got := Mono(buf)
	want := []float32{0.5, 0.5, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("Mono[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEncodeDownsamples(t *testing.T) {
	src := make([]float32, 4410)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: 44100},
		Data:   make([]float32, 2*len(src)),
	}
	out := New(16000).Encode(buf)
	if want := HeaderSize + 2*1600; len(out) != want {
		t.Errorf("len = %d, want %d", len(out), want)
	}
	if got := binary.LittleEndian.Uint32(out[24:]); got != 16000 {
		t.Errorf("sample rate = %d, want 16000", got)
	}
}

func TestResampleInterpolates(t *testing.T) {
	got := Resample([]float32{0, 1, 0, -1}, 2, 4)
	want := []float32{0, 0.5, 1, 0.5, 0, -0.5, -1, -1}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("Resample[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEncodeEmptyAndNil(t *testing.T) {
	if out := New(0).Encode(nil); len(out) != HeaderSize {
		t.Errorf("nil buffer: len = %d, want %d", len(out), HeaderSize)
	}
	out := New(0).Encode(monoBuffer(16000))
	if got := binary.LittleEndian.Uint32(out[24:]); got != DefaultSampleRate {
		t.Errorf("default rate = %d, want %d", got, DefaultSampleRate)
	}
}
