// Package audio plays decoded sample buffers through the system audio device.
package audio

import (
	"sync"

	goaudio "github.com/go-audio/audio"

	"github.com/icco/beatgrid/internal/encode"
)

const (
	DefaultSampleRate = 44100
	channelCount      = 2 // stereo
	bitDepth          = 2 // 16-bit

	defaultMaxVoices = 64
	defaultVolume    = 0.7
	preparedLimit    = 128
)

// voice is one buffer being played, stored as interleaved stereo at the
// mixer rate.
type voice struct {
	frames []float32
	pos    int
}

// Mixer sums every triggered buffer into a 16-bit stereo stream. It
// implements io.Reader so an oto player can pull from it.
type Mixer struct {
	mu        sync.Mutex
	rate      int
	voices    []*voice
	maxVoices int
	volume    float64
	prepared  map[*goaudio.Float32Buffer][]float32
}

// NewMixer creates a mixer producing audio at rate Hz.
func NewMixer(rate int) *Mixer {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &Mixer{
		rate:      rate,
		maxVoices: defaultMaxVoices,
		volume:    defaultVolume,
		prepared:  make(map[*goaudio.Float32Buffer][]float32),
	}
}

// Play starts buf from its first frame. It returns immediately; buffers
// already playing keep sounding. When every voice is busy the oldest one is
// replaced.
func (m *Mixer) Play(buf *goaudio.Float32Buffer) {
	if buf == nil || len(buf.Data) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	frames, ok := m.prepared[buf]
	if !ok {
		frames = Stereo(buf, m.rate)
		if len(m.prepared) >= preparedLimit {
			clear(m.prepared)
		}
		m.prepared[buf] = frames
	}

	v := &voice{frames: frames}
	if len(m.voices) >= m.maxVoices {
		m.voices = append(m.voices[1:], v)
		return
	}
	m.voices = append(m.voices, v)
}

// Active returns how many voices are still sounding.
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// SetVolume sets the master volume (0.0 - 1.0)
func (m *Mixer) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	m.volume = vol
}

// Silence drops every playing voice.
func (m *Mixer) Silence() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voices = nil
}

// Read fills p with mixed signed 16-bit little-endian stereo frames. It
// never blocks and never fails; with nothing playing it writes silence.
func (m *Mixer) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(p) / (channelCount * bitDepth)
	for i := 0; i < n; i++ {
		var left, right float32
		for _, v := range m.voices {
			if v.pos >= len(v.frames) {
				continue
			}
			left += v.frames[v.pos]
			right += v.frames[v.pos+1]
			v.pos += channelCount
		}

		vol := float32(m.volume)
		l := encode.PCM16(left * vol)
		r := encode.PCM16(right * vol)

		idx := i * channelCount * bitDepth
		p[idx] = byte(l)
		p[idx+1] = byte(l >> 8)
		p[idx+2] = byte(r)
		p[idx+3] = byte(r >> 8)
	}

	live := m.voices[:0]
	for _, v := range m.voices {
		if v.pos < len(v.frames) {
			live = append(live, v)
		}
	}
	clear(m.voices[len(live):])
	m.voices = live

	return n * channelCount * bitDepth, nil
}

// Stereo converts buf to interleaved stereo at rate. Mono input is copied to
// both sides and anything wider than stereo is folded down to mono first.
func Stereo(buf *goaudio.Float32Buffer, rate int) []float32 {
	channels, from := 1, rate
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			channels = buf.Format.NumChannels
		}
		if buf.Format.SampleRate > 0 {
			from = buf.Format.SampleRate
		}
	}

	var left, right []float32
	switch channels {
	case 1:
		left = buf.Data
		right = buf.Data
	case 2:
		frames := len(buf.Data) / 2
		left = make([]float32, frames)
		right = make([]float32, frames)
		for i := 0; i < frames; i++ {
			left[i] = buf.Data[2*i]
			right[i] = buf.Data[2*i+1]
		}
	default:
		left = encode.Mono(buf)
		right = left
	}

	left = encode.Resample(left, from, rate)
	right = encode.Resample(right, from, rate)

	out := make([]float32, 2*len(left))
	for i := range left {
		out[2*i] = left[i]
		out[2*i+1] = right[i]
	}
	return out
}
