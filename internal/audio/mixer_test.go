package audio

import (
	"encoding/binary"
	"testing"

	goaudio "github.com/go-audio/audio"
)

func frame(p []byte, i int) (int16, int16) {
	off := i * channelCount * bitDepth
	return int16(binary.LittleEndian.Uint16(p[off:])), int16(binary.LittleEndian.Uint16(p[off+2:]))
}

func mono(rate int, data ...float32) *goaudio.Float32Buffer {
	return &goaudio.Float32Buffer{
		Format: &goaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:   data,
	}
}

func TestMixerSilence(t *testing.T) {
	m := NewMixer(8000)
	p := make([]byte, 16)
	for i := range p {
		p[i] = 0xAA
	}
	n, err := m.Read(p)
	if err != nil || n != 16 {
		t.Fatalf("Read = %d, %v; want 16, nil", n, err)
	}
	for i := 0; i < 4; i++ {
		if l, r := frame(p, i); l != 0 || r != 0 {
			t.Errorf("frame %d = %d/%d, want silence", i, l, r)
		}
	}
}

func TestMixerOverlapsVoices(t *testing.T) {
	m := NewMixer(8000)
	m.SetVolume(1)
	m.Play(mono(8000, 0.25, 0.25))
	m.Play(mono(8000, 0.25, 0.25, 0.25))
	if m.Active() != 2 {
		t.Fatalf("Active = %d, want 2", m.Active())
	}

	p := make([]byte, 4*channelCount*bitDepth)
	m.Read(p)
	want := []int16{16383, 16383, 8191, 0}
	for i, w := range want {
		if l, r := frame(p, i); l != w || r != w {
			t.Errorf("frame %d = %d/%d, want %d", i, l, r, w)
		}
	}
	if m.Active() != 0 {
		t.Errorf("Active = %d after voices finished, want 0", m.Active())
	}
}

func TestMixerClipsAndScales(t *testing.T) {
	m := NewMixer(8000)
	m.SetVolume(2)
	m.Play(mono(8000, 0.9))
	m.Play(mono(8000, 0.9))
	p := make([]byte, channelCount*bitDepth)
	m.Read(p)
	if l, _ := frame(p, 0); l != 32767 {
		t.Errorf("clipped sample = %d, want 32767", l)
	}

	m.SetVolume(0)
	m.Play(mono(8000, 1))
	m.Read(p)
	if l, _ := frame(p, 0); l != 0 {
		t.Errorf("muted sample = %d, want 0", l)
	}
}

func TestMixerStealsOldestVoice(t *testing.T) {
	m := NewMixer(8000)
	m.maxVoices = 2
	m.Play(mono(8000, 0.1))
	m.Play(mono(8000, 0.2))
	m.Play(mono(8000, 0.3))
	if m.Active() != 2 {
		t.Fatalf("Active = %d, want 2", m.Active())
	}
	m.Silence()
	if m.Active() != 0 {
		t.Errorf("Active after Silence = %d, want 0", m.Active())
	}
}

func TestStereo(t *testing.T) {
	got := Stereo(mono(8000, 0.5, -0.5), 8000)
	want := []float32{0.5, 0.5, -0.5, -0.5}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Stereo[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	st := &goaudio.Float32Buffer{
		Format: &goaudio.Format{NumChannels: 2, SampleRate: 4000},
		Data:   []float32{1, 0, 1, 0},
	}
	up := Stereo(st, 8000)
	if len(up) != 8 {
		t.Fatalf("upsampled len = %d, want 8", len(up))
	}
	for i := 0; i < len(up); i += 2 {
		if up[i] != 1 || up[i+1] != 0 {
			t.Errorf("frame %d = %v/%v, want 1/0", i/2, up[i], up[i+1])
		}
	}
}
