package audio

import (
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
	goaudio "github.com/go-audio/audio"
)

// Output plays buffers on the default audio device.
type Output struct {
	otoCtx *oto.Context
	player *oto.Player
	mixer  *Mixer
}

// NewOutput opens the audio device at rate Hz and starts streaming the
// mixer. Only one Output may exist per process.
func NewOutput(rate int) (*Output, error) {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	op := &oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   20 * time.Millisecond,
	}

	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-readyChan

	o := &Output{
		otoCtx: otoCtx,
		mixer:  NewMixer(rate),
	}
	o.player = otoCtx.NewPlayer(o.mixer)
	o.player.Play()
	return o, nil
}

// Play starts buf immediately, overlapping anything already playing.
func (o *Output) Play(buf *goaudio.Float32Buffer) {
	o.mixer.Play(buf)
}

// SetVolume sets the master volume (0.0 - 1.0)
func (o *Output) SetVolume(vol float64) {
	o.mixer.SetVolume(vol)
}

// Close silences playback and pauses the stream.
func (o *Output) Close() error {
	o.mixer.Silence()
	o.player.Pause()
	// As of oto v3.4 the player needs no explicit Close; it is released when
	// garbage collected.
	return nil
}
