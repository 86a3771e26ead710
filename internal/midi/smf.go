// Package midi converts patterns to and from Standard MIDI Files, one SMF
// track per pattern track on the General MIDI drum channel.
package midi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/icco/beatgrid/internal/config"
)

const (
	ticksPerQuarterNote = 960 // Standard MIDI resolution
	drumChannel         = 9
	velocity            = 100
	defaultStepsPerBeat = 4
	defaultTempo        = 120
)

// ErrEmptyFile is returned when an SMF holds no note tracks.
var ErrEmptyFile = errors.New("midi file has no note tracks")

// General MIDI percussion keys, matched against track names.
var drumNotes = []struct {
	name string
	note uint8
}{
	{"openhat", 46},
	{"open", 46},
	{"hat", 42},
	{"hh", 42},
	{"kick", 36},
	{"bd", 36},
	{"snare", 38},
	{"sd", 38},
	{"clap", 39},
	{"rim", 37},
	{"tom", 45},
	{"crash", 49},
	{"ride", 51},
	{"cow", 56},
}

// DrumNote picks a GM percussion key for a track name. Unknown names cycle
// through the kick, snare, closed hat and clap keys by index.
func DrumNote(name string, index int) uint8 {
	n := strings.ToLower(strings.ReplaceAll(name, "-", ""))
	n = strings.ReplaceAll(n, " ", "")
	for _, d := range drumNotes {
		if strings.Contains(n, d.name) {
			return d.note
		}
	}
	fallback := []uint8{36, 38, 42, 39}
	return fallback[index%len(fallback)]
}

// Encode renders p as an SMF. stepsPerBeat sets how many steps share one
// quarter note; values <= 0 mean 16th notes.
func Encode(w io.Writer, p *config.Pattern, stepsPerBeat int) error {
	if stepsPerBeat <= 0 {
		stepsPerBeat = defaultStepsPerBeat
	}
	ticksPerStep := uint32(ticksPerQuarterNote / stepsPerBeat) //nolint:gosec // stepsPerBeat is positive

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ticksPerQuarterNote)

	// Track 0: Tempo track
	var track0 smf.Track
	track0.Add(0, smf.MetaMeter(4, 4))
	track0.Add(0, smf.MetaTempo(p.BPM))
	track0.Close(0)
	if err := sm.Add(track0); err != nil {
		return fmt.Errorf("error adding tempo track: %w", err)
	}

	for i, t := range p.Tracks {
		note := DrumNote(t.Name, i)
		var track smf.Track
		track.Add(0, smf.MetaTrackSequenceName(t.Name))
		var lastTick uint32
		for step, on := range t.Active() {
			if !on {
				continue
			}
			pos := uint32(step) * ticksPerStep //nolint:gosec // step is bounded by the pattern length
			track.Add(pos-lastTick, midi.NoteOn(drumChannel, note, velocity))
			// Note off one tick before the next step
			track.Add(ticksPerStep-1, midi.NoteOff(drumChannel, note))
			lastTick = pos + ticksPerStep - 1
		}
		endTick := uint32(p.Steps) * ticksPerStep //nolint:gosec // validated positive
		if lastTick < endTick {
			track.Close(endTick - lastTick)
		} else {
			track.Close(0)
		}
		if err := sm.Add(track); err != nil {
			return fmt.Errorf("error adding track %d: %w", i, err)
		}
	}

	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}

// WriteFile writes p as an SMF at path.
func WriteFile(path string, p *config.Pattern, stepsPerBeat int) error {
	var buf bytes.Buffer
	if err := Encode(&buf, p, stepsPerBeat); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}

// Decode reads an SMF into a pattern of steps steps. Every non-empty track
// after the tempo track becomes a pattern track; note-ons past the last step
// are dropped. Sample paths are left empty.
func Decode(r io.Reader, steps, stepsPerBeat int) (*config.Pattern, error) {
	if stepsPerBeat <= 0 {
		stepsPerBeat = defaultStepsPerBeat
	}
	rd, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("read midi: %w", err)
	}

	p := &config.Pattern{BPM: defaultTempo, Steps: steps}
	if tc := rd.TempoChanges(); len(tc) > 0 && tc[0].BPM > 0 {
		p.BPM = tc[0].BPM
	}

	var tpq uint32 = ticksPerQuarterNote
	if mt, ok := rd.TimeFormat.(smf.MetricTicks); ok && mt > 0 {
		tpq = uint32(mt)
	}
	ticksPerStep := tpq / uint32(stepsPerBeat) //nolint:gosec // stepsPerBeat is positive
	if ticksPerStep == 0 {
		ticksPerStep = 1
	}

	for idx, track := range rd.Tracks {
		var (
			name        string
			currentTick uint32
			notes       int
			firstKey    uint8
		)
		grid := make([]bool, steps)
		for _, ev := range track {
			currentTick += ev.Delta

			var text string
			if ev.Message.GetMetaTrackName(&text) {
				name = text
				continue
			}
			var channel, key, vel uint8
			if ev.Message.GetNoteOn(&channel, &key, &vel) && vel > 0 {
				step := int(currentTick / ticksPerStep)
				if step < steps {
					grid[step] = true
				}
				if notes == 0 {
					firstKey = key
				}
				notes++
			}
		}
		if notes == 0 {
			continue
		}
		if name == "" {
			name = drumName(firstKey, idx)
		}
		p.Tracks = append(p.Tracks, config.PatternTrack{
			Name:  name,
			Steps: config.FormatGrid(grid),
		})
	}

	if len(p.Tracks) == 0 {
		return nil, ErrEmptyFile
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadFile decodes the SMF at path.
func ReadFile(path string, steps, stepsPerBeat int) (*config.Pattern, error) {
	f, err := os.Open(path) //nolint:gosec // path is user supplied on purpose
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f, steps, stepsPerBeat)
}

func drumName(key uint8, idx int) string {
	for _, d := range drumNotes {
		if d.note == key && len(d.name) > 2 {
			return d.name
		}
	}
	return fmt.Sprintf("track %d", idx)
}
