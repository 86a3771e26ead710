package sequencer

import "github.com/icco/beatgrid/internal/sample"

// Step is one cell of a track's row.
type Step struct {
	Index  int
	Active bool
	// SampleID, when set, plays the sample of the track with that SampleID
	// instead of this track's own.
	SampleID string
}

// Track is a snapshot of one row of the grid.
type Track struct {
	ID         string
	Name       string
	SampleID   string
	Steps      []Step
	HasPayload bool
}

// ActiveSteps returns the indices of the active steps.
func (t Track) ActiveSteps() []int {
	var idx []int
	for _, s := range t.Steps {
		if s.Active {
			idx = append(idx, s.Index)
		}
	}
	return idx
}

// track is the engine-owned form of a Track.
type track struct {
	id       string
	name     string
	sampleID string
	steps    []Step
	payload  *sample.Payload
}

func newTrack(id, name, sampleID string, n int, payload *sample.Payload) *track {
	steps := make([]Step, n)
	for i := range steps {
		steps[i].Index = i
	}
	return &track{
		id:       id,
		name:     name,
		sampleID: sampleID,
		steps:    steps,
		payload:  payload,
	}
}

func (t *track) snapshot() Track {
	steps := make([]Step, len(t.steps))
	copy(steps, t.steps)
	return Track{
		ID:         t.id,
		Name:       t.name,
		SampleID:   t.sampleID,
		Steps:      steps,
		HasPayload: t.payload != nil && !t.payload.Empty(),
	}
}
