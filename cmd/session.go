package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/icco/beatgrid/internal/config"
	"github.com/icco/beatgrid/internal/sample"
	"github.com/icco/beatgrid/internal/sequencer"
)

// openPattern loads the pattern at path. When create is set a missing file
// yields an empty pattern using the configured tempo and length.
func openPattern(path string, create bool) (*config.Pattern, error) {
	p, err := config.LoadPattern(path)
	if create && errors.Is(err, fs.ErrNotExist) {
		return &config.Pattern{BPM: cfg.BPM, Steps: cfg.Steps}, nil
	}
	return p, err
}

// loadSession builds an engine holding every track of p. Sample paths are
// resolved relative to dir. A sample that cannot be read leaves its track
// silent. The returned map links engine track ids to their pattern rows.
func loadSession(p *config.Pattern, dir string, opts ...sequencer.Option) (*sequencer.Engine, map[string]config.PatternTrack) {
	base := []sequencer.Option{
		sequencer.WithSteps(p.Steps),
		sequencer.WithTempo(p.BPM),
		sequencer.WithLogger(logger),
	}
	e := sequencer.New(append(base, opts...)...)

	sources := make(map[string]config.PatternTrack, len(p.Tracks))
	for _, t := range p.Tracks {
		var payload *sample.Payload
		if path := t.SamplePath(dir); path != "" {
			pl, err := sample.ReadFile(path)
			if err != nil {
				logger.Warn("sample unavailable, track is silent",
					slog.String("track", t.Name),
					slog.String("path", path),
					slog.Any("error", err))
			} else {
				payload = &pl
			}
		}

		id := e.AddTrack(t.Name, payload, t.SampleID)
		sources[id] = t
		for i, on := range t.Active() {
			if on {
				e.ToggleStep(id, i)
			}
		}
		for step, sampleID := range t.Overrides {
			e.SetStepSample(id, step, sampleID)
		}
	}
	return e, sources
}

func patternDir(path string) string {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return filepath.Dir(path)
	}
	return dir
}

func describePattern(p *config.Pattern) string {
	return fmt.Sprintf("%d tracks, %d steps at %g BPM", len(p.Tracks), p.Steps, p.BPM)
}
