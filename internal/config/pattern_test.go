package config

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

const sampleYAML = `
bpm: 96
steps: 8
tracks:
  - name: kick
    sample: kick.wav
    sample_id: kick
    steps: "x... x..."
  - name: hat
    sample: /abs/hat.wav
    steps: "..x...x."
    overrides:
      2: kick
`

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("ParsePattern: %v", err)
	}
	if p.BPM != 96 || p.Steps != 8 || len(p.Tracks) != 2 {
		t.Fatalf("pattern = %+v", p)
	}
	kick := p.Tracks[0]
	if got := FormatGrid(kick.Active()); got != "x...x..." {
		t.Errorf("kick grid = %q, want x...x...", got)
	}
	if got := kick.SamplePath("/patterns"); got != filepath.Join("/patterns", "kick.wav") {
		t.Errorf("SamplePath = %q", got)
	}
	hat := p.Tracks[1]
	if got := hat.SamplePath("/patterns"); got != "/abs/hat.wav" {
		t.Errorf("absolute SamplePath = %q", got)
	}
	if hat.Overrides[2] != "kick" {
		t.Errorf("overrides = %v, want 2: kick", hat.Overrides)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		p    Pattern
	}{
		{"zero bpm", Pattern{BPM: 0, Steps: 4}},
		{"nan bpm", Pattern{BPM: math.NaN(), Steps: 4}},
		{"no steps", Pattern{BPM: 120}},
		{"short grid", Pattern{BPM: 120, Steps: 4, Tracks: []PatternTrack{{Name: "a", Steps: "x.."}}}},
		{"bad char", Pattern{BPM: 120, Steps: 4, Tracks: []PatternTrack{{Name: "a", Steps: "x.?."}}}},
		{"override range", Pattern{BPM: 120, Steps: 4, Tracks: []PatternTrack{{Name: "a", Steps: "x...", Overrides: map[int]string{4: "b"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); !errors.Is(err, ErrInvalidPattern) {
				t.Errorf("Validate = %v, want ErrInvalidPattern", err)
			}
		})
	}

	ok := Pattern{BPM: 120, Steps: 4, Tracks: []PatternTrack{{Name: "a", Steps: "x.|x."}}}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate valid pattern: %v", err)
	}
}

func TestParsePatternRejectsBadYAML(t *testing.T) {
	if _, err := ParsePattern([]byte("bpm: [")); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("ParsePattern = %v, want ErrInvalidPattern", err)
	}
}

func TestSaveAndLoadPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beat.yaml")
	want := &Pattern{
		BPM:   128,
		Steps: 4,
		Tracks: []PatternTrack{
			{Name: "kick", Sample: "kick.wav", SampleID: "kick", Steps: "x.x."},
		},
	}
	if err := want.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := LoadPattern(path)
	if err != nil {
		t.Fatalf("LoadPattern: %v", err)
	}
	if got.BPM != 128 || got.Steps != 4 || len(got.Tracks) != 1 || got.Tracks[0].Steps != "x.x." {
		t.Errorf("LoadPattern = %+v", got)
	}

	if _, err := LoadPattern(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadPattern of a missing file succeeded")
	}
}

func TestGridRoundTrip(t *testing.T) {
	grid, err := ParseGrid("X-o0 1.")
	if err != nil {
		t.Fatal(err)
	}
	if got := FormatGrid(grid); got != "x.x.x." {
		t.Errorf("FormatGrid = %q, want x.x.x.", got)
	}
}
