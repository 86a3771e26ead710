package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidPattern is returned for pattern files that fail validation.
var ErrInvalidPattern = errors.New("invalid pattern")

// Pattern is the on-disk form of a sequence.
//
//	bpm: 120
//	steps: 16
//	tracks:
//	  - name: kick
//	    sample: kick.wav
//	    sample_id: kick
//	    steps: "x...x...x...x..."
type Pattern struct {
	BPM    float64        `yaml:"bpm"`
	Steps  int            `yaml:"steps"`
	Tracks []PatternTrack `yaml:"tracks"`
}

// PatternTrack is one row of a pattern. Steps is a grid string where 'x'
// marks an active step and '.' an inactive one; spaces and '|' are ignored.
// Overrides maps step indices to the sample_id of another track.
type PatternTrack struct {
	Name      string         `yaml:"name"`
	Sample    string         `yaml:"sample,omitempty"`
	SampleID  string         `yaml:"sample_id,omitempty"`
	Steps     string         `yaml:"steps"`
	Overrides map[int]string `yaml:"overrides,omitempty"`
}

// LoadPattern reads and validates a YAML pattern file.
func LoadPattern(path string) (*Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern: %w", err)
	}
	return ParsePattern(data)
}

// ParsePattern decodes and validates YAML pattern bytes.
func ParsePattern(data []byte) (*Pattern, error) {
	var p Pattern
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes the pattern as YAML.
func (p *Pattern) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pattern: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write pattern: %w", err)
	}
	return nil
}

// Validate checks tempo, grid length and every track's step string.
func (p *Pattern) Validate() error {
	if p.BPM <= 0 || math.IsNaN(p.BPM) || math.IsInf(p.BPM, 0) {
		return fmt.Errorf("%w: bpm must be positive, got %v", ErrInvalidPattern, p.BPM)
	}
	if p.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidPattern, p.Steps)
	}
	for i, t := range p.Tracks {
		grid, err := ParseGrid(t.Steps)
		if err != nil {
			return fmt.Errorf("%w: track %d (%s): %w", ErrInvalidPattern, i, t.Name, err)
		}
		if len(grid) != p.Steps {
			return fmt.Errorf("%w: track %d (%s) has %d steps, want %d", ErrInvalidPattern, i, t.Name, len(grid), p.Steps)
		}
		for step := range t.Overrides {
			if step < 0 || step >= p.Steps {
				return fmt.Errorf("%w: track %d (%s) overrides step %d out of range", ErrInvalidPattern, i, t.Name, step)
			}
		}
	}
	return nil
}

// SamplePath resolves a track's sample file relative to dir, the directory
// holding the pattern file. Absolute paths are returned unchanged.
func (t PatternTrack) SamplePath(dir string) string {
	if t.Sample == "" || filepath.IsAbs(t.Sample) {
		return t.Sample
	}
	return filepath.Join(dir, t.Sample)
}

// Active returns the parsed step grid. It assumes the pattern validated.
func (t PatternTrack) Active() []bool {
	grid, _ := ParseGrid(t.Steps)
	return grid
}

// ParseGrid parses a grid string such as "x...|x..." into step states.
func ParseGrid(s string) ([]bool, error) {
	grid := make([]bool, 0, len(s))
	for i, r := range s {
		switch r {
		case 'x', 'X', 'o', '1':
			grid = append(grid, true)
		case '.', '-', '0':
			grid = append(grid, false)
		case ' ', '|':
		default:
			return nil, fmt.Errorf("unexpected %q at offset %d", r, i)
		}
	}
	return grid, nil
}

// FormatGrid renders step states as a grid string, one character per step.
func FormatGrid(grid []bool) string {
	var b strings.Builder
	b.Grow(len(grid))
	for _, on := range grid {
		if on {
			b.WriteByte('x')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
