// Package tui is a terminal grid editor driving a sequencer engine.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/icco/beatgrid/internal/config"
	"github.com/icco/beatgrid/internal/sequencer"
)

const (
	keyUp    = "up"
	keyDown  = "down"
	keyLeft  = "left"
	keyRight = "right"

	minBPM  = 20
	maxBPM  = 300
	bpmStep = 5
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
)

// Options configures the editor.
type Options struct {
	// PatternPath is where "w" saves the pattern. Empty disables saving.
	PatternPath string
	// MIDIPath is where "e" exports a Standard MIDI File.
	MIDIPath     string
	StepsPerBeat int
	// Sources maps engine track ids to the pattern rows they were loaded
	// from, so a save keeps each track's sample path.
	Sources map[string]config.PatternTrack
}

// eventMsg carries one engine event into the update loop.
type eventMsg sequencer.Event

// watchClosedMsg reports that the engine closed its watch channel.
type watchClosedMsg struct{}

// Model is the bubbletea model for the grid editor.
type Model struct {
	engine  *sequencer.Engine
	events  <-chan sequencer.Event
	opts    Options
	cursorX int // step
	cursorY int // track
	playing int // last cursor reported by the engine
	mode    sequencer.Mode
	message string
	width   int
	height  int
}

// New creates an editor for e. The editor subscribes to e's events.
func New(e *sequencer.Engine, opts Options) Model {
	if opts.Sources == nil {
		opts.Sources = map[string]config.PatternTrack{}
	}
	return Model{
		engine: e,
		events: e.Watch(),
		opts:   opts,
		mode:   e.Mode(),
	}
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func waitForEvent(ch <-chan sequencer.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return watchClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case eventMsg:
		m.playing = msg.Cursor
		m.mode = msg.Mode
		return m, waitForEvent(m.events)
	case watchClosedMsg:
		return m, nil
	case tea.KeyMsg:
		return m.updateGrid(msg)
	}
	return m, nil
}

func (m Model) View() string {
	return m.viewGrid()
}
