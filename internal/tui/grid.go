package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/icco/beatgrid/internal/config"
	"github.com/icco/beatgrid/internal/midi"
	"github.com/icco/beatgrid/internal/sequencer"
)

func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.engine
	tracks := e.Tracks()
	m.clampCursor(len(tracks))

	switch msg.String() {
	case "q", "ctrl+c":
		e.Stop()
		return m, tea.Quit
	case keyLeft, "h":
		if m.cursorX > 0 {
			m.cursorX--
		}
	case keyRight, "l":
		if m.cursorX < e.Steps()-1 {
			m.cursorX++
		}
	case keyUp, "k":
		if m.cursorY > 0 {
			m.cursorY--
		}
	case keyDown, "j":
		if m.cursorY < len(tracks)-1 {
			m.cursorY++
		}
	case " ", "space":
		if len(tracks) > 0 {
			e.ToggleStep(tracks[m.cursorY].ID, m.cursorX)
		}
	case "+", "=":
		m.setTempo(e.Tempo() + bpmStep)
	case "-", "_":
		m.setTempo(e.Tempo() - bpmStep)
	case "p":
		switch e.Mode() {
		case sequencer.Playing:
			e.Pause()
		case sequencer.Paused:
			e.Resume()
		default:
			e.Start()
		}
		m.mode = e.Mode()
	case "s":
		e.Stop()
		m.mode = e.Mode()
		m.playing = 0
	case "c":
		// Clear all steps in current track
		if len(tracks) > 0 {
			for _, i := range tracks[m.cursorY].ActiveSteps() {
				e.ToggleStep(tracks[m.cursorY].ID, i)
			}
		}
	case "d":
		if len(tracks) > 0 {
			id := tracks[m.cursorY].ID
			e.RemoveTrack(id)
			delete(m.opts.Sources, id)
			m.clampCursor(len(tracks) - 1)
		}
	case "X":
		e.Clear()
		m.opts.Sources = map[string]config.PatternTrack{}
		m.cursorX, m.cursorY = 0, 0
		m.mode = e.Mode()
		m.message = "Cleared all tracks"
	case "w":
		m.save()
	case "e":
		m.export()
	}
	return m, nil
}

func (m *Model) clampCursor(n int) {
	if m.cursorY >= n {
		m.cursorY = max(n-1, 0)
	}
}

func (m *Model) setTempo(bpm float64) {
	bpm = min(max(bpm, minBPM), maxBPM)
	if err := m.engine.SetTempo(bpm); err != nil {
		m.message = fmt.Sprintf("Error: %v", err)
	}
}

// Pattern snapshots the engine as a pattern, keeping each track's sample
// path from the row it was loaded from.
func (m Model) Pattern() *config.Pattern {
	p := &config.Pattern{
		BPM:   m.engine.Tempo(),
		Steps: m.engine.Steps(),
	}
	for _, t := range m.engine.Tracks() {
		grid := make([]bool, len(t.Steps))
		var overrides map[int]string
		for i, s := range t.Steps {
			grid[i] = s.Active
			if s.SampleID != "" {
				if overrides == nil {
					overrides = map[int]string{}
				}
				overrides[i] = s.SampleID
			}
		}
		p.Tracks = append(p.Tracks, config.PatternTrack{
			Name:      t.Name,
			Sample:    m.opts.Sources[t.ID].Sample,
			SampleID:  t.SampleID,
			Steps:     config.FormatGrid(grid),
			Overrides: overrides,
		})
	}
	return p
}

func (m *Model) save() {
	if m.opts.PatternPath == "" {
		m.message = "No pattern file set"
		return
	}
	if err := m.Pattern().Save(m.opts.PatternPath); err != nil {
		m.message = fmt.Sprintf("Error saving: %v", err)
		return
	}
	m.message = "Pattern saved"
}

func (m *Model) export() {
	if m.opts.MIDIPath == "" {
		m.message = "No MIDI file set"
		return
	}
	if err := midi.WriteFile(m.opts.MIDIPath, m.Pattern(), m.opts.StepsPerBeat); err != nil {
		m.message = fmt.Sprintf("Error exporting: %v", err)
		return
	}
	m.message = "MIDI file exported to " + m.opts.MIDIPath
}

func (m Model) viewGrid() string {
	e := m.engine
	tracks := e.Tracks()
	steps := e.Steps()
	isPlaying := m.mode == sequencer.Playing

	var b strings.Builder

	b.WriteString(titleStyle.Render("BEATGRID") + "\n\n")
	if m.opts.PatternPath != "" {
		b.WriteString(fmt.Sprintf("Pattern: %s\n", m.opts.PatternPath))
	}
	b.WriteString(fmt.Sprintf("BPM: %g (use +/- to adjust) • step %v\n\n", e.Tempo(), e.StepDuration()))

	b.WriteString(renderClockBar(steps, m.mode, m.playing) + "\n\n")

	// 14 chars to match data rows
	b.WriteString("Track         ")
	hexDigits := "0123456789ABCDEF"
	for i := 0; i < steps; i++ {
		b.WriteString(fmt.Sprintf(" %c ", hexDigits[i%len(hexDigits)]))
	}
	b.WriteString("\n")

	if len(tracks) == 0 {
		b.WriteString(helpStyle.Render("No tracks loaded") + "\n")
	}
	for row, t := range tracks {
		label := fmt.Sprintf("%-12.12s", t.Name)
		mark := " "
		if e.Loaded(t.ID) {
			mark = "♪"
		}
		if row == m.cursorY {
			b.WriteString(selectedStyle.Render(label + mark + " "))
		} else {
			b.WriteString(label + mark + " ")
		}

		for i, s := range t.Steps {
			cell := " · "
			if s.Active {
				cell = " ● "
				if s.SampleID != "" {
					cell = " ◆ "
				}
			}

			cellStyle := lipgloss.NewStyle().Width(3)
			if row == m.cursorY && i == m.cursorX {
				cellStyle = cellStyle.Background(lipgloss.Color("#7D56F4"))
			}
			if isPlaying && i == m.playing {
				cellStyle = cellStyle.Foreground(lipgloss.Color("#00FF00")).Bold(true)
			} else if s.Active {
				cellStyle = cellStyle.Foreground(lipgloss.Color("#FFD700"))
			} else {
				cellStyle = cellStyle.Foreground(lipgloss.Color("#666666"))
			}
			b.WriteString(cellStyle.Render(cell))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.message != "" {
		b.WriteString(messageStyle.Render(m.message) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("Navigation: ↑↓←→ or hjkl • Space: toggle step • c: clear track • d: delete track • X: clear all"))
	b.WriteString("\n" + helpStyle.Render("+/-: tempo • p: play/pause • s: stop • w: save pattern • e: export MIDI • q: quit"))

	return b.String()
}

func renderClockBar(steps int, mode sequencer.Mode, currentStep int) string {
	// Colors for the clock bar - gradient from cyan to magenta
	colors := []string{
		"#00FFFF", "#00E5FF", "#00CCFF", "#00B2FF",
		"#0099FF", "#0080FF", "#0066FF", "#1A4DFF",
		"#3333FF", "#4D1AFF", "#6600FF", "#8000FF",
		"#9900FF", "#B300FF", "#CC00FF", "#FF00FF",
	}
	active := mode != sequencer.Stopped

	bar := strings.Builder{}
	bar.WriteString("Clock         ")

	for i := 0; i < steps; i++ {
		var cell string
		var cellStyle lipgloss.Style
		color := lipgloss.Color(colors[i*len(colors)/steps])

		switch {
		case active && i == currentStep:
			cell = " ▶ "
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(color).
				Bold(true)
		case active && i < currentStep:
			cell = " █ "
			cellStyle = lipgloss.NewStyle().Foreground(color)
		default:
			cell = " · "
			cellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
		}
		bar.WriteString(cellStyle.Render(cell))
	}

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	switch mode {
	case sequencer.Playing:
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	case sequencer.Paused:
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	}
	bar.WriteString(statusStyle.Render(" " + strings.ToUpper(mode.String()[:1]) + mode.String()[1:]))

	return bar.String()
}
