// Package sequencer implements the step sequencer engine: a grid of tracks
// whose active steps trigger sample playback as a tempo clock advances a
// shared cursor.
package sequencer

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/google/uuid"

	"github.com/icco/beatgrid/internal/buffer"
	"github.com/icco/beatgrid/internal/clock"
	"github.com/icco/beatgrid/internal/sample"
)

const (
	DefaultSteps        = 16
	DefaultStepsPerBeat = 4
	DefaultTempo        = 120.0

	watchBuffer = 64
)

// ErrInvalidTempo is returned by SetTempo for non-positive or non-finite BPM.
var ErrInvalidTempo = errors.New("tempo must be a positive, finite BPM")

// Mode is the transport state.
type Mode int

const (
	Stopped Mode = iota
	Playing
	Paused
)

func (m Mode) String() string {
	switch m {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "unknown"
}

// Clock is the pulse source driving the engine. clock.Ticker and
// clock.Manual implement it.
type Clock interface {
	Start(interval time.Duration, fn func(clock.Pulse))
	Stop()
	Reconfigure(interval time.Duration)
	Current(run uint64) bool
}

// Player starts playback of a decoded buffer immediately and returns without
// waiting. Overlapping calls must sound together. Play is called with the
// engine locked, so it must not call back into the engine.
type Player interface {
	Play(buf *audio.Float32Buffer)
}

// PlayerFunc adapts a function to the Player interface.
type PlayerFunc func(buf *audio.Float32Buffer)

func (f PlayerFunc) Play(buf *audio.Float32Buffer) { f(buf) }

// EventKind identifies what an Event reports.
type EventKind int

const (
	EventCursor EventKind = iota
	EventMode
)

// Event is published to watchers when the cursor advances or the transport
// mode changes.
type Event struct {
	Kind   EventKind
	Cursor int
	Mode   Mode
}

type Option func(*config)

type config struct {
	steps        int
	stepsPerBeat int
	tempo        float64
	clock        Clock
	player       Player
	decoder      buffer.Decoder
	logger       *slog.Logger
}

func defaultConfig() config {
	return config{
		steps:        DefaultSteps,
		stepsPerBeat: DefaultStepsPerBeat,
		tempo:        DefaultTempo,
	}
}

// WithSteps sets the grid length N. It is fixed for the engine's lifetime.
func WithSteps(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.steps = n
		}
	}
}

// WithStepsPerBeat sets how many steps divide one quarter note (4 = 16ths).
func WithStepsPerBeat(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.stepsPerBeat = n
		}
	}
}

// WithTempo sets the initial BPM. Invalid values are ignored.
func WithTempo(bpm float64) Option {
	return func(cfg *config) {
		if validTempo(bpm) {
			cfg.tempo = bpm
		}
	}
}

func WithClock(c Clock) Option {
	return func(cfg *config) { cfg.clock = c }
}

func WithPlayer(p Player) Option {
	return func(cfg *config) { cfg.player = p }
}

func WithDecoder(d buffer.Decoder) Option {
	return func(cfg *config) { cfg.decoder = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = l }
}

// Engine owns the track collection, the transport state and the buffer cache.
// All methods are safe for concurrent use; mutations and pulses are
// serialized by one lock.
type Engine struct {
	mu           sync.Mutex
	steps        int
	stepsPerBeat int
	tempo        float64
	mode         Mode
	cursor       int
	tracks       []*track

	clock    Clock
	player   Player
	cache    *buffer.Cache
	logger   *slog.Logger
	watchers []chan Event
	closed   bool
}

// New creates a stopped engine with no tracks.
func New(opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.clock == nil {
		cfg.clock = clock.NewTicker()
	}
	if cfg.player == nil {
		cfg.player = PlayerFunc(func(*audio.Float32Buffer) {})
	}
	if cfg.decoder == nil {
		cfg.decoder = sample.NewDecoder()
	}
	return &Engine{
		steps:        cfg.steps,
		stepsPerBeat: cfg.stepsPerBeat,
		tempo:        cfg.tempo,
		clock:        cfg.clock,
		player:       cfg.player,
		cache:        buffer.New(cfg.decoder, cfg.logger),
		logger:       cfg.logger,
	}
}

// AddTrack appends a track with all steps inactive and returns its new
// identity. A non-empty payload is decoded in the background.
func (e *Engine) AddTrack(name string, payload *sample.Payload, sampleID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := uuid.NewString()
	e.tracks = append(e.tracks, newTrack(id, name, sampleID, e.steps, payload))
	if payload != nil {
		e.cache.Load(id, *payload)
	}
	e.logger.Debug("track added", slog.String("track", id), slog.String("name", name))
	return id
}

// RemoveTrack deletes the track and its cached buffer. Unknown ids are ignored.
func (e *Engine) RemoveTrack(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexLocked(id)
	if i < 0 {
		return
	}
	e.tracks = append(e.tracks[:i], e.tracks[i+1:]...)
	e.cache.Evict(id)
	e.logger.Debug("track removed", slog.String("track", id))
}

// UpdateTrackSample replaces the name, sample identity and payload of a
// track and decodes the new payload. A nil payload drops the track's sample.
// Unknown ids are ignored.
func (e *Engine) UpdateTrackSample(id, name string, payload *sample.Payload, sampleID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexLocked(id)
	if i < 0 {
		return
	}
	t := e.tracks[i]
	t.name = name
	t.sampleID = sampleID
	t.payload = payload
	if payload == nil || payload.Empty() {
		e.cache.Evict(id)
		return
	}
	e.cache.Load(id, *payload)
}

// ToggleStep flips one step of one track. Unknown ids and out-of-range
// indices are ignored.
func (e *Engine) ToggleStep(id string, step int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.trackLocked(id)
	if t == nil || step < 0 || step >= e.steps {
		return
	}
	t.steps[step].Active = !t.steps[step].Active
}

// SetStepSample sets the sample override of a step; an empty sampleID
// clears it. Unknown ids and out-of-range indices are ignored.
func (e *Engine) SetStepSample(id string, step int, sampleID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.trackLocked(id)
	if t == nil || step < 0 || step >= e.steps {
		return
	}
	t.steps[step].SampleID = sampleID
}

// SetTempo changes the BPM. While playing, the clock restarts at the new
// step duration and the cursor carries on from where it was.
func (e *Engine) SetTempo(bpm float64) error {
	if !validTempo(bpm) {
		return ErrInvalidTempo
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tempo = bpm
	if e.mode == Playing {
		e.clock.Reconfigure(e.stepDurationLocked())
	}
	return nil
}

// Start plays from the top: the cursor resets to 0 and the clock starts.
// Calling Start while playing restarts the pattern.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.cursor = 0
	e.clock.Start(e.stepDurationLocked(), e.onPulse)
	e.setModeLocked(Playing)
}

// Pause halts the clock and keeps the cursor. Only valid while playing.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != Playing {
		return
	}
	e.clock.Stop()
	e.setModeLocked(Paused)
}

// Resume continues a paused transport from the held cursor.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != Paused || e.closed {
		return
	}
	e.clock.Start(e.stepDurationLocked(), e.onPulse)
	e.setModeLocked(Playing)
}

// Stop halts the clock and rewinds the cursor to 0. No pulse triggers audio
// once Stop has returned.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// Clear removes every track, releases every cached buffer and stops.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.tracks = nil
	e.cache.Clear()
}

// Close stops the engine, releases its buffers, waits for background decodes
// and closes every watch channel.
func (e *Engine) Close() {
	e.mu.Lock()
	e.stopLocked()
	e.tracks = nil
	e.cache.Clear()
	e.closed = true
	watchers := e.watchers
	e.watchers = nil
	e.mu.Unlock()

	e.cache.Wait()
	for _, ch := range watchers {
		close(ch)
	}
}

// Watch returns a channel receiving cursor and mode events. Sends never
// block: a watcher that falls behind misses events.
func (e *Engine) Watch() <-chan Event {
	ch := make(chan Event, watchBuffer)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch
	}
	e.watchers = append(e.watchers, ch)
	return ch
}

// WaitLoaded blocks until every sample decode started so far has finished.
func (e *Engine) WaitLoaded() {
	e.cache.Wait()
}

// Loaded reports whether a decoded buffer is ready for the track.
func (e *Engine) Loaded(id string) bool {
	_, ok := e.cache.Get(id)
	return ok
}

func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

func (e *Engine) Cursor() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

func (e *Engine) Tempo() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tempo
}

// Steps returns the grid length N.
func (e *Engine) Steps() int {
	return e.steps
}

// StepDuration is 60s / bpm / stepsPerBeat.
func (e *Engine) StepDuration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stepDurationLocked()
}

// Tracks returns snapshots of every track in collection order.
func (e *Engine) Tracks() []Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Track, len(e.tracks))
	for i, t := range e.tracks {
		out[i] = t.snapshot()
	}
	return out
}

// Track returns a snapshot of one track.
func (e *Engine) Track(id string) (Track, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.trackLocked(id)
	if t == nil {
		return Track{}, false
	}
	return t.snapshot(), true
}

// onPulse advances the cursor and triggers every active step under it.
// Pulses from a stopped or replaced clock run are dropped.
func (e *Engine) onPulse(p clock.Pulse) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != Playing || !e.clock.Current(p.Run) {
		return
	}

	e.cursor = (e.cursor + 1) % e.steps
	for _, t := range e.tracks {
		step := t.steps[e.cursor]
		if !step.Active {
			continue
		}
		if buf, ok := e.cache.Get(e.sourceLocked(t, step)); ok {
			e.player.Play(buf)
		}
	}
	e.publishLocked(Event{Kind: EventCursor, Cursor: e.cursor, Mode: e.mode})
}

// sourceLocked resolves which track's buffer a step plays. An override that
// matches no track's sample falls back to the step's own track.
func (e *Engine) sourceLocked(t *track, step Step) string {
	if step.SampleID == "" || step.SampleID == t.sampleID {
		return t.id
	}
	for _, other := range e.tracks {
		if other.sampleID == step.SampleID {
			return other.id
		}
	}
	return t.id
}

func (e *Engine) stopLocked() {
	e.clock.Stop()
	e.cursor = 0
	e.setModeLocked(Stopped)
}

func (e *Engine) setModeLocked(m Mode) {
	changed := e.mode != m
	e.mode = m
	if changed {
		e.logger.Debug("transport", slog.String("mode", m.String()), slog.Int("cursor", e.cursor))
	}
	e.publishLocked(Event{Kind: EventMode, Cursor: e.cursor, Mode: m})
}

func (e *Engine) publishLocked(ev Event) {
	for _, ch := range e.watchers {
		select {
		case ch <- ev:
		default:
			// watcher is behind; drop rather than stall the pulse
		}
	}
}

func (e *Engine) stepDurationLocked() time.Duration {
	return time.Duration(float64(time.Minute) / e.tempo / float64(e.stepsPerBeat))
}

func (e *Engine) indexLocked(id string) int {
	for i, t := range e.tracks {
		if t.id == id {
			return i
		}
	}
	return -1
}

func (e *Engine) trackLocked(id string) *track {
	if i := e.indexLocked(id); i >= 0 {
		return e.tracks[i]
	}
	return nil
}

func validTempo(bpm float64) bool {
	return bpm > 0 && !math.IsInf(bpm, 0) && !math.IsNaN(bpm)
}
