// Package clock produces the periodic pulses that drive the sequencer.
//
// Ticker is a wall-clock source built on time.Ticker. Pulse delivery is
// subject to goroutine scheduling jitter and drifts under load; it is not
// sample accurate. Manual delivers pulses only when told to and exists for
// deterministic tests.
package clock

import (
	"sync"
	"time"
)

// Pulse is one tick of a clock. Run identifies the start (or reconfigure)
// that produced it; receivers compare it against Current to discard pulses
// from a run that has since been stopped or replaced.
type Pulse struct {
	Run uint64
	Seq uint64
	At  time.Time
}

// Ticker is a restartable periodic pulse source. At most one time.Ticker is
// live at any moment.
type Ticker struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func(Pulse)
	run      uint64
	running  bool
	ticker   *time.Ticker
	stop     chan struct{}
}

// NewTicker creates a stopped ticker.
func NewTicker() *Ticker {
	return &Ticker{}
}

// Start begins pulsing fn every interval. Starting a running ticker replaces
// the previous run.
func (t *Ticker) Start(interval time.Duration, fn func(Pulse)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.haltLocked()
	t.interval = interval
	t.fn = fn
	t.launchLocked()
}

// Stop halts pulsing. Once Stop returns, Current reports false for every
// pulse issued before it.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.haltLocked()
	t.run++
}

// Reconfigure changes the interval. A running ticker is restarted at the new
// rate; a stopped one only records the interval.
func (t *Ticker) Reconfigure(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interval = interval
	if !t.running {
		return
	}
	t.haltLocked()
	t.launchLocked()
}

// Current reports whether run is the live run.
func (t *Ticker) Current(run uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running && t.run == run
}

// Running reports whether the ticker is pulsing.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Interval returns the configured pulse interval.
func (t *Ticker) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

func (t *Ticker) launchLocked() {
	if t.interval <= 0 || t.fn == nil {
		return
	}
	t.run++
	t.running = true
	t.ticker = time.NewTicker(t.interval)
	t.stop = make(chan struct{})
	go t.loop(t.run, t.ticker, t.stop, t.fn)
}

func (t *Ticker) haltLocked() {
	if !t.running {
		return
	}
	t.ticker.Stop()
	close(t.stop)
	t.ticker = nil
	t.stop = nil
	t.running = false
}

func (t *Ticker) loop(run uint64, tk *time.Ticker, stop <-chan struct{}, fn func(Pulse)) {
	var seq uint64
	for {
		select {
		case <-stop:
			return
		case now := <-tk.C:
			// a tick and a stop can be ready together; stop wins
			select {
			case <-stop:
				return
			default:
			}
			seq++
			fn(Pulse{Run: run, Seq: seq, At: now})
		}
	}
}
