package clock

import (
	"sync"
	"time"
)

// Manual is a clock that pulses only when Tick is called.
type Manual struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func(Pulse)
	run      uint64
	seq      uint64
	running  bool
	starts   int
}

// NewManual creates a stopped manual clock.
func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Start(interval time.Duration, fn func(Pulse)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interval = interval
	m.fn = fn
	m.run++
	m.seq = 0
	m.running = true
	m.starts++
}

func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.run++
}

func (m *Manual) Reconfigure(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interval = interval
	if m.running {
		m.run++
		m.starts++
	}
}

func (m *Manual) Current(run uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running && m.run == run
}

func (m *Manual) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manual) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// Starts counts how many pulse sources have been started, including restarts
// caused by Reconfigure.
func (m *Manual) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

// Tick delivers one pulse if the clock is running and reports whether it did.
// The callback runs on the caller's goroutine.
func (m *Manual) Tick() bool {
	m.mu.Lock()
	if !m.running || m.fn == nil {
		m.mu.Unlock()
		return false
	}
	m.seq++
	p := Pulse{Run: m.run, Seq: m.seq, At: time.Now()}
	fn := m.fn
	m.mu.Unlock()
	fn(p)
	return true
}

// TickN delivers n pulses and returns how many were delivered.
func (m *Manual) TickN(n int) int {
	delivered := 0
	for i := 0; i < n; i++ {
		if !m.Tick() {
			break
		}
		delivered++
	}
	return delivered
}

// Stale returns a pulse stamped with the previous run, as a ticker goroutine
// that lost a race with Stop or Reconfigure would deliver.
func (m *Manual) Stale() Pulse {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Pulse{Run: m.run - 1, At: time.Now()}
}
