// Package buffer decodes track samples in the background and keeps the
// resulting playable buffers keyed by track identity.
package buffer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/go-audio/audio"

	"github.com/icco/beatgrid/internal/sample"
)

// Decoder turns a raw payload into a playable buffer.
type Decoder interface {
	Decode(ctx context.Context, p sample.Payload) (*audio.Float32Buffer, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(ctx context.Context, p sample.Payload) (*audio.Float32Buffer, error)

func (f DecoderFunc) Decode(ctx context.Context, p sample.Payload) (*audio.Float32Buffer, error) {
	return f(ctx, p)
}

type task struct {
	gen    uint64
	cancel context.CancelFunc
}

// Cache is an ownership table from track identity to decoded buffer. Stored
// buffers are never mutated, so a buffer handed to a player stays valid even
// after its entry is replaced or evicted.
//
// Every Load starts a decode tagged with a generation number. Only the decode
// holding the current generation for its identity may write the entry, so a
// slow decode of an old payload never clobbers a newer one.
type Cache struct {
	decoder Decoder
	logger  *slog.Logger

	mu       sync.Mutex
	entries  map[string]*audio.Float32Buffer
	inflight map[string]task
	gen      uint64
	wg       sync.WaitGroup
}

// New creates an empty cache. A nil logger means slog.Default().
func New(decoder Decoder, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		decoder:  decoder,
		logger:   logger,
		entries:  make(map[string]*audio.Float32Buffer),
		inflight: make(map[string]task),
	}
}

// Load schedules an asynchronous decode of p for id, superseding any decode
// still running for the same id. Failures are logged and leave the previous
// entry in place. An empty payload schedules nothing.
func (c *Cache) Load(id string, p sample.Payload) {
	if p.Empty() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked(id)
	c.gen++
	ctx, cancel := context.WithCancel(context.Background())
	t := task{gen: c.gen, cancel: cancel}
	c.inflight[id] = t

	c.wg.Add(1)
	go c.decode(ctx, id, t.gen, p)
}

func (c *Cache) decode(ctx context.Context, id string, gen uint64, p sample.Payload) {
	defer c.wg.Done()

	buf, err := c.decoder.Decode(ctx, p)

	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.inflight[id]
	if !ok || t.gen != gen {
		// superseded or evicted while decoding
		return
	}
	delete(c.inflight, id)
	t.cancel()

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Warn("sample decode failed",
				slog.String("track", id),
				slog.String("mime", p.MIMEType),
				slog.Any("error", err))
		}
		return
	}
	if buf == nil {
		c.logger.Warn("decoder returned no buffer", slog.String("track", id))
		return
	}
	c.entries[id] = buf
	c.logger.Debug("sample decoded",
		slog.String("track", id),
		slog.Int("frames", buf.NumFrames()),
		slog.Int("rate", buf.Format.SampleRate))
}

// Get returns the decoded buffer for id without blocking. Absence means the
// decode has not finished or never succeeded.
func (c *Cache) Get(id string) (*audio.Float32Buffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf, ok := c.entries[id]
	return buf, ok
}

// Pending reports whether a decode is in flight for id.
func (c *Cache) Pending(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[id]
	return ok
}

// Evict drops the entry for id and abandons any decode in flight for it.
func (c *Cache) Evict(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked(id)
	delete(c.entries, id)
}

// Clear drops every entry and abandons all decodes in flight.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.inflight {
		c.cancelLocked(id)
	}
	clear(c.entries)
}

// Len returns the number of decoded entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Wait blocks until every decode started so far has finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) cancelLocked(id string) {
	if t, ok := c.inflight[id]; ok {
		t.cancel()
		delete(c.inflight, id)
	}
}
