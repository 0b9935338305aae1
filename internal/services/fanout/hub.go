// Package fanout delivers outbound events to every subscribed observer
// without letting a slow observer hold up the publisher.
package fanout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"tadoba-control-go/internal/models"
)

var ErrHubClosed = errors.New("fanout: hub closed")

// Subscription is one observer's bounded inbox. C is closed when the
// observer unsubscribes, is evicted, or the hub shuts down.
type Subscription struct {
	ID string
	C  <-chan models.Envelope

	ch      chan models.Envelope
	evicted atomic.Bool
}

// Evicted reports whether the hub dropped this observer for falling behind
func (s *Subscription) Evicted() bool {
	return s.evicted.Load()
}

// Sink receives a copy of every published event, e.g. a message broker
type Sink interface {
	Mirror(env models.Envelope) error
	Name() string
	Shutdown(ctx context.Context) error
}

type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	buffer int
	closed bool

	sink      Sink
	sinkQueue chan models.Envelope
	sinkDone  chan struct{}

	telemetry *Telemetry
	logger    zerolog.Logger

	published  atomic.Uint64
	delivered  atomic.Uint64
	evictions  atomic.Uint64
	sinkDrops  atomic.Uint64
	sinkErrors atomic.Uint64
}

func NewHub(buffer int, logger zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 1
	}
	return &Hub{
		subs:      make(map[string]*Subscription),
		buffer:    buffer,
		telemetry: NewTelemetry(),
		logger:    logger,
	}
}

func (h *Hub) Subscribe(id string) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	if old, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(old.ch)
	}
	ch := make(chan models.Envelope, h.buffer)
	sub := &Subscription{ID: id, C: ch, ch: ch}
	h.subs[id] = sub
	h.logger.Debug().Str("observer", id).Int("observers", len(h.subs)).Msg("Observer subscribed")
	return sub, nil
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id)
}

func (h *Hub) removeLocked(id string) bool {
	sub, ok := h.subs[id]
	if !ok {
		return false
	}
	delete(h.subs, id)
	close(sub.ch)
	return true
}

// Publish delivers the event to every current observer at most once and
// returns how many received it. It never blocks: an observer whose buffer
// is full is evicted.
func (h *Hub) Publish(event string, payload any) int {
	env := models.Envelope{Event: event, Data: payload}
	h.published.Add(1)

	var slow []*Subscription
	sent := 0

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return 0
	}
	for _, sub := range h.subs {
		select {
		case sub.ch <- env:
			sent++
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	h.delivered.Add(uint64(sent))
	if len(slow) > 0 {
		h.evict(slow)
	}
	h.mirror(env)
	return sent
}

func (h *Hub) evict(slow []*Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range slow {
		// The observer may have been replaced or removed since the RLock.
		if h.subs[sub.ID] != sub {
			continue
		}
		sub.evicted.Store(true)
		h.removeLocked(sub.ID)
		h.evictions.Add(1)
		h.logger.Warn().Str("observer", sub.ID).Msg("Observer evicted, send buffer full")
	}
}

// AttachSink mirrors every published event to sink from a single
// background goroutine. Events are dropped when the queue is full.
func (h *Hub) AttachSink(sink Sink, queue int) {
	if queue <= 0 {
		queue = 256
	}
	h.mu.Lock()
	h.sink = sink
	h.sinkQueue = make(chan models.Envelope, queue)
	h.sinkDone = make(chan struct{})
	h.mu.Unlock()

	go func(q <-chan models.Envelope, done chan<- struct{}) {
		defer close(done)
		for env := range q {
			if err := sink.Mirror(env); err != nil {
				h.sinkErrors.Add(1)
				h.logger.Error().Err(err).Str("sink", sink.Name()).Str("event", env.Event).Msg("Failed to mirror event")
			}
		}
	}(h.sinkQueue, h.sinkDone)
	h.logger.Info().Str("sink", sink.Name()).Msg("Event sink attached")
}

func (h *Hub) mirror(env models.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.sinkQueue == nil || h.closed {
		return
	}
	select {
	case h.sinkQueue <- env:
	default:
		h.sinkDrops.Add(1)
	}
}

func (h *Hub) Telemetry() *Telemetry {
	return h.telemetry
}

func (h *Hub) Observers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

type Stats struct {
	Observers  int    `json:"observers"`
	Published  uint64 `json:"published"`
	Delivered  uint64 `json:"delivered"`
	Evictions  uint64 `json:"evictions"`
	SinkDrops  uint64 `json:"sink_drops"`
	SinkErrors uint64 `json:"sink_errors"`
}

func (h *Hub) Stats() Stats {
	return Stats{
		Observers:  h.Observers(),
		Published:  h.published.Load(),
		Delivered:  h.delivered.Load(),
		Evictions:  h.evictions.Load(),
		SinkDrops:  h.sinkDrops.Load(),
		SinkErrors: h.sinkErrors.Load(),
	}
}

// Shutdown closes every subscription, drains the sink queue and shuts the
// sink down.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	for id := range h.subs {
		h.removeLocked(id)
	}
	sink, queue, done := h.sink, h.sinkQueue, h.sinkDone
	h.mu.Unlock()

	if sink == nil {
		return nil
	}
	close(queue)
	select {
	case <-done:
	case <-ctx.Done():
		h.logger.Warn().Msg("Timed out draining event sink")
	}
	return sink.Shutdown(ctx)
}
