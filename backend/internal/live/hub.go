// Package live pushes board snapshots to subscribers whenever the store
// changes, the way a reactive query subscription would.
package live

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"themtwo/backend/internal/state"
)

// Subscriber receives full snapshots. Only the newest matters, so a full
// buffer loses its oldest entry instead of blocking the hub.
type Subscriber struct {
	ID        string
	send      chan *state.Snapshot
	closeOnce sync.Once
}

// C is the delivery channel. It is closed when the subscriber is removed or
// the hub stops.
func (s *Subscriber) C() <-chan *state.Snapshot {
	return s.send
}

func (s *Subscriber) close() {
	s.closeOnce.Do(func() { close(s.send) })
}

// Hub fans snapshots out to subscribers. All subscriber bookkeeping happens on
// the Run goroutine.
type Hub struct {
	register   chan *Subscriber
	unregister chan *Subscriber
	broadcast  chan *state.Snapshot
	done       chan struct{}

	subscribers map[*Subscriber]bool
	last        *state.Snapshot
	epoch       string
	version     uint64
	buffer      int

	drops  atomic.Int64
	logger *zap.Logger
}

// NewHub creates a hub whose subscribers queue up to buffer snapshots.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan *state.Snapshot),
		done:        make(chan struct{}),
		subscribers: make(map[*Subscriber]bool),
		epoch:       uuid.NewString(),
		buffer:      buffer,
		logger:      logger,
	}
}

// Run serves the hub until ctx is cancelled, then closes every subscriber.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	defer func() {
		for sub := range h.subscribers {
			sub.close()
			delete(h.subscribers, sub)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("Live hub stopping", zap.Int("subscribers", len(h.subscribers)))
			return nil
		case sub := <-h.register:
			h.subscribers[sub] = true
			if h.last != nil {
				h.deliver(sub, h.last)
			}
			h.logger.Debug("Subscriber registered",
				zap.String("subscriber_id", sub.ID),
				zap.Int("subscribers", len(h.subscribers)),
			)
		case sub := <-h.unregister:
			if h.subscribers[sub] {
				delete(h.subscribers, sub)
				sub.close()
				h.logger.Debug("Subscriber removed", zap.String("subscriber_id", sub.ID))
			}
		case snap := <-h.broadcast:
			h.version++
			snap.Epoch = h.epoch
			snap.Version = h.version
			h.last = snap
			for sub := range h.subscribers {
				h.deliver(sub, snap)
			}
		}
	}
}

// deliver never blocks: when the queue is full the oldest snapshot is dropped.
func (h *Hub) deliver(sub *Subscriber, snap *state.Snapshot) {
	for {
		select {
		case sub.send <- snap:
			return
		default:
		}
		select {
		case <-sub.send:
			h.drops.Add(1)
		default:
		}
	}
}

// Epoch identifies this hub instance. Versions only compare within an epoch.
func (h *Hub) Epoch() string {
	return h.epoch
}

// Subscribe registers a new subscriber. The latest snapshot, if any, is
// delivered straight away.
func (h *Hub) Subscribe(ctx context.Context) (*Subscriber, error) {
	sub := &Subscriber{
		ID:   uuid.NewString(),
		send: make(chan *state.Snapshot, h.buffer),
	}
	select {
	case h.register <- sub:
		return sub, nil
	case <-h.done:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Unsubscribe removes sub and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Publish stamps snap with the next version and sends it to every subscriber.
// The hub takes ownership of snap.
func (h *Hub) Publish(ctx context.Context, snap *state.Snapshot) error {
	select {
	case h.broadcast <- snap:
		return nil
	case <-h.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drops returns how many queued snapshots were discarded for slow subscribers.
func (h *Hub) Drops() int64 {
	return h.drops.Load()
}
