package input

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bnema/keytap/internal/logger"
)

// Hub decouples capture callbacks from slow consumers. Publish never blocks,
// so it is safe to call from a native dispatch thread; events that do not fit
// in the buffer are dropped and counted.
type Hub struct {
	in      chan Event
	mu      sync.RWMutex
	subs    map[int]chan Event
	nextID  int
	dropped atomic.Uint64
}

// NewHub creates a hub buffering up to size events.
func NewHub(size int) *Hub {
	if size <= 0 {
		size = 1
	}
	return &Hub{
		in:   make(chan Event, size),
		subs: make(map[int]chan Event),
	}
}

// Publish queues e for fan-out. It reports false when e was dropped.
func (h *Hub) Publish(e Event) bool {
	select {
	case h.in <- e:
		return true
	default:
		h.dropped.Add(1)
		return false
	}
}

// Subscribe returns a channel receiving every published event and a function
// that removes the subscription. A subscriber that falls buf events behind
// misses events.
func (h *Hub) Subscribe(buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = 1
	}
	ch := make(chan Event, buf)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(ch)
			}
			h.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many events were dropped at Publish.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Run fans events out until ctx is done, then closes every subscription.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Event hub panic: %v", r)
		}
		h.mu.Lock()
		for id, ch := range h.subs {
			delete(h.subs, id)
			close(ch)
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-h.in:
			h.mu.RLock()
			for _, ch := range h.subs {
				select {
				case ch <- e:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}
