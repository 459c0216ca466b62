package feed

import (
	"sync"

	"github.com/alfagnish/userreg/internal/registry"
	"go.uber.org/zap"
)

// Event is a single registry change delivered to subscribers.
type Event struct {
	Type registry.ChangeType `json:"type"`
	User registry.User       `json:"user"`
}

// Hub fans registry changes out to any number of subscribers. Publishing
// never blocks; a subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
	buffer int
	log    *zap.Logger
}

// NewHub creates a hub whose subscriber channels hold up to buffer events.
func NewHub(buffer int, log *zap.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[int]chan Event),
		buffer: buffer,
		log:    log,
	}
}

// Subscribe registers a new subscriber. The returned func unsubscribes and
// closes the channel; it is safe to call more than once. After Close the
// returned channel is already closed.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
}

// Close ends every subscription by closing its channel and refuses new
// ones. Safe to call more than once.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish delivers ev to every subscriber that has room for it.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Warn("feed subscriber lagging, event dropped",
				zap.Int("subscriber", id),
				zap.String("type", string(ev.Type)),
				zap.Int("user_id", ev.User.ID),
			)
		}
	}
}

// UserChanged implements registry.Observer.
func (h *Hub) UserChanged(change registry.ChangeType, u registry.User) {
	h.Publish(Event{Type: change, User: u})
}
