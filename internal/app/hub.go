package app

import "sync"

// Event types pushed to subscribers.
const (
	EventLeaderboard  = "leaderboard"
	EventSettings     = "settings"
	EventAnnouncement = "announcement"
)

// Event is a game-wide notification fanned out to every subscriber.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub fans events out to in-process subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	last        map[string]Event
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan Event]struct{}),
		last:        make(map[string]Event),
	}
}

// Subscribe returns a channel receiving every published event, primed with the latest event of each type.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	for _, ev := range h.last {
		select {
		case ch <- ev:
		default:
		}
	}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber without blocking on slow readers.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last[ev.Type] = ev
	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			// full buffer: drop the oldest update so the newest state still gets through
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
