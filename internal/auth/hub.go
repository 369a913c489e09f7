package auth

import (
	"sync"

	"amia-console/internal/domain"
)

// Hub fans session changes out to subscribers keyed by token.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan *domain.Session]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[chan *domain.Session]struct{})}
}

// Subscribe registers a channel for token. The caller must invoke cancel.
func (h *Hub) Subscribe(token string) (<-chan *domain.Session, func()) {
	ch := make(chan *domain.Session, 8)

	h.mu.Lock()
	set, ok := h.subscribers[token]
	if !ok {
		set = make(map[chan *domain.Session]struct{})
		h.subscribers[token] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		set, ok := h.subscribers[token]
		if !ok {
			return
		}
		if _, ok := set[ch]; ok {
			delete(set, ch)
			close(ch)
		}
		if len(set) == 0 {
			delete(h.subscribers, token)
		}
	}
	return ch, cancel
}

// Publish delivers session to every subscriber of token. A slow subscriber
// loses its oldest pending update rather than blocking the publisher.
func (h *Hub) Publish(token string, session *domain.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[token] {
		select {
		case ch <- session:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- session
		}
	}
}

// Len reports the number of tokens with live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
