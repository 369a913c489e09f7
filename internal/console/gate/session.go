package gate

import "amia-console/internal/domain"

// SessionHolder is the console's current principal: exactly one session or
// none. It is written only on the console loop.
type SessionHolder struct {
	session *domain.Session
	nextID  int
	subs    map[int]func(*domain.Session)
}

func NewSessionHolder() *SessionHolder {
	return &SessionHolder{subs: make(map[int]func(*domain.Session))}
}

// Get returns the current session or nil.
func (h *SessionHolder) Get() *domain.Session {
	return h.session
}

// Set replaces the session wholesale and notifies subscribers.
func (h *SessionHolder) Set(s *domain.Session) {
	h.session = s
	for id := 0; id < h.nextID; id++ {
		if fn, ok := h.subs[id]; ok {
			fn(s)
		}
	}
}

// Clear removes the session.
func (h *SessionHolder) Clear() {
	h.Set(nil)
}

// Subscribe registers fn for session changes and returns its cancel function.
func (h *SessionHolder) Subscribe(fn func(*domain.Session)) func() {
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	return func() { delete(h.subs, id) }
}
