package session

import (
	"log/slog"
	"sync"
)

// Hub tracks every live session, keyed by session id, so a single
// occamy process can bridge more than one upstream VNC connection at
// once. Adapted from brporter-phosphor's Hub, trimmed of the
// reconnect-grace-period machinery a terminal relay needs but a VNC
// bridge does not (spec.md has no "session persists across reconnects"
// requirement — see its Non-goals).
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{sessions: make(map[string]*Session), logger: logger}
}

// Register adds a session to the hub.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID] = s
	h.logger.Info("session registered", "id", s.ID)
}

// Unregister removes and stops a session.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	if ok {
		s.Stop()
		h.logger.Info("session unregistered", "id", id)
	}
}

// Get looks up a session by id.
func (h *Hub) Get(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// List returns every currently registered session.
func (h *Hub) List() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// CloseAll stops every session, used during process shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions {
		s.Stop()
	}
	h.sessions = make(map[string]*Session)
}
