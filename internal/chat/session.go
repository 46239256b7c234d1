package chat

import (
	"sync"
)

// SessionStore persists the chat session id between runs.
type SessionStore interface {
	LoadSession() (string, error)
	SaveSession(id string) error
}

// Session is the chat session id shared by all conversations. The zero id
// means the next request starts a new server-side session.
type Session struct {
	mu    sync.Mutex
	id    string
	store SessionStore
}

// NewSession creates a session backed by store, which may be nil.
func NewSession(store SessionStore) *Session {
	s := &Session{store: store}
	s.Reload()
	return s
}

// ID returns the current session id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Reload refreshes the id from the store. A failed load keeps the current id.
func (s *Session) Reload() {
	if s.store == nil {
		return
	}
	id, err := s.store.LoadSession()
	if err != nil {
		log.Debugf("failed to load session: %v", err)
		return
	}
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
}

// Update records the id reported by the server and persists it when it changed.
// An empty id is ignored.
func (s *Session) Update(id string) error {
	if id == "" {
		return nil
	}
	s.mu.Lock()
	changed := id != s.id
	s.id = id
	s.mu.Unlock()

	if !changed || s.store == nil {
		return nil
	}
	log.Debugf("session is now %s", id)
	return s.store.SaveSession(id)
}

// Reset forgets the session so the next request starts a new one.
func (s *Session) Reset() error {
	s.mu.Lock()
	s.id = ""
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.SaveSession("")
}
