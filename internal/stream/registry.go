package stream

import "sync"

// Registry is the concurrent-safe single source of truth for running
// sessions. It is mutated by the manager on start/stop and by the
// supervisor's asynchronous exit callbacks.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Put registers a session under its identifier
func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get returns the session for the given id, if present
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove deletes a session by id and reports whether it was present.
// Removing an absent id is a no-op: a process-exit callback and an
// explicit stop request may race to remove the same session.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// List returns a snapshot of summaries for all registered sessions
func (r *Registry) List() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]Summary, 0, len(r.sessions))
	for _, s := range r.sessions {
		summaries = append(summaries, s.Summary())
	}
	return summaries
}

// Len returns the number of registered sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
