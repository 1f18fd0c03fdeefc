// Package registry tracks the set of live sessions. All mutation and
// iteration goes through a mutex; iteration works over a snapshot taken
// under the lock, so concurrent add/remove never invalidates a fan-out in
// progress and a session removed mid-iteration is not double-delivered.
package registry

import "sync"

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func New() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Add registers a session under its ID.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Remove unregisters the session and returns it. Removing an absent id is a
// no-op returning nil, which is what makes leave announcements exactly-once:
// only the caller that actually removed the session gets it back.
func (r *Registry) Remove(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	delete(r.sessions, id)
	return s
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// NameTaken reports whether a live session already uses displayName.
func (r *Registry) NameTaken(displayName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.DisplayName == displayName {
			return true
		}
	}
	return false
}

// ForEach invokes fn for every session not in excluding, over a snapshot
// taken at call time.
func (r *Registry) ForEach(fn func(*Session), excluding ...string) {
	r.mu.RLock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		snapshot = append(snapshot, s)
	}
	r.mu.RUnlock()

	for _, s := range snapshot {
		if contains(excluding, s.ID) {
			continue
		}
		fn(s)
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
