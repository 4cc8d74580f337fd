// Package dedup tracks which templates or questions a session has already
// seen so generators can avoid repeats.
package dedup

import "sync"

// Store records per-session usage. Keys are template ids in template mode and
// question ids in stable mode. Implementations must be safe for concurrent use.
type Store interface {
	// IsUsed reports whether key was marked in the session.
	IsUsed(sessionID, key string) bool
	// MarkUsed records key for the session, creating the session if needed.
	MarkUsed(sessionID, key string)
	// Reset empties the session's set. The session keeps existing.
	Reset(sessionID string)
	// Clear removes the session entirely.
	Clear(sessionID string)
	// Exists reports whether the session is known.
	Exists(sessionID string) bool
	// Len returns the number of keys used in the session.
	Len(sessionID string) int
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]struct{}
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string]struct{})}
}

func (s *MemoryStore) IsUsed(sessionID, key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[sessionID][key]
	return ok
}

func (s *MemoryStore) MarkUsed(sessionID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sessions[sessionID]
	if !ok {
		set = make(map[string]struct{})
		s.sessions[sessionID] = set
	}
	set[key] = struct{}{}
}

func (s *MemoryStore) Reset(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = make(map[string]struct{})
}

func (s *MemoryStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *MemoryStore) Exists(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[sessionID]
	return ok
}

func (s *MemoryStore) Len(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[sessionID])
}

// Sessions returns the number of live sessions.
func (s *MemoryStore) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

var _ Store = (*MemoryStore)(nil)
