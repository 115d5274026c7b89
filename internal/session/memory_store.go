package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Sessions do not survive a
// restart; the cleaner handles idle expiry.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStore initializes an in-memory Store implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]*Session),
	}
}

// Get returns the stored session or ErrSessionNotFound when absent.
func (s *MemoryStore) Get(_ context.Context, userID int64) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := *sess
	return &copied, nil
}

// Set saves the provided session, stamping UpdatedAt.
func (s *MemoryStore) Set(_ context.Context, userID int64, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *sess
	copied.UpdatedAt = time.Now().UTC()
	s.sessions[userID] = &copied

	return nil
}

// Clear removes the stored session for the given user.
func (s *MemoryStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}

// All returns every stored session.
func (s *MemoryStore) All(_ context.Context) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		copied := *sess
		result = append(result, &copied)
	}

	return result, nil
}
