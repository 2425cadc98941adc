package profile

import (
	"context"
	"sync"
	"time"

	id "idproof/pkg/domain"
	dErrors "idproof/pkg/domain-errors"
)

// InMemoryStore is a thread-safe in-memory profile store for tests and local
// development.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.UserID]Profile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[id.UserID]Profile)}
}

func (s *InMemoryStore) MarkVerified(_ context.Context, userID id.UserID, verifiedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		p = Profile{UserID: userID}
	}
	p.IsVerified = true
	if p.LastVerified == nil || verifiedAt.After(*p.LastVerified) {
		t := verifiedAt
		p.LastVerified = &t
	}
	s.profiles[userID] = p
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, userID id.UserID) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return Profile{}, dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	return p, nil
}
