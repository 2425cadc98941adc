package verification

import (
	"context"
	"sync"

	id "idproof/pkg/domain"
	dErrors "idproof/pkg/domain-errors"
)

// InMemoryAttemptStore is a thread-safe in-memory attempt store for tests and
// local development.
type InMemoryAttemptStore struct {
	mu       sync.RWMutex
	attempts map[id.UserID]Attempt
}

func NewInMemoryAttemptStore() *InMemoryAttemptStore {
	return &InMemoryAttemptStore{attempts: make(map[id.UserID]Attempt)}
}

func (s *InMemoryAttemptStore) Save(_ context.Context, attempt Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.UserID] = attempt
	return nil
}

func (s *InMemoryAttemptStore) Finish(_ context.Context, attempt Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.attempts[attempt.UserID]
	if !ok || current.ID != attempt.ID {
		return nil
	}
	s.attempts[attempt.UserID] = attempt
	return nil
}

func (s *InMemoryAttemptStore) Current(_ context.Context, userID id.UserID) (Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attempt, ok := s.attempts[userID]
	if !ok {
		return Attempt{}, dErrors.New(dErrors.CodeNotFound, "no verification attempt found")
	}
	return attempt, nil
}
