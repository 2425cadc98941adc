package objectstore

import (
	"context"
	"io"
	"sync"

	dErrors "idproof/pkg/domain-errors"
)

// InMemoryStore keeps documents in process memory. It intentionally favors
// clarity over performance; production uses the S3 store.
type InMemoryStore struct {
	mu      sync.RWMutex
	objects map[string]storedObject
}

type storedObject struct {
	data         []byte
	contentType  string
	cacheControl string
	writes       int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{objects: make(map[string]storedObject)}
}

func (s *InMemoryStore) Put(_ context.Context, req PutRequest) (PutResult, error) {
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return PutResult{}, dErrors.Wrap(err, dErrors.CodeStorageFailed, "read document body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.objects[req.Key]
	s.objects[req.Key] = storedObject{
		data:         data,
		contentType:  req.ContentType,
		cacheControl: req.CacheControl,
		writes:       prev.writes + 1,
	}
	return PutResult{Ref: "memory://" + req.Key}, nil
}

// Object returns the stored bytes and content type for a key.
// Test hook: lets assertions inspect what a Put actually wrote.
func (s *InMemoryStore) Object(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj.data, obj.contentType, ok
}

// CacheControl returns the cache directive stored for a key.
func (s *InMemoryStore) CacheControl(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[key].cacheControl
}

// Writes returns how many times a key has been written. Zero means never.
func (s *InMemoryStore) Writes(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[key].writes
}

// Len returns the number of distinct stored keys.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
