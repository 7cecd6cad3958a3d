package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process fact store for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string][]Record)}
}

func (s *InMemoryStore) Create(_ context.Context, userProfileID, memType, content, sourceSessionID string) (Record, error) {
	if err := validateCreate(userProfileID, content); err != nil {
		return Record{}, err
	}
	if memType == "" {
		memType = "general"
	}

	record := Record{
		UserProfileID:   userProfileID,
		MemoryID:        uuid.NewString(),
		MemType:         memType,
		Content:         content,
		CreatedAt:       time.Now().UTC(),
		SourceSessionID: sourceSessionID,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userProfileID] = append(s.records[userProfileID], record)
	return record, nil
}

func (s *InMemoryStore) List(_ context.Context, userProfileID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.records[userProfileID]
	out := make([]Record, len(arr))
	copy(out, arr)
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
