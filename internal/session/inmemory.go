package session

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a simple in-process session log for local/dev use.
type InMemoryStore struct {
	mu   sync.RWMutex
	logs map[string]*sessionLog
}

type sessionLog struct {
	mu    sync.Mutex
	turns []Turn
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{logs: make(map[string]*sessionLog)}
}

func (s *InMemoryStore) Append(_ context.Context, sessionID, role, text string) (Turn, error) {
	if err := validateAppend(sessionID, role, text); err != nil {
		return Turn{}, err
	}

	log := s.logFor(sessionID)

	// The per-session lock is the serialization point: concurrent appends
	// on one session get distinct, contiguous sequence indexes.
	log.mu.Lock()
	defer log.mu.Unlock()

	turn := Turn{
		SessionID:     sessionID,
		SequenceIndex: int64(len(log.turns)) + 1,
		Role:          role,
		Text:          text,
		Timestamp:     time.Now().UTC(),
	}
	if n := len(log.turns); n > 0 && turn.Timestamp.Before(log.turns[n-1].Timestamp) {
		// Keep timestamps non-decreasing even if the wall clock steps back.
		turn.Timestamp = log.turns[n-1].Timestamp
	}
	log.turns = append(log.turns, turn)
	return turn, nil
}

func (s *InMemoryStore) ReadRecent(_ context.Context, sessionID string, limit int) ([]Turn, error) {
	s.mu.RLock()
	log, ok := s.logs[sessionID]
	s.mu.RUnlock()
	if !ok {
		return []Turn{}, nil
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	n := len(log.turns)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Turn, limit)
	copy(out, log.turns[n-limit:])
	return out, nil
}

func (s *InMemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, sessionID)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }

func (s *InMemoryStore) logFor(sessionID string) *sessionLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, ok := s.logs[sessionID]
	if !ok {
		log = &sessionLog{}
		s.logs[sessionID] = log
	}
	return log
}
