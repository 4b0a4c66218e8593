package memory

import (
	"context"
	"sync"

	"github.com/vovakirdan/agentroom-server/internal/core"
)

// MemoryStore keeps transcripts in process memory. History is lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string][]core.Message
}

// New creates an empty store.
func New() *MemoryStore {
	return &MemoryStore{rooms: make(map[string][]core.Message)}
}

// Load returns a copy of the room transcript.
func (s *MemoryStore) Load(_ context.Context, room string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.rooms[room]
	out := make([]core.Message, len(history))
	copy(out, history)
	return out, nil
}

// Append adds msg to the end of the room transcript.
func (s *MemoryStore) Append(_ context.Context, room string, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms[room] = append(s.rooms[room], msg)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
