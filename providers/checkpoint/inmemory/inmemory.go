// Package inmemory is a process-lifetime checkpoint store. Threads are never
// evicted.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/leofalp/agentloop/providers/ai"
	"github.com/leofalp/agentloop/providers/checkpoint"
	"github.com/leofalp/agentloop/providers/observability"
)

// Store keeps thread states in a map guarded by an RWMutex. States are
// deep-copied on the way in and out, so callers never share slices with it.
type Store struct {
	checkpoint.Locker

	mu      sync.RWMutex
	threads map[string][]ai.Message
}

var (
	_ checkpoint.Store        = (*Store)(nil)
	_ checkpoint.ThreadLocker = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{threads: make(map[string][]ai.Message)}
}

func (s *Store) Save(ctx context.Context, threadID string, state checkpoint.State) error {
	if threadID == "" {
		return checkpoint.ErrEmptyThreadID
	}

	next := ai.CloneMessages(state.Messages)

	s.mu.Lock()
	stored := s.threads[threadID]
	if !checkpoint.Extends(stored, next) {
		s.mu.Unlock()
		return fmt.Errorf("inmemory: save %q: %w", threadID, checkpoint.ErrNotAppendOnly)
	}
	s.threads[threadID] = next
	s.mu.Unlock()

	observability.AddEvent(ctx, observability.EventCheckpointSaved,
		observability.String(observability.AttrThreadID, threadID),
		observability.Int(observability.AttrCheckpointMessages, len(next)),
	)
	return nil
}

func (s *Store) Load(ctx context.Context, threadID string) (checkpoint.State, bool, error) {
	if threadID == "" {
		return checkpoint.State{Messages: []ai.Message{}}, false, checkpoint.ErrEmptyThreadID
	}

	s.mu.RLock()
	state := checkpoint.State{Messages: s.threads[threadID]}.Clone()
	s.mu.RUnlock()
	found := len(state.Messages) > 0

	observability.AddEvent(ctx, observability.EventCheckpointLoaded,
		observability.String(observability.AttrThreadID, threadID),
		observability.Bool(observability.AttrCheckpointFound, found),
		observability.Int(observability.AttrCheckpointMessages, len(state.Messages)),
	)
	return state, found, nil
}

// Delete forgets a thread. Deleting an unknown thread is a no-op.
func (s *Store) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	delete(s.threads, threadID)
	s.mu.Unlock()
	return nil
}
