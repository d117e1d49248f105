package repository

import (
	"context"
	"time"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/cache"
)

// MemorySessionStateStore is the single instance fallback used when no Redis is configured
type MemorySessionStateStore struct {
	items cache.Store[domain.SessionState]
}

func NewMemorySessionStateStore() *MemorySessionStateStore {
	return &MemorySessionStateStore{items: cache.NewInMemoryCache[domain.SessionState](5 * time.Minute)}
}

func (s *MemorySessionStateStore) Get(_ context.Context, scenarioID, userID string) (*domain.SessionState, error) {
	state, ok := s.items.Get(sessionKey(scenarioID, userID))
	if !ok {
		return nil, nil
	}
	if state.StartedAt != nil {
		started := *state.StartedAt
		state.StartedAt = &started
	}
	return &state, nil
}

func (s *MemorySessionStateStore) Save(_ context.Context, state *domain.SessionState, ttl time.Duration) error {
	stored := *state
	if state.StartedAt != nil {
		started := *state.StartedAt
		stored.StartedAt = &started
	}
	s.items.Set(sessionKey(state.ScenarioID, state.UserID), stored, ttl)
	return nil
}

func (s *MemorySessionStateStore) Delete(_ context.Context, scenarioID, userID string) error {
	s.items.Delete(sessionKey(scenarioID, userID))
	return nil
}

func (s *MemorySessionStateStore) Close() error {
	s.items.Stop()
	return nil
}
