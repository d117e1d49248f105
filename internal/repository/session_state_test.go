package repository

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulai/simulai/internal/domain"
)

func newTestRedisSessionStore(t *testing.T) (*RedisSessionStateStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	s, err := NewRedisSessionStateStore(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		mr.Close()
		t.Fatalf("failed to create RedisSessionStateStore: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
		mr.Close()
	})
	return s, mr
}

func TestRedisSessionStateStore(t *testing.T) {
	s, mr := newTestRedisSessionStore(t)
	ctx := context.Background()

	state, err := s.Get(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Nil(t, state)

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, &domain.SessionState{
		ScenarioID:     "s1",
		UserID:         "u1",
		PartialSeconds: 42.5,
		StartedAt:      &started,
		UpdatedAt:      started,
	}, time.Hour))

	assert.True(t, mr.Exists("simulai:session:s1:u1"))
	assert.Equal(t, time.Hour, mr.TTL("simulai:session:s1:u1"))

	state, err = s.Get(ctx, "s1", "u1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 42500*time.Millisecond, state.PartialDuration())
	require.NotNil(t, state.StartedAt)
	assert.True(t, started.Equal(*state.StartedAt))

	mr.FastForward(2 * time.Hour)
	state, err = s.Get(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, s.Save(ctx, &domain.SessionState{ScenarioID: "s1", UserID: "u1"}, 0))
	require.NoError(t, s.Delete(ctx, "s1", "u1"))
	assert.False(t, mr.Exists("simulai:session:s1:u1"))
}

func TestRedisSessionStateStore_CorruptValue(t *testing.T) {
	s, mr := newTestRedisSessionStore(t)
	require.NoError(t, mr.Set("simulai:session:s1:u1", "not json"))

	_, err := s.Get(context.Background(), "s1", "u1")
	assert.ErrorContains(t, err, "failed to decode session state")
}

func TestNewRedisSessionStateStore_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisSessionStateStore(context.Background(), addr, "", 0)
	assert.ErrorContains(t, err, "failed to connect to Redis")
}

func TestMemorySessionStateStore(t *testing.T) {
	s := NewMemorySessionStateStore()
	defer s.Close()
	ctx := context.Background()

	state, err := s.Get(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Nil(t, state)

	started := time.Now().UTC()
	original := &domain.SessionState{ScenarioID: "s1", UserID: "u1", PartialSeconds: 10, StartedAt: &started}
	require.NoError(t, s.Save(ctx, original, time.Minute))

	original.PartialSeconds = 99
	*original.StartedAt = started.Add(time.Hour)

	state, err = s.Get(ctx, "s1", "u1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, float64(10), state.PartialSeconds)
	assert.True(t, started.Equal(*state.StartedAt))

	require.NoError(t, s.Delete(ctx, "s1", "u1"))
	state, err = s.Get(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Nil(t, state)
}
