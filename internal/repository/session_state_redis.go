package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/simulai/simulai/internal/domain"
)

const sessionKeyPrefix = "simulai:session:"

func sessionKey(scenarioID, userID string) string {
	return sessionKeyPrefix + scenarioID + ":" + userID
}

// RedisSessionStateStore keeps partial session timers in Redis so they
// survive restarts and are shared between API replicas
type RedisSessionStateStore struct {
	client *redis.Client
}

// NewRedisSessionStateStore connects to Redis and checks the connection
func NewRedisSessionStateStore(ctx context.Context, addr, password string, db int) (*RedisSessionStateStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSessionStateStore{client: client}, nil
}

func (s *RedisSessionStateStore) Get(ctx context.Context, scenarioID, userID string) (*domain.SessionState, error) {
	data, err := s.client.Get(ctx, sessionKey(scenarioID, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session state: %w", err)
	}

	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session state: %w", err)
	}
	return &state, nil
}

// Save stores the state, a ttl <= 0 keeps it until deleted
func (s *RedisSessionStateStore) Save(ctx context.Context, state *domain.SessionState, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, sessionKey(state.ScenarioID, state.UserID), data, ttl).Err()
}

func (s *RedisSessionStateStore) Delete(ctx context.Context, scenarioID, userID string) error {
	return s.client.Del(ctx, sessionKey(scenarioID, userID)).Err()
}

func (s *RedisSessionStateStore) Close() error {
	return s.client.Close()
}
