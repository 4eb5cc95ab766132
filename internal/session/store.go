// SPDX-License-Identifier: MIT

// Package session persists USSD conversation state between webhook callbacks.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/abiahub/abiahub-gateway/internal/log"
)

const keyPrefix = "ussd:sess:"

// Data is the accumulated state of one USSD conversation. A conversation is
// keyed by the gateway-assigned session id; collisions are the gateway's
// problem, not ours.
type Data struct {
	State       string `json:"state"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Store is the session persistence contract used by the USSD handler.
type Store interface {
	// Get returns the stored session data. ok is false when no session
	// exists (first callback or TTL expiry); callers fall back to a fresh
	// session rather than treating that as an error.
	Get(ctx context.Context, sessionID string) (Data, bool)
	Put(ctx context.Context, sessionID string, data Data)
}

// RedisStore is the Redis-backed Store. Lookups that fail for transport
// reasons are logged and reported as misses so a degraded cache downgrades
// the conversation to its start instead of breaking the webhook contract.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// Config holds Redis connection settings for the session store.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger := log.WithComponent("session")
	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("connected to session store")

	return &RedisStore{client: client, ttl: cfg.TTL, logger: logger}, nil
}

// NewRedisStoreWithClient wraps an existing client (tests).
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, logger: log.WithComponent("session")}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (Data, bool) {
	val, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return Data{}, false
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("session get failed")
		return Data{}, false
	}

	var data Data
	if err := json.Unmarshal(val, &data); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("session unmarshal failed")
		return Data{}, false
	}
	return data, true
}

// Put implements Store. Every write refreshes the inactivity TTL.
func (s *RedisStore) Put(ctx context.Context, sessionID string, data Data) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("session marshal failed")
		return
	}
	if err := s.client.Set(ctx, keyPrefix+sessionID, raw, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("session put failed")
	}
}

// Delete removes a session. The USSD flow never calls this (sessions age out
// with the inactivity TTL); it exists for operational cleanup.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("session delete failed")
	}
}

// Ping checks store availability for readiness probes.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
