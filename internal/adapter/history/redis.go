// Package history persists per-session conversation turns.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"advisor/internal/domain"
)

const defaultKeyPrefix = "advisor:session:"

// RedisStore keeps each session as a Redis list of JSON-encoded turns with a
// TTL that resets on every append. History therefore survives process
// restarts within the TTL window, and expired sessions read as empty.
type RedisStore struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// Options configures the Redis history store.
type Options struct {
	TTL       time.Duration // default 24h
	KeyPrefix string
}

func NewRedisStore(client *redis.Client, opts Options) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("history: redis client is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	return &RedisStore{
		client:    client,
		ttl:       opts.TTL,
		keyPrefix: opts.KeyPrefix,
	}, nil
}

func (s *RedisStore) key(sessionID string) string {
	return s.keyPrefix + sessionID
}

// Get returns the ordered turn history for the session. A missing or expired
// key yields an empty slice; a store failure is an error.
func (s *RedisStore) Get(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("history: get session %s: %w", sessionID, err)
	}

	turns := make([]domain.Turn, 0, len(raw))
	for _, item := range raw {
		var turn domain.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("history: decode turn for session %s: %w", sessionID, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// AppendExchange pushes the user question and assistant answer as one
// transaction and resets the session TTL. The pair is written atomically so
// a failure never leaves a question without its answer.
func (s *RedisStore) AppendExchange(ctx context.Context, sessionID, question, answer string) error {
	userData, err := json.Marshal(domain.Turn{Role: domain.RoleUser, Content: question})
	if err != nil {
		return fmt.Errorf("history: encode user turn: %w", err)
	}
	assistantData, err := json.Marshal(domain.Turn{Role: domain.RoleAssistant, Content: answer})
	if err != nil {
		return fmt.Errorf("history: encode assistant turn: %w", err)
	}

	key := s.key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, userData, assistantData)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("history: append to session %s: %w", sessionID, err)
	}
	return nil
}

// Ping verifies the store is reachable. Used at startup so a misconfigured
// connection string fails fast instead of on the first chat request.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("history: redis unreachable: %w", err)
	}
	return nil
}
