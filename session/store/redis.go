package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fraudlens/fraudlens/message"
)

// RedisStore persists transcripts as Redis lists, one list per session.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string        // Redis server address (e.g., "localhost:6379")
	Password string        // Redis password (if any)
	DB       int           // Redis database number
	Prefix   string        // Key prefix for namespacing
	TTL      time.Duration // Time-to-live for transcripts (0 means no expiration)
}

// NewRedisStore creates a Redis-backed transcript store.
func NewRedisStore(config *RedisConfig) *RedisStore {
	if config == nil {
		config = &RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "fraudlens:transcript:",
		}
	}
	if config.Prefix == "" {
		config.Prefix = "fraudlens:transcript:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// Append pushes the message onto the end of the session's list.
func (s *RedisStore) Append(ctx context.Context, sessionID string, msg *message.Message) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	key := s.key(sessionID)
	if err := s.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("append to transcript: %w", err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("refresh transcript TTL: %w", err)
		}
	}
	return nil
}

// History returns the transcript in insertion order.
func (s *RedisStore) History(ctx context.Context, sessionID string) ([]*message.Message, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	msgs := make([]*message.Message, 0, len(raw))
	for _, item := range raw {
		var msg message.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal transcript entry: %w", err)
		}
		msgs = append(msgs, &msg)
	}
	return msgs, nil
}

// Clear deletes the session transcript.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear transcript: %w", err)
	}
	return nil
}

// Close releases the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}
