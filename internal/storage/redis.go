package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore persists envelopes as JSON strings in Redis.
type RedisStore struct {
	client    goredis.Cmdable
	closer    func() error
	keyPrefix string
}

var _ Store = (*RedisStore)(nil)

// RedisOption configures RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the Redis key prefix (default "hdq:").
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.keyPrefix = prefix }
}

// WithCloser sets the function called by Close, usually the client's Close.
func WithCloser(fn func() error) RedisOption {
	return func(s *RedisStore) { s.closer = fn }
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client goredis.Cmdable, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		keyPrefix: "hdq:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr, password string, db int, opts ...RedisOption) (*RedisStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	opts = append([]RedisOption{WithCloser(client.Close)}, opts...)
	return NewRedisStore(client, opts...), nil
}

func (s *RedisStore) key(k string) string {
	return s.keyPrefix + k
}

// Load fetches and decodes the envelope stored under key.
func (s *RedisStore) Load(ctx context.Context, key string) (Envelope, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return Envelope{}, ErrNotFound
		}
		return Envelope{}, fmt.Errorf("failed to get %s: %w", key, err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return env, nil
}

// Save stores env under key without expiry.
func (s *RedisStore) Save(ctx context.Context, key string, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client when the store owns it.
func (s *RedisStore) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}
