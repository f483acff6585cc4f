//go:build integration

package storage_test

import (
	"context"
	"errors"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"github.com/helpdevoir/hdq/internal/storage"
)

func newTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func newTestStore(t *testing.T, client *goredis.Client) *storage.RedisStore {
	t.Helper()
	// Use a unique prefix per test to avoid collisions.
	prefix := "test:" + t.Name() + ":"
	s := storage.NewRedisStore(client, storage.WithKeyPrefix(prefix))
	t.Cleanup(func() {
		ctx := context.Background()
		iter := client.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
	})
	return s
}

func TestRedisStore_RoundTrip(t *testing.T) {
	client := newTestClient(t)
	s := newTestStore(t, client)
	ctx := context.Background()

	if _, err := s.Load(ctx, "ai-quota-storage"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Load() error = %v, want ErrNotFound", err)
	}

	env, err := storage.Encode(1, map[string]int{"promptsUsed": 2})
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if err := s.Save(ctx, "ai-quota-storage", env); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := s.Load(ctx, "ai-quota-storage")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	var got map[string]int
	if err := loaded.Decode(1, &got); err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if got["promptsUsed"] != 2 {
		t.Errorf("promptsUsed = %d, want 2", got["promptsUsed"])
	}

	raw, err := client.Get(ctx, "test:"+t.Name()+":ai-quota-storage").Result()
	if err != nil || raw == "" {
		t.Errorf("expected prefixed key in redis, err=%v", err)
	}

	if err := s.Delete(ctx, "ai-quota-storage"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := s.Load(ctx, "ai-quota-storage"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Load() after Delete error = %v, want ErrNotFound", err)
	}
}

func TestDialRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	s, err := storage.DialRedis(context.Background(), addr, "", 0, storage.WithKeyPrefix("test:dial:"))
	if err != nil {
		t.Fatalf("DialRedis() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
}
