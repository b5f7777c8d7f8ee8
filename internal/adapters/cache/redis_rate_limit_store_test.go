package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*RedisRateLimitStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRateLimitStore(client, ""), mr
}

func TestIncrCountsWithinWindow(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		count, err := store.Incr(ctx, "strict:10.0.0.1:/auth/login", time.Minute)
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if count != want {
			t.Fatalf("expected count %d, got %d", want, count)
		}
	}
}

func TestIncrKeysAreIndependent(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Incr(ctx, "strict:10.0.0.1:/auth/login", time.Minute); err != nil {
		t.Fatalf("incr: %v", err)
	}
	count, err := store.Incr(ctx, "strict:10.0.0.2:/auth/login", time.Minute)
	if err != nil {
		t.Fatalf("incr: %v", err)
	}
	if count != 1 {
		t.Fatalf("second client should start its own window, got %d", count)
	}
}

func TestIncrWindowResetsAfterExpiry(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Incr(ctx, "short:10.0.0.1:/auth/register", time.Minute); err != nil {
		t.Fatalf("incr: %v", err)
	}
	if _, err := store.Incr(ctx, "short:10.0.0.1:/auth/register", time.Minute); err != nil {
		t.Fatalf("incr: %v", err)
	}

	mr.FastForward(time.Minute + time.Second)

	count, err := store.Incr(ctx, "short:10.0.0.1:/auth/register", time.Minute)
	if err != nil {
		t.Fatalf("incr after expiry: %v", err)
	}
	if count != 1 {
		t.Fatalf("expired window should restart at 1, got %d", count)
	}
}
