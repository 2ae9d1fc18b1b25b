package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"docugen/api/internal/model"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCacheWithClient(client, time.Minute)
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if _, ok := cache.GetUser(ctx, "token-1"); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	user := model.User{ID: "u1", Name: "Ada Lovelace", Email: "ada@example.com"}
	cache.SetUser(ctx, "token-1", user)

	got, ok := cache.GetUser(ctx, "token-1")
	if !ok {
		t.Fatal("expected hit after SetUser")
	}
	if *got != user {
		t.Errorf("GetUser() = %+v, want %+v", got, user)
	}

	// A different token misses even with the same user cached.
	if _, ok := cache.GetUser(ctx, "token-2"); ok {
		t.Error("unexpected hit for different token")
	}
}

func TestCacheDeleteUser(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.SetUser(ctx, "token-1", model.User{ID: "u1"})
	cache.DeleteUser(ctx, "token-1")

	if _, ok := cache.GetUser(ctx, "token-1"); ok {
		t.Error("entry survived DeleteUser")
	}
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.SetUser(ctx, "token-1", model.User{ID: "u1"})
	mr.FastForward(2 * time.Minute)

	if _, ok := cache.GetUser(ctx, "token-1"); ok {
		t.Error("entry survived past TTL")
	}
}

func TestCacheKeyHashesToken(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.SetUser(ctx, "secret-token", model.User{ID: "u1"})
	for _, key := range mr.Keys() {
		if key == "user:secret-token" {
			t.Fatal("raw token stored as key")
		}
	}

	if _, ok := cache.GetUser(ctx, "secret-token"); !ok {
		t.Error("hashed key lookup failed")
	}
}

func TestCacheFailureReadsAsMiss(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.SetUser(ctx, "token-1", model.User{ID: "u1"})
	mr.Close()

	if _, ok := cache.GetUser(ctx, "token-1"); ok {
		t.Error("expected miss when the backend is down")
	}
	// Writes and deletes are silent against a dead backend.
	cache.SetUser(ctx, "token-2", model.User{ID: "u2"})
	cache.DeleteUser(ctx, "token-1")
}
