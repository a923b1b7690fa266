package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/briefdhq/briefd/internal/cache"
	"github.com/briefdhq/briefd/models"
)

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()
	c := New()
	ctx := context.Background()
	key := cache.Key("u1", "o1", "daily", 24)

	if _, ok, _ := c.Get(ctx, key); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	brief := &models.GeneratedBrief{ID: "b1", UserID: "u1"}
	if err := c.Set(ctx, key, brief, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.ID != "b1" {
		t.Fatalf("got brief %s", got.ID)
	}
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()
	c := New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	key := cache.Key("u1", "", "daily", 24)

	if err := c.Set(ctx, key, &models.GeneratedBrief{ID: "b1"}, 5*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	now = now.Add(4 * time.Minute)
	if _, ok, _ := c.Get(ctx, key); !ok {
		t.Fatal("entry expired before its TTL")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, key); ok {
		t.Fatal("entry survived past its TTL")
	}
}

func TestCacheKeyFormat(t *testing.T) {
	t.Parallel()
	got := cache.Key("u1", "o1", "daily", 24)
	if got != "brief:u1:o1:daily:24" {
		t.Fatalf("key = %q", got)
	}
	if cache.Key("u1", "o1", "daily", 24) == cache.Key("u1", "o1", "daily", 48) {
		t.Fatal("time range must be part of the key")
	}
}
