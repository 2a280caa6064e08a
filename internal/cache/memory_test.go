package cache

import (
	"context"
	"testing"
	"time"
)

type payload struct {
	Items []string `json:"items"`
	Score float64  `json:"score"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)

	var got payload
	if ok, err := c.Get(ctx, "missing", &got); ok || err != nil {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}

	in := payload{Items: []string{"a", "b"}, Score: 42}
	if err := c.Set(ctx, "k", in, 0); err != nil {
		t.Fatal(err)
	}
	in.Items[0] = "mutated"

	ok, err := c.Get(ctx, "k", &got)
	if !ok || err != nil {
		t.Fatalf("Get(k) = %v, %v", ok, err)
	}
	if got.Items[0] != "a" || got.Score != 42 {
		t.Errorf("got %+v; cached value must not alias the caller's", got)
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.HitRate() != 50 {
		t.Errorf("stats = %+v", s)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "short", 1, time.Second)
	_ = c.Set(ctx, "default", 2, 0)

	now = now.Add(2 * time.Second)
	var v int
	if ok, _ := c.Get(ctx, "short", &v); ok {
		t.Error("entry should have expired")
	}
	if ok, _ := c.Get(ctx, "default", &v); !ok || v != 2 {
		t.Errorf("default-TTL entry: ok=%v v=%d", ok, v)
	}
	if c.Len() != 1 {
		t.Errorf("expired entry not dropped, len=%d", c.Len())
	}

	now = now.Add(time.Minute)
	if ok, _ := c.Get(ctx, "default", &v); ok {
		t.Error("default TTL should have elapsed")
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, time.Minute)

	_ = c.Set(ctx, "a", 1, 0)
	_ = c.Set(ctx, "b", 2, 0)

	var v int
	c.Get(ctx, "a", &v) // a is now most recent
	_ = c.Set(ctx, "c", 3, 0)

	if ok, _ := c.Get(ctx, "b", &v); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if ok, _ := c.Get(ctx, k, &v); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
}

func TestMemoryCacheDeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)
	for _, k := range []string{"rec:u1:artwork", "rec:u1:exhibition", "rec:u2:artwork"} {
		_ = c.Set(ctx, k, k, 0)
	}

	if err := c.DeletePrefix(ctx, "rec:u1:"); err != nil {
		t.Fatal(err)
	}
	var v string
	if ok, _ := c.Get(ctx, "rec:u1:artwork", &v); ok {
		t.Error("prefix delete missed rec:u1:artwork")
	}
	if ok, _ := c.Get(ctx, "rec:u2:artwork", &v); !ok {
		t.Error("prefix delete removed another user's entry")
	}

	_ = c.Delete(ctx, "rec:u2:artwork", "never-set")
	if c.Len() != 0 {
		t.Errorf("len = %d after deletes", c.Len())
	}
}

func TestNewSelectsBackend(t *testing.T) {
	c, err := New(Config{Type: TypeMemory, Capacity: 5, TTL: time.Minute}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("got %T, want *MemoryCache", c)
	}
	if _, err := New(Config{Type: TypeRedis}, nil); err == nil {
		t.Error("redis cache without client should fail")
	}
	if _, err := New(Config{Type: "memcached"}, nil); err == nil {
		t.Error("unknown type should fail")
	}
}
