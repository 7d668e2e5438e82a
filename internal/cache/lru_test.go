package cache

import (
	"testing"
	"time"
)

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to be cached")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted as least recently used")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a should survive, got %v %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("2024-03", "x")
	c.Set("2024-04", "y")
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("2024-03"); ok {
		t.Fatalf("expected expired item to be absent")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 cleaned item, got %d", n)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestLRUCacheDeleteAndStats(t *testing.T) {
	c := NewLRUCache[int](4, time.Minute)
	c.Set("k", 1)
	c.Set("k", 2)
	if v, _ := c.Get("k"); v != 2 {
		t.Fatalf("expected overwritten value 2, got %d", v)
	}
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected deleted key to miss")
	}

	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Size != 0 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestManagerStopIsIdempotent(t *testing.T) {
	m := NewManager(nil)
	m.Register(NewLRUCache[int](1, time.Millisecond))
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
	m.Stop()
}
