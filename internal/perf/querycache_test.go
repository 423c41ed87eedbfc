package perf

import (
	"testing"
	"time"
)

func TestQueryCache_GetSet(t *testing.T) {
	cache := NewQueryCache(4)

	cache.Set("a", 1, time.Minute)

	v, ok := cache.Get("a")
	if !ok {
		t.Fatal("expected hit for key a")
	}
	if v.(int) != 1 {
		t.Errorf("Get(a) = %v, want 1", v)
	}

	if _, ok := cache.Get("missing"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestQueryCache_ExpiresOnRead(t *testing.T) {
	cache := NewQueryCache(4)

	cache.Set("a", 1, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := cache.Get("a"); ok {
		t.Error("expected expired entry to miss")
	}
	if cache.Len() != 0 {
		t.Errorf("expired entry should be removed on read, len = %d", cache.Len())
	}
}

func TestQueryCache_FIFOEviction(t *testing.T) {
	cache := NewQueryCache(3)

	cache.Set("a", 1, time.Minute)
	cache.Set("b", 2, time.Minute)
	cache.Set("c", 3, time.Minute)

	// Read "a" so an LRU would consider it fresh; FIFO must still evict it.
	if _, ok := cache.Get("a"); !ok {
		t.Fatal("expected hit for key a")
	}

	cache.Set("d", 4, time.Minute)

	if _, ok := cache.Get("a"); ok {
		t.Error("oldest inserted key should have been evicted")
	}
	for _, key := range []string{"b", "c", "d"} {
		if _, ok := cache.Get(key); !ok {
			t.Errorf("expected key %s to survive eviction", key)
		}
	}
}

func TestQueryCache_OverwriteKeepsPosition(t *testing.T) {
	cache := NewQueryCache(2)

	cache.Set("a", 1, time.Minute)
	cache.Set("b", 2, time.Minute)
	cache.Set("a", 10, time.Minute) // overwrite, still oldest
	cache.Set("c", 3, time.Minute)  // evicts a

	if _, ok := cache.Get("a"); ok {
		t.Error("overwritten key should keep its insertion position and be evicted first")
	}
	if v, ok := cache.Get("b"); !ok || v.(int) != 2 {
		t.Errorf("Get(b) = %v, %v; want 2, true", v, ok)
	}
}

func TestQueryCache_Clear(t *testing.T) {
	cache := NewQueryCache(4)
	cache.Set("a", 1, time.Minute)
	cache.Set("b", 2, time.Minute)

	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", cache.Len())
	}
	// Cache must stay usable after Clear.
	cache.Set("c", 3, time.Minute)
	if _, ok := cache.Get("c"); !ok {
		t.Error("expected hit after Clear and Set")
	}
}
