package cache

import (
	"testing"
	"time"
)

func TestLRUCacheBasic(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("get a: %d, %v", v, ok)
	}

	// "b" is now least recently used and must be evicted by the third entry.
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should survive eviction")
	}
}

func TestLRUCacheTTL(t *testing.T) {
	c := NewLRUCache[string](10, 10*time.Millisecond)
	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
	if n := c.CleanExpired(); n != 0 {
		// Get already removed it lazily.
		t.Fatalf("unexpected expired count %d", n)
	}
}

func TestLRUCacheDeleteAndPurge(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should be deleted")
	}
	c.Purge()
	if _, ok := c.Get("b"); ok {
		t.Fatal("b should be purged")
	}
}
