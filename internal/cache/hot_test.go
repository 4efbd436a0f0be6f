package cache

import "testing"

func TestHot_GetPutBasic(t *testing.T) {
	c := NewHot(10)
	c.Put("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get() = %v, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get() should miss for absent key")
	}
}

func TestHot_EvictsAtThreshold(t *testing.T) {
	c := NewHot(10) // evicts once len > 8 (80% of 10)
	for i := 0; i < 10; i++ {
		c.Put(string(rune('a'+i)), i)
	}
	if c.Len() > 8 {
		t.Errorf("Len() = %d, want <= 8 after eviction threshold", c.Len())
	}
}

func TestHot_HitRate(t *testing.T) {
	c := NewHot(10)
	c.Put("a", 1)
	c.Get("a")
	c.Get("missing")
	if rate := c.HitRate(); rate != 0.5 {
		t.Errorf("HitRate() = %f, want 0.5", rate)
	}
}

func TestHot_LRUOrder(t *testing.T) {
	c := NewHot(3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // a now most recent
	c.Put("c", 3) // capacity 3 evicts above 2 entries: b, the least recently used, goes
	c.Put("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted as least recently used")
	}
}
