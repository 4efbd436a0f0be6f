package hnsw

import (
	"context"
	"testing"
)

type fakeLoader struct {
	loads map[EntityRef]*Node
	calls int
}

func (f *fakeLoader) LoadHNSWNode(ctx context.Context, ref EntityRef) (*Node, error) {
	f.calls++
	return f.loads[ref], nil
}

func TestPagedCache_GetLoadsOnceAndCachesHit(t *testing.T) {
	r := ref(EntityNoun)
	loader := &fakeLoader{loads: map[EntityRef]*Node{r: {Ref: r, Vector: vec(4, 0.1)}}}
	cache := NewPagedCache(loader, 2)

	ctx := context.Background()
	if _, err := cache.Get(ctx, r); err != nil {
		t.Fatalf("Get: unexpected error: %v", err)
	}
	if _, err := cache.Get(ctx, r); err != nil {
		t.Fatalf("Get (cached): unexpected error: %v", err)
	}
	if loader.calls != 1 {
		t.Errorf("loader.calls = %d, want 1 (second Get should hit the cache)", loader.calls)
	}
}

func TestPagedCache_EvictsLeastRecentlyUsed(t *testing.T) {
	a, b, c := ref(EntityNoun), ref(EntityNoun), ref(EntityNoun)
	loader := &fakeLoader{loads: map[EntityRef]*Node{
		a: {Ref: a, Vector: vec(4, 0.1)},
		b: {Ref: b, Vector: vec(4, 0.2)},
		c: {Ref: c, Vector: vec(4, 0.3)},
	}}
	cache := NewPagedCache(loader, 2)
	ctx := context.Background()

	cache.Get(ctx, a)
	cache.Get(ctx, b)
	cache.Get(ctx, c) // evicts a, the least recently used

	loader.calls = 0
	cache.Get(ctx, a)
	if loader.calls != 1 {
		t.Errorf("expected a reload of the evicted entry, loader.calls = %d", loader.calls)
	}
}

func TestPagedCache_InvalidateForcesReload(t *testing.T) {
	r := ref(EntityNoun)
	loader := &fakeLoader{loads: map[EntityRef]*Node{r: {Ref: r, Vector: vec(4, 0.1)}}}
	cache := NewPagedCache(loader, 2)
	ctx := context.Background()

	cache.Get(ctx, r)
	cache.Invalidate(r)
	loader.calls = 0
	cache.Get(ctx, r)
	if loader.calls != 1 {
		t.Errorf("expected Invalidate to force a reload, loader.calls = %d", loader.calls)
	}
}
