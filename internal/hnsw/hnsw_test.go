package hnsw

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func ref(kind EntityKind) EntityRef {
	return EntityRef{ID: uuid.New(), Kind: kind}
}

func vec(dim int, fill float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = fill
	}
	return v
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(DefaultConfig(4))
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	return idx
}

func TestInsertAndSearch_FindsNearestNeighbor(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	near := ref(EntityNoun)
	far := ref(EntityNoun)
	if err := idx.Insert(ctx, near, vec(4, 0.1), nil); err != nil {
		t.Fatalf("Insert near: unexpected error: %v", err)
	}
	if err := idx.Insert(ctx, far, vec(4, 0.9), nil); err != nil {
		t.Fatalf("Insert far: unexpected error: %v", err)
	}

	results, err := idx.Search(ctx, vec(4, 0.1), 1, nil)
	if err != nil {
		t.Fatalf("Search: unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search returned %d results, want 1", len(results))
	}
	if results[0].Ref != near {
		t.Errorf("Search top result = %v, want %v", results[0].Ref, near)
	}
}

func TestInsert_RejectsDimensionMismatch(t *testing.T) {
	idx := newTestIndex(t)
	if err := idx.Insert(context.Background(), ref(EntityNoun), vec(3, 0.1), nil); err == nil {
		t.Fatal("expected Insert to reject a dimension mismatch")
	}
}

func TestInsert_RejectsDuplicateRef(t *testing.T) {
	idx := newTestIndex(t)
	r := ref(EntityNoun)
	if err := idx.Insert(context.Background(), r, vec(4, 0.1), nil); err != nil {
		t.Fatalf("first Insert: unexpected error: %v", err)
	}
	if err := idx.Insert(context.Background(), r, vec(4, 0.2), nil); err == nil {
		t.Fatal("expected second Insert of the same ref to be rejected")
	}
}

func TestSearch_FiltersByKind(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	n := ref(EntityNoun)
	v := ref(EntityVerb)
	if err := idx.Insert(ctx, n, vec(4, 0.1), nil); err != nil {
		t.Fatalf("Insert noun: unexpected error: %v", err)
	}
	if err := idx.Insert(ctx, v, vec(4, 0.1), nil); err != nil {
		t.Fatalf("Insert verb: unexpected error: %v", err)
	}

	kind := EntityVerb
	results, err := idx.Search(ctx, vec(4, 0.1), 10, &kind)
	if err != nil {
		t.Fatalf("Search: unexpected error: %v", err)
	}
	for _, r := range results {
		if r.Ref.Kind != EntityVerb {
			t.Errorf("Search with kind filter returned a %v entity", r.Ref.Kind)
		}
	}
}

func TestDelete_RemovesEntityFromIndexAndSize(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	r := ref(EntityNoun)
	if err := idx.Insert(ctx, r, vec(4, 0.1), nil); err != nil {
		t.Fatalf("Insert: unexpected error: %v", err)
	}
	if idx.Size() != 1 {
		t.Fatalf("Size after insert = %d, want 1", idx.Size())
	}

	if err := idx.Delete(ctx, r); err != nil {
		t.Fatalf("Delete: unexpected error: %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("Size after delete = %d, want 0", idx.Size())
	}
}

func TestSearch_OnEmptyIndexReturnsNoResults(t *testing.T) {
	idx := newTestIndex(t)
	results, err := idx.Search(context.Background(), vec(4, 0.1), 5, nil)
	if err != nil {
		t.Fatalf("Search: unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search on empty index returned %d results, want 0", len(results))
	}
}
