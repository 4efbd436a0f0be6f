package metadata

import (
	"context"
	"testing"
)

func TestIndex_AddLookupRemove(t *testing.T) {
	idx := New()
	idx.Add("person", testRef(1), map[string]any{"city": "nyc", "age": 30})
	idx.Add("person", testRef(2), map[string]any{"city": "nyc", "age": 40})
	idx.Add("person", testRef(3), map[string]any{"city": "sf", "age": 25})

	matches := idx.Lookup("person", "city", "nyc")
	if len(matches) != 2 {
		t.Fatalf("Lookup() returned %d, want 2", len(matches))
	}

	idx.Remove("person", testRef(1))
	matches = idx.Lookup("person", "city", "nyc")
	if len(matches) != 1 || matches[0].Ref != testRef(2) {
		t.Fatalf("Lookup() after remove = %v", matches)
	}
}

func TestIndex_ReAddReplacesPostings(t *testing.T) {
	idx := New()
	idx.Add("person", testRef(1), map[string]any{"city": "nyc"})
	idx.Add("person", testRef(1), map[string]any{"city": "sf"})

	if matches := idx.Lookup("person", "city", "nyc"); len(matches) != 0 {
		t.Errorf("stale posting: got %v", matches)
	}
	if matches := idx.Lookup("person", "city", "sf"); len(matches) != 1 {
		t.Errorf("Lookup() = %v, want 1 match", matches)
	}
}

func TestIndex_SoftDeleteExclusion(t *testing.T) {
	idx := New()
	idx.Add("person", testRef(1), map[string]any{"city": "nyc"})
	idx.Add("person", testRef(2), map[string]any{"city": "nyc", SystemDeleted: true})

	all := idx.All("person")
	if len(all) != 1 || all[0].Ref != testRef(1) {
		t.Fatalf("All() = %v, want only non-deleted entry", all)
	}

	if !idx.Deleted("person", testRef(2)) {
		t.Error("Deleted() should report true for soft-deleted ref")
	}

	withDeleted := idx.AllIncludingDeleted("person")
	if len(withDeleted) != 2 {
		t.Fatalf("AllIncludingDeleted() = %d, want 2", len(withDeleted))
	}
}

func TestIndex_Apply(t *testing.T) {
	idx := New()
	idx.Add("person", testRef(1), map[string]any{"city": "nyc", "age": 30})
	idx.Add("person", testRef(2), map[string]any{"city": "sf", "age": 40})

	ctx := context.Background()
	result, err := idx.Apply(ctx, "person", NewGreaterThanFilter("age", 35), false)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(result) != 1 || result[0].Ref != testRef(2) {
		t.Errorf("Apply() = %v", result)
	}
}

func TestIndex_ContainmentPostings(t *testing.T) {
	idx := New()
	idx.Add("person", testRef(1), map[string]any{"tags": []any{"vip", "early"}})
	idx.Add("person", testRef(2), map[string]any{"tags": []any{"late"}})

	ctx := context.Background()
	result, err := idx.Apply(ctx, "person", NewContainsAnyFilter("tags", []any{"vip"}), false)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(result) != 1 || result[0].Ref != testRef(1) {
		t.Errorf("Apply() = %v", result)
	}
}
