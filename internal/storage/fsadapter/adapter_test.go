package fsadapter

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brainygraph/brainygraph/internal/hnsw"
	"github.com/brainygraph/brainygraph/internal/storage"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	return a
}

func TestSaveAndGetNoun_RoundTrips(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	id := uuid.New()

	if err := a.SaveNoun(ctx, "person", id, []float32{1, 2, 3}, map[string]any{"name": "Ada"}); err != nil {
		t.Fatalf("SaveNoun: unexpected error: %v", err)
	}

	vector, metadata, entityType, found, err := a.GetNoun(ctx, id)
	if err != nil {
		t.Fatalf("GetNoun: unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected noun to be found")
	}
	if entityType != "person" {
		t.Errorf("entityType = %q, want person", entityType)
	}
	if len(vector) != 3 {
		t.Errorf("vector = %v, want length 3", vector)
	}
	if metadata["name"] != "Ada" {
		t.Errorf("metadata[name] = %v, want Ada", metadata["name"])
	}
}

func TestGetNoun_NotFoundReturnsFalseNotError(t *testing.T) {
	a := newTestAdapter(t)
	_, _, _, found, err := a.GetNoun(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetNoun: unexpected error: %v", err)
	}
	if found {
		t.Error("expected found=false for an unknown id")
	}
}

func TestDeleteNoun_RemovesFromSubsequentGet(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	id := uuid.New()

	if err := a.SaveNoun(ctx, "thing", id, []float32{1}, nil); err != nil {
		t.Fatalf("SaveNoun: unexpected error: %v", err)
	}
	if err := a.DeleteNoun(ctx, id); err != nil {
		t.Fatalf("DeleteNoun: unexpected error: %v", err)
	}
	_, _, _, found, err := a.GetNoun(ctx, id)
	if err != nil {
		t.Fatalf("GetNoun after delete: unexpected error: %v", err)
	}
	if found {
		t.Error("expected noun to be gone after DeleteNoun")
	}
}

func TestGetNouns_PaginatesWithHasMore(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := a.SaveNoun(ctx, "thing", uuid.New(), []float32{float32(i)}, nil); err != nil {
			t.Fatalf("SaveNoun %d: unexpected error: %v", i, err)
		}
	}

	page, err := a.GetNouns(ctx, storage.ListOptions{Pagination: storage.Pagination{Offset: 0, Limit: 3}})
	if err != nil {
		t.Fatalf("GetNouns: unexpected error: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("first page length = %d, want 3", len(page.Items))
	}
	if !page.HasMore {
		t.Error("expected HasMore=true on the first page")
	}

	rest, err := a.GetNouns(ctx, storage.ListOptions{Pagination: storage.Pagination{Offset: 3, Limit: 3}})
	if err != nil {
		t.Fatalf("GetNouns (2nd page): unexpected error: %v", err)
	}
	if len(rest.Items) != 2 {
		t.Fatalf("second page length = %d, want 2", len(rest.Items))
	}
	if rest.HasMore {
		t.Error("expected HasMore=false on the last page")
	}
}

func TestSaveAndGetVerb_RoundTrips(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	id, source, target := uuid.New(), uuid.New(), uuid.New()

	if err := a.SaveVerb(ctx, "knows", id, source, target, 0.5, map[string]any{"k": "v"}); err != nil {
		t.Fatalf("SaveVerb: unexpected error: %v", err)
	}

	gotSource, gotTarget, weight, metadata, verbType, found, err := a.GetVerb(ctx, id)
	if err != nil {
		t.Fatalf("GetVerb: unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected verb to be found")
	}
	if gotSource != source || gotTarget != target {
		t.Errorf("GetVerb endpoints = (%v, %v), want (%v, %v)", gotSource, gotTarget, source, target)
	}
	if weight != 0.5 {
		t.Errorf("weight = %v, want 0.5", weight)
	}
	if verbType != "knows" {
		t.Errorf("verbType = %q, want knows", verbType)
	}
	if metadata["k"] != "v" {
		t.Errorf("metadata[k] = %v, want v", metadata["k"])
	}
}

func TestSaveMetadata_MergesIntoExistingNoun(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	id := uuid.New()

	if err := a.SaveNoun(ctx, "thing", id, []float32{1, 2}, map[string]any{"a": 1}); err != nil {
		t.Fatalf("SaveNoun: unexpected error: %v", err)
	}
	if err := a.SaveMetadata(ctx, id, map[string]any{"b": 2}); err != nil {
		t.Fatalf("SaveMetadata: unexpected error: %v", err)
	}

	vector, metadata, _, found, err := a.GetNoun(ctx, id)
	if err != nil {
		t.Fatalf("GetNoun: unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected noun to still exist")
	}
	if len(vector) != 2 {
		t.Errorf("expected SaveMetadata to preserve the vector, got %v", vector)
	}
	if metadata["b"] != float64(2) {
		t.Errorf("metadata[b] = %v, want 2", metadata["b"])
	}
}

func TestSaveMetadata_ErrorsForUnknownNoun(t *testing.T) {
	a := newTestAdapter(t)
	if err := a.SaveMetadata(context.Background(), uuid.New(), map[string]any{"a": 1}); err == nil {
		t.Fatal("expected SaveMetadata to error for an unknown noun")
	}
}

func TestClear_RemovesAllRecords(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	id := uuid.New()
	if err := a.SaveNoun(ctx, "thing", id, []float32{1}, nil); err != nil {
		t.Fatalf("SaveNoun: unexpected error: %v", err)
	}

	if err := a.Clear(ctx); err != nil {
		t.Fatalf("Clear: unexpected error: %v", err)
	}

	_, _, _, found, err := a.GetNoun(ctx, id)
	if err != nil {
		t.Fatalf("GetNoun after Clear: unexpected error: %v", err)
	}
	if found {
		t.Error("expected no nouns to survive Clear")
	}
}

func TestNew_RebuildsIndexFromDisk(t *testing.T) {
	dir := t.TempDir()
	id := uuid.New()

	first, err := New(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("New (1st): unexpected error: %v", err)
	}
	if err := first.SaveNoun(context.Background(), "thing", id, []float32{1, 2}, nil); err != nil {
		t.Fatalf("SaveNoun: unexpected error: %v", err)
	}

	second, err := New(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("New (2nd): unexpected error: %v", err)
	}
	_, _, _, found, err := second.GetNoun(context.Background(), id)
	if err != nil {
		t.Fatalf("GetNoun after reopen: unexpected error: %v", err)
	}
	if !found {
		t.Error("expected reopening the adapter to rebuild its index from disk")
	}
}

func TestIncrementAndDecrementStatistic(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	if err := a.IncrementStatistic(ctx, "nouns.total", 3); err != nil {
		t.Fatalf("IncrementStatistic: unexpected error: %v", err)
	}
	if err := a.DecrementStatistic(ctx, "nouns.total", 1); err != nil {
		t.Fatalf("DecrementStatistic: unexpected error: %v", err)
	}

	stats, err := a.GetStatistics(ctx)
	if err != nil {
		t.Fatalf("GetStatistics: unexpected error: %v", err)
	}
	if stats["nouns.total"] != int64(2) {
		t.Errorf("nouns.total = %v, want 2", stats["nouns.total"])
	}
}

func TestLoadHNSWNode_ReturnsPersistedVector(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	id := uuid.New()

	if err := a.SaveNoun(ctx, "thing", id, []float32{4, 5, 6}, map[string]any{"k": "v"}); err != nil {
		t.Fatalf("SaveNoun: unexpected error: %v", err)
	}

	node, err := a.LoadHNSWNode(ctx, hnsw.EntityRef{ID: id, Kind: hnsw.EntityNoun})
	if err != nil {
		t.Fatalf("LoadHNSWNode: unexpected error: %v", err)
	}
	if len(node.Vector) != 3 {
		t.Errorf("loaded Vector = %v, want length 3", node.Vector)
	}
}

func TestLoadHNSWNode_UnknownRefErrors(t *testing.T) {
	a := newTestAdapter(t)
	if _, err := a.LoadHNSWNode(context.Background(), hnsw.EntityRef{ID: uuid.New(), Kind: hnsw.EntityNoun}); err == nil {
		t.Fatal("expected LoadHNSWNode to error for an unknown ref")
	}
}
