package brainygraph

import (
	"context"
	"testing"
)

func TestSearch_RejectsEmptyQuery(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Search(context.Background(), Query{})
	if !IsValidation(err) {
		t.Fatalf("Search with no clause = %v, want a validation error", err)
	}
}

func TestSearch_VectorOnlyReturnsInsertedNoun(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, err := e.AddNoun(ctx, vec(4, 0.5), Person, "", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("AddNoun: unexpected error: %v", err)
	}

	page, err := e.Search(ctx, NewQuery().WithVector(vec(4, 0.5)).WithLimit(5).Build())
	if err != nil {
		t.Fatalf("Search: unexpected error: %v", err)
	}
	if len(page.Items) == 0 {
		t.Fatal("expected at least one search result")
	}

	var found bool
	for _, item := range page.Items {
		if item.ID == id {
			found = true
			if item.Noun == nil {
				t.Error("expected matching item to be hydrated with its Noun")
			}
		}
	}
	if !found {
		t.Errorf("expected inserted noun %v among results", id)
	}
}

func TestSearch_ExcludesSoftDeletedByDefault(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, err := e.AddNoun(ctx, vec(4, 0.4), Person, "", nil)
	if err != nil {
		t.Fatalf("AddNoun: unexpected error: %v", err)
	}
	if err := e.DeleteNoun(ctx, id); err != nil {
		t.Fatalf("DeleteNoun: unexpected error: %v", err)
	}

	page, err := e.Search(ctx, NewQuery().WithVector(vec(4, 0.4)).WithLimit(5).Build())
	if err != nil {
		t.Fatalf("Search: unexpected error: %v", err)
	}
	for _, item := range page.Items {
		if item.ID == id {
			t.Errorf("expected soft-deleted noun %v to be excluded from search", id)
		}
	}
}

func TestSearch_RejectsInWriteOnlyMode(t *testing.T) {
	e := newTestEngine(t, WithMode(ModeWriteOnly))
	_, err := e.Search(context.Background(), NewQuery().WithVector(vec(4, 0.1)).Build())
	if err != ErrWriteOnly {
		t.Fatalf("Search under ModeWriteOnly = %v, want ErrWriteOnly", err)
	}
}

func TestSearch_RejectsInWriteOnlyModeEvenWithAllowDirectReads(t *testing.T) {
	e := newTestEngine(t, WithMode(ModeWriteOnly), WithAllowDirectReads(true))
	_, err := e.Search(context.Background(), NewQuery().WithVector(vec(4, 0.1)).Build())
	if err != ErrWriteOnly {
		t.Fatalf("Search under ModeWriteOnly+AllowDirectReads = %v, want ErrWriteOnly (AllowDirectReads must not exempt search)", err)
	}
}

func TestFilterConstructors_BuildUsableFilters(t *testing.T) {
	f := And(Eq("kind", "x"), Not(GreaterThan("score", 10)))
	if f == nil {
		t.Fatal("expected a non-nil composed filter")
	}
}
