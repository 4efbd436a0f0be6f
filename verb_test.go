package brainygraph

import (
	"context"
	"testing"

	"github.com/brainygraph/brainygraph/internal/hnsw"
)

func TestAddVerb_RejectsMissingEndpointByDefault(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a, err := e.AddNoun(ctx, vec(4, 0.1), Person, "", nil)
	if err != nil {
		t.Fatalf("AddNoun: unexpected error: %v", err)
	}

	_, err = e.AddVerb(ctx, a, mustUUID(t), Knows, nil, nil, "", nil)
	if err == nil {
		t.Fatal("expected AddVerb to reject a missing endpoint")
	}
}

func TestAddVerb_AutoCreatesMissingEndpointWhenEnabled(t *testing.T) {
	e := newTestEngine(t, WithAutoCreateMissingNouns(true))
	ctx := context.Background()

	a, err := e.AddNoun(ctx, vec(4, 0.1), Person, "", nil)
	if err != nil {
		t.Fatalf("AddNoun: unexpected error: %v", err)
	}
	missing := mustUUID(t)

	id, err := e.AddVerb(ctx, a, missing, Knows, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("AddVerb: unexpected error: %v", err)
	}

	v, err := e.GetVerb(ctx, id)
	if err != nil {
		t.Fatalf("GetVerb: unexpected error: %v", err)
	}
	if v.Target != missing {
		t.Errorf("Target = %v, want %v", v.Target, missing)
	}

	if _, err := e.GetNoun(ctx, missing, false); err != nil {
		t.Fatalf("expected placeholder noun to exist, got error: %v", err)
	}
}

func TestAddVerb_InfersWeightAndConfidenceWhenUnspecified(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a, err := e.AddNoun(ctx, vec(4, 0.1), Person, "", nil)
	if err != nil {
		t.Fatalf("AddNoun a: unexpected error: %v", err)
	}
	b, err := e.AddNoun(ctx, vec(4, 0.1), Person, "", nil)
	if err != nil {
		t.Fatalf("AddNoun b: unexpected error: %v", err)
	}

	id, err := e.AddVerb(ctx, a, b, Knows, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("AddVerb: unexpected error: %v", err)
	}
	v, err := e.GetVerb(ctx, id)
	if err != nil {
		t.Fatalf("GetVerb: unexpected error: %v", err)
	}
	if v.Weight < 0 || v.Weight > 1 {
		t.Errorf("inferred Weight = %v, want within [0,1]", v.Weight)
	}
}

func TestAddVerb_UsesExplicitWeightWhenProvided(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a, err := e.AddNoun(ctx, vec(4, 0.1), Person, "", nil)
	if err != nil {
		t.Fatalf("AddNoun a: unexpected error: %v", err)
	}
	b, err := e.AddNoun(ctx, vec(4, 0.9), Person, "", nil)
	if err != nil {
		t.Fatalf("AddNoun b: unexpected error: %v", err)
	}

	explicit := float32(0.77)
	id, err := e.AddVerb(ctx, a, b, Owns, &explicit, nil, "", nil)
	if err != nil {
		t.Fatalf("AddVerb: unexpected error: %v", err)
	}
	v, err := e.GetVerb(ctx, id)
	if err != nil {
		t.Fatalf("GetVerb: unexpected error: %v", err)
	}
	if v.Weight != explicit {
		t.Errorf("Weight = %v, want explicit %v", v.Weight, explicit)
	}
}

func TestDeleteVerb_RemovesGraphEdge(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a, err := e.AddNoun(ctx, vec(4, 0.1), Person, "", nil)
	if err != nil {
		t.Fatalf("AddNoun a: unexpected error: %v", err)
	}
	b, err := e.AddNoun(ctx, vec(4, 0.2), Person, "", nil)
	if err != nil {
		t.Fatalf("AddNoun b: unexpected error: %v", err)
	}
	id, err := e.AddVerb(ctx, a, b, Knows, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("AddVerb: unexpected error: %v", err)
	}

	if err := e.DeleteVerb(ctx, id); err != nil {
		t.Fatalf("DeleteVerb: unexpected error: %v", err)
	}
	if _, err := e.GetVerb(ctx, id); !IsNotFound(err) {
		t.Fatalf("GetVerb after delete = %v, want not-found", err)
	}

	reached, err := e.graph.Traverse(ctx, refOf(a), nil, 1)
	if err != nil {
		t.Fatalf("Traverse: unexpected error: %v", err)
	}
	if len(reached) != 0 {
		t.Errorf("expected no reachable nodes after verb delete, got %v", reached)
	}
}

func TestGetVerb_RejectsInWriteOnlyModeWithoutAllowDirectReads(t *testing.T) {
	e := newTestEngine(t, WithMode(ModeWriteOnly))
	ctx := context.Background()

	a, err := e.AddNoun(ctx, vec(4, 0.1), Person, "", nil)
	if err != nil {
		t.Fatalf("AddNoun a: unexpected error: %v", err)
	}
	b, err := e.AddNoun(ctx, vec(4, 0.2), Person, "", nil)
	if err != nil {
		t.Fatalf("AddNoun b: unexpected error: %v", err)
	}
	id, err := e.AddVerb(ctx, a, b, Knows, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("AddVerb: unexpected error: %v", err)
	}

	if _, err := e.GetVerb(ctx, id); err != ErrWriteOnly {
		t.Fatalf("GetVerb under ModeWriteOnly = %v, want ErrWriteOnly", err)
	}
}

func TestAddVerb_InsertsAveragedVectorIntoIndex(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a, err := e.AddNoun(ctx, vec(4, 0.2), Person, "", nil)
	if err != nil {
		t.Fatalf("AddNoun a: unexpected error: %v", err)
	}
	b, err := e.AddNoun(ctx, vec(4, 0.6), Person, "", nil)
	if err != nil {
		t.Fatalf("AddNoun b: unexpected error: %v", err)
	}

	id, err := e.AddVerb(ctx, a, b, Knows, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("AddVerb: unexpected error: %v", err)
	}

	kind := hnsw.EntityVerb
	results, err := e.vector.Search(ctx, vec(4, 0.4), 5, &kind)
	if err != nil {
		t.Fatalf("vector Search: unexpected error: %v", err)
	}

	var found bool
	for _, r := range results {
		if r.Ref.ID == id {
			found = true
		}
	}
	if !found {
		t.Errorf("expected verb %v (averaged endpoint vector) among vector-index results, got %v", id, results)
	}
}
