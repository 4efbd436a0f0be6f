package brainygraph

import (
	"context"
	"testing"

	"github.com/brainygraph/brainygraph/internal/hnsw"
	"github.com/google/uuid"
)

func TestGraphIndex_TraverseFollowsEdgesWithinDepth(t *testing.T) {
	g := newGraphIndex()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	g.AddEdge(a, b, "RelatedTo")
	g.AddEdge(b, c, "RelatedTo")

	reached, err := g.Traverse(context.Background(), hnsw.EntityRef{ID: a, Kind: hnsw.EntityNoun}, nil, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reached) != 1 || reached[0].ID != b {
		t.Fatalf("depth-1 traversal = %v, want only %v", reached, b)
	}

	reached, err = g.Traverse(context.Background(), hnsw.EntityRef{ID: a, Kind: hnsw.EntityNoun}, nil, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reached) != 2 {
		t.Fatalf("depth-2 traversal reached %d nodes, want 2", len(reached))
	}
}

func TestGraphIndex_TraverseFiltersByVerbType(t *testing.T) {
	g := newGraphIndex()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	g.AddEdge(a, b, "Owns")
	g.AddEdge(a, c, "Knows")

	reached, err := g.Traverse(context.Background(), hnsw.EntityRef{ID: a, Kind: hnsw.EntityNoun}, []string{"Owns"}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reached) != 1 || reached[0].ID != b {
		t.Fatalf("filtered traversal = %v, want only %v", reached, b)
	}
}

func TestGraphIndex_RemoveEdgesFromStopsTraversal(t *testing.T) {
	g := newGraphIndex()
	a, b := uuid.New(), uuid.New()
	g.AddEdge(a, b, "Owns")
	g.RemoveEdgesFrom(a, b, "Owns")

	reached, err := g.Traverse(context.Background(), hnsw.EntityRef{ID: a, Kind: hnsw.EntityNoun}, nil, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reached) != 0 {
		t.Fatalf("expected no reachable nodes after edge removal, got %v", reached)
	}
}

func TestGraphIndex_TraverseNeverRevisitsANode(t *testing.T) {
	g := newGraphIndex()
	a, b := uuid.New(), uuid.New()
	g.AddEdge(a, b, "Owns")
	g.AddEdge(b, a, "Owns")

	reached, err := g.Traverse(context.Background(), hnsw.EntityRef{ID: a, Kind: hnsw.EntityNoun}, nil, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reached) != 1 || reached[0].ID != b {
		t.Fatalf("cyclic traversal = %v, want only %v once", reached, b)
	}
}
