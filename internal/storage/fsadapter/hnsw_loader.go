package fsadapter

import (
	"context"
	"fmt"

	"github.com/brainygraph/brainygraph/internal/hnsw"
)

// LoadHNSWNode implements hnsw.NodeLoader, letting the paged HNSW variant
// page node vectors in from the same records the adapter already persists
// instead of keeping every node resident in memory.
func (a *Adapter) LoadHNSWNode(ctx context.Context, ref hnsw.EntityRef) (*hnsw.Node, error) {
	kind := "nouns"
	if ref.Kind == hnsw.EntityVerb {
		kind = "verbs"
	}

	a.mu.RLock()
	var entityType string
	var ok bool
	if ref.Kind == hnsw.EntityVerb {
		entityType, ok = a.verbIndex[ref.ID]
	} else {
		entityType, ok = a.nounIndex[ref.ID]
	}
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("fsadapter: %s %s not found", kind, ref.ID)
	}

	rec, err := a.readRecord(kind, entityType, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("fsadapter: load hnsw node: %w", err)
	}

	return &hnsw.Node{
		Ref:      ref,
		Vector:   rec.Vector,
		Metadata: rec.Metadata,
	}, nil
}
