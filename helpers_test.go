package brainygraph

import (
	"testing"

	"github.com/brainygraph/brainygraph/internal/hnsw"
	"github.com/google/uuid"
)

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

func refOf(id uuid.UUID) hnsw.EntityRef {
	return hnsw.EntityRef{ID: id, Kind: hnsw.EntityNoun}
}

func refOfVerb(id uuid.UUID) hnsw.EntityRef {
	return hnsw.EntityRef{ID: id, Kind: hnsw.EntityVerb}
}
