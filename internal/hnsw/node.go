package hnsw

import "github.com/google/uuid"

// EntityKind distinguishes nouns from verbs sharing the same HNSW graph.
type EntityKind uint8

const (
	EntityNoun EntityKind = iota
	EntityVerb
)

func (k EntityKind) String() string {
	if k == EntityVerb {
		return "verb"
	}
	return "noun"
}

// EntityRef identifies a noun or verb stored in the index. Nouns and verbs
// occupy distinct UUID spaces, so the pair is required to disambiguate.
type EntityRef struct {
	ID   uuid.UUID
	Kind EntityKind
}

// Node represents a single node in the HNSW graph.
type Node struct {
	Ref      EntityRef
	Vector   []float32
	Level    int
	Links    [][]uint32 // adjacency list per level, indexed by internal node index
	Metadata map[string]any
}
