package brainygraph

import (
	"context"
	"sync"

	"github.com/brainygraph/brainygraph/internal/hnsw"
	"github.com/google/uuid"
)

type edge struct {
	target   uuid.UUID
	verbType string
}

// graphIndex tracks outgoing verb adjacency per noun, the collaborator
// internal/planner's GraphTraverser interface consults for the
// graph-first and fusion planning rules.
type graphIndex struct {
	mu    sync.RWMutex
	edges map[uuid.UUID][]edge
}

func newGraphIndex() *graphIndex {
	return &graphIndex{edges: make(map[uuid.UUID][]edge)}
}

func (g *graphIndex) AddEdge(source, target uuid.UUID, verbType string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges[source] = append(g.edges[source], edge{target: target, verbType: verbType})
}

func (g *graphIndex) RemoveEdgesFrom(source, target uuid.UUID, verbType string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	existing := g.edges[source]
	filtered := existing[:0]
	for _, e := range existing {
		if e.target == target && e.verbType == verbType {
			continue
		}
		filtered = append(filtered, e)
	}
	g.edges[source] = filtered
}

// Traverse runs a breadth-first search from from, bounded by maxDepth,
// following only edges whose verb type is listed in via (all types if
// via is empty).
func (g *graphIndex) Traverse(ctx context.Context, from hnsw.EntityRef, via []string, maxDepth int) ([]hnsw.EntityRef, error) {
	if maxDepth <= 0 {
		maxDepth = 1
	}
	allowed := make(map[string]bool, len(via))
	for _, v := range via {
		allowed[v] = true
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[uuid.UUID]bool{from.ID: true}
	frontier := []uuid.UUID{from.ID}
	var reached []hnsw.EntityRef

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []uuid.UUID
		for _, id := range frontier {
			for _, e := range g.edges[id] {
				if len(allowed) > 0 && !allowed[e.verbType] {
					continue
				}
				if visited[e.target] {
					continue
				}
				visited[e.target] = true
				next = append(next, e.target)
				reached = append(reached, hnsw.EntityRef{ID: e.target, Kind: hnsw.EntityNoun})
			}
		}
		frontier = next
	}
	return reached, nil
}
