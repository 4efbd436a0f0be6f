package hnsw

import (
	"github.com/brainygraph/brainygraph/internal/util"
)

// searchLevel performs a beam search at a specific level starting from
// entryPoint, returning up to ef candidates sorted closest-first.
func (h *Index) searchLevel(query []float32, entryPoint *Node, ef int, level int) []*util.Candidate {
	visited := make([]bool, len(h.nodes))
	candidates := util.NewMaxHeap(ef * 2)
	w := util.NewMinHeap(ef)

	entryID := h.findNodeID(entryPoint)
	if entryID == ^uint32(0) || entryID >= uint32(len(visited)) {
		return []*util.Candidate{}
	}

	distance := h.distance(query, entryPoint.Vector)
	candidate := &util.Candidate{ID: entryID, Distance: distance}

	candidates.PushCandidate(candidate)
	w.PushCandidate(candidate)
	visited[entryID] = true

	for w.Len() > 0 {
		current := w.PopCandidate()

		if candidates.Len() >= ef && current.Distance > candidates.Top().Distance {
			break
		}

		currentNode := h.nodes[current.ID]
		if currentNode == nil || level >= len(currentNode.Links) {
			continue
		}

		for _, neighborID := range currentNode.Links[level] {
			if neighborID >= uint32(len(visited)) || visited[neighborID] {
				continue
			}
			visited[neighborID] = true

			neighborNode := h.nodes[neighborID]
			if neighborNode == nil {
				continue
			}
			neighborDistance := h.distance(query, neighborNode.Vector)

			neighborCandidate := &util.Candidate{ID: neighborID, Distance: neighborDistance}

			if candidates.Len() < ef || neighborDistance < candidates.Top().Distance {
				candidates.PushCandidate(neighborCandidate)
				w.PushCandidate(neighborCandidate)
				if candidates.Len() > ef {
					candidates.PopCandidate()
				}
			}
		}
	}

	result := make([]*util.Candidate, 0, candidates.Len())
	for candidates.Len() > 0 {
		result = append([]*util.Candidate{candidates.PopCandidate()}, result...)
	}
	return result
}
