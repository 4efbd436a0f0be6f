package hnsw

import (
	"sort"

	"github.com/brainygraph/brainygraph/internal/util"
)

// NeighborSelector implements neighbor selection with a diversity heuristic
// that avoids clustering and keeps the graph navigable.
type NeighborSelector struct {
	maxConnections  int
	levelMultiplier float64
}

// NewNeighborSelector creates a neighbor selector.
func NewNeighborSelector(maxConnections int, levelMultiplier float64) *NeighborSelector {
	return &NeighborSelector{maxConnections: maxConnections, levelMultiplier: levelMultiplier}
}

// SelectNeighbors picks at most maxM (more at level 0) candidates, preferring
// diversity over pure proximity once the heuristic has enough to work with.
func (ns *NeighborSelector) SelectNeighbors(queryVector []float32, candidates []*util.Candidate, level int, index *Index) []*util.Candidate {
	maxM := ns.maxConnections
	if level == 0 {
		maxM = int(float64(maxM) * ns.levelMultiplier)
	}

	if len(candidates) <= maxM {
		return candidates
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	return ns.selectDiverse(candidates, maxM, index)
}

// selectDiverse always keeps the closest candidate, then admits further
// candidates that are not redundant with an already-selected node; if that
// leaves fewer than maxM, it tops up with the nearest remaining candidates.
func (ns *NeighborSelector) selectDiverse(candidates []*util.Candidate, maxM int, index *Index) []*util.Candidate {
	selected := make([]*util.Candidate, 0, maxM)
	selected = append(selected, candidates[0])

	for i := 1; i < len(candidates) && len(selected) < maxM; i++ {
		candidate := candidates[i]
		candidateNode := index.nodes[candidate.ID]
		if candidateNode == nil {
			continue
		}

		shouldSelect := true
		checkLimit := len(selected)
		if checkLimit > 3 {
			checkLimit = 3
		}
		for j := 0; j < checkLimit; j++ {
			selectedNode := index.nodes[selected[j].ID]
			if selectedNode == nil {
				continue
			}
			distToSelected := index.distance(candidateNode.Vector, selectedNode.Vector)
			if distToSelected < candidate.Distance*0.8 {
				shouldSelect = false
				break
			}
		}

		if shouldSelect {
			selected = append(selected, candidate)
		}
	}

	for i := 1; i < len(candidates) && len(selected) < maxM; i++ {
		candidate := candidates[i]
		alreadySelected := false
		for _, sel := range selected {
			if sel.ID == candidate.ID {
				alreadySelected = true
				break
			}
		}
		if !alreadySelected {
			selected = append(selected, candidate)
		}
	}

	return selected
}

// PruneConnections re-selects nodeID's connections at level so the count
// stays within the configured maximum.
func (ns *NeighborSelector) PruneConnections(nodeID uint32, level int, index *Index) error {
	node := index.nodes[nodeID]
	if node == nil || level >= len(node.Links) {
		return nil
	}

	maxM := ns.maxConnections
	if level == 0 {
		maxM = int(float64(maxM) * ns.levelMultiplier)
	}

	if len(node.Links[level]) <= maxM {
		return nil
	}

	candidates := make([]*util.Candidate, 0, len(node.Links[level]))
	for _, linkID := range node.Links[level] {
		linkNode := index.nodes[linkID]
		if linkNode == nil {
			continue
		}
		distance := index.distance(node.Vector, linkNode.Vector)
		candidates = append(candidates, &util.Candidate{ID: linkID, Distance: distance})
	}

	selected := ns.SelectNeighbors(node.Vector, candidates, level, index)

	newLinks := make([]uint32, 0, len(selected))
	for _, sel := range selected {
		newLinks = append(newLinks, sel.ID)
	}
	node.Links[level] = newLinks

	return nil
}
