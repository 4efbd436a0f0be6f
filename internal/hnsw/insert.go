package hnsw

import (
	"context"

	"github.com/brainygraph/brainygraph/internal/util"
)

// insertNode implements HNSW insertion: greedy descent through the upper
// layers followed by beam search and neighbor selection at each layer from
// node.Level down to 0.
func (h *Index) insertNode(ctx context.Context, node *Node, nodeID uint32) error {
	if h.size == 1 {
		entryID := h.findNodeID(h.entryPoint)
		if entryID != ^uint32(0) {
			node.Links[0] = append(node.Links[0], entryID)
			h.entryPoint.Links[0] = append(h.entryPoint.Links[0], nodeID)
		}
		return nil
	}

	if h.neighborSelector == nil {
		h.neighborSelector = NewNeighborSelector(h.config.M, 2.0)
	}

	entryPoints := []*util.Candidate{{ID: h.findNodeID(h.entryPoint), Distance: 0}}

	for level := h.maxLevel; level > node.Level; level-- {
		entryPoints = h.searchLevel(node.Vector, h.nodes[entryPoints[0].ID], 1, level)
	}

	for level := node.Level; level >= 0; level-- {
		candidates := h.searchLevel(node.Vector, h.nodes[entryPoints[0].ID], h.config.EfConstruction, level)
		selected := h.neighborSelector.SelectNeighbors(node.Vector, candidates, level, h)
		h.connectBidirectional(nodeID, selected, level)
		h.pruneNeighborConnections(selected, level)
		entryPoints = selected
	}

	return nil
}

// connectBidirectional links nodeID to each selected neighbor at level.
func (h *Index) connectBidirectional(nodeID uint32, neighbors []*util.Candidate, level int) {
	node := h.nodes[nodeID]

	if cap(node.Links[level]) < len(neighbors) {
		newLinks := make([]uint32, len(node.Links[level]), len(neighbors)+h.config.M)
		copy(newLinks, node.Links[level])
		node.Links[level] = newLinks
	}

	for _, neighbor := range neighbors {
		node.Links[level] = append(node.Links[level], neighbor.ID)

		neighborNode := h.nodes[neighbor.ID]
		if level < len(neighborNode.Links) {
			neighborNode.Links[level] = append(neighborNode.Links[level], nodeID)
		}
	}
}

// pruneNeighborConnections keeps each neighbor's connection count at or
// below maxM by re-running neighbor selection over its current links.
func (h *Index) pruneNeighborConnections(neighbors []*util.Candidate, level int) {
	if h.neighborSelector == nil {
		h.neighborSelector = NewNeighborSelector(h.config.M, 2.0)
	}

	for _, neighbor := range neighbors {
		if err := h.neighborSelector.PruneConnections(neighbor.ID, level, h); err != nil {
			continue
		}
	}
}
