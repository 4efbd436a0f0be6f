package hnsw

import (
	"context"
	"fmt"

	"github.com/brainygraph/brainygraph/internal/util"
)

// deleteNode removes an entity from the index, reconnecting its former
// neighbors and replacing the entry point if necessary.
func (h *Index) deleteNode(ctx context.Context, ref EntityRef) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.size == 0 {
		return fmt.Errorf("cannot delete from empty index")
	}

	nodeID, node := h.findNodeByRef(ref)
	if nodeID == ^uint32(0) {
		return fmt.Errorf("entity %s %s not found in index", ref.Kind, ref.ID)
	}

	if h.size == 1 {
		h.nodes = h.nodes[:0]
		h.entryPoint = nil
		h.maxLevel = 0
		h.size = 0
		delete(h.idToIndex, ref)
		h.entryPointCandidates = h.entryPointCandidates[:0]
		return nil
	}

	if err := h.removeAllConnections(ctx, nodeID, node); err != nil {
		return fmt.Errorf("remove connections: %w", err)
	}

	if err := h.handleEntryPointReplacement(nodeID, node); err != nil {
		return fmt.Errorf("replace entry point: %w", err)
	}

	h.removeNodeFromIndex(nodeID, ref)

	h.size--
	return nil
}

func (h *Index) findNodeByRef(ref EntityRef) (uint32, *Node) {
	if idx, exists := h.idToIndex[ref]; exists {
		if idx < uint32(len(h.nodes)) && h.nodes[idx] != nil && h.nodes[idx].Ref == ref {
			return idx, h.nodes[idx]
		}
		delete(h.idToIndex, ref)
	}
	return ^uint32(0), nil
}

func (h *Index) removeAllConnections(ctx context.Context, targetID uint32, targetNode *Node) error {
	for level := 0; level <= targetNode.Level; level++ {
		neighbors := make([]uint32, len(targetNode.Links[level]))
		copy(neighbors, targetNode.Links[level])

		for _, neighborID := range neighbors {
			if neighborID < uint32(len(h.nodes)) && h.nodes[neighborID] != nil {
				h.removeConnection(neighborID, targetID, level)
			}
		}

		if err := h.reconnectNeighbors(ctx, neighbors, level); err != nil {
			return fmt.Errorf("reconnect at level %d: %w", level, err)
		}
	}
	return nil
}

func (h *Index) removeConnection(fromID, toID uint32, level int) {
	fromNode := h.nodes[fromID]
	if fromNode == nil || level >= len(fromNode.Links) {
		return
	}
	links := fromNode.Links[level]
	for i, linkID := range links {
		if linkID == toID {
			links[i] = links[len(links)-1]
			fromNode.Links[level] = links[:len(links)-1]
			break
		}
	}
}

// reconnectNeighbors attempts to restore connectivity among a deleted
// node's former neighbors at level, up to the configured connection budget.
func (h *Index) reconnectNeighbors(ctx context.Context, neighbors []uint32, level int) error {
	if len(neighbors) < 2 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	maxM := h.config.M
	if level == 0 {
		maxM *= 2
	}

	validNeighbors := make([]uint32, 0, len(neighbors))
	for _, id := range neighbors {
		if id < uint32(len(h.nodes)) && h.nodes[id] != nil {
			validNeighbors = append(validNeighbors, id)
		}
	}
	if len(validNeighbors) < 2 {
		return nil
	}

	distanceCache := make(map[[2]uint32]float32)
	for i, id1 := range validNeighbors {
		if i%10 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		for j, id2 := range validNeighbors {
			if i >= j {
				continue
			}
			n1, n2 := h.nodes[id1], h.nodes[id2]
			if n1 == nil || n2 == nil {
				continue
			}
			dist := h.distance(n1.Vector, n2.Vector)
			distanceCache[[2]uint32{id1, id2}] = dist
			distanceCache[[2]uint32{id2, id1}] = dist
		}
	}

	for _, neighborID := range validNeighbors {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		neighborNode := h.nodes[neighborID]
		if neighborNode == nil || level >= len(neighborNode.Links) {
			continue
		}

		current := len(neighborNode.Links[level])
		if current >= maxM {
			continue
		}

		candidates := make([]*util.Candidate, 0)
		for _, otherID := range validNeighbors {
			if neighborID == otherID || h.nodes[otherID] == nil {
				continue
			}
			if h.hasConnection(neighborID, otherID, level) {
				continue
			}
			candidates = append(candidates, &util.Candidate{
				ID:       otherID,
				Distance: distanceCache[[2]uint32{neighborID, otherID}],
			})
		}
		if len(candidates) == 0 {
			continue
		}

		numToSelect := maxM - current
		if numToSelect > len(candidates) {
			numToSelect = len(candidates)
		}
		selected := h.selectClosest(candidates, numToSelect)
		for _, candidate := range selected {
			h.createBidirectionalConnection(neighborID, candidate.ID, level)
		}
	}

	return nil
}

func (h *Index) hasConnection(nodeID1, nodeID2 uint32, level int) bool {
	if nodeID1 >= uint32(len(h.nodes)) || nodeID2 >= uint32(len(h.nodes)) {
		return false
	}
	node1 := h.nodes[nodeID1]
	if node1 == nil || level >= len(node1.Links) {
		return false
	}
	for _, linkID := range node1.Links[level] {
		if linkID == nodeID2 {
			return true
		}
	}
	return false
}

func (h *Index) selectClosest(candidates []*util.Candidate, numToSelect int) []*util.Candidate {
	if len(candidates) <= numToSelect {
		return candidates
	}
	sort := func(c []*util.Candidate) {
		for i := 0; i < len(c)-1; i++ {
			for j := 0; j < len(c)-i-1; j++ {
				if c[j].Distance > c[j+1].Distance {
					c[j], c[j+1] = c[j+1], c[j]
				}
			}
		}
	}
	sort(candidates)
	return candidates[:numToSelect]
}

func (h *Index) createBidirectionalConnection(nodeID1, nodeID2 uint32, level int) {
	node1 := h.nodes[nodeID1]
	if node1 != nil && level < len(node1.Links) {
		node1.Links[level] = append(node1.Links[level], nodeID2)
	}
	node2 := h.nodes[nodeID2]
	if node2 != nil && level < len(node2.Links) {
		node2.Links[level] = append(node2.Links[level], nodeID1)
	}
}

// handleEntryPointReplacement promotes a new entry point when the deleted
// node was the current one, per the persistence note on entry-point
// promotion after deletion.
func (h *Index) handleEntryPointReplacement(deletedID uint32, deletedNode *Node) error {
	if h.entryPoint != deletedNode {
		h.removeFromEntryPointCandidates(deletedID)
		return nil
	}

	if newEntryPoint := h.findBestEntryPointCandidate(deletedID); newEntryPoint != nil {
		h.entryPoint = newEntryPoint
		h.maxLevel = newEntryPoint.Level
		return nil
	}

	var fallback *Node
	newMaxLevel := -1
	for i, node := range h.nodes {
		if node == nil || uint32(i) == deletedID {
			continue
		}
		if node.Level > newMaxLevel {
			newMaxLevel = node.Level
			fallback = node
		}
	}
	if fallback == nil {
		return fmt.Errorf("no replacement entry point available")
	}

	h.entryPoint = fallback
	h.maxLevel = newMaxLevel
	h.rebuildEntryPointCandidates()
	return nil
}

func (h *Index) findBestEntryPointCandidate(excludeID uint32) *Node {
	var best *Node
	bestLevel := -1
	for _, candidateID := range h.entryPointCandidates {
		if candidateID == excludeID || candidateID >= uint32(len(h.nodes)) {
			continue
		}
		node := h.nodes[candidateID]
		if node != nil && node.Level > bestLevel {
			bestLevel = node.Level
			best = node
		}
	}
	return best
}

func (h *Index) removeFromEntryPointCandidates(nodeID uint32) {
	for i, candidateID := range h.entryPointCandidates {
		if candidateID == nodeID {
			h.entryPointCandidates[i] = h.entryPointCandidates[len(h.entryPointCandidates)-1]
			h.entryPointCandidates = h.entryPointCandidates[:len(h.entryPointCandidates)-1]
			break
		}
	}
}

func (h *Index) rebuildEntryPointCandidates() {
	h.entryPointCandidates = h.entryPointCandidates[:0]
	const levelThreshold = 2
	for i, node := range h.nodes {
		if node != nil && node.Level >= levelThreshold {
			h.entryPointCandidates = append(h.entryPointCandidates, uint32(i))
		}
	}
}

func (h *Index) removeNodeFromIndex(nodeID uint32, ref EntityRef) {
	delete(h.idToIndex, ref)
	h.removeFromEntryPointCandidates(nodeID)
	if nodeID < uint32(len(h.nodes)) {
		h.nodes[nodeID] = nil
	}
	for len(h.nodes) > 0 && h.nodes[len(h.nodes)-1] == nil {
		h.nodes = h.nodes[:len(h.nodes)-1]
	}
}
