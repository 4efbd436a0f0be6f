// Package hnsw implements the hierarchical navigable small world graph that
// backs both noun and verb vector search.
package hnsw

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/brainygraph/brainygraph/internal/util"
)

// SearchResult is a single nearest-neighbor hit.
type SearchResult struct {
	Ref      EntityRef
	Score    float32
	Vector   []float32
	Metadata map[string]any
}

// Config holds HNSW tuning parameters.
type Config struct {
	Dimension      int
	M              int     // max bidirectional links per node
	EfConstruction int     // dynamic candidate list size during insert
	EfSearch       int     // dynamic candidate list size during search
	ML             float64 // level generation factor, default 1/ln(2)
	Metric         util.DistanceMetric
	RandomSeed     int64
}

// DefaultConfig returns the worked-example defaults.
func DefaultConfig(dimension int) *Config {
	return &Config{
		Dimension:      dimension,
		M:              16,
		EfConstruction: 200,
		EfSearch:       50,
		ML:             1.0 / 0.6931471805599453,
		Metric:         util.CosineDistance,
	}
}

func (c *Config) validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive")
	}
	if c.M <= 0 {
		return fmt.Errorf("M must be positive")
	}
	if c.EfConstruction <= 0 {
		return fmt.Errorf("efConstruction must be positive")
	}
	if c.EfSearch <= 0 {
		return fmt.Errorf("efSearch must be positive")
	}
	if c.ML <= 0 {
		return fmt.Errorf("ML must be positive")
	}
	return nil
}

// Index implements approximate nearest-neighbor search over both nouns and
// verbs, disambiguated by EntityRef.Kind.
type Index struct {
	mu                   sync.RWMutex
	config               *Config
	nodes                []*Node
	entryPoint           *Node
	maxLevel             int
	levelGenerator       *rand.Rand
	distance             util.DistanceFunc
	size                 int
	idToIndex            map[EntityRef]uint32
	entryPointCandidates []uint32
	neighborSelector     *NeighborSelector
}

// New creates a new HNSW index.
func New(config *Config) (*Index, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid hnsw config: %w", err)
	}

	distanceFunc, err := util.GetDistanceFunc(config.Metric)
	if err != nil {
		return nil, fmt.Errorf("unsupported distance metric: %w", err)
	}

	return &Index{
		config:               config,
		nodes:                make([]*Node, 0),
		levelGenerator:       rand.New(rand.NewSource(config.RandomSeed)),
		distance:             distanceFunc,
		idToIndex:            make(map[EntityRef]uint32),
		entryPointCandidates: make([]uint32, 0),
	}, nil
}

// Insert adds a vector entry for the given entity. Safe to call concurrently
// with Search, but not with another Insert/Delete for the same entity.
func (h *Index) Insert(ctx context.Context, ref EntityRef, vector []float32, metadata map[string]any) error {
	if err := util.CheckDimensions(vector, vector, h.config.Dimension); err != nil {
		return fmt.Errorf("hnsw insert: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.idToIndex[ref]; exists {
		return fmt.Errorf("entity %s %s already indexed", ref.Kind, ref.ID)
	}

	level := h.generateLevel()
	node := &Node{
		Ref:      ref,
		Level:    level,
		Metadata: metadata,
		Vector:   append([]float32(nil), vector...),
		Links:    make([][]uint32, level+1),
	}
	for i := 0; i <= level; i++ {
		node.Links[i] = make([]uint32, 0, h.config.M)
	}

	nodeID := uint32(len(h.nodes))
	h.nodes = append(h.nodes, node)
	h.idToIndex[ref] = nodeID

	if level >= 2 {
		h.entryPointCandidates = append(h.entryPointCandidates, nodeID)
	}

	if h.entryPoint == nil {
		h.entryPoint = node
		h.maxLevel = level
		h.size++
		return nil
	}

	if err := h.insertNode(ctx, node, nodeID); err != nil {
		h.nodes = h.nodes[:len(h.nodes)-1]
		delete(h.idToIndex, ref)
		if level >= 2 && len(h.entryPointCandidates) > 0 {
			last := len(h.entryPointCandidates) - 1
			if h.entryPointCandidates[last] == nodeID {
				h.entryPointCandidates = h.entryPointCandidates[:last]
			}
		}
		return fmt.Errorf("hnsw insert: %w", err)
	}

	h.size++
	if level > h.maxLevel {
		h.entryPoint = node
		h.maxLevel = level
	}
	return nil
}

// Search returns the k nearest neighbors to query, optionally restricted to
// a single EntityKind (kindFilter == nil searches both nouns and verbs).
func (h *Index) Search(ctx context.Context, query []float32, k int, kindFilter *EntityKind) ([]*SearchResult, error) {
	if err := util.CheckDimensions(query, query, h.config.Dimension); err != nil {
		return nil, fmt.Errorf("hnsw search: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.size == 0 {
		return nil, nil
	}

	ep := h.entryPoint
	for level := h.maxLevel; level > 0; level-- {
		candidates := h.searchLevel(query, ep, 1, level)
		if len(candidates) > 0 {
			ep = h.nodes[candidates[0].ID]
		}
	}

	ef := h.config.EfSearch
	if ef < k {
		ef = k
	}
	candidates := h.searchLevel(query, ep, ef, 0)

	results := make([]*SearchResult, 0, k)
	for _, candidate := range candidates {
		if len(results) >= k {
			break
		}
		node := h.nodes[candidate.ID]
		if node == nil {
			continue
		}
		if kindFilter != nil && node.Ref.Kind != *kindFilter {
			continue
		}
		results = append(results, &SearchResult{
			Ref:      node.Ref,
			Score:    candidate.Distance,
			Vector:   node.Vector,
			Metadata: node.Metadata,
		})
	}
	return results, nil
}

// Delete removes an entity from the index.
func (h *Index) Delete(ctx context.Context, ref EntityRef) error {
	return h.deleteNode(ctx, ref)
}

// Size returns the number of indexed entities.
func (h *Index) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// MemoryUsage returns an approximate in-memory footprint in bytes.
func (h *Index) MemoryUsage() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var usage int64
	for _, node := range h.nodes {
		if node == nil {
			continue
		}
		usage += int64(len(node.Vector) * 4)
		for _, links := range node.Links {
			usage += int64(len(links) * 4)
		}
		usage += 64
	}
	return usage
}

// Close releases the index's in-memory state.
func (h *Index) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nodes = nil
	h.entryPoint = nil
	h.size = 0
	return nil
}

func (h *Index) generateLevel() int {
	level := 0
	for h.levelGenerator.Float64() < 1/h.config.ML && level < 16 {
		level++
	}
	return level
}

func (h *Index) findNodeID(target *Node) uint32 {
	if idx, ok := h.idToIndex[target.Ref]; ok {
		return idx
	}
	return ^uint32(0)
}
