package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/brainygraph/brainygraph/internal/hnsw"
	"github.com/brainygraph/brainygraph/internal/metadata"
)

// Mode selects which retrieval modality a Query should use.
type Mode int

const (
	ModeAuto Mode = iota
	ModeVector
	ModeGraph
	ModeMetadata
	ModeFusion
)

// ConnectedClause expands the search frontier across verb edges before
// intersecting with the query's other clauses.
type ConnectedClause struct {
	From     *hnsw.EntityRef
	To       *hnsw.EntityRef
	Via      []string
	MaxDepth int
}

// Query is the planner's structured input, mirroring the public find()
// surface: an optional vector-similarity clause, an optional metadata
// predicate, an optional graph-connectivity clause, a mode hint, and
// pagination.
type Query struct {
	Vector         []float32
	EntityType     string
	Where          metadata.Filter
	Connected      *ConnectedClause
	Mode           Mode
	Limit          int
	Offset         int
	Cursor         string
	IncludeDeleted bool
	Weights        Weights
}

// Item is one ranked result: the entity ref and its score (the fused score
// under fusion, otherwise the score of the plan that produced it).
type Item struct {
	Ref   hnsw.EntityRef
	Score float32
}

// Page is one page of planner results.
type Page struct {
	Items      []*Item
	NextCursor string
	HasMore    bool
}

// GraphTraverser expands a frontier of entity refs across verb edges of
// the given types, up to maxDepth hops.
type GraphTraverser interface {
	Traverse(ctx context.Context, from hnsw.EntityRef, via []string, maxDepth int) ([]hnsw.EntityRef, error)
}

// VectorIndex is the subset of hnsw.Index the planner depends on.
type VectorIndex interface {
	Search(ctx context.Context, query []float32, k int, kindFilter *hnsw.EntityKind) ([]*hnsw.SearchResult, error)
}

// MetadataIndex is the subset of metadata.Index the planner depends on.
type MetadataIndex interface {
	Apply(ctx context.Context, entityType string, filter metadata.Filter, includeDeleted bool) ([]*metadata.Record, error)
}

// Planner executes Query values against the vector, metadata, and graph
// backends, implementing the five triple-intelligence planning rules.
type Planner struct {
	Vector   VectorIndex
	Metadata MetadataIndex
	Graph    GraphTraverser
	Now      func() time.Time
}

// New creates a Planner over the given backends.
func New(vector VectorIndex, meta MetadataIndex, graph GraphTraverser) *Planner {
	return &Planner{Vector: vector, Metadata: meta, Graph: graph, Now: time.Now}
}

// Plan executes q and returns one page of ranked results.
func (p *Planner) Plan(ctx context.Context, q Query) (*Page, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset := q.Offset
	if q.Cursor != "" {
		if decoded, _, ok := DecodeCursor(q.Cursor); ok {
			offset = decoded
		} else {
			offset = 0
		}
	}

	where := q.Where
	if !q.IncludeDeleted {
		notDeleted := metadata.NewNotFilter(metadata.NewEqualityFilter(metadata.SystemDeleted, true))
		if where != nil {
			where = metadata.NewAndFilter(where, notDeleted)
		} else {
			where = notDeleted
		}
	}

	weights := q.Weights
	if weights == (Weights{}) {
		weights = DefaultWeights
	}

	var ranked []*Item
	var err error

	switch {
	case q.Connected != nil && q.Connected.MaxDepth > 0 && q.Connected.MaxDepth <= 3:
		ranked, err = p.planGraphFirst(ctx, q, where)
	case where != nil && p.isSelective(ctx, q.EntityType, where, limit) && q.Vector != nil:
		ranked, err = p.planMetadataPrefilter(ctx, q, where, limit)
	case q.Vector != nil && where != nil && q.Mode == ModeAuto:
		ranked, err = p.planFusion(ctx, q, where, weights, limit)
	case q.Vector != nil:
		ranked, err = p.planVectorOnly(ctx, q, offset+limit+1)
	case where != nil:
		ranked, err = p.planMetadataOnly(ctx, q, where)
	default:
		return nil, fmt.Errorf("planner: query has no clause to execute")
	}
	if err != nil {
		return nil, err
	}

	end := offset + limit
	hasMore := end < len(ranked)
	if offset > len(ranked) {
		offset = len(ranked)
	}
	if end > len(ranked) {
		end = len(ranked)
	}
	page := ranked[offset:end]

	result := &Page{Items: page, HasMore: hasMore}
	if hasMore {
		result.NextCursor = EncodeCursor(end, p.Now())
	}
	return result, nil
}

// isSelective implements planning rule 1: where is worth pre-filtering
// when its estimated cardinality is within limit*10 entries.
func (p *Planner) isSelective(ctx context.Context, entityType string, where metadata.Filter, limit int) bool {
	records, err := p.Metadata.Apply(ctx, entityType, where, true)
	if err != nil {
		return false
	}
	return len(records) <= limit*10
}

func (p *Planner) planMetadataPrefilter(ctx context.Context, q Query, where metadata.Filter, limit int) ([]*Item, error) {
	candidates, err := p.Metadata.Apply(ctx, q.EntityType, where, false)
	if err != nil {
		return nil, fmt.Errorf("planner: metadata prefilter: %w", err)
	}
	allowed := make(map[hnsw.EntityRef]bool, len(candidates))
	for _, c := range candidates {
		allowed[c.Ref] = true
	}

	hits, err := p.Vector.Search(ctx, q.Vector, limit*10, nil)
	if err != nil {
		return nil, fmt.Errorf("planner: vector search: %w", err)
	}

	var items []*Item
	for _, hit := range hits {
		if allowed[hit.Ref] {
			items = append(items, &Item{Ref: hit.Ref, Score: hit.Score})
		}
	}
	return items, nil
}

func (p *Planner) planVectorOnly(ctx context.Context, q Query, limit int) ([]*Item, error) {
	hits, err := p.Vector.Search(ctx, q.Vector, limit, nil)
	if err != nil {
		return nil, fmt.Errorf("planner: vector search: %w", err)
	}
	items := make([]*Item, len(hits))
	for i, hit := range hits {
		items[i] = &Item{Ref: hit.Ref, Score: hit.Score}
	}
	return items, nil
}

func (p *Planner) planMetadataOnly(ctx context.Context, q Query, where metadata.Filter) ([]*Item, error) {
	records, err := p.Metadata.Apply(ctx, q.EntityType, where, false)
	if err != nil {
		return nil, fmt.Errorf("planner: metadata query: %w", err)
	}
	items := make([]*Item, len(records))
	for i, r := range records {
		items[i] = &Item{Ref: r.Ref, Score: 1}
	}
	return items, nil
}

// planGraphFirst implements planning rule 2: expand the frontier via
// graph traversal, intersect with where, then optionally re-rank by
// vector similarity.
func (p *Planner) planGraphFirst(ctx context.Context, q Query, where metadata.Filter) ([]*Item, error) {
	if q.Connected.From == nil {
		return nil, fmt.Errorf("planner: connected clause requires a from entity")
	}
	frontier, err := p.Graph.Traverse(ctx, *q.Connected.From, q.Connected.Via, q.Connected.MaxDepth)
	if err != nil {
		return nil, fmt.Errorf("planner: graph traversal: %w", err)
	}

	allowed := make(map[hnsw.EntityRef]bool, len(frontier))
	if where != nil {
		candidates, err := p.Metadata.Apply(ctx, q.EntityType, where, false)
		if err != nil {
			return nil, fmt.Errorf("planner: metadata intersect: %w", err)
		}
		byRef := make(map[hnsw.EntityRef]bool, len(candidates))
		for _, c := range candidates {
			byRef[c.Ref] = true
		}
		for _, ref := range frontier {
			if byRef[ref] {
				allowed[ref] = true
			}
		}
	} else {
		for _, ref := range frontier {
			allowed[ref] = true
		}
	}

	if q.Vector == nil {
		items := make([]*Item, 0, len(allowed))
		for ref := range allowed {
			items = append(items, &Item{Ref: ref, Score: 1})
		}
		return items, nil
	}

	hits, err := p.Vector.Search(ctx, q.Vector, len(allowed)+1, nil)
	if err != nil {
		return nil, fmt.Errorf("planner: vector re-rank: %w", err)
	}
	var items []*Item
	seen := make(map[hnsw.EntityRef]bool)
	for _, hit := range hits {
		if allowed[hit.Ref] {
			items = append(items, &Item{Ref: hit.Ref, Score: hit.Score})
			seen[hit.Ref] = true
		}
	}
	for ref := range allowed {
		if !seen[ref] {
			items = append(items, &Item{Ref: ref, Score: 0})
		}
	}
	return items, nil
}

// planFusion implements planning rule 3: run each modality, then fuse
// scores per scoring.go's min-max-normalize-then-weighted-sum rule.
func (p *Planner) planFusion(ctx context.Context, q Query, where metadata.Filter, weights Weights, limit int) ([]*Item, error) {
	overfetch := limit * 10
	if overfetch < limit {
		overfetch = limit
	}

	hits, err := p.Vector.Search(ctx, q.Vector, overfetch, nil)
	if err != nil {
		return nil, fmt.Errorf("planner: fusion vector search: %w", err)
	}
	metaRecords, err := p.Metadata.Apply(ctx, q.EntityType, where, false)
	if err != nil {
		return nil, fmt.Errorf("planner: fusion metadata query: %w", err)
	}
	metaByRef := make(map[hnsw.EntityRef]bool, len(metaRecords))
	for _, r := range metaRecords {
		metaByRef[r.Ref] = true
	}

	var graphByRef map[hnsw.EntityRef]bool
	if q.Connected != nil && q.Connected.From != nil && p.Graph != nil {
		frontier, err := p.Graph.Traverse(ctx, *q.Connected.From, q.Connected.Via, q.Connected.MaxDepth)
		if err != nil {
			return nil, fmt.Errorf("planner: fusion graph traversal: %w", err)
		}
		graphByRef = make(map[hnsw.EntityRef]bool, len(frontier))
		for _, ref := range frontier {
			graphByRef[ref] = true
		}
	}

	refOrder := make([]hnsw.EntityRef, 0, len(hits)+len(metaRecords))
	refIndex := make(map[hnsw.EntityRef]int)
	scores := make(map[int]*componentScores)

	indexFor := func(ref hnsw.EntityRef) int {
		if i, ok := refIndex[ref]; ok {
			return i
		}
		i := len(refOrder)
		refOrder = append(refOrder, ref)
		refIndex[ref] = i
		scores[i] = &componentScores{}
		return i
	}

	for _, hit := range hits {
		i := indexFor(hit.Ref)
		scores[i].vector = float64(hit.Score)
		scores[i].hasVector = true
	}
	for _, rec := range metaRecords {
		i := indexFor(rec.Ref)
		scores[i].metadata = 1
		scores[i].hasMetadata = true
	}
	for ref := range graphByRef {
		i := indexFor(ref)
		scores[i].graph = 1
		scores[i].hasGraph = true
	}

	fused := fuse(scores, weights)
	ranking := rankIndices(fused, scores)

	items := make([]*Item, 0, len(ranking))
	for _, i := range ranking {
		ref := refOrder[i]
		if where != nil && !metaByRef[ref] {
			continue
		}
		items = append(items, &Item{Ref: ref, Score: float32(fused[i])})
	}
	return items, nil
}
