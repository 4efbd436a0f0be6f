package brainygraph

import (
	"context"

	"github.com/google/uuid"

	"github.com/brainygraph/brainygraph/internal/cache"
	"github.com/brainygraph/brainygraph/internal/hnsw"
	"github.com/brainygraph/brainygraph/internal/metadata"
	"github.com/brainygraph/brainygraph/internal/planner"
)

// Filter is a metadata predicate usable in a Query's Where clause. The
// concrete filter types live in internal/metadata; these constructors
// are the public surface so callers never import an internal package.
type Filter = metadata.Filter

// Eq matches entities whose field equals value exactly.
func Eq(field string, value any) Filter { return metadata.NewEqualityFilter(field, value) }

// Between matches entities whose field falls within [min, max].
func Between(field string, min, max any) Filter { return metadata.NewBetweenFilter(field, min, max) }

// GreaterThan matches entities whose field is at least value. The bound is
// inclusive; there is no strict greater-than filter.
func GreaterThan(field string, value any) Filter { return metadata.NewGreaterThanFilter(field, value) }

// LessThan matches entities whose field is at most value. The bound is
// inclusive; there is no strict less-than filter.
func LessThan(field string, value any) Filter { return metadata.NewLessThanFilter(field, value) }

// ContainsAny matches entities whose array-valued field intersects values.
func ContainsAny(field string, values []any) Filter {
	return metadata.NewContainsAnyFilter(field, values)
}

// ContainsAll matches entities whose array-valued field is a superset of values.
func ContainsAll(field string, values []any) Filter {
	return metadata.NewContainsAllFilter(field, values)
}

// And requires every filter to match.
func And(filters ...Filter) Filter { return metadata.NewAndFilter(filters...) }

// Or requires at least one filter to match.
func Or(filters ...Filter) Filter { return metadata.NewOrFilter(filters...) }

// Not inverts a filter.
func Not(filter Filter) Filter { return metadata.NewNotFilter(filter) }

// ConnectedClause expands the search frontier across verb edges before
// intersecting with a query's other clauses.
type ConnectedClause struct {
	From     *uuid.UUID
	Via      []VerbType
	MaxDepth int
}

// QueryMode hints which retrieval modality the planner should favor.
type QueryMode int

const (
	ModeAuto QueryMode = iota
	ModeVectorOnly
	ModeGraphOnly
	ModeMetadataOnly
	ModeFusion
)

// Query is the structured triple-intelligence query: an optional vector
// clause, an optional metadata predicate, and an optional graph clause.
// At least one clause must be set.
type Query struct {
	Vector         []float32
	EntityType     NounType
	HasEntityType  bool
	Where          Filter
	Connected      *ConnectedClause
	Mode           QueryMode
	Limit          int
	Offset         int
	Cursor         string
	IncludeDeleted bool
}

// QueryBuilder assembles a Query fluently.
type QueryBuilder struct{ q Query }

// NewQuery starts a new QueryBuilder.
func NewQuery() *QueryBuilder { return &QueryBuilder{} }

func (b *QueryBuilder) WithVector(v []float32) *QueryBuilder { b.q.Vector = v; return b }

func (b *QueryBuilder) WithEntityType(nt NounType) *QueryBuilder {
	b.q.EntityType, b.q.HasEntityType = nt, true
	return b
}

func (b *QueryBuilder) WithFilter(f Filter) *QueryBuilder { b.q.Where = f; return b }

func (b *QueryBuilder) WithConnected(c ConnectedClause) *QueryBuilder { b.q.Connected = &c; return b }

func (b *QueryBuilder) WithMode(m QueryMode) *QueryBuilder { b.q.Mode = m; return b }

func (b *QueryBuilder) WithLimit(n int) *QueryBuilder { b.q.Limit = n; return b }

func (b *QueryBuilder) WithOffset(n int) *QueryBuilder { b.q.Offset = n; return b }

func (b *QueryBuilder) WithCursor(c string) *QueryBuilder { b.q.Cursor = c; return b }

func (b *QueryBuilder) IncludeDeleted() *QueryBuilder { b.q.IncludeDeleted = true; return b }

func (b *QueryBuilder) Build() Query { return b.q }

// Page is one page of ranked results.
type Page struct {
	Items      []*Item
	NextCursor string
	HasMore    bool
}

// Item is one ranked result: the raw entity ref, its planner score, and
// the hydrated noun or verb (whichever it refers to).
type Item struct {
	ID    uuid.UUID
	Kind  hnsw.EntityKind
	Score float32
	Noun  *Noun
	Verb  *Verb
}

func queryModeToInternal(m QueryMode) planner.Mode {
	switch m {
	case ModeVectorOnly:
		return planner.ModeVector
	case ModeGraphOnly:
		return planner.ModeGraph
	case ModeMetadataOnly:
		return planner.ModeMetadata
	case ModeFusion:
		return planner.ModeFusion
	default:
		return planner.ModeAuto
	}
}

// Search runs a structured triple-intelligence query and hydrates the
// resulting page with full noun/verb records.
func (e *Engine) Search(ctx context.Context, q Query) (*Page, error) {
	if err := e.ensureOpen(); err != nil {
		return nil, err
	}
	if err := e.checkMode(false, true, false); err != nil {
		return nil, err
	}
	if q.Vector == nil && q.Where == nil && q.Connected == nil {
		return nil, newError(KindValidation, "Search", "query has no clause", ErrEmptyQuery)
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.GetTimeout)
	defer cancel()

	internalQuery := planner.Query{
		Vector:         q.Vector,
		Where:          q.Where,
		Mode:           queryModeToInternal(q.Mode),
		Limit:          q.Limit,
		Offset:         q.Offset,
		Cursor:         q.Cursor,
		IncludeDeleted: q.IncludeDeleted,
	}
	if q.HasEntityType {
		internalQuery.EntityType = q.EntityType.String()
	}
	if q.Connected != nil {
		via := make([]string, len(q.Connected.Via))
		for i, vt := range q.Connected.Via {
			via[i] = vt.String()
		}
		var from hnsw.EntityRef
		if q.Connected.From != nil {
			from = hnsw.EntityRef{ID: *q.Connected.From, Kind: hnsw.EntityNoun}
		}
		internalQuery.Connected = &planner.ConnectedClause{
			From:     &from,
			Via:      via,
			MaxDepth: q.Connected.MaxDepth,
		}
	}

	cacheable := q.Where == nil
	var cacheKey string
	if cacheable {
		cacheKey = cache.Key("search", q.Limit, q.Offset, map[string]string{
			"cursor": q.Cursor,
			"type":   q.EntityType.String(),
		})
		if cached, ok := e.cache.Get(cacheKey); ok {
			if page, ok := cached.(*Page); ok {
				if e.metrics != nil {
					e.metrics.CacheHits.Inc()
				}
				return page, nil
			}
		}
		if e.metrics != nil {
			e.metrics.CacheMisses.Inc()
		}
	}

	result, err := e.planner.Plan(ctx, internalQuery)
	if err != nil {
		if e.metrics != nil {
			e.metrics.SearchErrors.Inc()
		}
		return nil, newError(KindTransient, "Search", "query planning failed", err)
	}
	if e.metrics != nil {
		e.metrics.SearchQueries.Inc()
	}

	page := &Page{NextCursor: result.NextCursor, HasMore: result.HasMore}
	for _, item := range result.Items {
		hydrated := &Item{ID: item.Ref.ID, Kind: item.Ref.Kind, Score: item.Score}
		e.hydrate(ctx, hydrated)
		page.Items = append(page.Items, hydrated)
	}

	if cacheable {
		e.cache.Put(cacheKey, page)
	}
	return page, nil
}

func (e *Engine) hydrate(ctx context.Context, item *Item) {
	switch item.Kind {
	case hnsw.EntityNoun:
		if n, err := e.GetNoun(ctx, item.ID, false); err == nil {
			item.Noun = n
		}
	case hnsw.EntityVerb:
		if v, err := e.GetVerb(ctx, item.ID); err == nil {
			item.Verb = v
		}
	}
}
