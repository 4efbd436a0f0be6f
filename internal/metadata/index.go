package metadata

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/brainygraph/brainygraph/internal/hnsw"
)

// Index is the incremental inverted index over noun and verb metadata,
// partitioned by entity type. Add/Remove maintain per-field equality and
// containment postings: Lookup answers an equality query from them, and a
// positive match against _brainy.deleted is an O(1) postings lookup rather
// than a scan. Apply does not use the postings to narrow a Filter; it
// evaluates the Filter over every record of the type.
type Index struct {
	mu sync.RWMutex

	records map[string]map[hnsw.EntityRef]*Record

	// equality postings: entityType -> field -> normalized value -> refs
	equality map[string]map[string]map[any]map[hnsw.EntityRef]bool

	// containment postings: entityType -> field -> normalized element -> refs
	containment map[string]map[string]map[any]map[hnsw.EntityRef]bool
}

// New creates an empty metadata index.
func New() *Index {
	return &Index{
		records:     make(map[string]map[hnsw.EntityRef]*Record),
		equality:    make(map[string]map[string]map[any]map[hnsw.EntityRef]bool),
		containment: make(map[string]map[string]map[any]map[hnsw.EntityRef]bool),
	}
}

// Add indexes or re-indexes ref's metadata under entityType. A prior
// record for ref, if any, is removed first so postings never go stale.
func (idx *Index) Add(entityType string, ref hnsw.EntityRef, meta map[string]any) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeLocked(entityType, ref)

	if idx.records[entityType] == nil {
		idx.records[entityType] = make(map[hnsw.EntityRef]*Record)
	}
	cloned := make(map[string]any, len(meta))
	for k, v := range meta {
		cloned[k] = v
	}
	rec := &Record{Ref: ref, Type: entityType, Metadata: cloned}
	idx.records[entityType][ref] = rec

	for field, value := range cloned {
		if slice := toSlice(value); slice != nil {
			for _, elem := range slice {
				idx.indexContainmentLocked(entityType, field, elem, ref)
			}
			continue
		}
		idx.indexEqualityLocked(entityType, field, value, ref)
	}
}

// Remove drops ref from every posting and the record store.
func (idx *Index) Remove(entityType string, ref hnsw.EntityRef) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(entityType, ref)
}

func (idx *Index) removeLocked(entityType string, ref hnsw.EntityRef) {
	byType, ok := idx.records[entityType]
	if !ok {
		return
	}
	rec, ok := byType[ref]
	if !ok {
		return
	}
	for field, value := range rec.Metadata {
		if slice := toSlice(value); slice != nil {
			for _, elem := range slice {
				idx.unindexContainmentLocked(entityType, field, elem, ref)
			}
			continue
		}
		idx.unindexEqualityLocked(entityType, field, value, ref)
	}
	delete(byType, ref)
}

func (idx *Index) indexEqualityLocked(entityType, field string, value any, ref hnsw.EntityRef) {
	key := normalizeKey(value)
	if key == nil {
		return
	}
	byType, ok := idx.equality[entityType]
	if !ok {
		byType = make(map[string]map[any]map[hnsw.EntityRef]bool)
		idx.equality[entityType] = byType
	}
	byValue, ok := byType[field]
	if !ok {
		byValue = make(map[any]map[hnsw.EntityRef]bool)
		byType[field] = byValue
	}
	refs, ok := byValue[key]
	if !ok {
		refs = make(map[hnsw.EntityRef]bool)
		byValue[key] = refs
	}
	refs[ref] = true
}

func (idx *Index) unindexEqualityLocked(entityType, field string, value any, ref hnsw.EntityRef) {
	key := normalizeKey(value)
	if key == nil {
		return
	}
	if refs := idx.equality[entityType][field][key]; refs != nil {
		delete(refs, ref)
	}
}

func (idx *Index) indexContainmentLocked(entityType, field string, elem any, ref hnsw.EntityRef) {
	key := normalizeKey(elem)
	if key == nil {
		return
	}
	byType, ok := idx.containment[entityType]
	if !ok {
		byType = make(map[string]map[any]map[hnsw.EntityRef]bool)
		idx.containment[entityType] = byType
	}
	byElem, ok := byType[field]
	if !ok {
		byElem = make(map[any]map[hnsw.EntityRef]bool)
		byType[field] = byElem
	}
	refs, ok := byElem[key]
	if !ok {
		refs = make(map[hnsw.EntityRef]bool)
		byElem[key] = refs
	}
	refs[ref] = true
}

func (idx *Index) unindexContainmentLocked(entityType, field string, elem any, ref hnsw.EntityRef) {
	key := normalizeKey(elem)
	if key == nil {
		return
	}
	if refs := idx.containment[entityType][field][key]; refs != nil {
		delete(refs, ref)
	}
}

func normalizeKey(value any) any {
	if f, ok := toFloat64(value); ok {
		return f
	}
	switch value.(type) {
	case string, bool:
		return value
	default:
		return nil
	}
}

// Lookup returns every record of entityType whose field equals value, via
// the equality postings — O(1) plus the size of the match set.
func (idx *Index) Lookup(entityType, field string, value any) []*Record {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	key := normalizeKey(value)
	refs := idx.equality[entityType][field][key]
	result := make([]*Record, 0, len(refs))
	for ref := range refs {
		if rec, ok := idx.records[entityType][ref]; ok {
			result = append(result, rec)
		}
	}
	return result
}

// Deleted reports whether ref is marked soft-deleted, an O(1) postings
// membership check against the _brainy.deleted == true posting.
func (idx *Index) Deleted(entityType string, ref hnsw.EntityRef) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	refs := idx.equality[entityType][SystemDeleted][true]
	return refs != nil && refs[ref]
}

// All returns every non-deleted record of entityType (of every type when
// entityType is empty), sorted by ref for deterministic pagination.
func (idx *Index) All(entityType string) []*Record {
	return idx.allRecords(entityType, false)
}

// AllIncludingDeleted returns every record of entityType regardless of
// soft-delete status.
func (idx *Index) AllIncludingDeleted(entityType string) []*Record {
	return idx.allRecords(entityType, true)
}

func (idx *Index) allRecords(entityType string, includeDeleted bool) []*Record {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	types := []string{entityType}
	if entityType == "" {
		types = types[:0]
		for t := range idx.records {
			types = append(types, t)
		}
	}
	result := make([]*Record, 0)
	for _, t := range types {
		deletedRefs := idx.equality[t][SystemDeleted][true]
		for ref, rec := range idx.records[t] {
			if !includeDeleted && deletedRefs != nil && deletedRefs[ref] {
				continue
			}
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Ref.ID.String() < result[j].Ref.ID.String()
	})
	return result
}

// Apply narrows entityType's candidate set (every type's when entityType
// is empty) through filter, excluding soft-deleted records unless
// includeDeleted is set.
func (idx *Index) Apply(ctx context.Context, entityType string, filter Filter, includeDeleted bool) ([]*Record, error) {
	if filter == nil {
		return idx.allRecords(entityType, includeDeleted), nil
	}
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	candidates := idx.allRecords(entityType, includeDeleted)
	return filter.Apply(ctx, candidates)
}
