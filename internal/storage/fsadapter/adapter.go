// Package fsadapter implements the default storage.Adapter: a type-
// partitioned JSON tree on the local filesystem, one record file per
// entity, named by its id.
//
// Layout (relative to the adapter's base directory):
//
//	entities/nouns/{type}/records/{shard}/{id}.json
//	entities/verbs/{type}/records/{shard}/{id}.json
//	_system/state.json
//
// Each record holds the entity's vector and metadata together (plus source,
// target and weight for verbs); state.json holds statistics and field names.
//
// shard is the first two hex characters of the entity's UUID (256 shards),
// keeping any single directory from growing unbounded as the corpus grows.
package fsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brainygraph/brainygraph/internal/storage"
)

const changeLogCapacity = 4096

type entityRecord struct {
	ID       uuid.UUID      `json:"id"`
	Type     string         `json:"type"`
	Vector   []float32      `json:"vector,omitempty"`
	Metadata map[string]any `json:"metadata"`
	Source   *uuid.UUID     `json:"source,omitempty"`
	Target   *uuid.UUID     `json:"target,omitempty"`
	Weight   float32        `json:"weight,omitempty"`
}

// Adapter is the filesystem-backed storage.Adapter implementation.
type Adapter struct {
	mu       sync.RWMutex
	basePath string
	log      zerolog.Logger

	// location index: entity id -> (kind, type) so Get/Delete don't need to
	// probe every type directory.
	nounIndex map[uuid.UUID]string
	verbIndex map[uuid.UUID]string

	stats  map[string]int64
	fields map[string]map[string]struct{}

	changes    []storage.Change
	changeHead int
}

// New creates (or reopens) an adapter rooted at basePath, replaying its
// on-disk tree to rebuild the in-memory location index.
func New(basePath string, log zerolog.Logger) (*Adapter, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("fsadapter: create base dir: %w", err)
	}

	a := &Adapter{
		basePath:  basePath,
		log:       log,
		nounIndex: make(map[uuid.UUID]string),
		verbIndex: make(map[uuid.UUID]string),
		stats:     make(map[string]int64),
		fields:    make(map[string]map[string]struct{}),
	}

	if err := a.loadSystemState(); err != nil {
		return nil, fmt.Errorf("fsadapter: load system state: %w", err)
	}
	if err := a.rebuildIndex(); err != nil {
		return nil, fmt.Errorf("fsadapter: rebuild index: %w", err)
	}

	return a, nil
}

func shard(id uuid.UUID) string {
	return id.String()[:2]
}

func (a *Adapter) entityDir(kind, entityType string) string {
	return filepath.Join(a.basePath, "entities", kind, entityType)
}

func (a *Adapter) recordPath(kind, entityType string, id uuid.UUID) string {
	return filepath.Join(a.entityDir(kind, entityType), "records", shard(id), id.String()+".json")
}

func (a *Adapter) writeRecord(rec *entityRecord, kind string) error {
	path := a.recordPath(kind, rec.Type, rec.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (a *Adapter) readRecord(kind, entityType string, id uuid.UUID) (*entityRecord, error) {
	path := a.recordPath(kind, entityType, id)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec entityRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveNoun implements storage.Adapter.
func (a *Adapter) SaveNoun(ctx context.Context, entityType string, id uuid.UUID, vector []float32, metadata map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, existed := a.nounIndex[id]
	rec := &entityRecord{ID: id, Type: entityType, Vector: vector, Metadata: metadata}
	if err := a.writeRecord(rec, "nouns"); err != nil {
		return fmt.Errorf("fsadapter: save noun: %w", err)
	}
	a.nounIndex[id] = entityType
	a.trackFieldsLocked(entityType, metadata)
	a.recordChangeLocked(storage.ChangeAdd, entityType, id, rec)
	if !existed {
		a.stats["nouns."+entityType] = a.stats["nouns."+entityType] + 1
	}
	return nil
}

// GetNoun implements storage.Adapter.
func (a *Adapter) GetNoun(ctx context.Context, id uuid.UUID) ([]float32, map[string]any, string, bool, error) {
	a.mu.RLock()
	entityType, ok := a.nounIndex[id]
	a.mu.RUnlock()
	if !ok {
		return nil, nil, "", false, nil
	}

	rec, err := a.readRecord("nouns", entityType, id)
	if os.IsNotExist(err) {
		return nil, nil, "", false, nil
	}
	if err != nil {
		return nil, nil, "", false, fmt.Errorf("fsadapter: get noun: %w", err)
	}
	return rec.Vector, rec.Metadata, rec.Type, true, nil
}

// GetNouns implements storage.Adapter. Pagination is offset/limit only;
// cursor-based pagination is left to a future adapter per the spec's "MAY
// implement cursor pagination" allowance.
func (a *Adapter) GetNouns(ctx context.Context, opts storage.ListOptions) (storage.ListResult, error) {
	a.mu.RLock()
	ids := make([]uuid.UUID, 0, len(a.nounIndex))
	for id := range a.nounIndex {
		ids = append(ids, id)
	}
	a.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	offset := opts.Pagination.Offset
	limit := opts.Pagination.Limit
	if limit <= 0 {
		limit = 100
	}

	result := storage.ListResult{}
	if offset >= len(ids) {
		return result, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}

	items := make([]any, 0, end-offset)
	for _, id := range ids[offset:end] {
		vector, metadata, entityType, found, err := a.GetNoun(ctx, id)
		if err != nil {
			return result, err
		}
		if !found {
			continue
		}
		items = append(items, map[string]any{
			"id": id, "type": entityType, "vector": vector, "metadata": metadata,
		})
	}

	total := len(ids)
	result.Items = items
	result.TotalCount = &total
	result.HasMore = end < len(ids)
	return result, nil
}

// DeleteNoun implements storage.Adapter.
func (a *Adapter) DeleteNoun(ctx context.Context, id uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	entityType, ok := a.nounIndex[id]
	if !ok {
		return nil
	}
	path := a.recordPath("nouns", entityType, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("fsadapter: delete noun: %w", err)
	}
	delete(a.nounIndex, id)
	a.recordChangeLocked(storage.ChangeDelete, entityType, id, nil)
	return nil
}

// SaveVerb implements storage.Adapter.
func (a *Adapter) SaveVerb(ctx context.Context, verbType string, id, source, target uuid.UUID, weight float32, metadata map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := &entityRecord{ID: id, Type: verbType, Source: &source, Target: &target, Weight: weight, Metadata: metadata}
	if err := a.writeRecord(rec, "verbs"); err != nil {
		return fmt.Errorf("fsadapter: save verb: %w", err)
	}
	a.verbIndex[id] = verbType
	a.trackFieldsLocked(verbType, metadata)
	a.recordChangeLocked(storage.ChangeAdd, verbType, id, rec)
	return nil
}

// GetVerb implements storage.Adapter.
func (a *Adapter) GetVerb(ctx context.Context, id uuid.UUID) (uuid.UUID, uuid.UUID, float32, map[string]any, string, bool, error) {
	a.mu.RLock()
	verbType, ok := a.verbIndex[id]
	a.mu.RUnlock()
	if !ok {
		return uuid.Nil, uuid.Nil, 0, nil, "", false, nil
	}

	rec, err := a.readRecord("verbs", verbType, id)
	if os.IsNotExist(err) {
		return uuid.Nil, uuid.Nil, 0, nil, "", false, nil
	}
	if err != nil {
		return uuid.Nil, uuid.Nil, 0, nil, "", false, fmt.Errorf("fsadapter: get verb: %w", err)
	}
	var source, target uuid.UUID
	if rec.Source != nil {
		source = *rec.Source
	}
	if rec.Target != nil {
		target = *rec.Target
	}
	return source, target, rec.Weight, rec.Metadata, rec.Type, true, nil
}

// GetVerbs implements storage.Adapter.
func (a *Adapter) GetVerbs(ctx context.Context, opts storage.ListOptions) (storage.ListResult, error) {
	a.mu.RLock()
	ids := make([]uuid.UUID, 0, len(a.verbIndex))
	for id := range a.verbIndex {
		ids = append(ids, id)
	}
	a.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	offset := opts.Pagination.Offset
	limit := opts.Pagination.Limit
	if limit <= 0 {
		limit = 100
	}
	result := storage.ListResult{}
	if offset >= len(ids) {
		return result, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}

	items := make([]any, 0, end-offset)
	for _, id := range ids[offset:end] {
		source, target, weight, metadata, verbType, found, err := a.GetVerb(ctx, id)
		if err != nil {
			return result, err
		}
		if !found {
			continue
		}
		items = append(items, map[string]any{
			"id": id, "type": verbType, "source": source, "target": target,
			"weight": weight, "metadata": metadata,
		})
	}

	total := len(ids)
	result.Items = items
	result.TotalCount = &total
	result.HasMore = end < len(ids)
	return result, nil
}

// DeleteVerb implements storage.Adapter.
func (a *Adapter) DeleteVerb(ctx context.Context, id uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	verbType, ok := a.verbIndex[id]
	if !ok {
		return nil
	}
	path := a.recordPath("verbs", verbType, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("fsadapter: delete verb: %w", err)
	}
	delete(a.verbIndex, id)
	a.recordChangeLocked(storage.ChangeDelete, verbType, id, nil)
	return nil
}

// SaveMetadata implements storage.Adapter by merging into the noun record.
func (a *Adapter) SaveMetadata(ctx context.Context, id uuid.UUID, metadata map[string]any) error {
	vector, _, entityType, found, err := a.GetNoun(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("fsadapter: noun %s not found", id)
	}
	return a.SaveNoun(ctx, entityType, id, vector, metadata)
}

// GetMetadata implements storage.Adapter.
func (a *Adapter) GetMetadata(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	_, metadata, _, found, err := a.GetNoun(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return metadata, nil
}

// SaveVerbMetadata implements storage.Adapter.
func (a *Adapter) SaveVerbMetadata(ctx context.Context, id uuid.UUID, metadata map[string]any) error {
	source, target, weight, _, verbType, found, err := a.GetVerb(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("fsadapter: verb %s not found", id)
	}
	return a.SaveVerb(ctx, verbType, id, source, target, weight, metadata)
}

// GetVerbMetadata implements storage.Adapter.
func (a *Adapter) GetVerbMetadata(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	_, _, _, metadata, _, found, err := a.GetVerb(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return metadata, nil
}

// Clear implements storage.Adapter.
func (a *Adapter) Clear(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(a.basePath, "entities")); err != nil {
		return fmt.Errorf("fsadapter: clear: %w", err)
	}
	a.nounIndex = make(map[uuid.UUID]string)
	a.verbIndex = make(map[uuid.UUID]string)
	a.stats = make(map[string]int64)
	a.fields = make(map[string]map[string]struct{})
	a.changes = nil
	a.changeHead = 0
	return nil
}

// GetStorageStatus implements storage.Adapter.
func (a *Adapter) GetStorageStatus(ctx context.Context) (storage.StorageStatus, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var size int64
	_ = filepath.WalkDir(a.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, statErr := d.Info(); statErr == nil {
			size += info.Size()
		}
		return nil
	})

	return storage.StorageStatus{
		Healthy:      true,
		BytesOnDisk:  size,
		LastSyncedAt: time.Now(),
	}, nil
}

// Close implements storage.Adapter. The filesystem adapter has no open
// handles to release between calls (each record write opens/closes its
// own file), so this is a no-op kept for interface symmetry with adapters
// that do hold persistent connections.
func (a *Adapter) Close() error { return nil }
