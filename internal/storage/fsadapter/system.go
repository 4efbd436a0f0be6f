package fsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brainygraph/brainygraph/internal/storage"
)

type systemState struct {
	Stats  map[string]int64            `json:"stats"`
	Fields map[string]map[string]bool  `json:"fields"`
}

func (a *Adapter) systemPath() string {
	return filepath.Join(a.basePath, "_system", "state.json")
}

func (a *Adapter) loadSystemState() error {
	data, err := os.ReadFile(a.systemPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var state systemState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	if state.Stats != nil {
		a.stats = state.Stats
	}
	for entityType, fieldSet := range state.Fields {
		set := make(map[string]struct{}, len(fieldSet))
		for field := range fieldSet {
			set[field] = struct{}{}
		}
		a.fields[entityType] = set
	}
	return nil
}

// FlushStatisticsToStorage implements storage.Adapter.
func (a *Adapter) FlushStatisticsToStorage(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.flushSystemStateLocked()
}

func (a *Adapter) flushSystemStateLocked() error {
	fieldsOut := make(map[string]map[string]bool, len(a.fields))
	for entityType, set := range a.fields {
		m := make(map[string]bool, len(set))
		for field := range set {
			m[field] = true
		}
		fieldsOut[entityType] = m
	}

	state := systemState{Stats: a.stats, Fields: fieldsOut}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	dir := filepath.Join(a.basePath, "_system")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := a.systemPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, a.systemPath())
}

// SaveStatistics implements storage.Adapter.
func (a *Adapter) SaveStatistics(ctx context.Context, snapshot map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, v := range snapshot {
		if n, ok := toInt64(v); ok {
			a.stats[k] = n
		}
	}
	return a.flushSystemStateLocked()
}

// GetStatistics implements storage.Adapter.
func (a *Adapter) GetStatistics(ctx context.Context) (map[string]any, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]any, len(a.stats))
	for k, v := range a.stats {
		out[k] = v
	}
	return out, nil
}

// IncrementStatistic implements storage.Adapter.
func (a *Adapter) IncrementStatistic(ctx context.Context, key string, delta int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats[key] += delta
	return nil
}

// DecrementStatistic implements storage.Adapter.
func (a *Adapter) DecrementStatistic(ctx context.Context, key string, delta int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats[key] -= delta
	return nil
}

// UpdateHNSWIndexSize implements storage.Adapter.
func (a *Adapter) UpdateHNSWIndexSize(ctx context.Context, nounCount, verbCount int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats["hnsw.nouns"] = int64(nounCount)
	a.stats["hnsw.verbs"] = int64(verbCount)
	return nil
}

// TrackFieldNames implements storage.Adapter.
func (a *Adapter) TrackFieldNames(ctx context.Context, entityType string, fields []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	set, ok := a.fields[entityType]
	if !ok {
		set = make(map[string]struct{})
		a.fields[entityType] = set
	}
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return nil
}

// GetAvailableFieldNames implements storage.Adapter.
func (a *Adapter) GetAvailableFieldNames(ctx context.Context, entityType string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	set, ok := a.fields[entityType]
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	return out, nil
}

// GetStandardFieldMappings implements storage.Adapter. brainygraph has no
// schema-migration layer, so the mapping is the identity map over every
// field name seen so far.
func (a *Adapter) GetStandardFieldMappings(ctx context.Context) (map[string]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]string)
	for _, set := range a.fields {
		for f := range set {
			out[f] = f
		}
	}
	return out, nil
}

// GetChangesSince implements storage.Adapter using an in-memory ring
// buffer of recent writes; it does not survive a process restart, so a
// distributed reader that has been offline longer than changeLogCapacity
// writes must fall back to a full resync.
func (a *Adapter) GetChangesSince(ctx context.Context, since time.Time, limit int) ([]storage.Change, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]storage.Change, 0, limit)
	for _, c := range a.changes {
		if c.Timestamp.Before(since) {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (a *Adapter) recordChangeLocked(op storage.ChangeOp, entityType string, id uuid.UUID, data any) {
	change := storage.Change{Operation: op, EntityType: entityType, EntityID: id, Data: data, Timestamp: time.Now()}
	if len(a.changes) < changeLogCapacity {
		a.changes = append(a.changes, change)
		return
	}
	a.changes[a.changeHead] = change
	a.changeHead = (a.changeHead + 1) % changeLogCapacity
}

func (a *Adapter) trackFieldsLocked(entityType string, metadata map[string]any) {
	set, ok := a.fields[entityType]
	if !ok {
		set = make(map[string]struct{})
		a.fields[entityType] = set
	}
	for field := range metadata {
		if strings.HasPrefix(field, "_brainy.") {
			continue
		}
		set[field] = struct{}{}
	}
}

// rebuildIndex walks the on-disk record tree to repopulate the in-memory
// id-to-type lookup after a restart.
func (a *Adapter) rebuildIndex() error {
	for _, kind := range []string{"nouns", "verbs"} {
		root := filepath.Join(a.basePath, "entities", kind)
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(path, ".json") {
				return nil
			}
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				return nil
			}
			var rec entityRecord
			if jsonErr := json.Unmarshal(data, &rec); jsonErr != nil {
				return nil
			}
			if kind == "nouns" {
				a.nounIndex[rec.ID] = rec.Type
			} else {
				a.verbIndex[rec.ID] = rec.Type
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("walk %s: %w", kind, err)
		}
	}
	return nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
