package brainygraph

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/brainygraph/brainygraph/internal/hnsw"
	"github.com/brainygraph/brainygraph/internal/metadata"
	"github.com/brainygraph/brainygraph/internal/storage"
)

// BackupData is a full point-in-time export of the corpus: every noun
// and verb record, independent of the in-memory HNSW/metadata indexes
// built over them.
type BackupData struct {
	Dimension int
	Nouns     []Noun
	Verbs     []Verb
}

// RestoreOptions configures how Restore applies a BackupData.
type RestoreOptions struct {
	// ClearExisting wipes the current corpus before restoring. Without
	// it, restored records are merged on top of whatever already exists.
	ClearExisting bool
}

const backupPageSize = 500

// Backup exports every noun and verb currently in storage.
func (e *Engine) Backup(ctx context.Context) (*BackupData, error) {
	if err := e.ensureOpen(); err != nil {
		return nil, err
	}

	data := &BackupData{Dimension: e.config.Dimension}

	for offset := 0; ; offset += backupPageSize {
		result, err := e.storage.GetNouns(ctx, storage.ListOptions{
			Pagination: storage.Pagination{Offset: offset, Limit: backupPageSize},
		})
		if err != nil {
			return nil, newError(KindTransient, "Backup", "failed to list nouns", err)
		}
		for _, raw := range result.Items {
			item := raw.(map[string]any)
			vector, _ := item["vector"].([]float32)
			meta, _ := item["metadata"].(map[string]any)
			nt, err := ParseNounType(item["type"].(string))
			if err != nil {
				nt = Unknown
			}
			data.Nouns = append(data.Nouns, Noun{
				ID: item["id"].(uuid.UUID), Type: nt, Vector: vector, Metadata: meta,
			})
		}
		if !result.HasMore {
			break
		}
	}

	for offset := 0; ; offset += backupPageSize {
		result, err := e.storage.GetVerbs(ctx, storage.ListOptions{
			Pagination: storage.Pagination{Offset: offset, Limit: backupPageSize},
		})
		if err != nil {
			return nil, newError(KindTransient, "Backup", "failed to list verbs", err)
		}
		for _, raw := range result.Items {
			item := raw.(map[string]any)
			meta, _ := item["metadata"].(map[string]any)
			vt, err := ParseVerbType(item["type"].(string))
			if err != nil {
				vt = Other
			}
			data.Verbs = append(data.Verbs, Verb{
				ID:       item["id"].(uuid.UUID),
				Type:     vt,
				Source:   item["source"].(uuid.UUID),
				Target:   item["target"].(uuid.UUID),
				Weight:   item["weight"].(float32),
				Metadata: meta,
			})
		}
		if !result.HasMore {
			break
		}
	}

	return data, nil
}

// Restore reloads a BackupData into storage and rebuilds every in-memory
// index from it.
func (e *Engine) Restore(ctx context.Context, data *BackupData, opts RestoreOptions) error {
	if err := e.ensureOpen(); err != nil {
		return err
	}
	if err := e.checkMode(true, false, false); err != nil {
		return err
	}
	if data.Dimension != 0 && data.Dimension != e.config.Dimension {
		return newError(KindValidation, "Restore", "backup dimension does not match engine configuration", ErrDimensionMismatch)
	}

	if opts.ClearExisting {
		if err := e.storage.Clear(ctx); err != nil {
			return newError(KindTransient, "Restore", "failed to clear storage", err)
		}
	}

	for _, n := range data.Nouns {
		if err := e.storage.SaveNoun(ctx, n.Type.String(), n.ID, n.Vector, n.Metadata); err != nil {
			return newError(KindTransient, "Restore", fmt.Sprintf("failed to restore noun %s", n.ID), err)
		}
	}
	for _, v := range data.Verbs {
		if err := e.storage.SaveVerb(ctx, v.Type.String(), v.ID, v.Source, v.Target, v.Weight, v.Metadata); err != nil {
			return newError(KindTransient, "Restore", fmt.Sprintf("failed to restore verb %s", v.ID), err)
		}
	}

	if err := e.rebuildIndexes(ctx); err != nil {
		return newError(KindTransient, "Restore", "failed to rebuild indexes", err)
	}
	return nil
}

// rebuildIndexes discards and reconstructs the in-memory HNSW, metadata,
// and graph indexes from whatever is currently in storage, without
// touching storage itself.
func (e *Engine) rebuildIndexes(ctx context.Context) error {
	hnswIndex, err := hnsw.New(hnswConfigFrom(e.config))
	if err != nil {
		return err
	}
	e.vector = hnswIndex
	e.metadata = metadata.New()
	e.graph = newGraphIndex()
	e.planner.Vector = e.vector
	e.planner.Metadata = e.metadata
	e.planner.Graph = e.graph
	return e.loadExisting(ctx)
}
