// Package cleanup periodically reclaims soft-deleted entities past a
// configurable age threshold, removing them from storage, the HNSW
// graph, and the metadata index in that crash-safe order.
package cleanup

import (
	"context"
	"time"

	"github.com/brainygraph/brainygraph/internal/hnsw"
	"github.com/brainygraph/brainygraph/internal/metadata"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultInterval = 15 * time.Minute
	defaultMaxAge   = time.Hour
)

// StorageRemover deletes an entity's persisted record by kind.
type StorageRemover interface {
	DeleteNoun(ctx context.Context, id uuid.UUID) error
	DeleteVerb(ctx context.Context, id uuid.UUID) error
}

// VectorRemover deletes an entity's node from the vector index.
type VectorRemover interface {
	Delete(ctx context.Context, ref hnsw.EntityRef) error
}

// MetadataScanner lists and removes records from the metadata index.
type MetadataScanner interface {
	AllIncludingDeleted(entityType string) []*metadata.Record
	Remove(entityType string, ref hnsw.EntityRef)
}

// Reclaimer periodically scans tombstoned entities and hard-removes
// those older than MaxAge.
type Reclaimer struct {
	Storage  StorageRemover
	Vector   VectorRemover
	Metadata MetadataScanner
	Types    []string // entity types to scan each pass

	Interval time.Duration
	MaxAge   time.Duration
	Log      zerolog.Logger
	Now      func() time.Time
}

// New creates a Reclaimer with the given collaborators, defaulting
// Interval to 15 minutes and MaxAge to one hour per the engine's
// default cleanup policy.
func New(storage StorageRemover, vector VectorRemover, meta MetadataScanner, types []string, log zerolog.Logger) *Reclaimer {
	return &Reclaimer{
		Storage:  storage,
		Vector:   vector,
		Metadata: meta,
		Types:    types,
		Interval: defaultInterval,
		MaxAge:   defaultMaxAge,
		Log:      log,
		Now:      time.Now,
	}
}

// Run blocks, performing one reclamation pass per Interval until ctx is
// canceled. Failures within a pass are logged and the pass continues,
// matching the engine's policy that background tasks never propagate
// errors that would tear down the process.
func (r *Reclaimer) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs a single reclamation pass across all configured entity
// types, returning the number of entities hard-removed.
func (r *Reclaimer) Sweep(ctx context.Context) int {
	removed := 0
	now := r.Now()
	for _, entityType := range r.Types {
		for _, rec := range r.Metadata.AllIncludingDeleted(entityType) {
			if !isReclaimable(rec, now, r.MaxAge) {
				continue
			}
			if err := r.reclaim(ctx, entityType, rec); err != nil {
				r.Log.Warn().Err(err).Str("type", entityType).Str("id", rec.Ref.ID.String()).Msg("cleanup: failed to reclaim entity")
				continue
			}
			removed++
		}
	}
	return removed
}

func (r *Reclaimer) reclaim(ctx context.Context, entityType string, rec *metadata.Record) error {
	var err error
	if rec.Ref.Kind == hnsw.EntityVerb {
		err = r.Storage.DeleteVerb(ctx, rec.Ref.ID)
	} else {
		err = r.Storage.DeleteNoun(ctx, rec.Ref.ID)
	}
	if err != nil {
		return err
	}

	if err := r.Vector.Delete(ctx, rec.Ref); err != nil {
		return err
	}

	r.Metadata.Remove(entityType, rec.Ref)
	return nil
}

func isReclaimable(rec *metadata.Record, now time.Time, maxAge time.Duration) bool {
	deleted, _ := rec.Metadata[metadata.SystemDeleted].(bool)
	if !deleted {
		return false
	}
	deletedAt, ok := deletedAtOf(rec)
	if !ok {
		return false
	}
	return now.Sub(deletedAt) >= maxAge
}

func deletedAtOf(rec *metadata.Record) (time.Time, bool) {
	raw, ok := rec.Metadata[metadata.SystemDeletedAt]
	if !ok {
		return time.Time{}, false
	}
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}
