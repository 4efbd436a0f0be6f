package brainygraph

import (
	"context"

	"github.com/google/uuid"

	"github.com/brainygraph/brainygraph/internal/augment"
	"github.com/brainygraph/brainygraph/internal/cache"
	"github.com/brainygraph/brainygraph/internal/hnsw"
)

// resolveVector returns data unchanged if it is already a vector,
// otherwise runs it through the configured embedder.
func (e *Engine) resolveVector(ctx context.Context, data any) ([]float32, error) {
	if vec, ok := data.([]float32); ok {
		return vec, nil
	}
	if e.config.Embedder == nil {
		return nil, newError(KindValidation, "resolveVector", "no vector supplied and no embedder configured", nil)
	}
	vec, err := e.config.Embedder.Embed(ctx, data)
	if err != nil {
		return nil, newError(KindTransient, "resolveVector", "embedder call failed", err)
	}
	return vec, nil
}

// AddNoun inserts a new typed entity. data is either a []float32 vector
// or arbitrary data handed to the configured embedder. externalID, if
// non-empty, is registered against the generated id for dedup on
// subsequent writes from the same ingest stream.
func (e *Engine) AddNoun(ctx context.Context, data any, nounType NounType, externalID string, meta map[string]any) (uuid.UUID, error) {
	if err := e.ensureOpen(); err != nil {
		return uuid.Nil, err
	}
	if err := e.checkMode(true, false, false); err != nil {
		return uuid.Nil, err
	}

	vector, err := e.resolveVector(ctx, data)
	if err != nil {
		return uuid.Nil, err
	}
	if len(vector) != e.config.Dimension {
		return uuid.Nil, newError(KindValidation, "AddNoun", "vector dimension mismatch", ErrDimensionMismatch)
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.AddTimeout)
	defer cancel()

	id := uuid.New()
	_, rest := Namespace(meta)

	params := augment.InsertParams{ID: id, ExternalID: externalID}
	typeName := nounType.String()

	terminal := func(ctx context.Context, op augment.Operation, params any) (any, error) {
		if err := e.storage.SaveNoun(ctx, typeName, id, vector, rest); err != nil {
			return nil, err
		}
		ref := hnsw.EntityRef{ID: id, Kind: hnsw.EntityNoun}
		if err := e.vector.Insert(ctx, ref, vector, rest); err != nil {
			return nil, err
		}
		e.metadata.Add(typeName, ref, rest)
		e.counters.IncrementNoun(int(nounType))
		e.cache.InvalidateOnDataChange(cache.ChangeAdd, id.String())
		return id, nil
	}

	result, err := e.chain.Execute(ctx, augment.OpAddNoun, params, terminal)
	if err != nil {
		return uuid.Nil, newError(KindTransient, "AddNoun", "failed to add noun", err)
	}
	if e.metrics != nil {
		e.metrics.NounInserts.Inc()
	}
	return result.(uuid.UUID), nil
}

// GetNoun returns a noun by id. Soft-deleted nouns are hidden unless
// includeDeleted is set.
func (e *Engine) GetNoun(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Noun, error) {
	if err := e.ensureOpen(); err != nil {
		return nil, err
	}
	if err := e.checkMode(false, false, true); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.GetTimeout)
	defer cancel()

	if cached, ok := e.cache.GetEntity(id.String()); ok {
		if n, ok := cached.(*Noun); ok {
			return n, nil
		}
	}

	vector, meta, entityType, found, err := e.storage.GetNoun(ctx, id)
	if err != nil {
		return nil, newError(KindTransient, "GetNoun", "storage lookup failed", err)
	}
	if !found {
		return nil, newError(KindNotFound, "GetNoun", "noun not found", nil)
	}

	ref := hnsw.EntityRef{ID: id, Kind: hnsw.EntityNoun}
	if !includeDeleted && e.metadata.Deleted(entityType, ref) {
		return nil, newError(KindNotFound, "GetNoun", "noun not found", nil)
	}

	nt, parseErr := ParseNounType(entityType)
	if parseErr != nil {
		nt = Unknown
	}
	noun := &Noun{ID: id, Type: nt, Vector: vector, Metadata: meta}
	e.cache.PutEntity(id.String(), noun)
	return noun, nil
}

// UpdateNoun replaces a noun's vector, merges new metadata fields into
// its existing metadata, or both. A nil data argument leaves the vector
// unchanged; a nil meta argument leaves metadata unchanged.
func (e *Engine) UpdateNoun(ctx context.Context, id uuid.UUID, data any, meta map[string]any) error {
	if err := e.ensureOpen(); err != nil {
		return err
	}
	if err := e.checkMode(true, false, false); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.AddTimeout)
	defer cancel()

	vector, existingMeta, entityType, found, err := e.storage.GetNoun(ctx, id)
	if err != nil {
		return newError(KindTransient, "UpdateNoun", "storage lookup failed", err)
	}
	if !found {
		return newError(KindNotFound, "UpdateNoun", "noun not found", nil)
	}

	newVector := vector
	if data != nil {
		newVector, err = e.resolveVector(ctx, data)
		if err != nil {
			return err
		}
		if len(newVector) != e.config.Dimension {
			return newError(KindValidation, "UpdateNoun", "vector dimension mismatch", ErrDimensionMismatch)
		}
	}

	newMeta := existingMeta
	if meta != nil {
		newMeta = mergeMetadata(existingMeta, meta)
	}

	terminal := func(ctx context.Context, op augment.Operation, params any) (any, error) {
		if err := e.storage.SaveNoun(ctx, entityType, id, newVector, newMeta); err != nil {
			return nil, err
		}
		ref := hnsw.EntityRef{ID: id, Kind: hnsw.EntityNoun}
		if data != nil {
			if err := e.vector.Delete(ctx, ref); err != nil {
				return nil, err
			}
			if err := e.vector.Insert(ctx, ref, newVector, newMeta); err != nil {
				return nil, err
			}
		}
		e.metadata.Add(entityType, ref, newMeta)
		e.cache.InvalidateOnDataChange(cache.ChangeUpdate, id.String())
		return nil, nil
	}

	_, err = e.chain.Execute(ctx, augment.OpUpdateNoun, augment.InsertParams{ID: id}, terminal)
	if err != nil {
		return newError(KindTransient, "UpdateNoun", "failed to update noun", err)
	}
	return nil
}

// DeleteNoun soft-deletes a noun: it is hidden from search and lookup
// but remains on disk until the cleanup reclaimer's max-age threshold
// passes.
func (e *Engine) DeleteNoun(ctx context.Context, id uuid.UUID) error {
	if err := e.ensureOpen(); err != nil {
		return err
	}
	if err := e.checkMode(true, false, false); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.DeleteTimeout)
	defer cancel()

	_, existingMeta, entityType, found, err := e.storage.GetNoun(ctx, id)
	if err != nil {
		return newError(KindTransient, "DeleteNoun", "storage lookup failed", err)
	}
	if !found {
		return newError(KindNotFound, "DeleteNoun", "noun not found", nil)
	}

	terminal := func(ctx context.Context, op augment.Operation, params any) (any, error) {
		tombstoned := tombstone(existingMeta)
		if err := e.storage.SaveMetadata(ctx, id, tombstoned); err != nil {
			return nil, err
		}
		ref := hnsw.EntityRef{ID: id, Kind: hnsw.EntityNoun}
		e.metadata.Add(entityType, ref, tombstoned)
		e.counters.DecrementNoun(int(mustParseNounType(entityType)))
		e.cache.InvalidateOnDataChange(cache.ChangeDelete, id.String())
		return nil, nil
	}

	_, err = e.chain.Execute(ctx, augment.OpDeleteNoun, augment.InsertParams{ID: id}, terminal)
	if err != nil {
		return newError(KindTransient, "DeleteNoun", "failed to delete noun", err)
	}
	return nil
}

func mustParseNounType(name string) NounType {
	nt, err := ParseNounType(name)
	if err != nil {
		return Unknown
	}
	return nt
}
