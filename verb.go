package brainygraph

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brainygraph/brainygraph/internal/augment"
	"github.com/brainygraph/brainygraph/internal/cache"
	"github.com/brainygraph/brainygraph/internal/hnsw"
	"github.com/brainygraph/brainygraph/internal/util"
)

// AddVerb inserts a directed, typed relationship between two nouns. If
// either endpoint is missing, the call fails with ErrEndpointMissing
// unless AutoCreateMissingNouns is enabled, in which case a placeholder
// noun is created in its place. weight and confidence may be left nil
// to let the scoring augmentation infer them from endpoint proximity,
// historical frequency, and age.
func (e *Engine) AddVerb(ctx context.Context, source, target uuid.UUID, verbType VerbType, weight, confidence *float32, externalID string, meta map[string]any) (uuid.UUID, error) {
	if err := e.ensureOpen(); err != nil {
		return uuid.Nil, err
	}
	if err := e.checkMode(true, false, false); err != nil {
		return uuid.Nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.AddTimeout)
	defer cancel()

	if err := e.ensureEndpoint(ctx, source); err != nil {
		return uuid.Nil, err
	}
	if err := e.ensureEndpoint(ctx, target); err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	_, rest := Namespace(meta)
	typeName := verbType.String()

	params := augment.VerbParams{
		ID:               id,
		ExternalID:       externalID,
		Weight:           weight,
		Confidence:       confidence,
		EndpointDistance: e.endpointDistance(source, target),
		HistoricalFreq:   e.historicalVerbFrequency(typeName),
		CreatedAt:        time.Now(),
	}

	terminal := func(ctx context.Context, op augment.Operation, params any) (any, error) {
		resolvedWeight, resolvedConfidence := resolveScores(params)

		if err := e.storage.SaveVerb(ctx, typeName, id, source, target, resolvedWeight, rest); err != nil {
			return nil, err
		}
		verbVector, err := e.verbVector(ctx, source, target, rest)
		if err != nil {
			return nil, err
		}
		ref := hnsw.EntityRef{ID: id, Kind: hnsw.EntityVerb}
		if err := e.vector.Insert(ctx, ref, verbVector, rest); err != nil {
			return nil, err
		}
		e.metadata.Add(typeName, ref, rest)
		e.graph.AddEdge(source, target, typeName)
		e.counters.IncrementVerb(int(verbType))
		_ = resolvedConfidence
		e.cache.InvalidateOnDataChange(cache.ChangeAdd, id.String())
		return id, nil
	}

	result, err := e.chain.Execute(ctx, augment.OpAddVerb, params, terminal)
	if err != nil {
		return uuid.Nil, newError(KindTransient, "AddVerb", "failed to add verb", err)
	}
	if e.metrics != nil {
		e.metrics.VerbInserts.Inc()
	}
	return result.(uuid.UUID), nil
}

// resolveScores extracts the scoring augmentation's resolved weight and
// confidence. If VerbScore never ran (e.g. the chain was constructed
// without it), it falls back to the caller's explicit VerbParams weight
// and confidence, and to zero for whichever of them was not given.
func resolveScores(params any) (weight, confidence float32) {
	if scored, ok := params.(augment.ScoredVerbParams); ok {
		return scored.ResolvedWeight, scored.ResolvedConfidence
	}
	if vp, ok := params.(augment.VerbParams); ok {
		if vp.Weight != nil {
			weight = *vp.Weight
		}
		if vp.Confidence != nil {
			confidence = *vp.Confidence
		}
	}
	return weight, confidence
}

func (e *Engine) ensureEndpoint(ctx context.Context, id uuid.UUID) error {
	_, _, _, found, err := e.storage.GetNoun(ctx, id)
	if err != nil {
		return newError(KindTransient, "ensureEndpoint", "storage lookup failed", err)
	}
	if found {
		return nil
	}
	if !e.config.AutoCreateMissingNouns {
		return newError(KindValidation, "ensureEndpoint", "verb endpoint does not exist", ErrEndpointMissing)
	}
	return e.createPlaceholderNoun(ctx, id)
}

func (e *Engine) createPlaceholderNoun(ctx context.Context, id uuid.UUID) error {
	vector := make([]float32, e.config.Dimension)
	meta := map[string]any{fieldPlaceholder: true}
	if err := e.storage.SaveNoun(ctx, Unknown.String(), id, vector, meta); err != nil {
		return newError(KindTransient, "createPlaceholderNoun", "storage write failed", err)
	}
	ref := hnsw.EntityRef{ID: id, Kind: hnsw.EntityNoun}
	if err := e.vector.Insert(ctx, ref, vector, meta); err != nil {
		return newError(KindTransient, "createPlaceholderNoun", "vector insert failed", err)
	}
	e.metadata.Add(Unknown.String(), ref, meta)
	return nil
}

// endpointDistance reports the configured metric's distance between two
// nouns' vectors, used by VerbScore to infer weight when the caller
// leaves it unspecified. Missing vectors (placeholder endpoints) report
// maximal distance.
func (e *Engine) endpointDistance(source, target uuid.UUID) float32 {
	sv, _, _, sFound, err := e.storage.GetNoun(context.Background(), source)
	if err != nil || !sFound {
		return 1
	}
	tv, _, _, tFound, err := e.storage.GetNoun(context.Background(), target)
	if err != nil || !tFound {
		return 1
	}
	distFn, err := util.GetDistanceFunc(e.config.Metric)
	if err != nil {
		return 1
	}
	return distFn(sv, tv)
}

// verbVector computes the vector a verb is indexed under in the shared
// HNSW index: the average of its endpoints' vectors when both are on
// file with the configured dimension (placeholder endpoints hold a zero
// vector of that dimension and are averaged too). Otherwise it is an
// embedding of the verb's own metadata when an embedder is configured,
// and a zero vector when none is.
func (e *Engine) verbVector(ctx context.Context, source, target uuid.UUID, meta map[string]any) ([]float32, error) {
	sv, _, _, sFound, err := e.storage.GetNoun(ctx, source)
	if err != nil {
		return nil, newError(KindTransient, "verbVector", "storage lookup failed", err)
	}
	tv, _, _, tFound, err := e.storage.GetNoun(ctx, target)
	if err != nil {
		return nil, newError(KindTransient, "verbVector", "storage lookup failed", err)
	}

	if sFound && tFound && len(sv) == e.config.Dimension && len(tv) == e.config.Dimension {
		avg := make([]float32, e.config.Dimension)
		for i := range avg {
			avg[i] = (sv[i] + tv[i]) / 2
		}
		return avg, nil
	}

	if e.config.Embedder != nil {
		return e.resolveVector(ctx, meta)
	}
	return make([]float32, e.config.Dimension), nil
}

// historicalVerbFrequency reports how common verbType already is in the
// corpus, relative to the total verb count, as a [0,1] proxy for
// VerbScore's confidence inference.
func (e *Engine) historicalVerbFrequency(verbType string) float32 {
	snapshot := e.counters.Snapshot()
	vt, err := ParseVerbType(verbType)
	if err != nil {
		return 0
	}
	if snapshot.TotalVerbs == 0 {
		return 0
	}
	return float32(snapshot.VerbCounts[vt]) / float32(snapshot.TotalVerbs)
}

// GetVerb returns a verb by id.
func (e *Engine) GetVerb(ctx context.Context, id uuid.UUID) (*Verb, error) {
	if err := e.ensureOpen(); err != nil {
		return nil, err
	}
	if err := e.checkMode(false, false, true); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, e.config.GetTimeout)
	defer cancel()

	source, target, weight, meta, verbType, found, err := e.storage.GetVerb(ctx, id)
	if err != nil {
		return nil, newError(KindTransient, "GetVerb", "storage lookup failed", err)
	}
	if !found {
		return nil, newError(KindNotFound, "GetVerb", "verb not found", nil)
	}
	ref := hnsw.EntityRef{ID: id, Kind: hnsw.EntityVerb}
	if e.metadata.Deleted(verbType, ref) {
		return nil, newError(KindNotFound, "GetVerb", "verb not found", nil)
	}
	vt, parseErr := ParseVerbType(verbType)
	if parseErr != nil {
		vt = Other
	}
	return &Verb{ID: id, Type: vt, Source: source, Target: target, Weight: weight, Metadata: meta}, nil
}

// DeleteVerb soft-deletes a verb and removes it from graph traversal
// immediately; the storage record itself is reclaimed later by cleanup.
func (e *Engine) DeleteVerb(ctx context.Context, id uuid.UUID) error {
	if err := e.ensureOpen(); err != nil {
		return err
	}
	if err := e.checkMode(true, false, false); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, e.config.DeleteTimeout)
	defer cancel()

	source, target, _, existingMeta, verbType, found, err := e.storage.GetVerb(ctx, id)
	if err != nil {
		return newError(KindTransient, "DeleteVerb", "storage lookup failed", err)
	}
	if !found {
		return newError(KindNotFound, "DeleteVerb", "verb not found", nil)
	}

	terminal := func(ctx context.Context, op augment.Operation, params any) (any, error) {
		tombstoned := tombstone(existingMeta)
		if err := e.storage.SaveVerbMetadata(ctx, id, tombstoned); err != nil {
			return nil, err
		}
		ref := hnsw.EntityRef{ID: id, Kind: hnsw.EntityVerb}
		e.metadata.Add(verbType, ref, tombstoned)
		e.graph.RemoveEdgesFrom(source, target, verbType)
		e.counters.DecrementVerb(int(mustParseVerbType(verbType)))
		e.cache.InvalidateOnDataChange(cache.ChangeDelete, id.String())
		return nil, nil
	}

	_, err = e.chain.Execute(ctx, augment.OpDeleteVerb, augment.VerbParams{ID: id}, terminal)
	if err != nil {
		return newError(KindTransient, "DeleteVerb", "failed to delete verb", err)
	}
	return nil
}

func mustParseVerbType(name string) VerbType {
	vt, err := ParseVerbType(name)
	if err != nil {
		return Other
	}
	return vt
}
