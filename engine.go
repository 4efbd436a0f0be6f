// Package brainygraph is an embedded, graph-augmented vector database:
// typed entities ("nouns") carrying dense vectors and metadata, typed
// directed relationships ("verbs") between them, and approximate
// nearest-neighbor search fused with graph traversal and metadata
// filtering.
package brainygraph

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brainygraph/brainygraph/internal/augment"
	"github.com/brainygraph/brainygraph/internal/cache"
	"github.com/brainygraph/brainygraph/internal/cleanup"
	"github.com/brainygraph/brainygraph/internal/embed"
	"github.com/brainygraph/brainygraph/internal/hnsw"
	"github.com/brainygraph/brainygraph/internal/metadata"
	"github.com/brainygraph/brainygraph/internal/obs"
	"github.com/brainygraph/brainygraph/internal/planner"
	"github.com/brainygraph/brainygraph/internal/stats"
	"github.com/brainygraph/brainygraph/internal/storage"
	"github.com/brainygraph/brainygraph/internal/storage/blob"
	"github.com/brainygraph/brainygraph/internal/storage/fsadapter"
	"github.com/brainygraph/brainygraph/internal/storage/throttle"
	"github.com/brainygraph/brainygraph/internal/storage/wal"
)

// Engine is the single entry point onto the corpus: storage, vector
// index, metadata index, graph adjacency, the write-pipeline
// augmentation chain, the cache tier, and the background cleanup task.
type Engine struct {
	mu     sync.RWMutex
	closed bool
	config *Config

	storage  storage.Adapter
	blobs    *blob.Store
	vector   *hnsw.Index
	metadata *metadata.Index
	graph    *graphIndex
	chain    *augment.Chain
	wal      *wal.WAL
	cache    *cache.Tier
	counters *stats.Counters
	throttle *throttle.Controller
	planner  *planner.Planner
	reclaim  *cleanup.Reclaimer

	metrics *obs.Metrics
	health  *obs.HealthChecker
	log     zerolog.Logger

	cancelBackground context.CancelFunc
}

// New constructs and initializes an Engine: the two-phase startup spec.md
// describes as register augmentations, resolve storage, initialize
// augmentations, load or lazy-load HNSW from storage, start background
// tasks.
func New(opts ...Option) (*Engine, error) {
	config := defaultConfig()
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, newError(KindValidation, "New", "failed to apply option", err)
		}
	}
	if err := config.validate(); err != nil {
		return nil, newError(KindValidation, "New", "invalid configuration", err)
	}

	if config.Embedder != nil {
		if err := embed.Probe(context.Background(), config.Embedder, nil, config.Dimension); err != nil {
			return nil, newError(KindValidation, "New", "embedder probe failed", err)
		}
	}

	adapter, err := fsadapter.New(config.StoragePath, config.Log)
	if err != nil {
		return nil, newError(KindResource, "New", "failed to initialize storage", err)
	}

	hnswIndex, err := hnsw.New(hnswConfigFrom(config))
	if err != nil {
		return nil, newError(KindResource, "New", "failed to initialize vector index", err)
	}

	blobStore, err := blob.New(config.StoragePath)
	if err != nil {
		return nil, newError(KindResource, "New", "failed to initialize blob store", err)
	}

	e := &Engine{
		config:   config,
		storage:  adapter,
		blobs:    blobStore,
		vector:   hnswIndex,
		metadata: metadata.New(),
		graph:    newGraphIndex(),
		cache:    cache.New(config.HotCacheCapacity, config.WarmCacheTTL),
		counters: stats.NewCounters(),
		throttle: throttle.NewController(),
		log:      config.Log,
	}

	e.planner = planner.New(e.vector, e.metadata, e.graph)

	if config.MetricsEnabled {
		e.metrics = obs.NewMetrics()
	}
	e.health = obs.NewHealthChecker(map[string]obs.Probe{
		"storage": e.checkStorageHealth,
		"vector":  e.checkVectorHealth,
	})

	if err := e.initAugmentations(); err != nil {
		adapter.Close()
		return nil, newError(KindResource, "New", "failed to initialize write pipeline", err)
	}

	if err := e.loadExisting(context.Background()); err != nil {
		adapter.Close()
		return nil, newError(KindResource, "New", "failed to load existing corpus", err)
	}

	e.startBackgroundTasks()

	return e, nil
}

// hnswMLDefault is 1/ln(2), the standard HNSW level-generation factor.
const hnswMLDefault = 1.0 / 0.6931471805599453

func hnswConfigFrom(c *Config) *hnsw.Config {
	return &hnsw.Config{
		Dimension:      c.Dimension,
		M:              c.HNSWM,
		EfConstruction: c.HNSWEfConstruction,
		EfSearch:       c.HNSWEfSearch,
		ML:             hnswMLDefault,
		Metric:         c.Metric,
	}
}

func (e *Engine) initAugmentations() error {
	chain := augment.NewChain()

	walAug := augment.NewWAL(!e.config.WALEnabled)
	if e.config.WALEnabled {
		w, err := wal.Open(filepath.Join(e.config.StoragePath, "wal", "current.log"))
		if err != nil {
			return fmt.Errorf("open wal: %w", err)
		}
		e.wal = w
		walAug.Attach(w)
	}
	chain.Use(walAug)
	chain.Use(augment.NewConnPool(e.config.ConnPoolConcurrency))

	registry := augment.NewEntityRegistry(e.config.RegistryCapacity, e.config.RegistryTTL)
	chain.Use(registry)
	chain.Use(augment.NewAutoRegister(registry))
	chain.Use(augment.NewBatch(e.config.BatchMaxSize, e.config.BatchMaxWait))
	chain.Use(augment.NewDedup(e.config.DedupWindow, e.config.DedupMaxKeys))
	chain.Use(augment.NewVerbScore())

	if err := chain.Register(); err != nil {
		return err
	}
	rc := &augment.Context{Storage: e.storage, Log: e.log}
	if err := chain.Init(context.Background(), rc); err != nil {
		return err
	}

	e.chain = chain
	return nil
}

// loadExisting walks storage for every persisted noun and verb and
// rebuilds the in-memory HNSW index, metadata index, and graph adjacency,
// the default eager-load path; fsadapter itself only rebuilds its id-to-
// type location index on open.
func (e *Engine) loadExisting(ctx context.Context) error {
	const pageSize = 500

	for offset := 0; ; offset += pageSize {
		result, err := e.storage.GetNouns(ctx, storage.ListOptions{
			Pagination: storage.Pagination{Offset: offset, Limit: pageSize},
		})
		if err != nil {
			return fmt.Errorf("load nouns: %w", err)
		}
		for _, raw := range result.Items {
			item := raw.(map[string]any)
			id := item["id"].(uuid.UUID)
			entityType := item["type"].(string)
			vector, _ := item["vector"].([]float32)
			meta, _ := item["metadata"].(map[string]any)

			ref := hnsw.EntityRef{ID: id, Kind: hnsw.EntityNoun}
			if len(vector) > 0 {
				if err := e.vector.Insert(ctx, ref, vector, meta); err != nil {
					return fmt.Errorf("load noun %s: %w", id, err)
				}
			}
			e.metadata.Add(entityType, ref, meta)
		}
		if !result.HasMore {
			break
		}
	}

	for offset := 0; ; offset += pageSize {
		result, err := e.storage.GetVerbs(ctx, storage.ListOptions{
			Pagination: storage.Pagination{Offset: offset, Limit: pageSize},
		})
		if err != nil {
			return fmt.Errorf("load verbs: %w", err)
		}
		for _, raw := range result.Items {
			item := raw.(map[string]any)
			id := item["id"].(uuid.UUID)
			entityType := item["type"].(string)
			source := item["source"].(uuid.UUID)
			target := item["target"].(uuid.UUID)
			meta, _ := item["metadata"].(map[string]any)

			ref := hnsw.EntityRef{ID: id, Kind: hnsw.EntityVerb}
			verbVector, err := e.verbVector(ctx, source, target, meta)
			if err != nil {
				return fmt.Errorf("load verb %s: %w", id, err)
			}
			if err := e.vector.Insert(ctx, ref, verbVector, meta); err != nil {
				return fmt.Errorf("load verb %s: %w", id, err)
			}
			e.metadata.Add(entityType, ref, meta)
			e.graph.AddEdge(source, target, entityType)
		}
		if !result.HasMore {
			break
		}
	}

	return nil
}

func (e *Engine) startBackgroundTasks() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancelBackground = cancel

	entityTypes := make([]string, 0, len(nounTypeNames)+len(verbTypeNames))
	entityTypes = append(entityTypes, nounTypeNames[:]...)
	entityTypes = append(entityTypes, verbTypeNames[:]...)
	e.reclaim = cleanup.New(e.storage, e.vector, e.metadata, entityTypes, e.log)
	e.reclaim.Interval = e.config.CleanupInterval
	e.reclaim.MaxAge = e.config.CleanupMaxAge
	go e.reclaim.Run(ctx)
}

func (e *Engine) checkStorageHealth(ctx context.Context) *obs.CheckResult {
	if _, err := e.storage.GetStorageStatus(ctx); err != nil {
		return &obs.CheckResult{Healthy: false, Message: err.Error()}
	}
	return &obs.CheckResult{Healthy: true, Message: "ok"}
}

func (e *Engine) checkVectorHealth(ctx context.Context) *obs.CheckResult {
	return &obs.CheckResult{Healthy: true, Message: fmt.Sprintf("%d nodes", e.vector.Size())}
}

// Health runs every registered probe and reports the aggregate status.
func (e *Engine) Health(ctx context.Context) *obs.HealthStatus {
	return e.health.Check(ctx)
}

// Close gracefully shuts down the engine: background tasks, the WAL, and
// the storage adapter, in that order.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	if e.cancelBackground != nil {
		e.cancelBackground()
	}
	if e.wal != nil {
		if err := e.wal.Close(); err != nil {
			return fmt.Errorf("brainygraph: close wal: %w", err)
		}
	}
	if err := e.storage.Close(); err != nil {
		return fmt.Errorf("brainygraph: close storage: %w", err)
	}
	return nil
}

// checkMode enforces spec's per-mode write/search/direct-read gates.
// search covers the HNSW/metadata/graph query surface (Search); directRead
// covers id-based lookups (GetNoun, GetVerb, GetBlob). Under ModeWriteOnly,
// search is rejected unconditionally and directRead is rejected unless
// AllowDirectReads is set — AllowDirectReads never exempts the search
// surface itself.
func (e *Engine) checkMode(write, search, directRead bool) error {
	switch e.config.Mode {
	case ModeReadOnly:
		if write {
			return ErrReadOnly
		}
	case ModeWriteOnly:
		if search {
			return ErrWriteOnly
		}
		if directRead && !e.config.AllowDirectReads {
			return ErrWriteOnly
		}
	case ModeFrozen:
		if write {
			return ErrFrozen
		}
	}
	return nil
}

func (e *Engine) ensureOpen() error {
	if e.closed {
		return ErrClosed
	}
	return nil
}

