package augment

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultRegistryCapacity = 100000
	defaultRegistryTTL      = 5 * time.Minute
)

type registryEntry struct {
	externalID string
	uuid       uuid.UUID
	expiresAt  time.Time
}

// EntityRegistry maintains an external-id to internal uuid mapping with
// bounded LRU eviction and TTL expiry, letting streaming ingest dedup
// repeated external identifiers without a storage round trip.
type EntityRegistry struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List
	index    map[string]*list.Element
	now      func() time.Time
}

// NewEntityRegistry creates an entity registry. capacity <= 0 and
// ttl <= 0 fall back to spec defaults (100 000 entries, 5 minute TTL).
func NewEntityRegistry(capacity int, ttl time.Duration) *EntityRegistry {
	if capacity <= 0 {
		capacity = defaultRegistryCapacity
	}
	if ttl <= 0 {
		ttl = defaultRegistryTTL
	}
	return &EntityRegistry{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		index:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

func (r *EntityRegistry) Priority() int { return 95 }

func (r *EntityRegistry) Register() error { return nil }

func (r *EntityRegistry) Init(ctx context.Context, rc *Context) error { return nil }

// Wrap is a pass-through; AutoRegister populates the registry after a
// successful insert, and lookups happen directly via Lookup.
func (r *EntityRegistry) Wrap(ctx context.Context, op Operation, params any, next Next) (any, error) {
	return next(ctx, op, params)
}

// Lookup returns the uuid previously registered for externalID, evicting
// it first if its TTL has expired.
func (r *EntityRegistry) Lookup(externalID string) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, ok := r.index[externalID]
	if !ok {
		return uuid.UUID{}, false
	}
	entry := elem.Value.(*registryEntry)
	if r.now().After(entry.expiresAt) {
		r.order.Remove(elem)
		delete(r.index, externalID)
		return uuid.UUID{}, false
	}
	r.order.MoveToFront(elem)
	return entry.uuid, true
}

// Put registers externalID against id, evicting the least-recently-used
// entry if the registry is at capacity.
func (r *EntityRegistry) Put(externalID string, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elem, ok := r.index[externalID]; ok {
		entry := elem.Value.(*registryEntry)
		entry.uuid = id
		entry.expiresAt = r.now().Add(r.ttl)
		r.order.MoveToFront(elem)
		return
	}

	if r.order.Len() >= r.capacity {
		oldest := r.order.Back()
		if oldest != nil {
			r.order.Remove(oldest)
			delete(r.index, oldest.Value.(*registryEntry).externalID)
		}
	}

	entry := &registryEntry{externalID: externalID, uuid: id, expiresAt: r.now().Add(r.ttl)}
	r.index[externalID] = r.order.PushFront(entry)
}
