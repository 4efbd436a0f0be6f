package hnsw

import (
	"container/list"
	"context"
	"sync"
)

// NodeLoader fetches a node's vector and links from durable storage when it
// is not resident in the paged cache. Implemented by fsadapter.Adapter.
type NodeLoader interface {
	LoadHNSWNode(ctx context.Context, ref EntityRef) (*Node, error)
}

// PagedCache fronts a NodeLoader with an LRU of resident nodes, so a graph
// too large to fit in memory can still be traversed without holding every
// node at once. It is a standalone cache: Index does not page through it,
// Config has no in-memory node budget, and Index keeps every node resident.
type PagedCache struct {
	mu       sync.Mutex
	loader   NodeLoader
	capacity int
	entries  map[EntityRef]*list.Element
	order    *list.List // front = most recently used
}

type pagedEntry struct {
	ref  EntityRef
	node *Node
}

// NewPagedCache creates a cache that holds at most capacity resident nodes.
func NewPagedCache(loader NodeLoader, capacity int) *PagedCache {
	return &PagedCache{
		loader:   loader,
		capacity: capacity,
		entries:  make(map[EntityRef]*list.Element),
		order:    list.New(),
	}
}

// Get returns ref's node, loading it from the backing store on a miss.
func (c *PagedCache) Get(ctx context.Context, ref EntityRef) (*Node, error) {
	c.mu.Lock()
	if elem, ok := c.entries[ref]; ok {
		c.order.MoveToFront(elem)
		node := elem.Value.(*pagedEntry).node
		c.mu.Unlock()
		return node, nil
	}
	c.mu.Unlock()

	node, err := c.loader.LoadHNSWNode(ctx, ref)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[ref]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*pagedEntry).node, nil
	}
	elem := c.order.PushFront(&pagedEntry{ref: ref, node: node})
	c.entries[ref] = elem
	c.evictLocked()
	return node, nil
}

// Invalidate evicts ref from the cache, forcing the next Get to reload it.
func (c *PagedCache) Invalidate(ref EntityRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[ref]; ok {
		c.order.Remove(elem)
		delete(c.entries, ref)
	}
}

func (c *PagedCache) evictLocked() {
	for c.order.Len() > c.capacity {
		back := c.order.Back()
		if back == nil {
			return
		}
		entry := c.order.Remove(back).(*pagedEntry)
		delete(c.entries, entry.ref)
	}
}
