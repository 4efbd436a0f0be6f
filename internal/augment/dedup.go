package augment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	defaultDedupWindow  = 5 * time.Second
	defaultDedupMaxKeys = 1000
)

type inflight struct {
	done   chan struct{}
	value  any
	err    error
	expiry time.Time
}

// Dedup coalesces identical concurrent operations within a short window
// onto a single in-flight call, so a burst of repeated writes or reads
// for the same key only reaches next() once.
type Dedup struct {
	window  time.Duration
	maxKeys int

	mu    sync.Mutex
	calls map[string]*inflight
}

// NewDedup creates a deduplicating augmentation. Zero values fall back
// to spec defaults (5s window, 1000 keys).
func NewDedup(window time.Duration, maxKeys int) *Dedup {
	if window <= 0 {
		window = defaultDedupWindow
	}
	if maxKeys <= 0 {
		maxKeys = defaultDedupMaxKeys
	}
	return &Dedup{window: window, maxKeys: maxKeys, calls: make(map[string]*inflight)}
}

func (a *Dedup) Priority() int { return 50 }

func (a *Dedup) Register() error { return nil }

func (a *Dedup) Init(ctx context.Context, rc *Context) error { return nil }

func (a *Dedup) Wrap(ctx context.Context, op Operation, params any, next Next) (any, error) {
	key, err := dedupKey(op, params)
	if err != nil {
		return next(ctx, op, params)
	}

	a.mu.Lock()
	now := time.Now()
	if existing, ok := a.calls[key]; ok && now.Before(existing.expiry) {
		a.mu.Unlock()
		<-existing.done
		return existing.value, existing.err
	}

	if len(a.calls) >= a.maxKeys {
		a.evictExpiredLocked(now)
	}

	entry := &inflight{done: make(chan struct{}), expiry: now.Add(a.window)}
	a.calls[key] = entry
	a.mu.Unlock()

	entry.value, entry.err = next(ctx, op, params)
	close(entry.done)
	return entry.value, entry.err
}

func (a *Dedup) evictExpiredLocked(now time.Time) {
	for k, v := range a.calls {
		if now.After(v.expiry) {
			delete(a.calls, k)
		}
	}
}

func dedupKey(op Operation, params any) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("augment: dedup marshal key: %w", err)
	}
	sum := sha256.Sum256(append([]byte(op+":"), raw...))
	return hex.EncodeToString(sum[:]), nil
}
