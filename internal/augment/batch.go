package augment

import (
	"context"
	"sync"
	"time"
)

const (
	defaultMaxBatchSize = 1000
	defaultMaxWaitTime  = 100 * time.Millisecond
)

type batchItem struct {
	ctx    context.Context
	op     Operation
	params any
	next   Next
	result chan batchResult
}

type batchResult struct {
	value any
	err   error
}

// Batch accumulates same-type operations up to maxBatchSize or
// maxWaitTime, then lets them proceed together. Each item still runs its
// own next() — batching here bounds how many writes are in flight to the
// storage adapter at once per operation type, rather than merging them
// into a single storage call, since the storage.Adapter contract is
// single-entity per call.
type Batch struct {
	maxBatchSize int
	maxWaitTime  time.Duration

	mu      sync.Mutex
	pending map[Operation][]*batchItem
	timers  map[Operation]*time.Timer
}

// NewBatch creates a batching augmentation. Zero values fall back to
// spec defaults (1000 items / 100ms).
func NewBatch(maxBatchSize int, maxWaitTime time.Duration) *Batch {
	if maxBatchSize <= 0 {
		maxBatchSize = defaultMaxBatchSize
	}
	if maxWaitTime <= 0 {
		maxWaitTime = defaultMaxWaitTime
	}
	return &Batch{
		maxBatchSize: maxBatchSize,
		maxWaitTime:  maxWaitTime,
		pending:      make(map[Operation][]*batchItem),
		timers:       make(map[Operation]*time.Timer),
	}
}

func (a *Batch) Priority() int { return 80 }

func (a *Batch) Register() error { return nil }

func (a *Batch) Init(ctx context.Context, rc *Context) error { return nil }

func (a *Batch) Wrap(ctx context.Context, op Operation, params any, next Next) (any, error) {
	item := &batchItem{ctx: ctx, op: op, params: params, next: next, result: make(chan batchResult, 1)}

	a.mu.Lock()
	a.pending[op] = append(a.pending[op], item)
	flush := len(a.pending[op]) >= a.maxBatchSize
	if !flush && a.timers[op] == nil {
		a.timers[op] = time.AfterFunc(a.maxWaitTime, func() { a.flush(op) })
	}
	a.mu.Unlock()

	if flush {
		a.flush(op)
	}

	select {
	case res := <-item.result:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Batch) flush(op Operation) {
	a.mu.Lock()
	items := a.pending[op]
	a.pending[op] = nil
	if t := a.timers[op]; t != nil {
		t.Stop()
		a.timers[op] = nil
	}
	a.mu.Unlock()

	for _, item := range items {
		value, err := item.next(item.ctx, item.op, item.params)
		item.result <- batchResult{value: value, err: err}
	}
}
