package augment

import "context"

// ConnPool bounds the number of concurrent outbound storage operations
// in flight, at the same priority as WAL since both must see every
// operation before the rest of the chain runs.
type ConnPool struct {
	sem chan struct{}
}

// NewConnPool creates a connection-pool augmentation admitting at most
// maxConcurrent operations at once.
func NewConnPool(maxConcurrent int) *ConnPool {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &ConnPool{sem: make(chan struct{}, maxConcurrent)}
}

func (a *ConnPool) Priority() int { return 100 }

func (a *ConnPool) Register() error { return nil }

func (a *ConnPool) Init(ctx context.Context, rc *Context) error { return nil }

func (a *ConnPool) Wrap(ctx context.Context, op Operation, params any, next Next) (any, error) {
	select {
	case a.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-a.sem }()
	return next(ctx, op, params)
}
