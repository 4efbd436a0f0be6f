package augment

import (
	"context"
	"fmt"

	"github.com/brainygraph/brainygraph/internal/storage/wal"
)

// WAL appends a durable record before delegating, so an unacknowledged
// write can be replayed after a crash. Runs at priority 100, tied with
// ConnPool, since both must see every operation before anything else.
type WAL struct {
	TestMode bool

	w *wal.WAL
}

// NewWAL creates a WAL augmentation. testMode disables logging entirely,
// matching spec.md §4.5's "disabled under test mode" rule.
func NewWAL(testMode bool) *WAL {
	return &WAL{TestMode: testMode}
}

func (a *WAL) Priority() int { return 100 }

func (a *WAL) Register() error { return nil }

func (a *WAL) Init(ctx context.Context, rc *Context) error {
	return nil
}

// Attach binds the opened WAL file once the engine has one; called after
// Init since the WAL's path depends on engine configuration, not just
// the generic augment.Context.
func (a *WAL) Attach(w *wal.WAL) { a.w = w }

func (a *WAL) Wrap(ctx context.Context, op Operation, params any, next Next) (any, error) {
	if a.TestMode || a.w == nil {
		return next(ctx, op, params)
	}

	walOp, ok := walOpFor(op)
	if !ok {
		return next(ctx, op, params)
	}

	if _, err := a.w.Append(ctx, walOp, params); err != nil {
		return nil, fmt.Errorf("augment: wal append: %w", err)
	}

	return next(ctx, op, params)
}

func walOpFor(op Operation) (wal.Op, bool) {
	switch op {
	case OpAddNoun:
		return wal.OpAddNoun, true
	case OpUpdateNoun:
		return wal.OpUpdateNoun, true
	case OpDeleteNoun:
		return wal.OpDeleteNoun, true
	case OpAddVerb:
		return wal.OpAddVerb, true
	case OpDeleteVerb:
		return wal.OpDeleteVerb, true
	default:
		return 0, false
	}
}
