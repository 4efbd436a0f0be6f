// Package augment implements the priority-ordered interceptor chain that
// wraps every mutating operation: write-ahead logging, connection
// pooling, entity registration, batching, deduplication, and verb-score
// inference.
package augment

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/brainygraph/brainygraph/internal/storage"
)

// Operation names the mutating call an augmentation is wrapping.
type Operation string

const (
	OpAddNoun    Operation = "add_noun"
	OpUpdateNoun Operation = "update_noun"
	OpDeleteNoun Operation = "delete_noun"
	OpAddVerb    Operation = "add_verb"
	OpDeleteVerb Operation = "delete_verb"
)

// Next invokes the remainder of the chain (or the underlying operation,
// for the innermost link).
type Next func(ctx context.Context, op Operation, params any) (any, error)

// Context carries the shared collaborators every augmentation's Init may
// need: the storage handle and logger. It is handed to Init, not
// Register, so augmentations never see it during construction — the
// two-phase split that keeps the engine/augmentation lifetime acyclic.
type Context struct {
	Storage storage.Adapter
	Log     zerolog.Logger
}

// Augmentation is one interceptor in the write pipeline.
type Augmentation interface {
	// Priority orders the chain; higher runs first (outermost wrapper).
	Priority() int
	// Register is called at chain construction, before any storage
	// handle exists.
	Register() error
	// Init is called once storage and logging are available.
	Init(ctx context.Context, rc *Context) error
	// Wrap may short-circuit, mutate params, or delegate to next.
	Wrap(ctx context.Context, op Operation, params any, next Next) (any, error)
}

// Chain runs a set of Augmentations around a terminal operation handler,
// highest priority outermost.
type Chain struct {
	mu            sync.RWMutex
	augmentations []Augmentation
	sorted        bool
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// Use adds an augmentation to the chain. Must be called before Register.
func (c *Chain) Use(a Augmentation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.augmentations = append(c.augmentations, a)
	c.sorted = false
}

func (c *Chain) ensureSorted() {
	if c.sorted {
		return
	}
	sort.SliceStable(c.augmentations, func(i, j int) bool {
		return c.augmentations[i].Priority() > c.augmentations[j].Priority()
	})
	c.sorted = true
}

// Register runs phase one of startup: every augmentation's Register,
// highest priority first.
func (c *Chain) Register() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureSorted()
	for _, a := range c.augmentations {
		if err := a.Register(); err != nil {
			return fmt.Errorf("augment: register %T: %w", a, err)
		}
	}
	return nil
}

// Init runs phase two of startup: every augmentation's Init against a
// fully constructed Context.
func (c *Chain) Init(ctx context.Context, rc *Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureSorted()
	for _, a := range c.augmentations {
		if err := a.Init(ctx, rc); err != nil {
			return fmt.Errorf("augment: init %T: %w", a, err)
		}
	}
	return nil
}

// Execute runs op through every augmentation, highest priority
// outermost, finally invoking terminal.
func (c *Chain) Execute(ctx context.Context, op Operation, params any, terminal Next) (any, error) {
	c.mu.Lock()
	c.ensureSorted()
	augmentations := make([]Augmentation, len(c.augmentations))
	copy(augmentations, c.augmentations)
	c.mu.Unlock()

	next := terminal
	for i := len(augmentations) - 1; i >= 0; i-- {
		a := augmentations[i]
		inner := next
		next = func(ctx context.Context, op Operation, params any) (any, error) {
			return a.Wrap(ctx, op, params, inner)
		}
	}
	return next(ctx, op, params)
}
