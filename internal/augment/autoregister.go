package augment

import (
	"context"

	"github.com/google/uuid"
)

// InsertParams is the subset of insert params AutoRegister and
// VerbScore need: both nouns and verbs carry an id and an optional
// external identifier supplied by the caller's service.
type InsertParams struct {
	ID         uuid.UUID
	ExternalID string
}

// AutoRegister adds an external identifier to the entity registry after
// a successful insert, so subsequent writes referencing the same
// external id resolve to the same uuid without a storage lookup.
type AutoRegister struct {
	registry *EntityRegistry
}

// NewAutoRegister creates an auto-register augmentation writing into
// registry.
func NewAutoRegister(registry *EntityRegistry) *AutoRegister {
	return &AutoRegister{registry: registry}
}

func (a *AutoRegister) Priority() int { return 85 }

func (a *AutoRegister) Register() error { return nil }

func (a *AutoRegister) Init(ctx context.Context, rc *Context) error { return nil }

func (a *AutoRegister) Wrap(ctx context.Context, op Operation, params any, next Next) (any, error) {
	result, err := next(ctx, op, params)
	if err != nil {
		return result, err
	}
	if op != OpAddNoun && op != OpAddVerb {
		return result, nil
	}
	switch p := params.(type) {
	case InsertParams:
		if p.ExternalID != "" {
			a.registry.Put(p.ExternalID, p.ID)
		}
	case VerbParams:
		if p.ExternalID != "" {
			a.registry.Put(p.ExternalID, p.ID)
		}
	}
	return result, nil
}
