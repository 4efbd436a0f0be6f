package augment

import (
	"context"
	"testing"
)

type recordingAugmentation struct {
	name     string
	priority int
	order    *[]string
}

func (a *recordingAugmentation) Priority() int   { return a.priority }
func (a *recordingAugmentation) Register() error { return nil }
func (a *recordingAugmentation) Init(ctx context.Context, rc *Context) error { return nil }
func (a *recordingAugmentation) Wrap(ctx context.Context, op Operation, params any, next Next) (any, error) {
	*a.order = append(*a.order, a.name)
	return next(ctx, op, params)
}

func TestChain_RunsHighestPriorityFirst(t *testing.T) {
	var order []string
	c := NewChain()
	c.Use(&recordingAugmentation{name: "low", priority: 10, order: &order})
	c.Use(&recordingAugmentation{name: "high", priority: 100, order: &order})
	c.Use(&recordingAugmentation{name: "mid", priority: 50, order: &order})

	terminal := func(ctx context.Context, op Operation, params any) (any, error) {
		order = append(order, "terminal")
		return "done", nil
	}

	result, err := c.Execute(context.Background(), OpAddNoun, nil, terminal)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != "done" {
		t.Errorf("result = %v, want done", result)
	}

	want := []string{"high", "mid", "low", "terminal"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestChain_RegisterThenInit(t *testing.T) {
	c := NewChain()
	c.Use(NewWAL(true))
	c.Use(NewConnPool(4))

	if err := c.Register(); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := c.Init(context.Background(), &Context{}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
}
