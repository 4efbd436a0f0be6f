package augment

import (
	"context"
	"testing"
	"time"
)

func TestVerbScore_UsesExplicitValuesWhenProvided(t *testing.T) {
	a := NewVerbScore()
	w := float32(0.7)
	conf := float32(0.9)

	var captured any
	next := func(ctx context.Context, op Operation, params any) (any, error) {
		captured = params
		return nil, nil
	}

	_, err := a.Wrap(context.Background(), OpAddVerb, VerbParams{Weight: &w, Confidence: &conf}, next)
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}
	scored := captured.(ScoredVerbParams)
	if scored.ResolvedWeight != w || scored.ResolvedConfidence != conf {
		t.Errorf("scored = %+v, want weight=%v confidence=%v", scored, w, conf)
	}
}

func TestVerbScore_InfersWhenUnspecified(t *testing.T) {
	a := NewVerbScore()
	a.Now = func() time.Time { return time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC) }

	var captured any
	next := func(ctx context.Context, op Operation, params any) (any, error) {
		captured = params
		return nil, nil
	}

	params := VerbParams{
		EndpointDistance: 0.2,
		HistoricalFreq:   0.8,
		CreatedAt:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err := a.Wrap(context.Background(), OpAddVerb, params, next)
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}
	scored := captured.(ScoredVerbParams)
	if scored.ResolvedWeight <= 0 || scored.ResolvedWeight > 1 {
		t.Errorf("ResolvedWeight = %v, want in (0,1]", scored.ResolvedWeight)
	}
	if scored.ResolvedConfidence <= 0 || scored.ResolvedConfidence > 1 {
		t.Errorf("ResolvedConfidence = %v, want in (0,1]", scored.ResolvedConfidence)
	}
}

func TestVerbScore_IgnoresOtherOperations(t *testing.T) {
	a := NewVerbScore()
	called := false
	next := func(ctx context.Context, op Operation, params any) (any, error) {
		called = true
		return params, nil
	}
	result, err := a.Wrap(context.Background(), OpAddNoun, "raw", next)
	if err != nil || !called || result != "raw" {
		t.Errorf("Wrap() should pass through non-verb ops unchanged: result=%v err=%v called=%v", result, err, called)
	}
}
