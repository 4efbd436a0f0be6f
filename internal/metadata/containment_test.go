package metadata

import (
	"context"
	"testing"
)

func TestContainmentFilter_Modes(t *testing.T) {
	ctx := context.Background()
	entries := []*Record{
		{Ref: testRef(1), Metadata: map[string]any{"tags": []any{"a", "b", "c"}}},
		{Ref: testRef(2), Metadata: map[string]any{"tags": []any{"x", "y"}}},
	}

	any1, err := NewContainsAnyFilter("tags", []any{"a", "z"}).Apply(ctx, entries)
	if err != nil || len(any1) != 1 {
		t.Errorf("ContainsAny: got %d results, err=%v", len(any1), err)
	}

	all, err := NewContainsAllFilter("tags", []any{"a", "b"}).Apply(ctx, entries)
	if err != nil || len(all) != 1 {
		t.Errorf("ContainsAll: got %d results, err=%v", len(all), err)
	}

	exact, err := NewExactMatchFilter("tags", []any{"y", "x"}).Apply(ctx, entries)
	if err != nil || len(exact) != 1 || exact[0].Ref != testRef(2) {
		t.Errorf("ExactMatch: got %v, err=%v", exact, err)
	}
}

func TestContainmentFilter_Validate(t *testing.T) {
	if err := (&ContainmentFilter{Field: "", Values: []any{1}}).Validate(); err == nil {
		t.Error("want error for empty field")
	}
	if err := (&ContainmentFilter{Field: "f", Values: nil}).Validate(); err == nil {
		t.Error("want error for empty values")
	}
}
