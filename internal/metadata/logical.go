package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/brainygraph/brainygraph/internal/hnsw"
)

// LogicalFilter combines child filters with AND, OR, or NOT.
type LogicalFilter struct {
	Operator LogicalOperator
	Filters  []Filter
}

// NewAndFilter requires every child filter to match.
func NewAndFilter(filters ...Filter) *LogicalFilter {
	return &LogicalFilter{Operator: AndOperator, Filters: filters}
}

// NewOrFilter requires any child filter to match.
func NewOrFilter(filters ...Filter) *LogicalFilter {
	return &LogicalFilter{Operator: OrOperator, Filters: filters}
}

// NewNotFilter negates a single child filter.
func NewNotFilter(filter Filter) *LogicalFilter {
	return &LogicalFilter{Operator: NotOperator, Filters: []Filter{filter}}
}

func (f *LogicalFilter) Apply(ctx context.Context, entries []*Record) ([]*Record, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	switch f.Operator {
	case AndOperator:
		return f.applyAnd(ctx, entries)
	case OrOperator:
		return f.applyOr(ctx, entries)
	case NotOperator:
		return f.applyNot(ctx, entries)
	default:
		return nil, NewFilterError("logical", "", fmt.Sprintf("unsupported operator: %v", f.Operator))
	}
}

func (f *LogicalFilter) Validate() error {
	if len(f.Filters) == 0 {
		return NewFilterError("logical", "", "must have at least one child filter")
	}
	if f.Operator == NotOperator && len(f.Filters) != 1 {
		return NewFilterError("logical", "", "NOT filter must have exactly one child filter")
	}
	for i, child := range f.Filters {
		if err := child.Validate(); err != nil {
			return NewFilterError("logical", "", fmt.Sprintf("child filter %d: %v", i, err))
		}
	}
	return nil
}

// EstimateSelectivity combines child selectivities by the filter's operator.
func (f *LogicalFilter) EstimateSelectivity() float64 {
	if len(f.Filters) == 0 {
		return 1.0
	}
	switch f.Operator {
	case AndOperator:
		selectivity := 1.0
		for _, child := range f.Filters {
			selectivity *= child.EstimateSelectivity()
		}
		return selectivity
	case OrOperator:
		complement := 1.0
		for _, child := range f.Filters {
			complement *= 1.0 - child.EstimateSelectivity()
		}
		return 1.0 - complement
	case NotOperator:
		return 1.0 - f.Filters[0].EstimateSelectivity()
	default:
		return 0.5
	}
}

func (f *LogicalFilter) String() string {
	if len(f.Filters) == 0 {
		return "EMPTY"
	}
	switch f.Operator {
	case AndOperator, OrOperator:
		sep := " AND "
		if f.Operator == OrOperator {
			sep = " OR "
		}
		parts := make([]string, len(f.Filters))
		for i, child := range f.Filters {
			parts[i] = fmt.Sprintf("(%s)", child.String())
		}
		return strings.Join(parts, sep)
	case NotOperator:
		return fmt.Sprintf("NOT (%s)", f.Filters[0].String())
	default:
		return "UNKNOWN"
	}
}

func (f *LogicalFilter) applyAnd(ctx context.Context, entries []*Record) ([]*Record, error) {
	result := entries
	for _, child := range f.Filters {
		var err error
		result, err = child.Apply(ctx, result)
		if err != nil {
			return nil, err
		}
		if len(result) == 0 {
			break
		}
	}
	return result, nil
}

func (f *LogicalFilter) applyOr(ctx context.Context, entries []*Record) ([]*Record, error) {
	var all []*Record
	seen := make(map[hnsw.EntityRef]bool)
	for _, child := range f.Filters {
		matched, err := child.Apply(ctx, entries)
		if err != nil {
			return nil, err
		}
		for _, entry := range matched {
			if !seen[entry.Ref] {
				all = append(all, entry)
				seen[entry.Ref] = true
			}
		}
	}
	return all, nil
}

func (f *LogicalFilter) applyNot(ctx context.Context, entries []*Record) ([]*Record, error) {
	matched, err := f.Filters[0].Apply(ctx, entries)
	if err != nil {
		return nil, err
	}
	matchedRefs := make(map[hnsw.EntityRef]bool, len(matched))
	for _, entry := range matched {
		matchedRefs[entry.Ref] = true
	}
	var result []*Record
	for _, entry := range entries {
		if !matchedRefs[entry.Ref] {
			result = append(result, entry)
		}
	}
	return result, nil
}
