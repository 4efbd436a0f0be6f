// Package metadata implements the inverted index that backs metadata
// predicates over nouns and verbs: per-type postings for equality and
// containment fields, plus the query-side Filter predicates. Filters are
// evaluated over a materialized slice of records; range fields have no
// postings.
package metadata

import (
	"context"
	"fmt"

	"github.com/brainygraph/brainygraph/internal/hnsw"
)

// Record is one entity's metadata as seen by the index: its identity and
// its full metadata map, including any _brainy.* system fields.
type Record struct {
	Ref      hnsw.EntityRef
	Type     string
	Metadata map[string]any
}

// Filter is a query-side predicate evaluated against a candidate set of
// records. Apply narrows entries, Validate checks the filter's own
// configuration, EstimateSelectivity feeds the planner's over-fetch
// heuristic, and String renders it for logging and cursors.
type Filter interface {
	Apply(ctx context.Context, entries []*Record) ([]*Record, error)
	Validate() error
	EstimateSelectivity() float64
	String() string
}

// FilterType identifies which concrete Filter implementation a Filter is.
type FilterType int

const (
	FilterEquality FilterType = iota
	FilterRange
	FilterContainment
	FilterLogical
)

// LogicalOperator identifies how a LogicalFilter combines its children.
type LogicalOperator int

const (
	AndOperator LogicalOperator = iota
	OrOperator
	NotOperator
)

// FieldType is the declared or inferred type of a metadata field, used by
// Parser to coerce query literals before they reach a Filter.
type FieldType int

const (
	FieldUnknown FieldType = iota
	FieldString
	FieldInt
	FieldFloat
	FieldBool
	FieldTime
	FieldStringArray
	FieldIntArray
	FieldFloatArray
)

// FilterError reports a problem with a filter's own configuration, as
// opposed to an error evaluating it against data.
type FilterError struct {
	Type    string
	Field   string
	Message string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("metadata filter [%s] field %q: %s", e.Type, e.Field, e.Message)
}

// NewFilterError constructs a FilterError.
func NewFilterError(filterType, field, message string) *FilterError {
	return &FilterError{Type: filterType, Field: field, Message: message}
}

// SystemDeleted is the reserved field marking a soft-deleted entity.
// SystemDeletedAt records when the tombstone was set, consulted by
// periodic cleanup to find entities past the hard-removal age threshold.
const (
	SystemDeleted   = "_brainy.deleted"
	SystemDeletedAt = "_brainy.deletedAt"
)

// IsSystemField reports whether field belongs to the reserved _brainy.*
// namespace.
func IsSystemField(field string) bool {
	return len(field) >= 8 && field[:8] == "_brainy."
}
