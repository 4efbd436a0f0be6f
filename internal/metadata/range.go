package metadata

import (
	"context"
	"fmt"
	"time"
)

// RangeFilter matches records whose field falls within [Min, Max]. A nil
// bound is unbounded on that side.
type RangeFilter struct {
	Field string
	Min   any
	Max   any
}

// NewRangeFilter creates a range filter with both bounds.
func NewRangeFilter(field string, min, max any) *RangeFilter {
	return &RangeFilter{Field: field, Min: min, Max: max}
}

// NewGreaterThanFilter creates a lower-bounded range filter.
func NewGreaterThanFilter(field string, value any) *RangeFilter {
	return &RangeFilter{Field: field, Min: value}
}

// NewLessThanFilter creates an upper-bounded range filter.
func NewLessThanFilter(field string, value any) *RangeFilter {
	return &RangeFilter{Field: field, Max: value}
}

// NewBetweenFilter creates an inclusive two-sided range filter.
func NewBetweenFilter(field string, min, max any) *RangeFilter {
	return &RangeFilter{Field: field, Min: min, Max: max}
}

func (f *RangeFilter) Apply(ctx context.Context, entries []*Record) ([]*Record, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var result []*Record
	for _, entry := range entries {
		if entry.Metadata == nil {
			continue
		}
		fieldValue, exists := entry.Metadata[f.Field]
		if !exists {
			continue
		}
		if f.valueInRange(fieldValue) {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (f *RangeFilter) Validate() error {
	if f.Field == "" {
		return NewFilterError("range", f.Field, "field name cannot be empty")
	}
	if f.Min == nil && f.Max == nil {
		return NewFilterError("range", f.Field, "at least one bound must be specified")
	}
	if f.Min != nil && f.Max != nil {
		if !areComparable(f.Min, f.Max) {
			return NewFilterError("range", f.Field, "min and max must be comparable types")
		}
		if compareValues(f.Min, f.Max) > 0 {
			return NewFilterError("range", f.Field, "min must be less than or equal to max")
		}
	}
	return nil
}

// EstimateSelectivity reports a higher estimated match fraction for
// open-ended ranges than for two-sided ones.
func (f *RangeFilter) EstimateSelectivity() float64 {
	if f.Min != nil && f.Max != nil {
		return 0.3
	}
	return 0.5
}

func (f *RangeFilter) String() string {
	switch {
	case f.Min != nil && f.Max != nil:
		return fmt.Sprintf("%s BETWEEN %v AND %v", f.Field, f.Min, f.Max)
	case f.Min != nil:
		return fmt.Sprintf("%s >= %v", f.Field, f.Min)
	default:
		return fmt.Sprintf("%s <= %v", f.Field, f.Max)
	}
}

func (f *RangeFilter) valueInRange(value any) bool {
	if f.Min != nil && compareValues(value, f.Min) < 0 {
		return false
	}
	if f.Max != nil && compareValues(value, f.Max) > 0 {
		return false
	}
	return true
}

func compareValues(a, b any) int {
	if aNum, aOk := toFloat64(a); aOk {
		if bNum, bOk := toFloat64(b); bOk {
			switch {
			case aNum < bNum:
				return -1
			case aNum > bNum:
				return 1
			default:
				return 0
			}
		}
	}
	if aStr, aOk := a.(string); aOk {
		if bStr, bOk := b.(string); bOk {
			switch {
			case aStr < bStr:
				return -1
			case aStr > bStr:
				return 1
			default:
				return 0
			}
		}
	}
	if aTime, aOk := toTime(a); aOk {
		if bTime, bOk := toTime(b); bOk {
			switch {
			case aTime.Before(bTime):
				return -1
			case aTime.After(bTime):
				return 1
			default:
				return 0
			}
		}
	}
	return 0
}

func areComparable(a, b any) bool {
	if _, aOk := toFloat64(a); aOk {
		if _, bOk := toFloat64(b); bOk {
			return true
		}
	}
	if _, aOk := a.(string); aOk {
		if _, bOk := b.(string); bOk {
			return true
		}
	}
	if _, aOk := toTime(a); aOk {
		if _, bOk := toTime(b); bOk {
			return true
		}
	}
	return false
}

func toTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		formats := []string{
			time.RFC3339,
			time.RFC3339Nano,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02",
		}
		for _, format := range formats {
			if t, err := time.Parse(format, val); err == nil {
				return t, true
			}
		}
	case int64:
		return time.Unix(val, 0), true
	}
	return time.Time{}, false
}
