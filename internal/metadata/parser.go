package metadata

import (
	"fmt"
	"strconv"
	"time"
)

// Parser coerces query literals into typed values according to a
// per-field schema, falling back to type inference for unknown fields.
type Parser struct {
	schema map[string]FieldType
}

// NewParser creates a parser with the given field-name-to-type schema.
func NewParser(schema map[string]FieldType) *Parser {
	if schema == nil {
		schema = make(map[string]FieldType)
	}
	return &Parser{schema: schema}
}

// GetFieldType returns field's declared type, or FieldUnknown.
func (p *Parser) GetFieldType(field string) FieldType {
	if t, ok := p.schema[field]; ok {
		return t
	}
	return FieldUnknown
}

// ValidateField reports whether field is declared in the schema.
func (p *Parser) ValidateField(field string) bool {
	_, ok := p.schema[field]
	return ok
}

// ParseValue coerces value for field using the schema type if declared,
// otherwise by inference.
func (p *Parser) ParseValue(field string, value any) (any, error) {
	if t, ok := p.schema[field]; ok {
		return p.parseTyped(field, value, t)
	}
	return p.inferType(value), nil
}

// ParseValues coerces a slice of values for field.
func (p *Parser) ParseValues(field string, values []any) ([]any, error) {
	result := make([]any, len(values))
	for i, v := range values {
		parsed, err := p.ParseValue(field, v)
		if err != nil {
			return nil, err
		}
		result[i] = parsed
	}
	return result, nil
}

func (p *Parser) parseTyped(field string, value any, t FieldType) (any, error) {
	switch t {
	case FieldString:
		return fmt.Sprintf("%v", value), nil
	case FieldInt:
		return toInt64(value)
	case FieldFloat:
		f, ok := toFloat64(value)
		if !ok {
			return nil, NewFilterError("parser", field, fmt.Sprintf("cannot parse %v as float", value))
		}
		return f, nil
	case FieldBool:
		b, ok := value.(bool)
		if !ok {
			return nil, NewFilterError("parser", field, fmt.Sprintf("cannot parse %v as bool", value))
		}
		return b, nil
	case FieldTime:
		tv, ok := parseTimeValue(value)
		if !ok {
			return nil, NewFilterError("parser", field, fmt.Sprintf("cannot parse %v as time", value))
		}
		return tv, nil
	case FieldStringArray, FieldIntArray, FieldFloatArray:
		return value, nil
	default:
		return value, nil
	}
}

func parseTimeValue(v any) (time.Time, bool) {
	return toTime(v)
}

func (p *Parser) inferType(value any) any {
	switch v := value.(type) {
	case bool, int, int64, float64:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		if t, ok := toTime(v); ok {
			return t
		}
		return v
	default:
		return v
	}
}

func toInt64(v any) (int64, error) {
	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64:
		return val, nil
	case float64:
		return int64(val), nil
	case string:
		return strconv.ParseInt(val, 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", v)
	}
}

// CreateEqualityFilter builds an equality Filter for field == value,
// coercing value via the parser's schema first.
func (p *Parser) CreateEqualityFilter(field string, value any) (Filter, error) {
	parsed, err := p.ParseValue(field, value)
	if err != nil {
		return nil, err
	}
	return NewEqualityFilter(field, parsed), nil
}

// CreateRangeFilter builds a range Filter for field in [min, max].
func (p *Parser) CreateRangeFilter(field string, min, max any) (Filter, error) {
	var parsedMin, parsedMax any
	var err error
	if min != nil {
		if parsedMin, err = p.ParseValue(field, min); err != nil {
			return nil, err
		}
	}
	if max != nil {
		if parsedMax, err = p.ParseValue(field, max); err != nil {
			return nil, err
		}
	}
	return NewRangeFilter(field, parsedMin, parsedMax), nil
}

// CreateContainmentFilter builds a containment Filter for field.
func (p *Parser) CreateContainmentFilter(field string, values []any, mode ContainmentMode) (Filter, error) {
	parsed, err := p.ParseValues(field, values)
	if err != nil {
		return nil, err
	}
	return &ContainmentFilter{Field: field, Values: parsed, Mode: mode}, nil
}
